package model

import "errors"

var (
	// ErrFileNotFound reports a path that does not resolve to a readable file.
	ErrFileNotFound = errors.New("file not found")
	// ErrMalformedInput reports a readable file whose contents cannot be used.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInvalidParameter reports an unusable smoothing or summary parameter.
	ErrInvalidParameter = errors.New("invalid parameter")
)
