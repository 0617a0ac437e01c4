// Package model defines shared data structures.
package model

// Default smoothing and summary settings.
const (
	DefaultSigma        = 30.0
	DefaultTruncate     = 4.0
	DefaultTailFraction = 0.1
)

// SmoothingConfig defines the Gaussian filter and convergence summary settings.
type SmoothingConfig struct {
	Sigma        float64
	Truncate     float64
	TailFraction float64
}

// DefaultSmoothingConfig returns the settings used when nothing is configured.
func DefaultSmoothingConfig() SmoothingConfig {
	return SmoothingConfig{
		Sigma:        DefaultSigma,
		Truncate:     DefaultTruncate,
		TailFraction: DefaultTailFraction,
	}
}

// TrainingSeries holds the batch and average_reward columns of one training log.
type TrainingSeries struct {
	Source  string
	Batches []float64
	Rewards []float64
}

// Len returns the number of data rows.
func (s TrainingSeries) Len() int {
	return len(s.Rewards)
}

// Run pairs a loaded series with its derived trend and convergence summary.
type Run struct {
	Label     string
	Series    TrainingSeries
	Smoothed  []float64
	Converged float64
}

// PlotSpec carries the caller-supplied chart text.
type PlotSpec struct {
	Title  string
	Labels []string
	// ReferenceLines draws the converged reward of each run as a horizontal line.
	ReferenceLines bool
}

// DisplayConfig defines how the chart is presented.
type DisplayConfig struct {
	Height int
	Plain  bool
}
