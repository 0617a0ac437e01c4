// Package pipeline runs the load, smooth and summarize stages for training logs.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/trainplot/internal/model"
	"github.com/verte-zerg/trainplot/internal/stats"
	"github.com/verte-zerg/trainplot/internal/trainlog"
)

// Input names one training log and the label it is plotted under.
type Input struct {
	Path  string
	Label string
}

// InputError ties a stage failure to the file that caused it.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Process loads one CSV and derives its trend and converged reward.
func Process(in Input, cfg model.SmoothingConfig, logger *slog.Logger) (model.Run, error) {
	if logger == nil {
		logger = slog.Default()
	}
	series, err := trainlog.LoadCSV(in.Path)
	if err != nil {
		return model.Run{}, &InputError{Path: in.Path, Err: err}
	}
	logger.Debug("loaded training log", "path", in.Path, "rows", series.Len())

	smoothed, err := stats.GaussianSmooth(series.Rewards, cfg)
	if err != nil {
		return model.Run{}, &InputError{Path: in.Path, Err: err}
	}
	converged, err := stats.ConvergedReward(series.Rewards, cfg.TailFraction)
	if err != nil {
		return model.Run{}, &InputError{Path: in.Path, Err: err}
	}
	logger.Debug("summarized training log",
		"path", in.Path,
		"sigma", cfg.Sigma,
		"tail", stats.TailSize(series.Len(), cfg.TailFraction),
		"converged", converged,
	)
	return model.Run{
		Label:     in.Label,
		Series:    series,
		Smoothed:  smoothed,
		Converged: converged,
	}, nil
}

// ProcessAll processes every input concurrently. Results keep input order, and
// any failure fails the whole call so nothing is rendered from partial data.
// When several inputs fail, the error of the earliest input is returned.
func ProcessAll(ctx context.Context, inputs []Input, cfg model.SmoothingConfig, logger *slog.Logger) ([]model.Run, error) {
	runs := make([]model.Run, len(inputs))
	errs := make([]error, len(inputs))
	var g errgroup.Group
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			runs[i], errs[i] = Process(in, cfg, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return runs, nil
}
