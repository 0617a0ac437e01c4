package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/verte-zerg/trainplot/internal/model"
)

// MaxKernelRadius caps the kernel radius. At this width the Gaussian is
// already flat over any training log, so larger sigmas smooth toward the mean
// instead of allocating an unbounded kernel.
const MaxKernelRadius = 1 << 20

// GaussianKernel builds a normalized Gaussian kernel of radius
// int(truncate*sigma+0.5), capped at MaxKernelRadius.
func GaussianKernel(sigma, truncate float64) ([]float64, error) {
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("%w: sigma must be > 0, got %v", model.ErrInvalidParameter, sigma)
	}
	if !(truncate > 0) || math.IsInf(truncate, 0) {
		return nil, fmt.Errorf("%w: truncate must be > 0, got %v", model.ErrInvalidParameter, truncate)
	}
	radius := kernelRadius(sigma, truncate)
	kernel := make([]float64, 2*radius+1)
	variance := sigma * sigma
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-0.5 * x * x / variance)
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel, nil
}

func kernelRadius(sigma, truncate float64) int {
	r := math.Floor(truncate*sigma + 0.5)
	if r > MaxKernelRadius || math.IsInf(r, 0) {
		return MaxKernelRadius
	}
	return int(r)
}

// GaussianSmooth convolves values with a Gaussian kernel using reflect edge handling
// (d c b a | a b c d | d c b a). The result has the same length as values.
func GaussianSmooth(values []float64, cfg model.SmoothingConfig) ([]float64, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: cannot smooth an empty series", model.ErrInvalidParameter)
	}
	kernel, err := GaussianKernel(cfg.Sigma, cfg.Truncate)
	if err != nil {
		return nil, err
	}
	radius := len(kernel) / 2
	n := len(values)
	out := make([]float64, n)

	period := 2 * n
	if len(kernel) <= period {
		for i := 0; i < n; i++ {
			var sum float64
			for k, w := range kernel {
				sum += w * values[reflectIndex(i+k-radius, n)]
			}
			out[i] = sum
		}
		return out, nil
	}

	// Reflection repeats every 2n samples, so a wider kernel folds onto one period.
	folded := make([]float64, period)
	for k, w := range kernel {
		folded[reflectOffset(k-radius, period)] += w
	}
	for i := 0; i < n; i++ {
		var sum float64
		for j, w := range folded {
			sum += w * values[reflectIndex(i+j, n)]
		}
		out[i] = sum
	}
	return out, nil
}

func reflectOffset(offset, period int) int {
	m := offset % period
	if m < 0 {
		m += period
	}
	return m
}

// reflectIndex folds idx into [0, n) by mirroring about the half-sample edges,
// repeating as often as needed for kernels wider than the series.
func reflectIndex(idx, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	m := reflectOffset(idx, period)
	if m >= n {
		m = period - 1 - m
	}
	return m
}
