package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/trainplot/internal/model"
)

// ConvergedReward averages the last floor(tailFraction*n) values. Series too short
// for a non-empty tail fall back to the last value.
func ConvergedReward(values []float64, tailFraction float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("%w: cannot summarize an empty series", model.ErrInvalidParameter)
	}
	if !(tailFraction > 0 && tailFraction <= 1) {
		return 0, fmt.Errorf("%w: tail fraction must be in (0, 1], got %v", model.ErrInvalidParameter, tailFraction)
	}
	k := TailSize(len(values), tailFraction)
	if k == 0 {
		return values[len(values)-1], nil
	}
	return stat.Mean(values[len(values)-k:], nil), nil
}

// TailSize returns floor(fraction*n), tolerant of binary rounding (0.1*30 is not exactly 3).
func TailSize(n int, fraction float64) int {
	k := int(math.Floor(float64(n)*fraction + 1e-9))
	if k > n {
		k = n
	}
	if k < 0 {
		k = 0
	}
	return k
}

// TotalVariation returns the sum of absolute differences between neighbours.
func TotalVariation(values []float64) float64 {
	var tv float64
	for i := 1; i < len(values); i++ {
		tv += math.Abs(values[i] - values[i-1])
	}
	return tv
}
