package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/trainplot/internal/model"
)

// Axis titles shared by every chart.
const (
	XAxisTitle = "Training Batch"
	YAxisTitle = "Average Reward Per Episode"
)

const sparkChars = " .:-=+*#%@"

// RunColors assigns one color per run, in input order.
var RunColors = []lipgloss.Color{
	lipgloss.Color("#FF8C00"), // orange
	lipgloss.Color("#2CA02C"), // green
	lipgloss.Color("#1F77B4"), // blue
	lipgloss.Color("#D62728"), // red
	lipgloss.Color("#9467BD"), // purple
}

// ReferenceColor is used for converged reward lines.
var ReferenceColor = lipgloss.Color("#808080")

// TrendName is the legend text for a smoothed series.
func TrendName(sigma float64) string {
	return fmt.Sprintf("Gaussian Trend (σ=%s)", formatSigma(sigma))
}

// ReferenceName is the legend text for a converged reward line.
func ReferenceName(value float64) string {
	return fmt.Sprintf("Average Trained Reward: %.1f", value)
}

// BuildChart lays out raw and smoothed lines for every run. With a single run the
// legend names are unprefixed and the converged reward line is always drawn; with
// several runs each name is prefixed by the run label and reference lines follow
// spec.ReferenceLines.
func BuildChart(runs []model.Run, spec model.PlotSpec, sigma float64) Chart {
	chart := Chart{
		Title:  spec.Title,
		XLabel: XAxisTitle,
		YLabel: YAxisTitle,
	}
	single := len(runs) == 1
	for i, run := range runs {
		color := RunColors[i%len(RunColors)]
		prefix := ""
		if !single {
			prefix = run.Label + " - "
		}
		chart.Lines = append(chart.Lines,
			Line{
				Name:  prefix + "Raw Data",
				X:     run.Series.Batches,
				Y:     run.Series.Rewards,
				Color: color,
				Style: Dotted,
				Faint: true,
			},
			Line{
				Name:  prefix + TrendName(sigma),
				X:     run.Series.Batches,
				Y:     run.Smoothed,
				Color: color,
				Style: Solid,
			},
		)
		if single || spec.ReferenceLines {
			chart.References = append(chart.References, Reference{
				Name:  prefix + ReferenceName(run.Converged),
				Value: run.Converged,
				Color: ReferenceColor,
			})
		}
	}
	return chart
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints one row per run with its size, range and converged reward.
func RenderSummary(w io.Writer, runs []model.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs loaded.")
		return err
	}
	headers := []string{"Run", "Points", "Min", "Max", "Converged", "Noise (raw → trend)"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		minVal, maxVal := seriesMinMax(run.Series.Rewards)
		rows = append(rows, []string{
			run.Label,
			fmt.Sprintf("%d", run.Series.Len()),
			fmt.Sprintf("%.2f", minVal),
			fmt.Sprintf("%.2f", maxVal),
			fmt.Sprintf("%.1f", run.Converged),
			fmt.Sprintf("%.1f → %.1f", TotalVariation(run.Series.Rewards), TotalVariation(run.Smoothed)),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

func seriesMinMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	return minVal, maxVal
}

func formatSigma(sigma float64) string {
	if sigma == math.Trunc(sigma) {
		return fmt.Sprintf("%d", int64(sigma))
	}
	return fmt.Sprintf("%g", sigma)
}

// Downsample averages values into at most width buckets.
func Downsample(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	if len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := int(float64(i) * float64(len(values)) / float64(width))
		end := int(float64(i+1) * float64(len(values)) / float64(width))
		if end <= start {
			end = start + 1
		}
		if end > len(values) {
			end = len(values)
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}
