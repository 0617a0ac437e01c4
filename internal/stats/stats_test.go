package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/trainplot/internal/model"
)

func TestBuildChartSingleRun(t *testing.T) {
	chart := BuildChart([]model.Run{sampleRun("ppo", 20)}, model.PlotSpec{Title: "PPO"}, 30)
	if len(chart.Lines) != 2 {
		t.Fatalf("expected raw and trend lines, got %d", len(chart.Lines))
	}
	if chart.Lines[0].Name != "Raw Data" || !chart.Lines[0].Faint {
		t.Fatalf("unexpected raw line: %+v", chart.Lines[0])
	}
	if chart.Lines[1].Name != "Gaussian Trend (σ=30)" || chart.Lines[1].Faint {
		t.Fatalf("unexpected trend line: %+v", chart.Lines[1])
	}
	if chart.Lines[0].Color != chart.Lines[1].Color {
		t.Fatalf("expected raw and trend to share a color")
	}
	if len(chart.References) != 1 || chart.References[0].Name != "Average Trained Reward: 94.5" {
		t.Fatalf("unexpected references: %+v", chart.References)
	}
}

func TestBuildChartComparison(t *testing.T) {
	runs := []model.Run{sampleRun("A", 20), sampleRun("B", 30)}
	chart := BuildChart(runs, model.PlotSpec{Title: "cmp"}, 12.5)
	if len(chart.Lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(chart.Lines))
	}
	if chart.Lines[2].Name != "B - Raw Data" || chart.Lines[3].Name != "B - Gaussian Trend (σ=12.5)" {
		t.Fatalf("unexpected names: %q, %q", chart.Lines[2].Name, chart.Lines[3].Name)
	}
	if chart.Lines[0].Color == chart.Lines[2].Color {
		t.Fatalf("expected distinct colors per run")
	}
	if len(chart.References) != 0 {
		t.Fatalf("expected no reference lines by default, got %d", len(chart.References))
	}

	chart = BuildChart(runs, model.PlotSpec{Title: "cmp", ReferenceLines: true}, 12.5)
	if len(chart.References) != 2 || chart.References[1].Name != "B - Average Trained Reward: 94.5" {
		t.Fatalf("unexpected references: %+v", chart.References)
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, []model.Run{sampleRun("ppo", 100)}); err != nil {
		t.Fatalf("RenderSummary failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Run", "Converged", "ppo", "100", "94.5", "99.00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in summary:\n%s", want, out)
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 5, 10}); got != " +@" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{2, 2}); got != "++" {
		t.Fatalf("expected flat sparkline, got %q", got)
	}
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
}

func TestDownsample(t *testing.T) {
	got := Downsample([]float64{1, 3, 5, 7, 9, 11}, 3)
	want := []float64{2, 6, 10}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if got := Downsample([]float64{1, 2}, 5); len(got) != 2 {
		t.Fatalf("expected short series to be copied, got %v", got)
	}
}
