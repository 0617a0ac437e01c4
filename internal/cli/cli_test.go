package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func writeLog(t *testing.T, dir, name string, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("batch,average_reward\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d,%d\n", i+1, i)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	configPath := filepath.Join(t.TempDir(), "absent.toml")
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	code := Execute(cmd)
	return code, stdout.String(), stderr.String()
}

func TestPlotWrongArgCount(t *testing.T) {
	code, out, _ := runCmd(t, NewPlotCmd(), "only-one.csv")
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(out, "Usage: plot_training <filename> <title>") || !strings.Contains(out, "Example:") {
		t.Fatalf("expected usage on stdout, got %q", out)
	}
}

func TestPlotMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")
	code, out, _ := runCmd(t, NewPlotCmd(), path, "Title")
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if want := fmt.Sprintf("Error: File '%s' not found.", path); !strings.Contains(out, want) {
		t.Fatalf("expected %q, got %q", want, out)
	}
	if strings.Contains(out, "Training Batch") {
		t.Fatalf("expected no chart after a failed load")
	}
}

func TestPlotMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("batch,reward\n1,2\n"), 0o644); err != nil {
		t.Fatalf("write bad log: %v", err)
	}
	code, out, _ := runCmd(t, NewPlotCmd(), path, "Title")
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(out, "Error reading file:") || !strings.Contains(out, "average_reward") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestPlotPlainOutput(t *testing.T) {
	path := writeLog(t, t.TempDir(), "run.csv", 100)
	code, out, errOut := runCmd(t, NewPlotCmd(), path, "PPO Training Performance")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr %q)", code, errOut)
	}
	for _, want := range []string{"PPO Training Performance", "Raw Data", "Gaussian Trend (σ=30)", "Average Trained Reward: 94.5", "Training Batch"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPlotConfigAndFlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "run.csv", 50)
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[smoothing]\nsigma = 5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	code, out, _ := runCmd(t, NewPlotCmd(), "--config", configPath, path, "Title")
	if code != 0 || !strings.Contains(out, "Gaussian Trend (σ=5)") {
		t.Fatalf("expected config sigma, code=%d output:\n%s", code, out)
	}

	code, out, _ = runCmd(t, NewPlotCmd(), "--config", configPath, "--sigma", "7", path, "Title")
	if code != 0 || !strings.Contains(out, "Gaussian Trend (σ=7)") {
		t.Fatalf("expected flag sigma to win, code=%d output:\n%s", code, out)
	}
}

func TestPlotInvalidSigma(t *testing.T) {
	path := writeLog(t, t.TempDir(), "run.csv", 10)
	code, _, errOut := runCmd(t, NewPlotCmd(), "--sigma", "0", path, "Title")
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut, "--sigma must be > 0") {
		t.Fatalf("expected sigma error on stderr, got %q", errOut)
	}
}

func TestPlotRejectsNonFiniteParameters(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "nan sigma", args: []string{"--sigma", "NaN"}, want: "--sigma must be > 0"},
		{name: "infinite sigma", args: []string{"--sigma", "+Inf"}, want: "--sigma must be > 0"},
		{name: "nan truncate", args: []string{"--truncate", "NaN"}, want: "--truncate must be > 0"},
		{name: "nan tail fraction", args: []string{"--tail-fraction", "NaN"}, want: "--tail-fraction must be in (0, 1]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeLog(t, t.TempDir(), "run.csv", 10)
			args := append(tc.args, path, "Title")
			code, out, errOut := runCmd(t, NewPlotCmd(), args...)
			if code != 1 {
				t.Fatalf("expected exit code 1, got %d", code)
			}
			if !strings.Contains(errOut, tc.want) {
				t.Fatalf("expected %q on stderr, got %q", tc.want, errOut)
			}
			if strings.Contains(out, "Error reading file") {
				t.Fatalf("expected parameter error, not a file error: %q", out)
			}
		})
	}
}

func TestCompareWrongArgCount(t *testing.T) {
	code, out, _ := runCmd(t, NewCompareCmd(), "a.csv", "A", "b.csv")
	if code != 1 || !strings.Contains(out, "Usage: plot_training_comparison") {
		t.Fatalf("expected usage and exit 1, got code=%d out=%q", code, out)
	}
}

func TestComparePlainOutput(t *testing.T) {
	dir := t.TempDir()
	a := writeLog(t, dir, "a.csv", 100)
	b := writeLog(t, dir, "b.csv", 40)

	code, out, errOut := runCmd(t, NewCompareCmd(), a, "Method A", b, "Method B", "Comparison")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr %q)", code, errOut)
	}
	for _, want := range []string{"Comparison", "Method A - Raw Data", "Method B - Gaussian Trend (σ=30)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Average Trained Reward") {
		t.Fatalf("expected no reference lines by default")
	}

	code, out, _ = runCmd(t, NewCompareCmd(), "--reference-lines", a, "Method A", b, "Method B", "Comparison")
	if code != 0 || !strings.Contains(out, "Method A - Average Trained Reward: 94.5") {
		t.Fatalf("expected reference lines, code=%d output:\n%s", code, out)
	}
}

func TestCompareFailsWhenEitherInputFails(t *testing.T) {
	dir := t.TempDir()
	a := writeLog(t, dir, "a.csv", 20)
	missing := filepath.Join(dir, "missing.csv")

	code, out, _ := runCmd(t, NewCompareCmd(), a, "A", missing, "B", "Comparison")
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(out, "Error: File not found - '"+missing+"'") {
		t.Fatalf("unexpected output %q", out)
	}
	if strings.Contains(out, "Raw Data") {
		t.Fatalf("expected no partial chart")
	}
}
