// Package cli builds the plot_training and plot_training_comparison commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/trainplot/internal/chartui"
	"github.com/verte-zerg/trainplot/internal/config"
	"github.com/verte-zerg/trainplot/internal/logger"
	"github.com/verte-zerg/trainplot/internal/model"
	"github.com/verte-zerg/trainplot/internal/pipeline"
	"github.com/verte-zerg/trainplot/internal/stats"
)

const (
	defaultLogLevel  = "warn"
	defaultLogFormat = "text"
)

type options struct {
	sigma          float64
	truncate       float64
	tailFraction   float64
	height         int
	plain          bool
	referenceLines bool
	configPath     string
	logLevel       string
	logFormat      string
}

// messages holds the user-facing error text of one command.
type messages struct {
	usage       string
	example     string
	notFound    func(err error) string
	readFailure func(err error) string
}

// reportedError marks an error whose message was already shown to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string {
	return e.err.Error()
}

func (e *reportedError) Unwrap() error {
	return e.err
}

// Execute runs cmd and returns the process exit code.
func Execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			logErrf(cmd, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// NewPlotCmd builds the single-run command.
func NewPlotCmd() *cobra.Command {
	opts := &options{}
	msgs := messages{
		usage:   "Usage: plot_training <filename> <title>",
		example: "Example: plot_training actor_critic/actor_critic_training_reward_per_batch.csv 'Actor-Critic Training Performance'",
		notFound: func(err error) string {
			var inErr *pipeline.InputError
			if errors.As(err, &inErr) {
				return fmt.Sprintf("Error: File '%s' not found.", inErr.Path)
			}
			return fmt.Sprintf("Error: File not found - %v", err)
		},
		readFailure: func(err error) string {
			return fmt.Sprintf("Error reading file: %v", err)
		},
	}
	cmd := &cobra.Command{
		Use:           "plot_training <filename> <title>",
		Short:         "Plot a training reward curve with a Gaussian trend line",
		Args:          exactArgs(2, msgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := []pipeline.Input{{Path: args[0], Label: args[0]}}
			spec := model.PlotSpec{Title: args[1], ReferenceLines: true}
			return runPlot(cmd, opts, msgs, inputs, spec)
		},
	}
	bindFlags(cmd, opts)
	return cmd
}

// NewCompareCmd builds the two-run comparison command.
func NewCompareCmd() *cobra.Command {
	opts := &options{}
	msgs := messages{
		usage:   "Usage: plot_training_comparison <filename1> <label1> <filename2> <label2> <title>",
		example: "Example: plot_training_comparison file1.csv 'Method A' file2.csv 'Method B' 'Training Comparison'",
		notFound: func(err error) string {
			var inErr *pipeline.InputError
			if errors.As(err, &inErr) {
				return fmt.Sprintf("Error: File not found - '%s'", inErr.Path)
			}
			return fmt.Sprintf("Error: File not found - %v", err)
		},
		readFailure: func(err error) string {
			return fmt.Sprintf("Error reading files: %v", err)
		},
	}
	cmd := &cobra.Command{
		Use:           "plot_training_comparison <filename1> <label1> <filename2> <label2> <title>",
		Short:         "Overlay two training reward curves with Gaussian trend lines",
		Args:          exactArgs(5, msgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := []pipeline.Input{
				{Path: args[0], Label: args[1]},
				{Path: args[2], Label: args[3]},
			}
			spec := model.PlotSpec{
				Title:  args[4],
				Labels: []string{args[1], args[3]},
			}
			return runPlot(cmd, opts, msgs, inputs, spec)
		},
	}
	bindFlags(cmd, opts)
	cmd.Flags().BoolVar(&opts.referenceLines, "reference-lines", false, "draw the converged reward line of each run")
	return cmd
}

func bindFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().Float64Var(&opts.sigma, "sigma", model.DefaultSigma, "standard deviation of the Gaussian kernel, in samples")
	cmd.Flags().Float64Var(&opts.truncate, "truncate", model.DefaultTruncate, "kernel radius in standard deviations")
	cmd.Flags().Float64Var(&opts.tailFraction, "tail-fraction", model.DefaultTailFraction, "fraction of final samples averaged into the converged reward (0-1]")
	cmd.Flags().IntVar(&opts.height, "height", 0, "chart height in rows (0 fits the window)")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "print the chart to stdout instead of opening the chart window")
	cmd.Flags().StringVar(&opts.configPath, "config", config.DefaultConfigPath(), "path to the TOML config file")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", defaultLogLevel, "diagnostic log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", defaultLogFormat, "diagnostic log format (text, json)")
}

func exactArgs(n int, msgs messages) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == n {
			return nil
		}
		out := cmd.OutOrStdout()
		logOutf(out, "%s\n%s\n", msgs.usage, msgs.example)
		return &reportedError{err: fmt.Errorf("expected %d arguments, got %d", n, len(args))}
	}
}

func runPlot(cmd *cobra.Command, opts *options, msgs messages, inputs []pipeline.Input, spec model.PlotSpec) error {
	fileCfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyConfig(cmd, opts, fileCfg)
	if err := validateOptions(opts); err != nil {
		return err
	}
	spec.ReferenceLines = spec.ReferenceLines || opts.referenceLines

	log := logger.NewWithWriter(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
	smoothing := model.SmoothingConfig{
		Sigma:        opts.sigma,
		Truncate:     opts.truncate,
		TailFraction: opts.tailFraction,
	}

	out := cmd.OutOrStdout()
	runs, err := pipeline.ProcessAll(cmd.Context(), inputs, smoothing, log)
	if err != nil {
		log.Debug("pipeline failed", "err", err)
		if errors.Is(err, model.ErrFileNotFound) {
			logOutf(out, "%s\n", msgs.notFound(err))
		} else {
			logOutf(out, "%s\n", msgs.readFailure(err))
		}
		return &reportedError{err: err}
	}

	display := model.DisplayConfig{Height: opts.height, Plain: opts.plain || !isTerminal(out)}
	return render(out, runs, spec, smoothing.Sigma, display, log)
}

func render(out io.Writer, runs []model.Run, spec model.PlotSpec, sigma float64, display model.DisplayConfig, log *slog.Logger) error {
	if display.Plain {
		log.Debug("rendering plain chart", "runs", len(runs))
		if err := stats.RenderSummary(out, runs); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
		chart := stats.BuildChart(runs, spec, sigma)
		if err := stats.RenderChart(out, chart, 0, display.Height, stats.ShouldUseColor(out)); err != nil {
			return fmt.Errorf("failed to render chart: %w", err)
		}
		return nil
	}

	log.Debug("opening chart window", "runs", len(runs))
	program := tea.NewProgram(chartui.NewModel(runs, spec, sigma, display.Height), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run chart window: %w", err)
	}
	return nil
}

func applyConfig(cmd *cobra.Command, opts *options, fileCfg config.FileConfig) {
	applyFloatConfig(cmd, "sigma", &opts.sigma, fileCfg.Smoothing.Sigma)
	applyFloatConfig(cmd, "truncate", &opts.truncate, fileCfg.Smoothing.Truncate)
	applyFloatConfig(cmd, "tail-fraction", &opts.tailFraction, fileCfg.Smoothing.TailFraction)
	applyIntConfig(cmd, "height", &opts.height, fileCfg.Display.Height)
	applyBoolConfig(cmd, "plain", &opts.plain, fileCfg.Display.Plain)
	applyBoolConfig(cmd, "reference-lines", &opts.referenceLines, fileCfg.Display.ReferenceLines)
	applyStringConfig(cmd, "log-level", &opts.logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-format", &opts.logFormat, fileCfg.Log.Format)
}

func validateOptions(opts *options) error {
	if !(opts.sigma > 0) || math.IsInf(opts.sigma, 0) {
		return fmt.Errorf("%w: --sigma must be > 0", model.ErrInvalidParameter)
	}
	if !(opts.truncate > 0) || math.IsInf(opts.truncate, 0) {
		return fmt.Errorf("%w: --truncate must be > 0", model.ErrInvalidParameter)
	}
	if !(opts.tailFraction > 0 && opts.tailFraction <= 1) {
		return fmt.Errorf("%w: --tail-fraction must be in (0, 1]", model.ErrInvalidParameter)
	}
	if opts.height < 0 {
		return fmt.Errorf("%w: --height must be >= 0", model.ErrInvalidParameter)
	}
	format := strings.ToLower(opts.logFormat)
	if format != "text" && format != "json" {
		return fmt.Errorf("--log-format must be text or json")
	}
	return nil
}

// applyStringConfig copies a config value into target unless the flag was set.
func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || cmd.Flags().Lookup(name) == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || cmd.Flags().Lookup(name) == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil || cmd.Flags().Lookup(name) == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil || cmd.Flags().Lookup(name) == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func logOutf(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		// Best-effort user message.
		_ = err
	}
}

func logErrf(cmd *cobra.Command, format string, args ...any) {
	if _, err := fmt.Fprintf(cmd.ErrOrStderr(), format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
