package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/microflo/internal/board"
	"github.com/roach88/microflo/internal/component"
	"github.com/roach88/microflo/internal/config"
	"github.com/roach88/microflo/internal/engine"
	"github.com/roach88/microflo/internal/metric"
	"github.com/roach88/microflo/internal/simulator"
	"github.com/roach88/microflo/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	DurationMs int64
	StepMs     int64
	Board      string
	Database   string
	Metrics    bool
	MaxSteps   int
}

// RunResult is the board state after a simulation.
type RunResult struct {
	Board          string       `json:"board"`
	TimeMs         int64        `json:"time_ms"`
	DigitalOutputs map[int]bool `json:"digital_outputs"`
	AnalogOutputs  map[int]int  `json:"analog_outputs"`
	Failures       []string     `json:"failures,omitempty"`
	RunID          string       `json:"run_id,omitempty"`
	Metrics        string       `json:"metrics,omitempty"`
}

func (r RunResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Simulated %dms on %s\n", r.TimeMs, r.Board)
	if len(r.DigitalOutputs) > 0 {
		b.WriteString("Digital outputs:\n")
		for _, pin := range sortedPins(r.DigitalOutputs) {
			level := "LOW"
			if r.DigitalOutputs[pin] {
				level = "HIGH"
			}
			fmt.Fprintf(&b, "  %d: %s\n", pin, level)
		}
	}
	if len(r.AnalogOutputs) > 0 {
		b.WriteString("Analog outputs:\n")
		for _, pin := range sortedPins(r.AnalogOutputs) {
			fmt.Fprintf(&b, "  %d: %d\n", pin, r.AnalogOutputs[pin])
		}
	}
	if len(r.Failures) > 0 {
		fmt.Fprintf(&b, "Failures (%d):\n", len(r.Failures))
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "  %s\n", f)
		}
	}
	if r.RunID != "" {
		fmt.Fprintf(&b, "Trace: run %s\n", r.RunID)
	}
	if r.Metrics != "" {
		b.WriteString(r.Metrics)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func sortedPins[V any](m map[int]V) []int {
	pins := make([]int, 0, len(m))
	for pin := range m {
		pins = append(pins, pin)
	}
	slices.Sort(pins)
	return pins
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <graph.fbp>",
		Short: "Simulate a graph on a board",
		Long: `Load a graph onto a simulated board and advance simulated time.

Time moves in increments of --step milliseconds until --duration is
reached; each increment runs one scheduler step. The final output pin
state is printed.

With --db every delivery and failure is recorded in a SQLite trace
database (see "microflo trace"). With --metrics the packet counters are
printed in Prometheus text format.

Examples:
  microflo run blink.fbp --duration 2000
  microflo run blink.fbp --board nano --db ./trace.db
  microflo run blink.fbp --metrics --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.DurationMs, "duration", 1000, "simulated time to run, in milliseconds")
	cmd.Flags().Int64Var(&opts.StepMs, "step", 100, "simulated time per scheduler step, in milliseconds")
	cmd.Flags().StringVar(&opts.Board, "board", "", "board name or CUE profile (default uno)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the trace in this SQLite database")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print packet metrics")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "delivery budget per scheduler step")

	return cmd
}

func runSimulation(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.DurationMs < 0 || opts.StepMs <= 0 {
		_ = formatter.Error(ErrCodeGeneric, "--duration must be non-negative and --step positive", nil)
		return NewExitError(ExitCommandError, "invalid time flags")
	}

	text, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read graph", err)
	}

	profile, err := config.Resolve(opts.Board)
	if err != nil {
		_ = formatter.Error(ErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid board", err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	io := board.NewSimulated(profile)
	observers := []engine.Observer{engine.NewLogObserver(logger)}

	var registry *prometheus.Registry
	if opts.Metrics {
		registry = prometheus.NewRegistry()
		collector, err := metric.NewCollector(registry)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to register metrics", err)
		}
		observers = append(observers, collector)
	}

	var (
		runID    string
		recorder *store.Recorder
	)
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()

		runID, err = st.BeginRun(ctx, store.Run{Program: string(text), Board: profile.Name})
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to begin run", err)
		}
		recorder = store.NewRecorder(ctx, st, runID, io, logger)
		observers = append(observers, recorder)
		formatter.VerboseLog("Recording run %s in %s", runID, opts.Database)
	}

	sim := simulator.New(component.NewDefaultRegistry(),
		simulator.WithIO(io),
		simulator.WithLogger(logger),
		simulator.WithMaxSteps(opts.MaxSteps),
		simulator.WithObserver(observers...),
	)
	if err := sim.Start(ctx); err != nil {
		return WrapExitError(ExitFailure, "failed to start simulator", err)
	}
	defer sim.Stop()

	if err := sim.UploadFBP(string(text), nil); err != nil {
		_ = formatter.Error(ErrorCode(err), err.Error(), errorDetails(path, err))
		return WrapExitError(ExitFailure, "graph failed to load", err)
	}

	for elapsed := int64(0); elapsed < opts.DurationMs; {
		if ctx.Err() != nil {
			logger.Info("interrupted", "time_ms", io.Now())
			break
		}
		d := min(opts.StepMs, opts.DurationMs-elapsed)
		if err := io.AdvanceTime(d); err != nil {
			return WrapExitError(ExitFailure, "advance time", err)
		}
		elapsed += d
	}

	state := io.State()
	result := RunResult{
		Board:          profile.Name,
		TimeMs:         state.CurrentTimeMs,
		DigitalOutputs: state.DigitalOutputs,
		AnalogOutputs:  state.AnalogOutputs,
		RunID:          runID,
	}
	for _, f := range sim.Failures() {
		result.Failures = append(result.Failures, f.Error())
	}
	if recorder != nil {
		if err := recorder.Err(); err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "trace incomplete", err)
		}
	}
	if registry != nil {
		var buf bytes.Buffer
		if err := metric.WriteText(&buf, registry); err != nil {
			return WrapExitError(ExitFailure, "failed to write metrics", err)
		}
		result.Metrics = buf.String()
	}

	return formatter.Success(result)
}
