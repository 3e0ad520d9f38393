package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/microflo/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - list runs when empty
	Node     string // optional - filter deliveries to this node
}

// RunList is the output of trace without --run.
type RunList struct {
	Runs []store.Run `json:"runs"`
}

func (l RunList) String() string {
	if len(l.Runs) == 0 {
		return "No runs recorded."
	}
	var b strings.Builder
	for i, r := range l.Runs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  board=%s  start=%dms", r.ID, r.Board, r.StartMs)
	}
	return b.String()
}

// TraceResult holds one recorded run.
type TraceResult struct {
	Run        store.Run        `json:"run"`
	Deliveries []store.Delivery `json:"deliveries"`
	Failures   []store.Failure  `json:"failures"`
	Stats      TraceStats       `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Deliveries int   `json:"deliveries"`
	Initials   int   `json:"initials"`
	Failures   int   `json:"failures"`
	LastTimeMs int64 `json:"last_time_ms"`
}

func (r TraceResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (board %s)\n", r.Run.ID, r.Run.Board)
	for _, d := range r.Deliveries {
		src := "(initial)"
		if !d.Src.IsZero() {
			src = d.Src.String()
		}
		fmt.Fprintf(&b, "  #%-4d %6dms  %s -> %s  %s\n", d.Seq, d.TimeMs, src, d.Dst, d.Packet)
	}
	if len(r.Failures) > 0 {
		b.WriteString("Failures:\n")
		for _, f := range r.Failures {
			where := f.Node
			if where == "" {
				where = "network"
			}
			fmt.Fprintf(&b, "  %6dms  %s (%s): %s\n", f.TimeMs, where, f.Phase, f.Message)
		}
	}
	fmt.Fprintf(&b, "%d deliveries (%d initial), %d failures", r.Stats.Deliveries, r.Stats.Initials, r.Stats.Failures)
	return b.String()
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show a recorded run",
		Long: `Show runs recorded by "microflo run --db".

Without --run, lists the recorded runs. With --run, prints every delivery
of that run in sequence order followed by its processing failures.

Examples:
  microflo trace --db ./trace.db
  microflo trace --db ./trace.db --run 0190f5c2-...
  microflo trace --db ./trace.db --run 0190f5c2-... --node led --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to show")
	cmd.Flags().StringVar(&opts.Node, "node", "", "only show deliveries to this node")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Open would create an empty database
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		runs, err := st.ReadRuns(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read runs", err)
		}
		return formatter.Success(RunList{Runs: runs})
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if err != nil {
		code := ErrCodeStore
		if errors.Is(err, store.ErrRunNotFound) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	deliveries, err := st.ReadTrace(ctx, run.ID)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}
	failures, err := st.ReadFailures(ctx, run.ID)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read failures", err)
	}

	result := TraceResult{Run: run, Deliveries: []store.Delivery{}, Failures: failures}
	for _, d := range deliveries {
		if opts.Node != "" && d.Dst.Node != opts.Node {
			continue
		}
		result.Deliveries = append(result.Deliveries, d)
		result.Stats.Deliveries++
		if d.Initial {
			result.Stats.Initials++
		}
		result.Stats.LastTimeMs = max(result.Stats.LastTimeMs, d.TimeMs)
	}
	result.Stats.Failures = len(failures)

	return formatter.Success(result)
}
