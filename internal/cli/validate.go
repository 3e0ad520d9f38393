package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/microflo/internal/board"
	"github.com/roach88/microflo/internal/compiler"
	"github.com/roach88/microflo/internal/component"
	"github.com/roach88/microflo/internal/config"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Board string
}

// ValidationResult summarizes a graph that loaded successfully.
type ValidationResult struct {
	File        string `json:"file"`
	Board       string `json:"board"`
	Nodes       int    `json:"nodes"`
	Connections int    `json:"connections"`
	Initials    int    `json:"initials"`

	// Cycles lists feedback loops; a loop that never settles ends in a
	// max steps failure at run time.
	Cycles [][]string `json:"cycles,omitempty"`
}

func (r ValidationResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ %s: %d nodes, %d connections, %d initial packets (board %s)",
		r.File, r.Nodes, r.Connections, r.Initials, r.Board)
	for _, loop := range r.Cycles {
		fmt.Fprintf(&b, "\n  warning: feedback loop %s", strings.Join(append(slices.Clone(loop), loop[0]), " -> "))
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <graph.fbp>",
		Short: "Check that a graph loads",
		Long: `Parse FBP graph text and load it against the built-in components
without running it.

Reports syntax errors with line and column, unknown component types,
unknown ports and incompatible connections.

Examples:
  microflo validate blink.fbp
  microflo validate --board mega blink.fbp --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Board, "board", "", "board name or CUE profile (default uno)")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

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
	formatter.VerboseLog("Loading %s for board %s", path, profile.Name)

	net, err := compiler.Load(string(text), component.NewDefaultRegistry(), board.NewSimulated(profile))
	if err != nil {
		_ = formatter.Error(ErrorCode(err), err.Error(), errorDetails(path, err))
		return WrapExitError(ExitFailure, "graph is invalid", err)
	}

	return formatter.Success(ValidationResult{
		File:        path,
		Board:       profile.Name,
		Nodes:       len(net.Nodes()),
		Connections: len(net.Connections()),
		Initials:    len(net.Initials()),
		Cycles:      net.Cycles(),
	})
}

// errorDetails locates a parse error in its file. Other errors have no
// details.
func errorDetails(path string, err error) any {
	var perr *compiler.ParseError
	if !errors.As(err, &perr) {
		return nil
	}
	return map[string]any{
		"file": path,
		"line": perr.Line,
		"col":  perr.Col,
	}
}
