package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Blink(t *testing.T) {
	path := writeGraph(t, blinkGraph)

	stdout, _, err := execute(t, "run", path)
	require.NoError(t, err)
	assert.Equal(t, "Simulated 1000ms on uno\nDigital outputs:\n  13: HIGH\n", stdout)
}

func TestRun_DurationNotMultipleOfStep(t *testing.T) {
	path := writeGraph(t, blinkGraph)

	stdout, _, err := execute(t, "run", "--duration", "650", "--step", "200", "--format", "json", path)
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(650), resp.Data.TimeMs)
	// fires at 400 only; 600 and 650 are within one interval of it
	assert.Equal(t, map[int]bool{13: true}, resp.Data.DigitalOutputs)
	assert.Empty(t, resp.Data.Failures)
	assert.Empty(t, resp.Data.RunID)
}

func TestRun_ReportsFailures(t *testing.T) {
	path := writeGraph(t, "'true' -> IN led(DigitalWrite)")

	stdout, _, err := execute(t, "run", "--duration", "0", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Failures (1):")
	assert.Contains(t, stdout, "no pin configured")
}

func TestRun_Metrics(t *testing.T) {
	path := writeGraph(t, blinkGraph)

	stdout, _, err := execute(t, "run", "--metrics", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "# TYPE microflo_packets_delivered_total counter")
	assert.Contains(t, stdout, `microflo_packets_delivered_total{component="DigitalWrite"} 4`)
	assert.Contains(t, stdout, `microflo_packets_delivered_total{component="ToggleBoolean"} 3`)
	assert.Contains(t, stdout, "microflo_nodes 3")
	assert.Contains(t, stdout, "microflo_processing_errors_total 0")
}

func TestRun_BoardProfileFile(t *testing.T) {
	dir := t.TempDir()
	profile := filepath.Join(dir, "tiny.cue")
	writeFile(t, profile, "name: \"tiny\"\ndigital_pins: 8\n")
	path := writeGraph(t, blinkGraph)

	stdout, _, err := execute(t, "run", "--board", profile, "--duration", "300", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Simulated 300ms on tiny")
	assert.Contains(t, stdout, "Failures (")
	assert.Contains(t, stdout, "board tiny has 8 digital pins")
}

func TestRun_LoadError(t *testing.T) {
	path := writeGraph(t, "a(Forward) OUT -> IN b")

	stdout, _, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E002]")
	assert.Contains(t, stdout, `undeclared instance "b"`)
}

func TestRun_InvalidTimeFlags(t *testing.T) {
	path := writeGraph(t, blinkGraph)

	_, _, err := execute(t, "run", "--step", "0", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_CancelledContext(t *testing.T) {
	path := writeGraph(t, blinkGraph)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"run", path})
	cmd.SetOut(&nopWriter{})
	cmd.SetErr(&nopWriter{})
	err := cmd.ExecuteContext(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
