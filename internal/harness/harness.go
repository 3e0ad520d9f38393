package harness

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/microflo/internal/board"
	"github.com/roach88/microflo/internal/component"
	"github.com/roach88/microflo/internal/config"
	"github.com/roach88/microflo/internal/simulator"
	"github.com/roach88/microflo/internal/store"
	"github.com/roach88/microflo/internal/testutil"
)

// scenarioRunID is the run id of every scenario trace.
const scenarioRunID = "scenario"

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	registry *component.Registry
	logger   *slog.Logger
}

// WithRegistry resolves component types from reg instead of the built-ins.
func WithRegistry(reg *component.Registry) Option {
	return func(c *runConfig) {
		c.registry = reg
	}
}

// WithLogger sends simulator logs to logger. The default discards them.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// Run executes a scenario and returns the result.
//
// The returned error covers infrastructure problems only (bad board, trace
// store). A program that fails to load, a step expectation that does not
// hold or a failed assertion is reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: testutil.DiscardLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	profile, err := config.Resolve(scenario.Board)
	if err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}

	// In-memory store: isolated per run, the trace is read back from it
	st, err := store.Open(":memory:", store.WithRunIDGenerator(testutil.NewFixedRunID(scenarioRunID)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	var startMs int64
	if scenario.Setup != nil && scenario.Setup.TimeMs != nil {
		startMs = *scenario.Setup.TimeMs
	}
	runID, err := st.BeginRun(ctx, store.Run{
		Program: scenario.Program,
		Board:   profile.Name,
		StartMs: startMs,
	})
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}

	simOpts := []simulator.Option{
		simulator.WithLogger(cfg.logger),
		simulator.WithStartTime(startMs),
	}
	if scenario.MaxSteps > 0 {
		simOpts = append(simOpts, simulator.WithMaxSteps(scenario.MaxSteps))
	}

	io := board.NewSimulated(profile)
	rec := store.NewRecorder(ctx, st, runID, io, cfg.logger)
	sim := simulator.New(cfg.registry, append(simOpts, simulator.WithIO(io), simulator.WithObserver(rec))...)
	defer sim.Stop()

	result := NewResult()
	if scenario.Setup != nil {
		if err := applySetup(sim.IO(), scenario.Setup); err != nil {
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := sim.Start(ctx); err != nil {
		return nil, fmt.Errorf("start simulator: %w", err)
	}

	if err := sim.UploadFBP(scenario.Program, nil); err != nil {
		result.AddError(err.Error())
		result.Final = snapshot(sim.IO().State())
		return result, nil
	}
	result.Nodes = len(sim.Network().Nodes())

	for i, step := range scenario.Steps {
		if err := runStep(sim, i, step, result); err != nil {
			return nil, err
		}
	}

	if err := rec.Err(); err != nil {
		return nil, fmt.Errorf("record trace: %w", err)
	}
	trace, err := readTrace(ctx, st, runID)
	if err != nil {
		return nil, err
	}
	result.Trace = trace
	result.Final = snapshot(sim.IO().State())

	actx := AssertionContext{Nodes: result.Nodes}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// runStep performs one step. Expectation mismatches go to result; the
// returned error is reserved for a closed board.
func runStep(sim *simulator.Simulator, index int, step Step, result *Result) error {
	io := sim.IO()

	switch {
	case step.Advance != nil:
		// AdvanceTime returns once the network has settled
		if err := io.AdvanceTime(*step.Advance); err != nil {
			return fmt.Errorf("steps[%d]: advance: %w", index, err)
		}
	case step.SetDigital != nil:
		pin := step.SetDigital
		if err := checkPin(io.Profile().DigitalPins, pin.Pin); err != nil {
			result.AddError(fmt.Sprintf("steps[%d]: set_digital: %v", index, err))
			return nil
		}
		if err := io.Update(func(s *board.State) { s.DigitalInputs[pin.Pin] = pin.Value }); err != nil {
			return fmt.Errorf("steps[%d]: set_digital: %w", index, err)
		}
	case step.SetAnalog != nil:
		pin := step.SetAnalog
		if err := checkPin(io.Profile().AnalogPins, pin.Pin); err != nil {
			result.AddError(fmt.Sprintf("steps[%d]: set_analog: %v", index, err))
			return nil
		}
		if err := io.Update(func(s *board.State) { s.AnalogInputs[pin.Pin] = pin.Value }); err != nil {
			return fmt.Errorf("steps[%d]: set_analog: %w", index, err)
		}
	case step.Tick:
		// processing failures are part of the trace, not of the step
		_ = sim.Tick()
	}

	if step.Expect == nil {
		return nil
	}
	for _, msg := range comparePins(*step.Expect, io.State()) {
		result.AddError(fmt.Sprintf("steps[%d]: %s", index, msg))
	}
	return nil
}

func checkPin(count, pin int) error {
	if pin < 0 || pin >= count {
		return fmt.Errorf("pin %d out of range [0, %d)", pin, count)
	}
	return nil
}

// applySetup writes the scenario's initial pin values. Time is applied by
// the simulator's start time.
func applySetup(io *board.SimulatedIO, setup *PinState) error {
	return io.Update(func(s *board.State) {
		for pin, v := range setup.DigitalOutputs {
			s.DigitalOutputs[pin] = v
		}
		for pin, v := range setup.DigitalInputs {
			s.DigitalInputs[pin] = v
		}
		for pin, v := range setup.AnalogOutputs {
			s.AnalogOutputs[pin] = v
		}
		for pin, v := range setup.AnalogInputs {
			s.AnalogInputs[pin] = v
		}
	})
}

// comparePins reports every expected value that differs from got.
// Unset pins compare as low / zero. Messages are sorted by pin.
func comparePins(want PinState, got board.State) []string {
	var errs []string
	for _, pin := range sortedKeys(want.DigitalOutputs) {
		if v := got.DigitalOutputs[pin]; v != want.DigitalOutputs[pin] {
			errs = append(errs, fmt.Sprintf("digital output %d: expected %t, got %t", pin, want.DigitalOutputs[pin], v))
		}
	}
	for _, pin := range sortedKeys(want.DigitalInputs) {
		if v := got.DigitalInputs[pin]; v != want.DigitalInputs[pin] {
			errs = append(errs, fmt.Sprintf("digital input %d: expected %t, got %t", pin, want.DigitalInputs[pin], v))
		}
	}
	for _, pin := range sortedKeys(want.AnalogOutputs) {
		if v := got.AnalogOutputs[pin]; v != want.AnalogOutputs[pin] {
			errs = append(errs, fmt.Sprintf("analog output %d: expected %d, got %d", pin, want.AnalogOutputs[pin], v))
		}
	}
	for _, pin := range sortedKeys(want.AnalogInputs) {
		if v := got.AnalogInputs[pin]; v != want.AnalogInputs[pin] {
			errs = append(errs, fmt.Sprintf("analog input %d: expected %d, got %d", pin, want.AnalogInputs[pin], v))
		}
	}
	if want.TimeMs != nil && *want.TimeMs != got.CurrentTimeMs {
		errs = append(errs, fmt.Sprintf("time: expected %dms, got %dms", *want.TimeMs, got.CurrentTimeMs))
	}
	return errs
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func snapshot(s board.State) PinState {
	t := s.CurrentTimeMs
	return PinState{
		DigitalOutputs: s.DigitalOutputs,
		DigitalInputs:  s.DigitalInputs,
		AnalogOutputs:  s.AnalogOutputs,
		AnalogInputs:   s.AnalogInputs,
		TimeMs:         &t,
	}
}

// readTrace loads the recorded deliveries and failures of runID.
func readTrace(ctx context.Context, st *store.Store, runID string) ([]TraceEvent, error) {
	deliveries, err := st.ReadTrace(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	failures, err := st.ReadFailures(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("read failures: %w", err)
	}

	trace := make([]TraceEvent, 0, len(deliveries)+len(failures))
	for _, d := range deliveries {
		ev := TraceEvent{
			Type:   EventDelivery,
			Seq:    d.Seq,
			TimeMs: d.TimeMs,
			Dst:    d.Dst.String(),
			Packet: d.Packet,
		}
		if !d.Src.IsZero() {
			ev.Src = d.Src.String()
		}
		trace = append(trace, ev)
	}
	for _, f := range failures {
		trace = append(trace, TraceEvent{
			Type:   EventFailure,
			TimeMs: f.TimeMs,
			Node:   f.Node,
			Error:  f.Message,
		})
	}
	return trace, nil
}
