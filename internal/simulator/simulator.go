package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/microflo/internal/board"
	"github.com/roach88/microflo/internal/compiler"
	"github.com/roach88/microflo/internal/component"
	"github.com/roach88/microflo/internal/engine"
)

var (
	// ErrNotStarted is returned by operations that need a started simulator.
	ErrNotStarted = errors.New("simulator not started")

	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("simulator already started")

	// ErrStopped is returned by operations on a stopped simulator.
	ErrStopped = errors.New("simulator stopped")
)

// Simulator runs one network against a simulated board.
//
// CONCURRENCY: every scheduler call (Start, Step) runs under mu, so the
// network is single-threaded no matter whether the host, the ticker
// goroutine or an AdvanceTime call drives it. The IO state has its own lock.
type Simulator struct {
	mu sync.Mutex

	registry  *component.Registry
	io        *board.SimulatedIO
	hostIO    *board.SimulatedIO
	network   *engine.Network
	observers []engine.Observer
	logger    *slog.Logger
	maxSteps  int
	tick      time.Duration
	startTime int64

	// failures is written by the network's observer callbacks, which only
	// run inside Start and Step, i.e. with mu held.
	failures []error

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	stopped bool
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithProfile sets the simulated board. Default: board.DefaultProfile.
func WithProfile(p board.Profile) Option {
	return func(s *Simulator) {
		s.io = board.NewSimulated(p)
	}
}

// WithIO runs the simulator on an existing board, e.g. one a trace
// recorder already reads its clock from. It overrides WithProfile.
func WithIO(io *board.SimulatedIO) Option {
	return func(s *Simulator) {
		s.hostIO = io
	}
}

// WithLogger sets the logger for lifecycle and failure logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithObserver attaches observers to every network the simulator loads.
func WithObserver(obs ...engine.Observer) Option {
	return func(s *Simulator) {
		s.observers = append(s.observers, obs...)
	}
}

// WithMaxSteps sets the per-Start/Step delivery budget of loaded networks.
func WithMaxSteps(n int) Option {
	return func(s *Simulator) {
		s.maxSteps = n
	}
}

// WithTickInterval starts a goroutine that advances simulated time by d
// every d of wall-clock time. Zero (the default) leaves time entirely to
// the host.
//
// WaitForChange callbacks then run on that goroutine. Stop waits for it to
// exit, so a callback must not call Stop directly; use go sim.Stop().
func WithTickInterval(d time.Duration) Option {
	return func(s *Simulator) {
		s.tick = d
	}
}

// WithStartTime sets the simulated clock before anything runs.
func WithStartTime(ms int64) Option {
	return func(s *Simulator) {
		s.startTime = ms
	}
}

// New creates a stopped simulator using reg to resolve component types.
func New(reg *component.Registry, opts ...Option) *Simulator {
	s := &Simulator{
		registry: reg,
		logger:   slog.Default(),
		maxSteps: engine.DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = component.NewDefaultRegistry()
	}
	if s.hostIO != nil {
		s.io = s.hostIO
	}
	if s.io == nil {
		s.io = board.NewSimulated(board.DefaultProfile)
	}
	if s.startTime > 0 {
		_ = s.io.Update(func(st *board.State) {
			st.CurrentTimeMs = s.startTime
		})
	}
	s.io.SetStepper(s.step)
	return s
}

// Start readies the simulator for uploads and starts the ticker, if any.
// The context bounds every scheduler run; cancelling it has the effect of
// Stop on in-flight drains.
func (s *Simulator) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.logger.Info("simulator starting",
		"board", s.io.Profile().Name,
		"time_ms", s.io.Now(),
		"tick", s.tick,
	)

	if s.tick > 0 {
		s.wg.Add(1)
		go s.runTicker(s.ctx, s.tick)
	}
	return nil
}

func (s *Simulator) runTicker(ctx context.Context, d time.Duration) {
	defer s.wg.Done()

	t := time.NewTicker(d)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.io.AdvanceTime(d.Milliseconds()); err != nil {
				// closed by Stop
				return
			}
		}
	}
}

// Stop discards the network's queue, stops the ticker and renders pending
// WaitForChange observers inert. Stop is idempotent and may be called on a
// simulator that was never started.
func (s *Simulator) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
	if s.network != nil {
		s.network.Stop()
	}
	s.mu.Unlock()

	s.io.Close()
	s.wg.Wait()
	s.logger.Info("simulator stopped")
}

// UploadFBP loads graph text, replaces the current network with it and
// starts it. onReady runs once the new network is quiescent.
//
// Load errors are returned and leave the current network in place.
// Processing failures during start are logged and reported by Failures; they
// do not prevent onReady.
func (s *Simulator) UploadFBP(text string, onReady func()) error {
	s.mu.Lock()
	if err := s.usable(); err != nil {
		s.mu.Unlock()
		return err
	}

	opts := []engine.Option{
		engine.WithLogger(s.logger),
		engine.WithMaxSteps(s.maxSteps),
		engine.WithObserver(failureRecorder{s: s}),
		engine.WithObserver(s.observers...),
	}
	net, err := compiler.Load(text, s.registry, s.io, opts...)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("upload: %w", err)
	}

	if s.network != nil {
		s.network.Stop()
	}
	s.network = net
	s.failures = nil

	s.logger.Info("network uploaded",
		"nodes", len(net.Nodes()),
		"connections", len(net.Connections()),
		"iips", len(net.Initials()),
	)

	err = net.Start(s.ctx)
	ctxErr := s.ctx.Err()
	s.mu.Unlock()

	if ctxErr != nil {
		return fmt.Errorf("upload: %w", ctxErr)
	}
	if err != nil {
		s.logger.Warn("network started with failures", "error", err)
	}
	if onReady != nil {
		onReady()
	}
	return nil
}

// Tick runs one scheduler step at the current simulated time, then settles
// WaitForChange observers. Processing failures are returned and also
// recorded in Failures.
func (s *Simulator) Tick() error {
	s.mu.Lock()
	if err := s.usable(); err != nil {
		s.mu.Unlock()
		return err
	}
	var err error
	if s.network != nil {
		err = s.network.Step(s.ctx)
	}
	s.mu.Unlock()

	s.io.Settle()
	return err
}

// step is the SimulatedIO stepper: every time change runs one step.
func (s *Simulator) step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usable() != nil || s.network == nil {
		return
	}
	if err := s.network.Step(s.ctx); err != nil {
		s.logger.Debug("step finished with failures", "time_ms", s.io.Now(), "error", err)
	}
}

// usable must be called with mu held.
func (s *Simulator) usable() error {
	if s.stopped {
		return ErrStopped
	}
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Network returns the current network, or nil before the first upload.
func (s *Simulator) Network() *engine.Network {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.network
}

// IO returns the simulated board. Hosts read pin state and drive time
// through it.
func (s *Simulator) IO() *board.SimulatedIO {
	return s.io
}

// Failures returns the processing failures reported by the current network.
func (s *Simulator) Failures() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]error, len(s.failures))
	copy(out, s.failures)
	return out
}

// failureRecorder collects Failed events. Its callbacks run with mu held.
type failureRecorder struct {
	engine.NopObserver
	s *Simulator
}

func (f failureRecorder) Failed(err error) {
	f.s.failures = append(f.s.failures, err)
}
