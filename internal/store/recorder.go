package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/microflo/internal/engine"
)

// TimeSource supplies the simulated time stamped on records.
// board.IO satisfies it.
type TimeSource interface {
	Now() int64
}

// Recorder is an engine.Observer that writes deliveries and failures of one
// run to the store.
//
// Write errors do not interrupt the network: the first one is kept for Err
// and every one is logged.
type Recorder struct {
	engine.NopObserver

	ctx    context.Context
	store  *Store
	runID  string
	clock  TimeSource
	logger *slog.Logger

	mu     sync.Mutex
	err    error
	writes int
}

// NewRecorder creates a recorder for runID. A nil logger uses slog.Default().
func NewRecorder(ctx context.Context, s *Store, runID string, clock TimeSource, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		ctx:    ctx,
		store:  s,
		runID:  runID,
		clock:  clock,
		logger: logger,
	}
}

// RunID returns the run being recorded.
func (r *Recorder) RunID() string {
	return r.runID
}

// Delivered records a delivery.
func (r *Recorder) Delivered(m engine.Message) {
	err := r.store.WriteDelivery(r.ctx, Delivery{
		RunID:   r.runID,
		Seq:     m.Seq,
		TimeMs:  r.clock.Now(),
		Src:     m.Src,
		Dst:     m.Dst,
		Packet:  m.Packet,
		Initial: m.Initial,
	})
	r.done(err)
}

// Failed records a processing failure.
func (r *Recorder) Failed(err error) {
	_, werr := r.store.WriteFailure(r.ctx, FailureFromError(r.runID, r.clock.Now(), err))
	r.done(werr)
}

func (r *Recorder) done(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		r.writes++
		return
	}
	r.logger.Warn("trace write failed", "run_id", r.runID, "error", err)
	if r.err == nil {
		r.err = err
	}
}

// Err returns the first write error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Writes returns the number of records written.
func (r *Recorder) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}
