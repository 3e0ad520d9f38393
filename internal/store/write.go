package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/microflo/internal/engine"
	"github.com/roach88/microflo/internal/ir"
)

// BeginRun records a new run and returns its id. An empty run.ID is
// filled in by the store's RunIDGenerator.
func (s *Store) BeginRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = s.idGen.Generate()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, program, board, start_ms)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Program, run.Board, run.StartMs)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return run.ID, nil
}

// WriteDelivery inserts a delivery record.
// Uses ON CONFLICT DO NOTHING for idempotency: (run_id, seq) is unique.
func (s *Store) WriteDelivery(ctx context.Context, d Delivery) error {
	packet, err := ir.MarshalCanonical(d.Packet)
	if err != nil {
		return fmt.Errorf("write delivery: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO deliveries
		(run_id, seq, time_ms, src_node, src_port, dst_node, dst_port, packet, initial)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		d.RunID,
		d.Seq,
		d.TimeMs,
		d.Src.Node,
		d.Src.Port,
		d.Dst.Node,
		d.Dst.Port,
		string(packet),
		boolToInt(d.Initial),
	)
	if err != nil {
		return fmt.Errorf("write delivery: %w", err)
	}
	return nil
}

// WriteFailure appends a failure record and returns its id.
func (s *Store) WriteFailure(ctx context.Context, f Failure) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO failures (run_id, time_ms, node, component, phase, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`, f.RunID, f.TimeMs, f.Node, f.Component, f.Phase, f.Message)
	if err != nil {
		return 0, fmt.Errorf("write failure: %w", err)
	}
	return res.LastInsertId()
}

// FailureFromError extracts the node and phase of a processing error.
func FailureFromError(runID string, timeMs int64, err error) Failure {
	f := Failure{RunID: runID, TimeMs: timeMs, Message: err.Error()}

	var perr *engine.ComponentProcessingError
	var serr *engine.StepsExceededError
	switch {
	case errors.As(err, &perr):
		f.Node = perr.Node
		f.Component = perr.Component
		f.Phase = perr.Phase
	case errors.As(err, &serr):
		f.Phase = serr.Phase
	}
	return f
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
