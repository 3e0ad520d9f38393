package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned by ReadRun for unknown ids.
var ErrRunNotFound = errors.New("run not found")

// ReadRuns returns every run in insertion order.
func (s *Store) ReadRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, program, board, start_ms
		FROM runs
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Program, &r.Board, &r.StartMs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns one run.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, program, board, start_ms
		FROM runs
		WHERE id = ?
	`, id).Scan(&r.ID, &r.Program, &r.Board, &r.StartMs)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return r, nil
}

// ReadTrace returns the deliveries of a run ordered by seq.
//
// Returns an empty slice (not nil) if the run has no deliveries.
func (s *Store) ReadTrace(ctx context.Context, runID string) ([]Delivery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, time_ms, src_node, src_port, dst_node, dst_port, packet, initial
		FROM deliveries
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	trace := []Delivery{}
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		trace = append(trace, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}
	return trace, nil
}

// ReadFailures returns the failures of a run in the order they were reported.
func (s *Store) ReadFailures(ctx context.Context, runID string) ([]Failure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, time_ms, node, component, phase, message
		FROM failures
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	failures := []Failure{}
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.ID, &f.RunID, &f.TimeMs, &f.Node, &f.Component, &f.Phase, &f.Message); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failures: %w", err)
	}
	return failures, nil
}

func scanDelivery(rows *sql.Rows) (Delivery, error) {
	var (
		d       Delivery
		packet  string
		initial int
	)
	err := rows.Scan(
		&d.RunID,
		&d.Seq,
		&d.TimeMs,
		&d.Src.Node,
		&d.Src.Port,
		&d.Dst.Node,
		&d.Dst.Port,
		&packet,
		&initial,
	)
	if err != nil {
		return Delivery{}, fmt.Errorf("scan delivery: %w", err)
	}
	if err := json.Unmarshal([]byte(packet), &d.Packet); err != nil {
		return Delivery{}, fmt.Errorf("unmarshal packet of delivery %d: %w", d.Seq, err)
	}
	d.Initial = initial != 0
	return d, nil
}
