package store

import (
	"github.com/roach88/microflo/internal/engine"
	"github.com/roach88/microflo/internal/ir"
)

// Run is one simulated program.
type Run struct {
	ID      string `json:"id"`
	Program string `json:"program"`
	Board   string `json:"board"`
	StartMs int64  `json:"start_ms"`
}

// Delivery is one packet handed to a node.
type Delivery struct {
	RunID   string         `json:"run_id"`
	Seq     int64          `json:"seq"`
	TimeMs  int64          `json:"time_ms"`
	Src     engine.Address `json:"src"` // zero for IIPs
	Dst     engine.Address `json:"dst"`
	Packet  ir.Packet      `json:"packet"`
	Initial bool           `json:"initial,omitempty"`
}

// Failure is a processing error reported during a run.
type Failure struct {
	ID        int64  `json:"id"`
	RunID     string `json:"run_id"`
	TimeMs    int64  `json:"time_ms"`
	Node      string `json:"node,omitempty"`
	Component string `json:"component,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Message   string `json:"message"`
}
