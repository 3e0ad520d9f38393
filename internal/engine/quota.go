package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxSteps is the default delivery budget of one Start or Step call.
const DefaultMaxSteps = 1000

// QuotaEnforcer counts deliveries within one Start or Step call and stops a
// drain that would otherwise never reach quiescence, e.g. a node whose output
// is wired back to its own input.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates an enforcer allowing maxSteps deliveries.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check counts one delivery and returns StepsExceededError once the budget
// is exhausted.
func (q *QuotaEnforcer) Check(phase string) error {
	q.current++
	if q.current > q.maxSteps {
		return &StepsExceededError{
			Phase: phase,
			Steps: q.current,
			Limit: q.maxSteps,
		}
	}
	return nil
}

// Current returns the number of deliveries counted so far.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the budget.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError is returned when a drain exceeds the delivery budget.
// The remaining queue is discarded so the network is quiescent again.
type StepsExceededError struct {
	Phase     string // "start" or "step"
	Steps     int
	Limit     int
	Discarded int // messages dropped from the queue
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("%s exceeded max steps quota: %d deliveries > %d limit (%d queued messages discarded)",
		e.Phase, e.Steps, e.Limit, e.Discarded)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
