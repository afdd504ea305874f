package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is returned when a start request targets a game that
	// already has an active (queued, running or paused) run.
	ErrConflict = errors.New("an active run already exists for this game")

	// ErrNotFound is returned when a control operation names an unknown run.
	ErrNotFound = errors.New("run not found")

	// ErrQueueFull is returned when the admission queue is at capacity.
	ErrQueueFull = errors.New("admission queue is full")
)

// ValidationError reports a malformed start configuration. It is returned
// before any run state is created.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// InvalidStateError reports a control operation applied to a run whose
// status does not permit it, e.g. pausing a Completed run.
type InvalidStateError struct {
	Op     string
	Status RunStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s a run in state %s", e.Op, e.Status)
}

// RunError is the terminal cause recorded on a Failed run. Cause is either
// a recovered invariant-violation panic or a timeout.
type RunError struct {
	Cause string
}

func (e *RunError) Error() string {
	return "run failed: " + e.Cause
}

// CauseTimeout is the RunError cause used when a run exceeds its
// wall-clock budget.
const CauseTimeout = "wall-clock budget exceeded"
