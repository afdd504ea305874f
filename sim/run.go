package sim

// RunStatus is the lifecycle state of a simulation run. Transitions are
// forward-only: Queued → Running ↔ Paused → one of the terminal states.
type RunStatus string

const (
	StatusQueued     RunStatus = "queued"
	StatusRunning    RunStatus = "running"
	StatusPaused     RunStatus = "paused"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
	StatusTerminated RunStatus = "terminated"
)

// Terminal reports whether no further transitions are possible.
func (s RunStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTerminated:
		return true
	}
	return false
}

// Active reports whether the run still holds its gameID: at most one
// active run may exist per game at any time.
func (s RunStatus) Active() bool {
	return !s.Terminal()
}
