// Package timer models a team's stopwatch as an explicit two-state machine.
package timer

import "gelift/internal/apperr"

type State int

const (
	Stopped State = iota
	Running
)

// NoWaypoint is the stop location id meaning "not at a checkpoint".
const NoWaypoint int64 = -1

var (
	ErrAlreadyRunning = apperr.New(apperr.Conflict, "timer already started")
	ErrNotRunning     = apperr.New(apperr.Conflict, "timer not started")
	ErrStopped        = apperr.New(apperr.PreconditionFailed, "timer is not running")
)

// FromFlag converts the persisted timer_started column.
func FromFlag(started bool) State {
	if started {
		return Running
	}
	return Stopped
}

func (s State) Running() bool { return s == Running }

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Start is the Stopped -> Running transition.
func (s State) Start() (State, error) {
	if s == Running {
		return s, ErrAlreadyRunning
	}
	return Running, nil
}

// Stop is the Running -> Stopped transition.
func (s State) Stop() (State, error) {
	if s != Running {
		return s, ErrNotRunning
	}
	return Stopped, nil
}

// Track checks that a breadcrumb may be recorded in this state.
func (s State) Track() error {
	if s != Running {
		return ErrStopped
	}
	return nil
}
