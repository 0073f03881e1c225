package statemachine

import (
	"context"
	"time"
)

// StateID uniquely identifies a state within a machine.
type StateID string

// EventID selects a transition when combined with the current state.
type EventID string

// NoEvent is the empty event. A state's OnEntry returns it when it does not
// want to trigger a follow-up transition.
const NoEvent EventID = ""

// DefaultGroup is the group used when AddState is given an empty group.
const DefaultGroup = "default"

// State is implemented by the host application. OnEntry may return a
// non-empty event to request an immediate follow-up transition; it is
// processed before the operate lock is released.
//
// Both callbacks run while the machine holds its operate lock, so they must
// return promptly and must not call Operate, Stop or UpdateTimeout on the
// same machine.
type State interface {
	OnEntry(ctx context.Context) EventID
	OnExit(ctx context.Context)
}

// Action is a side effect attached to a transition. It runs after the source
// state's OnExit and before the target state's OnEntry, with the arguments
// bound in AddTransition.
type Action func(ctx context.Context, args ...any)

// StateFuncs adapts plain functions to the State interface. Nil functions
// are no-ops.
type StateFuncs struct {
	Entry func(ctx context.Context) EventID
	Exit  func(ctx context.Context)
}

func (s StateFuncs) OnEntry(ctx context.Context) EventID {
	if s.Entry == nil {
		return NoEvent
	}

	return s.Entry(ctx)
}

func (s StateFuncs) OnExit(ctx context.Context) {
	if s.Exit != nil {
		s.Exit(ctx)
	}
}

// NopState is a State without side effects.
type NopState struct{}

func (NopState) OnEntry(context.Context) EventID { return NoEvent }
func (NopState) OnExit(context.Context)          {}

// Status is the lifecycle phase of a Machine.
type Status int32

const (
	NotStarted Status = iota
	Started
	Stopping
	Stopped
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Started:
		return "started"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Cause records which entry point triggered a transition.
type Cause string

const (
	CauseStart   Cause = "start"
	CauseOperate Cause = "operate"
	CauseAsync   Cause = "async"
	CauseTimeout Cause = "timeout"
	CauseEntry   Cause = "entry"
)

// TransitionRecord describes one applied transition step.
type TransitionRecord struct {
	Machine   string
	MachineID string
	// Step is the machine-wide sequence number of the transition, starting at 1.
	Step  uint64
	From  StateID
	To    StateID
	Event EventID
	Cause Cause
	At    time.Time
}

// Seconds converts a timeout expressed in (fractional) seconds to a Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
