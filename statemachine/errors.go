package statemachine

import (
	"errors"
	"fmt"
)

// Predefined error types.
var (
	// ErrDuplicateState is returned by AddState for an id that is already registered.
	ErrDuplicateState = errors.New("duplicate state")
	// ErrUnknownState is returned when SetStart or a transition references an unregistered state.
	ErrUnknownState = errors.New("unknown state")
	// ErrStateNotFound is returned by lookups of unregistered states.
	ErrStateNotFound = errors.New("state not found")
	// ErrUndefinedTransition is returned by Operate when the current state has no
	// transition for the event.
	ErrUndefinedTransition = errors.New("undefined transition")
	// ErrInvalidDuration is returned for negative timeout durations.
	ErrInvalidDuration = errors.New("invalid timeout duration")
	// ErrDanglingTimeoutEvent indicates a timeout binding whose event has no
	// transition out of the bound state.
	ErrDanglingTimeoutEvent = errors.New("timeout event has no transition")
	// ErrNoExistingBinding is returned by UpdateTimeout when the state has no timeout.
	ErrNoExistingBinding = errors.New("no existing timeout binding")
	// ErrNoStartState is returned by Start when SetStart was never called.
	ErrNoStartState = errors.New("no start state")
	// ErrAlreadyStarted is returned by a second Start and by setup calls made after Start.
	ErrAlreadyStarted = errors.New("machine already started")
	// ErrNotStarted is returned by Operate before Start.
	ErrNotStarted = errors.New("machine not started")
	// ErrStoppedMachine is returned by Operate and Start once Stop has begun.
	ErrStoppedMachine = errors.New("machine stopped")
	// ErrReentrantOperate is returned when Operate is called from inside a
	// state or action callback of the same machine.
	ErrReentrantOperate = errors.New("operate called from a machine callback")
	// ErrInvalidConfig is returned for malformed machine definitions.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// StateError wraps an error with state context.
type StateError struct {
	State StateID
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state %s: %v", e.State, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// TransitionError wraps an error with transition context.
type TransitionError struct {
	From  StateID
	Event EventID
	To    StateID
	Err   error
}

func (e *TransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("transition %s --%s-->: %v", e.From, e.Event, e.Err)
	}

	return fmt.Sprintf("transition %s --%s--> %s: %v", e.From, e.Event, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// WrapStateError wraps an error with state context.
func WrapStateError(state StateID, err error) error {
	if err == nil {
		return nil
	}

	return &StateError{
		State: state,
		Err:   err,
	}
}

// WrapTransitionError wraps an error with transition context.
func WrapTransitionError(from StateID, event EventID, to StateID, err error) error {
	if err == nil {
		return nil
	}

	return &TransitionError{
		From:  from,
		Event: event,
		To:    to,
		Err:   err,
	}
}
