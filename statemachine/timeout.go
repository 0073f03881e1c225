package statemachine

import (
	"fmt"
	"time"
)

type timeoutBinding struct {
	event EventID
	after time.Duration
}

// TimeoutInfo is a read-only view of one timeout binding.
type TimeoutInfo struct {
	State StateID
	Event EventID
	After time.Duration
}

// timeoutScheduler owns the per-state timeout bindings and the single armed
// timer. Every method must be called with the operate lock held, except
// before Start when the machine is still single-threaded.
//
// Each arm and disarm bumps the generation. An expiry callback carries the
// generation it was armed with and is discarded when it no longer matches,
// which covers timers that fired while a transition was disarming them.
type timeoutScheduler struct {
	bindings   map[StateID]timeoutBinding
	timer      *time.Timer
	armedState StateID
	generation uint64
	afterFunc  func(d time.Duration, f func()) *time.Timer
}

func newTimeoutScheduler() *timeoutScheduler {
	return &timeoutScheduler{
		bindings:  make(map[StateID]timeoutBinding),
		afterFunc: time.AfterFunc,
	}
}

func (s *timeoutScheduler) bind(state StateID, event EventID, after time.Duration) error {
	if after < 0 {
		return WrapStateError(state, fmt.Errorf("%w: %s", ErrInvalidDuration, after))
	}

	s.bindings[state] = timeoutBinding{event: event, after: after}

	return nil
}

func (s *timeoutScheduler) rebind(state StateID, event EventID, after time.Duration) error {
	if _, ok := s.bindings[state]; !ok {
		return WrapStateError(state, ErrNoExistingBinding)
	}

	return s.bind(state, event, after)
}

func (s *timeoutScheduler) binding(state StateID) (timeoutBinding, bool) {
	b, ok := s.bindings[state]

	return b, ok
}

// arm starts the timer for state if it has a binding. It disarms any
// previous timer first so at most one is ever pending. The returned
// generation identifies the new timer; armed is false when state has no
// binding or the binding is dangling.
func (s *timeoutScheduler) arm(
	state StateID,
	defined func(StateID, EventID) bool,
	fire func(generation uint64, state StateID, event EventID),
) (armed bool, err error) {
	s.disarm()

	b, ok := s.bindings[state]
	if !ok {
		return false, nil
	}

	if !defined(state, b.event) {
		return false, WrapTransitionError(state, b.event, "", ErrDanglingTimeoutEvent)
	}

	s.generation++
	gen := s.generation

	s.armedState = state
	s.timer = s.afterFunc(b.after, func() {
		fire(gen, state, b.event)
	})

	return true, nil
}

// disarm cancels the pending timer, if any. Safe to call repeatedly.
func (s *timeoutScheduler) disarm() {
	s.generation++

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	s.armedState = ""
}

// claim consumes a fired timer. It reports false for stale callbacks.
func (s *timeoutScheduler) claim(generation uint64) bool {
	if s.timer == nil || generation != s.generation {
		return false
	}

	s.timer = nil
	s.armedState = ""

	return true
}

func (s *timeoutScheduler) armed() (StateID, bool) {
	return s.armedState, s.timer != nil
}

func (s *timeoutScheduler) snapshot() []TimeoutInfo {
	out := make([]TimeoutInfo, 0, len(s.bindings))

	for state, b := range s.bindings {
		out = append(out, TimeoutInfo{State: state, Event: b.event, After: b.after})
	}

	return out
}
