package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/amp-labs/amp-fsm/statemachine"
)

// CallLog records callback invocations across several states and actions,
// in the order they happened.
type CallLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *CallLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls = append(l.calls, call)
}

// Calls returns a copy of the recorded calls, e.g. "exit:Idle",
// "action:start", "enter:Running".
func (l *CallLog) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.calls...)
}

// RecordingState is a State that counts its callbacks and returns a scripted
// sequence of events from OnEntry.
type RecordingState struct {
	mu      sync.Mutex
	id      statemachine.StateID
	next    []statemachine.EventID
	entries int
	exits   int
	log     *CallLog
}

// NewRecordingState creates a state whose successive OnEntry calls return
// next[0], next[1], ... and NoEvent once the script is exhausted.
func NewRecordingState(id statemachine.StateID, next ...statemachine.EventID) *RecordingState {
	return &RecordingState{
		id:   id,
		next: next,
	}
}

// WithLog makes the state append its callbacks to log.
func (s *RecordingState) WithLog(log *CallLog) *RecordingState {
	s.log = log

	return s
}

func (s *RecordingState) OnEntry(context.Context) statemachine.EventID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries++

	if s.log != nil {
		s.log.add("enter:" + string(s.id))
	}

	if len(s.next) == 0 {
		return statemachine.NoEvent
	}

	event := s.next[0]
	s.next = s.next[1:]

	return event
}

func (s *RecordingState) OnExit(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exits++

	if s.log != nil {
		s.log.add("exit:" + string(s.id))
	}
}

// Entries returns how many times OnEntry ran.
func (s *RecordingState) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.entries
}

// Exits returns how many times OnExit ran.
func (s *RecordingState) Exits() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.exits
}

// RecordingAction returns an Action that appends "action:<name>" and its
// arguments to log.
func RecordingAction(log *CallLog, name string) statemachine.Action {
	return func(_ context.Context, args ...any) {
		if len(args) == 0 {
			log.add("action:" + name)

			return
		}

		log.add(fmt.Sprintf("action:%s%v", name, args))
	}
}
