package statemachine

import (
	"context"
	"sync"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"
)

// newTestMachine creates a machine named after the test, logging to the test
// output and stopped on cleanup.
func newTestMachine(t *testing.T, opts ...Option) *Machine {
	t.Helper()

	all := append([]Option{
		WithName(t.Name()),
		WithLogger(slogt.New(t)),
	}, opts...)

	m := NewMachine(all...)

	t.Cleanup(func() {
		_ = m.Stop()
	})

	return m
}

// scriptedState returns the scripted events from OnEntry, one per call.
type scriptedState struct {
	mu     sync.Mutex
	next   []EventID
	enters int
	exits  int
}

func (s *scriptedState) OnEntry(context.Context) EventID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enters++

	if len(s.next) == 0 {
		return NoEvent
	}

	ev := s.next[0]
	s.next = s.next[1:]

	return ev
}

func (s *scriptedState) OnExit(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exits++
}

func (s *scriptedState) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.enters, s.exits
}

// addStates registers NopStates for every id.
func addStates(t *testing.T, m *Machine, ids ...StateID) {
	t.Helper()

	for _, id := range ids {
		require.NoError(t, m.AddState(id, NopState{}, ""))
	}
}

// idleRunningDone builds the Idle -go-> Running -timeout-> Done machine.
func idleRunningDone(t *testing.T, after float64, opts ...Option) *Machine {
	t.Helper()

	m := newTestMachine(t, opts...)
	addStates(t, m, "Idle", "Running", "Done")
	require.NoError(t, m.SetStart("Idle"))
	require.NoError(t, m.AddTransition("Idle", "go", "Running", nil))
	require.NoError(t, m.AddTransition("Running", "timeout", "Done", nil))
	require.NoError(t, m.AddTimeout("Running", "timeout", Seconds(after)))

	return m
}
