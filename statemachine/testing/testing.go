// Package testing provides helpers for testing hosts built on statemachine.
//
//nolint:varnamelen // short names idiomatic in helpers
package testing

import (
	"testing"
	"time"

	"github.com/amp-labs/amp-fsm/statemachine"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"
)

// TestMachine wraps a Machine built from a Config with a TraceRecorder and
// assertion helpers. The machine logs through the test's log output and is
// stopped when the test ends.
type TestMachine struct {
	*statemachine.Machine

	t     *testing.T
	trace *TraceRecorder
}

// NewTestMachine builds a machine from config. States missing from states
// default to NopState; actions must all be supplied.
func NewTestMachine(
	t *testing.T,
	config *statemachine.Config,
	states map[string]statemachine.State,
	actions map[string]statemachine.Action,
	opts ...statemachine.Option,
) *TestMachine {
	t.Helper()

	trace := NewTraceRecorder()

	all := append([]statemachine.Option{
		statemachine.WithLogger(slogt.New(t)),
		statemachine.WithObserver(trace.Observe),
	}, opts...)

	m, err := statemachine.NewMachineFromConfig(config, WithNopStates(config, states), actions, all...)
	require.NoError(t, err, "failed to create machine")

	t.Cleanup(func() {
		_ = m.Stop()
	})

	return &TestMachine{
		Machine: m,
		t:       t,
		trace:   trace,
	}
}

// Trace returns the recorder attached to the machine.
func (tm *TestMachine) Trace() *TraceRecorder {
	return tm.trace
}

// AssertState checks the current state right now.
func (tm *TestMachine) AssertState(expected statemachine.StateID) {
	tm.t.Helper()

	require.Equal(tm.t, expected, tm.CurrentState(), "unexpected current state")
}

// AssertEventuallyIn waits up to timeout for the machine to reach expected.
func (tm *TestMachine) AssertEventuallyIn(expected statemachine.StateID, timeout time.Duration) {
	tm.t.Helper()

	WaitForState(tm.t, tm.Machine, expected, timeout)
}

// AssertSteps waits until n transitions (including the start) were observed.
func (tm *TestMachine) AssertSteps(n int, timeout time.Duration) {
	tm.t.Helper()

	require.True(tm.t, tm.trace.WaitForSteps(n, timeout),
		"expected %d observed steps, got %d", n, len(tm.trace.Records()))
}

// Assert runs matchers against the trace. Observers are asynchronous, so
// callers normally AssertSteps first.
func (tm *TestMachine) Assert(matchers ...Matcher) {
	tm.t.Helper()

	for _, m := range matchers {
		require.NoError(tm.t, m.Match(tm.trace), m.Description())
	}
}

// WithNopStates returns states extended with a NopState for every state in
// config that has no implementation.
func WithNopStates(config *statemachine.Config, states map[string]statemachine.State) map[string]statemachine.State {
	out := make(map[string]statemachine.State, len(config.States))

	for name, st := range states {
		out[name] = st
	}

	for _, st := range config.States {
		name := st.Impl
		if name == "" {
			name = st.Name
		}

		if _, ok := out[name]; !ok {
			out[name] = statemachine.NopState{}
		}
	}

	return out
}

// WaitForState fails the test unless m reaches want within timeout.
func WaitForState(t *testing.T, m *statemachine.Machine, want statemachine.StateID, timeout time.Duration) {
	t.Helper()

	require.Eventually(t, func() bool {
		return m.CurrentState() == want
	}, timeout, time.Millisecond*5, "machine never reached state %s (current %s)", want, m.CurrentState())
}
