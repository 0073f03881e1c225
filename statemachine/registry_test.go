package statemachine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddStateDuplicate(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)

	require.NoError(t, m.AddState("a", NopState{}, ""))
	require.ErrorIs(t, m.AddState("a", NopState{}, "other"), ErrDuplicateState)

	group, err := m.Group("a")
	require.NoError(t, err)
	assert.Equal(t, DefaultGroup, group)
}

func TestSetStartUnknown(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)

	require.ErrorIs(t, m.SetStart("missing"), ErrUnknownState)
	require.ErrorIs(t, m.Start(context.Background(), false), ErrNoStartState)
	assert.Equal(t, NotStarted, m.Status())
}

func TestGroupsAndNaturalOrder(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)

	require.NoError(t, m.AddState("s10", nil, "g1"))
	require.NoError(t, m.AddState("s2", nil, "g1"))
	require.NoError(t, m.AddState("s1", nil, "g2"))
	require.NoError(t, m.AddState("idle", nil, ""))

	assert.Equal(t, []StateID{"idle", "s1", "s2", "s10"}, m.States())
	assert.Equal(t, []StateID{"s2", "s10"}, m.StatesInGroup("g1"))
	assert.Equal(t, []StateID{"idle"}, m.StatesInGroup(""))

	_, err := m.Group("nope")
	require.ErrorIs(t, err, ErrStateNotFound)

	var se *StateError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StateID("nope"), se.State)
}

func TestAddTransitionValidatesStates(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)
	addStates(t, m, "a", "b")

	err := m.AddTransition("a", "go", "c", nil)
	require.ErrorIs(t, err, ErrUnknownState)

	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StateID("a"), te.From)
	assert.Equal(t, EventID("go"), te.Event)
	assert.Equal(t, StateID("c"), te.To)

	require.ErrorIs(t, m.AddTransition("x", "go", "b", nil), ErrUnknownState)
	require.ErrorIs(t, m.AddTransition("a", NoEvent, "b", nil), ErrInvalidConfig)
	require.NoError(t, m.AddTransition("a", "go", "b", nil))
}

func TestTransitionLastWriteWins(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)
	addStates(t, m, "a", "b", "c")
	require.NoError(t, m.SetStart("a"))
	require.NoError(t, m.AddTransition("a", "go", "b", nil))
	require.NoError(t, m.AddTransition("a", "go", "c", nil))

	assert.Equal(t, []TransitionInfo{{From: "a", Event: "go", To: "c"}}, m.Transitions())

	ctx := context.Background()
	require.NoError(t, m.Start(ctx, false))
	require.NoError(t, m.Operate(ctx, "go"))
	assert.Equal(t, StateID("c"), m.CurrentState())
}

func TestTransitionsNaturalOrder(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)
	addStates(t, m, "s2", "s10", "s1")
	require.NoError(t, m.AddTransition("s10", "e1", "s1", nil))
	require.NoError(t, m.AddTransition("s2", "e10", "s1", nil))
	require.NoError(t, m.AddTransition("s2", "e9", "s10", nil))

	assert.Equal(t, []TransitionInfo{
		{From: "s2", Event: "e9", To: "s10"},
		{From: "s2", Event: "e10", To: "s1"},
		{From: "s10", Event: "e1", To: "s1"},
	}, m.Transitions())
}

func TestSetupRejectedAfterStart(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t)
	addStates(t, m, "a", "b")
	require.NoError(t, m.SetStart("a"))
	require.NoError(t, m.Start(context.Background(), false))

	require.ErrorIs(t, m.AddState("c", nil, ""), ErrAlreadyStarted)
	require.ErrorIs(t, m.SetStart("b"), ErrAlreadyStarted)
	require.ErrorIs(t, m.AddTransition("a", "go", "b", nil), ErrAlreadyStarted)

	require.NoError(t, m.Stop())
	require.ErrorIs(t, m.AddState("c", nil, ""), ErrStoppedMachine)
}

func TestErrorWrappers(t *testing.T) {
	t.Parallel()

	require.NoError(t, WrapStateError("a", nil))
	require.NoError(t, WrapTransitionError("a", "e", "b", nil))

	assert.Equal(t, "state a: state not found", WrapStateError("a", ErrStateNotFound).Error())
	assert.Equal(t, "transition a --e--> b: unknown state",
		WrapTransitionError("a", "e", "b", ErrUnknownState).Error())
	assert.Equal(t, "transition a --e-->: undefined transition",
		WrapTransitionError("a", "e", "", ErrUndefinedTransition).Error())
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "not_started", NotStarted.String())
	assert.Equal(t, "started", Started.String())
	assert.Equal(t, "stopping", Stopping.String())
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "unknown", Status(42).String())
}

func TestStateFuncs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	exited := false

	s := StateFuncs{
		Entry: func(context.Context) EventID { return "next" },
		Exit:  func(context.Context) { exited = true },
	}

	assert.Equal(t, EventID("next"), s.OnEntry(ctx))
	s.OnExit(ctx)
	assert.True(t, exited)

	var empty StateFuncs
	assert.Equal(t, NoEvent, empty.OnEntry(ctx))
	empty.OnExit(ctx)

	assert.Equal(t, 1500*time.Millisecond, Seconds(1.5))
}
