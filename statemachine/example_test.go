package statemachine_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/amp-labs/amp-fsm/statemachine"
	fsmtesting "github.com/amp-labs/amp-fsm/statemachine/testing"
	"github.com/stretchr/testify/require"
)

func ExampleMachine() {
	m := statemachine.NewMachine(statemachine.WithName("door"), statemachine.WithHooks(nil))

	_ = m.AddState("closed", statemachine.NopState{}, "")
	_ = m.AddState("open", statemachine.NopState{}, "")
	_ = m.SetStart("closed")
	_ = m.AddTransition("closed", "push", "open", nil)
	_ = m.AddTransition("open", "pull", "closed", nil)

	ctx := context.Background()
	_ = m.Start(ctx, false)
	_ = m.Operate(ctx, "push")

	fmt.Println(m.CurrentState())

	err := m.Operate(ctx, "push")
	fmt.Println(err)

	_ = m.Stop()
	fmt.Println(m.Status())

	// Output:
	// open
	// transition open --push-->: undefined transition
	// stopped
}

func TestScenarioChainAndTimeout(t *testing.T) {
	t.Parallel()

	cfg := &statemachine.Config{
		Name:  "pipeline",
		Start: "idle",
		States: []statemachine.StateConfig{
			{Name: "idle"},
			{Name: "fetch", Group: "work"},
			{Name: "parse", Group: "work"},
			{Name: "wait"},
			{Name: "done"},
		},
		Transitions: []statemachine.TransitionConfig{
			{From: "idle", Event: "begin", To: "fetch"},
			{From: "fetch", Event: "fetched", To: "parse"},
			{From: "parse", Event: "parsed", To: "wait"},
			{From: "wait", Event: "expire", To: "done", Action: "finish"},
		},
		Timeouts: []statemachine.TimeoutConfig{
			{State: "wait", Event: "expire", After: statemachine.Duration(30 * time.Millisecond)},
		},
	}

	log := &fsmtesting.CallLog{}

	tm := fsmtesting.NewTestMachine(t, cfg,
		map[string]statemachine.State{
			"fetch": fsmtesting.NewRecordingState("fetch", "fetched").WithLog(log),
			"parse": fsmtesting.NewRecordingState("parse", "parsed").WithLog(log),
		},
		map[string]statemachine.Action{"finish": fsmtesting.RecordingAction(log, "finish")},
	)

	ctx := context.Background()
	require.NoError(t, tm.Start(ctx, false))
	require.NoError(t, tm.Operate(ctx, "begin"))

	// The whole self-triggered chain ran inside Operate.
	tm.AssertState("wait")

	tm.AssertEventuallyIn("done", time.Second)
	tm.AssertSteps(5, time.Second)
	tm.Assert(
		fsmtesting.TransitionWasTaken("fetch", "fetched", "parse"),
		fsmtesting.TransitionWasTaken("wait", "expire", "done"),
		fsmtesting.EndedIn("done"),
	)

	require.Equal(t, []string{"enter:fetch", "exit:fetch", "enter:parse", "exit:parse", "action:finish"}, log.Calls())
}

func TestScenarioTable(t *testing.T) {
	t.Parallel()

	cfg := &statemachine.Config{
		Name:  "turnstile",
		Start: "locked",
		States: []statemachine.StateConfig{
			{Name: "locked"},
			{Name: "unlocked"},
		},
		Transitions: []statemachine.TransitionConfig{
			{From: "locked", Event: "coin", To: "unlocked"},
			{From: "unlocked", Event: "push", To: "locked"},
			{From: "unlocked", Event: "coin", To: "unlocked"},
		},
	}

	fsmtesting.RunScenario(t, fsmtesting.TestScenario{
		Name:   "coin then push",
		Config: cfg,
		Events: []statemachine.EventID{"coin", "push"},
		Want:   "locked",
	})

	fsmtesting.RunScenario(t, fsmtesting.TestScenario{
		Name:     "extra coins stay unlocked",
		Config:   cfg,
		Events:   []statemachine.EventID{"coin", "coin", "coin"},
		Want:     "unlocked",
		Matchers: []fsmtesting.Matcher{fsmtesting.TransitionWasTaken("unlocked", "coin", "unlocked")},
	})
}
