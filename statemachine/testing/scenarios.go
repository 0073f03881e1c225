package testing

import (
	"context"
	"testing"
	"time"

	"github.com/amp-labs/amp-fsm/statemachine"
	"github.com/stretchr/testify/require"
)

// TestScenario drives a machine built from Config through Events and checks
// where it ends up.
type TestScenario struct {
	Name    string
	Config  *statemachine.Config
	States  map[string]statemachine.State
	Actions map[string]statemachine.Action
	Events  []statemachine.EventID
	// Want is the state expected once every event was operated.
	Want     statemachine.StateID
	Matchers []Matcher
}

// RunScenario starts the machine synchronously, operates every event in
// order and checks Want and Matchers.
func RunScenario(t *testing.T, scenario TestScenario) {
	t.Helper()
	t.Run(scenario.Name, func(t *testing.T) {
		tm := NewTestMachine(t, scenario.Config, scenario.States, scenario.Actions)

		ctx := context.Background()
		require.NoError(t, tm.Start(ctx, false))

		for _, event := range scenario.Events {
			require.NoError(t, tm.Operate(ctx, event), "operate %s", event)
		}

		if scenario.Want != "" {
			tm.AssertState(scenario.Want)
		}

		if len(scenario.Matchers) > 0 {
			tm.AssertSteps(1+len(scenario.Events), time.Second)
			tm.Assert(scenario.Matchers...)
		}
	})
}
