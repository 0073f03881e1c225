package statemachine

import (
	"fmt"
	"sort"

	"facette.io/natsort"
	fsmerrors "github.com/amp-labs/amp-fsm/errors"
)

// validate checks the definition. Timeout events without a transition are
// only reported when checkTimeoutEvents is set; otherwise they are left to
// arm time.
func (m *Machine) validate(checkTimeoutEvents bool) error {
	var errs fsmerrors.Collection

	if m.states.start == "" {
		errs.Add(ErrNoStartState)
	}

	timeouts := m.timeouts.snapshot()
	sort.Slice(timeouts, func(i, j int) bool {
		return natsort.Compare(string(timeouts[i].State), string(timeouts[j].State))
	})

	for _, to := range timeouts {
		if !m.states.has(to.State) {
			errs.Add(WrapStateError(to.State, fmt.Errorf("%w: timeout bound to unregistered state", ErrUnknownState)))

			continue
		}

		if checkTimeoutEvents && !m.transitions.has(to.State, to.Event) {
			errs.Add(WrapTransitionError(to.State, to.Event, "", ErrDanglingTimeoutEvent))
		}
	}

	return errs.GetError()
}
