package testing

import (
	"errors"
	"fmt"

	"github.com/amp-labs/amp-fsm/statemachine"
)

// Matcher errors.
var (
	ErrNoTrace            = errors.New("no transitions recorded")
	ErrNoMatchersPassed   = errors.New("no matchers passed")
	ErrStateNotVisited    = errors.New("state was not visited")
	ErrTransitionNotTaken = errors.New("transition was not taken")
	ErrWrongFinalState    = errors.New("unexpected final state")
)

// Matcher is an assertion over a recorded trace.
type Matcher interface {
	Match(trace *TraceRecorder) error
	Description() string
}

// StateWasVisited matches when the state was entered at least once.
func StateWasVisited(id statemachine.StateID) Matcher {
	return &stateVisitedMatcher{state: id}
}

type stateVisitedMatcher struct {
	state statemachine.StateID
}

func (m *stateVisitedMatcher) Match(trace *TraceRecorder) error {
	for _, id := range trace.Path() {
		if id == m.state {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrStateNotVisited, m.state)
}

func (m *stateVisitedMatcher) Description() string {
	return fmt.Sprintf("state %s was visited", m.state)
}

// TransitionWasTaken matches when from --event--> to was applied.
func TransitionWasTaken(from statemachine.StateID, event statemachine.EventID, to statemachine.StateID) Matcher {
	return &transitionTakenMatcher{from: from, event: event, to: to}
}

type transitionTakenMatcher struct {
	from  statemachine.StateID
	event statemachine.EventID
	to    statemachine.StateID
}

func (m *transitionTakenMatcher) Match(trace *TraceRecorder) error {
	for _, rec := range trace.Records() {
		if rec.From == m.from && rec.Event == m.event && rec.To == m.to {
			return nil
		}
	}

	return fmt.Errorf("%w: %s --%s--> %s", ErrTransitionNotTaken, m.from, m.event, m.to)
}

func (m *transitionTakenMatcher) Description() string {
	return fmt.Sprintf("transition %s --%s--> %s was taken", m.from, m.event, m.to)
}

// EndedIn matches when the last recorded transition entered the state.
func EndedIn(id statemachine.StateID) Matcher {
	return &endedInMatcher{state: id}
}

type endedInMatcher struct {
	state statemachine.StateID
}

func (m *endedInMatcher) Match(trace *TraceRecorder) error {
	path := trace.Path()
	if len(path) == 0 {
		return ErrNoTrace
	}

	if last := path[len(path)-1]; last != m.state {
		return fmt.Errorf("%w: want %s, got %s", ErrWrongFinalState, m.state, last)
	}

	return nil
}

func (m *endedInMatcher) Description() string {
	return fmt.Sprintf("ended in state %s", m.state)
}

// All matches when every matcher matches.
func All(matchers ...Matcher) Matcher {
	return &allMatcher{matchers: matchers}
}

type allMatcher struct {
	matchers []Matcher
}

func (m *allMatcher) Match(trace *TraceRecorder) error {
	for _, matcher := range m.matchers {
		if err := matcher.Match(trace); err != nil {
			return err
		}
	}

	return nil
}

func (m *allMatcher) Description() string {
	return fmt.Sprintf("all of %d matchers", len(m.matchers))
}

// Any matches when at least one matcher matches.
func Any(matchers ...Matcher) Matcher {
	return &anyMatcher{matchers: matchers}
}

type anyMatcher struct {
	matchers []Matcher
}

func (m *anyMatcher) Match(trace *TraceRecorder) error {
	for _, matcher := range m.matchers {
		if matcher.Match(trace) == nil {
			return nil
		}
	}

	return ErrNoMatchersPassed
}

func (m *anyMatcher) Description() string {
	return fmt.Sprintf("any of %d matchers", len(m.matchers))
}
