package validator

import (
	"errors"
	"fmt"

	"facette.io/natsort"
	"github.com/amp-labs/amp-fsm/statemachine"
)

// Severity defines the severity level of a validation issue.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Issue codes.
const (
	CodeConfigLoadFailed    = "CONFIG_LOAD_FAILED"
	CodeInvalidDefinition   = "INVALID_DEFINITION"
	CodeUnreachableState    = "UNREACHABLE_STATE"
	CodeDuplicateTransition = "DUPLICATE_TRANSITION"
	CodeNoPathToFinal       = "NO_PATH_TO_FINAL"
)

// Rule checks a definition for one kind of issue.
type Rule interface {
	Name() string
	Severity() Severity
	Check(config *statemachine.Config) []Issue
}

// DefaultRules returns the standard set of validation rules.
func DefaultRules() []Rule {
	return []Rule{
		&definitionRule{},
		&unreachableStateRule{},
		&duplicateTransitionRule{},
		&noPathToFinalRule{},
	}
}

// definitionRule reports every problem Config.Validate finds.
type definitionRule struct{}

func (r *definitionRule) Name() string       { return "Definition" }
func (r *definitionRule) Severity() Severity { return SeverityError }

func (r *definitionRule) Check(config *statemachine.Config) []Issue {
	err := config.Validate()
	if err == nil {
		return nil
	}

	errs := []error{err}

	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		errs = joined.Unwrap()
	}

	issues := make([]Issue, 0, len(errs))

	for _, e := range errs {
		issue := Issue{Code: CodeInvalidDefinition, Message: e.Error()}

		var stateErr *statemachine.StateError
		if errors.As(e, &stateErr) {
			issue.State = string(stateErr.State)
		}

		var trErr *statemachine.TransitionError
		if errors.As(e, &trErr) {
			issue.State = string(trErr.From)
		}

		issues = append(issues, issue)
	}

	return issues
}

// unreachableStateRule reports states no chain of transitions leads to from
// the start state.
type unreachableStateRule struct{}

func (r *unreachableStateRule) Name() string       { return "UnreachableState" }
func (r *unreachableStateRule) Severity() Severity { return SeverityWarning }

func (r *unreachableStateRule) Check(config *statemachine.Config) []Issue {
	if config.Start == "" {
		return nil
	}

	reachable := reachableFrom(config.Start, buildGraph(config))

	var issues []Issue

	for _, state := range stateNames(config) {
		if !reachable[state] {
			issues = append(issues, Issue{
				Code:    CodeUnreachableState,
				Message: fmt.Sprintf("state %s cannot be reached from start state %s", state, config.Start),
				State:   state,
			})
		}
	}

	return issues
}

// duplicateTransitionRule reports (from, event) pairs declared more than
// once. Only the last declaration takes effect.
type duplicateTransitionRule struct{}

func (r *duplicateTransitionRule) Name() string       { return "DuplicateTransition" }
func (r *duplicateTransitionRule) Severity() Severity { return SeverityWarning }

func (r *duplicateTransitionRule) Check(config *statemachine.Config) []Issue {
	type key struct{ from, event string }

	targets := make(map[key]string)

	var issues []Issue

	for _, tr := range config.Transitions {
		k := key{from: tr.From, event: tr.Event}

		if prev, ok := targets[k]; ok {
			issues = append(issues, Issue{
				Code: CodeDuplicateTransition,
				Message: fmt.Sprintf("transition %s --%s--> %s replaces earlier target %s",
					tr.From, tr.Event, tr.To, prev),
				State: tr.From,
			})
		}

		targets[k] = tr.To
	}

	return issues
}

// noPathToFinalRule reports reachable states from which no final state
// (one without outgoing transitions) can be reached. Definitions without
// any final state are cyclic and are not checked.
type noPathToFinalRule struct{}

func (r *noPathToFinalRule) Name() string       { return "NoPathToFinal" }
func (r *noPathToFinalRule) Severity() Severity { return SeverityWarning }

func (r *noPathToFinalRule) Check(config *statemachine.Config) []Issue {
	if config.Start == "" {
		return nil
	}

	graph := buildGraph(config)

	var finals []string

	for _, state := range stateNames(config) {
		if len(graph[state]) == 0 {
			finals = append(finals, state)
		}
	}

	if len(finals) == 0 {
		return nil
	}

	var issues []Issue

	reachable := reachableFrom(config.Start, graph)

	for _, state := range stateNames(config) {
		if !reachable[state] {
			continue
		}

		canFinish := false
		onward := reachableFrom(state, graph)

		for _, final := range finals {
			if onward[final] {
				canFinish = true

				break
			}
		}

		if !canFinish {
			issues = append(issues, Issue{
				Code:    CodeNoPathToFinal,
				Message: fmt.Sprintf("state %s never reaches a final state", state),
				State:   state,
			})
		}
	}

	return issues
}

func buildGraph(config *statemachine.Config) map[string][]string {
	graph := make(map[string][]string)

	for _, tr := range config.Transitions {
		graph[tr.From] = append(graph[tr.From], tr.To)
	}

	return graph
}

// reachableFrom returns every state reachable from start, start included.
func reachableFrom(start string, graph map[string][]string) map[string]bool {
	visited := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range graph[current] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	return visited
}

func stateNames(config *statemachine.Config) []string {
	names := make([]string, 0, len(config.States))

	for _, st := range config.States {
		if st.Name != "" {
			names = append(names, st.Name)
		}
	}

	natsort.Sort(names)

	return names
}
