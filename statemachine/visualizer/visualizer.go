// Package visualizer generates Mermaid state diagrams from machine definitions.
//
//nolint:varnamelen // short names idiomatic
package visualizer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"facette.io/natsort"
	"github.com/amp-labs/amp-fsm/statemachine"
)

// Visualizer errors.
var (
	ErrConfigNil    = errors.New("config cannot be nil")
	ErrNoStartState = errors.New("config must have a start state")
)

// GenerateMermaid converts a Config to a Mermaid state diagram.
func GenerateMermaid(config *statemachine.Config) (string, error) {
	return GenerateMermaidWithOptions(config, DefaultOptions())
}

// GenerateMermaidFromFile loads a definition from a YAML file and generates a
// Mermaid diagram.
func GenerateMermaidFromFile(path string) (string, error) {
	config, err := statemachine.LoadConfig(path)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	return GenerateMermaid(config)
}

// GenerateMermaidForMachine draws a live machine. The current state, if
// any, is highlighted in addition to opts.HighlightPath.
func GenerateMermaidForMachine(m *statemachine.Machine, opts Options) (string, error) {
	if current := m.CurrentState(); current != "" {
		opts.HighlightPath = append(append([]string(nil), opts.HighlightPath...), string(current))
	}

	return GenerateMermaidWithOptions(m.Definition(), opts)
}

// GenerateMermaidWithOptions generates a Mermaid diagram with custom options.
func GenerateMermaidWithOptions(config *statemachine.Config, opts Options) (string, error) {
	if config == nil {
		return "", ErrConfigNil
	}

	if config.Start == "" {
		return "", ErrNoStartState
	}

	if opts.Direction == "" {
		opts.Direction = "TD"
	}

	var sb strings.Builder

	sb.WriteString("```mermaid\n")
	sb.WriteString("stateDiagram-v2\n")
	sb.WriteString(fmt.Sprintf("    direction %s\n", opts.Direction))
	sb.WriteString(fmt.Sprintf("    [*] --> %s\n", config.Start))

	writeGroups(&sb, config, opts)

	highlightMap := make(map[string]bool)
	for _, state := range opts.HighlightPath {
		highlightMap[state] = true
	}

	timeouts := make(map[string]statemachine.TimeoutConfig)
	for _, to := range config.Timeouts {
		timeouts[to.State] = to
	}

	// Outgoing transitions per state, ordered by event.
	transitionMap := make(map[string][]statemachine.TransitionConfig)
	for _, tr := range config.Transitions {
		transitionMap[tr.From] = append(transitionMap[tr.From], tr)
	}

	for _, state := range sortedStates(config) {
		transitions := transitionMap[state.Name]
		sort.Slice(transitions, func(i, j int) bool {
			return natsort.Compare(transitions[i].Event, transitions[j].Event)
		})

		timeout, timed := timeouts[state.Name]

		for _, tr := range transitions {
			label := tr.Event

			if opts.ShowTimeouts && timed && timeout.Event == tr.Event {
				label += fmt.Sprintf(" after %s", time.Duration(timeout.After))
			}

			if opts.ShowActions && tr.Action != "" {
				label += " / " + tr.Action
			}

			sb.WriteString(fmt.Sprintf("    %s --> %s: %s\n", state.Name, tr.To, label))
		}

		if len(transitions) == 0 {
			sb.WriteString(fmt.Sprintf("    %s --> [*]\n", state.Name))
		}

		switch {
		case highlightMap[state.Name]:
			sb.WriteString(fmt.Sprintf("    class %s highlighted\n", state.Name))
		case len(transitions) == 0:
			sb.WriteString(fmt.Sprintf("    class %s finalState\n", state.Name))
		case timed && opts.ShowTimeouts:
			sb.WriteString(fmt.Sprintf("    class %s timedState\n", state.Name))
		}
	}

	sb.WriteString("\n")
	sb.WriteString("    classDef timedState fill:#e1f5ff,stroke:#01579b,stroke-width:2px\n")
	sb.WriteString("    classDef finalState fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px\n")
	sb.WriteString("    classDef highlighted fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n")

	sb.WriteString("```\n")

	return sb.String(), nil
}

// writeGroups declares a composite state per non-default group.
func writeGroups(sb *strings.Builder, config *statemachine.Config, opts Options) {
	if !opts.ShowGroups {
		return
	}

	groups := make(map[string][]string)

	for _, state := range sortedStates(config) {
		if state.Group != "" && state.Group != statemachine.DefaultGroup {
			groups[state.Group] = append(groups[state.Group], state.Name)
		}
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}

	natsort.Sort(names)

	for _, name := range names {
		sb.WriteString(fmt.Sprintf("    state %s {\n", name))

		for _, member := range groups[name] {
			sb.WriteString(fmt.Sprintf("        %s\n", member))
		}

		sb.WriteString("    }\n")
	}
}

func sortedStates(config *statemachine.Config) []statemachine.StateConfig {
	states := append([]statemachine.StateConfig(nil), config.States...)

	sort.SliceStable(states, func(i, j int) bool {
		return natsort.Compare(states[i].Name, states[j].Name)
	})

	return states
}
