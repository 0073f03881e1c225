package statemachine

import (
	"fmt"

	"facette.io/natsort"
)

type registeredState struct {
	id    StateID
	group string
	impl  State
}

// stateRegistry is write-once-per-id, read-many. It has no removal operation.
type stateRegistry struct {
	states map[StateID]*registeredState
	start  StateID
}

func newStateRegistry() stateRegistry {
	return stateRegistry{
		states: make(map[StateID]*registeredState),
	}
}

func (r *stateRegistry) add(id StateID, impl State, group string) error {
	if _, exists := r.states[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateState, id)
	}

	if impl == nil {
		impl = NopState{}
	}

	if group == "" {
		group = DefaultGroup
	}

	r.states[id] = &registeredState{
		id:    id,
		group: group,
		impl:  impl,
	}

	return nil
}

func (r *stateRegistry) setStart(id StateID) error {
	if _, exists := r.states[id]; !exists {
		return fmt.Errorf("%w: %s", ErrUnknownState, id)
	}

	r.start = id

	return nil
}

func (r *stateRegistry) get(id StateID) (*registeredState, error) {
	state, exists := r.states[id]
	if !exists {
		return nil, WrapStateError(id, ErrStateNotFound)
	}

	return state, nil
}

func (r *stateRegistry) has(id StateID) bool {
	_, exists := r.states[id]

	return exists
}

// ids returns the registered ids in natural order ("s2" before "s10"),
// optionally restricted to one group.
func (r *stateRegistry) ids(group string) []StateID {
	names := make([]string, 0, len(r.states))

	for id, state := range r.states {
		if group == "" || state.group == group {
			names = append(names, string(id))
		}
	}

	natsort.Sort(names)

	out := make([]StateID, len(names))
	for i, name := range names {
		out[i] = StateID(name)
	}

	return out
}
