package statemachine

import (
	"sort"

	"facette.io/natsort"
)

type transitionKey struct {
	from  StateID
	event EventID
}

type transition struct {
	to     StateID
	action Action
	args   []any
}

// transitionTable maps (state, event) to its transition. Re-adding a pair
// replaces the previous entry.
type transitionTable struct {
	entries map[transitionKey]transition
}

func newTransitionTable() transitionTable {
	return transitionTable{
		entries: make(map[transitionKey]transition),
	}
}

func (t *transitionTable) add(from StateID, event EventID, to StateID, action Action, args []any) (replaced bool) {
	key := transitionKey{from: from, event: event}
	_, replaced = t.entries[key]

	t.entries[key] = transition{
		to:     to,
		action: action,
		args:   append([]any(nil), args...),
	}

	return replaced
}

func (t *transitionTable) resolve(from StateID, event EventID) (transition, error) {
	tr, ok := t.entries[transitionKey{from: from, event: event}]
	if !ok {
		return transition{}, WrapTransitionError(from, event, "", ErrUndefinedTransition)
	}

	return tr, nil
}

func (t *transitionTable) has(from StateID, event EventID) bool {
	_, ok := t.entries[transitionKey{from: from, event: event}]

	return ok
}

// TransitionInfo is a read-only view of one transition.
type TransitionInfo struct {
	From      StateID
	Event     EventID
	To        StateID
	HasAction bool
}

func (t *transitionTable) snapshot() []TransitionInfo {
	out := make([]TransitionInfo, 0, len(t.entries))

	for key, tr := range t.entries {
		out = append(out, TransitionInfo{
			From:      key.from,
			Event:     key.event,
			To:        tr.to,
			HasAction: tr.action != nil,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return natsort.Compare(string(out[i].From), string(out[j].From))
		}

		return natsort.Compare(string(out[i].Event), string(out[j].Event))
	})

	return out
}
