package statemachine

import "time"

// Builder provides a fluent API for constructing state machines. It records
// a Config together with the implementations to bind, so a programmatic
// machine goes through the same validation as a YAML one.
type Builder struct {
	config  *Config
	states  map[string]State
	actions map[string]Action
	opts    []Option
}

// NewBuilder creates a new state machine builder.
func NewBuilder(name string, opts ...Option) *Builder {
	return &Builder{
		config:  &Config{Name: name},
		states:  make(map[string]State),
		actions: make(map[string]Action),
		opts:    opts,
	}
}

// WithStart sets the start state.
func (b *Builder) WithStart(state StateID) *Builder {
	b.config.Start = string(state)

	return b
}

// WithIgnoreUndefinedEvents sets the machine's undefined-event policy.
func (b *Builder) WithIgnoreUndefinedEvents(ignore bool) *Builder {
	b.config.IgnoreUndefinedEvents = ignore

	return b
}

// AddState adds a state in the default group. A nil impl is a NopState.
func (b *Builder) AddState(id StateID, impl State) *Builder {
	return b.AddGroupState(id, impl, "")
}

// AddGroupState adds a state owned by group.
func (b *Builder) AddGroupState(id StateID, impl State, group string) *Builder {
	if impl == nil {
		impl = NopState{}
	}

	b.states[string(id)] = impl
	b.config.States = append(b.config.States, StateConfig{Name: string(id), Group: group})

	return b
}

// AddTransition adds a transition without an action.
func (b *Builder) AddTransition(from StateID, event EventID, to StateID) *Builder {
	return b.AddActionTransition(from, event, to, nil)
}

// AddActionTransition adds a transition whose action is called with args.
func (b *Builder) AddActionTransition(from StateID, event EventID, to StateID, action Action, args ...any) *Builder {
	tc := TransitionConfig{From: string(from), Event: string(event), To: string(to), Args: args}

	if action != nil {
		tc.Action = string(from) + "/" + string(event)
		b.actions[tc.Action] = action
	}

	b.config.Transitions = append(b.config.Transitions, tc)

	return b
}

// AddTimeout binds event to fire after the given duration in state.
func (b *Builder) AddTimeout(state StateID, event EventID, after time.Duration) *Builder {
	b.config.Timeouts = append(b.config.Timeouts, TimeoutConfig{
		State: string(state),
		Event: string(event),
		After: Duration(after),
	})

	return b
}

// Config returns the definition recorded so far.
func (b *Builder) Config() *Config {
	return b.config
}

// Build validates the definition and constructs the machine. Every
// definition problem is reported at once.
func (b *Builder) Build() (*Machine, error) {
	return NewMachineFromConfig(b.config, b.states, b.actions, b.opts...)
}
