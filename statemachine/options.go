package statemachine

import (
	"context"
	"log/slog"

	"github.com/amp-labs/amp-fsm/envutil"
	"github.com/amp-labs/amp-fsm/logger"
)

// Environment variables read by OptionsFromEnv.
const (
	EnvMachineName           = "FSM_NAME"
	EnvIgnoreUndefinedEvents = "FSM_IGNORE_UNDEFINED_EVENTS"
)

// Observer receives every applied transition. Observers run on a dedicated
// goroutine per machine, in transition order, outside the operate lock.
type Observer func(rec TransitionRecord)

// Option configures a Machine.
type Option func(*options)

type options struct {
	name            string
	hooks           Logger
	ignoreUndefined bool
	onChange        func(from, to StateID)
	observers       []Observer
	stopOnShutdown  bool
}

func defaultOptions() *options {
	return &options{
		name:  "fsm",
		hooks: NewDefaultLogger(nil),
	}
}

// WithName sets the machine name used in logs, metrics and spans.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger routes the default logging hooks to the given slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.hooks = NewDefaultLogger(l)
	}
}

// WithHooks replaces the logging hooks. A nil Logger disables them.
func WithHooks(hooks Logger) Option {
	return func(o *options) {
		if hooks == nil {
			o.hooks = nopLogger{}
		} else {
			o.hooks = hooks
		}
	}
}

// WithIgnoreUndefinedEvents makes Operate silently return when the current
// state has no transition for the event, instead of failing.
func WithIgnoreUndefinedEvents(ignore bool) Option {
	return func(o *options) {
		o.ignoreUndefined = ignore
	}
}

// WithStateChangeCallback registers a function called after every applied
// transition with the operate lock still held.
func WithStateChangeCallback(f func(from, to StateID)) Option {
	return func(o *options) {
		o.onChange = f
	}
}

// WithObserver adds a transition observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithStopOnShutdown makes the machine stop itself when the process
// receives a shutdown signal handled by the shutdown package.
func WithStopOnShutdown() Option {
	return func(o *options) {
		o.stopOnShutdown = true
	}
}

// OptionsFromEnv builds options from FSM_NAME and FSM_IGNORE_UNDEFINED_EVENTS.
// Unset variables contribute nothing; malformed ones are logged and skipped.
func OptionsFromEnv(ctx context.Context) []Option {
	var opts []Option

	envutil.String(ctx, EnvMachineName).DoWithValue(func(name string) {
		opts = append(opts, WithName(name))
	})

	ignore := envutil.Bool(ctx, EnvIgnoreUndefinedEvents)
	if ignore.HasError() {
		_, err := ignore.Value()
		logger.Get(ctx).WarnContext(ctx, "ignoring malformed environment variable",
			"key", EnvIgnoreUndefinedEvents, "error", err)
	}

	ignore.DoWithValue(func(v bool) {
		opts = append(opts, WithIgnoreUndefinedEvents(v))
	})

	return opts
}
