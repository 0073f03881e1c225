package statemachine

import (
	"context"
	"log/slog"
	"time"

	"github.com/amp-labs/amp-fsm/logger"
)

// Logger provides logging hooks for machine activity. Hooks are called with
// the operate lock held, so implementations must not block.
type Logger interface {
	StateEntered(ctx context.Context, state StateID, group string)
	StateExited(ctx context.Context, state StateID, group string)
	TransitionExecuted(ctx context.Context, rec TransitionRecord)
	TimeoutArmed(ctx context.Context, state StateID, event EventID, after time.Duration)
	TimeoutFired(ctx context.Context, state StateID, event EventID)
	EventDropped(ctx context.Context, event EventID, reason error)
	OperateFailed(ctx context.Context, event EventID, err error)
}

// DefaultLogger implements Logger using slog.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger creates a new default logger. A nil logger means the
// context logger from the logger package is used on every call.
func NewDefaultLogger(l *slog.Logger) *DefaultLogger {
	return &DefaultLogger{
		logger: l,
	}
}

func (l *DefaultLogger) get(ctx context.Context) *slog.Logger {
	if l.logger != nil {
		return l.logger
	}

	return logger.Get(ctx)
}

func (l *DefaultLogger) StateEntered(ctx context.Context, state StateID, group string) {
	l.get(ctx).DebugContext(ctx, "State entered", "state", state, "group", group)
}

func (l *DefaultLogger) StateExited(ctx context.Context, state StateID, group string) {
	l.get(ctx).DebugContext(ctx, "State exited", "state", state, "group", group)
}

func (l *DefaultLogger) TransitionExecuted(ctx context.Context, rec TransitionRecord) {
	l.get(ctx).InfoContext(ctx, "Transition executed",
		"from", rec.From,
		"to", rec.To,
		"event", rec.Event,
		"cause", rec.Cause,
		"step", rec.Step,
	)
}

func (l *DefaultLogger) TimeoutArmed(ctx context.Context, state StateID, event EventID, after time.Duration) {
	l.get(ctx).DebugContext(ctx, "Timeout armed",
		"state", state,
		"event", event,
		"after_ms", after.Milliseconds(),
	)
}

func (l *DefaultLogger) TimeoutFired(ctx context.Context, state StateID, event EventID) {
	l.get(ctx).InfoContext(ctx, "Timeout fired", "state", state, "event", event)
}

func (l *DefaultLogger) EventDropped(ctx context.Context, event EventID, reason error) {
	l.get(ctx).WarnContext(ctx, "Event dropped", "event", event, "reason", reason.Error())
}

func (l *DefaultLogger) OperateFailed(ctx context.Context, event EventID, err error) {
	l.get(ctx).ErrorContext(ctx, "Operate failed",
		"event", event,
		"error", err)
}

// nopLogger discards every hook.
type nopLogger struct{}

func (nopLogger) StateEntered(context.Context, StateID, string)                 {}
func (nopLogger) StateExited(context.Context, StateID, string)                  {}
func (nopLogger) TransitionExecuted(context.Context, TransitionRecord)          {}
func (nopLogger) TimeoutArmed(context.Context, StateID, EventID, time.Duration) {}
func (nopLogger) TimeoutFired(context.Context, StateID, EventID)                {}
func (nopLogger) EventDropped(context.Context, EventID, error)                  {}
func (nopLogger) OperateFailed(context.Context, EventID, error)                 {}
