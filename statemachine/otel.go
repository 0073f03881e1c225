package statemachine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/amp-labs/amp-fsm/statemachine"

// startOperateSpan creates the span covering one hold of the operate lock.
// The caller is responsible for calling span.End().
//
//nolint:spancheck
func startOperateSpan(ctx context.Context, m *Machine, event EventID, cause Cause) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "fsm.operate")
	span.SetAttributes(
		attribute.String("fsm.machine", m.name),
		attribute.String("fsm.machine_id", m.id),
		attribute.String("fsm.event", string(event)),
		attribute.String("fsm.cause", string(cause)),
	)

	return ctx, span
}

// startTransitionSpan creates a child span for one applied transition.
// The caller is responsible for calling span.End().
//
//nolint:spancheck
func startTransitionSpan(ctx context.Context, from StateID, event EventID, to StateID) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "fsm.transition")
	span.SetAttributes(
		attribute.String("fsm.from", string(from)),
		attribute.String("fsm.event", string(event)),
		attribute.String("fsm.to", string(to)),
	)

	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}
