package statemachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer creates a test tracer with an in-memory exporter.
func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(
		trace.WithSyncer(exporter),
	)

	oldProvider := otel.GetTracerProvider()

	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		otel.SetTracerProvider(oldProvider)
	})

	return exporter
}

func spanAttrs(span tracetest.SpanStub) map[string]any {
	attrMap := make(map[string]any)
	for _, attr := range span.Attributes {
		attrMap[string(attr.Key)] = attr.Value.AsInterface()
	}

	return attrMap
}

// TestOperateSpans cannot run in parallel because it replaces the global
// tracer provider.
//
//nolint:paralleltest
func TestOperateSpans(t *testing.T) {
	exporter := setupTestTracer(t)

	m := idleRunningDone(t, 60)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx, false))
	exporter.Reset()

	require.NoError(t, m.Operate(ctx, "go"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	// Children end first.
	transition, operate := spans[0], spans[1]

	assert.Equal(t, "fsm.transition", transition.Name)
	assert.Equal(t, "fsm.operate", operate.Name)
	assert.Equal(t, operate.SpanContext.SpanID(), transition.Parent.SpanID())
	assert.Equal(t, codes.Ok, operate.Status.Code)

	attrs := spanAttrs(operate)
	assert.Equal(t, m.Name(), attrs["fsm.machine"])
	assert.Equal(t, m.ID(), attrs["fsm.machine_id"])
	assert.Equal(t, "go", attrs["fsm.event"])
	assert.Equal(t, "operate", attrs["fsm.cause"])

	attrs = spanAttrs(transition)
	assert.Equal(t, "Idle", attrs["fsm.from"])
	assert.Equal(t, "Running", attrs["fsm.to"])
}

//nolint:paralleltest
func TestOperateSpanRecordsError(t *testing.T) {
	exporter := setupTestTracer(t)

	m := idleRunningDone(t, 60)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx, false))
	exporter.Reset()

	require.ErrorIs(t, m.Operate(ctx, "bogus"), ErrUndefinedTransition)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	require.NotEmpty(t, spans[0].Events)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}
