package statemachine

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoggerHooks(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := NewMachine(WithName("logged"), WithLogger(l))
	require.NoError(t, m.AddState("a", nil, ""))
	require.NoError(t, m.AddState("b", nil, "grp"))
	require.NoError(t, m.SetStart("a"))
	require.NoError(t, m.AddTransition("a", "go", "b", nil))
	require.NoError(t, m.AddTimeout("b", "go", time.Hour))
	require.NoError(t, m.AddTransition("b", "go", "a", nil))

	ctx := context.Background()
	require.NoError(t, m.Start(ctx, false))
	require.NoError(t, m.Operate(ctx, "go"))
	require.Error(t, m.Operate(ctx, "nope"))
	require.NoError(t, m.Stop())
	m.EnqueueOperate("late")

	out := buf.String()
	assert.Contains(t, out, "Transition executed")
	assert.Contains(t, out, "machine=logged")
	assert.Contains(t, out, "machine_id="+m.ID())
	assert.Contains(t, out, "Timeout armed")
	assert.Contains(t, out, "group=grp")
	assert.Contains(t, out, "Event dropped")
	assert.Contains(t, out, "event=late")
}

func TestDefaultLoggerOperateFailed(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	hooks := NewDefaultLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	hooks.OperateFailed(context.Background(), "go", ErrUndefinedTransition)

	assert.Contains(t, buf.String(), "Operate failed")
	assert.Contains(t, buf.String(), "undefined transition")
}
