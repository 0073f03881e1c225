package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/amp-labs/amp-fsm/envutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))

		out = append(out, rec)
	}

	return out
}

func TestGet(t *testing.T) { //nolint:paralleltest
	var buf bytes.Buffer

	ConfigureLoggingWithOptions(Options{
		Subsystem: "fsm-test",
		JSON:      true,
		MinLevel:  slog.LevelDebug,
		Output:    &buf,
	})

	Get().Info("default subsystem")
	Get(WithSubsystem(t.Context(), "overridden")).Info("overridden subsystem")
	Get(With(t.Context(), "machine", "door", "state", "open")).Info("with values")
	Get(WithMuted(t.Context(), true)).Info("never printed")

	records := decodeLines(t, &buf)
	require.Len(t, records, 3)

	assert.Equal(t, "fsm-test", records[0]["subsystem"])
	assert.Equal(t, "overridden", records[1]["subsystem"])
	assert.Equal(t, "door", records[2]["machine"])
	assert.Equal(t, "open", records[2]["state"])
}

func TestWithDoesNotAlias(t *testing.T) { //nolint:paralleltest
	base := With(t.Context(), "a", 1)
	left := With(base, "b", 2)
	right := With(base, "c", 3)

	assert.Equal(t, []any{"a", 1, "b", 2}, getValues(left))
	assert.Equal(t, []any{"a", 1, "c", 3}, getValues(right))
}

func TestConfigureLogging(t *testing.T) { //nolint:paralleltest
	var buf bytes.Buffer

	ctx := envutil.WithEnvOverride(t.Context(), "LOG_JSON", "true")
	ctx = envutil.WithEnvOverride(ctx, "LOG_LEVEL", "warn")

	log := ConfigureLogging(ctx, "fsmdemo", WithOutput(&buf))

	log.Info("filtered out")
	log.Warn("kept")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0]["msg"])
	assert.Equal(t, "fsmdemo", GetSubsystem(t.Context()))
}
