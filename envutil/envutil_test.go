package envutil_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amp-labs/amp-fsm/envutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNeedName = errors.New("name required")

//nolint:tparallel // Cannot use t.Parallel() with subtests that call t.Setenv()
func TestString(t *testing.T) {
	t.Run("present value", func(t *testing.T) {
		t.Setenv("FSM_TEST_STRING", "hello")

		reader := envutil.String(t.Context(), "FSM_TEST_STRING")
		value, err := reader.Value()
		require.NoError(t, err)
		assert.Equal(t, "hello", value)
		assert.True(t, reader.HasValue())
	})

	t.Run("missing value", func(t *testing.T) {
		reader := envutil.String(t.Context(), "FSM_TEST_STRING_MISSING")
		_, err := reader.Value()
		require.ErrorIs(t, err, envutil.ErrEnvVarMissing)
		assert.False(t, reader.HasValue())
	})

	t.Run("with default", func(t *testing.T) {
		reader := envutil.String(t.Context(), "FSM_TEST_STRING_MISSING", envutil.Default("default"))
		value, err := reader.Value()
		require.NoError(t, err)
		assert.Equal(t, "default", value)
	})

	t.Run("if missing", func(t *testing.T) {
		reader := envutil.String(t.Context(), "FSM_TEST_STRING_MISSING", envutil.IfMissing[string](errNeedName))
		_, err := reader.Value()
		require.ErrorIs(t, err, errNeedName)
	})

	t.Run("context override", func(t *testing.T) {
		ctx := envutil.WithEnvOverride(t.Context(), "FSM_TEST_STRING_MISSING", "override")
		assert.Equal(t, "override", envutil.String(ctx, "FSM_TEST_STRING_MISSING").ValueOrElse("nope"))
	})
}

func TestBool(t *testing.T) {
	t.Setenv("FSM_TEST_BOOL", "true")
	t.Setenv("FSM_TEST_BOOL_BAD", "maybe")

	assert.True(t, envutil.Bool(t.Context(), "FSM_TEST_BOOL").ValueOrElse(false))
	assert.False(t, envutil.Bool(t.Context(), "FSM_TEST_BOOL_MISSING", envutil.Default(false)).ValueOrElse(true))

	bad := envutil.Bool(t.Context(), "FSM_TEST_BOOL_BAD")
	assert.True(t, bad.HasError())

	_, err := bad.Value()
	require.ErrorIs(t, err, envutil.ErrBadEnvVar)
}

func TestIntAndDuration(t *testing.T) {
	t.Setenv("FSM_TEST_INT", " 42 ")
	t.Setenv("FSM_TEST_DURATION", "1500ms")

	assert.Equal(t, 42, envutil.Int(t.Context(), "FSM_TEST_INT").ValueOrElse(0))
	assert.Equal(t, 1500*time.Millisecond,
		envutil.Duration(t.Context(), "FSM_TEST_DURATION").ValueOrElse(time.Second))

	positive := envutil.Validate(func(v int) error {
		if v <= 100 {
			return errors.New("too small")
		}

		return nil
	})
	assert.True(t, envutil.Int(t.Context(), "FSM_TEST_INT", positive).HasError())
}

func TestSlogLevel(t *testing.T) {
	t.Setenv("FSM_TEST_LEVEL", "WARNING")

	level := envutil.SlogLevel(t.Context(), "FSM_TEST_LEVEL").ValueOrElse(slog.LevelInfo)
	assert.Equal(t, slog.LevelWarn, level)

	ctx := envutil.WithEnvOverride(t.Context(), "FSM_TEST_LEVEL", "loud")
	assert.True(t, envutil.SlogLevel(ctx, "FSM_TEST_LEVEL").HasError())
}

func TestDoWithValueAndString(t *testing.T) {
	ctx := envutil.WithEnvOverride(t.Context(), "FSM_TEST_NAME", "door")

	var seen string

	reader := envutil.String(ctx, "FSM_TEST_NAME")
	reader.DoWithValue(func(s string) { seen = s })

	assert.Equal(t, "door", seen)
	assert.Equal(t, "FSM_TEST_NAME=door", reader.String())
	assert.Equal(t, "FSM_TEST_OTHER=<not set>", envutil.String(ctx, "FSM_TEST_OTHER").String())
}

func TestLoadEnvFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	dotenv := filepath.Join(dir, "machine.env")
	require.NoError(t, os.WriteFile(dotenv, []byte("# comment\nFSM_NAME=door\nexport LOG_LEVEL=debug\n"), 0o600))

	vars, err := envutil.LoadEnvFile(dotenv)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"FSM_NAME": "door", "LOG_LEVEL": "debug"}, vars)

	yml := filepath.Join(dir, "machine.yaml")
	require.NoError(t, os.WriteFile(yml, []byte("env:\n  FSM_NAME: turnstile\n"), 0o600))

	vars, err = envutil.LoadEnvFile(yml)
	require.NoError(t, err)
	assert.Equal(t, "turnstile", vars["FSM_NAME"])

	jsn := filepath.Join(dir, "machine.json")
	require.NoError(t, os.WriteFile(jsn, []byte(`{"env":{"FSM_NAME":"lamp"}}`), 0o600))

	vars, err = envutil.LoadEnvFile(jsn)
	require.NoError(t, err)
	assert.Equal(t, "lamp", vars["FSM_NAME"])

	txt := filepath.Join(dir, "machine.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o600))

	_, err = envutil.LoadEnvFile(txt)
	require.ErrorIs(t, err, envutil.ErrUnknownFileType)
}
