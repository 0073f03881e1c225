// Package envutil reads typed configuration from environment variables.
package envutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// get returns a Reader for the given key, preferring a context override
// over the process environment.
func get(ctx context.Context, key string) Reader[string] {
	if val, ok := getEnvOverride(ctx, key); ok {
		return Reader[string]{key: key, present: true, value: val}
	}

	val, ok := os.LookupEnv(key)

	return Reader[string]{
		key:     key,
		present: ok,
		value:   val,
	}
}

func apply[T any](rdr Reader[T], opts []Option[T]) Reader[T] {
	for _, opt := range opts {
		rdr = opt(rdr)
	}

	return rdr
}

// String returns a Reader for the given environment variable key.
func String(ctx context.Context, key string, opts ...Option[string]) Reader[string] {
	return apply(get(ctx, key), opts)
}

// Bool parses the variable with strconv.ParseBool.
func Bool(ctx context.Context, key string, opts ...Option[bool]) Reader[bool] {
	return apply(Map(get(ctx, key), func(s string) (bool, error) {
		return strconv.ParseBool(strings.TrimSpace(s))
	}), opts)
}

// Int parses the variable as a base-10 integer.
func Int(ctx context.Context, key string, opts ...Option[int]) Reader[int] {
	return apply(Map(get(ctx, key), func(s string) (int, error) {
		return strconv.Atoi(strings.TrimSpace(s))
	}), opts)
}

// Duration parses the variable with time.ParseDuration.
func Duration(ctx context.Context, key string, opts ...Option[time.Duration]) Reader[time.Duration] {
	return apply(Map(get(ctx, key), func(s string) (time.Duration, error) {
		return time.ParseDuration(strings.TrimSpace(s))
	}), opts)
}

// SlogLevel parses debug, info, warn/warning or error (case-insensitive).
func SlogLevel(ctx context.Context, key string, opts ...Option[slog.Level]) Reader[slog.Level] {
	return apply(Map(get(ctx, key), parseSlogLevel), opts)
}

func parseSlogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
