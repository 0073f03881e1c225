package envutil

import "context"

type envContextKey string

// WithEnvOverride returns a context in which reads of key see value instead of
// the process environment. Tests and embedded machines use it to configure a
// single instance without touching global state.
func WithEnvOverride(ctx context.Context, key string, value string) context.Context {
	return context.WithValue(ctx, envContextKey(key), value)
}

func getEnvOverride(ctx context.Context, key string) (string, bool) {
	if ctx == nil {
		return "", false
	}

	val, ok := ctx.Value(envContextKey(key)).(string)

	return val, ok
}
