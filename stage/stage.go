// Package stage determines the deployment environment (local, test, dev,
// staging, prod) from the RUNNING_ENV environment variable.
package stage

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/amp-labs/amp-fsm/envutil"
	"github.com/amp-labs/amp-fsm/logger"
)

// EnvRunningEnv names the environment variable holding the stage.
const EnvRunningEnv = "RUNNING_ENV"

// Stage represents a deployment environment.
type Stage string

// ErrUnrecognizedStage is returned when RUNNING_ENV contains an invalid stage value.
var ErrUnrecognizedStage = errors.New("unrecognized stage")

const (
	Unknown Stage = "unknown"
	Local   Stage = "local"
	Test    Stage = "test"
	Dev     Stage = "dev"
	Staging Stage = "staging"
	Prod    Stage = "prod"
)

// Current returns the stage named by RUNNING_ENV. When the variable is unset
// or invalid it falls back to Test inside `go test` binaries and Unknown
// elsewhere.
func Current(ctx context.Context) Stage {
	env := envutil.Map(envutil.String(ctx, EnvRunningEnv), func(s string) (Stage, error) {
		return Parse(s)
	})

	if env.HasError() {
		_, err := env.Value()
		logger.Get(ctx).WarnContext(ctx, "ignoring stage", "key", EnvRunningEnv, "error", err)
	}

	if flag.Lookup("test.v") != nil {
		return env.ValueOrElse(Test)
	}

	return env.ValueOrElse(Unknown)
}

// Parse converts s to a Stage. Unknown is not accepted.
func Parse(s string) (Stage, error) {
	switch Stage(s) {
	case Local, Test, Dev, Staging, Prod:
		return Stage(s), nil
	case Unknown:
		fallthrough
	default:
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedStage, s)
	}
}

// IsProd reports whether ctx's stage is Prod.
func IsProd(ctx context.Context) bool {
	return Current(ctx) == Prod
}

// IsLocal reports whether ctx's stage is Local.
func IsLocal(ctx context.Context) bool {
	return Current(ctx) == Local
}
