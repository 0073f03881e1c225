package statemachine

import "context"

type contextKey string

const stepContextKey contextKey = "statemachineStep"

// withStep marks ctx as belonging to a callback of the given machine step.
func withStep(ctx context.Context, machineID string, rec TransitionRecord) context.Context {
	return context.WithValue(ctx, stepContextKey, stepInfo{machineID: machineID, record: rec})
}

type stepInfo struct {
	machineID string
	record    TransitionRecord
}

// StepFromContext returns the transition being applied when called from
// inside an OnExit, Action or OnEntry callback.
func StepFromContext(ctx context.Context) (TransitionRecord, bool) {
	info, ok := ctx.Value(stepContextKey).(stepInfo)
	if !ok {
		return TransitionRecord{}, false
	}

	return info.record, true
}

func insideMachine(ctx context.Context, machineID string) bool {
	info, ok := ctx.Value(stepContextKey).(stepInfo)

	return ok && info.machineID == machineID
}
