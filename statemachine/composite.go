package statemachine

import "context"

// Sequence returns an action that calls each action in order with the
// same arguments. Nil actions are skipped.
func Sequence(actions ...Action) Action {
	return func(ctx context.Context, args ...any) {
		for _, action := range actions {
			if action != nil {
				action(ctx, args...)
			}
		}
	}
}

// When returns an action that calls then if cond holds and otherwise
// calls otherwise, which may be nil.
func When(cond func(ctx context.Context, args ...any) bool, then, otherwise Action) Action {
	return func(ctx context.Context, args ...any) {
		switch {
		case cond(ctx, args...):
			if then != nil {
				then(ctx, args...)
			}
		case otherwise != nil:
			otherwise(ctx, args...)
		}
	}
}

// BindArgs returns an action that ignores the transition's arguments and
// calls action with args instead.
func BindArgs(action Action, args ...any) Action {
	return func(ctx context.Context, _ ...any) {
		action(ctx, args...)
	}
}
