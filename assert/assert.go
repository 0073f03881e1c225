// Package assert provides panicking checks for internal invariants. A failed
// assertion is a programming error, never a recoverable condition.
package assert

import "fmt"

// True panics unless value is true.
// If the first arg is a string it is used as a format string for the rest,
// otherwise all args are included in the panic message.
func True(value bool, args ...any) {
	if value {
		return
	}

	if len(args) == 0 {
		panic("assertion failed")
	}

	if format, ok := args[0].(string); ok {
		panic(fmt.Sprintf(format, args[1:]...))
	}

	panic(fmt.Sprintf("assertion failed: %v", args))
}

// False panics unless value is false. Args follow the rules of True.
func False(value bool, args ...any) {
	True(!value, args...)
}
