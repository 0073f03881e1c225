// Package validator lints machine definitions beyond the structural checks
// of Config.Validate: unreachable states, shadowed transitions and states
// that can never finish.
package validator

import (
	"fmt"
	"strings"

	"github.com/amp-labs/amp-fsm/statemachine"
)

// Result holds the issues found in a definition.
type Result struct {
	Valid    bool
	Errors   []Issue
	Warnings []Issue
}

// Issue is a single finding. State is empty for definition-wide issues.
type Issue struct {
	Code    string
	Message string
	File    string
	State   string
}

func (i Issue) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[%s] %s", i.Code, i.Message)

	if i.State != "" {
		fmt.Fprintf(&sb, " (state: %s)", i.State)
	}

	if i.File != "" {
		fmt.Fprintf(&sb, " in %s", i.File)
	}

	return sb.String()
}

// Validate runs the default rules.
func Validate(config *statemachine.Config) Result {
	return ValidateWithRules(config, DefaultRules())
}

// ValidateFile loads a definition and validates it. strict turns warnings
// into errors. A load failure is returned both as an error and as a
// CONFIG_LOAD_FAILED issue.
func ValidateFile(path string, strict bool) (Result, error) {
	config, err := statemachine.LoadConfig(path)
	if err != nil {
		return Result{
			Errors: []Issue{{
				Code:    CodeConfigLoadFailed,
				Message: err.Error(),
				File:    path,
			}},
		}, err
	}

	result := Validate(config)
	if strict {
		result = result.Strict()
	}

	for i := range result.Errors {
		result.Errors[i].File = path
	}

	for i := range result.Warnings {
		result.Warnings[i].File = path
	}

	return result, nil
}

// ValidateWithRules validates using the given rules.
func ValidateWithRules(config *statemachine.Config, rules []Rule) Result {
	var result Result

	for _, rule := range rules {
		for _, issue := range rule.Check(config) {
			if rule.Severity() == SeverityError {
				result.Errors = append(result.Errors, issue)
			} else {
				result.Warnings = append(result.Warnings, issue)
			}
		}
	}

	result.Valid = len(result.Errors) == 0

	return result
}

// Strict returns a copy of r with every warning promoted to an error.
func (r Result) Strict() Result {
	out := Result{
		Errors: append(append([]Issue(nil), r.Errors...), r.Warnings...),
	}
	out.Valid = len(out.Errors) == 0

	return out
}

// HasErrors returns true if the result has any errors.
func (r Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if the result has any warnings.
func (r Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary.
func (r Result) String() string {
	var sb strings.Builder

	if r.Valid {
		sb.WriteString("definition is valid\n")
	} else {
		fmt.Fprintf(&sb, "definition has %d error(s)\n", len(r.Errors))

		for _, issue := range r.Errors {
			sb.WriteString("  " + issue.String() + "\n")
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&sb, "%d warning(s)\n", len(r.Warnings))

		for _, issue := range r.Warnings {
			sb.WriteString("  " + issue.String() + "\n")
		}
	}

	return sb.String()
}
