package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownVerb is returned when a catalog has no schema for a verb.
var ErrUnknownVerb = errors.New("unknown verb")

// ValidationError represents a single property validation failure.
type ValidationError struct {
	Path   string // Location of the action, e.g. "actions[1].subactions[0]"
	Key    string // Property name
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed validation
}

func (e *ValidationError) Error() string {
	field := e.Key
	if e.Path != "" {
		field = e.Path + "." + e.Key
	}
	if e.Key == "" {
		field = e.Path
	}
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", field, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %T)", field, e.Reason, e.Value)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// ValidationErrors returns the individual failures carried by err, unwrapping as needed.
// It returns nil when err holds no AggregateError.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
