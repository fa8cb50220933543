package job

import (
	"fmt"
	"strings"
)

// MissingFieldError reports a required field absent from a declaration.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// MalformedFieldError reports a field present but unusable: wrong type,
// empty where a value is required, or out of range.
type MalformedFieldError struct {
	Field  string
	Reason string
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("malformed field %q: %s", e.Field, e.Reason)
}

// UnsupportedKindError reports a fetch variant outside the closed set of
// recognized kinds.
type UnsupportedKindError struct {
	Kind string
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("unsupported fetch kind %q", e.Kind)
}

// ValidationError aggregates every constraint a single declaration
// violates, so one fix pass gets the complete list.
type ValidationError struct {
	Job    string
	Issues []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Error()
	}
	return fmt.Sprintf("job %q: %s", e.Job, strings.Join(msgs, "; "))
}

// Unwrap exposes the individual issues to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	return e.Issues
}
