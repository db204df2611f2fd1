package workflow

import (
	"fmt"
	"strings"
)

// Errors returned by the workflow package.
var (
	// ErrInvalidDefinition is returned when a scenario definition is invalid.
	ErrInvalidDefinition = fmt.Errorf("workflow: invalid definition")
)

// maxBodyInError bounds how much response body is carried in error messages.
const maxBodyInError = 2048

// TransportError reports a connection-level failure during a step: refused,
// timed out, or an unreadable/unparseable response. Always fatal to the
// scenario; never retried, so flakiness is surfaced instead of masked.
type TransportError struct {
	Step string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("workflow: step %q: %v", e.Step, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnexpectedStatusError reports a response status outside the step's accepted
// set. The raw body is carried for diagnosis.
type UnexpectedStatusError struct {
	Step   string
	Accept []int
	Status int
	Body   string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("workflow: step %q: expected status in %v, got %d: %s",
		e.Step, e.Accept, e.Status, truncate(e.Body, maxBodyInError))
}

// AssertionError reports observed data violating an expected invariant.
type AssertionError struct {
	Step  string
	Field string
	Want  any
	Got   any
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("workflow: step %q: field %q: want %v, got %v",
		e.Step, e.Field, e.Want, e.Got)
}

// PreconditionError reports a step that depends on an identifier no prior
// step produced, or a creating call that yielded a blank identifier. All
// later steps would fail the same way, so the scenario aborts here.
type PreconditionError struct {
	Step     string
	Variable string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("workflow: step %q: no usable value for %q", e.Step, e.Variable)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
