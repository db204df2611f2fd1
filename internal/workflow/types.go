// Package workflow executes ordered, dependent HTTP steps against the system
// under test. Each step's extracted identifiers become available to the path
// templates, body producers and checks of every later step, so a scenario is
// composed declaratively as a step list and interpreted by a single loop.
package workflow

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/example/shop/tools/e2e/internal/client"
)

// Context carries the identifiers a scenario has captured so far. Identifiers
// are opaque strings generated by the collaborators; the harness never
// interprets them.
type Context map[string]string

// Clone returns a copy of the context.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Accepted status sets. Creation calls tolerate both conventions collaborators
// use for successful writes; reads require the canonical success code.
var (
	StatusCreatedOrOK = []int{http.StatusOK, http.StatusCreated}
	StatusOK          = []int{http.StatusOK}
)

// CheckFunc asserts domain invariants over a parsed response. It runs after
// extraction, so ctx already contains this step's captured identifiers.
// Implementations report violations as *AssertionError.
type CheckFunc func(resp *client.Node, ctx Context) error

// Step is one ordered call in a scenario.
type Step struct {
	// Name identifies the step in logs and failure reports.
	Name string

	// Method is the HTTP method.
	Method string

	// Path is the request path. It may reference captured identifiers as
	// placeholders, e.g. "/order-service/api/orders/{orderId}".
	Path string

	// Body produces the request payload from the captured context.
	// Nil for body-less requests.
	Body func(ctx Context) any

	// Accept is the set of statuses treated as success.
	// Default: StatusOK.
	Accept []int

	// Extract maps context variable names to dotted response paths,
	// e.g. {"cartId": "cartId"}. Extracted values must be non-blank.
	Extract map[string]string

	// Check runs domain assertions over the parsed response. Optional.
	Check CheckFunc
}

// Definition is a complete, independently runnable scenario.
type Definition struct {
	Name  string
	Steps []Step
}

var (
	placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

	validMethods = map[string]bool{
		http.MethodGet: true, http.MethodPost: true, http.MethodPut: true,
		http.MethodDelete: true, http.MethodPatch: true,
	}
)

// Validate validates the definition.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("%w: scenario %q has no steps", ErrInvalidDefinition, d.Name)
	}

	for i, step := range d.Steps {
		if step.Name == "" {
			return fmt.Errorf("%w: scenario %q: step %d has no name", ErrInvalidDefinition, d.Name, i+1)
		}
		if !validMethods[step.Method] {
			return fmt.Errorf("%w: scenario %q: step %q: invalid method %q", ErrInvalidDefinition, d.Name, step.Name, step.Method)
		}
		if step.Path == "" {
			return fmt.Errorf("%w: scenario %q: step %q: path is required", ErrInvalidDefinition, d.Name, step.Name)
		}
		for varName, path := range step.Extract {
			if varName == "" || path == "" {
				return fmt.Errorf("%w: scenario %q: step %q: empty extract entry", ErrInvalidDefinition, d.Name, step.Name)
			}
		}
	}

	return nil
}

// expandPath replaces {placeholder} references with captured identifiers.
// Returns the name of the first unresolved placeholder, if any.
func expandPath(template string, ctx Context) (string, string) {
	missing := ""
	expanded := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if val, ok := ctx[name]; ok && val != "" {
			return val
		}
		if missing == "" {
			missing = name
		}
		return match
	})
	return expanded, missing
}
