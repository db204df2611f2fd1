package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/shop/tools/e2e/internal/client"
)

// Doer is the transport used to execute steps. *client.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req client.Request) (*client.Response, error)
}

// ExecutorConfig holds configuration for the scenario executor.
type ExecutorConfig struct {
	// Client is the HTTP transport. Required.
	Client Doer

	// Authorization is the header value attached to every request,
	// e.g. "Bearer eyJhbGc...".
	Authorization string

	// Logger logs step lifecycle events. Default: zap.NewNop().
	Logger *zap.Logger

	// ScenarioTimeout bounds a whole scenario run.
	// Default: 5m
	ScenarioTimeout time.Duration

	// For testing
	nowFunc func() time.Time
}

// Executor runs scenario definitions. Scenarios are independent; a single
// Executor may run them concurrently as long as each carries its own
// uniqueness namespace.
type Executor struct {
	cfg ExecutorConfig
}

// StepResult records one executed step.
type StepResult struct {
	Index     int
	Name      string
	Status    int
	Duration  time.Duration
	Extracted Context
	Err       error
}

// Result records one scenario run.
type Result struct {
	Scenario string
	Success  bool
	Steps    []StepResult
	Context  Context
	Duration time.Duration
	Err      error
}

// NewExecutor creates a new executor.
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("%w: client is required", ErrInvalidDefinition)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.ScenarioTimeout <= 0 {
		cfg.ScenarioTimeout = 5 * time.Minute
	}
	if cfg.nowFunc == nil {
		cfg.nowFunc = time.Now
	}
	return &Executor{cfg: cfg}, nil
}

// Run executes the scenario's steps in order, threading captured identifiers
// forward. The first transport failure, unexpected status, failed assertion
// or missing identifier aborts the run; no compensation is attempted and
// created resources are left behind in the collaborators.
//
// The returned error, if any, equals Result.Err so callers can use either.
func (e *Executor) Run(ctx context.Context, def Definition, initial Context) (*Result, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	runCtx := initial.Clone()
	if runCtx == nil {
		runCtx = make(Context)
	}

	execCtx, cancel := context.WithTimeout(ctx, e.cfg.ScenarioTimeout)
	defer cancel()

	start := e.cfg.nowFunc()
	result := &Result{
		Scenario: def.Name,
		Steps:    make([]StepResult, 0, len(def.Steps)),
		Context:  runCtx,
	}

	log := e.cfg.Logger.With(zap.String("scenario", def.Name))

	for i, step := range def.Steps {
		log.Debug("step starting",
			zap.Int("index", i+1),
			zap.String("step", step.Name),
			zap.String("endpoint", step.Method+" "+step.Path))

		sr := e.runStep(execCtx, i, step, runCtx)
		result.Steps = append(result.Steps, sr)

		if sr.Err != nil {
			log.Error("step failed",
				zap.String("step", step.Name),
				zap.Int("status", sr.Status),
				zap.Error(sr.Err))
			result.Err = sr.Err
			break
		}

		for k, v := range sr.Extracted {
			runCtx[k] = v
		}

		log.Debug("step completed",
			zap.String("step", step.Name),
			zap.Int("status", sr.Status),
			zap.Duration("duration", sr.Duration),
			zap.Any("extracted", sr.Extracted))
	}

	result.Duration = e.cfg.nowFunc().Sub(start)
	result.Context = runCtx
	result.Success = result.Err == nil && len(result.Steps) == len(def.Steps)

	if result.Success {
		log.Info("scenario verified",
			zap.Int("steps", len(result.Steps)),
			zap.Duration("duration", result.Duration))
	}

	return result, result.Err
}

func (e *Executor) runStep(ctx context.Context, index int, step Step, runCtx Context) StepResult {
	start := e.cfg.nowFunc()

	sr := StepResult{
		Index:     index,
		Name:      step.Name,
		Extracted: make(Context),
	}
	finish := func() StepResult {
		sr.Duration = e.cfg.nowFunc().Sub(start)
		return sr
	}

	path, missing := expandPath(step.Path, runCtx)
	if missing != "" {
		sr.Err = &PreconditionError{Step: step.Name, Variable: missing}
		return finish()
	}

	req := client.Request{
		Method: step.Method,
		Path:   path,
	}
	if step.Body != nil {
		req.Body = step.Body(runCtx)
	}
	if e.cfg.Authorization != "" {
		req.Headers = map[string]string{"Authorization": e.cfg.Authorization}
	}

	resp, err := e.cfg.Client.Do(ctx, req)
	if err != nil {
		sr.Err = &TransportError{Step: step.Name, Err: err}
		return finish()
	}
	sr.Status = resp.StatusCode

	accept := step.Accept
	if len(accept) == 0 {
		accept = StatusOK
	}
	if !slices.Contains(accept, resp.StatusCode) {
		sr.Err = &UnexpectedStatusError{
			Step:   step.Name,
			Accept: accept,
			Status: resp.StatusCode,
			Body:   string(resp.Body),
		}
		return finish()
	}

	if len(step.Extract) == 0 && step.Check == nil {
		return finish()
	}

	node, err := resp.JSON()
	if err != nil {
		sr.Err = &TransportError{Step: step.Name, Err: err}
		return finish()
	}

	for varName, fieldPath := range step.Extract {
		val := node.Path(fieldPath).Str()
		if strings.TrimSpace(val) == "" {
			sr.Err = &PreconditionError{Step: step.Name, Variable: varName}
			return finish()
		}
		sr.Extracted[varName] = val
	}

	if step.Check != nil {
		checkCtx := runCtx.Clone()
		for k, v := range sr.Extracted {
			checkCtx[k] = v
		}
		if err := step.Check(node, checkCtx); err != nil {
			var assertion *AssertionError
			if !errors.As(err, &assertion) {
				err = &AssertionError{Step: step.Name, Field: "response", Want: "check to pass", Got: err.Error()}
			}
			sr.Err = err
			return finish()
		}
	}

	return finish()
}
