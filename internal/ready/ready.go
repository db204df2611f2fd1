// Package ready gates scenario execution on the system under test being
// reachable. Collaborators register with the gateway asynchronously, so
// right after a deploy the gateway may refuse connections or answer 5xx for
// routes whose service has not shown up yet. The waiter polls until the
// gateway answers like a routable system, then hands control to the
// scenarios; step failures after that point are real failures, never masked
// by retries.
package ready

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/shop/tools/e2e/internal/client"
)

// Errors returned by the ready package.
var (
	// ErrInvalidConfig is returned when the waiter configuration is invalid.
	ErrInvalidConfig = errors.New("ready: invalid configuration")
	// ErrNotReady is returned when the gateway never became reachable.
	ErrNotReady = errors.New("ready: gateway not reachable")
)

// Doer is the transport used for probe requests. *client.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req client.Request) (*client.Response, error)
}

// Config holds configuration for the readiness waiter.
type Config struct {
	// Client is the HTTP transport. Required.
	Client Doer

	// ProbePath is the path polled for readiness. Any response with a
	// status below 500 counts as ready: the gateway is up and routing,
	// even if the probe path itself answers 401 or 404.
	// Default: "/product-service/api/products"
	ProbePath string

	// Interval is the delay between probes.
	// Default: 2s
	Interval time.Duration

	// Deadline bounds the whole wait.
	// Default: 60s
	Deadline time.Duration

	// Logger logs probe attempts. Default: zap.NewNop().
	Logger *zap.Logger
}

// Waiter polls the gateway until it is ready.
type Waiter struct {
	cfg Config

	// For testing
	nowFunc   func() time.Time
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewWaiter creates a new readiness waiter.
func NewWaiter(cfg Config) (*Waiter, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("%w: client is required", ErrInvalidConfig)
	}
	if cfg.ProbePath == "" {
		cfg.ProbePath = "/product-service/api/products"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Waiter{
		cfg:       cfg,
		nowFunc:   time.Now,
		sleepFunc: sleep,
	}, nil
}

// Wait polls the probe path until the gateway answers with a status below
// 500 or the deadline passes. Connection failures and 5xx responses mean the
// gateway or the probed service is still coming up, so polling continues.
func (w *Waiter) Wait(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, w.cfg.Deadline)
	defer cancel()

	start := w.nowFunc()
	attempt := 0
	for {
		attempt++

		resp, err := w.cfg.Client.Do(waitCtx, client.Request{
			Method: http.MethodGet,
			Path:   w.cfg.ProbePath,
		})
		switch {
		case err == nil && resp.StatusCode < http.StatusInternalServerError:
			w.cfg.Logger.Info("gateway ready",
				zap.Int("attempts", attempt),
				zap.Int("status", resp.StatusCode),
				zap.Duration("waited", w.nowFunc().Sub(start)))
			return nil
		case err == nil:
			w.cfg.Logger.Debug("gateway not ready",
				zap.Int("attempt", attempt),
				zap.Int("status", resp.StatusCode))
		default:
			w.cfg.Logger.Debug("gateway unreachable",
				zap.Int("attempt", attempt),
				zap.Error(err))
		}

		if err := w.sleepFunc(waitCtx, w.cfg.Interval); err != nil {
			return fmt.Errorf("%w: gave up after %d attempts over %v",
				ErrNotReady, attempt, w.nowFunc().Sub(start))
		}
	}
}

// WithNowFunc sets the clock used for elapsed-time reporting.
// NOT thread-safe; for testing only.
func (w *Waiter) WithNowFunc(fn func() time.Time) *Waiter {
	w.nowFunc = fn
	return w
}

// WithSleepFunc sets the inter-probe delay function.
// NOT thread-safe; for testing only.
func (w *Waiter) WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) *Waiter {
	w.sleepFunc = fn
	return w
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
