// Package nacosclient is the Backend Adapter: a single-owner gateway to
// Nacos that hides the SDK's callback-style subscribe behind synchronous,
// timeout-bounded operations.
//
// Nacos's own Go SDK already exposes synchronous methods for register/
// deregister/query, but its Subscribe callback still fires on an SDK-owned
// goroutine, so this package still commits to exactly one background
// scheduler owning the backend client with every other call routed
// through it — the same way websocket.Hub commits to a single-writer
// event loop even though Go's maps could, in principle, be protected with
// a plain mutex instead.
package nacosclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fitframework/fit-registry-go/internal/metrics"
)

// job is one unit of work submitted to the scheduler goroutine.
type job struct {
	run    func(NamingClient) (any, error)
	result chan<- callResult
}

type callResult struct {
	value any
	err   error
}

// Adapter owns the single Nacos naming client and the one background
// scheduler goroutine through which every backend operation is routed.
type Adapter struct {
	cfg    Config
	logger *zap.Logger

	jobs chan job
	done chan struct{} // closed when the scheduler goroutine exits

	ready   chan struct{} // closed once the client is confirmed ready
	readyErr error

	client NamingClient
}

// New creates an Adapter. Call Start before issuing any Call.
func New(cfg Config, logger *zap.Logger) *Adapter {
	return &Adapter{
		cfg:    cfg,
		logger: logger.Named("nacosclient"),
		jobs:   make(chan job),
		done:   make(chan struct{}),
		ready:  make(chan struct{}),
	}
}

// NewWithClient creates an already-ready Adapter wrapping a caller-supplied
// NamingClient, bypassing the Nacos SDK's own construction. Intended for
// composing the Backend Adapter in tests belonging to other packages,
// where overriding the unexported client-construction hook isn't possible.
func NewWithClient(cfg Config, client NamingClient, logger *zap.Logger) *Adapter {
	a := &Adapter{
		cfg:    cfg,
		logger: logger.Named("nacosclient"),
		jobs:   make(chan job),
		done:   make(chan struct{}),
		ready:  make(chan struct{}),
		client: client,
	}
	close(a.ready)
	go a.runJobLoop()
	return a
}

// Start spins up the background scheduler goroutine, which then
// constructs the Nacos client. Start blocks until the client is confirmed
// ready or cfg.InitTimeout elapses — startup is strictly ordered: the
// scheduler first, then the client.
//
// If client construction fails, Start returns the error and every
// subsequent Call fails with ErrBackendUnavailable — initialization
// failure is not retried automatically.
func (a *Adapter) Start(ctx context.Context) error {
	go a.scheduleLoop()

	select {
	case <-a.ready:
		return a.readyErr
	case <-time.After(a.cfg.InitTimeout):
		a.readyErr = fmt.Errorf("%w: client not ready after %s", ErrBackendUnavailable, a.cfg.InitTimeout)
		return a.readyErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop tears down the scheduler goroutine and drops the client. In-flight
// Calls unblock with ErrBackendShutdown.
func (a *Adapter) Stop() {
	select {
	case a.jobs <- job{}: // a job with no run func ends runJobLoop
	case <-a.done:
	}
	<-a.done
}

// scheduleLoop is the adapter's single background goroutine: it owns the
// Nacos client and is the only goroutine that ever touches it directly.
func (a *Adapter) scheduleLoop() {
	client, err := newNamingClientFunc(a.cfg)
	if err != nil {
		a.readyErr = fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		close(a.ready)
		close(a.done)
		return
	}
	a.client = client
	close(a.ready)

	a.runJobLoop()
}

// runJobLoop drains a.jobs, running each against the already-constructed
// a.client. Shared by scheduleLoop (which first builds the client) and
// NewWithClient (which is handed one already built).
func (a *Adapter) runJobLoop() {
	defer close(a.done)
	defer func() {
		if a.client != nil {
			a.client.CloseClient()
		}
	}()

	for j := range a.jobs {
		if j.run == nil {
			return
		}
		value, err := j.run(a.client)
		j.result <- callResult{value: value, err: err}
	}
}

// Call submits fn to the scheduler goroutine and blocks the caller until
// it completes, the per-call timeout elapses, or the adapter shuts down.
// Call is safe to invoke from any goroutine. operation labels the
// BackendCallDuration/BackendCallErrorsTotal metrics (e.g.
// "registerInstance", "listInstances") — it has no effect on behavior.
func Call[T any](ctx context.Context, a *Adapter, operation string, fn func(NamingClient) (T, error)) (T, error) {
	start := time.Now()
	v, err := call(ctx, a, fn)
	metrics.BackendCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendCallErrorsTotal.WithLabelValues(operation, errorKind(err)).Inc()
	}
	return v, err
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrBackendUnavailable):
		return "unavailable"
	case errors.Is(err, ErrBackendTimeout):
		return "timeout"
	case errors.Is(err, ErrBackendShutdown):
		return "shutdown"
	default:
		return "other"
	}
}

func call[T any](ctx context.Context, a *Adapter, fn func(NamingClient) (T, error)) (T, error) {
	var zero T

	select {
	case <-a.ready:
		if a.readyErr != nil {
			return zero, a.readyErr
		}
	default:
		return zero, ErrBackendUnavailable
	}

	result := make(chan callResult, 1)
	j := job{
		run: func(c NamingClient) (any, error) {
			return fn(c)
		},
		result: result,
	}
	timeout := time.After(a.cfg.CallTimeout)

	select {
	case a.jobs <- j:
	case <-a.done:
		return zero, ErrBackendShutdown
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-timeout:
		return zero, ErrBackendTimeout
	}

	select {
	case r := <-result:
		if r.err != nil {
			return zero, r.err
		}
		v, _ := r.value.(T)
		return v, nil
	case <-a.done:
		return zero, ErrBackendShutdown
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-timeout:
		return zero, ErrBackendTimeout
	}
}
