// Package workerpool is a bounded dispatch pool: change notifications
// fired from the Backend Adapter's scheduler goroutine are handed off
// here so that goroutine is never blocked by a caller's callback.
//
// The same shape as executor.Executor's job queue: a small buffered
// channel, a fixed number of long-lived goroutines draining it, and a
// reject-when-full policy rather than an unbounded backlog.
package workerpool

import "go.uber.org/zap"

// DefaultSize is the recommended worker pool size.
const DefaultSize = 10

// defaultQueueDepth bounds how many pending jobs can be buffered per
// instance before Submit starts dropping. Chosen generously relative to
// DefaultSize so a brief burst of change notifications across many
// (group, service) keys doesn't spuriously drop work under normal load.
const defaultQueueDepth = 256

// Pool runs submitted jobs on a fixed number of goroutines.
type Pool struct {
	jobs    chan func()
	logger  *zap.Logger
	done    chan struct{}
	dropped func()
}

// New creates and starts a Pool with size workers. Call Stop to drain and
// shut it down.
func New(size int, logger *zap.Logger) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	p := &Pool{
		jobs:   make(chan func(), defaultQueueDepth),
		logger: logger.Named("workerpool"),
		done:   make(chan struct{}),
	}

	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for fn := range p.jobs {
		fn()
	}
}

// Submit enqueues fn for execution on one of the pool's workers. If the
// queue is full, fn is dropped and logged rather than blocking the
// caller — callers on this path are the Backend Adapter's scheduler
// goroutine, which must never block.
func (p *Pool) Submit(fn func()) {
	select {
	case p.jobs <- fn:
	default:
		p.logger.Warn("workerpool: queue full, dropping job")
		if p.dropped != nil {
			p.dropped()
		}
	}
}

// Stop closes the job channel. Workers finish draining already-queued
// jobs and then exit; Stop does not wait for them.
func (p *Pool) Stop() {
	close(p.jobs)
}

// OnDrop registers a callback invoked every time Submit drops a job
// because the queue was full. Used by internal/metrics to export a
// counter without this package depending on Prometheus directly.
func (p *Pool) OnDrop(fn func()) {
	p.dropped = fn
}
