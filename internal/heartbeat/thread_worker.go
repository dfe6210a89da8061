package heartbeat

import (
	"context"
	"sync/atomic"
	"time"
)

// threadWorker runs the heartbeat loop body on an in-process goroutine.
// Used on platforms without reliable parent-liveness detection and
// wherever ForceThreadWorker is set, including tests.
type threadWorker struct {
	cfg       Config
	transport Transport
	infos     []HeartBeatInfo
	addr      HeartBeatAddress

	cancel chan struct{}
	alive  atomic.Bool
}

func newThreadWorker(cfg Config, transport Transport, infos []HeartBeatInfo, addr HeartBeatAddress) *threadWorker {
	return &threadWorker{cfg: cfg, transport: transport, infos: infos, addr: addr, cancel: make(chan struct{})}
}

func (w *threadWorker) start(onEvent func(workerEvent)) (<-chan struct{}, error) {
	done := make(chan struct{})
	w.alive.Store(true)
	go w.run(onEvent, done)
	return done, nil
}

func (w *threadWorker) isAlive() bool {
	return w.alive.Load()
}

func (w *threadWorker) run(onEvent func(workerEvent), done chan struct{}) {
	defer close(done)
	defer w.alive.Store(false)

	state := NewLoopState()
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.cancel:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), w.cfg.Interval)
			outcome, elapsed, unstable, err := state.Tick(ctx, w.transport, w.infos, w.addr, w.cfg.Interval)
			cancel()
			onEvent(workerEvent{Outcome: outcome, Elapsed: elapsed, Unstable: unstable, Err: err, FailCount: state.FailCount()})
		}
	}
}

func (w *threadWorker) stop() {
	select {
	case <-w.cancel:
	default:
		close(w.cancel)
	}
}
