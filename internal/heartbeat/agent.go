package heartbeat

import (
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/fitframework/fit-registry-go/internal/metrics"
)

// Agent is the Heartbeat Agent: online()/offline()/exitedUnexpectedly()
// over exactly one long-lived worker plus one supervisor goroutine.
type Agent struct {
	cfg       Config
	transport Transport
	runtime   Runtime
	logger    *zap.Logger

	mu       sync.Mutex
	worker   worker
	stopping bool

	exitedUnexpectedly atomic.Bool
}

// New creates an Agent. Call Online to start the worker and supervisor.
func New(cfg Config, transport Transport, rt Runtime, logger *zap.Logger) *Agent {
	return &Agent{cfg: cfg, transport: transport, runtime: rt, logger: logger.Named("heartbeat")}
}

// Online starts the heartbeat worker and its supervisor. It picks the
// out-of-process worker on platforms with cheap process isolation and a
// detectable parent-liveness signal, and the in-process thread worker
// everywhere else — Windows here, plus wherever Config.ForceThreadWorker
// asks for it explicitly (tests, or a deployment with no heartbeatworker
// binary available).
func (a *Agent) Online() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.worker != nil {
		return ErrAlreadyOnline
	}

	workerID := a.runtime.GetRuntimeWorkerID()
	infos := a.cfg.infos()
	addr := HeartBeatAddress{WorkerID: workerID}

	var w worker
	if a.cfg.ForceThreadWorker || runtime.GOOS == "windows" {
		w = newThreadWorker(a.cfg, a.transport, infos, addr)
	} else {
		w = newProcessWorker(a.cfg.WorkerBinary, WireStartConfig{
			SceneType:   a.cfg.SceneType,
			IntervalMS:  a.cfg.Interval.Milliseconds(),
			AliveTimeMS: a.cfg.AliveTime.Milliseconds(),
			InitDelayMS: a.cfg.InitDelay.Milliseconds(),
			WorkerID:    workerID,
			RPCAddr:     a.cfg.RPCAddr,
		}, a.logger)
	}

	done, err := w.start(a.onTick)
	if err != nil {
		return err
	}
	a.worker = w
	a.stopping = false
	a.exitedUnexpectedly.Store(false)

	metrics.HeartbeatExitedUnexpectedly.Set(0)

	go a.supervise(done)
	return nil
}

// Offline places a clean-stop signal on the worker's cancellation channel
// and returns immediately.
func (a *Agent) Offline() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.worker == nil {
		return ErrNotOnline
	}
	a.stopping = true
	a.worker.stop()
	a.worker = nil
	return nil
}

// ExitedUnexpectedly reports whether the supervisor observed the worker
// terminate for any reason other than a clean Offline() call.
func (a *Agent) ExitedUnexpectedly() bool {
	return a.exitedUnexpectedly.Load()
}

// onTick is invoked by the active worker for every heartbeat attempt.
func (a *Agent) onTick(evt workerEvent) {
	metrics.HeartbeatFailCount.Set(float64(evt.FailCount))

	switch evt.Outcome {
	case TickReconnected:
		metrics.HeartbeatAttemptsTotal.WithLabelValues("reconnected").Inc()
		a.logger.Info("heartbeat reconnected, re-registering fit services")
		a.runtime.RegisterAllFitServices()
	case TickFailure:
		metrics.HeartbeatAttemptsTotal.WithLabelValues("failure").Inc()
		a.logger.Warn("heartbeat attempt failed", zap.Error(evt.Err))
	default:
		metrics.HeartbeatAttemptsTotal.WithLabelValues("success").Inc()
	}
	if evt.Unstable {
		a.logger.Warn("heartbeat interval unstable", zap.Duration("elapsed", evt.Elapsed))
	}
}

// supervise is the agent's supervisor goroutine: it watches done and
// escalates to Runtime shutdown unless the exit followed a clean Offline.
func (a *Agent) supervise(done <-chan struct{}) {
	<-done

	a.mu.Lock()
	clean := a.stopping
	a.mu.Unlock()

	if clean {
		return
	}

	a.exitedUnexpectedly.Store(true)
	metrics.HeartbeatExitedUnexpectedly.Set(1)
	a.logger.Error("heartbeat worker exited unexpectedly, shutting down runtime")
	a.runtime.RuntimeShutdown()
}
