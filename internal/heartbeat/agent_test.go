package heartbeat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTransport walks through a fixed outcome script, then holds on the
// last entry.
type fakeTransport struct {
	mu      sync.Mutex
	results []bool
	calls   int
}

func (f *fakeTransport) Heartbeat(ctx context.Context, infos []HeartBeatInfo, addr HeartBeatAddress) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	ok := f.results[i]
	if !ok {
		return false, errors.New("fake: rejected")
	}
	return true, nil
}

type fakeRuntime struct {
	workerID string

	mu            sync.Mutex
	shutdownCalls int
	registerCalls int
}

func (r *fakeRuntime) GetRuntimeWorkerID() string { return r.workerID }

func (r *fakeRuntime) RuntimeShutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdownCalls++
}

func (r *fakeRuntime) RegisterAllFitServices() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registerCalls++
}

func (r *fakeRuntime) counts() (shutdown, register int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shutdownCalls, r.registerCalls
}

func testAgentConfig() Config {
	cfg := DefaultConfig()
	cfg.Interval = 20 * time.Millisecond
	cfg.ForceThreadWorker = true
	return cfg
}

func TestOnlineThenOfflineIsClean(t *testing.T) {
	transport := &fakeTransport{results: []bool{true, true, true, true, true}}
	rt := &fakeRuntime{workerID: "w1"}
	a := New(testAgentConfig(), transport, rt, zap.NewNop())

	require.NoError(t, a.Online())
	time.Sleep(60 * time.Millisecond)
	require.NoError(t, a.Offline())
	time.Sleep(20 * time.Millisecond)

	assert.False(t, a.ExitedUnexpectedly())
	shutdown, _ := rt.counts()
	assert.Equal(t, 0, shutdown)
}

func TestOnlineTwiceFails(t *testing.T) {
	transport := &fakeTransport{results: []bool{true}}
	rt := &fakeRuntime{workerID: "w1"}
	a := New(testAgentConfig(), transport, rt, zap.NewNop())

	require.NoError(t, a.Online())
	defer a.Offline()

	err := a.Online()
	assert.ErrorIs(t, err, ErrAlreadyOnline)
}

func TestOfflineWithoutOnlineFails(t *testing.T) {
	a := New(testAgentConfig(), &fakeTransport{results: []bool{true}}, &fakeRuntime{}, zap.NewNop())
	assert.ErrorIs(t, a.Offline(), ErrNotOnline)
}

func TestReconnectTriggersRegisterAllFitServicesExactlyOnce(t *testing.T) {
	// Three failures then steady success: exactly one reconnect event.
	transport := &fakeTransport{results: []bool{false, false, false, true, true, true, true, true}}
	rt := &fakeRuntime{workerID: "w1"}
	a := New(testAgentConfig(), transport, rt, zap.NewNop())

	require.NoError(t, a.Online())
	defer a.Offline()

	require.Eventually(t, func() bool {
		_, register := rt.counts()
		return register == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	_, register := rt.counts()
	assert.Equal(t, 1, register, "register must be triggered exactly once across the whole streak")
}

// crashingWorker implements worker directly (bypassing threadWorker) to
// simulate a loop that terminates on its own, exercising the supervisor's
// escalation path without waiting on real timing.
type crashingWorker struct {
	done chan struct{}
}

func (w *crashingWorker) start(onEvent func(workerEvent)) (<-chan struct{}, error) {
	return w.done, nil
}
func (w *crashingWorker) stop()         {}
func (w *crashingWorker) isAlive() bool { return false }

func TestSupervisorEscalatesOnUnexpectedExit(t *testing.T) {
	rt := &fakeRuntime{workerID: "w1"}
	a := New(testAgentConfig(), &fakeTransport{results: []bool{true}}, rt, zap.NewNop())

	w := &crashingWorker{done: make(chan struct{})}
	a.mu.Lock()
	a.worker = w
	a.mu.Unlock()
	go a.supervise(w.done)

	close(w.done)

	require.Eventually(t, func() bool { return a.ExitedUnexpectedly() }, time.Second, 5*time.Millisecond)
	shutdown, _ := rt.counts()
	assert.Equal(t, 1, shutdown)
}

func TestSupervisorDoesNotEscalateAfterCleanOffline(t *testing.T) {
	transport := &fakeTransport{results: []bool{true, true, true}}
	rt := &fakeRuntime{workerID: "w1"}
	a := New(testAgentConfig(), transport, rt, zap.NewNop())

	require.NoError(t, a.Online())
	require.NoError(t, a.Offline())

	time.Sleep(100 * time.Millisecond)
	assert.False(t, a.ExitedUnexpectedly())
	shutdown, _ := rt.counts()
	assert.Equal(t, 0, shutdown)
}
