package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPoolRunsAllSubmittedJobs(t *testing.T) {
	p := New(4, zap.NewNop())
	defer p.Stop()

	var n int64
	var wg sync.WaitGroup
	wg.Add(50)
	for i := 0; i < 50; i++ {
		p.Submit(func() {
			atomic.AddInt64(&n, 1)
			wg.Done()
		})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for jobs to run")
	}
	assert.Equal(t, int64(50), atomic.LoadInt64(&n))
}

func TestPoolDropsAndCallsOnDropWhenFull(t *testing.T) {
	block := make(chan struct{})
	p := &Pool{jobs: make(chan func(), 1), logger: zap.NewNop()}
	go func() {
		for fn := range p.jobs {
			fn()
		}
	}()

	var dropped int64
	p.OnDrop(func() { atomic.AddInt64(&dropped, 1) })

	// First job blocks the single worker so the queue (depth 1) fills up.
	started := make(chan struct{})
	p.Submit(func() { close(started); <-block })
	<-started
	p.Submit(func() {}) // occupies the buffered slot
	p.Submit(func() {}) // queue now full -> dropped

	close(block)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int64(1), atomic.LoadInt64(&dropped))
}
