package worker

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/mfs-backend/internal/metrics"
)

func TestPoolRunsAllJobsBeforeStop(t *testing.T) {
	p := NewPool(3, 100, nil)
	var n atomic.Int64
	for i := 0; i < 50; i++ {
		assert.True(t, p.Submit(func() { n.Add(1) }))
	}
	p.Stop()
	assert.Equal(t, int64(50), n.Load())
}

func TestPoolSurvivesPanics(t *testing.T) {
	p := NewPool(1, 10, nil)
	var ran atomic.Bool
	p.Submit(func() { panic("boom") })
	p.Submit(func() { ran.Store(true) })
	p.Stop()
	assert.True(t, ran.Load())
}

func TestSubmitAfterStop(t *testing.T) {
	p := NewPool(1, 1, nil)
	p.Stop()
	assert.False(t, p.Submit(func() {}))
	p.Stop()
}

func TestQueueDepthTracksFullQueue(t *testing.T) {
	base := testutil.ToFloat64(metrics.WorkerQueueDepth)
	p := NewPool(1, 2, nil)

	started, release := make(chan struct{}), make(chan struct{})
	require.True(t, p.Submit(func() { close(started); <-release }))
	<-started

	assert.True(t, p.Submit(func() {}))
	assert.True(t, p.Submit(func() {}))
	assert.False(t, p.Submit(func() {}), "queue is full")
	assert.Equal(t, base+2, testutil.ToFloat64(metrics.WorkerQueueDepth))

	close(release)
	p.Stop()
	assert.Equal(t, base, testutil.ToFloat64(metrics.WorkerQueueDepth))
}

func TestQueueDepthNeverNegative(t *testing.T) {
	base := testutil.ToFloat64(metrics.WorkerQueueDepth)
	p := NewPool(8, 4, nil)

	var (
		mu     sync.Mutex
		lowest = base
		wg     sync.WaitGroup
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				p.Submit(func() {
					d := testutil.ToFloat64(metrics.WorkerQueueDepth)
					mu.Lock()
					if d < lowest {
						lowest = d
					}
					mu.Unlock()
				})
			}
		}()
	}
	wg.Wait()
	p.Stop()

	assert.GreaterOrEqual(t, lowest, base)
	assert.Equal(t, base, testutil.ToFloat64(metrics.WorkerQueueDepth))
}
