package cache_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datakaveri/dx-resource-server-sub002/cache"
)

type blockingTarget struct {
	started int32
	release chan struct{}
}

func (t *blockingTarget) RefreshAll(ctx context.Context) error {
	atomic.AddInt32(&t.started, 1)
	if t.release != nil {
		<-t.release
	}
	return nil
}

func TestRefresher_RunsOnEveryTick(t *testing.T) {
	mock := clock.NewMock()
	target := &blockingTarget{}

	r := cache.NewRefresher("test", target, time.Hour, mock)
	r.Start()
	defer r.Stop()

	// Give the loop a moment to install its ticker before advancing time.
	time.Sleep(10 * time.Millisecond)

	mock.Add(time.Hour)
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&target.started) == 1
	}, time.Second, time.Millisecond)

	mock.Add(time.Hour)
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&target.started) == 2
	}, time.Second, time.Millisecond)
}

func TestRefresher_SkipsTickWhileRefreshInFlight(t *testing.T) {
	mock := clock.NewMock()
	target := &blockingTarget{release: make(chan struct{})}

	r := cache.NewRefresher("test", target, time.Hour, mock)
	r.Start()
	defer r.Stop()

	time.Sleep(10 * time.Millisecond)

	mock.Add(time.Hour)
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&target.started) == 1
	}, time.Second, time.Millisecond)

	// The first refresh is still blocked; these ticks must be skipped, not
	// queued into overlapping refreshes.
	mock.Add(time.Hour)
	mock.Add(time.Hour)
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&target.started))

	close(target.release)

	// A tick after completion runs again.
	time.Sleep(10 * time.Millisecond)
	mock.Add(time.Hour)
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&target.started) >= 2
	}, time.Second, time.Millisecond)
}

func TestRefresher_StopTerminatesLoop(t *testing.T) {
	mock := clock.NewMock()
	target := &blockingTarget{}

	r := cache.NewRefresher("test", target, time.Hour, mock)
	r.Start()

	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not terminate the refresh loop")
	}
}
