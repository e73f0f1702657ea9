// cache/refresher.go
package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	logger "github.com/datakaveri/dx-resource-server-sub002/logging"
)

const refreshTimeout = 5 * time.Minute

// Target is anything with periodically refreshable contents.
type Target interface {
	RefreshAll(ctx context.Context) error
}

// Refresher runs a Target's full refresh on a fixed wall-clock interval.
// At most one refresh runs at a time; a tick that fires while the previous
// refresh is still in flight is skipped.
type Refresher struct {
	name     string
	target   Target
	interval time.Duration
	clock    clock.Clock

	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

func NewRefresher(name string, target Target, interval time.Duration, clk clock.Clock) *Refresher {
	if clk == nil {
		clk = clock.New()
	}
	return &Refresher{
		name:     name,
		target:   target,
		interval: interval,
		clock:    clk,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the refresh loop. The eager startup refresh is the owner's
// responsibility (main warms all caches in parallel before serving).
func (r *Refresher) Start() {
	go r.loop()
}

// Stop terminates the loop. An in-flight refresh is left to complete and its
// result discarded.
func (r *Refresher) Stop() {
	close(r.stop)
	<-r.done
}

func (r *Refresher) loop() {
	defer close(r.done)

	ticker := r.clock.Ticker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			go r.runOnce()
		case <-r.stop:
			return
		}
	}
}

func (r *Refresher) runOnce() {
	if !r.running.CompareAndSwap(false, true) {
		logger.Warn("Skipping refresh tick, previous refresh still in flight",
			zap.String("cache", r.name))
		return
	}
	defer r.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := r.target.RefreshAll(ctx); err != nil {
		logger.Error("Scheduled refresh failed, keeping previous contents",
			zap.String("cache", r.name),
			zap.Error(err))
	}
}
