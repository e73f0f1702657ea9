// quota/meter.go
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"
)

// Counters for a closed window are only read until the next window begins;
// two windows of retention leaves room for end-of-window billing reads.
const counterRetention = 62 * 24 * time.Hour

// Meter records actual usage after a successful response. Business handlers
// call it post-response so that rejected or failed requests are never
// charged.
type Meter struct {
	client *redis.Client
	clock  clock.Clock
}

func NewMeter(client *redis.Client, clk clock.Clock) *Meter {
	if clk == nil {
		clk = clock.New()
	}
	return &Meter{client: client, clock: clk}
}

// RecordCall adds one API call and the response size to the subject's
// counters for the current window.
func (m *Meter) RecordCall(ctx context.Context, subject, resourceID string, responseBytes int64) error {
	now := m.clock.Now()
	callKey := CallCountKey(subject, resourceID, now)
	byteKey := ByteCountKey(subject, resourceID, now)

	pipe := m.client.Pipeline()
	pipe.Incr(ctx, callKey)
	pipe.Expire(ctx, callKey, counterRetention)
	if responseBytes > 0 {
		pipe.IncrBy(ctx, byteKey, responseBytes)
		pipe.Expire(ctx, byteKey, counterRetention)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record usage for %s on %s: %w", subject, resourceID, err)
	}
	return nil
}
