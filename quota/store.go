// quota/store.go
package quota

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// CounterStore reads usage counters in one batched call. Keys are opaque
// strings; a missing counter reads as zero.
type CounterStore interface {
	ReadCounters(ctx context.Context, keys ...string) ([]int64, error)
}

// RedisCounterStore backs CounterStore with a single MGET.
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) ReadCounters(ctx context.Context, keys ...string) ([]int64, error) {
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read counters: %w", err)
	}

	counts := make([]int64, len(values))
	for i, value := range values {
		if value == nil {
			continue // missing counter, zero usage
		}
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("counter %s holds unexpected type %T", keys[i], value)
		}
		count, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("counter %s holds non-numeric value %q: %w", keys[i], str, err)
		}
		counts[i] = count
	}
	return counts, nil
}
