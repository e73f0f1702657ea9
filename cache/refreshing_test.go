package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datakaveri/dx-resource-server-sub002/cache"
)

type countingLoader struct {
	mu       sync.Mutex
	all      map[string]string
	allErr   error
	oneErr   error
	loadAlls int32
	loadOnes int32
}

func (l *countingLoader) LoadAll(ctx context.Context) (map[string]string, error) {
	atomic.AddInt32(&l.loadAlls, 1)
	if l.allErr != nil {
		return nil, l.allErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]string, len(l.all))
	for k, v := range l.all {
		out[k] = v
	}
	return out, nil
}

func (l *countingLoader) LoadOne(ctx context.Context, id string) (string, bool, error) {
	atomic.AddInt32(&l.loadOnes, 1)
	if l.oneErr != nil {
		return "", false, l.oneErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.all[id]
	return v, ok, nil
}

func TestGet_HitPerformsNoIO(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{all: map[string]string{"r1": "open"}}
	c := cache.NewRefreshing[string](loader, cache.Options{Name: "test"})
	require.NoError(t, c.RefreshAll(ctx))

	for i := 0; i < 10; i++ {
		v, err := c.Get(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "open", v)
	}
	assert.EqualValues(t, 0, loader.loadOnes, "cache hits must not reach the loader")
}

func TestGet_MissFetchesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{all: map[string]string{"r1": "open"}}
	c := cache.NewRefreshing[string](loader, cache.Options{Name: "test"})

	v, err := c.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "open", v)
	assert.EqualValues(t, 1, loader.loadOnes)

	// The fetched entry is now cached.
	_, err = c.Get(ctx, "r1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, loader.loadOnes)
}

func TestGet_ConfirmedMissIsNegativelyCached(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{all: map[string]string{}}
	c := cache.NewRefreshing[string](loader, cache.Options{Name: "test"})

	for i := 0; i < 5; i++ {
		_, err := c.Get(ctx, "missing-id")
		assert.ErrorIs(t, err, cache.ErrNotFound)
	}
	assert.EqualValues(t, 1, loader.loadOnes, "a permanently-absent id must not cause fetch storms")
}

func TestGet_LoaderFailureSurfacesAsNotFoundButIsNotCached(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{all: map[string]string{"r1": "open"}, oneErr: errors.New("catalogue down")}
	c := cache.NewRefreshing[string](loader, cache.Options{Name: "test"})

	_, err := c.Get(ctx, "r1")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	// Once the collaborator recovers the next miss fetches again.
	loader.oneErr = nil
	v, err := c.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "open", v)
}

func TestRefreshAll_FailureKeepsPreviousContents(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{all: map[string]string{"r1": "open", "r2": "secure"}}
	c := cache.NewRefreshing[string](loader, cache.Options{Name: "test"})
	require.NoError(t, c.RefreshAll(ctx))
	assert.Equal(t, 2, c.Len())

	loader.allErr = errors.New("catalogue down")
	assert.Error(t, c.RefreshAll(ctx))
	assert.Equal(t, 2, c.Len())

	v, err := c.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "open", v)
}

func TestRefreshAll_AtomicFromReadersPointOfView(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{all: map[string]string{"r1": "gen-a", "r2": "gen-a"}}
	c := cache.NewRefreshing[string](loader, cache.Options{Name: "test"})
	require.NoError(t, c.RefreshAll(ctx))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				// Readers must always see a complete generation: both keys
				// present, never an empty in-between state.
				v1, err1 := c.Get(ctx, "r1")
				v2, err2 := c.Get(ctx, "r2")
				assert.NoError(t, err1)
				assert.NoError(t, err2)
				assert.Contains(t, []string{"gen-a", "gen-b"}, v1)
				assert.Contains(t, []string{"gen-a", "gen-b"}, v2)
				assert.GreaterOrEqual(t, c.Len(), 2)
			}
		}()
	}

	for i := 0; i < 50; i++ {
		loader.mu.Lock()
		loader.all = map[string]string{"r1": "gen-b", "r2": "gen-b"}
		loader.mu.Unlock()
		require.NoError(t, c.RefreshAll(ctx))
		loader.mu.Lock()
		loader.all = map[string]string{"r1": "gen-a", "r2": "gen-a"}
		loader.mu.Unlock()
		require.NoError(t, c.RefreshAll(ctx))
	}
	close(stop)
	wg.Wait()
}

func TestGet_WriteExpiryEvictsStaleEntries(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	loader := &countingLoader{all: map[string]string{"r1": "open"}}
	c := cache.NewRefreshing[string](loader, cache.Options{Name: "test", TTL: 24 * time.Hour, Clock: mock})
	require.NoError(t, c.RefreshAll(ctx))

	_, err := c.Get(ctx, "r1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, loader.loadOnes)

	// Past the TTL the entry no longer counts as present; the next read goes
	// back to the loader.
	mock.Add(25 * time.Hour)
	_, err = c.Get(ctx, "r1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, loader.loadOnes)
}

func TestInsert_CapacityBound(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{all: map[string]string{"a": "1", "b": "2", "c": "3"}}
	c := cache.NewRefreshing[string](loader, cache.Options{Name: "test", Capacity: 2})

	_, err := c.Get(ctx, "a")
	require.NoError(t, err)
	_, err = c.Get(ctx, "b")
	require.NoError(t, err)
	_, err = c.Get(ctx, "c")
	require.NoError(t, err)

	assert.LessOrEqual(t, c.Len(), 2, "on-miss inserts must respect the capacity bound")
}
