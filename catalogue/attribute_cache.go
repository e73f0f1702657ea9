// catalogue/attribute_cache.go
package catalogue

import (
	"context"

	"github.com/datakaveri/dx-resource-server-sub002/cache"
)

// AttributeCache maps a resource id to its operator-defined unique attribute.
// It is consulted by the latest-data read path, not by the gating pipeline,
// but shares the catalogue cache's design and refresh lifecycle.
type AttributeCache struct {
	overrides *cache.Refreshing[string]
}

// NewAttributeCache builds the cache over a durable-store loader
// (dao.UniqueAttributeDAO satisfies cache.Loader[string]).
func NewAttributeCache(loader cache.Loader[string], opts cache.Options) *AttributeCache {
	if opts.Name == "" {
		opts.Name = "unique-attribute"
	}
	return &AttributeCache{overrides: cache.NewRefreshing[string](loader, opts)}
}

// Get returns the unique attribute for the resource, or cache.ErrNotFound
// when no override is defined.
func (c *AttributeCache) Get(ctx context.Context, resourceID string) (string, error) {
	return c.overrides.Get(ctx, resourceID)
}

func (c *AttributeCache) RefreshAll(ctx context.Context) error {
	return c.overrides.RefreshAll(ctx)
}
