// catalogue/cache.go
package catalogue

import (
	"context"

	"github.com/datakaveri/dx-resource-server-sub002/cache"
	"github.com/datakaveri/dx-resource-server-sub002/model"
)

// CatalogueFetcher is the slice of Client the cache needs; tests substitute a
// fake.
type CatalogueFetcher interface {
	FetchAll(ctx context.Context) (map[string]model.CatalogueEntry, error)
	FetchByID(ctx context.Context, id string) (model.CatalogueEntry, bool, error)
}

// clientLoader adapts a CatalogueFetcher to the cache.Loader contract.
type clientLoader struct {
	fetcher CatalogueFetcher
}

func (l clientLoader) LoadAll(ctx context.Context) (map[string]model.CatalogueEntry, error) {
	return l.fetcher.FetchAll(ctx)
}

func (l clientLoader) LoadOne(ctx context.Context, id string) (model.CatalogueEntry, bool, error) {
	return l.fetcher.FetchByID(ctx, id)
}

// Cache is the local read cache of resource metadata consulted by the
// resource-policy check.
type Cache struct {
	entries *cache.Refreshing[model.CatalogueEntry]
}

func NewCache(fetcher CatalogueFetcher, opts cache.Options) *Cache {
	if opts.Name == "" {
		opts.Name = "catalogue"
	}
	return &Cache{entries: cache.NewRefreshing[model.CatalogueEntry](clientLoader{fetcher: fetcher}, opts)}
}

// Get returns the metadata for a resource id. A present entry is
// authoritative; an absent one triggers a fetch-on-miss, and only a miss
// confirmed by the catalogue surfaces as cache.ErrNotFound.
func (c *Cache) Get(ctx context.Context, id string) (model.CatalogueEntry, error) {
	return c.entries.Get(ctx, id)
}

func (c *Cache) RefreshAll(ctx context.Context) error {
	return c.entries.RefreshAll(ctx)
}

func (c *Cache) Len() int {
	return c.entries.Len()
}
