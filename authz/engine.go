// authz/engine.go
package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/datakaveri/dx-resource-server-sub002/cache"
	dx_errors "github.com/datakaveri/dx-resource-server-sub002/errors"
	"github.com/datakaveri/dx-resource-server-sub002/model"
)

// CatalogueGetter is the catalogue-cache slice the engine consults.
type CatalogueGetter interface {
	Get(ctx context.Context, id string) (model.CatalogueEntry, error)
}

// Engine decides whether a caller may proceed, composing the role check and
// the resource-policy check. Both are independent; the pipeline requires both
// to pass.
type Engine struct {
	catalogue CatalogueGetter
}

func NewEngine(catalogue CatalogueGetter) *Engine {
	return &Engine{catalogue: catalogue}
}

// HasRole is a pure membership test of the claims' role against the
// endpoint's declared role set. No I/O, no caching.
func (e *Engine) HasRole(claims *model.Claims, allowed ...model.Role) bool {
	for _, role := range allowed {
		if claims.Role == role {
			return true
		}
	}
	return false
}

// AuthorizeResource checks the credential's scope against the resource's
// access policy. OPEN resources are public regardless of scope; SECURE
// resources require the credential's scope id to match the resource exactly.
// An unknown resource fails closed: granting access to something the
// catalogue does not recognize is unsafe.
func (e *Engine) AuthorizeResource(ctx context.Context, claims *model.Claims, resourceID string) (model.CatalogueEntry, *dx_errors.AdmissionError) {
	entry, err := e.catalogue.Get(ctx, resourceID)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return model.CatalogueEntry{}, dx_errors.ResourceNotFound(
				fmt.Sprintf("resource %q not known to the catalogue", resourceID))
		}
		return model.CatalogueEntry{}, dx_errors.UpstreamUnavailable("catalogue lookup failed", err)
	}

	if entry.Open() {
		return entry, nil
	}
	if claims.ScopeID() != resourceID {
		return model.CatalogueEntry{}, dx_errors.UnauthorizedResource(
			fmt.Sprintf("credential is not scoped to resource %q", resourceID))
	}
	return entry, nil
}

// AuthorizeOwnership validates that the acting subject may mutate a
// provider-owned resource: a provider owning it, a delegate whose delegating
// owner owns it, or an admin. Everything else fails closed.
func (e *Engine) AuthorizeOwnership(claims *model.Claims, entry model.CatalogueEntry) *dx_errors.AdmissionError {
	switch claims.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleProvider:
		if claims.Subject == entry.ProviderID {
			return nil
		}
	case model.RoleDelegate:
		if claims.DelegatedFor == entry.ProviderID {
			return nil
		}
	}
	return dx_errors.UnauthorizedResource(
		fmt.Sprintf("subject is not the owning provider of resource %q", entry.ID))
}
