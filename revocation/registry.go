// revocation/registry.go
package revocation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	logger "github.com/datakaveri/dx-resource-server-sub002/logging"
	"github.com/datakaveri/dx-resource-server-sub002/model"
)

// Store is the durable-store slice the registry reads from
// (dao.RevocationDAO satisfies it).
type Store interface {
	FetchAll(ctx context.Context) ([]model.RevocationRecord, error)
	Lookup(ctx context.Context, subject string) (time.Time, bool, error)
}

// Registry tracks the most recent revocation timestamp per subject. The
// local map is rebuilt by a periodic full scan; a subject missing from it
// falls back to one point lookup so a fresh revocation is visible before the
// next refresh. Every store failure on the check path is swallowed as "not
// revoked": a transient store outage must not cascade into rejecting all
// traffic.
type Registry struct {
	store Store

	mu        sync.RWMutex
	revokedAt map[string]time.Time
}

func NewRegistry(store Store) *Registry {
	return &Registry{
		store:     store,
		revokedAt: make(map[string]time.Time),
	}
}

// IsRevoked reports whether the credential was issued before its subject's
// revocation instant. Credentials issued at or after the revocation are
// honored: they were re-issued knowingly. Self-issued credentials cannot be
// revoked through this path.
func (r *Registry) IsRevoked(ctx context.Context, claims *model.Claims) bool {
	if claims.SelfIssued() {
		return false
	}

	revokedAt, ok := r.cached(claims.Subject)
	if !ok {
		var err error
		revokedAt, ok, err = r.store.Lookup(ctx, claims.Subject)
		if err != nil {
			logger.Warn("Revocation lookup failed, treating subject as not revoked",
				zap.String("subject", claims.Subject),
				zap.Error(err))
			return false
		}
		if ok {
			r.remember(claims.Subject, revokedAt)
		}
	}
	if !ok {
		return false
	}

	// Strictly before: a credential issued at the revocation instant is valid.
	return claims.IssuedAt.Before(revokedAt)
}

// RefreshAll replaces the local map with a full scan of the store. On
// failure the previous contents stay in place.
func (r *Registry) RefreshAll(ctx context.Context) error {
	records, err := r.store.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh revocation registry: %w", err)
	}

	revokedAt := make(map[string]time.Time, len(records))
	for _, rec := range records {
		revokedAt[rec.Subject] = rec.RevokedAt
	}

	r.mu.Lock()
	r.revokedAt = revokedAt
	r.mu.Unlock()

	logger.Info("Revocation registry refreshed", zap.Int("subjects", len(records)))
	return nil
}

// Len reports the number of tracked subjects.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.revokedAt)
}

func (r *Registry) cached(subject string) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ts, ok := r.revokedAt[subject]
	return ts, ok
}

func (r *Registry) remember(subject string, revokedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revokedAt[subject] = revokedAt
}
