package authz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datakaveri/dx-resource-server-sub002/authz"
	"github.com/datakaveri/dx-resource-server-sub002/cache"
	dx_errors "github.com/datakaveri/dx-resource-server-sub002/errors"
	"github.com/datakaveri/dx-resource-server-sub002/model"
)

type fakeCatalogue struct {
	entries map[string]model.CatalogueEntry
	err     error
}

func (f *fakeCatalogue) Get(_ context.Context, id string) (model.CatalogueEntry, error) {
	if f.err != nil {
		return model.CatalogueEntry{}, f.err
	}
	entry, ok := f.entries[id]
	if !ok {
		return model.CatalogueEntry{}, cache.ErrNotFound
	}
	return entry, nil
}

func consumerClaims(scope string) *model.Claims {
	return &model.Claims{
		Subject:       "u1",
		Issuer:        "idp.example.org",
		Role:          model.RoleConsumer,
		ResourceScope: scope,
	}
}

func TestHasRole(t *testing.T) {
	engine := authz.NewEngine(&fakeCatalogue{})
	claims := consumerClaims("ri:res-1")

	assert.True(t, engine.HasRole(claims, model.RoleConsumer, model.RoleAdmin))
	assert.False(t, engine.HasRole(claims, model.RoleProvider, model.RoleDelegate))
	assert.False(t, engine.HasRole(claims))
}

func TestAuthorizeResource_OpenResource(t *testing.T) {
	engine := authz.NewEngine(&fakeCatalogue{entries: map[string]model.CatalogueEntry{
		"res-1": {ID: "res-1", AccessPolicy: model.AccessPolicyOpen},
	}})

	// A credential scoped to a different resource still reads an OPEN one.
	entry, aerr := engine.AuthorizeResource(context.Background(), consumerClaims("ri:some-other"), "res-1")
	require.Nil(t, aerr)
	assert.Equal(t, "res-1", entry.ID)
}

func TestAuthorizeResource_SecureResource(t *testing.T) {
	engine := authz.NewEngine(&fakeCatalogue{entries: map[string]model.CatalogueEntry{
		"res-1": {ID: "res-1", AccessPolicy: model.AccessPolicySecure},
	}})

	t.Run("ScopeMatches", func(t *testing.T) {
		entry, aerr := engine.AuthorizeResource(context.Background(), consumerClaims("ri:res-1"), "res-1")
		require.Nil(t, aerr)
		assert.Equal(t, "res-1", entry.ID)
	})

	t.Run("ScopeMismatch", func(t *testing.T) {
		_, aerr := engine.AuthorizeResource(context.Background(), consumerClaims("ri:res-2"), "res-1")
		require.NotNil(t, aerr)
		assert.Equal(t, dx_errors.KindUnauthorizedResource, aerr.Kind)
	})
}

func TestAuthorizeResource_UnknownResourceFailsClosed(t *testing.T) {
	engine := authz.NewEngine(&fakeCatalogue{entries: map[string]model.CatalogueEntry{}})

	_, aerr := engine.AuthorizeResource(context.Background(), consumerClaims("ri:ghost"), "ghost")
	require.NotNil(t, aerr)
	assert.Equal(t, dx_errors.KindResourceNotFound, aerr.Kind)
}

func TestAuthorizeResource_CatalogueFailure(t *testing.T) {
	engine := authz.NewEngine(&fakeCatalogue{err: errors.New("connection refused")})

	_, aerr := engine.AuthorizeResource(context.Background(), consumerClaims("ri:res-1"), "res-1")
	require.NotNil(t, aerr)
	assert.Equal(t, dx_errors.KindUpstreamUnavailable, aerr.Kind)
}

func TestAuthorizeOwnership(t *testing.T) {
	engine := authz.NewEngine(&fakeCatalogue{})
	entry := model.CatalogueEntry{ID: "res-1", ProviderID: "provider-7"}

	t.Run("OwningProvider", func(t *testing.T) {
		claims := &model.Claims{Subject: "provider-7", Role: model.RoleProvider}
		assert.Nil(t, engine.AuthorizeOwnership(claims, entry))
	})

	t.Run("ForeignProvider", func(t *testing.T) {
		claims := &model.Claims{Subject: "provider-9", Role: model.RoleProvider}
		aerr := engine.AuthorizeOwnership(claims, entry)
		require.NotNil(t, aerr)
		assert.Equal(t, dx_errors.KindUnauthorizedResource, aerr.Kind)
	})

	t.Run("DelegateOfOwner", func(t *testing.T) {
		claims := &model.Claims{Subject: "u1", Role: model.RoleDelegate, DelegatedFor: "provider-7"}
		assert.Nil(t, engine.AuthorizeOwnership(claims, entry))
	})

	t.Run("DelegateOfAnotherProvider", func(t *testing.T) {
		claims := &model.Claims{Subject: "u1", Role: model.RoleDelegate, DelegatedFor: "provider-9"}
		aerr := engine.AuthorizeOwnership(claims, entry)
		require.NotNil(t, aerr)
		assert.Equal(t, dx_errors.KindUnauthorizedResource, aerr.Kind)
	})

	t.Run("AdminManagesAnyResource", func(t *testing.T) {
		claims := &model.Claims{Subject: "ops", Role: model.RoleAdmin}
		assert.Nil(t, engine.AuthorizeOwnership(claims, entry))
	})

	t.Run("ConsumerNeverOwns", func(t *testing.T) {
		claims := &model.Claims{Subject: "provider-7", Role: model.RoleConsumer}
		aerr := engine.AuthorizeOwnership(claims, entry)
		require.NotNil(t, aerr)
	})
}
