// pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"

	dx_errors "github.com/datakaveri/dx-resource-server-sub002/errors"
	"github.com/datakaveri/dx-resource-server-sub002/model"
)

// Collaborator contracts, satisfied by auth.Verifier, revocation.Registry,
// authz.Engine and quota.Enforcer. Tests substitute fakes.

type TokenVerifier interface {
	Verify(token string) (*model.Claims, *dx_errors.AdmissionError)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, claims *model.Claims) bool
}

type Authorizer interface {
	HasRole(claims *model.Claims, allowed ...model.Role) bool
	AuthorizeResource(ctx context.Context, claims *model.Claims, resourceID string) (model.CatalogueEntry, *dx_errors.AdmissionError)
	AuthorizeOwnership(claims *model.Claims, entry model.CatalogueEntry) *dx_errors.AdmissionError
}

type QuotaChecker interface {
	CheckAndAdmit(ctx context.Context, claims *model.Claims, resourceID string, policy model.AccessPolicy, class model.AccessClass) (*model.QuotaDecision, *dx_errors.AdmissionError)
}

// Endpoint is the admission declaration an API route registers with.
type Endpoint struct {
	AllowedRoles     []model.Role
	AccessClass      model.AccessClass
	RequireOwnership bool
}

// Admission is what a business handler receives once every check has passed.
type Admission struct {
	Claims     *model.Claims
	ResourceID string
	Resource   model.CatalogueEntry
	// Quota is the counter snapshot backing the decision; nil when the quota
	// check was bypassed without a counter-store read.
	Quota *model.QuotaState
}

// Pipeline is the admission-control sequence every inbound request passes
// before its business handler runs. Stages run strictly in order and the
// first rejection short-circuits the rest.
type Pipeline struct {
	verifier    TokenVerifier
	revocations RevocationChecker
	authz       Authorizer
	quota       QuotaChecker
}

func New(verifier TokenVerifier, revocations RevocationChecker, authorizer Authorizer, quota QuotaChecker) *Pipeline {
	return &Pipeline{
		verifier:    verifier,
		revocations: revocations,
		authz:       authorizer,
		quota:       quota,
	}
}

// Admit runs verification, revocation, role, resource-policy, ownership and
// quota checks for one request.
func (p *Pipeline) Admit(ctx context.Context, token, resourceID string, ep Endpoint) (*Admission, *dx_errors.AdmissionError) {
	claims, aerr := p.verifier.Verify(token)
	if aerr != nil {
		return nil, aerr
	}

	if p.revocations.IsRevoked(ctx, claims) {
		return nil, dx_errors.RevokedToken(
			fmt.Sprintf("credentials of subject %q issued before its revocation", claims.Subject))
	}

	if !p.authz.HasRole(claims, ep.AllowedRoles...) {
		return nil, dx_errors.UnauthorizedRole(
			fmt.Sprintf("role %q is not allowed on this endpoint", claims.Role))
	}

	entry, aerr := p.authz.AuthorizeResource(ctx, claims, resourceID)
	if aerr != nil {
		return nil, aerr
	}

	if ep.RequireOwnership {
		if aerr := p.authz.AuthorizeOwnership(claims, entry); aerr != nil {
			return nil, aerr
		}
	}

	decision, aerr := p.quota.CheckAndAdmit(ctx, claims, resourceID, entry.AccessPolicy, ep.AccessClass)
	if aerr != nil {
		return nil, aerr
	}
	if !decision.WithinLimit {
		return nil, dx_errors.QuotaExceeded(describeQuota(decision, ep.AccessClass))
	}

	return &Admission{
		Claims:     claims,
		ResourceID: resourceID,
		Resource:   entry,
		Quota:      decision.Consumed,
	}, nil
}

func describeQuota(decision *model.QuotaDecision, class model.AccessClass) string {
	if decision.Consumed == nil {
		return fmt.Sprintf("usage limit reached for access class %q", class)
	}
	if class == model.AccessClassAsync {
		return fmt.Sprintf("consumed %d of %d bytes in the current window",
			decision.Consumed.ConsumedByteCount, decision.Limit)
	}
	return fmt.Sprintf("consumed %d of %d calls in the current window",
		decision.Consumed.APICallCount, decision.Limit)
}
