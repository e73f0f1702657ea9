// auth/verifier.go
package auth

import (
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	dx_errors "github.com/datakaveri/dx-resource-server-sub002/errors"
	"github.com/datakaveri/dx-resource-server-sub002/model"
)

// tokenClaims is the raw claim shape of an identity-provider credential.
type tokenClaims struct {
	jwt.RegisteredClaims
	IID  string    `json:"iid"`
	Role string    `json:"role"`
	DID  string    `json:"did,omitempty"`
	DRL  string    `json:"drl,omitempty"`
	Cons consClaim `json:"cons"`
}

type consClaim struct {
	Access map[string]int64 `json:"access"`
}

// Verifier checks a bearer credential's signature and expiry against the
// identity provider's key set and maps the verified principal into Claims.
// Failures are client errors and are never retried.
type Verifier struct {
	keys       map[string]*rsa.PublicKey
	audience   string
	skipExpiry bool
}

type VerifierOption func(*Verifier)

// WithoutExpiryValidation disables claim validation so fixed test tokens stay
// usable. Never set in production wiring.
func WithoutExpiryValidation() VerifierOption {
	return func(v *Verifier) { v.skipExpiry = true }
}

func NewVerifier(keys map[string]*rsa.PublicKey, audience string, opts ...VerifierOption) *Verifier {
	v := &Verifier{keys: keys, audience: audience}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify validates the token and returns its decoded claims.
func (v *Verifier) Verify(token string) (*model.Claims, *dx_errors.AdmissionError) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer"))
	if token == "" {
		return nil, dx_errors.InvalidToken("no authorization token provided", nil)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"RS256"})}
	if v.skipExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	} else if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, v.keyFor, opts...)
	if err != nil {
		return nil, dx_errors.InvalidToken("token verification failed", err)
	}

	raw, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, dx_errors.InvalidToken("token claims have unexpected shape", nil)
	}

	role := model.Role(raw.Role)
	switch role {
	case model.RoleConsumer, model.RoleProvider, model.RoleDelegate, model.RoleAdmin:
	default:
		return nil, dx_errors.InvalidToken(fmt.Sprintf("unknown role %q", raw.Role), nil)
	}

	claims := &model.Claims{
		Subject:       raw.Subject,
		Issuer:        raw.Issuer,
		Role:          role,
		ResourceScope: raw.IID,
		DelegatedFor:  raw.DID,
		DelegateRole:  model.Role(raw.DRL),
	}
	if raw.IssuedAt != nil {
		claims.IssuedAt = raw.IssuedAt.Time
	}
	if raw.ExpiresAt != nil {
		claims.ExpiresAt = raw.ExpiresAt.Time
	}
	if len(raw.Cons.Access) > 0 {
		claims.Access = make(map[model.AccessClass]int64, len(raw.Cons.Access))
		for class, limit := range raw.Cons.Access {
			claims.Access[model.AccessClass(class)] = limit
		}
	}
	return claims, nil
}

func (v *Verifier) keyFor(t *jwt.Token) (interface{}, error) {
	if kid, ok := t.Header["kid"].(string); ok && kid != "" {
		key, ok := v.keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return key, nil
	}
	// Single-key deployments omit the kid header.
	if len(v.keys) == 1 {
		for _, key := range v.keys {
			return key, nil
		}
	}
	return nil, fmt.Errorf("token missing key id")
}
