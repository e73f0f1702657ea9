package auth_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datakaveri/dx-resource-server-sub002/auth"
	dx_errors "github.com/datakaveri/dx-resource-server-sub002/errors"
	"github.com/datakaveri/dx-resource-server-sub002/model"
)

const audience = "rs.example.org"

func newKeyPair(t *testing.T) (*rsa.PrivateKey, map[string]*rsa.PublicKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key, map[string]*rsa.PublicKey{"k1": &key.PublicKey}
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "k1"
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func baseClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub":  "u1",
		"iss":  "idp.example.org",
		"aud":  audience,
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
		"role": "consumer",
		"iid":  "ri:datakaveri.org/group/resource-1",
		"cons": map[string]interface{}{
			"access": map[string]interface{}{"api": 100, "async": 5000},
		},
	}
}

func TestVerify_ValidTokenMapsClaims(t *testing.T) {
	key, keys := newKeyPair(t)
	verifier := auth.NewVerifier(keys, audience)

	claims, aerr := verifier.Verify("Bearer " + signToken(t, key, baseClaims()))
	require.Nil(t, aerr)

	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "idp.example.org", claims.Issuer)
	assert.Equal(t, model.RoleConsumer, claims.Role)
	assert.Equal(t, "ri:datakaveri.org/group/resource-1", claims.ResourceScope)
	assert.Equal(t, "datakaveri.org/group/resource-1", claims.ScopeID())
	assert.False(t, claims.SelfIssued())

	limit, ok := claims.Limit(model.AccessClassAPI)
	require.True(t, ok)
	assert.EqualValues(t, 100, limit)
	limit, ok = claims.Limit(model.AccessClassAsync)
	require.True(t, ok)
	assert.EqualValues(t, 5000, limit)
}

func TestVerify_DelegateClaims(t *testing.T) {
	key, keys := newKeyPair(t)
	verifier := auth.NewVerifier(keys, audience)

	raw := baseClaims()
	raw["role"] = "delegate"
	raw["did"] = "provider-7"
	raw["drl"] = "provider"

	claims, aerr := verifier.Verify(signToken(t, key, raw))
	require.Nil(t, aerr)
	assert.Equal(t, model.RoleDelegate, claims.Role)
	assert.Equal(t, "provider-7", claims.DelegatedFor)
	assert.Equal(t, model.RoleProvider, claims.DelegateRole)
}

func TestVerify_Rejections(t *testing.T) {
	key, keys := newKeyPair(t)
	verifier := auth.NewVerifier(keys, audience)

	t.Run("EmptyToken", func(t *testing.T) {
		_, aerr := verifier.Verify("")
		require.NotNil(t, aerr)
		assert.Equal(t, dx_errors.KindInvalidToken, aerr.Kind)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		raw := baseClaims()
		raw["exp"] = time.Now().Add(-time.Hour).Unix()
		_, aerr := verifier.Verify(signToken(t, key, raw))
		require.NotNil(t, aerr)
		assert.Equal(t, dx_errors.KindInvalidToken, aerr.Kind)
	})

	t.Run("WrongAudience", func(t *testing.T) {
		raw := baseClaims()
		raw["aud"] = "some-other-server"
		_, aerr := verifier.Verify(signToken(t, key, raw))
		require.NotNil(t, aerr)
		assert.Equal(t, dx_errors.KindInvalidToken, aerr.Kind)
	})

	t.Run("WrongSigningMethod", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, baseClaims())
		signed, err := token.SignedString([]byte("shared-secret"))
		require.NoError(t, err)
		_, aerr := verifier.Verify(signed)
		require.NotNil(t, aerr)
		assert.Equal(t, dx_errors.KindInvalidToken, aerr.Kind)
	})

	t.Run("UnknownKeyID", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodRS256, baseClaims())
		token.Header["kid"] = "rotated-away"
		signed, err := token.SignedString(key)
		require.NoError(t, err)
		_, aerr := verifier.Verify(signed)
		require.NotNil(t, aerr)
		assert.Equal(t, dx_errors.KindInvalidToken, aerr.Kind)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		raw := baseClaims()
		raw["role"] = "superuser"
		_, aerr := verifier.Verify(signToken(t, key, raw))
		require.NotNil(t, aerr)
		assert.Equal(t, dx_errors.KindInvalidToken, aerr.Kind)
	})

	t.Run("TamperedSignature", func(t *testing.T) {
		otherKey, _ := newKeyPair(t)
		_, aerr := verifier.Verify(signToken(t, otherKey, baseClaims()))
		require.NotNil(t, aerr)
		assert.Equal(t, dx_errors.KindInvalidToken, aerr.Kind)
	})
}

func TestVerify_ExpiryOverrideForTests(t *testing.T) {
	key, keys := newKeyPair(t)
	verifier := auth.NewVerifier(keys, audience, auth.WithoutExpiryValidation())

	raw := baseClaims()
	raw["exp"] = time.Now().Add(-time.Hour).Unix()
	claims, aerr := verifier.Verify(signToken(t, key, raw))
	require.Nil(t, aerr)
	assert.Equal(t, "u1", claims.Subject)
}
