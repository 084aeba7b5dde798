package identity

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "unit-test-secret"

func sign(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod, key any) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestVerifyExtractsIdentity(t *testing.T) {
	verifier := NewTokenVerifier(secret)

	token := sign(t, jwt.MapClaims{"sub": "alice", "writer": true}, jwt.SigningMethodHS256, []byte(secret))

	caller, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", caller.Subject)
	assert.True(t, caller.Has(CapabilityWriter))
	assert.False(t, caller.IsAdmin())
}

func TestVerifyAdminImpliesWriter(t *testing.T) {
	verifier := NewTokenVerifier(secret)

	token := sign(t, jwt.MapClaims{"sub": "root", "admin": true}, jwt.SigningMethodHS256, []byte(secret))

	caller, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.True(t, caller.IsAdmin())
	assert.True(t, caller.Has(CapabilityWriter))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	verifier := NewTokenVerifier(secret)

	token := sign(t, jwt.MapClaims{"sub": "alice"}, jwt.SigningMethodHS256, []byte("other-secret"))

	_, err := verifier.Verify(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	verifier := NewTokenVerifier(secret)

	token := sign(t, jwt.MapClaims{"writer": true}, jwt.SigningMethodHS256, []byte(secret))

	_, err := verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	verifier := NewTokenVerifier(secret)

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "alice"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	verifier := NewTokenVerifier(secret)

	_, err := verifier.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
