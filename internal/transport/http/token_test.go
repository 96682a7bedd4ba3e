package httptransport

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medvault/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer([]byte("unit-test-signing-key"))

	token, err := issuer.Issue(42, domain.RoleDoctor, time.Now())
	require.NoError(t, err)

	actor, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), actor.UserID)
	assert.Equal(t, domain.RoleDoctor, actor.Role)
}

func TestTokenExpired(t *testing.T) {
	issuer := NewTokenIssuer([]byte("unit-test-signing-key"))

	token, err := issuer.Issue(42, domain.RoleDoctor, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.Error(t, err)
}

func TestTokenWrongKey(t *testing.T) {
	issuer := NewTokenIssuer([]byte("unit-test-signing-key"))
	other := NewTokenIssuer([]byte("a different key entirely"))

	token, err := other.Issue(42, domain.RoleAdmin, time.Now())
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	issuer := NewTokenIssuer([]byte("unit-test-signing-key"))

	_, err := issuer.Parse("not.a.token")
	assert.Error(t, err)
}

func TestTokenUnknownRoleRejected(t *testing.T) {
	key := []byte("unit-test-signing-key")
	issuer := NewTokenIssuer(key)

	claims := jwt.MapClaims{
		"sub":  "42",
		"role": "janitor",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)

	_, err = issuer.Parse(signed)
	assert.ErrorIs(t, err, domain.ErrPolicy)
}

func TestTokenRejectsUnsignedAlgorithm(t *testing.T) {
	issuer := NewTokenIssuer([]byte("unit-test-signing-key"))

	claims := jwt.MapClaims{
		"sub":  "42",
		"role": "admin",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Parse(unsigned)
	assert.Error(t, err)
}
