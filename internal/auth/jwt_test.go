package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/platform/guard"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func TestGenerateAndVerify(t *testing.T) {
	identity := guard.Identity{ID: 7, Username: "alice", Role: "admin"}

	token, err := GenerateJWT(secret, identity, time.Now(), time.Hour)
	require.NoError(t, err)

	claims, err := VerifyJWT(secret, token)
	require.NoError(t, err)
	assert.Equal(t, identity, claims.Identity())
	assert.Equal(t, "7", claims.Subject)
}

func TestVerifyRejectsExpired(t *testing.T) {
	token, err := GenerateJWT(secret, guard.Identity{ID: 1}, time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)

	_, err = VerifyJWT(secret, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWT(secret, guard.Identity{ID: 1}, time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = VerifyJWT([]byte("another-secret-another-secret!!"), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	claims := SessionClaims{
		UserID: 1,
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = VerifyJWT(secret, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRequiresExpiry(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{UserID: 1}).SignedString(secret)
	require.NoError(t, err)

	_, err = VerifyJWT(secret, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := VerifyJWT(secret, "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
