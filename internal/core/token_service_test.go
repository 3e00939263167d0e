package core

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gadgets-backend-go/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	svc, err := NewTokenService("secret", time.Hour)
	require.NoError(t, err)

	token, err := svc.Issue(models.Identity{Email: "a@x.io", UID: "u1"})
	require.NoError(t, err)

	identity, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", identity.Email)
	assert.Equal(t, "u1", identity.UID)
}

func TestTokenRejections(t *testing.T) {
	svc, err := NewTokenService("secret", time.Hour)
	require.NoError(t, err)
	identity := models.Identity{Email: "a@x.io", UID: "u1"}

	t.Run("expired", func(t *testing.T) {
		issued := time.Now().Add(-2 * time.Hour)
		past := &tokenService{secret: []byte("secret"), ttl: time.Hour, now: func() time.Time { return issued }}
		token, err := past.Issue(identity)
		require.NoError(t, err)

		_, err = svc.Verify(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenService("other", time.Hour)
		require.NoError(t, err)
		token, err := other.Issue(identity)
		require.NoError(t, err)

		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other signing method", func(t *testing.T) {
		claims := AccessClaims{Email: identity.Email, UID: identity.UID, RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Verify("a.b.c")
		assert.ErrorIs(t, err, ErrInvalidToken)
		_, err = svc.Verify("")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	assert.Error(t, err)

	svc, err := NewTokenService("s", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, svc.(*tokenService).ttl)
}
