package service

import (
	"context"
	"food-storefront/internal/config"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T) *authServiceImpl {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	return NewAuthService(config.Admin{
		Username:     "admin",
		PasswordHash: string(hash),
		JWTSecret:    "test-secret",
		TokenTTL:     time.Hour,
	}).(*authServiceImpl)
}

func TestAuthLoginAndVerify(t *testing.T) {
	auth := newTestAuth(t)

	token, err := auth.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)

	username, err := auth.Verify(token.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", username)
}

func TestAuthRejectsBadCredentials(t *testing.T) {
	auth := newTestAuth(t)

	_, err := auth.Login(context.Background(), "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(context.Background(), "root", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	unconfigured := NewAuthService(config.Admin{Username: "admin"})
	_, err = unconfigured.Login(context.Background(), "admin", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthRejectsBadTokens(t *testing.T) {
	auth := newTestAuth(t)

	token, err := auth.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)

	auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = auth.Verify(token.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	auth.now = time.Now
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = auth.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = auth.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
