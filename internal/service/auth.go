package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"food-storefront/internal/config"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "food-storefront"

var ErrInvalidToken = errors.New("invalid staff token")

type StaffToken struct {
	Token     string
	ExpiresAt time.Time
}

type AuthService interface {
	// Login checks the staff credentials and issues a signed token.
	Login(ctx context.Context, username, password string) (*StaffToken, error)
	// Verify returns the staff username carried by a valid token.
	Verify(raw string) (string, error)
}

type authServiceImpl struct {
	username     string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

func NewAuthService(cfg config.Admin) AuthService {
	return &authServiceImpl{
		username:     cfg.Username,
		passwordHash: []byte(cfg.PasswordHash),
		secret:       []byte(cfg.JWTSecret),
		ttl:          cfg.TokenTTL,
		now:          time.Now,
	}
}

func (s *authServiceImpl) Login(_ context.Context, username, password string) (*StaffToken, error) {
	if len(s.passwordHash) == 0 || len(s.secret) == 0 {
		return nil, ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign staff token: %w", err)
	}

	return &StaffToken{Token: signed, ExpiresAt: expiresAt}, nil
}

func (s *authServiceImpl) Verify(raw string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
