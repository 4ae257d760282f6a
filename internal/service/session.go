package service

import (
	"context"
	"fmt"
	"food-storefront/internal/model"
	"food-storefront/internal/repository"

	"github.com/google/uuid"
)

type SessionService interface {
	// Resolve returns the session for key, creating one (and a new key) when
	// key is empty or unknown.
	Resolve(ctx context.Context, key, userAgent, ipAddress string) (*model.ClientSession, error)
}

type sessionServiceImpl struct {
	sessionRepo repository.SessionRepository
}

func NewSessionService(sessionRepo repository.SessionRepository) SessionService {
	return &sessionServiceImpl{
		sessionRepo: sessionRepo,
	}
}

func (s *sessionServiceImpl) Resolve(ctx context.Context, key, userAgent, ipAddress string) (*model.ClientSession, error) {
	if _, err := uuid.Parse(key); err != nil {
		key = uuid.NewString()
	}

	session, err := s.sessionRepo.GetOrCreate(ctx, key, userAgent, ipAddress)
	if err != nil {
		return nil, fmt.Errorf("resolve client session: %w", err)
	}
	return session, nil
}
