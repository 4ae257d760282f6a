package repository

import (
	"context"
	"food-storefront/internal/model"
	"time"

	"gorm.io/gorm"
)

type SessionRepository interface {
	// GetOrCreate finds the session by key, creating it when missing, and
	// refreshes last_activity.
	GetOrCreate(ctx context.Context, sessionKey, userAgent, ipAddress string) (*model.ClientSession, error)
}

type sessionRepoImpl struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepoImpl{
		db: db,
	}
}

func (r *sessionRepoImpl) GetOrCreate(ctx context.Context, sessionKey, userAgent, ipAddress string) (*model.ClientSession, error) {
	if len(userAgent) > 255 {
		userAgent = userAgent[:255]
	}

	now := time.Now()
	var session model.ClientSession
	err := r.db.WithContext(ctx).
		Where(model.ClientSession{SessionKey: sessionKey}).
		Attrs(model.ClientSession{UserAgent: userAgent, IPAddress: ipAddress, LastActivity: now}).
		FirstOrCreate(&session).Error
	if err != nil {
		return nil, err
	}

	if now.Sub(session.LastActivity) > time.Second {
		err = r.db.WithContext(ctx).
			Model(&session).
			Update("last_activity", now).Error
		if err != nil {
			return nil, err
		}
	}

	return &session, nil
}
