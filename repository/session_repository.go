package repository

import (
	"context"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/models"
)

// SessionRepository stores refresh-token sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByRefreshToken(ctx context.Context, token string) (*models.Session, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByRefreshToken(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
