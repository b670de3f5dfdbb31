package repository

import (
	"context"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/models"
)

// PasswordResetRepository stores hashed password reset tokens.
type PasswordResetRepository interface {
	Create(ctx context.Context, token *models.PasswordResetToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error)
	// GetLatestByUserID backs the request cooldown.
	GetLatestByUserID(ctx context.Context, userID string) (*models.PasswordResetToken, error)
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
