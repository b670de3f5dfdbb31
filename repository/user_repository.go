package repository

import (
	"context"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/models"
)

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, params models.UserListParams) ([]models.User, int, error)
	Count(ctx context.Context) (int, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateRole(ctx context.Context, userID string, role models.Role) error
	UpdateStatus(ctx context.Context, userID string, status models.UserStatus) error
	SetVerified(ctx context.Context, userID string, verified bool) error
	TouchLogin(ctx context.Context, userID string, at time.Time) error
	// ResetAllStatuses marks everyone offline. Called at startup because no
	// WebSocket connection survives a restart.
	ResetAllStatuses(ctx context.Context) error
}
