package repository

import (
	"context"

	"github.com/vignesh0909/adbond.net-sub002/models"
)

// VerificationRepository stores identity verification requests. The
// document number is stored exactly as given; encryption happens in the
// service.
type VerificationRepository interface {
	Create(ctx context.Context, req *models.VerificationRequest) error
	GetByID(ctx context.Context, id string) (*models.VerificationRequest, error)
	ListByUser(ctx context.Context, userID string) ([]models.VerificationRequest, error)
	List(ctx context.Context, params models.VerificationListParams) ([]models.VerificationRequest, int, error)
	HasPending(ctx context.Context, userID string) (bool, error)
	CountByStatus(ctx context.Context, status models.VerificationStatus) (int, error)
	// UpdateDecision moves a pending request to approved or rejected.
	// A request that is no longer pending yields ErrAlreadyExists.
	UpdateDecision(ctx context.Context, req *models.VerificationRequest) error
}
