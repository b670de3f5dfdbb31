package repository

import (
	"context"

	"github.com/vignesh0909/adbond.net-sub002/models"
)

// ReviewRepository stores reviews with their replies, helpful votes and
// reports. viewerID fills Review.Voted; pass "" for anonymous readers.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id, viewerID string) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	UpdateStatus(ctx context.Context, id string, status models.ReviewStatus) error
	Delete(ctx context.Context, id string) error
	ListByEntity(ctx context.Context, entityID string, params models.ReviewListParams) ([]models.Review, int, error)
	ListReported(ctx context.Context, page models.PageParams) ([]models.Review, int, error)
	ListReports(ctx context.Context, reviewID string) ([]models.ReviewReport, error)

	CreateReply(ctx context.Context, reply *models.ReviewReply) error
	GetReply(ctx context.Context, id string) (*models.ReviewReply, error)
	DeleteReply(ctx context.Context, id string) error
	// ListReplies groups the replies of the given reviews by review id, oldest first.
	ListReplies(ctx context.Context, reviewIDs []string) (map[string][]models.ReviewReply, error)

	// ToggleVote adds or removes userID's helpful vote and returns the new state.
	ToggleVote(ctx context.Context, reviewID, userID string) (voted bool, count int, err error)
	CreateReport(ctx context.Context, reviewID, userID, reason string) error
}
