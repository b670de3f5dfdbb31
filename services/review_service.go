package services

import (
	"context"
	"fmt"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/pkg/logger"
	"github.com/vignesh0909/adbond.net-sub002/pkg/metrics"
	"github.com/vignesh0909/adbond.net-sub002/repository"
)

var reviewLog = logger.Component("review")

// ReviewService manages reviews of entities, the replies under them, the
// helpful votes and user reports.
type ReviewService interface {
	Create(ctx context.Context, actor *models.User, entityID string, req *models.CreateReviewRequest) (*models.Review, error)
	ListByEntity(ctx context.Context, actor *models.User, entityID string, params *models.ReviewListParams) (models.Page[models.Review], error)
	Update(ctx context.Context, actor *models.User, id string, req *models.UpdateReviewRequest) (*models.Review, error)
	Delete(ctx context.Context, actor *models.User, id string) error
	Reply(ctx context.Context, actor *models.User, reviewID string, req *models.CreateReplyRequest) (*models.ReviewReply, error)
	DeleteReply(ctx context.Context, actor *models.User, replyID string) error
	ToggleHelpful(ctx context.Context, actor *models.User, reviewID string) (*models.HelpfulResult, error)
	Report(ctx context.Context, actor *models.User, reviewID string, req *models.ReportReviewRequest) error
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	entityRepo repository.EntityRepository
	ratings    EntityService
}

func NewReviewService(reviewRepo repository.ReviewRepository, entityRepo repository.EntityRepository, ratings EntityService) ReviewService {
	return &reviewService{reviewRepo: reviewRepo, entityRepo: entityRepo, ratings: ratings}
}

func (s *reviewService) Create(ctx context.Context, actor *models.User, entityID string, req *models.CreateReviewRequest) (*models.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e, err := s.entityRepo.GetByID(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if !visible(actor, e) {
		return nil, fmt.Errorf("%w: entity not found", pkg.ErrNotFound)
	}
	if e.Status != models.EntityStatusApproved {
		return nil, fmt.Errorf("%w: only approved entities can be reviewed", pkg.ErrForbidden)
	}
	if e.OwnerID == actor.ID {
		return nil, fmt.Errorf("%w: you cannot review your own entity", pkg.ErrForbidden)
	}

	rv := &models.Review{
		EntityID: entityID,
		UserID:   actor.ID,
		Rating:   req.Rating,
		Title:    req.Title,
		Content:  req.Content,
		Status:   models.ReviewStatusPublished,
	}
	if err := s.reviewRepo.Create(ctx, rv); err != nil {
		return nil, err
	}
	s.ratings.InvalidateRating(entityID)

	return s.reviewRepo.GetByID(ctx, rv.ID, actor.ID)
}

func (s *reviewService) ListByEntity(ctx context.Context, actor *models.User, entityID string, params *models.ReviewListParams) (models.Page[models.Review], error) {
	if err := params.Validate(); err != nil {
		return models.Page[models.Review]{}, err
	}

	e, err := s.entityRepo.GetByID(ctx, entityID)
	if err != nil {
		return models.Page[models.Review]{}, err
	}
	if !visible(actor, e) {
		return models.Page[models.Review]{}, fmt.Errorf("%w: entity not found", pkg.ErrNotFound)
	}

	if actor != nil {
		params.ViewerID = actor.ID
		params.IncludeHidden = actor.IsAdmin()
	}

	items, total, err := s.reviewRepo.ListByEntity(ctx, entityID, *params)
	if err != nil {
		return models.Page[models.Review]{}, err
	}
	if err := s.attachReplies(ctx, items); err != nil {
		return models.Page[models.Review]{}, err
	}
	return models.NewPage(items, total, params.PageParams), nil
}

func (s *reviewService) attachReplies(ctx context.Context, reviews []models.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	ids := make([]string, len(reviews))
	for i := range reviews {
		ids[i] = reviews[i].ID
	}

	replies, err := s.reviewRepo.ListReplies(ctx, ids)
	if err != nil {
		return err
	}
	for i := range reviews {
		if r, ok := replies[reviews[i].ID]; ok {
			reviews[i].Replies = r
		}
	}
	return nil
}

func (s *reviewService) Update(ctx context.Context, actor *models.User, id string, req *models.UpdateReviewRequest) (*models.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rv, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if rv.UserID != actor.ID {
		return nil, fmt.Errorf("%w: only the author can edit this review", pkg.ErrForbidden)
	}

	req.Apply(rv)
	if err := s.reviewRepo.Update(ctx, rv); err != nil {
		return nil, err
	}
	s.ratings.InvalidateRating(rv.EntityID)
	return rv, nil
}

func (s *reviewService) Delete(ctx context.Context, actor *models.User, id string) error {
	rv, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if rv.UserID != actor.ID && !actor.IsAdmin() {
		return fmt.Errorf("%w: only the author or an admin can delete this review", pkg.ErrForbidden)
	}

	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.ratings.InvalidateRating(rv.EntityID)

	if rv.UserID != actor.ID {
		metrics.RecordModeration("review_delete")
		reviewLog.Info().Str("review_id", id).Str("admin_id", actor.ID).Msg("review deleted by admin")
	}
	return nil
}

// Reply is open to the entity owner, the review author and admins.
func (s *reviewService) Reply(ctx context.Context, actor *models.User, reviewID string, req *models.CreateReplyRequest) (*models.ReviewReply, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rv, err := s.load(ctx, actor, reviewID)
	if err != nil {
		return nil, err
	}
	e, err := s.entityRepo.GetByID(ctx, rv.EntityID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != e.OwnerID && actor.ID != rv.UserID {
		return nil, fmt.Errorf("%w: only the entity owner, the review author or an admin can reply", pkg.ErrForbidden)
	}

	reply := &models.ReviewReply{ReviewID: reviewID, UserID: actor.ID, Content: req.Content}
	if err := s.reviewRepo.CreateReply(ctx, reply); err != nil {
		return nil, err
	}
	return s.reviewRepo.GetReply(ctx, reply.ID)
}

func (s *reviewService) DeleteReply(ctx context.Context, actor *models.User, replyID string) error {
	reply, err := s.reviewRepo.GetReply(ctx, replyID)
	if err != nil {
		return err
	}
	if reply.UserID != actor.ID && !actor.IsAdmin() {
		return fmt.Errorf("%w: only the author or an admin can delete this reply", pkg.ErrForbidden)
	}
	if err := s.reviewRepo.DeleteReply(ctx, replyID); err != nil {
		return err
	}
	if reply.UserID != actor.ID {
		metrics.RecordModeration("reply_delete")
		reviewLog.Info().Str("reply_id", replyID).Str("admin_id", actor.ID).Msg("reply deleted by admin")
	}
	return nil
}

func (s *reviewService) ToggleHelpful(ctx context.Context, actor *models.User, reviewID string) (*models.HelpfulResult, error) {
	rv, err := s.load(ctx, actor, reviewID)
	if err != nil {
		return nil, err
	}
	if rv.UserID == actor.ID {
		return nil, fmt.Errorf("%w: you cannot vote on your own review", pkg.ErrForbidden)
	}

	voted, count, err := s.reviewRepo.ToggleVote(ctx, reviewID, actor.ID)
	if err != nil {
		return nil, err
	}
	return &models.HelpfulResult{HelpfulCount: count, Voted: voted}, nil
}

func (s *reviewService) Report(ctx context.Context, actor *models.User, reviewID string, req *models.ReportReviewRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	rv, err := s.load(ctx, actor, reviewID)
	if err != nil {
		return err
	}
	if rv.UserID == actor.ID {
		return fmt.Errorf("%w: you cannot report your own review", pkg.ErrForbidden)
	}
	return s.reviewRepo.CreateReport(ctx, reviewID, actor.ID, req.Reason)
}

// load returns a review the actor can see. Hidden reviews are visible to
// their author and admins only.
func (s *reviewService) load(ctx context.Context, actor *models.User, id string) (*models.Review, error) {
	viewer := ""
	if actor != nil {
		viewer = actor.ID
	}
	rv, err := s.reviewRepo.GetByID(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	if rv.Status == models.ReviewStatusHidden && (actor == nil || (!actor.IsAdmin() && actor.ID != rv.UserID)) {
		return nil, fmt.Errorf("%w: review not found", pkg.ErrNotFound)
	}
	return rv, nil
}
