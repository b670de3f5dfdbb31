package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/pkg/logger"
	"github.com/vignesh0909/adbond.net-sub002/pkg/metrics"
	"github.com/vignesh0909/adbond.net-sub002/repository"
	"github.com/vignesh0909/adbond.net-sub002/ws"
)

var adminLog = logger.Component("admin")

// AdminService is the moderation back office. Every method assumes the
// caller already passed the admin middleware.
type AdminService interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)

	ListUsers(ctx context.Context, params *models.UserListParams) (models.Page[models.User], error)
	ChangeRole(ctx context.Context, admin *models.User, userID string, req *models.ChangeRoleRequest) (*models.User, error)
	Ban(ctx context.Context, admin *models.User, userID string, req *models.BanRequest) (*models.Ban, error)
	Unban(ctx context.Context, admin *models.User, userID string) error
	ListBans(ctx context.Context) ([]models.Ban, error)

	PendingEntities(ctx context.Context, page models.PageParams) (models.Page[models.Entity], error)
	ApproveEntity(ctx context.Context, admin *models.User, id string) (*models.Entity, error)
	RejectEntity(ctx context.Context, admin *models.User, id string, req *models.RejectRequest) (*models.Entity, error)

	ReportedReviews(ctx context.Context, page models.PageParams) (models.Page[models.Review], error)
	SetReviewStatus(ctx context.Context, admin *models.User, id string, req *models.ReviewStatusRequest) (*models.Review, error)
}

type adminService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	banRepo     repository.BanRepository
	entityRepo  repository.EntityRepository
	reviewRepo  repository.ReviewRepository
	statsRepo   repository.StatsRepository
	entities    EntityService
	hub         ws.EventPublisher
}

func NewAdminService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	banRepo repository.BanRepository,
	entityRepo repository.EntityRepository,
	reviewRepo repository.ReviewRepository,
	statsRepo repository.StatsRepository,
	entities EntityService,
	hub ws.EventPublisher,
) AdminService {
	return &adminService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		banRepo:     banRepo,
		entityRepo:  entityRepo,
		reviewRepo:  reviewRepo,
		statsRepo:   statsRepo,
		entities:    entities,
		hub:         hub,
	}
}

func (s *adminService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := s.statsRepo.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	stats.OnlineUsers = len(s.hub.GetOnlineUserIDs())
	return stats, nil
}

func (s *adminService) ListUsers(ctx context.Context, params *models.UserListParams) (models.Page[models.User], error) {
	params.Normalize()
	if params.Role != "" && !params.Role.Valid() {
		return models.Page[models.User]{}, fmt.Errorf("%w: unknown role %q", pkg.ErrBadRequest, params.Role)
	}

	users, total, err := s.userRepo.List(ctx, *params)
	if err != nil {
		return models.Page[models.User]{}, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return models.NewPage(users, total, params.PageParams), nil
}

// ChangeRole sets another user's role. Admins cannot change their own role
// so the last admin cannot lock everyone out by accident.
func (s *adminService) ChangeRole(ctx context.Context, admin *models.User, userID string, req *models.ChangeRoleRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if userID == admin.ID {
		return nil, fmt.Errorf("%w: you cannot change your own role", pkg.ErrForbidden)
	}

	if err := s.userRepo.UpdateRole(ctx, userID, req.Role); err != nil {
		return nil, err
	}

	s.record("role_change", admin).Str("user_id", userID).Str("role", string(req.Role)).Msg("role changed")

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// Ban blocks the account, revokes its refresh sessions and closes its live
// connections. Admins cannot be banned; demote them first.
func (s *adminService) Ban(ctx context.Context, admin *models.User, userID string, req *models.BanRequest) (*models.Ban, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if userID == admin.ID {
		return nil, fmt.Errorf("%w: you cannot ban yourself", pkg.ErrForbidden)
	}

	target, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target.IsAdmin() {
		return nil, fmt.Errorf("%w: admins cannot be banned", pkg.ErrForbidden)
	}

	ban := &models.Ban{
		UserID:   userID,
		Username: target.Username,
		Reason:   req.Reason,
		BannedBy: admin.ID,
	}
	if err := s.banRepo.Create(ctx, ban); err != nil {
		return nil, err
	}

	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		adminLog.Error().Err(err).Str("user_id", userID).Msg("failed to revoke sessions of banned user")
	}
	s.hub.DisconnectUser(userID, "banned")

	s.record("ban", admin).Str("user_id", userID).Str("reason", req.Reason).Msg("user banned")
	return ban, nil
}

func (s *adminService) Unban(ctx context.Context, admin *models.User, userID string) error {
	if err := s.banRepo.Delete(ctx, userID); err != nil {
		return err
	}
	s.record("unban", admin).Str("user_id", userID).Msg("user unbanned")
	return nil
}

func (s *adminService) ListBans(ctx context.Context) ([]models.Ban, error) {
	bans, err := s.banRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if bans == nil {
		bans = []models.Ban{}
	}
	return bans, nil
}

func (s *adminService) PendingEntities(ctx context.Context, page models.PageParams) (models.Page[models.Entity], error) {
	page.Normalize()
	params := models.EntityListParams{
		Status:     models.EntityStatusPending,
		Sort:       models.EntitySortNewest,
		PageParams: page,
	}

	items, total, err := s.entityRepo.List(ctx, params)
	if err != nil {
		return models.Page[models.Entity]{}, err
	}
	return models.NewPage(items, total, page), nil
}

func (s *adminService) ApproveEntity(ctx context.Context, admin *models.User, id string) (*models.Entity, error) {
	return s.decideEntity(ctx, admin, id, models.EntityStatusApproved, nil)
}

func (s *adminService) RejectEntity(ctx context.Context, admin *models.User, id string, req *models.RejectRequest) (*models.Entity, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.decideEntity(ctx, admin, id, models.EntityStatusRejected, &req.Reason)
}

func (s *adminService) decideEntity(ctx context.Context, admin *models.User, id string, status models.EntityStatus, reason *string) (*models.Entity, error) {
	if err := s.entityRepo.UpdateStatus(ctx, id, status, reason); err != nil {
		return nil, err
	}

	e, err := s.entityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToUser(e.OwnerID, ws.Event{
		Op: ws.OpEntityStatusUpdate,
		Data: ws.EntityStatusData{
			EntityID: e.ID,
			Name:     e.Name,
			Status:   string(e.Status),
			Reason:   e.RejectionReason,
		},
	})

	s.record("entity_"+actionVerb(status), admin).Str("entity_id", id).Msg("entity " + string(status))
	return e, nil
}

func (s *adminService) ReportedReviews(ctx context.Context, page models.PageParams) (models.Page[models.Review], error) {
	page.Normalize()

	items, total, err := s.reviewRepo.ListReported(ctx, page)
	if err != nil {
		return models.Page[models.Review]{}, err
	}
	for i := range items {
		reports, err := s.reviewRepo.ListReports(ctx, items[i].ID)
		if err != nil {
			return models.Page[models.Review]{}, err
		}
		items[i].Reports = reports
	}
	return models.NewPage(items, total, page), nil
}

func (s *adminService) SetReviewStatus(ctx context.Context, admin *models.User, id string, req *models.ReviewStatusRequest) (*models.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.reviewRepo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, err
	}
	rv, err := s.reviewRepo.GetByID(ctx, id, admin.ID)
	if err != nil {
		return nil, err
	}
	s.entities.InvalidateRating(rv.EntityID)

	action := "review_hide"
	if req.Status == models.ReviewStatusPublished {
		action = "review_publish"
	}
	s.record(action, admin).Str("review_id", id).Msg("review status changed")
	return rv, nil
}

// record counts the moderation action and returns a log event carrying the
// action and the admin.
func (s *adminService) record(action string, admin *models.User) *zerolog.Event {
	metrics.RecordModeration(action)
	return adminLog.Info().Str("action", action).Str("admin_id", admin.ID)
}

func actionVerb(status models.EntityStatus) string {
	if status == models.EntityStatusApproved {
		return "approve"
	}
	return "reject"
}
