package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/vignesh0909/adbond.net-sub002/database"
	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/pkg/crypto"
	"github.com/vignesh0909/adbond.net-sub002/pkg/email"
	"github.com/vignesh0909/adbond.net-sub002/pkg/logger"
	"github.com/vignesh0909/adbond.net-sub002/pkg/metrics"
	"github.com/vignesh0909/adbond.net-sub002/repository"
	"github.com/vignesh0909/adbond.net-sub002/ws"
)

var verificationLog = logger.Component("verification")

// VerificationService handles identity checks. Document numbers are
// encrypted with AES-256-GCM before they reach the database and are only
// ever returned masked.
type VerificationService interface {
	Submit(ctx context.Context, actor *models.User, req *models.SubmitVerificationRequest, file multipart.File, header *multipart.FileHeader) (*models.VerificationRequest, error)
	Mine(ctx context.Context, actor *models.User) ([]models.VerificationRequest, error)
	List(ctx context.Context, params *models.VerificationListParams) (models.Page[models.VerificationRequest], error)
	Approve(ctx context.Context, admin *models.User, id string, req *models.ReviewVerificationRequest) (*models.VerificationRequest, error)
	Reject(ctx context.Context, admin *models.User, id string, req *models.ReviewVerificationRequest) (*models.VerificationRequest, error)
}

type verificationService struct {
	db               *sql.DB
	verificationRepo repository.VerificationRepository
	userRepo         repository.UserRepository
	entityRepo       repository.EntityRepository
	uploads          UploadService
	hub              ws.EventPublisher
	mailer           email.Sender
	encryptionKey    []byte
}

// NewVerificationService builds the service. db is used for the approval
// transaction; mailer may be nil.
func NewVerificationService(
	db *sql.DB,
	verificationRepo repository.VerificationRepository,
	userRepo repository.UserRepository,
	entityRepo repository.EntityRepository,
	uploads UploadService,
	hub ws.EventPublisher,
	mailer email.Sender,
	encryptionKey []byte,
) VerificationService {
	return &verificationService{
		db:               db,
		verificationRepo: verificationRepo,
		userRepo:         userRepo,
		entityRepo:       entityRepo,
		uploads:          uploads,
		hub:              hub,
		mailer:           mailer,
		encryptionKey:    encryptionKey,
	}
}

func (s *verificationService) Submit(ctx context.Context, actor *models.User, req *models.SubmitVerificationRequest, file multipart.File, header *multipart.FileHeader) (*models.VerificationRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, fmt.Errorf("%w: your account is already verified", pkg.ErrAlreadyExists)
	}

	pending, err := s.verificationRepo.HasPending(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("%w: a verification request is already pending", pkg.ErrAlreadyExists)
	}

	var entityID *string
	if req.EntityID != "" {
		e, err := s.entityRepo.GetByID(ctx, req.EntityID)
		if err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				return nil, fmt.Errorf("%w: entity does not exist", pkg.ErrBadRequest)
			}
			return nil, err
		}
		if e.OwnerID != actor.ID {
			return nil, fmt.Errorf("%w: you can only verify your own entity", pkg.ErrForbidden)
		}
		entityID = &e.ID
	}

	sealed, err := crypto.Encrypt(req.DocumentNumber, s.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt document number: %w", err)
	}

	url, err := s.uploads.Save(ctx, file, header)
	if err != nil {
		return nil, err
	}

	v := &models.VerificationRequest{
		UserID:         actor.ID,
		EntityID:       entityID,
		FullName:       req.FullName,
		DocumentType:   req.DocumentType,
		DocumentNumber: sealed,
		DocumentURL:    url,
	}
	if err := s.verificationRepo.Create(ctx, v); err != nil {
		s.uploads.Remove(url)
		return nil, err
	}

	verificationLog.Info().Str("request_id", v.ID).Str("user_id", actor.ID).Msg("verification submitted")

	v.DocumentNumber = crypto.Mask(req.DocumentNumber)
	return v, nil
}

func (s *verificationService) Mine(ctx context.Context, actor *models.User) ([]models.VerificationRequest, error) {
	list, err := s.verificationRepo.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		s.mask(&list[i])
	}
	return list, nil
}

func (s *verificationService) List(ctx context.Context, params *models.VerificationListParams) (models.Page[models.VerificationRequest], error) {
	if err := params.Validate(); err != nil {
		return models.Page[models.VerificationRequest]{}, err
	}

	items, total, err := s.verificationRepo.List(ctx, *params)
	if err != nil {
		return models.Page[models.VerificationRequest]{}, err
	}
	for i := range items {
		s.mask(&items[i])
	}
	return models.NewPage(items, total, params.PageParams), nil
}

// Approve marks the request approved and flags the user, and the linked
// entity if any, as verified. All three writes share one transaction.
func (s *verificationService) Approve(ctx context.Context, admin *models.User, id string, req *models.ReviewVerificationRequest) (*models.VerificationRequest, error) {
	if err := req.Validate(false); err != nil {
		return nil, err
	}

	v, err := s.verificationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	decide(v, admin, models.VerificationApproved, req.Note)

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := repository.NewSQLiteVerificationRepo(tx).UpdateDecision(ctx, v); err != nil {
			return err
		}
		if err := repository.NewSQLiteUserRepo(tx).SetVerified(ctx, v.UserID, true); err != nil {
			return err
		}
		if v.EntityID != nil {
			err := repository.NewSQLiteEntityRepo(tx).SetVerified(ctx, *v.EntityID, true)
			if err != nil && !errors.Is(err, pkg.ErrNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, admin, v, "verification_approve")
	return v, nil
}

func (s *verificationService) Reject(ctx context.Context, admin *models.User, id string, req *models.ReviewVerificationRequest) (*models.VerificationRequest, error) {
	if err := req.Validate(true); err != nil {
		return nil, err
	}

	v, err := s.verificationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	decide(v, admin, models.VerificationRejected, req.Note)

	if err := s.verificationRepo.UpdateDecision(ctx, v); err != nil {
		return nil, err
	}

	s.finish(ctx, admin, v, "verification_reject")
	return v, nil
}

func decide(v *models.VerificationRequest, admin *models.User, status models.VerificationStatus, note string) {
	v.Status = status
	v.ReviewedBy = &admin.ID
	v.ReviewNote = nil
	if note != "" {
		v.ReviewNote = &note
	}
}

// finish records the moderation action and tells the user about the
// decision over the WebSocket and, when configured, by email.
func (s *verificationService) finish(ctx context.Context, admin *models.User, v *models.VerificationRequest, action string) {
	metrics.RecordModeration(action)
	verificationLog.Info().
		Str("request_id", v.ID).
		Str("user_id", v.UserID).
		Str("admin_id", admin.ID).
		Str("status", string(v.Status)).
		Msg("verification decided")

	s.mask(v)

	s.hub.BroadcastToUser(v.UserID, ws.Event{
		Op: ws.OpVerificationUpdate,
		Data: ws.VerificationUpdateData{
			RequestID: v.ID,
			Status:    string(v.Status),
			Note:      v.ReviewNote,
		},
	})

	if s.mailer == nil {
		return
	}
	user, err := s.userRepo.GetByID(ctx, v.UserID)
	if err != nil {
		verificationLog.Error().Err(err).Str("user_id", v.UserID).Msg("failed to load user for verification email")
		return
	}
	note := ""
	if v.ReviewNote != nil {
		note = *v.ReviewNote
	}
	approved := v.Status == models.VerificationApproved
	if err := s.mailer.SendVerificationResult(ctx, user.Email, approved, note); err != nil {
		verificationLog.Error().Err(err).Str("user_id", v.UserID).Msg("failed to send verification email")
	}
}

// mask replaces the stored ciphertext with the masked plaintext. A value
// that cannot be decrypted is fully hidden.
func (s *verificationService) mask(v *models.VerificationRequest) {
	plain, err := crypto.Decrypt(v.DocumentNumber, s.encryptionKey)
	if err != nil {
		verificationLog.Warn().Err(err).Str("request_id", v.ID).Msg("failed to decrypt document number")
		v.DocumentNumber = "********"
		return
	}
	v.DocumentNumber = crypto.Mask(plain)
}
