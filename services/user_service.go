package services

import (
	"context"
	"mime/multipart"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/repository"
	"github.com/vignesh0909/adbond.net-sub002/ws"
)

// UserService manages the caller's own profile and presence.
type UserService interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error)
	UploadAvatar(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (*models.User, error)
	// SetPresence persists the status and broadcasts presence_update.
	SetPresence(ctx context.Context, userID string, status models.UserStatus) error
}

type userService struct {
	userRepo repository.UserRepository
	uploads  UploadService
	hub      ws.EventPublisher
}

func NewUserService(userRepo repository.UserRepository, uploads UploadService, hub ws.EventPublisher) UserService {
	return &userService{userRepo: userRepo, uploads: uploads, hub: hub}
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		if *req.DisplayName == "" {
			user.DisplayName = nil
		} else {
			user.DisplayName = req.DisplayName
		}
	}
	if req.AvatarURL != nil {
		if *req.AvatarURL == "" {
			user.AvatarURL = nil
		} else {
			user.AvatarURL = req.AvatarURL
		}
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) UploadAvatar(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.uploads.Save(ctx, file, header)
	if err != nil {
		return nil, err
	}

	old := user.AvatarURL
	user.AvatarURL = &url
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		s.uploads.Remove(url)
		return nil, err
	}
	if old != nil {
		s.uploads.Remove(*old)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *userService) SetPresence(ctx context.Context, userID string, status models.UserStatus) error {
	if err := s.userRepo.UpdateStatus(ctx, userID, status); err != nil {
		return err
	}
	s.hub.BroadcastToAll(ws.Event{
		Op:   ws.OpPresenceUpdate,
		Data: ws.PresenceData{UserID: userID, Status: string(status)},
	})
	return nil
}
