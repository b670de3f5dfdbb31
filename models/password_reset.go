package models

import (
	"strings"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/pkg/validation"
)

// PasswordResetToken stores only the SHA-256 hash of the emailed token.
type PasswordResetToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *ForgotPasswordRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return validation.Struct(r)
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

func (r *ResetPasswordRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	return validation.Struct(r)
}
