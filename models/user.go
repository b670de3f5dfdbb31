// Package models holds the domain types shared by repositories, services
// and handlers, plus the request structs with their validation rules.
package models

import (
	"strings"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/pkg/validation"
)

// Role decides what a user may do on the marketplace.
type Role string

const (
	RoleAffiliate  Role = "affiliate"
	RoleAdvertiser Role = "advertiser"
	RoleNetwork    Role = "network"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAffiliate, RoleAdvertiser, RoleNetwork, RoleAdmin:
		return true
	}
	return false
}

// UserStatus is the presence state driven by the WebSocket hub.
type UserStatus string

const (
	UserStatusOnline  UserStatus = "online"
	UserStatusOffline UserStatus = "offline"
)

// User is an account. PasswordHash never leaves the server.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	DisplayName  *string    `json:"display_name"`
	AvatarURL    *string    `json:"avatar_url"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	IsVerified   bool       `json:"is_verified"`
	Status       UserStatus `json:"status"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsAdmin reports whether u has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Author is the public face of a user embedded in reviews, replies and chat.
type Author struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Role        Role    `json:"role"`
	IsVerified  bool    `json:"is_verified"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=32,username"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	DisplayName string `json:"display_name" validate:"max=64"`
	Role        Role   `json:"role" validate:"omitempty,oneof=affiliate advertiser network"`
}

// Validate trims the input, applies the default role and checks the rules.
func (r *RegisterRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	if r.Role == "" {
		r.Role = RoleAffiliate
	}
	return validation.Struct(r)
}

// LoginRequest accepts either a username or an email as identifier.
// "username" and "email" are accepted as aliases for older clients.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=254"`
	Username   string `json:"username,omitempty" validate:"-"`
	Email      string `json:"email,omitempty" validate:"-"`
	Password   string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	r.Identifier = strings.TrimSpace(r.Identifier)
	if r.Identifier == "" {
		r.Identifier = strings.TrimSpace(r.Username)
	}
	if r.Identifier == "" {
		r.Identifier = strings.TrimSpace(r.Email)
	}
	return validation.Struct(r)
}

// UpdateProfileRequest is a partial update; nil fields are left unchanged.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=64"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,max=512"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r.DisplayName != nil {
		v := strings.TrimSpace(*r.DisplayName)
		r.DisplayName = &v
	}
	return validation.Struct(r)
}

// ChangePasswordRequest is the body of POST /api/users/me/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

func (r *ChangePasswordRequest) Validate() error {
	return validation.Struct(r)
}

// UserListParams filters the admin user list.
type UserListParams struct {
	Query string
	Role  Role
	PageParams
}
