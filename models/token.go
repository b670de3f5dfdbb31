package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the custom claims of an access token.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair is returned by register, login and refresh. ExpiresAt and
// ExpiresIn describe the access token so the client can refresh in time.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	ExpiresIn    int64     `json:"expires_in"`
	User         *User     `json:"user"`
}

// SessionInfo answers GET /api/auth/session.
type SessionInfo struct {
	User      *User     `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int64     `json:"expires_in"`
}

// RefreshRequest carries a refresh token for refresh and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
