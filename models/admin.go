package models

import (
	"strings"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/pkg/validation"
)

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalUsers           int            `json:"total_users"`
	UsersByRole          map[string]int `json:"users_by_role"`
	EntitiesByStatus     map[string]int `json:"entities_by_status"`
	TotalOffers          int            `json:"total_offers"`
	ActiveOffers         int            `json:"active_offers"`
	TotalReviews         int            `json:"total_reviews"`
	FlaggedReviews       int            `json:"flagged_reviews"`
	PendingVerifications int            `json:"pending_verifications"`
	BannedUsers          int            `json:"banned_users"`
	ChatMessages         int            `json:"chat_messages"`
	OnlineUsers          int            `json:"online_users"`
}

// PublicStats is the landing page counter set.
type PublicStats struct {
	TotalUsers    int `json:"total_users"`
	TotalEntities int `json:"total_entities"`
	TotalOffers   int `json:"total_offers"`
	TotalReviews  int `json:"total_reviews"`
}

// Ban of a user account.
type Ban struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Reason    string    `json:"reason"`
	BannedBy  string    `json:"banned_by"`
	CreatedAt time.Time `json:"created_at"`
}

type BanRequest struct {
	Reason string `json:"reason" validate:"max=512"`
}

func (r *BanRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	return validation.Struct(r)
}

type ChangeRoleRequest struct {
	Role Role `json:"role" validate:"required,oneof=affiliate advertiser network admin"`
}

func (r *ChangeRoleRequest) Validate() error {
	return validation.Struct(r)
}
