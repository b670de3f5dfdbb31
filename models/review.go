package models

import (
	"strings"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/pkg/validation"
)

// ReviewStatus: hidden reviews are only visible to admins.
type ReviewStatus string

const (
	ReviewStatusPublished ReviewStatus = "published"
	ReviewStatusHidden    ReviewStatus = "hidden"
)

// Review of an entity. Voted tells whether the viewer marked it helpful.
type Review struct {
	ID           string        `json:"id"`
	EntityID     string        `json:"entity_id"`
	UserID       string        `json:"user_id"`
	Rating       int           `json:"rating"`
	Title        string        `json:"title"`
	Content      string        `json:"content"`
	Status       ReviewStatus  `json:"status"`
	HelpfulCount int           `json:"helpful_count"`
	ReportCount  int           `json:"report_count"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Author       *Author       `json:"author,omitempty"`
	Replies      []ReviewReply `json:"replies"`
	Voted        bool          `json:"voted"`

	// Reports is only filled for the admin moderation queue.
	Reports []ReviewReport `json:"reports,omitempty"`
}

type ReviewReply struct {
	ID        string    `json:"id"`
	ReviewID  string    `json:"review_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Author    *Author   `json:"author,omitempty"`
}

type ReviewReport struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Title   string `json:"title" validate:"max=120"`
	Content string `json:"content" validate:"required,min=10,max=5000"`
}

func (r *CreateReviewRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Content = strings.TrimSpace(r.Content)
	return validation.Struct(r)
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Title   *string `json:"title" validate:"omitempty,max=120"`
	Content *string `json:"content" validate:"omitempty,min=10,max=5000"`
}

func (r *UpdateReviewRequest) Validate() error {
	r.Title = trimPtr(r.Title)
	r.Content = trimPtr(r.Content)
	return validation.Struct(r)
}

// Apply copies the non-nil fields onto rv.
func (r *UpdateReviewRequest) Apply(rv *Review) {
	if r.Rating != nil {
		rv.Rating = *r.Rating
	}
	if r.Title != nil {
		rv.Title = *r.Title
	}
	if r.Content != nil {
		rv.Content = *r.Content
	}
}

type CreateReplyRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

func (r *CreateReplyRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	return validation.Struct(r)
}

type ReportReviewRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=512"`
}

func (r *ReportReviewRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	return validation.Struct(r)
}

type ReviewStatusRequest struct {
	Status ReviewStatus `json:"status" validate:"required,oneof=published hidden"`
}

func (r *ReviewStatusRequest) Validate() error {
	return validation.Struct(r)
}

// HelpfulResult answers the helpful toggle.
type HelpfulResult struct {
	HelpfulCount int  `json:"helpful_count"`
	Voted        bool `json:"voted"`
}

// Review sort values.
const (
	ReviewSortNewest  = "newest"
	ReviewSortHighest = "highest"
	ReviewSortLowest  = "lowest"
	ReviewSortHelpful = "helpful"
)

type ReviewListParams struct {
	Sort string `json:"sort" validate:"omitempty,oneof=newest highest lowest helpful"`
	PageParams

	// Set by the service from the caller.
	IncludeHidden bool   `json:"-"`
	ViewerID      string `json:"-"`
}

func (p *ReviewListParams) Validate() error {
	if p.Sort == "" {
		p.Sort = ReviewSortNewest
	}
	p.Normalize()
	return validation.Struct(p)
}
