package models

import (
	"math"
	"strings"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/pkg/validation"
)

// EntityType is the kind of company behind a profile.
type EntityType string

const (
	EntityTypeAdvertiser EntityType = "advertiser"
	EntityTypeNetwork    EntityType = "network"
	EntityTypeAffiliate  EntityType = "affiliate"
)

// EntityStatus is the moderation state of a profile.
type EntityStatus string

const (
	EntityStatusPending  EntityStatus = "pending"
	EntityStatusApproved EntityStatus = "approved"
	EntityStatusRejected EntityStatus = "rejected"
)

// Entity is a company profile. AvgRating and ReviewCount are computed from
// published reviews when the entity is read.
type Entity struct {
	ID              string       `json:"id"`
	OwnerID         string       `json:"owner_id"`
	Name            string       `json:"name"`
	Type            EntityType   `json:"type"`
	Description     string       `json:"description"`
	Website         *string      `json:"website"`
	LogoURL         *string      `json:"logo_url"`
	Country         *string      `json:"country"`
	Categories      []string     `json:"categories"`
	ContactEmail    *string      `json:"contact_email"`
	Status          EntityStatus `json:"status"`
	RejectionReason *string      `json:"rejection_reason"`
	IsVerified      bool         `json:"is_verified"`
	AvgRating       float64      `json:"avg_rating"`
	ReviewCount     int          `json:"review_count"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type CreateEntityRequest struct {
	Name         string     `json:"name" validate:"required,min=2,max=100"`
	Type         EntityType `json:"type" validate:"required,oneof=advertiser network affiliate"`
	Description  string     `json:"description" validate:"max=5000"`
	Website      *string    `json:"website" validate:"omitempty,http_url,max=255"`
	Country      *string    `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	Categories   []string   `json:"categories" validate:"max=10,dive,min=1,max=40"`
	ContactEmail *string    `json:"contact_email" validate:"omitempty,email,max=254"`
}

func (r *CreateEntityRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Website = emptyToNil(trimPtr(r.Website))
	r.Country = emptyToNil(upperPtr(r.Country))
	r.ContactEmail = emptyToNil(trimPtr(r.ContactEmail))
	r.Categories = NormalizeTags(r.Categories, false)
	return validation.Struct(r)
}

// UpdateEntityRequest is a partial update. The type of an entity cannot
// change. An empty string clears website, country or contact email.
type UpdateEntityRequest struct {
	Name         *string   `json:"name" validate:"omitempty,min=2,max=100"`
	Description  *string   `json:"description" validate:"omitempty,max=5000"`
	Website      *string   `json:"website" validate:"-"`
	Country      *string   `json:"country" validate:"-"`
	Categories   *[]string `json:"categories" validate:"omitempty,max=10,dive,min=1,max=40"`
	ContactEmail *string   `json:"contact_email" validate:"-"`
}

func (r *UpdateEntityRequest) Validate() error {
	r.Name = trimPtr(r.Name)
	r.Description = trimPtr(r.Description)
	r.Website = trimPtr(r.Website)
	r.Country = upperPtr(r.Country)
	r.ContactEmail = trimPtr(r.ContactEmail)
	if r.Categories != nil {
		tags := NormalizeTags(*r.Categories, false)
		r.Categories = &tags
	}
	if err := validation.Struct(r); err != nil {
		return err
	}

	optional := []struct {
		field string
		value *string
		tag   string
	}{
		{"website", r.Website, "http_url,max=255"},
		{"country", r.Country, "iso3166_1_alpha2"},
		{"contact_email", r.ContactEmail, "email,max=254"},
	}
	for _, o := range optional {
		if o.value == nil || *o.value == "" {
			continue
		}
		if err := validation.Var(o.field, *o.value, o.tag); err != nil {
			return err
		}
	}
	return nil
}

// Apply copies the non-nil fields onto e. An empty string clears an
// optional field.
func (r *UpdateEntityRequest) Apply(e *Entity) {
	if r.Name != nil {
		e.Name = *r.Name
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.Website != nil {
		e.Website = emptyToNil(r.Website)
	}
	if r.Country != nil {
		e.Country = emptyToNil(r.Country)
	}
	if r.Categories != nil {
		e.Categories = *r.Categories
	}
	if r.ContactEmail != nil {
		e.ContactEmail = emptyToNil(r.ContactEmail)
	}
}

// EntitySort values accepted by the public list.
const (
	EntitySortNewest  = "newest"
	EntitySortRating  = "rating"
	EntitySortReviews = "reviews"
	EntitySortName    = "name"
)

// EntityListParams filters GET /api/entities.
type EntityListParams struct {
	Query     string     `json:"q" validate:"max=100"`
	Type      EntityType `json:"type" validate:"omitempty,oneof=advertiser network affiliate"`
	Country   string     `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	Category  string     `json:"category" validate:"max=40"`
	Verified  *bool      `json:"verified"`
	MinRating float64    `json:"min_rating" validate:"gte=0,lte=5"`
	Sort      string     `json:"sort" validate:"omitempty,oneof=newest rating reviews name"`
	// Status is set by the service, never from the query string.
	Status  EntityStatus `json:"-"`
	OwnerID string       `json:"-"`
	PageParams
}

func (p *EntityListParams) Validate() error {
	p.Query = strings.TrimSpace(p.Query)
	p.Country = strings.ToUpper(strings.TrimSpace(p.Country))
	p.Category = strings.ToLower(strings.TrimSpace(p.Category))
	if p.Sort == "" {
		p.Sort = EntitySortNewest
	}
	p.Normalize()
	return validation.Struct(p)
}

// RejectRequest carries the reason of a rejection.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,notblank,max=512"`
}

func (r *RejectRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	return validation.Struct(r)
}

// RatingSummary aggregates the published reviews of an entity.
type RatingSummary struct {
	EntityID     string      `json:"entity_id"`
	AvgRating    float64     `json:"avg_rating"`
	ReviewCount  int         `json:"review_count"`
	Distribution map[int]int `json:"distribution"`
}

// NewRatingSummary derives count and average from one distribution read so
// the three fields always agree. The average is rounded to two decimals like
// the list queries.
func NewRatingSummary(entityID string, dist map[int]int) *RatingSummary {
	sum := &RatingSummary{EntityID: entityID, Distribution: dist}
	total := 0
	for stars, n := range dist {
		sum.ReviewCount += n
		total += stars * n
	}
	if sum.ReviewCount > 0 {
		sum.AvgRating = math.Round(float64(total)/float64(sum.ReviewCount)*100) / 100
	}
	return sum
}

func upperPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*s))
	return &v
}
