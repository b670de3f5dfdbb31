package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/pkg/validation"
)

// PayoutModel is how an offer pays its affiliates.
type PayoutModel string

const (
	PayoutCPA      PayoutModel = "CPA"
	PayoutCPL      PayoutModel = "CPL"
	PayoutCPS      PayoutModel = "CPS"
	PayoutCPI      PayoutModel = "CPI"
	PayoutCPC      PayoutModel = "CPC"
	PayoutRevShare PayoutModel = "REVSHARE"
)

// OfferStatus is the lifecycle state of an offer. Owners switch between
// active and paused; the janitor moves active offers to expired.
type OfferStatus string

const (
	OfferStatusActive  OfferStatus = "active"
	OfferStatusPaused  OfferStatus = "paused"
	OfferStatusExpired OfferStatus = "expired"
)

type Offer struct {
	ID             string      `json:"id"`
	EntityID       string      `json:"entity_id"`
	CreatedBy      string      `json:"created_by"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Category       string      `json:"category"`
	PayoutModel    PayoutModel `json:"payout_model"`
	PayoutAmount   float64     `json:"payout_amount"`
	Currency       string      `json:"currency"`
	Geo            []string    `json:"geo"`
	TrafficSources []string    `json:"traffic_sources"`
	LandingURL     *string     `json:"landing_url"`
	Status         OfferStatus `json:"status"`
	ExpiresAt      *time.Time  `json:"expires_at"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`

	EntityName string     `json:"entity_name,omitempty"`
	EntityType EntityType `json:"entity_type,omitempty"`
}

type CreateOfferRequest struct {
	Title          string      `json:"title" validate:"required,min=3,max=200"`
	Description    string      `json:"description" validate:"max=5000"`
	Category       string      `json:"category" validate:"max=60"`
	PayoutModel    PayoutModel `json:"payout_model" validate:"required,oneof=CPA CPL CPS CPI CPC REVSHARE"`
	PayoutAmount   float64     `json:"payout_amount" validate:"gte=0,lte=1000000"`
	Currency       string      `json:"currency" validate:"omitempty,len=3,alpha"`
	Geo            []string    `json:"geo" validate:"max=60,dive,iso3166_1_alpha2"`
	TrafficSources []string    `json:"traffic_sources" validate:"max=20,dive,min=1,max=40"`
	LandingURL     *string     `json:"landing_url" validate:"omitempty,http_url,max=512"`
	ExpiresAt      *time.Time  `json:"expires_at"`
}

func (r *CreateOfferRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	r.PayoutModel = PayoutModel(strings.ToUpper(strings.TrimSpace(string(r.PayoutModel))))
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = "USD"
	}
	r.Geo = NormalizeTags(r.Geo, true)
	r.TrafficSources = NormalizeTags(r.TrafficSources, false)
	r.LandingURL = emptyToNil(trimPtr(r.LandingURL))
	return validation.Struct(r)
}

// UpdateOfferRequest is a partial update.
type UpdateOfferRequest struct {
	Title          *string      `json:"title" validate:"omitempty,min=3,max=200"`
	Description    *string      `json:"description" validate:"omitempty,max=5000"`
	Category       *string      `json:"category" validate:"omitempty,max=60"`
	PayoutModel    *PayoutModel `json:"payout_model" validate:"omitempty,oneof=CPA CPL CPS CPI CPC REVSHARE"`
	PayoutAmount   *float64     `json:"payout_amount" validate:"omitempty,gte=0,lte=1000000"`
	Currency       *string      `json:"currency" validate:"omitempty,len=3,alpha"`
	Geo            *[]string    `json:"geo" validate:"omitempty,max=60,dive,iso3166_1_alpha2"`
	TrafficSources *[]string    `json:"traffic_sources" validate:"omitempty,max=20,dive,min=1,max=40"`
	LandingURL     *string      `json:"landing_url" validate:"-"`
	Status         *OfferStatus `json:"status" validate:"omitempty,oneof=active paused"`
	ExpiresAt      *time.Time   `json:"expires_at"`
}

func (r *UpdateOfferRequest) Validate() error {
	r.Title = trimPtr(r.Title)
	r.Description = trimPtr(r.Description)
	if r.Category != nil {
		v := strings.ToLower(strings.TrimSpace(*r.Category))
		r.Category = &v
	}
	if r.PayoutModel != nil {
		v := PayoutModel(strings.ToUpper(strings.TrimSpace(string(*r.PayoutModel))))
		r.PayoutModel = &v
	}
	r.Currency = upperPtr(r.Currency)
	if r.Geo != nil {
		v := NormalizeTags(*r.Geo, true)
		r.Geo = &v
	}
	if r.TrafficSources != nil {
		v := NormalizeTags(*r.TrafficSources, false)
		r.TrafficSources = &v
	}
	r.LandingURL = trimPtr(r.LandingURL)
	if err := validation.Struct(r); err != nil {
		return err
	}
	if r.LandingURL != nil && *r.LandingURL != "" {
		return validation.Var("landing_url", *r.LandingURL, "http_url,max=512")
	}
	return nil
}

// Apply copies the non-nil fields onto o.
func (r *UpdateOfferRequest) Apply(o *Offer) {
	if r.Title != nil {
		o.Title = *r.Title
	}
	if r.Description != nil {
		o.Description = *r.Description
	}
	if r.Category != nil {
		o.Category = *r.Category
	}
	if r.PayoutModel != nil {
		o.PayoutModel = *r.PayoutModel
	}
	if r.PayoutAmount != nil {
		o.PayoutAmount = *r.PayoutAmount
	}
	if r.Currency != nil {
		o.Currency = *r.Currency
	}
	if r.Geo != nil {
		o.Geo = *r.Geo
	}
	if r.TrafficSources != nil {
		o.TrafficSources = *r.TrafficSources
	}
	if r.LandingURL != nil {
		o.LandingURL = emptyToNil(r.LandingURL)
	}
	if r.Status != nil {
		o.Status = *r.Status
	}
	if r.ExpiresAt != nil {
		t := r.ExpiresAt.UTC()
		o.ExpiresAt = &t
	}
}

// Offer sort values.
const (
	OfferSortNewest     = "newest"
	OfferSortPayoutHigh = "payout_high"
	OfferSortPayoutLow  = "payout_low"
)

// OfferSearchParams filters GET /api/offers.
type OfferSearchParams struct {
	Query       string      `json:"q" validate:"max=100"`
	Category    string      `json:"category" validate:"max=60"`
	PayoutModel PayoutModel `json:"payout_model" validate:"omitempty,oneof=CPA CPL CPS CPI CPC REVSHARE"`
	Geo         string      `json:"geo" validate:"omitempty,iso3166_1_alpha2"`
	MinPayout   *float64    `json:"min_payout" validate:"omitempty,gte=0"`
	MaxPayout   *float64    `json:"max_payout" validate:"omitempty,gte=0"`
	EntityID    string      `json:"entity_id" validate:"max=64"`
	EntityType  EntityType  `json:"entity_type" validate:"omitempty,oneof=advertiser network"`
	Status      OfferStatus `json:"status" validate:"omitempty,oneof=active paused expired"`
	Sort        string      `json:"sort" validate:"omitempty,oneof=newest payout_high payout_low"`
	PageParams
}

func (p *OfferSearchParams) Validate() error {
	p.Query = strings.TrimSpace(p.Query)
	p.Category = strings.ToLower(strings.TrimSpace(p.Category))
	p.PayoutModel = PayoutModel(strings.ToUpper(strings.TrimSpace(string(p.PayoutModel))))
	p.Geo = strings.ToUpper(strings.TrimSpace(p.Geo))
	if p.Status == "" {
		p.Status = OfferStatusActive
	}
	if p.Sort == "" {
		p.Sort = OfferSortNewest
	}
	p.Normalize()
	if err := validation.Struct(p); err != nil {
		return err
	}
	if p.MinPayout != nil && p.MaxPayout != nil && *p.MinPayout > *p.MaxPayout {
		return fmt.Errorf("%w: min_payout must not exceed max_payout", pkg.ErrBadRequest)
	}
	return nil
}
