package models

import (
	"strings"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/pkg/validation"
)

type DocumentType string

const (
	DocumentPassport             DocumentType = "passport"
	DocumentNationalID           DocumentType = "national_id"
	DocumentDriversLicense       DocumentType = "drivers_license"
	DocumentBusinessRegistration DocumentType = "business_registration"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// VerificationRequest is an identity check. DocumentNumber is encrypted in
// the database and masked in every API response.
type VerificationRequest struct {
	ID             string             `json:"id"`
	UserID         string             `json:"user_id"`
	EntityID       *string            `json:"entity_id"`
	FullName       string             `json:"full_name"`
	DocumentType   DocumentType       `json:"document_type"`
	DocumentNumber string             `json:"document_number"`
	DocumentURL    string             `json:"document_url"`
	Status         VerificationStatus `json:"status"`
	ReviewNote     *string            `json:"review_note"`
	ReviewedBy     *string            `json:"reviewed_by"`
	CreatedAt      time.Time          `json:"created_at"`
	ReviewedAt     *time.Time         `json:"reviewed_at"`
	User           *Author            `json:"user,omitempty"`
}

// SubmitVerificationRequest holds the text fields of the multipart form.
type SubmitVerificationRequest struct {
	EntityID       string       `json:"entity_id" validate:"max=64"`
	FullName       string       `json:"full_name" validate:"required,min=2,max=120"`
	DocumentType   DocumentType `json:"document_type" validate:"required,oneof=passport national_id drivers_license business_registration"`
	DocumentNumber string       `json:"document_number" validate:"required,min=4,max=64"`
}

func (r *SubmitVerificationRequest) Validate() error {
	r.EntityID = strings.TrimSpace(r.EntityID)
	r.FullName = strings.TrimSpace(r.FullName)
	r.DocumentNumber = strings.TrimSpace(r.DocumentNumber)
	return validation.Struct(r)
}

// ReviewVerificationRequest carries the admin note. Rejections require one.
type ReviewVerificationRequest struct {
	Note string `json:"note" validate:"max=512"`
}

func (r *ReviewVerificationRequest) Validate(requireNote bool) error {
	r.Note = strings.TrimSpace(r.Note)
	if requireNote {
		if err := validation.Var("note", r.Note, "required"); err != nil {
			return err
		}
	}
	return validation.Struct(r)
}

type VerificationListParams struct {
	Status VerificationStatus `json:"status" validate:"omitempty,oneof=pending approved rejected"`
	PageParams
}

func (p *VerificationListParams) Validate() error {
	p.Normalize()
	return validation.Struct(p)
}
