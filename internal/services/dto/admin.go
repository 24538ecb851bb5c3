package dto

import (
	"time"

	"donation_backend/internal/models"
)

type VerifyOrganizationRequest struct {
	Status models.VerificationStatus `json:"status" validate:"required,is-verification-status"`
	Reason string                    `json:"reason" validate:"omitempty,max=1000"`
}

type BlockRequest struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason" validate:"required,max=1000"`
}

type RejectProfileChangeRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// ProfileChangeRequest - поля профиля организации, применяемые после одобрения
type ProfileChangeRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Address      *string `json:"address,omitempty" validate:"omitempty,max=500"`
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone *string `json:"contact_phone,omitempty" validate:"omitempty,max=32"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=5000"`
}

// IsEmpty - не передано ни одного поля
func (r *ProfileChangeRequest) IsEmpty() bool {
	return r.Name == nil && r.Address == nil && r.ContactEmail == nil && r.ContactPhone == nil && r.Description == nil
}

// Apply переносит заданные поля в организацию
func (r *ProfileChangeRequest) Apply(org *models.Organization) {
	if r.Name != nil {
		org.Name = *r.Name
	}
	if r.Address != nil {
		org.Address = *r.Address
	}
	if r.ContactEmail != nil {
		org.ContactEmail = *r.ContactEmail
	}
	if r.ContactPhone != nil {
		org.ContactPhone = *r.ContactPhone
	}
	if r.Description != nil {
		org.Description = *r.Description
	}
}

type OrganizationListQuery struct {
	PaginationQuery
	Status models.VerificationStatus `form:"status" validate:"omitempty,is-verification-status"`
}

type OrganizationResponse struct {
	ID                 string                    `json:"id"`
	UserID             string                    `json:"user_id"`
	Name               string                    `json:"name"`
	Address            string                    `json:"address,omitempty"`
	ContactEmail       string                    `json:"contact_email,omitempty"`
	ContactPhone       string                    `json:"contact_phone,omitempty"`
	Description        string                    `json:"description,omitempty"`
	VerificationStatus models.VerificationStatus `json:"verification_status"`
	RejectionReason    string                    `json:"rejection_reason,omitempty"`
	VerifiedAt         *time.Time                `json:"verified_at,omitempty"`
	IsBlocked          bool                      `json:"is_blocked"`
	BlockReason        string                    `json:"block_reason,omitempty"`
	HasPendingChanges  bool                      `json:"has_pending_changes"`
	ChangesSubmittedAt *time.Time                `json:"changes_submitted_at,omitempty"`
}

type OrganizationListResponse struct {
	Organizations []*OrganizationResponse `json:"organizations"`
	ListMeta
}

type DonorResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	IsBlocked   bool   `json:"is_blocked"`
	BlockReason string `json:"block_reason,omitempty"`
}

func NewOrganizationResponse(o *models.Organization) *OrganizationResponse {
	return &OrganizationResponse{
		ID:                 o.ID,
		UserID:             o.UserID,
		Name:               o.Name,
		Address:            o.Address,
		ContactEmail:       o.ContactEmail,
		ContactPhone:       o.ContactPhone,
		Description:        o.Description,
		VerificationStatus: o.VerificationStatus,
		RejectionReason:    o.RejectionReason,
		VerifiedAt:         o.VerifiedAt,
		IsBlocked:          o.IsBlocked,
		BlockReason:        o.BlockReason,
		HasPendingChanges:  o.HasPendingChanges(),
		ChangesSubmittedAt: o.ChangesSubmittedAt,
	}
}

func NewDonorResponse(d *models.Donor) *DonorResponse {
	return &DonorResponse{
		ID:          d.ID,
		UserID:      d.UserID,
		Name:        d.Name,
		Email:       d.Email,
		IsBlocked:   d.IsBlocked,
		BlockReason: d.BlockReason,
	}
}
