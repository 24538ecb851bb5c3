package dto

import (
	"time"

	"donation_backend/internal/models"
)

// ---------------- Requests ----------------

// SubmitContributionRequest - категория берется из предложения/запроса
type SubmitContributionRequest struct {
	Quantity       int        `json:"quantity" validate:"omitempty,min=1"`
	Amount         float64    `json:"amount" validate:"omitempty,gt=0"`
	PickupTime     *time.Time `json:"pickup_time" validate:"omitempty,future-time"`
	PickupAddress  string     `json:"pickup_address" validate:"omitempty,max=500"`
	ContactPhone   string     `json:"contact_phone" validate:"omitempty,max=32"`
	Notes          string     `json:"notes" validate:"omitempty,max=1000"`
	DonorReference string     `json:"donor_reference" validate:"omitempty,max=128"`
}

type UpdateContributionStatusRequest struct {
	Status models.ContributionStatus `json:"status" validate:"required"`
}

type UpdatePickupTimeRequest struct {
	PickupTime time.Time `json:"pickup_time" validate:"required,future-time"`
}

type UpdatePickupStatusRequest struct {
	PickupStatus models.PickupStatus `json:"pickup_status" validate:"required,is-pickup-status"`
}

type VerifyPaymentRequest struct {
	Status models.PaymentStatus `json:"status" validate:"required,is-payment-status"`
}

type ContributionListQuery struct {
	PaginationQuery
	Status    string `form:"status" validate:"omitempty,is-contribution-status"`
	OfferID   string `form:"offer_id" validate:"omitempty,uuid"`
	RequestID string `form:"request_id" validate:"omitempty,uuid"`
}

// ---------------- Responses ----------------

type PaymentResponse struct {
	ID             string               `json:"id"`
	ContributionID string               `json:"contribution_id"`
	Amount         float64              `json:"amount"`
	TransactionRef string               `json:"transaction_ref"`
	DonorReference string               `json:"donor_reference,omitempty"`
	Status         models.PaymentStatus `json:"status"`
	VerifiedBy     *string              `json:"verified_by,omitempty"`
	VerifierRole   models.ActorRole     `json:"verifier_role,omitempty"`
	VerifiedAt     *time.Time           `json:"verified_at,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

type ContributionResponse struct {
	ID             string                    `json:"id"`
	DonorID        string                    `json:"donor_id"`
	OrganizationID string                    `json:"organization_id"`
	OfferID        *string                   `json:"offer_id,omitempty"`
	RequestID      *string                   `json:"request_id,omitempty"`
	Pipeline       models.Pipeline           `json:"pipeline"`
	Category       models.Category           `json:"category"`
	Quantity       int                       `json:"quantity,omitempty"`
	Amount         float64                   `json:"amount,omitempty"`
	PickupTime     *time.Time                `json:"pickup_time,omitempty"`
	PickupAddress  string                    `json:"pickup_address,omitempty"`
	ContactPhone   string                    `json:"contact_phone,omitempty"`
	PickupStatus   models.PickupStatus       `json:"pickup_status,omitempty"`
	Notes          string                    `json:"notes,omitempty"`
	Status         models.ContributionStatus `json:"status"`
	Payment        *PaymentResponse          `json:"payment,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

type ContributionListResponse struct {
	Contributions []*ContributionResponse `json:"contributions"`
	ListMeta
}

func NewPaymentResponse(p *models.Payment) *PaymentResponse {
	if p == nil {
		return nil
	}
	return &PaymentResponse{
		ID:             p.ID,
		ContributionID: p.ContributionID,
		Amount:         p.Amount,
		TransactionRef: p.TransactionRef,
		DonorReference: p.DonorReference,
		Status:         p.Status,
		VerifiedBy:     p.VerifiedBy,
		VerifierRole:   p.VerifierRole,
		VerifiedAt:     p.VerifiedAt,
		CreatedAt:      p.CreatedAt,
	}
}

func NewContributionResponse(c *models.Contribution) *ContributionResponse {
	return &ContributionResponse{
		ID:             c.ID,
		DonorID:        c.DonorID,
		OrganizationID: c.OrganizationID,
		OfferID:        c.OfferID,
		RequestID:      c.RequestID,
		Pipeline:       c.Pipeline,
		Category:       c.Category,
		Quantity:       c.Quantity,
		Amount:         c.Amount,
		PickupTime:     c.PickupTime,
		PickupAddress:  c.PickupAddress,
		ContactPhone:   c.ContactPhone,
		PickupStatus:   c.PickupStatus,
		Notes:          c.Notes,
		Status:         c.Status,
		Payment:        NewPaymentResponse(c.Payment),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
