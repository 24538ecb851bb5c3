package dto

import (
	"time"

	"donation_backend/internal/models"
)

// ---------------- Requests ----------------

type DonationDetailsRequest struct {
	Title             string          `json:"title" validate:"required,max=200"`
	Description       string          `json:"description" validate:"omitempty,max=5000"`
	Category          models.Category `json:"category" validate:"required,is-category"`
	Quantity          int             `json:"quantity" validate:"omitempty,min=1"`
	Amount            float64         `json:"amount" validate:"omitempty,gt=0"`
	Unit              string          `json:"unit" validate:"omitempty,max=32"`
	PickupLocation    string          `json:"pickup_location" validate:"omitempty,max=500"`
	PickupWindowStart *time.Time      `json:"pickup_window_start"`
	PickupWindowEnd   *time.Time      `json:"pickup_window_end" validate:"omitempty,gtfield=PickupWindowStart"`
	BankName          string          `json:"bank_name" validate:"omitempty,max=100"`
	AccountNumber     string          `json:"account_number" validate:"omitempty,max=64"`
	AccountHolder     string          `json:"account_holder" validate:"omitempty,max=200"`
	QRCodeURL         string          `json:"qr_code_url" validate:"omitempty,url"`
}

func (r *DonationDetailsRequest) ToModel() models.DonationDetails {
	return models.DonationDetails{
		Title:             r.Title,
		Description:       r.Description,
		Category:          r.Category,
		Quantity:          r.Quantity,
		Amount:            r.Amount,
		Unit:              r.Unit,
		PickupLocation:    r.PickupLocation,
		PickupWindowStart: r.PickupWindowStart,
		PickupWindowEnd:   r.PickupWindowEnd,
		BankName:          r.BankName,
		AccountNumber:     r.AccountNumber,
		AccountHolder:     r.AccountHolder,
		QRCodeURL:         r.QRCodeURL,
	}
}

type UpdateOfferStatusRequest struct {
	Status models.OfferStatus `json:"status" validate:"required,is-offer-status"`
}

type DonationListQuery struct {
	PaginationQuery
	OrganizationID string          `form:"organization_id" validate:"omitempty,uuid"`
	Status         string          `form:"status" validate:"omitempty,max=20"`
	Category       models.Category `form:"category" validate:"omitempty,is-category"`
}

// ---------------- Responses ----------------

type DonationResponse struct {
	ID                string          `json:"id"`
	Kind              string          `json:"kind"`
	OrganizationID    string          `json:"organization_id"`
	Title             string          `json:"title"`
	Description       string          `json:"description,omitempty"`
	Category          models.Category `json:"category"`
	Quantity          int             `json:"quantity,omitempty"`
	Amount            float64         `json:"amount,omitempty"`
	Unit              string          `json:"unit,omitempty"`
	PickupLocation    string          `json:"pickup_location,omitempty"`
	PickupWindowStart *time.Time      `json:"pickup_window_start,omitempty"`
	PickupWindowEnd   *time.Time      `json:"pickup_window_end,omitempty"`
	BankName          string          `json:"bank_name,omitempty"`
	AccountNumber     string          `json:"account_number,omitempty"`
	AccountHolder     string          `json:"account_holder,omitempty"`
	QRCodeURL         string          `json:"qr_code_url,omitempty"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type DonationListResponse struct {
	Items []*DonationResponse `json:"items"`
	ListMeta
}

func newDonationResponse(id, kind, orgID, status string, d models.DonationDetails, created, updated time.Time) *DonationResponse {
	return &DonationResponse{
		ID:                id,
		Kind:              kind,
		OrganizationID:    orgID,
		Title:             d.Title,
		Description:       d.Description,
		Category:          d.Category,
		Quantity:          d.Quantity,
		Amount:            d.Amount,
		Unit:              d.Unit,
		PickupLocation:    d.PickupLocation,
		PickupWindowStart: d.PickupWindowStart,
		PickupWindowEnd:   d.PickupWindowEnd,
		BankName:          d.BankName,
		AccountNumber:     d.AccountNumber,
		AccountHolder:     d.AccountHolder,
		QRCodeURL:         d.QRCodeURL,
		Status:            status,
		CreatedAt:         created,
		UpdatedAt:         updated,
	}
}

func NewOfferResponse(o *models.DonationOffer) *DonationResponse {
	return newDonationResponse(o.ID, string(models.ParentOffer), o.OrganizationID, string(o.Status), o.DonationDetails, o.CreatedAt, o.UpdatedAt)
}

func NewRequestResponse(r *models.DonationRequest) *DonationResponse {
	return newDonationResponse(r.ID, string(models.ParentRequest), r.OrganizationID, string(r.Status), r.DonationDetails, r.CreatedAt, r.UpdatedAt)
}
