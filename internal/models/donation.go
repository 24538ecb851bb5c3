package models

import "time"

// DonationDetails - общая часть предложения и запроса
type DonationDetails struct {
	Title       string   `gorm:"not null"`
	Description string
	Category    Category `gorm:"type:varchar(32);not null;index"`
	Quantity    int
	Amount      float64 `gorm:"type:numeric(14,2)"`
	Unit        string

	PickupLocation    string
	PickupWindowStart *time.Time
	PickupWindowEnd   *time.Time

	// Реквизиты для денежных пожертвований
	BankName      string
	AccountNumber string
	AccountHolder string
	QRCodeURL     string
}

// HasPaymentDetails - указан банковский счет или QR-код
func (d DonationDetails) HasPaymentDetails() bool {
	return (d.BankName != "" && d.AccountNumber != "") || d.QRCodeURL != ""
}

type DonationOffer struct {
	BaseModel
	OrganizationID  string `gorm:"type:uuid;not null;index"`
	DonationDetails `gorm:"embedded"`
	Status          OfferStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
}

type DonationRequest struct {
	BaseModel
	OrganizationID  string `gorm:"type:uuid;not null;index"`
	DonationDetails `gorm:"embedded"`
	Status          RequestStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
}

// ParentRef - ссылка на предложение или запрос, к которому относится взнос
type ParentRef struct {
	Kind ParentKind
	ID   string
}

// Parent - общий взгляд на предложение/запрос для движка жизненного цикла
type Parent struct {
	Ref            ParentRef
	OrganizationID string
	Details        DonationDetails
	Closed         bool
	Status         string
}

func (o *DonationOffer) AsParent() Parent {
	return Parent{
		Ref:            ParentRef{Kind: ParentOffer, ID: o.ID},
		OrganizationID: o.OrganizationID,
		Details:        o.DonationDetails,
		Closed:         o.Status == OfferStatusCancelled || o.Status == OfferStatusCompleted,
		Status:         string(o.Status),
	}
}

func (r *DonationRequest) AsParent() Parent {
	return Parent{
		Ref:            ParentRef{Kind: ParentRequest, ID: r.ID},
		OrganizationID: r.OrganizationID,
		Details:        r.DonationDetails,
		Closed:         r.Status == RequestStatusClosed,
		Status:         string(r.Status),
	}
}
