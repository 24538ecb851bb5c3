package models

import "time"

// Contribution - обещание донора по одному предложению или запросу.
// Pipeline задает словарь статусов: approval или direct.
type Contribution struct {
	BaseModel
	DonorID        string   `gorm:"type:uuid;not null;index"`
	OrganizationID string   `gorm:"type:uuid;not null;index"`
	OfferID        *string  `gorm:"type:uuid;index"`
	RequestID      *string  `gorm:"type:uuid;index"`
	Pipeline       Pipeline `gorm:"type:varchar(20);not null"`
	Category       Category `gorm:"type:varchar(32);not null"`

	Quantity int
	Amount   float64 `gorm:"type:numeric(14,2)"`

	PickupTime    *time.Time `gorm:"index"`
	PickupAddress string
	ContactPhone  string
	PickupStatus  PickupStatus `gorm:"type:varchar(20)"` // пусто для денежных взносов
	Notes         string

	Status          ContributionStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	StatusChangedBy *string            `gorm:"type:uuid"`
	StatusChangedAt *time.Time

	Payment *Payment `gorm:"foreignKey:ContributionID"`
}

func (c *Contribution) Parent() ParentRef {
	if c.RequestID != nil {
		return ParentRef{Kind: ParentRequest, ID: *c.RequestID}
	}
	ref := ParentRef{Kind: ParentOffer}
	if c.OfferID != nil {
		ref.ID = *c.OfferID
	}
	return ref
}

// HasPickup - взнос с физическим вывозом
func (c *Contribution) HasPickup() bool {
	return c.PickupStatus != ""
}

type Payment struct {
	BaseModel
	ContributionID string  `gorm:"type:uuid;uniqueIndex;not null"`
	DonorID        string  `gorm:"type:uuid;not null;index"`
	OrganizationID string  `gorm:"type:uuid;not null;index"`
	OfferID        *string `gorm:"type:uuid"`
	RequestID      *string `gorm:"type:uuid"`
	Amount         float64 `gorm:"type:numeric(14,2);not null"`
	TransactionRef string  `gorm:"uniqueIndex;not null"`
	DonorReference string

	Status       PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	VerifiedBy   *string       `gorm:"type:uuid"`
	VerifierRole ActorRole     `gorm:"type:varchar(20)"`
	VerifiedAt   *time.Time
}
