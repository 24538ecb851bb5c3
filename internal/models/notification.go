package models

import (
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	BaseModel
	UserID            string   `gorm:"type:uuid;not null;index"`
	UserType          UserType `gorm:"type:varchar(20);not null"`
	Type              string   `gorm:"not null"` // "contribution_submitted", "payment_verified", ...
	Title             string   `gorm:"not null"`
	Message           string
	RelatedEntityType string         `gorm:"type:varchar(32)"`
	RelatedEntityID   *string        `gorm:"type:uuid"`
	Data              datatypes.JSON `gorm:"type:jsonb"`
	IsRead            bool           `gorm:"default:false;index"`
	ReadAt            *time.Time
}

// Типы уведомлений
const (
	NotificationContributionSubmitted = "contribution_submitted"
	NotificationContributionReceived  = "contribution_received"
	NotificationContributionStatus    = "contribution_status"
	NotificationPickupRescheduled     = "pickup_rescheduled"
	NotificationPickupStatus          = "pickup_status"
	NotificationPaymentVerified       = "payment_verified"
	NotificationOrganizationVerified  = "organization_verification"
	NotificationAccountBlocked        = "account_blocked"
	NotificationProfileChange         = "profile_change"
	NotificationDonationPublished     = "donation_published"
	NotificationDonationStatus        = "donation_status"
)
