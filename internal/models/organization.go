package models

import (
	"time"

	"gorm.io/datatypes"
)

type Organization struct {
	BaseModel
	UserID       string `gorm:"type:uuid;uniqueIndex;not null"`
	Name         string `gorm:"not null"`
	Address      string
	ContactEmail string
	ContactPhone string
	Description  string

	VerificationStatus VerificationStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	RejectionReason    string
	VerifiedBy         *string `gorm:"type:uuid"`
	VerifiedAt         *time.Time

	IsBlocked   bool `gorm:"default:false"`
	BlockReason string

	// Изменения профиля ждут одобрения администратора
	PendingChanges     datatypes.JSON `gorm:"type:jsonb"`
	ChangesSubmittedAt *time.Time

	User *User `gorm:"foreignKey:UserID"`
}

// CanOperate - организация может входить в систему и публиковать записи
func (o *Organization) CanOperate() bool {
	return o.VerificationStatus == VerificationVerified && !o.IsBlocked
}

func (o *Organization) HasPendingChanges() bool {
	return len(o.PendingChanges) > 0 && string(o.PendingChanges) != "null"
}

type Donor struct {
	BaseModel
	UserID      string `gorm:"type:uuid;uniqueIndex;not null"`
	Name        string `gorm:"not null"`
	Email       string
	Phone       string
	IsBlocked   bool `gorm:"default:false"`
	BlockReason string

	// Заполняются из первого взноса с вывозом
	PickupAddress string
	PickupContact string

	User *User `gorm:"foreignKey:UserID"`
}

// BlockHistory - журнал блокировок организаций и доноров
type BlockHistory struct {
	BaseModel
	SubjectType UserType `gorm:"type:varchar(20);not null;index:idx_block_subject"`
	SubjectID   string   `gorm:"type:uuid;not null;index:idx_block_subject"`
	AdminID     string   `gorm:"type:uuid;not null"`
	Action      string   `gorm:"type:varchar(20);not null"` // block / unblock
	Reason      string   `gorm:"not null"`
}

const (
	BlockActionBlock   = "block"
	BlockActionUnblock = "unblock"
)
