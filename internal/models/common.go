package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseModel struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	CreatedAt time.Time `gorm:"default:now()"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// BeforeCreate выдает id заранее, чтобы связанные записи в той же транзакции могли на него ссылаться
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// AllModels - список моделей для AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Organization{},
		&Donor{},
		&BlockHistory{},
		&DonationOffer{},
		&DonationRequest{},
		&Contribution{},
		&Payment{},
		&Notification{},
	}
}
