package database

import (
	"fmt"
	"time"

	"donation_backend/internal/logger"
	"donation_backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Options - параметры подключения к Postgres
type Options struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	Debug        bool
}

// Connect открывает GORM поверх pgx и проверяет соединение
func Connect(opts Options) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if opts.Debug {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(opts.DSN), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	return db, nil
}

// Один взнос и один платеж на донора и родителя. Повторная подача отсекается здесь,
// даже если блокировка в Redis недоступна.
var partialUniqueIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_contributions_donor_offer ON contributions (donor_id, offer_id) WHERE offer_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_contributions_donor_request ON contributions (donor_id, request_id) WHERE request_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_payments_donor_offer ON payments (donor_id, offer_id) WHERE offer_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_payments_donor_request ON payments (donor_id, request_id) WHERE request_id IS NOT NULL`,
	// выборка запланированных самовывозов для ConflictScheduler
	`CREATE INDEX IF NOT EXISTS ix_contributions_pickup_window ON contributions (organization_id, pickup_time) WHERE pickup_status = 'SCHEDULED'`,
}

// AutoMigrate выполняет миграцию всех моделей
func AutoMigrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to enable uuid-ossp: %w", err)
	}

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}

	for _, stmt := range partialUniqueIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	logger.Info("AutoMigrate completed", "models", len(models.AllModels()))
	return nil
}
