package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Transactor - единая точка открытия транзакций для сервисов
type Transactor interface {
	// DB возвращает пул соединений, привязанный к ctx (для чтения вне транзакции)
	DB(ctx context.Context) *gorm.DB
	// WithinTx выполняет fn в транзакции read committed; ошибка fn откатывает транзакцию
	WithinTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type GormTransactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

func (t *GormTransactor) DB(ctx context.Context) *gorm.DB {
	return t.db.WithContext(ctx)
}

func (t *GormTransactor) WithinTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// forUpdate блокирует выбранные строки до конца транзакции
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// ErrDuplicate - нарушение уникального ограничения
var ErrDuplicate = errors.New("duplicate record")

const pgUniqueViolation = "23505"

// IsUniqueViolation распознает нарушение уникальности Postgres
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// translateCreateError приводит нарушение уникальности к ErrDuplicate
func translateCreateError(err error) error {
	if IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// Pagination - общие параметры постраничной выдачи
type Pagination struct {
	Page     int
	PageSize int
}

func (p Pagination) apply(db *gorm.DB) *gorm.DB {
	page, size := p.Page, p.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return db.Offset((page - 1) * size).Limit(size)
}
