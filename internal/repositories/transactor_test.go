package repositories

import (
	"errors"
	"fmt"
	"testing"

	"donation_backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("connection reset")))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
}

func TestTranslateCreateError(t *testing.T) {
	assert.ErrorIs(t, translateCreateError(&pgconn.PgError{Code: "23505"}), ErrDuplicate)

	other := errors.New("timeout")
	assert.Equal(t, other, translateCreateError(other))
	assert.NoError(t, translateCreateError(nil))
}

func TestParentColumn(t *testing.T) {
	assert.Equal(t, "offer_id", parentColumn(models.ParentRef{Kind: models.ParentOffer, ID: "o"}))
	assert.Equal(t, "request_id", parentColumn(models.ParentRef{Kind: models.ParentRequest, ID: "r"}))
}
