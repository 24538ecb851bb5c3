package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"donation_backend/internal/models"
	"donation_backend/internal/repositories"
	"donation_backend/internal/storage"
	"donation_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const defaultSubmissionLockTTL = 30 * time.Second

// IdempotencyGuard - донор может сделать взнос по предложению/запросу только один раз,
// независимо от исхода предыдущего взноса.
type IdempotencyGuard struct {
	contributions repositories.ContributionRepository
	payments      repositories.PaymentRepository
	locker        storage.SubmissionLocker
	lockTTL       time.Duration
}

func NewIdempotencyGuard(
	contributions repositories.ContributionRepository,
	payments repositories.PaymentRepository,
	locker storage.SubmissionLocker,
	lockTTL time.Duration,
) *IdempotencyGuard {
	if locker == nil {
		locker = storage.NoopLocker{}
	}
	if lockTTL <= 0 {
		lockTTL = defaultSubmissionLockTTL
	}
	return &IdempotencyGuard{
		contributions: contributions,
		payments:      payments,
		locker:        locker,
		lockTTL:       lockTTL,
	}
}

func submissionKey(donorID string, parent models.ParentRef) string {
	return fmt.Sprintf("submit:%s:%s:%s", donorID, parent.Kind, parent.ID)
}

// Acquire отсекает параллельный повторный submit до начала транзакции
func (g *IdempotencyGuard) Acquire(ctx context.Context, donorID string, parent models.ParentRef) (func(), error) {
	release, err := g.locker.Acquire(ctx, submissionKey(donorID, parent), g.lockTTL)
	if errors.Is(err, storage.ErrLockHeld) {
		return nil, apperrors.ErrDuplicate(domainContribution, "submission is already in progress")
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return release, nil
}

// EnsureFirst проверяет взносы и платежи донора в той же транзакции, что и вставка
func (g *IdempotencyGuard) EnsureFirst(tx *gorm.DB, donorID string, parent models.ParentRef) error {
	exists, err := g.contributions.ExistsForDonor(tx, donorID, parent)
	if err != nil {
		return err
	}
	if !exists {
		exists, err = g.payments.ExistsForDonor(tx, donorID, parent)
		if err != nil {
			return err
		}
	}
	if exists {
		return apperrors.ErrDuplicate(domainContribution, fmt.Sprintf("donor already contributed to this %s", parent.Kind))
	}
	return nil
}
