package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"donation_backend/internal/models"
	"donation_backend/internal/storage"
	"donation_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type heldLocker struct {
	err  error
	keys []string
}

func (l *heldLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return nil, l.err
	}
	return func() {}, nil
}

func TestIdempotencyGuard_Acquire(t *testing.T) {
	store := newMemStore()
	locker := &heldLocker{err: storage.ErrLockHeld}
	guard := NewIdempotencyGuard(memContributions{store}, memPayments{store}, locker, time.Second)

	_, err := guard.Acquire(context.Background(), "donor-1", offerRef("offer-1"))
	requireAppError(t, err, apperrors.CodeConflict, "duplicate: submission is already in progress")
	assert.Equal(t, []string{"submit:donor-1:offer:offer-1"}, locker.keys)

	locker.err = errors.New("boom")
	_, err = guard.Acquire(context.Background(), "donor-1", offerRef("offer-1"))
	requireAppError(t, err, apperrors.CodeInternalError, "")

	locker.err = nil
	release, err := guard.Acquire(context.Background(), "donor-1", requestRef("req-1"))
	require.NoError(t, err)
	release()
}

func TestSubmit_HeldLockRejectsConcurrentSubmission(t *testing.T) {
	store := newMemStore()
	locker := &heldLocker{err: storage.ErrLockHeld}
	container := NewServiceContainer(Dependencies{
		Transactor:    fakeTransactor{},
		Contributions: memContributions{store},
		Payments:      memPayments{store},
		Donations:     memDonations{store},
		Donors:        memDonors{store},
		Organizations: memOrganizations{store},
		Locker:        locker,
	})

	_, err := container.LifecycleService.SubmitContribution(context.Background(), models.Actor{ID: "donor-1", UserID: "user-1", Role: models.RoleDonor}, offerRef("offer-1"), physical(at(10, 0)))
	requireAppError(t, err, apperrors.CodeConflict, "duplicate")
	assert.Empty(t, store.contributions)
}
