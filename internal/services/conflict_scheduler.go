package services

import (
	"fmt"
	"time"

	"donation_backend/internal/algorithms"
	"donation_backend/internal/repositories"
	"donation_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// ConflictScheduler не допускает двух активных вывозов одной стороны ближе, чем buffer
type ConflictScheduler struct {
	contributions repositories.ContributionRepository
	buffer        time.Duration
}

func NewConflictScheduler(contributions repositories.ContributionRepository, buffer time.Duration) *ConflictScheduler {
	if buffer <= 0 {
		buffer = algorithms.DefaultPickupBuffer
	}
	return &ConflictScheduler{contributions: contributions, buffer: buffer}
}

func (s *ConflictScheduler) Buffer() time.Duration {
	return s.buffer
}

// EnsureAvailable проверяет сначала организацию, затем донора.
// excludeID исключает сам взнос при переносе времени.
func (s *ConflictScheduler) EnsureAvailable(tx *gorm.DB, organizationID, donorID string, at time.Time, excludeID string) error {
	if err := s.checkParty(tx, "organization", repositories.PickupWindowFilter{OrganizationID: organizationID}, at, excludeID); err != nil {
		return err
	}
	return s.checkParty(tx, "donor", repositories.PickupWindowFilter{DonorID: donorID}, at, excludeID)
}

func (s *ConflictScheduler) checkParty(tx *gorm.DB, party string, filter repositories.PickupWindowFilter, at time.Time, excludeID string) error {
	filter.From, filter.To = algorithms.BufferWindow(at, s.buffer)
	filter.ExcludeID = excludeID
	filter.Statuses = algorithms.ActiveContributionStatuses()

	booked, err := s.contributions.FindScheduledPickups(tx, filter)
	if err != nil {
		return err
	}

	times := make([]time.Time, 0, len(booked))
	for _, c := range booked {
		if c.PickupTime != nil {
			times = append(times, *c.PickupTime)
		}
	}

	if hit, ok := algorithms.FindCollision(times, at, s.buffer); ok {
		return apperrors.ErrScheduleCollision(domainPickup,
			fmt.Sprintf("%s already has a pickup at %s", party, hit.UTC().Format(time.RFC3339)))
	}
	return nil
}
