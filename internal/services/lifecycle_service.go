package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"donation_backend/internal/algorithms"
	"donation_backend/internal/email"
	"donation_backend/internal/models"
	"donation_backend/internal/repositories"
	"donation_backend/internal/services/dto"
	"donation_backend/internal/workers"
	"donation_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LifecycleService interface {
	SubmitContribution(ctx context.Context, actor models.Actor, parent models.ParentRef, req *dto.SubmitContributionRequest) (*dto.ContributionResponse, error)
	TransitionContribution(ctx context.Context, actor models.Actor, contributionID string, status models.ContributionStatus) (*dto.ContributionResponse, error)
	UpdatePickupSchedule(ctx context.Context, actor models.Actor, contributionID string, pickupTime time.Time) (*dto.ContributionResponse, error)
	TransitionPickup(ctx context.Context, actor models.Actor, contributionID string, status models.PickupStatus) (*dto.ContributionResponse, error)
	GetContribution(ctx context.Context, actor models.Actor, contributionID string) (*dto.ContributionResponse, error)
	ListContributions(ctx context.Context, actor models.Actor, query dto.ContributionListQuery) (*dto.ContributionListResponse, error)
}

type lifecycleService struct {
	tx            repositories.Transactor
	contributions repositories.ContributionRepository
	payments      repositories.PaymentRepository
	donations     repositories.DonationRepository
	organizations repositories.OrganizationRepository
	donors        repositories.DonorRepository
	guard         *IdempotencyGuard
	scheduler     *ConflictScheduler
	notifier      notifier
	now           func() time.Time
}

func NewLifecycleService(
	tx repositories.Transactor,
	contributions repositories.ContributionRepository,
	payments repositories.PaymentRepository,
	donations repositories.DonationRepository,
	organizations repositories.OrganizationRepository,
	donors repositories.DonorRepository,
	guard *IdempotencyGuard,
	scheduler *ConflictScheduler,
	dispatcher Dispatcher,
) LifecycleService {
	return &lifecycleService{
		tx:            tx,
		contributions: contributions,
		payments:      payments,
		donations:     donations,
		organizations: organizations,
		donors:        donors,
		guard:         guard,
		scheduler:     scheduler,
		notifier:      notifier{dispatcher: dispatcher},
		now:           time.Now,
	}
}

// ---------------- Parent lookup ----------------

func (s *lifecycleService) loadParent(tx *gorm.DB, ref models.ParentRef, lock bool) (models.Parent, error) {
	switch ref.Kind {
	case models.ParentOffer:
		find := s.donations.FindOfferByID
		if lock {
			find = s.donations.FindOfferByIDForUpdate
		}
		offer, err := find(tx, ref.ID)
		if err != nil {
			return models.Parent{}, err
		}
		parent := offer.AsParent()
		return parent, nil
	case models.ParentRequest:
		find := s.donations.FindRequestByID
		if lock {
			find = s.donations.FindRequestByIDForUpdate
		}
		request, err := find(tx, ref.ID)
		if err != nil {
			return models.Parent{}, err
		}
		return request.AsParent(), nil
	default:
		return models.Parent{}, apperrors.ErrValidation(domainContribution, "unknown parent kind")
	}
}

// ---------------- Submit ----------------

// submission - проверенные данные взноса
type submission struct {
	pickupTime    *time.Time
	pickupAddress string
	contactPhone  string
}

func (s *lifecycleService) validateSubmission(parent models.Parent, donor *models.Donor, req *dto.SubmitContributionRequest) (submission, error) {
	category := parent.Details.Category
	if !category.IsValid() {
		return submission{}, apperrors.ErrValidation(domainContribution, fmt.Sprintf("unsupported category %q", category))
	}

	if category.IsFunds() {
		if req.Amount <= 0 {
			return submission{}, apperrors.ErrValidation(domainContribution, "amount must be greater than zero")
		}
		if !parent.Details.HasPaymentDetails() {
			return submission{}, apperrors.ErrValidation(domainContribution,
				fmt.Sprintf("%s has no payment details configured", parent.Ref.Kind))
		}
		return submission{}, nil
	}

	if req.Quantity <= 0 {
		return submission{}, apperrors.ErrValidation(domainContribution, "quantity must be greater than zero")
	}
	if req.PickupTime == nil {
		return submission{}, apperrors.ErrValidation(domainContribution, "pickup_time is required")
	}
	if !req.PickupTime.After(s.now()) {
		return submission{}, apperrors.ErrValidation(domainContribution, "pickup_time must be in the future")
	}

	// сохранённые у донора адрес и телефон подставляются по умолчанию
	sub := submission{
		pickupTime:    req.PickupTime,
		pickupAddress: strings.TrimSpace(req.PickupAddress),
		contactPhone:  strings.TrimSpace(req.ContactPhone),
	}
	if sub.pickupAddress == "" {
		sub.pickupAddress = donor.PickupAddress
	}
	if sub.contactPhone == "" {
		sub.contactPhone = donor.PickupContact
	}
	if sub.pickupAddress == "" {
		return submission{}, apperrors.ErrValidation(domainContribution, "pickup_address is required")
	}
	if sub.contactPhone == "" {
		return submission{}, apperrors.ErrValidation(domainContribution, "contact_phone is required")
	}
	return sub, nil
}

func (s *lifecycleService) SubmitContribution(ctx context.Context, actor models.Actor, ref models.ParentRef, req *dto.SubmitContributionRequest) (*dto.ContributionResponse, error) {
	if actor.Role != models.RoleDonor {
		return nil, apperrors.ErrForbidden(domainContribution, "only donors can submit contributions")
	}
	if req == nil {
		return nil, apperrors.ErrValidation(domainContribution, "payload is required")
	}

	release, err := s.guard.Acquire(ctx, actor.ID, ref)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		contribution *models.Contribution
		parent       models.Parent
		org          *models.Organization
		donor        *models.Donor
	)

	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		// порядок блокировок: донор -> запись -> организация
		donor, err = s.donors.FindByIDForUpdate(tx, actor.ID)
		if err != nil {
			return err
		}
		if donor.IsBlocked {
			return apperrors.ErrForbidden(domainDonor, "donor account is blocked")
		}

		parent, err = s.loadParent(tx, ref, true)
		if err != nil {
			return err
		}
		if parent.Closed {
			return apperrors.ErrClosedParent(domainContribution, fmt.Sprintf("%s is %s", ref.Kind, parent.Status))
		}

		sub, err := s.validateSubmission(parent, donor, req)
		if err != nil {
			return err
		}

		if err := s.guard.EnsureFirst(tx, donor.ID, ref); err != nil {
			return err
		}

		// блокировка организации сериализует проверку слотов вывоза
		org, err = s.organizations.FindByIDForUpdate(tx, parent.OrganizationID)
		if err != nil {
			return err
		}

		category := parent.Details.Category
		if category.RequiresPickup() {
			if err := s.scheduler.EnsureAvailable(tx, parent.OrganizationID, donor.ID, *sub.pickupTime, ""); err != nil {
				return err
			}
		}

		contribution = &models.Contribution{
			DonorID:        donor.ID,
			OrganizationID: parent.OrganizationID,
			Pipeline:       ref.Kind.Pipeline(),
			Category:       category,
			Notes:          strings.TrimSpace(req.Notes),
			Status:         models.ContributionStatusPending,
		}
		parentID := ref.ID
		if ref.Kind == models.ParentRequest {
			contribution.RequestID = &parentID
		} else {
			contribution.OfferID = &parentID
		}

		if category.RequiresPickup() {
			contribution.Quantity = req.Quantity
			contribution.PickupTime = sub.pickupTime
			contribution.PickupAddress = sub.pickupAddress
			contribution.ContactPhone = sub.contactPhone
			contribution.PickupStatus = models.PickupStatusScheduled
		} else {
			contribution.Amount = req.Amount
		}

		if err := s.contributions.Create(tx, contribution); err != nil {
			return err
		}

		if category.IsFunds() {
			payment := &models.Payment{
				ContributionID: contribution.ID,
				DonorID:        donor.ID,
				OrganizationID: parent.OrganizationID,
				OfferID:        contribution.OfferID,
				RequestID:      contribution.RequestID,
				Amount:         req.Amount,
				TransactionRef: "TXN-" + uuid.NewString(),
				DonorReference: strings.TrimSpace(req.DonorReference),
				Status:         models.PaymentStatusPending,
			}
			if err := s.payments.Create(tx, payment); err != nil {
				return err
			}
			contribution.Payment = payment
		}

		if category.RequiresPickup() && (donor.PickupAddress == "" || donor.PickupContact == "") {
			if donor.PickupAddress == "" {
				donor.PickupAddress = sub.pickupAddress
			}
			if donor.PickupContact == "" {
				donor.PickupContact = sub.contactPhone
			}
			if err := s.donors.Update(tx, donor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.notifySubmitted(ctx, contribution, parent, org, donor)
	return dto.NewContributionResponse(contribution), nil
}

func (s *lifecycleService) notifySubmitted(ctx context.Context, c *models.Contribution, parent models.Parent, org *models.Organization, donor *models.Donor) {
	data := map[string]any{
		"contribution_id": c.ID,
		"parent_kind":     string(parent.Ref.Kind),
		"parent_id":       parent.Ref.ID,
		"category":        string(c.Category),
		"status":          string(c.Status),
	}
	s.notifier.send(ctx,
		workers.NotificationTask{
			Recipients:   []workers.Recipient{{UserID: org.UserID, UserType: models.UserTypeOrganization}},
			NotifyAdmins: true,
			Type:         models.NotificationContributionReceived,
			Title:        "New contribution",
			Message:      fmt.Sprintf("%s submitted a contribution to %q", donor.Name, parent.Details.Title),
			EntityType:   domainContribution,
			EntityID:     c.ID,
			Data:         data,
		},
		workers.NotificationTask{
			Recipients: []workers.Recipient{{UserID: donor.UserID, UserType: models.UserTypeDonor}},
			Type:       models.NotificationContributionSubmitted,
			Title:      "Contribution submitted",
			Message:    fmt.Sprintf("Your contribution to %q was received and is pending review", parent.Details.Title),
			EntityType: domainContribution,
			EntityID:   c.ID,
			Data:       data,
		},
	)
}

// ---------------- Status transitions ----------------

func authorizeMutation(actor models.Actor, c *models.Contribution) error {
	if actor.IsAdmin() || actor.OwnsOrganization(c.OrganizationID) {
		return nil
	}
	return apperrors.ErrForbidden(domainContribution, "only the owning organization or an admin can modify this contribution")
}

func (s *lifecycleService) markChanged(c *models.Contribution, actor models.Actor, status models.ContributionStatus) {
	now := s.now().UTC()
	changedBy := actor.UserID
	c.Status = status
	c.StatusChangedBy = &changedBy
	c.StatusChangedAt = &now
}

func (s *lifecycleService) promote(tx *gorm.DB, c *models.Contribution) error {
	if !algorithms.PromotesOffer(c.Pipeline, c.Status) || c.OfferID == nil {
		return nil
	}
	_, err := s.donations.PromoteOffer(tx, *c.OfferID)
	return err
}

func (s *lifecycleService) TransitionContribution(ctx context.Context, actor models.Actor, contributionID string, status models.ContributionStatus) (*dto.ContributionResponse, error) {
	if actor.Role == models.RoleDonor {
		return nil, apperrors.ErrForbidden(domainContribution, "donors cannot change contribution status")
	}
	if !algorithms.IsKnownContributionStatus(status) {
		return nil, apperrors.ErrValidation(domainContribution, fmt.Sprintf("unknown contribution status %q", status))
	}

	var (
		contribution *models.Contribution
		parent       models.Parent
		donor        *models.Donor
	)

	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		contribution, err = s.contributions.FindByIDForUpdate(tx, contributionID)
		if err != nil {
			return err
		}
		if err := authorizeMutation(actor, contribution); err != nil {
			return err
		}
		if algorithms.IsTerminalContribution(contribution.Pipeline, contribution.Status) {
			return apperrors.ErrTerminalState(domainContribution, fmt.Sprintf("contribution is %s", contribution.Status))
		}
		// денежный вклад решается только проверкой платежа
		if contribution.Category.IsFunds() && contribution.Payment != nil && contribution.Payment.Status == models.PaymentStatusPending {
			return apperrors.ErrConflict(domainContribution, "funds contribution is decided by payment verification")
		}
		if !algorithms.CanTransitionContribution(contribution.Pipeline, contribution.Status, status) {
			return apperrors.ErrIllegalTransition(domainContribution, contribution.Status, status)
		}

		s.markChanged(contribution, actor, status)
		if algorithms.IsNegativeOutcome(status) && contribution.PickupStatus == models.PickupStatusScheduled {
			contribution.PickupStatus = models.PickupStatusCancelled
		}
		if err := s.promote(tx, contribution); err != nil {
			return err
		}
		if err := s.contributions.Update(tx, contribution); err != nil {
			return err
		}

		if parent, err = s.loadParent(tx, contribution.Parent(), false); err != nil {
			return err
		}
		donor, err = s.donors.FindByID(tx, contribution.DonorID)
		return err
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.notifyStatusChanged(ctx, contribution, parent, donor)
	return dto.NewContributionResponse(contribution), nil
}

func (s *lifecycleService) notifyStatusChanged(ctx context.Context, c *models.Contribution, parent models.Parent, donor *models.Donor) {
	msg := email.ContributionDecision(donorEmail(donor), donor.Name, parent.Details.Title, string(c.Status))
	s.notifier.send(ctx, workers.NotificationTask{
		Recipients:   []workers.Recipient{{UserID: donor.UserID, UserType: models.UserTypeDonor}},
		NotifyAdmins: true,
		Type:         models.NotificationContributionStatus,
		Title:        "Contribution status updated",
		Message:      fmt.Sprintf("Your contribution to %q is now %s", parent.Details.Title, c.Status),
		EntityType:   domainContribution,
		EntityID:     c.ID,
		Data: map[string]any{
			"contribution_id": c.ID,
			"status":          string(c.Status),
			"pickup_status":   string(c.PickupStatus),
		},
		Email: &msg,
	})
}

// ---------------- Pickup ----------------

func (s *lifecycleService) UpdatePickupSchedule(ctx context.Context, actor models.Actor, contributionID string, pickupTime time.Time) (*dto.ContributionResponse, error) {
	if actor.Role == models.RoleDonor {
		return nil, apperrors.ErrForbidden(domainPickup, "donors cannot reschedule pickups")
	}
	if !pickupTime.After(s.now()) {
		return nil, apperrors.ErrValidation(domainPickup, "pickup_time must be in the future")
	}

	var (
		contribution *models.Contribution
		donor        *models.Donor
	)

	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		// порядок блокировок: взнос -> донор -> организация
		contribution, err = s.contributions.FindByIDForUpdate(tx, contributionID)
		if err != nil {
			return err
		}
		if err := authorizeMutation(actor, contribution); err != nil {
			return err
		}
		if !contribution.HasPickup() {
			return apperrors.ErrValidation(domainPickup, "contribution has no pickup")
		}
		if contribution.PickupStatus != models.PickupStatusScheduled {
			return apperrors.ErrTerminalState(domainPickup, fmt.Sprintf("pickup is %s", contribution.PickupStatus))
		}
		if algorithms.IsTerminalContribution(contribution.Pipeline, contribution.Status) {
			return apperrors.ErrTerminalState(domainContribution, fmt.Sprintf("contribution is %s", contribution.Status))
		}

		if donor, err = s.donors.FindByIDForUpdate(tx, contribution.DonorID); err != nil {
			return err
		}
		if _, err = s.organizations.FindByIDForUpdate(tx, contribution.OrganizationID); err != nil {
			return err
		}

		if err := s.scheduler.EnsureAvailable(tx, contribution.OrganizationID, contribution.DonorID, pickupTime, contribution.ID); err != nil {
			return err
		}

		at := pickupTime
		contribution.PickupTime = &at
		return s.contributions.Update(tx, contribution)
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.notifier.send(ctx, workers.NotificationTask{
		Recipients: []workers.Recipient{{UserID: donor.UserID, UserType: models.UserTypeDonor}},
		Type:       models.NotificationPickupRescheduled,
		Title:      "Pickup rescheduled",
		Message:    fmt.Sprintf("Your pickup was moved to %s", pickupTime.UTC().Format(time.RFC1123)),
		EntityType: domainContribution,
		EntityID:   contribution.ID,
		Data: map[string]any{
			"contribution_id": contribution.ID,
			"pickup_time":     pickupTime.UTC(),
		},
	})
	return dto.NewContributionResponse(contribution), nil
}

func (s *lifecycleService) TransitionPickup(ctx context.Context, actor models.Actor, contributionID string, status models.PickupStatus) (*dto.ContributionResponse, error) {
	if actor.Role != models.RoleOrganization {
		return nil, apperrors.ErrForbidden(domainPickup, "only the owning organization can update pickup status")
	}
	if !algorithms.CanTransitionPickup(models.PickupStatusScheduled, status) {
		return nil, apperrors.ErrValidation(domainPickup, fmt.Sprintf("pickup status must be %s or %s", models.PickupStatusPickedUp, models.PickupStatusCancelled))
	}

	var (
		contribution *models.Contribution
		parent       models.Parent
		donor        *models.Donor
	)

	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		contribution, err = s.contributions.FindByIDForUpdate(tx, contributionID)
		if err != nil {
			return err
		}
		if !actor.OwnsOrganization(contribution.OrganizationID) {
			return apperrors.ErrForbidden(domainPickup, "only the owning organization can update pickup status")
		}
		if !contribution.HasPickup() {
			return apperrors.ErrValidation(domainPickup, "contribution has no pickup")
		}
		if contribution.PickupStatus != models.PickupStatusScheduled {
			return apperrors.ErrTerminalState(domainPickup, fmt.Sprintf("pickup is %s", contribution.PickupStatus))
		}

		if status == models.PickupStatusPickedUp {
			target := algorithms.CompletionStatus(contribution.Pipeline)
			if contribution.Status != target {
				if !algorithms.CanTransitionContribution(contribution.Pipeline, contribution.Status, target) {
					return apperrors.ErrIllegalTransition(domainContribution, contribution.Status, target)
				}
				s.markChanged(contribution, actor, target)
			}
			if err := s.promote(tx, contribution); err != nil {
				return err
			}
		}

		contribution.PickupStatus = status
		if err := s.contributions.Update(tx, contribution); err != nil {
			return err
		}

		if parent, err = s.loadParent(tx, contribution.Parent(), false); err != nil {
			return err
		}
		donor, err = s.donors.FindByID(tx, contribution.DonorID)
		return err
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.notifier.send(ctx, workers.NotificationTask{
		Recipients:   []workers.Recipient{{UserID: donor.UserID, UserType: models.UserTypeDonor}},
		NotifyAdmins: true,
		Type:         models.NotificationPickupStatus,
		Title:        "Pickup status updated",
		Message:      fmt.Sprintf("Pickup for %q is now %s", parent.Details.Title, status),
		EntityType:   domainContribution,
		EntityID:     contribution.ID,
		Data: map[string]any{
			"contribution_id": contribution.ID,
			"pickup_status":   string(contribution.PickupStatus),
			"status":          string(contribution.Status),
		},
	})
	return dto.NewContributionResponse(contribution), nil
}

// ---------------- Read side ----------------

func (s *lifecycleService) GetContribution(ctx context.Context, actor models.Actor, contributionID string) (*dto.ContributionResponse, error) {
	contribution, err := s.contributions.FindByID(s.tx.DB(ctx), contributionID)
	if err != nil {
		return nil, translateRepoError(err)
	}

	switch {
	case actor.IsAdmin(), actor.OwnsOrganization(contribution.OrganizationID):
	case actor.Role == models.RoleDonor && actor.ID == contribution.DonorID:
	default:
		return nil, apperrors.ErrForbidden(domainContribution, "contribution belongs to another account")
	}
	return dto.NewContributionResponse(contribution), nil
}

func (s *lifecycleService) ListContributions(ctx context.Context, actor models.Actor, query dto.ContributionListQuery) (*dto.ContributionListResponse, error) {
	criteria := repositories.ContributionCriteria{
		OfferID:    query.OfferID,
		RequestID:  query.RequestID,
		Status:     query.Status,
		Pagination: toPagination(query.PaginationQuery),
	}
	switch actor.Role {
	case models.RoleDonor:
		criteria.DonorID = actor.ID
	case models.RoleOrganization:
		criteria.OrganizationID = actor.ID
	case models.RoleAdmin:
	default:
		return nil, apperrors.ErrForbidden(domainContribution, "insufficient permissions")
	}

	contributions, total, err := s.contributions.List(s.tx.DB(ctx), criteria)
	if err != nil {
		return nil, translateRepoError(err)
	}

	items := make([]*dto.ContributionResponse, 0, len(contributions))
	for i := range contributions {
		items = append(items, dto.NewContributionResponse(&contributions[i]))
	}
	return &dto.ContributionListResponse{
		Contributions: items,
		ListMeta:      dto.NewListMeta(total, query.PaginationQuery),
	}, nil
}
