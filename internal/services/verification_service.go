package services

import (
	"context"
	"encoding/json"
	"errors"
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

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type VerificationService interface {
	// ResolveActor - граница аутентификации: токен -> профиль актора
	ResolveActor(ctx context.Context, userID string, role models.ActorRole) (models.Actor, error)

	// Organizations
	VerifyOrganization(ctx context.Context, actor models.Actor, organizationID string, status models.VerificationStatus, reason string) (*dto.OrganizationResponse, error)
	ListOrganizations(ctx context.Context, actor models.Actor, query dto.OrganizationListQuery) (*dto.OrganizationListResponse, error)
	GetOrganization(ctx context.Context, actor models.Actor, organizationID string) (*dto.OrganizationResponse, error)
	SetOrganizationBlocked(ctx context.Context, actor models.Actor, organizationID string, blocked bool, reason string) (*dto.OrganizationResponse, error)
	SetDonorBlocked(ctx context.Context, actor models.Actor, donorID string, blocked bool, reason string) (*dto.DonorResponse, error)

	// Payments
	VerifyPayment(ctx context.Context, actor models.Actor, paymentID string, status models.PaymentStatus) (*dto.PaymentResponse, error)

	// Profile changes
	SubmitProfileChange(ctx context.Context, actor models.Actor, req *dto.ProfileChangeRequest) (*dto.OrganizationResponse, error)
	ApproveProfileChange(ctx context.Context, actor models.Actor, organizationID string) (*dto.OrganizationResponse, error)
	RejectProfileChange(ctx context.Context, actor models.Actor, organizationID, reason string) (*dto.OrganizationResponse, error)
}

type verificationService struct {
	tx            repositories.Transactor
	users         repositories.UserRepository
	organizations repositories.OrganizationRepository
	donors        repositories.DonorRepository
	contributions repositories.ContributionRepository
	payments      repositories.PaymentRepository
	donations     repositories.DonationRepository
	notifier      notifier
	now           func() time.Time
}

func NewVerificationService(
	tx repositories.Transactor,
	users repositories.UserRepository,
	organizations repositories.OrganizationRepository,
	donors repositories.DonorRepository,
	contributions repositories.ContributionRepository,
	payments repositories.PaymentRepository,
	donations repositories.DonationRepository,
	dispatcher Dispatcher,
) VerificationService {
	return &verificationService{
		tx:            tx,
		users:         users,
		organizations: organizations,
		donors:        donors,
		contributions: contributions,
		payments:      payments,
		donations:     donations,
		notifier:      notifier{dispatcher: dispatcher},
		now:           time.Now,
	}
}

// EnsureOrganizationCanOperate - организация подтверждена и не заблокирована
func EnsureOrganizationCanOperate(org *models.Organization) error {
	if org.IsBlocked {
		return apperrors.ErrForbidden(domainOrganization, "organization is blocked")
	}
	if org.VerificationStatus != models.VerificationVerified {
		return apperrors.ErrForbidden(domainOrganization, fmt.Sprintf("organization verification is %s", org.VerificationStatus))
	}
	return nil
}

func (s *verificationService) ResolveActor(ctx context.Context, userID string, role models.ActorRole) (models.Actor, error) {
	db := s.tx.DB(ctx)
	switch role {
	case models.RoleAdmin:
		user, err := s.users.FindByID(db, userID)
		if err != nil {
			return models.Actor{}, s.resolveError(err)
		}
		if user.Role != models.RoleAdmin || user.Status != models.UserStatusActive {
			return models.Actor{}, apperrors.ErrForbidden(domainAuth, "admin account is not active")
		}
		return models.Actor{ID: user.ID, UserID: user.ID, Role: models.RoleAdmin}, nil

	case models.RoleOrganization:
		org, err := s.organizations.FindByUserID(db, userID)
		if err != nil {
			return models.Actor{}, s.resolveError(err)
		}
		if err := EnsureOrganizationCanOperate(org); err != nil {
			return models.Actor{}, err
		}
		return models.Actor{ID: org.ID, UserID: userID, Role: models.RoleOrganization}, nil

	case models.RoleDonor:
		donor, err := s.donors.FindByUserID(db, userID)
		if err != nil {
			return models.Actor{}, s.resolveError(err)
		}
		if donor.IsBlocked {
			return models.Actor{}, apperrors.ErrForbidden(domainDonor, "donor account is blocked")
		}
		return models.Actor{ID: donor.ID, UserID: userID, Role: models.RoleDonor}, nil
	}
	return models.Actor{}, apperrors.NewUnauthorizedError("unknown role")
}

// resolveError - отсутствующий профиль означает недействительную сессию
func (s *verificationService) resolveError(err error) error {
	if errors.Is(err, repositories.ErrUserNotFound) ||
		errors.Is(err, repositories.ErrOrganizationNotFound) ||
		errors.Is(err, repositories.ErrDonorNotFound) {
		return apperrors.NewUnauthorizedError("profile not found for token subject")
	}
	return translateRepoError(err)
}

// ---------------- Organizations ----------------

func (s *verificationService) VerifyOrganization(ctx context.Context, actor models.Actor, organizationID string, status models.VerificationStatus, reason string) (*dto.OrganizationResponse, error) {
	if err := requireRole(actor, domainOrganization, models.RoleAdmin); err != nil {
		return nil, err
	}
	if status != models.VerificationVerified && status != models.VerificationRejected {
		return nil, apperrors.ErrValidation(domainOrganization, "status must be VERIFIED or REJECTED")
	}
	reason = strings.TrimSpace(reason)
	if status == models.VerificationRejected && reason == "" {
		return nil, apperrors.ErrValidation(domainOrganization, "reason is required when rejecting an organization")
	}

	var org *models.Organization
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		org, err = s.organizations.FindByIDForUpdate(tx, organizationID)
		if err != nil {
			return err
		}
		if org.VerificationStatus != models.VerificationPending {
			return apperrors.ErrConflict(domainOrganization, fmt.Sprintf("organization is already %s", org.VerificationStatus))
		}

		now := s.now().UTC()
		verifiedBy := actor.UserID
		org.VerificationStatus = status
		org.VerifiedBy = &verifiedBy
		org.VerifiedAt = &now
		org.RejectionReason = ""
		if status == models.VerificationRejected {
			org.RejectionReason = reason
		}
		return s.organizations.Update(tx, org)
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	msg := email.OrganizationVerification(organizationEmail(org), org.Name, string(status), reason)
	s.notifier.send(ctx, workers.NotificationTask{
		Recipients: []workers.Recipient{{UserID: org.UserID, UserType: models.UserTypeOrganization}},
		Type:       models.NotificationOrganizationVerified,
		Title:      "Verification decision",
		Message:    fmt.Sprintf("Your organization is %s", status),
		EntityType: domainOrganization,
		EntityID:   org.ID,
		Data:       map[string]any{"status": string(status), "reason": reason},
		Email:      &msg,
	})
	return dto.NewOrganizationResponse(org), nil
}

func (s *verificationService) ListOrganizations(ctx context.Context, actor models.Actor, query dto.OrganizationListQuery) (*dto.OrganizationListResponse, error) {
	if err := requireRole(actor, domainOrganization, models.RoleAdmin); err != nil {
		return nil, err
	}
	orgs, total, err := s.organizations.List(s.tx.DB(ctx), query.Status, toPagination(query.PaginationQuery))
	if err != nil {
		return nil, translateRepoError(err)
	}
	items := make([]*dto.OrganizationResponse, 0, len(orgs))
	for i := range orgs {
		items = append(items, dto.NewOrganizationResponse(&orgs[i]))
	}
	return &dto.OrganizationListResponse{Organizations: items, ListMeta: dto.NewListMeta(total, query.PaginationQuery)}, nil
}

func (s *verificationService) GetOrganization(ctx context.Context, actor models.Actor, organizationID string) (*dto.OrganizationResponse, error) {
	if !actor.IsAdmin() && !actor.OwnsOrganization(organizationID) {
		return nil, apperrors.ErrForbidden(domainOrganization, "insufficient permissions")
	}
	org, err := s.organizations.FindByID(s.tx.DB(ctx), organizationID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return dto.NewOrganizationResponse(org), nil
}

func blockAction(blocked bool) string {
	if blocked {
		return models.BlockActionBlock
	}
	return models.BlockActionUnblock
}

func (s *verificationService) SetOrganizationBlocked(ctx context.Context, actor models.Actor, organizationID string, blocked bool, reason string) (*dto.OrganizationResponse, error) {
	if err := requireRole(actor, domainOrganization, models.RoleAdmin); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.ErrValidation(domainOrganization, "reason is required")
	}

	var org *models.Organization
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		org, err = s.organizations.FindByIDForUpdate(tx, organizationID)
		if err != nil {
			return err
		}
		if org.IsBlocked == blocked {
			return apperrors.ErrConflict(domainOrganization, fmt.Sprintf("organization is already %sed", blockAction(blocked)))
		}
		org.IsBlocked = blocked
		org.BlockReason = ""
		if blocked {
			org.BlockReason = reason
		}
		if err := s.organizations.Update(tx, org); err != nil {
			return err
		}
		return s.organizations.CreateBlockHistory(tx, &models.BlockHistory{
			SubjectType: models.UserTypeOrganization,
			SubjectID:   org.ID,
			AdminID:     actor.UserID,
			Action:      blockAction(blocked),
			Reason:      reason,
		})
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	msg := email.AccountBlocked(organizationEmail(org), org.Name, blocked, reason)
	s.notifier.send(ctx, workers.NotificationTask{
		Recipients: []workers.Recipient{{UserID: org.UserID, UserType: models.UserTypeOrganization}},
		Type:       models.NotificationAccountBlocked,
		Title:      "Account status changed",
		Message:    fmt.Sprintf("Your organization was %sed", blockAction(blocked)),
		EntityType: domainOrganization,
		EntityID:   org.ID,
		Data:       map[string]any{"blocked": blocked, "reason": reason},
		Email:      &msg,
	})
	return dto.NewOrganizationResponse(org), nil
}

func (s *verificationService) SetDonorBlocked(ctx context.Context, actor models.Actor, donorID string, blocked bool, reason string) (*dto.DonorResponse, error) {
	if err := requireRole(actor, domainDonor, models.RoleAdmin); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.ErrValidation(domainDonor, "reason is required")
	}

	var donor *models.Donor
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		donor, err = s.donors.FindByIDForUpdate(tx, donorID)
		if err != nil {
			return err
		}
		if donor.IsBlocked == blocked {
			return apperrors.ErrConflict(domainDonor, fmt.Sprintf("donor is already %sed", blockAction(blocked)))
		}
		donor.IsBlocked = blocked
		donor.BlockReason = ""
		if blocked {
			donor.BlockReason = reason
		}
		if err := s.donors.Update(tx, donor); err != nil {
			return err
		}
		return s.organizations.CreateBlockHistory(tx, &models.BlockHistory{
			SubjectType: models.UserTypeDonor,
			SubjectID:   donor.ID,
			AdminID:     actor.UserID,
			Action:      blockAction(blocked),
			Reason:      reason,
		})
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	msg := email.AccountBlocked(donorEmail(donor), donor.Name, blocked, reason)
	s.notifier.send(ctx, workers.NotificationTask{
		Recipients: []workers.Recipient{{UserID: donor.UserID, UserType: models.UserTypeDonor}},
		Type:       models.NotificationAccountBlocked,
		Title:      "Account status changed",
		Message:    fmt.Sprintf("Your account was %sed", blockAction(blocked)),
		EntityType: domainDonor,
		EntityID:   donor.ID,
		Data:       map[string]any{"blocked": blocked, "reason": reason},
		Email:      &msg,
	})
	return dto.NewDonorResponse(donor), nil
}

// ---------------- Payments ----------------

func (s *verificationService) VerifyPayment(ctx context.Context, actor models.Actor, paymentID string, status models.PaymentStatus) (*dto.PaymentResponse, error) {
	if actor.Role == models.RoleDonor {
		return nil, apperrors.ErrForbidden(domainPayment, "donors cannot verify payments")
	}
	if !algorithms.CanTransitionPayment(models.PaymentStatusPending, status) {
		return nil, apperrors.ErrValidation(domainPayment, "status must be SUCCESS or FAILED")
	}

	var (
		payment *models.Payment
		donor   *models.Donor
	)

	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		payment, err = s.payments.FindByIDForUpdate(tx, paymentID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && !actor.OwnsOrganization(payment.OrganizationID) {
			return apperrors.ErrForbidden(domainPayment, "only the owning organization or an admin can verify this payment")
		}
		// проверка выполняется один раз
		if payment.Status != models.PaymentStatusPending {
			return apperrors.ErrTerminalState(domainPayment, fmt.Sprintf("payment is already %s", payment.Status))
		}

		contribution, err := s.contributions.FindByIDForUpdate(tx, payment.ContributionID)
		if err != nil {
			return err
		}
		if contribution.Status != models.ContributionStatusPending {
			return apperrors.ErrConflict(domainPayment, fmt.Sprintf("contribution is already %s", contribution.Status))
		}

		now := s.now().UTC()
		verifiedBy := actor.UserID
		payment.Status = status
		payment.VerifiedBy = &verifiedBy
		payment.VerifierRole = actor.Role
		payment.VerifiedAt = &now
		if err := s.payments.Update(tx, payment); err != nil {
			return err
		}

		target := algorithms.NegativeOutcome(contribution.Pipeline)
		if status == models.PaymentStatusSuccess {
			target = algorithms.PositiveOutcome(contribution.Pipeline)
		}
		contribution.Status = target
		contribution.StatusChangedBy = &verifiedBy
		contribution.StatusChangedAt = &now
		if err := s.contributions.Update(tx, contribution); err != nil {
			return err
		}

		if algorithms.PromotesOffer(contribution.Pipeline, target) && payment.OfferID != nil {
			if _, err := s.donations.PromoteOffer(tx, *payment.OfferID); err != nil {
				return err
			}
		}

		donor, err = s.donors.FindByID(tx, payment.DonorID)
		return err
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	msg := email.PaymentDecision(donorEmail(donor), donor.Name, payment.TransactionRef, string(status))
	s.notifier.send(ctx, workers.NotificationTask{
		Recipients:   []workers.Recipient{{UserID: donor.UserID, UserType: models.UserTypeDonor}},
		NotifyAdmins: true,
		Type:         models.NotificationPaymentVerified,
		Title:        "Payment verified",
		Message:      fmt.Sprintf("Payment %s is %s", payment.TransactionRef, status),
		EntityType:   domainPayment,
		EntityID:     payment.ID,
		Data: map[string]any{
			"payment_id":      payment.ID,
			"contribution_id": payment.ContributionID,
			"status":          string(status),
			"transaction_ref": payment.TransactionRef,
		},
		Email: &msg,
	})
	return dto.NewPaymentResponse(payment), nil
}

// ---------------- Profile changes ----------------

func (s *verificationService) SubmitProfileChange(ctx context.Context, actor models.Actor, req *dto.ProfileChangeRequest) (*dto.OrganizationResponse, error) {
	if err := requireRole(actor, domainOrganization, models.RoleOrganization); err != nil {
		return nil, err
	}
	if req == nil || req.IsEmpty() {
		return nil, apperrors.ErrValidation(domainOrganization, "at least one profile field is required")
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	var org *models.Organization
	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		org, err = s.organizations.FindByIDForUpdate(tx, actor.ID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		org.PendingChanges = datatypes.JSON(raw)
		org.ChangesSubmittedAt = &now
		return s.organizations.Update(tx, org)
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.notifier.send(ctx, workers.NotificationTask{
		NotifyAdmins: true,
		Type:         models.NotificationProfileChange,
		Title:        "Profile change awaiting approval",
		Message:      fmt.Sprintf("%s submitted profile changes", org.Name),
		EntityType:   domainOrganization,
		EntityID:     org.ID,
	})
	return dto.NewOrganizationResponse(org), nil
}

func (s *verificationService) ApproveProfileChange(ctx context.Context, actor models.Actor, organizationID string) (*dto.OrganizationResponse, error) {
	return s.resolveProfileChange(ctx, actor, organizationID, true, "")
}

func (s *verificationService) RejectProfileChange(ctx context.Context, actor models.Actor, organizationID, reason string) (*dto.OrganizationResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.ErrValidation(domainOrganization, "reason is required")
	}
	return s.resolveProfileChange(ctx, actor, organizationID, false, reason)
}

func (s *verificationService) resolveProfileChange(ctx context.Context, actor models.Actor, organizationID string, approve bool, reason string) (*dto.OrganizationResponse, error) {
	if err := requireRole(actor, domainOrganization, models.RoleAdmin); err != nil {
		return nil, err
	}

	var org *models.Organization
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		org, err = s.organizations.FindByIDForUpdate(tx, organizationID)
		if err != nil {
			return err
		}
		if !org.HasPendingChanges() {
			return apperrors.ErrConflict(domainOrganization, "organization has no pending profile changes")
		}
		if approve {
			var changes dto.ProfileChangeRequest
			if err := json.Unmarshal(org.PendingChanges, &changes); err != nil {
				return err
			}
			changes.Apply(org)
		}
		org.PendingChanges = nil
		org.ChangesSubmittedAt = nil
		return s.organizations.Update(tx, org)
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	decision := "approved"
	if !approve {
		decision = "rejected"
	}
	s.notifier.send(ctx, workers.NotificationTask{
		Recipients: []workers.Recipient{{UserID: org.UserID, UserType: models.UserTypeOrganization}},
		Type:       models.NotificationProfileChange,
		Title:      "Profile change " + decision,
		Message:    fmt.Sprintf("Your profile changes were %s", decision),
		EntityType: domainOrganization,
		EntityID:   org.ID,
		Data:       map[string]any{"decision": decision, "reason": reason},
	})
	return dto.NewOrganizationResponse(org), nil
}
