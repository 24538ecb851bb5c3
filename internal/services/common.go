package services

import (
	"context"
	"errors"

	"donation_backend/internal/logger"
	"donation_backend/internal/models"
	"donation_backend/internal/repositories"
	"donation_backend/internal/services/dto"
	"donation_backend/internal/workers"
	"donation_backend/pkg/apperrors"
)

const (
	domainContribution = "contribution"
	domainPickup       = "pickup"
	domainPayment      = "payment"
	domainOrganization = "organization"
	domainDonor        = "donor"
	domainDonation     = "donation"
	domainNotification = "notification"
	domainAuth         = "auth"
)

// Dispatcher - очередь рассылки уведомлений (workers.NotificationDispatcher)
type Dispatcher interface {
	Dispatch(task workers.NotificationTask)
}

// NoopDispatcher отбрасывает задачи
type NoopDispatcher struct{}

func (NoopDispatcher) Dispatch(workers.NotificationTask) {}

// notifier ставит задачи в очередь только после коммита транзакции
type notifier struct {
	dispatcher Dispatcher
}

func (n notifier) send(ctx context.Context, tasks ...workers.NotificationTask) {
	if n.dispatcher == nil {
		return
	}
	requestID := logger.GetRequestID(ctx)
	for _, task := range tasks {
		task.RequestID = requestID
		n.dispatcher.Dispatch(task)
	}
}

var notFoundErrors = []struct {
	err    error
	domain string
	entity string
}{
	{repositories.ErrContributionNotFound, domainContribution, "contribution"},
	{repositories.ErrPaymentNotFound, domainPayment, "payment"},
	{repositories.ErrOfferNotFound, domainDonation, "donation offer"},
	{repositories.ErrRequestNotFound, domainDonation, "donation request"},
	{repositories.ErrOrganizationNotFound, domainOrganization, "organization"},
	{repositories.ErrDonorNotFound, domainDonor, "donor"},
	{repositories.ErrNotificationNotFound, domainNotification, "notification"},
	{repositories.ErrUserNotFound, domainAuth, "user"},
}

// translateRepoError переводит ошибки репозиториев в AppError
func translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	for _, nf := range notFoundErrors {
		if errors.Is(err, nf.err) {
			return apperrors.ErrNotFound(nf.domain, nf.entity)
		}
	}
	if errors.Is(err, repositories.ErrDuplicate) {
		return apperrors.ErrDuplicate(domainContribution, "donor already contributed to this record")
	}
	return apperrors.InternalError(err)
}

func requireRole(actor models.Actor, domain string, roles ...models.ActorRole) error {
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return apperrors.ErrForbidden(domain, "insufficient permissions")
}

func organizationEmail(org *models.Organization) string {
	if org.ContactEmail != "" {
		return org.ContactEmail
	}
	if org.User != nil {
		return org.User.Email
	}
	return ""
}

func donorEmail(donor *models.Donor) string {
	if donor.Email != "" {
		return donor.Email
	}
	if donor.User != nil {
		return donor.User.Email
	}
	return ""
}

func toPagination(q dto.PaginationQuery) repositories.Pagination {
	return repositories.Pagination{Page: q.Page, PageSize: q.PageSize}
}
