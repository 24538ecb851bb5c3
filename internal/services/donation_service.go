package services

import (
	"context"
	"fmt"
	"strings"

	"donation_backend/internal/algorithms"
	"donation_backend/internal/models"
	"donation_backend/internal/repositories"
	"donation_backend/internal/services/dto"
	"donation_backend/internal/workers"
	"donation_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// DonationService - публикация и закрытие предложений и запросов организаций
type DonationService interface {
	CreateOffer(ctx context.Context, actor models.Actor, req *dto.DonationDetailsRequest) (*dto.DonationResponse, error)
	CreateRequest(ctx context.Context, actor models.Actor, req *dto.DonationDetailsRequest) (*dto.DonationResponse, error)
	TransitionOffer(ctx context.Context, actor models.Actor, offerID string, status models.OfferStatus) (*dto.DonationResponse, error)
	CloseRequest(ctx context.Context, actor models.Actor, requestID string) (*dto.DonationResponse, error)
	GetOffer(ctx context.Context, offerID string) (*dto.DonationResponse, error)
	GetRequest(ctx context.Context, requestID string) (*dto.DonationResponse, error)
	ListOffers(ctx context.Context, query dto.DonationListQuery) (*dto.DonationListResponse, error)
	ListRequests(ctx context.Context, query dto.DonationListQuery) (*dto.DonationListResponse, error)
}

type donationService struct {
	tx            repositories.Transactor
	donations     repositories.DonationRepository
	organizations repositories.OrganizationRepository
	notifier      notifier
}

func NewDonationService(
	tx repositories.Transactor,
	donations repositories.DonationRepository,
	organizations repositories.OrganizationRepository,
	dispatcher Dispatcher,
) DonationService {
	return &donationService{
		tx:            tx,
		donations:     donations,
		organizations: organizations,
		notifier:      notifier{dispatcher: dispatcher},
	}
}

func validateDetails(d models.DonationDetails) error {
	if strings.TrimSpace(d.Title) == "" {
		return apperrors.ErrValidation(domainDonation, "title is required")
	}
	if !d.Category.IsValid() {
		return apperrors.ErrValidation(domainDonation, fmt.Sprintf("unsupported category %q", d.Category))
	}
	if d.Category.IsFunds() {
		if !d.HasPaymentDetails() {
			return apperrors.ErrValidation(domainDonation, "funds require bank account details or a QR code")
		}
		return nil
	}
	if strings.TrimSpace(d.PickupLocation) == "" {
		return apperrors.ErrValidation(domainDonation, "pickup_location is required for physical donations")
	}
	if d.PickupWindowStart != nil && d.PickupWindowEnd != nil && !d.PickupWindowEnd.After(*d.PickupWindowStart) {
		return apperrors.ErrValidation(domainDonation, "pickup window end must be after its start")
	}
	return nil
}

// publisher проверяет, что актор - действующая организация
func (s *donationService) publisher(ctx context.Context, actor models.Actor) (*models.Organization, error) {
	if err := requireRole(actor, domainDonation, models.RoleOrganization); err != nil {
		return nil, err
	}
	org, err := s.organizations.FindByID(s.tx.DB(ctx), actor.ID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if err := EnsureOrganizationCanOperate(org); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *donationService) notifyPublished(ctx context.Context, org *models.Organization, kind models.ParentKind, id, title string) {
	s.notifier.send(ctx, workers.NotificationTask{
		NotifyAdmins: true,
		Type:         models.NotificationDonationPublished,
		Title:        fmt.Sprintf("New donation %s", kind),
		Message:      fmt.Sprintf("%s published %q", org.Name, title),
		EntityType:   string(kind),
		EntityID:     id,
	})
}

func (s *donationService) CreateOffer(ctx context.Context, actor models.Actor, req *dto.DonationDetailsRequest) (*dto.DonationResponse, error) {
	if req == nil {
		return nil, apperrors.ErrValidation(domainDonation, "payload is required")
	}
	org, err := s.publisher(ctx, actor)
	if err != nil {
		return nil, err
	}
	details := req.ToModel()
	if err := validateDetails(details); err != nil {
		return nil, err
	}

	offer := &models.DonationOffer{
		OrganizationID:  org.ID,
		DonationDetails: details,
		Status:          models.OfferStatusPending,
	}
	if err := s.donations.CreateOffer(s.tx.DB(ctx), offer); err != nil {
		return nil, translateRepoError(err)
	}

	s.notifyPublished(ctx, org, models.ParentOffer, offer.ID, offer.Title)
	return dto.NewOfferResponse(offer), nil
}

func (s *donationService) CreateRequest(ctx context.Context, actor models.Actor, req *dto.DonationDetailsRequest) (*dto.DonationResponse, error) {
	if req == nil {
		return nil, apperrors.ErrValidation(domainDonation, "payload is required")
	}
	org, err := s.publisher(ctx, actor)
	if err != nil {
		return nil, err
	}
	details := req.ToModel()
	if err := validateDetails(details); err != nil {
		return nil, err
	}

	request := &models.DonationRequest{
		OrganizationID:  org.ID,
		DonationDetails: details,
		Status:          models.RequestStatusActive,
	}
	if err := s.donations.CreateRequest(s.tx.DB(ctx), request); err != nil {
		return nil, translateRepoError(err)
	}

	s.notifyPublished(ctx, org, models.ParentRequest, request.ID, request.Title)
	return dto.NewRequestResponse(request), nil
}

func (s *donationService) TransitionOffer(ctx context.Context, actor models.Actor, offerID string, status models.OfferStatus) (*dto.DonationResponse, error) {
	if err := requireRole(actor, domainDonation, models.RoleOrganization, models.RoleAdmin); err != nil {
		return nil, err
	}
	// CONFIRMED выставляется только движком взносов
	if status != models.OfferStatusCompleted && status != models.OfferStatusCancelled {
		return nil, apperrors.ErrValidation(domainDonation, "status must be COMPLETED or CANCELLED")
	}

	var (
		offer *models.DonationOffer
		org   *models.Organization
	)
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		offer, err = s.donations.FindOfferByIDForUpdate(tx, offerID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && !actor.OwnsOrganization(offer.OrganizationID) {
			return apperrors.ErrForbidden(domainDonation, "only the owning organization or an admin can change this offer")
		}
		if algorithms.IsTerminalOffer(offer.Status) {
			return apperrors.ErrTerminalState(domainDonation, fmt.Sprintf("offer is %s", offer.Status))
		}
		if !algorithms.CanTransitionOffer(offer.Status, status) {
			return apperrors.ErrIllegalTransition(domainDonation, offer.Status, status)
		}
		offer.Status = status
		if err := s.donations.UpdateOffer(tx, offer); err != nil {
			return err
		}
		org, err = s.organizations.FindByID(tx, offer.OrganizationID)
		return err
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.notifyStatus(ctx, org, models.ParentOffer, offer.ID, offer.Title, string(offer.Status))
	return dto.NewOfferResponse(offer), nil
}

func (s *donationService) CloseRequest(ctx context.Context, actor models.Actor, requestID string) (*dto.DonationResponse, error) {
	if err := requireRole(actor, domainDonation, models.RoleOrganization, models.RoleAdmin); err != nil {
		return nil, err
	}

	var (
		request *models.DonationRequest
		org     *models.Organization
	)
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		request, err = s.donations.FindRequestByIDForUpdate(tx, requestID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && !actor.OwnsOrganization(request.OrganizationID) {
			return apperrors.ErrForbidden(domainDonation, "only the owning organization or an admin can close this request")
		}
		if algorithms.IsTerminalRequest(request.Status) {
			return apperrors.ErrTerminalState(domainDonation, fmt.Sprintf("request is %s", request.Status))
		}
		request.Status = models.RequestStatusClosed
		if err := s.donations.UpdateRequest(tx, request); err != nil {
			return err
		}
		org, err = s.organizations.FindByID(tx, request.OrganizationID)
		return err
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.notifyStatus(ctx, org, models.ParentRequest, request.ID, request.Title, string(request.Status))
	return dto.NewRequestResponse(request), nil
}

func (s *donationService) notifyStatus(ctx context.Context, org *models.Organization, kind models.ParentKind, id, title, status string) {
	s.notifier.send(ctx, workers.NotificationTask{
		Recipients: []workers.Recipient{{UserID: org.UserID, UserType: models.UserTypeOrganization}},
		Type:       models.NotificationDonationStatus,
		Title:      fmt.Sprintf("Donation %s updated", kind),
		Message:    fmt.Sprintf("%q is now %s", title, status),
		EntityType: string(kind),
		EntityID:   id,
		Data:       map[string]any{"status": status},
	})
}

func (s *donationService) GetOffer(ctx context.Context, offerID string) (*dto.DonationResponse, error) {
	offer, err := s.donations.FindOfferByID(s.tx.DB(ctx), offerID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return dto.NewOfferResponse(offer), nil
}

func (s *donationService) GetRequest(ctx context.Context, requestID string) (*dto.DonationResponse, error) {
	request, err := s.donations.FindRequestByID(s.tx.DB(ctx), requestID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return dto.NewRequestResponse(request), nil
}

func criteriaFromQuery(query dto.DonationListQuery) repositories.DonationCriteria {
	return repositories.DonationCriteria{
		OrganizationID: query.OrganizationID,
		Status:         query.Status,
		Category:       query.Category,
		Pagination:     toPagination(query.PaginationQuery),
	}
}

func (s *donationService) ListOffers(ctx context.Context, query dto.DonationListQuery) (*dto.DonationListResponse, error) {
	offers, total, err := s.donations.ListOffers(s.tx.DB(ctx), criteriaFromQuery(query))
	if err != nil {
		return nil, translateRepoError(err)
	}
	items := make([]*dto.DonationResponse, 0, len(offers))
	for i := range offers {
		items = append(items, dto.NewOfferResponse(&offers[i]))
	}
	return &dto.DonationListResponse{Items: items, ListMeta: dto.NewListMeta(total, query.PaginationQuery)}, nil
}

func (s *donationService) ListRequests(ctx context.Context, query dto.DonationListQuery) (*dto.DonationListResponse, error) {
	requests, total, err := s.donations.ListRequests(s.tx.DB(ctx), criteriaFromQuery(query))
	if err != nil {
		return nil, translateRepoError(err)
	}
	items := make([]*dto.DonationResponse, 0, len(requests))
	for i := range requests {
		items = append(items, dto.NewRequestResponse(&requests[i]))
	}
	return &dto.DonationListResponse{Items: items, ListMeta: dto.NewListMeta(total, query.PaginationQuery)}, nil
}
