package repositories

import (
	"errors"

	"donation_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrOfferNotFound   = errors.New("donation offer not found")
	ErrRequestNotFound = errors.New("donation request not found")
)

// DonationCriteria - фильтр списков предложений и запросов
type DonationCriteria struct {
	OrganizationID string
	Status         string
	Category       models.Category
	Pagination
}

type DonationRepository interface {
	// Offers
	CreateOffer(db *gorm.DB, offer *models.DonationOffer) error
	FindOfferByID(db *gorm.DB, id string) (*models.DonationOffer, error)
	FindOfferByIDForUpdate(db *gorm.DB, id string) (*models.DonationOffer, error)
	UpdateOffer(db *gorm.DB, offer *models.DonationOffer) error
	// PromoteOffer переводит PENDING -> CONFIRMED; в любом другом статусе ничего не меняет
	PromoteOffer(db *gorm.DB, offerID string) (bool, error)
	ListOffers(db *gorm.DB, criteria DonationCriteria) ([]models.DonationOffer, int64, error)

	// Requests
	CreateRequest(db *gorm.DB, request *models.DonationRequest) error
	FindRequestByID(db *gorm.DB, id string) (*models.DonationRequest, error)
	FindRequestByIDForUpdate(db *gorm.DB, id string) (*models.DonationRequest, error)
	UpdateRequest(db *gorm.DB, request *models.DonationRequest) error
	ListRequests(db *gorm.DB, criteria DonationCriteria) ([]models.DonationRequest, int64, error)
}

type DonationRepositoryImpl struct{}

func NewDonationRepository() DonationRepository {
	return &DonationRepositoryImpl{}
}

func (r *DonationRepositoryImpl) CreateOffer(db *gorm.DB, offer *models.DonationOffer) error {
	return db.Create(offer).Error
}

func (r *DonationRepositoryImpl) FindOfferByID(db *gorm.DB, id string) (*models.DonationOffer, error) {
	var offer models.DonationOffer
	if err := db.First(&offer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return &offer, nil
}

func (r *DonationRepositoryImpl) FindOfferByIDForUpdate(db *gorm.DB, id string) (*models.DonationOffer, error) {
	return r.FindOfferByID(forUpdate(db), id)
}

func (r *DonationRepositoryImpl) UpdateOffer(db *gorm.DB, offer *models.DonationOffer) error {
	return db.Save(offer).Error
}

func (r *DonationRepositoryImpl) PromoteOffer(db *gorm.DB, offerID string) (bool, error) {
	result := db.Model(&models.DonationOffer{}).
		Where("id = ? AND status = ?", offerID, models.OfferStatusPending).
		Update("status", models.OfferStatusConfirmed)
	return result.RowsAffected > 0, result.Error
}

func (r *DonationRepositoryImpl) ListOffers(db *gorm.DB, criteria DonationCriteria) ([]models.DonationOffer, int64, error) {
	var offers []models.DonationOffer
	var total int64

	query := applyDonationFilter(db.Model(&models.DonationOffer{}), criteria)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := criteria.apply(query).Order("created_at DESC").Find(&offers).Error
	return offers, total, err
}

func (r *DonationRepositoryImpl) CreateRequest(db *gorm.DB, request *models.DonationRequest) error {
	return db.Create(request).Error
}

func (r *DonationRepositoryImpl) FindRequestByID(db *gorm.DB, id string) (*models.DonationRequest, error) {
	var request models.DonationRequest
	if err := db.First(&request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (r *DonationRepositoryImpl) FindRequestByIDForUpdate(db *gorm.DB, id string) (*models.DonationRequest, error) {
	return r.FindRequestByID(forUpdate(db), id)
}

func (r *DonationRepositoryImpl) UpdateRequest(db *gorm.DB, request *models.DonationRequest) error {
	return db.Save(request).Error
}

func (r *DonationRepositoryImpl) ListRequests(db *gorm.DB, criteria DonationCriteria) ([]models.DonationRequest, int64, error) {
	var requests []models.DonationRequest
	var total int64

	query := applyDonationFilter(db.Model(&models.DonationRequest{}), criteria)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := criteria.apply(query).Order("created_at DESC").Find(&requests).Error
	return requests, total, err
}

func applyDonationFilter(query *gorm.DB, criteria DonationCriteria) *gorm.DB {
	if criteria.OrganizationID != "" {
		query = query.Where("organization_id = ?", criteria.OrganizationID)
	}
	if criteria.Status != "" {
		query = query.Where("status = ?", criteria.Status)
	}
	if criteria.Category != "" {
		query = query.Where("category = ?", criteria.Category)
	}
	return query
}
