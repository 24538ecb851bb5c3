package repositories

import (
	"errors"
	"time"

	"donation_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrContributionNotFound = errors.New("contribution not found")
	ErrPaymentNotFound      = errors.New("payment not found")
)

// PickupWindowFilter - поиск активных вывозов стороны в окне [From, To]
type PickupWindowFilter struct {
	OrganizationID string
	DonorID        string
	From           time.Time
	To             time.Time
	ExcludeID      string
	Statuses       []models.ContributionStatus
}

// ContributionCriteria - фильтр списка взносов
type ContributionCriteria struct {
	DonorID        string
	OrganizationID string
	OfferID        string
	RequestID      string
	Status         string
	Pagination
}

type ContributionRepository interface {
	Create(db *gorm.DB, contribution *models.Contribution) error
	FindByID(db *gorm.DB, id string) (*models.Contribution, error)
	FindByIDForUpdate(db *gorm.DB, id string) (*models.Contribution, error)
	Update(db *gorm.DB, contribution *models.Contribution) error
	ExistsForDonor(db *gorm.DB, donorID string, parent models.ParentRef) (bool, error)
	FindScheduledPickups(db *gorm.DB, filter PickupWindowFilter) ([]models.Contribution, error)
	List(db *gorm.DB, criteria ContributionCriteria) ([]models.Contribution, int64, error)
}

type PaymentRepository interface {
	Create(db *gorm.DB, payment *models.Payment) error
	FindByID(db *gorm.DB, id string) (*models.Payment, error)
	FindByIDForUpdate(db *gorm.DB, id string) (*models.Payment, error)
	Update(db *gorm.DB, payment *models.Payment) error
	ExistsForDonor(db *gorm.DB, donorID string, parent models.ParentRef) (bool, error)
}

type ContributionRepositoryImpl struct{}

func NewContributionRepository() ContributionRepository {
	return &ContributionRepositoryImpl{}
}

func (r *ContributionRepositoryImpl) Create(db *gorm.DB, contribution *models.Contribution) error {
	return translateCreateError(db.Omit("Payment").Create(contribution).Error)
}

func (r *ContributionRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Contribution, error) {
	var contribution models.Contribution
	if err := db.Preload("Payment").First(&contribution, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContributionNotFound
		}
		return nil, err
	}
	return &contribution, nil
}

func (r *ContributionRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id string) (*models.Contribution, error) {
	return r.FindByID(forUpdate(db), id)
}

func (r *ContributionRepositoryImpl) Update(db *gorm.DB, contribution *models.Contribution) error {
	return db.Omit("Payment").Save(contribution).Error
}

func (r *ContributionRepositoryImpl) ExistsForDonor(db *gorm.DB, donorID string, parent models.ParentRef) (bool, error) {
	var count int64
	err := db.Model(&models.Contribution{}).
		Where("donor_id = ? AND "+parentColumn(parent)+" = ?", donorID, parent.ID).
		Count(&count).Error
	return count > 0, err
}

func (r *ContributionRepositoryImpl) FindScheduledPickups(db *gorm.DB, filter PickupWindowFilter) ([]models.Contribution, error) {
	var contributions []models.Contribution

	query := db.Model(&models.Contribution{}).
		Where("pickup_status = ?", models.PickupStatusScheduled).
		Where("status IN ?", filter.Statuses).
		Where("pickup_time BETWEEN ? AND ?", filter.From, filter.To)

	if filter.OrganizationID != "" {
		query = query.Where("organization_id = ?", filter.OrganizationID)
	}
	if filter.DonorID != "" {
		query = query.Where("donor_id = ?", filter.DonorID)
	}
	if filter.ExcludeID != "" {
		query = query.Where("id <> ?", filter.ExcludeID)
	}

	err := query.Order("pickup_time ASC").Find(&contributions).Error
	return contributions, err
}

func (r *ContributionRepositoryImpl) List(db *gorm.DB, criteria ContributionCriteria) ([]models.Contribution, int64, error) {
	var contributions []models.Contribution
	var total int64

	query := db.Model(&models.Contribution{})
	if criteria.DonorID != "" {
		query = query.Where("donor_id = ?", criteria.DonorID)
	}
	if criteria.OrganizationID != "" {
		query = query.Where("organization_id = ?", criteria.OrganizationID)
	}
	if criteria.OfferID != "" {
		query = query.Where("offer_id = ?", criteria.OfferID)
	}
	if criteria.RequestID != "" {
		query = query.Where("request_id = ?", criteria.RequestID)
	}
	if criteria.Status != "" {
		query = query.Where("status = ?", criteria.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := criteria.apply(query).Preload("Payment").Order("created_at DESC").Find(&contributions).Error
	return contributions, total, err
}

type PaymentRepositoryImpl struct{}

func NewPaymentRepository() PaymentRepository {
	return &PaymentRepositoryImpl{}
}

func (r *PaymentRepositoryImpl) Create(db *gorm.DB, payment *models.Payment) error {
	return translateCreateError(db.Create(payment).Error)
}

func (r *PaymentRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Payment, error) {
	var payment models.Payment
	if err := db.First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id string) (*models.Payment, error) {
	return r.FindByID(forUpdate(db), id)
}

func (r *PaymentRepositoryImpl) Update(db *gorm.DB, payment *models.Payment) error {
	return db.Save(payment).Error
}

func (r *PaymentRepositoryImpl) ExistsForDonor(db *gorm.DB, donorID string, parent models.ParentRef) (bool, error) {
	var count int64
	err := db.Model(&models.Payment{}).
		Where("donor_id = ? AND "+parentColumn(parent)+" = ?", donorID, parent.ID).
		Count(&count).Error
	return count > 0, err
}

func parentColumn(parent models.ParentRef) string {
	if parent.Kind == models.ParentRequest {
		return "request_id"
	}
	return "offer_id"
}
