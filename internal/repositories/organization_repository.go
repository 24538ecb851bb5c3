package repositories

import (
	"errors"

	"donation_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrDonorNotFound        = errors.New("donor not found")
)

type OrganizationRepository interface {
	FindByID(db *gorm.DB, id string) (*models.Organization, error)
	FindByIDForUpdate(db *gorm.DB, id string) (*models.Organization, error)
	FindByUserID(db *gorm.DB, userID string) (*models.Organization, error)
	Update(db *gorm.DB, org *models.Organization) error
	List(db *gorm.DB, status models.VerificationStatus, page Pagination) ([]models.Organization, int64, error)
	CreateBlockHistory(db *gorm.DB, entry *models.BlockHistory) error
}

type DonorRepository interface {
	FindByID(db *gorm.DB, id string) (*models.Donor, error)
	FindByIDForUpdate(db *gorm.DB, id string) (*models.Donor, error)
	FindByUserID(db *gorm.DB, userID string) (*models.Donor, error)
	Update(db *gorm.DB, donor *models.Donor) error
}

type OrganizationRepositoryImpl struct{}

func NewOrganizationRepository() OrganizationRepository {
	return &OrganizationRepositoryImpl{}
}

func (r *OrganizationRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Organization, error) {
	return findOrganization(db, "id = ?", id)
}

func (r *OrganizationRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id string) (*models.Organization, error) {
	return findOrganization(forUpdate(db), "id = ?", id)
}

func (r *OrganizationRepositoryImpl) FindByUserID(db *gorm.DB, userID string) (*models.Organization, error) {
	return findOrganization(db, "user_id = ?", userID)
}

func findOrganization(db *gorm.DB, query string, arg string) (*models.Organization, error) {
	var org models.Organization
	if err := db.Preload("User").Where(query, arg).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepositoryImpl) Update(db *gorm.DB, org *models.Organization) error {
	return db.Omit("User").Save(org).Error
}

func (r *OrganizationRepositoryImpl) List(db *gorm.DB, status models.VerificationStatus, page Pagination) ([]models.Organization, int64, error) {
	var orgs []models.Organization
	var total int64

	query := db.Model(&models.Organization{})
	if status != "" {
		query = query.Where("verification_status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := page.apply(query).Order("created_at DESC").Find(&orgs).Error
	return orgs, total, err
}

func (r *OrganizationRepositoryImpl) CreateBlockHistory(db *gorm.DB, entry *models.BlockHistory) error {
	return db.Create(entry).Error
}

type DonorRepositoryImpl struct{}

func NewDonorRepository() DonorRepository {
	return &DonorRepositoryImpl{}
}

func (r *DonorRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Donor, error) {
	return findDonor(db, "id = ?", id)
}

func (r *DonorRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id string) (*models.Donor, error) {
	return findDonor(forUpdate(db), "id = ?", id)
}

func (r *DonorRepositoryImpl) FindByUserID(db *gorm.DB, userID string) (*models.Donor, error) {
	return findDonor(db, "user_id = ?", userID)
}

func findDonor(db *gorm.DB, query string, arg string) (*models.Donor, error) {
	var donor models.Donor
	if err := db.Preload("User").Where(query, arg).First(&donor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonorNotFound
		}
		return nil, err
	}
	return &donor, nil
}

func (r *DonorRepositoryImpl) Update(db *gorm.DB, donor *models.Donor) error {
	return db.Omit("User").Save(donor).Error
}
