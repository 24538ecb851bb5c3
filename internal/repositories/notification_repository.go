package repositories

import (
	"errors"
	"time"

	"donation_backend/internal/models"

	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationCriteria - фильтр входящих уведомлений получателя
type NotificationCriteria struct {
	UnreadOnly bool
	Type       string
	Pagination
}

type NotificationRepository interface {
	Create(db *gorm.DB, notification *models.Notification) error
	FindByIDForUser(db *gorm.DB, id, userID string) (*models.Notification, error)
	FindUserNotifications(db *gorm.DB, userID string, criteria NotificationCriteria) ([]models.Notification, int64, error)
	MarkAsRead(db *gorm.DB, id, userID string) error
	MarkAllAsRead(db *gorm.DB, userID string) (int64, error)
	Delete(db *gorm.DB, id, userID string) error
	GetUnreadCount(db *gorm.DB, userID string) (int64, error)
}

type NotificationRepositoryImpl struct{}

func NewNotificationRepository() NotificationRepository {
	return &NotificationRepositoryImpl{}
}

func (r *NotificationRepositoryImpl) Create(db *gorm.DB, notification *models.Notification) error {
	if notification.UserID == "" || notification.Title == "" {
		return errors.New("invalid notification data")
	}
	return db.Create(notification).Error
}

func (r *NotificationRepositoryImpl) FindByIDForUser(db *gorm.DB, id, userID string) (*models.Notification, error) {
	var notification models.Notification
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *NotificationRepositoryImpl) FindUserNotifications(db *gorm.DB, userID string, criteria NotificationCriteria) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	query := db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if criteria.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if criteria.Type != "" {
		query = query.Where("type = ?", criteria.Type)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := criteria.apply(query).Order("created_at DESC").Find(&notifications).Error
	return notifications, total, err
}

func (r *NotificationRepositoryImpl) MarkAsRead(db *gorm.DB, id, userID string) error {
	now := time.Now()
	result := db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(db *gorm.DB, userID string) (int64, error) {
	now := time.Now()
	result := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepositoryImpl) Delete(db *gorm.DB, id, userID string) error {
	result := db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepositoryImpl) GetUnreadCount(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}
