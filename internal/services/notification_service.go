package services

import (
	"context"

	"donation_backend/internal/models"
	"donation_backend/internal/repositories"
	"donation_backend/internal/services/dto"
)

// NotificationService - входящие уведомления получателя
type NotificationService interface {
	GetUserNotifications(ctx context.Context, actor models.Actor, query dto.NotificationListQuery) (*dto.NotificationListResponse, error)
	GetNotification(ctx context.Context, actor models.Actor, notificationID string) (*dto.NotificationResponse, error)
	GetUnreadCount(ctx context.Context, actor models.Actor) (int64, error)
	MarkAsRead(ctx context.Context, actor models.Actor, notificationID string) error
	MarkAllAsRead(ctx context.Context, actor models.Actor) (int64, error)
	DeleteNotification(ctx context.Context, actor models.Actor, notificationID string) error
}

type notificationService struct {
	tx               repositories.Transactor
	notificationRepo repositories.NotificationRepository
}

func NewNotificationService(tx repositories.Transactor, notificationRepo repositories.NotificationRepository) NotificationService {
	return &notificationService{tx: tx, notificationRepo: notificationRepo}
}

func (s *notificationService) GetUserNotifications(ctx context.Context, actor models.Actor, query dto.NotificationListQuery) (*dto.NotificationListResponse, error) {
	db := s.tx.DB(ctx)
	notifications, total, err := s.notificationRepo.FindUserNotifications(db, actor.UserID, repositories.NotificationCriteria{
		UnreadOnly: query.UnreadOnly,
		Type:       query.Type,
		Pagination: toPagination(query.PaginationQuery),
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	unread, err := s.notificationRepo.GetUnreadCount(db, actor.UserID)
	if err != nil {
		return nil, translateRepoError(err)
	}

	items := make([]*dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		items = append(items, dto.NewNotificationResponse(&notifications[i]))
	}
	return &dto.NotificationListResponse{
		Notifications: items,
		UnreadCount:   unread,
		ListMeta:      dto.NewListMeta(total, query.PaginationQuery),
	}, nil
}

func (s *notificationService) GetNotification(ctx context.Context, actor models.Actor, notificationID string) (*dto.NotificationResponse, error) {
	notification, err := s.notificationRepo.FindByIDForUser(s.tx.DB(ctx), notificationID, actor.UserID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) GetUnreadCount(ctx context.Context, actor models.Actor) (int64, error) {
	count, err := s.notificationRepo.GetUnreadCount(s.tx.DB(ctx), actor.UserID)
	if err != nil {
		return 0, translateRepoError(err)
	}
	return count, nil
}

// MarkAsRead - чужое уведомление выглядит как несуществующее
func (s *notificationService) MarkAsRead(ctx context.Context, actor models.Actor, notificationID string) error {
	return translateRepoError(s.notificationRepo.MarkAsRead(s.tx.DB(ctx), notificationID, actor.UserID))
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, actor models.Actor) (int64, error) {
	updated, err := s.notificationRepo.MarkAllAsRead(s.tx.DB(ctx), actor.UserID)
	if err != nil {
		return 0, translateRepoError(err)
	}
	return updated, nil
}

func (s *notificationService) DeleteNotification(ctx context.Context, actor models.Actor, notificationID string) error {
	return translateRepoError(s.notificationRepo.Delete(s.tx.DB(ctx), notificationID, actor.UserID))
}
