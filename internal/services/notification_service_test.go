package services

import (
	"context"
	"testing"

	"donation_backend/internal/models"
	"donation_backend/internal/services/dto"
	"donation_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func (f *fixture) addNotification(t *testing.T, recipient models.Actor, title string) string {
	t.Helper()
	n := &models.Notification{
		UserID:   recipient.UserID,
		UserType: recipient.Role.UserType(),
		Type:     models.NotificationContributionStatus,
		Title:    title,
		Data:     datatypes.JSON(`{"status":"APPROVED"}`),
	}
	require.NoError(t, memNotifications{f.store}.Create(nil, n))
	return n.ID
}

func TestNotificationInbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ns := f.services.NotificationService

	first := f.addNotification(t, f.donor1, "first")
	f.addNotification(t, f.donor1, "second")
	foreign := f.addNotification(t, f.donor2, "foreign")

	list, err := ns.GetUserNotifications(ctx, f.donor1, dto.NotificationListQuery{})
	require.NoError(t, err)
	assert.Len(t, list.Notifications, 2)
	assert.Equal(t, int64(2), list.UnreadCount)

	got, err := ns.GetNotification(ctx, f.donor1, first)
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", got.Data["status"])
	assert.Equal(t, models.UserTypeDonor, got.UserType)

	// чужие уведомления не видны
	_, err = ns.GetNotification(ctx, f.donor1, foreign)
	requireAppError(t, err, apperrors.CodeNotFound, "notification")
	requireAppError(t, ns.MarkAsRead(ctx, f.donor1, foreign), apperrors.CodeNotFound, "")
	requireAppError(t, ns.DeleteNotification(ctx, f.donor1, foreign), apperrors.CodeNotFound, "")

	require.NoError(t, ns.MarkAsRead(ctx, f.donor1, first))
	count, err := ns.GetUnreadCount(ctx, f.donor1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	unread, err := ns.GetUserNotifications(ctx, f.donor1, dto.NotificationListQuery{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread.Notifications, 1)
	assert.Equal(t, "second", unread.Notifications[0].Title)

	updated, err := ns.MarkAllAsRead(ctx, f.donor1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	require.NoError(t, ns.DeleteNotification(ctx, f.donor1, first))
	_, err = ns.GetNotification(ctx, f.donor1, first)
	requireAppError(t, err, apperrors.CodeNotFound, "")

	other, err := ns.GetUnreadCount(ctx, f.donor2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)
}
