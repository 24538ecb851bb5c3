package handlers

import (
	"net/http"

	"donation_backend/internal/services"
	"donation_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	*BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(base *BaseHandler, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         base,
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup) {
	// Protected routes - All authenticated users
	notifications := r.Group("/notifications")
	notifications.Use(h.authRequired)
	{
		notifications.GET("", h.GetUserNotifications)
		notifications.GET("/unread-count", h.GetUnreadCount)
		notifications.GET("/:notificationId", h.GetNotification)
		notifications.PUT("/read-all", h.MarkAllAsRead)
		notifications.PUT("/:notificationId/read", h.MarkAsRead)
		notifications.DELETE("/:notificationId", h.DeleteNotification)
	}
}

func (h *NotificationHandler) GetUserNotifications(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	var query dto.NotificationListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	response, err := h.notificationService.GetUserNotifications(c.Request.Context(), actor, query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *NotificationHandler) GetNotification(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	notificationID, ok := PathID(c, "notificationId")
	if !ok {
		return
	}

	notification, err := h.notificationService.GetNotification(c.Request.Context(), actor, notificationID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, notification)
}

func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	count, err := h.notificationService.GetUnreadCount(c.Request.Context(), actor)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	notificationID, ok := PathID(c, "notificationId")
	if !ok {
		return
	}

	if err := h.notificationService.MarkAsRead(c.Request.Context(), actor, notificationID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllAsRead(c.Request.Context(), actor)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	notificationID, ok := PathID(c, "notificationId")
	if !ok {
		return
	}

	if err := h.notificationService.DeleteNotification(c.Request.Context(), actor, notificationID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
