package dto

import (
	"encoding/json"
	"time"

	"donation_backend/internal/models"
)

type NotificationListQuery struct {
	PaginationQuery
	UnreadOnly bool   `form:"unread_only"`
	Type       string `form:"type" validate:"omitempty,max=64"`
}

type NotificationResponse struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	UserType          models.UserType `json:"user_type"`
	Type              string          `json:"type"`
	Title             string          `json:"title"`
	Message           string          `json:"message"`
	RelatedEntityType string          `json:"related_entity_type,omitempty"`
	RelatedEntityID   *string         `json:"related_entity_id,omitempty"`
	Data              map[string]any  `json:"data,omitempty"`
	IsRead            bool            `json:"is_read"`
	ReadAt            *time.Time      `json:"read_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	UnreadCount   int64                   `json:"unread_count"`
	ListMeta
}

func NewNotificationResponse(n *models.Notification) *NotificationResponse {
	resp := &NotificationResponse{
		ID:                n.ID,
		UserID:            n.UserID,
		UserType:          n.UserType,
		Type:              n.Type,
		Title:             n.Title,
		Message:           n.Message,
		RelatedEntityType: n.RelatedEntityType,
		RelatedEntityID:   n.RelatedEntityID,
		IsRead:            n.IsRead,
		ReadAt:            n.ReadAt,
		CreatedAt:         n.CreatedAt,
	}
	if len(n.Data) > 0 {
		var data map[string]any
		if err := json.Unmarshal(n.Data, &data); err == nil {
			resp.Data = data
		}
	}
	return resp
}
