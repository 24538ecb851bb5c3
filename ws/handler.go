package ws

import (
	"net/http"

	"donation_backend/internal/logger"
	"donation_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin проверяется CORS на уровне прокси
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type WebSocketHandler struct {
	Manager *WebSocketManager
}

func NewWebSocketHandler(manager *WebSocketManager) *WebSocketHandler {
	return &WebSocketHandler{Manager: manager}
}

// ServeWS открывает соединение для пользователя, прошедшего auth middleware
func (h *WebSocketHandler) ServeWS(c *gin.Context) {
	userID := c.GetString(contextkeys.UserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.CtxWarn(c.Request.Context(), "websocket upgrade error", "error", err)
		return
	}

	client := NewClient(h.Manager, conn, userID)
	h.Manager.Register(client)

	go client.readPump()
	go client.writePump()
}
