package routes

import (
	"donation_backend/internal/handlers"
	"donation_backend/internal/logger"
	"donation_backend/ws"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP и WebSocket маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.WebSocketHandler,
	authRequired gin.HandlerFunc,
	health gin.HandlerFunc,
) {
	ginRouter.GET("/health", health)

	// Регистрация HTTP API v1
	api := ginRouter.Group("/api/v1")
	appHandlers.RegisterRoutes(api)

	// Регистрация WebSocket
	wsGroup := ginRouter.Group("/ws")
	wsGroup.Use(authRequired)
	{
		wsGroup.GET("", wsHandler.ServeWS)
	}
	logger.Info("WebSocket route /ws registered")
}
