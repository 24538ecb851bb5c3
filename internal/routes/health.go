package routes

import (
	"context"
	"net/http"
	"time"

	"donation_backend/internal/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthCheck проверяет доступность базы данных
func HealthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			logger.CtxWithError(ctx, "Health check failed", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	}
}
