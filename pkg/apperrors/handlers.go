package apperrors

import (
	"log/slog"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// GinErrorHandler - обработчик ошибок для Gin
type GinErrorHandler struct {
	Debug bool
}

var debugMode atomic.Bool

// SetDebug включает вывод деталей 5xx ошибок клиенту (только для development)
func SetDebug(debug bool) {
	debugMode.Store(debug)
}

// HandleGinError - основная логика обработки ошибок для Gin
func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	if appErr.HTTPCode >= 500 {
		slog.ErrorContext(c.Request.Context(), "Server error",
			"code", appErr.Code,
			"path", c.Request.URL.Path,
			"error", appErr.Error(),
		)
		if !h.Debug {
			// Детали остаются только в логе
			appErr = &AppError{
				Code:     CodeInternalError,
				Domain:   "system",
				Message:  "Internal server error",
				HTTPCode: appErr.HTTPCode,
			}
		}
	}

	c.JSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
}

// HandleError - быстрая функция-помощник для Gin
func HandleError(c *gin.Context, err error) {
	handler := &GinErrorHandler{Debug: debugMode.Load()}
	handler.HandleGinError(c, err)
}
