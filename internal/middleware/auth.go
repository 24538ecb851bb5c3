package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"donation_backend/internal/auth"
	"donation_backend/internal/logger"
	"donation_backend/internal/models"
	"donation_backend/pkg/apperrors"
	"donation_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// ActorResolver - граница аутентификации: профиль по пользователю и роли
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID string, role models.ActorRole) (models.Actor, error)
}

// Authenticator проверяет JWT и превращает его в models.Actor
type Authenticator struct {
	tokens   *auth.TokenParser
	resolver ActorResolver
}

func NewAuthenticator(tokens *auth.TokenParser, resolver ActorResolver) *Authenticator {
	return &Authenticator{tokens: tokens, resolver: resolver}
}

// extractToken - заголовок Authorization, для WebSocket допускается ?token=
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if header == "" {
		return c.Query("token")
	}
	return ""
}

// Required - middleware проверки JWT
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			abort(c, apperrors.NewUnauthorizedError("Authorization header missing or invalid"))
			return
		}

		claims, err := a.tokens.Parse(tokenStr)
		if err != nil {
			logger.CtxDebug(c.Request.Context(), "token rejected", "error", err)
			if errors.Is(err, auth.ErrMissingSecret) {
				abort(c, apperrors.InternalError(err))
				return
			}
			abort(c, apperrors.New(apperrors.CodeInvalidToken, "auth", "Invalid token", http.StatusUnauthorized))
			return
		}

		role, ok := models.NormalizeRole(claims.Role)
		if !ok {
			abort(c, apperrors.NewUnauthorizedError("unknown role"))
			return
		}

		actor, err := a.resolver.ResolveActor(c.Request.Context(), claims.UserID(), role)
		if err != nil {
			abort(c, err)
			return
		}

		// Сохраняем актора в контекст
		c.Set(contextkeys.UserID, actor.UserID)
		c.Set(contextkeys.Role, actor.Role)
		c.Set(contextkeys.Actor, actor)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), actor.UserID))
		c.Next()
	}
}

// RequireRoles - middleware для проверки нескольких возможных ролей
func RequireRoles(roles ...models.ActorRole) gin.HandlerFunc {
	roleSet := make(map[models.ActorRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			abort(c, apperrors.NewUnauthorizedError("authentication required"))
			return
		}
		if !roleSet[actor.Role] {
			abort(c, apperrors.NewForbiddenError("Access denied: insufficient role"))
			return
		}
		c.Next()
	}
}

// GetActor извлекает актора из контекста
func GetActor(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(contextkeys.Actor)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	return c.GetString(contextkeys.UserID)
}

func abort(c *gin.Context, err error) {
	apperrors.HandleError(c, err)
	c.Abort()
}
