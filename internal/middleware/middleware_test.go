package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"donation_backend/internal/auth"
	"donation_backend/internal/logger"
	"donation_backend/internal/models"
	"donation_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	err error
}

func (r stubResolver) ResolveActor(ctx context.Context, userID string, role models.ActorRole) (models.Actor, error) {
	if r.err != nil {
		return models.Actor{}, r.err
	}
	return models.Actor{ID: "profile-" + userID, UserID: userID, Role: role}, nil
}

func newTestRouter(resolver ActorResolver, roles ...models.ActorRole) (*gin.Engine, *auth.TokenParser) {
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokenParser("test-secret")
	authn := NewAuthenticator(tokens, resolver)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	handlers := []gin.HandlerFunc{authn.Required()}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRoles(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		actor, _ := GetActor(c)
		c.JSON(http.StatusOK, gin.H{
			"actor_id":   actor.ID,
			"role":       actor.Role,
			"user_id":    GetUserID(c),
			"request_id": logger.GetRequestID(c.Request.Context()),
			"ctx_user":   logger.GetUserID(c.Request.Context()),
		})
	})
	r.GET("/me", handlers...)
	return r, tokens
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) apperrors.ErrorCode {
	t.Helper()
	var body struct {
		Error struct {
			Code apperrors.ErrorCode `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestAuthenticator_Required(t *testing.T) {
	r, tokens := newTestRouter(stubResolver{})
	token, err := tokens.Issue("user-1", "Organisation", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "profile-user-1", body["actor_id"])
	assert.Equal(t, "organization", body["role"])
	assert.Equal(t, "user-1", body["user_id"])
	assert.Equal(t, "req-42", body["request_id"])
	assert.Equal(t, "user-1", body["ctx_user"])
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestAuthenticator_QueryTokenFallback(t *testing.T) {
	r, tokens := newTestRouter(stubResolver{})
	token, err := tokens.Issue("user-2", "donor", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthenticator_Rejects(t *testing.T) {
	r, tokens := newTestRouter(stubResolver{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.CodeUnauthorized, errorCode(t, w))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.CodeInvalidToken, errorCode(t, w))

	unknownRole, err := tokens.Issue("user-1", "moderator", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+unknownRole)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticator_ResolverErrorsPassThrough(t *testing.T) {
	r, tokens := newTestRouter(stubResolver{err: apperrors.ErrForbidden("organization", "organization is blocked")})
	token, err := tokens.Issue("user-1", "organization", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperrors.CodeForbidden, errorCode(t, w))
}

func TestRequireRoles(t *testing.T) {
	r, tokens := newTestRouter(stubResolver{}, models.RoleAdmin)

	donor, err := tokens.Issue("user-1", "donor", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+donor)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin, err := tokens.Issue("user-9", "admin", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example.com"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
