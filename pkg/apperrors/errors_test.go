package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
	assert.Equal(t, CodeInternalError, CodeOf(errors.New("boom")))
	assert.Equal(t, CodeConflict, CodeOf(ErrDuplicate("contribution", "already pledged")))

	wrapped := fmt.Errorf("tx failed: %w", ErrClosedParent("contribution", "offer is closed"))
	assert.Equal(t, CodeClosedParent, CodeOf(wrapped))
	assert.True(t, HasCode(wrapped, CodeClosedParent))
}

func TestConflictMarkers(t *testing.T) {
	assert.Contains(t, ErrDuplicate("c", "x").Message, "duplicate")
	assert.Contains(t, ErrScheduleCollision("c", "x").Message, "schedule collision")
	assert.Contains(t, ErrTerminalState("c", "x").Message, "terminal state")
	assert.Equal(t, http.StatusConflict, ErrIllegalTransition("c", "A", "B").HTTPCode)
}

func TestHandleError_MasksInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetDebug(false)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	HandleError(c, errors.New("pq: connection refused to 10.0.0.5"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(CodeInternalError), body.Error.Code)
	assert.Equal(t, "Internal server error", body.Error.Message)
}

func TestHandleError_PassesDomainErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	HandleError(c, ErrForbidden("contribution", "only the owning organization may change status"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "only the owning organization")
	assert.Contains(t, w.Body.String(), string(CodeForbidden))
}
