package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"donation_backend/internal/models"
	"donation_backend/internal/services"
	"donation_backend/internal/services/dto"
	"donation_backend/internal/validator"
	"donation_backend/pkg/apperrors"
	"donation_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLifecycle struct {
	services.LifecycleService
	submitted *models.ParentRef
	submitErr error
}

func (s *stubLifecycle) SubmitContribution(_ context.Context, actor models.Actor, parent models.ParentRef, req *dto.SubmitContributionRequest) (*dto.ContributionResponse, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	s.submitted = &parent
	return &dto.ContributionResponse{ID: "contribution-1", DonorID: actor.ID, Quantity: req.Quantity, Status: models.ContributionStatusPending}, nil
}

type stubDonations struct {
	services.DonationService
}

func (stubDonations) ListOffers(_ context.Context, query dto.DonationListQuery) (*dto.DonationListResponse, error) {
	return &dto.DonationListResponse{
		Items:    []*dto.DonationResponse{{ID: "offer-1", Kind: string(models.ParentOffer)}},
		ListMeta: dto.NewListMeta(1, query.PaginationQuery),
	}, nil
}

// fakeAuth выставляет актора из заголовка X-Role
func fakeAuth(c *gin.Context) {
	role := c.GetHeader("X-Role")
	if role == "" {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("authentication required"))
		c.Abort()
		return
	}
	c.Set(contextkeys.Actor, models.Actor{ID: "actor-1", UserID: "user-1", Role: models.ActorRole(role)})
	c.Next()
}

func newTestRouter(lifecycle services.LifecycleService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	base := NewBaseHandler(validator.New(), fakeAuth)
	appHandlers := &AppHandlers{
		DonationHandler:     NewDonationHandler(base, stubDonations{}),
		ContributionHandler: NewContributionHandler(base, lifecycle),
		PaymentHandler:      NewPaymentHandler(base, nil),
		OrganizationHandler: NewOrganizationHandler(base, nil),
		AdminHandler:        NewAdminHandler(base, nil),
		NotificationHandler: NewNotificationHandler(base, nil),
	}
	engine := gin.New()
	appHandlers.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func doRequest(engine *gin.Engine, method, path, role, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("X-Role", role)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code, body.Error.Message
}

func TestSubmitToOffer(t *testing.T) {
	lifecycle := &stubLifecycle{}
	engine := newTestRouter(lifecycle)

	w := doRequest(engine, http.MethodPost, "/api/v1/offers/offer-1/contributions", "donor", `{"quantity": 2}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, lifecycle.submitted)
	assert.Equal(t, models.ParentRef{Kind: models.ParentOffer, ID: "offer-1"}, *lifecycle.submitted)

	var resp dto.ContributionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "actor-1", resp.DonorID)
	assert.Equal(t, 2, resp.Quantity)
}

func TestSubmitToRequest_UsesRequestParent(t *testing.T) {
	lifecycle := &stubLifecycle{}
	engine := newTestRouter(lifecycle)

	w := doRequest(engine, http.MethodPost, "/api/v1/requests/request-9/contributions", "donor", `{"amount": 25}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, models.ParentRef{Kind: models.ParentRequest, ID: "request-9"}, *lifecycle.submitted)
}

func TestSubmit_RoleAndAuthBoundaries(t *testing.T) {
	engine := newTestRouter(&stubLifecycle{})

	w := doRequest(engine, http.MethodPost, "/api/v1/offers/offer-1/contributions", "", `{"quantity": 1}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(engine, http.MethodPost, "/api/v1/offers/offer-1/contributions", "organization", `{"quantity": 1}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	code, _ := errorCode(t, w)
	assert.Equal(t, string(apperrors.CodeForbidden), code)

	w = doRequest(engine, http.MethodPut, "/api/v1/contributions/c-1/pickup-status", "admin", `{"pickup_status": "COMPLETED"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubmit_InvalidBody(t *testing.T) {
	engine := newTestRouter(&stubLifecycle{})

	w := doRequest(engine, http.MethodPost, "/api/v1/offers/offer-1/contributions", "donor", `{"quantity": -1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	code, _ := errorCode(t, w)
	assert.Equal(t, string(apperrors.CodeValidationFailed), code)

	w = doRequest(engine, http.MethodPost, "/api/v1/offers/offer-1/contributions", "donor", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmit_ServiceErrorsAreMapped(t *testing.T) {
	engine := newTestRouter(&stubLifecycle{
		submitErr: apperrors.ErrScheduleCollision("contribution", "organization already has a pickup near this time"),
	})

	w := doRequest(engine, http.MethodPost, "/api/v1/offers/offer-1/contributions", "donor", `{"quantity": 1}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	code, message := errorCode(t, w)
	assert.Equal(t, string(apperrors.CodeConflict), code)
	assert.Contains(t, message, "schedule collision")
}

func TestListOffersIsPublic(t *testing.T) {
	engine := newTestRouter(&stubLifecycle{})

	w := doRequest(engine, http.MethodGet, "/api/v1/offers?page=2&page_size=5", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.DonationListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 5, resp.PageSize)

	w = doRequest(engine, http.MethodGet, "/api/v1/offers?category=weapons", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
