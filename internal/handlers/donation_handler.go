package handlers

import (
	"net/http"

	"donation_backend/internal/middleware"
	"donation_backend/internal/models"
	"donation_backend/internal/services"
	"donation_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// DonationHandler - предложения и запросы организаций
type DonationHandler struct {
	*BaseHandler
	donationService services.DonationService
}

func NewDonationHandler(base *BaseHandler, donationService services.DonationService) *DonationHandler {
	return &DonationHandler{
		BaseHandler:     base,
		donationService: donationService,
	}
}

func (h *DonationHandler) RegisterRoutes(r *gin.RouterGroup) {
	// Public routes
	r.GET("/offers", h.ListOffers)
	r.GET("/offers/:id", h.GetOffer)
	r.GET("/requests", h.ListRequests)
	r.GET("/requests/:id", h.GetRequest)

	// Organization routes
	org := r.Group("")
	org.Use(h.authRequired, middleware.RequireRoles(models.RoleOrganization))
	{
		org.POST("/offers", h.CreateOffer)
		org.POST("/requests", h.CreateRequest)
	}

	// Organization or admin
	manage := r.Group("")
	manage.Use(h.authRequired, middleware.RequireRoles(models.RoleOrganization, models.RoleAdmin))
	{
		manage.PUT("/offers/:id/status", h.UpdateOfferStatus)
		manage.PUT("/requests/:id/close", h.CloseRequest)
	}
}

// --- Offers ---

func (h *DonationHandler) CreateOffer(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	var req dto.DonationDetailsRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	offer, err := h.donationService.CreateOffer(c.Request.Context(), actor, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, offer)
}

func (h *DonationHandler) GetOffer(c *gin.Context) {
	offerID, ok := PathID(c, "id")
	if !ok {
		return
	}

	offer, err := h.donationService.GetOffer(c.Request.Context(), offerID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

func (h *DonationHandler) ListOffers(c *gin.Context) {
	var query dto.DonationListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	offers, err := h.donationService.ListOffers(c.Request.Context(), query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, offers)
}

func (h *DonationHandler) UpdateOfferStatus(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	offerID, ok := PathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateOfferStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	offer, err := h.donationService.TransitionOffer(c.Request.Context(), actor, offerID, req.Status)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

// --- Requests ---

func (h *DonationHandler) CreateRequest(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	var req dto.DonationDetailsRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	request, err := h.donationService.CreateRequest(c.Request.Context(), actor, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

func (h *DonationHandler) GetRequest(c *gin.Context) {
	requestID, ok := PathID(c, "id")
	if !ok {
		return
	}

	request, err := h.donationService.GetRequest(c.Request.Context(), requestID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

func (h *DonationHandler) ListRequests(c *gin.Context) {
	var query dto.DonationListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	requests, err := h.donationService.ListRequests(c.Request.Context(), query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

func (h *DonationHandler) CloseRequest(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	requestID, ok := PathID(c, "id")
	if !ok {
		return
	}

	request, err := h.donationService.CloseRequest(c.Request.Context(), actor, requestID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}
