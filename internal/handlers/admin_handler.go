package handlers

import (
	"net/http"

	"donation_backend/internal/middleware"
	"donation_backend/internal/models"
	"donation_backend/internal/services"
	"donation_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// AdminHandler - модерация организаций и блокировки
type AdminHandler struct {
	*BaseHandler
	verificationService services.VerificationService
}

func NewAdminHandler(base *BaseHandler, verificationService services.VerificationService) *AdminHandler {
	return &AdminHandler{
		BaseHandler:         base,
		verificationService: verificationService,
	}
}

func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	admin.Use(h.authRequired, middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/organizations", h.ListOrganizations)
		admin.GET("/organizations/:id", h.GetOrganization)
		admin.PUT("/organizations/:id/verification", h.VerifyOrganization)
		admin.PUT("/organizations/:id/block", h.BlockOrganization)
		admin.PUT("/organizations/:id/profile-changes/approve", h.ApproveProfileChange)
		admin.PUT("/organizations/:id/profile-changes/reject", h.RejectProfileChange)
		admin.PUT("/donors/:id/block", h.BlockDonor)
	}
}

func (h *AdminHandler) ListOrganizations(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	var query dto.OrganizationListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	organizations, err := h.verificationService.ListOrganizations(c.Request.Context(), actor, query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, organizations)
}

func (h *AdminHandler) GetOrganization(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	organizationID, ok := PathID(c, "id")
	if !ok {
		return
	}

	org, err := h.verificationService.GetOrganization(c.Request.Context(), actor, organizationID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

func (h *AdminHandler) VerifyOrganization(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	organizationID, ok := PathID(c, "id")
	if !ok {
		return
	}

	var req dto.VerifyOrganizationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	org, err := h.verificationService.VerifyOrganization(c.Request.Context(), actor, organizationID, req.Status, req.Reason)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

func (h *AdminHandler) BlockOrganization(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	organizationID, ok := PathID(c, "id")
	if !ok {
		return
	}

	var req dto.BlockRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	org, err := h.verificationService.SetOrganizationBlocked(c.Request.Context(), actor, organizationID, req.Blocked, req.Reason)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

func (h *AdminHandler) BlockDonor(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	donorID, ok := PathID(c, "id")
	if !ok {
		return
	}

	var req dto.BlockRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	donor, err := h.verificationService.SetDonorBlocked(c.Request.Context(), actor, donorID, req.Blocked, req.Reason)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, donor)
}

func (h *AdminHandler) ApproveProfileChange(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	organizationID, ok := PathID(c, "id")
	if !ok {
		return
	}

	org, err := h.verificationService.ApproveProfileChange(c.Request.Context(), actor, organizationID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

func (h *AdminHandler) RejectProfileChange(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	organizationID, ok := PathID(c, "id")
	if !ok {
		return
	}

	var req dto.RejectProfileChangeRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	org, err := h.verificationService.RejectProfileChange(c.Request.Context(), actor, organizationID, req.Reason)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}
