package handlers

import (
	"net/http"

	"donation_backend/internal/middleware"
	"donation_backend/internal/models"
	"donation_backend/internal/services"
	"donation_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// OrganizationHandler - профиль организации и заявки на его изменение
type OrganizationHandler struct {
	*BaseHandler
	verificationService services.VerificationService
}

func NewOrganizationHandler(base *BaseHandler, verificationService services.VerificationService) *OrganizationHandler {
	return &OrganizationHandler{
		BaseHandler:         base,
		verificationService: verificationService,
	}
}

func (h *OrganizationHandler) RegisterRoutes(r *gin.RouterGroup) {
	organizations := r.Group("/organizations")
	organizations.Use(h.authRequired)
	{
		organizations.GET("/:id", h.GetOrganization)

		own := organizations.Group("/me")
		own.Use(middleware.RequireRoles(models.RoleOrganization))
		own.GET("", h.GetOwnOrganization)
		own.POST("/profile-changes", h.SubmitProfileChange)
	}
}

func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
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

func (h *OrganizationHandler) GetOwnOrganization(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	org, err := h.verificationService.GetOrganization(c.Request.Context(), actor, actor.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

func (h *OrganizationHandler) SubmitProfileChange(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	var req dto.ProfileChangeRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	org, err := h.verificationService.SubmitProfileChange(c.Request.Context(), actor, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, org)
}
