package handlers

import (
	"net/http"

	"donation_backend/internal/middleware"
	"donation_backend/internal/models"
	"donation_backend/internal/services"
	"donation_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// ContributionHandler - подача взносов и их жизненный цикл
type ContributionHandler struct {
	*BaseHandler
	lifecycleService services.LifecycleService
}

func NewContributionHandler(base *BaseHandler, lifecycleService services.LifecycleService) *ContributionHandler {
	return &ContributionHandler{
		BaseHandler:      base,
		lifecycleService: lifecycleService,
	}
}

func (h *ContributionHandler) RegisterRoutes(r *gin.RouterGroup) {
	donor := r.Group("")
	donor.Use(h.authRequired, middleware.RequireRoles(models.RoleDonor))
	{
		donor.POST("/offers/:id/contributions", h.SubmitToOffer)
		donor.POST("/requests/:id/contributions", h.SubmitToRequest)
	}

	contributions := r.Group("/contributions")
	contributions.Use(h.authRequired)
	{
		contributions.GET("", h.ListContributions)
		contributions.GET("/:id", h.GetContribution)

		manage := contributions.Group("")
		manage.Use(middleware.RequireRoles(models.RoleOrganization, models.RoleAdmin))
		manage.PUT("/:id/status", h.UpdateStatus)
		manage.PUT("/:id/pickup-time", h.UpdatePickupTime)

		contributions.PUT("/:id/pickup-status", middleware.RequireRoles(models.RoleOrganization), h.UpdatePickupStatus)
	}
}

func (h *ContributionHandler) SubmitToOffer(c *gin.Context) {
	h.submit(c, models.ParentOffer)
}

func (h *ContributionHandler) SubmitToRequest(c *gin.Context) {
	h.submit(c, models.ParentRequest)
}

func (h *ContributionHandler) submit(c *gin.Context, kind models.ParentKind) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	parentID, ok := PathID(c, "id")
	if !ok {
		return
	}

	var req dto.SubmitContributionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	parent := models.ParentRef{Kind: kind, ID: parentID}
	contribution, err := h.lifecycleService.SubmitContribution(c.Request.Context(), actor, parent, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contribution)
}

func (h *ContributionHandler) GetContribution(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	contributionID, ok := PathID(c, "id")
	if !ok {
		return
	}

	contribution, err := h.lifecycleService.GetContribution(c.Request.Context(), actor, contributionID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, contribution)
}

func (h *ContributionHandler) ListContributions(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	var query dto.ContributionListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	contributions, err := h.lifecycleService.ListContributions(c.Request.Context(), actor, query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, contributions)
}

func (h *ContributionHandler) UpdateStatus(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	contributionID, ok := PathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateContributionStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	contribution, err := h.lifecycleService.TransitionContribution(c.Request.Context(), actor, contributionID, req.Status)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, contribution)
}

func (h *ContributionHandler) UpdatePickupTime(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	contributionID, ok := PathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePickupTimeRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	contribution, err := h.lifecycleService.UpdatePickupSchedule(c.Request.Context(), actor, contributionID, req.PickupTime)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, contribution)
}

func (h *ContributionHandler) UpdatePickupStatus(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	contributionID, ok := PathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePickupStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	contribution, err := h.lifecycleService.TransitionPickup(c.Request.Context(), actor, contributionID, req.PickupStatus)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, contribution)
}
