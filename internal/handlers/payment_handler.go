package handlers

import (
	"net/http"

	"donation_backend/internal/middleware"
	"donation_backend/internal/models"
	"donation_backend/internal/services"
	"donation_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	*BaseHandler
	verificationService services.VerificationService
}

func NewPaymentHandler(base *BaseHandler, verificationService services.VerificationService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:         base,
		verificationService: verificationService,
	}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	payments.Use(h.authRequired, middleware.RequireRoles(models.RoleOrganization, models.RoleAdmin))
	{
		payments.PUT("/:id/verify", h.VerifyPayment)
	}
}

func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	paymentID, ok := PathID(c, "id")
	if !ok {
		return
	}

	var req dto.VerifyPaymentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	payment, err := h.verificationService.VerifyPayment(c.Request.Context(), actor, paymentID, req.Status)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}
