package handlers

import "github.com/gin-gonic/gin"

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	DonationHandler     *DonationHandler
	ContributionHandler *ContributionHandler
	PaymentHandler      *PaymentHandler
	OrganizationHandler *OrganizationHandler
	AdminHandler        *AdminHandler
	NotificationHandler *NotificationHandler
}

// RegisterRoutes подключает маршруты всех хэндлеров к группе API
func (a *AppHandlers) RegisterRoutes(api *gin.RouterGroup) {
	a.DonationHandler.RegisterRoutes(api)
	a.ContributionHandler.RegisterRoutes(api)
	a.PaymentHandler.RegisterRoutes(api)
	a.OrganizationHandler.RegisterRoutes(api)
	a.AdminHandler.RegisterRoutes(api)
	a.NotificationHandler.RegisterRoutes(api)
}
