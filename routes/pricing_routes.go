package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/resellpay/resellpay_backend/controllers"
	"github.com/resellpay/resellpay_backend/middleware"
	"github.com/resellpay/resellpay_backend/models"
)

// RegisterPricingRoutes sets up channel administration and rate assignment
func RegisterPricingRoutes(e *echo.Echo, rateController *controllers.RateController) {
	channels := e.Group("/api/channels")
	channels.Use(middleware.JWTMiddleware())
	channels.GET("", rateController.ListChannels)
	channels.POST("", rateController.CreateChannel, middleware.RequireCapability(models.CapManageChannels))
	channels.PATCH("/:id/active", rateController.SetChannelActive, middleware.RequireCapability(models.CapManageChannels))

	pricing := e.Group("/api/pricing")
	pricing.Use(middleware.JWTMiddleware())
	pricing.POST("/rates", rateController.AssignRate, middleware.RequireCapability(models.CapAssignPricing))
	pricing.DELETE("/rates/:targetId/:channelId", rateController.DisableRate, middleware.RequireCapability(models.CapAssignPricing))
	pricing.POST("/slabs", rateController.AssignSlabs, middleware.RequireCapability(models.CapAssignPricing))
	pricing.POST("/tier-defaults", rateController.SetTierDefault, middleware.RequireTier(models.TierAdmin))
	pricing.POST("/tier-slabs", rateController.SetTierSlabs, middleware.RequireTier(models.TierAdmin))
	pricing.POST("/quote", rateController.ResolveCharge)
}
