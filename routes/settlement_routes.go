package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/resellpay/resellpay_backend/controllers"
	"github.com/resellpay/resellpay_backend/middleware"
	"github.com/resellpay/resellpay_backend/models"
)

// RegisterSettlementRoutes sets up settlement, payout and callback routes
func RegisterSettlementRoutes(e *echo.Echo, settlementController *controllers.SettlementController) {
	settlements := e.Group("/api/settlements")
	settlements.Use(middleware.JWTMiddleware())

	settlements.POST("/inbound", settlementController.SettleInbound, middleware.RequireTier(models.TierAdmin))
	settlements.POST("/payouts", settlementController.InitiatePayout, middleware.RequireCapability(models.CapInitiatePayout))
	settlements.GET("", settlementController.ListSettlements)
	settlements.GET("/commissions", settlementController.ListCommissions)
	settlements.GET("/:reference", settlementController.GetSettlement)

	// Processor callbacks carry no JWT; the handler re-checks the payout
	// status with the processor before moving funds.
	callbacks := e.Group("/api/settlements/payouts/callback")
	callbacks.POST("/success", settlementController.PayoutSuccessCallback)
	callbacks.POST("/failure", settlementController.PayoutFailureCallback)
}
