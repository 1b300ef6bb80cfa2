package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/resellpay/resellpay_backend/controllers"
)

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo,
	authController *controllers.AuthController,
	actorController *controllers.ActorController,
	rateController *controllers.RateController,
	walletController *controllers.WalletController,
	settlementController *controllers.SettlementController,
) {
	RegisterAuthRoutes(e, authController)
	RegisterActorRoutes(e, actorController)
	RegisterPricingRoutes(e, rateController)
	RegisterWalletRoutes(e, walletController)
	RegisterSettlementRoutes(e, settlementController)
}
