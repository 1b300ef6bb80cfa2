package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/resellpay/resellpay_backend/controllers"
	"github.com/resellpay/resellpay_backend/middleware"
	"github.com/resellpay/resellpay_backend/models"
)

// RegisterWalletRoutes sets up balance, statement and adjustment routes
func RegisterWalletRoutes(e *echo.Echo, walletController *controllers.WalletController) {
	wallet := e.Group("/api/wallet")
	wallet.Use(middleware.JWTMiddleware())

	wallet.GET("/balance", walletController.Balance)
	wallet.GET("/statement", walletController.Statement)
	wallet.POST("/adjustments", walletController.Adjust, middleware.RequireCapability(models.CapWalletAdjust))
}
