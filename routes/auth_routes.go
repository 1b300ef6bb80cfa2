package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/resellpay/resellpay_backend/controllers"
	"github.com/resellpay/resellpay_backend/middleware"
)

// RegisterAuthRoutes sets up authentication routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	// Public authentication routes
	e.POST("/api/auth/login", authController.Login)

	// Protected routes
	auth := e.Group("/api/auth")
	auth.Use(middleware.JWTMiddleware())
	auth.GET("/me", authController.Me)
}
