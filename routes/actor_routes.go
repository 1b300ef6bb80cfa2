package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/resellpay/resellpay_backend/controllers"
	"github.com/resellpay/resellpay_backend/middleware"
	"github.com/resellpay/resellpay_backend/models"
)

// RegisterActorRoutes sets up onboarding and hierarchy routes
func RegisterActorRoutes(e *echo.Echo, actorController *controllers.ActorController) {
	actors := e.Group("/api/actors")
	actors.Use(middleware.JWTMiddleware())

	actors.POST("", actorController.CreateActor, middleware.RequireCapability(models.CapManageActors))
	actors.GET("/children", actorController.ListChildren, middleware.RequireCapability(models.CapViewHierarchy))
	actors.GET("/:id", actorController.GetActor, middleware.RequireCapability(models.CapViewHierarchy))
	actors.GET("/:id/ancestry", actorController.Ancestry, middleware.RequireCapability(models.CapViewHierarchy))
	actors.DELETE("/:id", actorController.Deactivate, middleware.RequireCapability(models.CapManageActors))
}
