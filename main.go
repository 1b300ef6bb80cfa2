package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/resellpay/resellpay_backend/config"
	"github.com/resellpay/resellpay_backend/controllers"
	"github.com/resellpay/resellpay_backend/middleware"
	"github.com/resellpay/resellpay_backend/repositories"
	"github.com/resellpay/resellpay_backend/routes"
	"github.com/resellpay/resellpay_backend/services"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis
	config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeaders(middleware.SecurityConfig{
		AllowedDomains: []string{"*"},
	}))

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Resellpay Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	e.Use(httpsRedirect())

	// Initialize repositories
	actorRepo := repositories.NewActorRepository(client)
	rateRepo := repositories.NewRateRepository(client)
	ledgerRepo := repositories.NewLedgerRepository(client)
	settlementRepo := repositories.NewSettlementRepository(client)

	// Initialize services
	pricingCache := services.NewPricingCache(config.GetRedisClient())
	resolver := services.NewRateResolver(actorRepo, rateRepo, pricingCache)
	ledger := services.NewLedger(ledgerRepo, time.Now)
	engine := services.NewCommissionEngine(actorRepo, rateRepo, resolver, ledger, ledgerRepo, settlementRepo, time.Now)
	settlements := services.NewSettlementService(actorRepo, resolver, ledger, ledgerRepo, settlementRepo, engine, time.Now)
	assignments := services.NewRateAssignmentService(actorRepo, rateRepo, resolver, pricingCache, time.Now)
	processor := services.NewProcessorService()

	// Initialize controllers
	authController := controllers.NewAuthController(actorRepo)
	actorController := controllers.NewActorController(actorRepo)
	rateController := controllers.NewRateController(rateRepo, assignments, settlements)
	walletController := controllers.NewWalletController(ledgerRepo, actorRepo, ledger)
	settlementController := controllers.NewSettlementController(settlements, processor, settlementRepo)

	// Setup routes
	routes.SetupRoutes(e, authController, actorController, rateController, walletController, settlementController)

	// Retry queued commission credits in the background
	go func() {
		for {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			engine.RetryFailedCommissions(ctx, 100)
			cancel()
			time.Sleep(5 * time.Minute)
		}
	}()

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(301, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
