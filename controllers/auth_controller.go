package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/resellpay/resellpay_backend/middleware"
	"github.com/resellpay/resellpay_backend/models"
	"github.com/resellpay/resellpay_backend/repositories"
)

// AuthController contains authentication logic
type AuthController struct {
	Actors        *repositories.ActorRepository
	logger        *log.Logger
	loginAttempts map[string]struct {
		count       int
		lastAttempt time.Time
	}
	loginAttemptsMu sync.RWMutex
}

// NewAuthController creates a new auth controller
func NewAuthController(actors *repositories.ActorRepository) *AuthController {
	ac := &AuthController{
		Actors: actors,
		logger: log.New(os.Stdout, "[AUTH] ", log.LstdFlags),
		loginAttempts: make(map[string]struct {
			count       int
			lastAttempt time.Time
		}),
	}

	go ac.startLoginAttemptCleanupRoutine()

	return ac
}

// startLoginAttemptCleanupRoutine periodically drops stale failed-login
// counters so the map doesn't grow without bound.
func (ac *AuthController) startLoginAttemptCleanupRoutine() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		ac.loginAttemptsMu.Lock()
		for email, attempts := range ac.loginAttempts {
			if time.Since(attempts.lastAttempt) > 30*time.Minute {
				delete(ac.loginAttempts, email)
			}
		}
		ac.loginAttemptsMu.Unlock()
	}
}

func (ac *AuthController) recordFailedAttempt(email string) {
	ac.loginAttemptsMu.Lock()
	defer ac.loginAttemptsMu.Unlock()

	attempts := ac.loginAttempts[email]
	attempts.count++
	attempts.lastAttempt = time.Now()
	ac.loginAttempts[email] = attempts
}

func (ac *AuthController) clearFailedAttempts(email string) {
	ac.loginAttemptsMu.Lock()
	defer ac.loginAttemptsMu.Unlock()
	delete(ac.loginAttempts, email)
}

// Login authenticates an actor by email and password and issues JWT tokens
func (ac *AuthController) Login(c echo.Context) error {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var loginReq models.LoginRequest
	if err := c.Bind(&loginReq); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&loginReq); err != nil {
		return respond(c, http.StatusBadRequest, "Email and password are required")
	}

	email := strings.ToLower(strings.TrimSpace(loginReq.Email))

	ac.loginAttemptsMu.RLock()
	attempts, exists := ac.loginAttempts[email]
	ac.loginAttemptsMu.RUnlock()

	if exists && attempts.count >= 5 && time.Since(attempts.lastAttempt) < 30*time.Minute {
		return respond(c, http.StatusTooManyRequests, "Too many failed login attempts. Please try again later.")
	}

	actor, err := ac.Actors.GetActorByEmail(ctx, email)
	if err != nil {
		ac.logger.Printf("login lookup failed for %s: %v", email, err)
		return respond(c, http.StatusInternalServerError, "Failed to process login")
	}
	if actor == nil {
		ac.recordFailedAttempt(email)
		return respond(c, http.StatusUnauthorized, "Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(actor.Password), []byte(loginReq.Password)); err != nil {
		ac.recordFailedAttempt(email)
		return respond(c, http.StatusUnauthorized, "Invalid email or password")
	}

	if !actor.IsActive {
		return respond(c, http.StatusForbidden, "Account is deactivated")
	}

	ac.clearFailedAttempts(email)

	token, refreshToken, err := middleware.GenerateJWT(actor.ID.Hex(), actor.Email, actor.Tier)
	if err != nil {
		ac.logger.Printf("token generation failed for %s: %v", email, err)
		return respond(c, http.StatusInternalServerError, "Failed to generate tokens")
	}

	actor.Password = ""
	return respondData(c, http.StatusOK, "Login successful", models.LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		Actor:        actor,
	})
}

// Me returns the authenticated actor's own record
func (ac *AuthController) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actorID, err := middleware.ExtractActorID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Invalid token")
	}

	id, err := parseObjectID(actorID)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Invalid token")
	}

	actor, err := ac.Actors.GetActor(ctx, id)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Failed to fetch actor")
	}
	if actor == nil {
		return respond(c, http.StatusNotFound, "Actor not found")
	}

	actor.Password = ""
	return respondData(c, http.StatusOK, "Actor retrieved successfully", actor)
}
