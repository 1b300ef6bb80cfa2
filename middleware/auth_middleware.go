// middleware/auth_middleware.go
package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/resellpay/resellpay_backend/models"
)

// RequireCapability checks that the authenticated actor's tier grants the
// capability, derived once from the tier rather than per-action flags.
func RequireCapability(capability models.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tier := ExtractTier(c)
			if tier == "" {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication failed: tier not found",
				})
			}

			if !models.HasCapability(tier, capability) {
				return c.JSON(http.StatusForbidden, models.Response{
					Status:  http.StatusForbidden,
					Message: "Access denied for your tier",
				})
			}

			return next(c)
		}
	}
}

// RequireTier checks that the authenticated actor has one of the allowed tiers
func RequireTier(allowedTiers ...models.Tier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tier := ExtractTier(c)
			if tier == "" {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication failed: tier not found",
				})
			}

			for _, allowed := range allowedTiers {
				if tier == allowed {
					return next(c)
				}
			}

			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Access denied for your tier",
			})
		}
	}
}
