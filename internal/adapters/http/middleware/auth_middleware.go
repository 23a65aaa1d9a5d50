package middleware

import (
	"log"
	"strings"

	"bookhaven/internal/config"
	"bookhaven/internal/core/domain"
	"bookhaven/internal/core/services"
	"bookhaven/internal/pkg/jwt"
	"bookhaven/internal/pkg/rbac"
	"bookhaven/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// claimsKey is the locals key holding the request's validated ClaimSet
const claimsKey = "claims"

// RequireAuth authenticates a request: extracts the bearer token,
// validates signature, issuer, audience and expiry, optionally checks
// session liveness, and stashes the immutable claim set for
// downstream handlers. Public routes simply do not mount it.
func RequireAuth(cfg *config.Config, issuer *jwt.Issuer, sessions services.SessionChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string
		authHeader := c.Get("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if token == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := issuer.Validate(token)
		if err != nil {
			// Subtypes are for the log only; the caller always sees 401
			log.Printf("🚫 Token rejected [%s %s]: %v", c.Method(), c.Path(), err)
			if err == jwt.ErrTokenExpired {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		if cfg.Session.CheckLiveness {
			active, err := sessions.IsActive(c.Context(), claims.SessionID)
			if err != nil {
				log.Printf("❌ Session liveness check failed for %s: %v", claims.SessionID, err)
				return response.Unauthorized(c, "Invalid access token")
			}
			if !active {
				log.Printf("🚫 Revoked or expired session %s (user %d)", claims.SessionID, claims.UserID)
				return response.Unauthorized(c, "Session is no longer active")
			}
		}

		c.Locals(claimsKey, claims.ClaimSet())
		return c.Next()
	}
}

// RequirePermission gates one operation: it resolves the operation's
// required permission from the static table and checks exact
// membership in the caller's claim set. Unknown operations fail
// closed.
func RequirePermission(operation string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Claims(c)
		if claims == nil {
			return response.Unauthorized(c, "Unauthorized")
		}

		perm, ok := rbac.RequiredPermission(operation)
		if !ok {
			log.Printf("❌ No permission mapped for operation %q", operation)
			return response.Forbidden(c, "You don't have permission to access this resource")
		}

		if !claims.HasPermission(perm) {
			log.Printf("🚫 Denied %s: user %d (%s) lacks %q",
				operation, claims.UserID, claims.Role, perm)
			return response.Forbidden(c, "You don't have permission to access this resource")
		}

		return c.Next()
	}
}

// Claims returns the validated claim set for the request, or nil on
// routes that did not pass through RequireAuth
func Claims(c *fiber.Ctx) *domain.ClaimSet {
	claims, ok := c.Locals(claimsKey).(*domain.ClaimSet)
	if !ok {
		return nil
	}
	return claims
}
