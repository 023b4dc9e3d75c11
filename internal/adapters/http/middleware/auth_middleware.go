package middleware

import (
	"context"
	"errors"
	"strings"

	"sistema-vacunacion/internal/core/domain"
	"sistema-vacunacion/internal/core/services"
	"sistema-vacunacion/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

// Authenticator resolves a bearer token into the acting identity
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
}

// AuthMiddleware requires a valid access token from an active account
func AuthMiddleware(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := auth.Authenticate(c.Context(), accessToken(c))
		if err != nil {
			switch {
			case errors.Is(err, services.ErrMissingToken):
				return response.Unauthorized(c, "Access token required")
			case errors.Is(err, services.ErrTokenExpired):
				return response.Unauthorized(c, "Access token expired")
			case errors.Is(err, services.ErrInvalidToken):
				return response.Unauthorized(c, "Invalid access token")
			case errors.Is(err, services.ErrUserInactive):
				return response.Forbidden(c, "User account is inactive")
			default:
				return response.InternalServerError(c, "Failed to authenticate")
			}
		}

		c.Locals(identityKey, identity)
		c.Locals("userID", identity.UserID)

		return c.Next()
	}
}

// accessToken reads the token from the Authorization header, then the cookie
func accessToken(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return c.Cookies("access_token")
}

// RoleMiddleware allows identities holding any of the given roles (case-insensitive)
func RoleMiddleware(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := Identity(c)
		if identity == nil {
			return response.Unauthorized(c, "Unauthorized")
		}

		if !identity.HasRole(allowedRoles...) {
			return response.Forbidden(c, "You don't have permission to access this resource")
		}

		return c.Next()
	}
}

// AdminOnly allows only the administrator role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}

// StaffOnly allows administrators, doctors and nurses
func StaffOnly() fiber.Handler {
	return RoleMiddleware(domain.StaffRoles...)
}

// Identity returns the identity set by AuthMiddleware, nil when absent
func Identity(c *fiber.Ctx) *domain.Identity {
	identity, _ := c.Locals(identityKey).(*domain.Identity)
	return identity
}

// Actor is the name recorded in the audit log for the current request
func Actor(c *fiber.Ctx) string {
	if identity := Identity(c); identity != nil {
		return identity.Name
	}
	return domain.SystemActor
}
