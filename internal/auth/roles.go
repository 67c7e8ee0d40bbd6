package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civiops/helpdesk-service/internal/domain"
	apperrors "github.com/civiops/helpdesk-service/pkg/util"
)

// RequireRole ensures the caller carries one of the allowed roles. Fine-grained
// ownership checks stay with the policy package; this guard only fences whole
// route groups.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[identity.Role]; !exists {
			return apperrors.NewDenied("insufficient role")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures the caller is logged in, regardless of role.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
