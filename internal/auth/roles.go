package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/support-desk/internal/domain"
	apperrors "github.com/deskflow/support-desk/pkg/util/errorutil"
)

// RequireRole lets the request through when the principal holds one of
// allowed. An empty list only requires authentication.
func RequireRole(allowed ...domain.UserRole) fiber.Handler {
	allowedSet := make(map[domain.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
