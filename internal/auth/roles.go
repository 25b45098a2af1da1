package auth

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-desk/internal/domain"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// RequireRoles ensures the caller holds one of the allowed roles.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	names := make([]string, 0, len(allowed))
	for _, role := range allowed {
		names = append(names, role.String())
	}
	message := fmt.Sprintf("access denied. required role(s): %s", strings.Join(names, ", "))

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(UnauthenticatedMessage)
		}
		if !HasRole(identity, allowed...) {
			return apperrors.NewForbidden(message)
		}
		return c.Next()
	}
}

// HasRole reports whether identity holds one of roles.
func HasRole(identity domain.Identity, roles ...domain.Role) bool {
	for _, role := range roles {
		if identity.Role == role {
			return true
		}
	}
	return false
}
