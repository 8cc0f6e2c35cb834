package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/service-desk/internal/domain"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

const (
	CodeAdminOnly        = "admin_only"
	CodeAgentOrAdminOnly = "agent_or_admin_only"
)

// RequireAdmin rejects callers that are not administrators.
func RequireAdmin() fiber.Handler {
	return requireRole(CodeAdminOnly, domain.RoleAdmin)
}

// RequireAgentOrAdmin rejects employees.
func RequireAgentOrAdmin() fiber.Handler {
	return requireRole(CodeAgentOrAdminOnly, domain.RoleAgent, domain.RoleAdmin)
}

func requireRole(code string, allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(CodeMissingAPIKey)
		}
		if _, exists := allowedSet[principal.Identity.Role]; !exists {
			return apperrors.NewForbidden(code)
		}
		return c.Next()
	}
}
