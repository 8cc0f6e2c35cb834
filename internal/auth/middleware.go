package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/service-desk/internal/domain"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "X-API-Key"

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User     *domain.User
	Identity domain.Identity
}

// AuthMiddleware resolves the caller from X-API-Key or a bearer token.
type AuthMiddleware struct {
	resolver *Resolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(resolver *Resolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// Authenticate resolves the caller and stores the principal on the context
// without continuing the chain.
func (m *AuthMiddleware) Authenticate(c *fiber.Ctx) (*Principal, error) {
	cred := Credential{APIKey: strings.TrimSpace(c.Get(APIKeyHeader))}
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			cred.BearerToken = strings.TrimSpace(parts[1])
		}
	}

	user, err := m.resolver.Resolve(c.UserContext(), cred)
	if err != nil {
		return nil, err
	}

	principal := &Principal{User: user, Identity: user.Identity()}
	c.Locals(principalKey, principal)
	return principal, nil
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	if _, err := m.Authenticate(c); err != nil {
		return err
	}
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
