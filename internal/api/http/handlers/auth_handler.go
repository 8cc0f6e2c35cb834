package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/service-desk/internal/api/dto"
	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/service"
)

// AuthHandler issues bearer tokens.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// IssueToken POST /auth/token. The API key is read from X-API-Key.
func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	result, err := h.auth.IssueToken(c.UserContext(), c.Get(auth.APIKeyHeader))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresAt:   result.ExpiresAt,
	}})
}
