package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/service-desk/internal/auth"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

// TokenResult is a freshly issued bearer token.
type TokenResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// AuthService exchanges API keys for short-lived bearer tokens.
type AuthService struct {
	resolver *auth.Resolver
	tokens   *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(resolver *auth.Resolver, tokens *auth.TokenManager) *AuthService {
	return &AuthService{resolver: resolver, tokens: tokens}
}

// IssueToken verifies apiKey and signs a token for its owner.
func (s *AuthService) IssueToken(ctx context.Context, apiKey string) (*TokenResult, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, apperrors.NewUnauthorized(auth.CodeMissingAPIKey)
	}
	user, err := s.resolver.Resolve(ctx, auth.Credential{APIKey: apiKey})
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &TokenResult{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}
