package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/observability"
	"github.com/spec-kit/service-desk/internal/repository"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

const (
	CodeMissingAPIKey = "missing_api_key"
	CodeInvalidAPIKey = "invalid_api_key"
	CodeInvalidToken  = "invalid_token"
	CodeUserInactive  = "user_inactive"
)

// Credential is what a caller presented. BearerToken wins when both are set.
type Credential struct {
	APIKey      string
	BearerToken string
}

// Resolver turns a credential into an active user.
type Resolver struct {
	users   repository.UserRepository
	tokens  *TokenManager
	cache   IdentityCache
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewResolver wires a resolver. cache may be nil.
func NewResolver(users repository.UserRepository, tokens *TokenManager, cache IdentityCache, metrics *observability.Metrics, logger *zap.Logger) *Resolver {
	if cache == nil {
		cache = noopCache{}
	}
	return &Resolver{users: users, tokens: tokens, cache: cache, metrics: metrics, logger: logger}
}

// Resolve authenticates the credential and returns the current user row.
func (r *Resolver) Resolve(ctx context.Context, cred Credential) (*domain.User, error) {
	var (
		user *domain.User
		err  error
	)
	switch {
	case cred.BearerToken != "":
		user, err = r.fromToken(ctx, cred.BearerToken)
	case cred.APIKey != "":
		user, err = r.fromAPIKey(ctx, cred.APIKey)
	default:
		return nil, apperrors.NewUnauthorized(CodeMissingAPIKey)
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.NewForbidden(CodeUserInactive)
	}
	return user, nil
}

func (r *Resolver) fromToken(ctx context.Context, raw string) (*domain.User, error) {
	if r.tokens == nil {
		return nil, apperrors.NewUnauthorized(CodeInvalidToken)
	}
	claims, err := r.tokens.ParseToken(raw)
	if err != nil {
		return nil, apperrors.NewUnauthorized(CodeInvalidToken)
	}
	user, err := r.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewUnauthorized(CodeInvalidToken)
	}
	if err != nil {
		return nil, repository.MapError(err, "")
	}
	return user, nil
}

func (r *Resolver) fromAPIKey(ctx context.Context, raw string) (*domain.User, error) {
	prefix, secret, err := ParseAPIKey(raw)
	if err != nil {
		return nil, apperrors.NewUnauthorized(CodeInvalidAPIKey)
	}

	if user := r.cached(ctx, raw, prefix); user != nil {
		return user, nil
	}

	user, err := r.users.GetByAPIKeyPrefix(ctx, prefix)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewUnauthorized(CodeInvalidAPIKey)
	}
	if err != nil {
		return nil, repository.MapError(err, "")
	}
	if !VerifySecret(user.APIKeyHash, secret) {
		return nil, apperrors.NewUnauthorized(CodeInvalidAPIKey)
	}

	if err := r.cache.Remember(ctx, raw, user.ID); err != nil {
		r.logger.Warn("identity cache write failed", zap.Error(err))
	}
	return user, nil
}

// cached returns the user for a previously verified key, or nil on any miss.
// Cache failures degrade to the bcrypt path.
func (r *Resolver) cached(ctx context.Context, raw, prefix string) *domain.User {
	id, ok, err := r.cache.Lookup(ctx, raw)
	switch {
	case err != nil:
		r.metrics.RecordIdentityCache("error")
		r.logger.Warn("identity cache read failed", zap.Error(err))
		return nil
	case !ok:
		r.metrics.RecordIdentityCache("miss")
		return nil
	}

	user, err := r.users.GetByID(ctx, id)
	if err != nil || user.APIKeyPrefix != prefix {
		r.metrics.RecordIdentityCache("miss")
		return nil
	}
	r.metrics.RecordIdentityCache("hit")
	return user
}
