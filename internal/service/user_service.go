package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/events"
	"github.com/spec-kit/service-desk/internal/repository"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

const (
	CodeBootstrapNotConfigured = "admin_bootstrap_key_not_configured"
	CodeInvalidBootstrapKey    = "invalid_bootstrap_key"
)

// UserService manages accounts and their API keys.
type UserService struct {
	store        repository.Store
	keys         *auth.KeyGenerator
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	bootstrapKey string
	now          func() time.Time
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	Store        repository.Store
	Keys         *auth.KeyGenerator
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	BootstrapKey string
	Now          func() time.Time
}

// CreateUserInput describes a new account. An empty Role means employee.
type CreateUserInput struct {
	FullName string
	Email    string
	Role     domain.Role
}

// CreatedUser is returned once, with the only copy of the plaintext key.
type CreatedUser struct {
	User   *domain.User
	APIKey string
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		store:        deps.Store,
		keys:         deps.Keys,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
		bootstrapKey: deps.BootstrapKey,
		now:          now,
	}
}

// AdminExists reports whether bootstrap is closed.
func (s *UserService) AdminExists(ctx context.Context) (bool, error) {
	exists, err := s.store.Users().ExistsWithRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, repository.MapError(err, "")
	}
	return exists, nil
}

// Bootstrap creates the first administrator. It only works while no admin
// exists and presentedKey matches the configured bootstrap key.
func (s *UserService) Bootstrap(ctx context.Context, presentedKey string, input CreateUserInput) (*CreatedUser, error) {
	if s.bootstrapKey == "" {
		return nil, apperrors.NewDomainError(CodeBootstrapNotConfigured, "", http.StatusInternalServerError, nil)
	}
	if subtle.ConstantTimeCompare([]byte(presentedKey), []byte(s.bootstrapKey)) != 1 {
		return nil, apperrors.NewForbidden(CodeInvalidBootstrapKey)
	}

	input.Role = domain.RoleAdmin
	var created *CreatedUser
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		exists, err := tx.Users().ExistsWithRole(ctx, domain.RoleAdmin)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.NewForbidden(auth.CodeAdminOnly)
		}
		created, err = s.insert(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, s.mapWriteError(err)
	}

	s.logger.Info("admin bootstrapped", zap.Int64("user_id", created.User.ID))
	s.publish(ctx, events.NewEvent(events.EventUserCreated, created.User.ID, created.User.Identity(), created.User.CreatedAt,
		events.UserCreatedPayload{Email: created.User.Email, Role: created.User.Role}))
	return created, nil
}

// Create adds a user on behalf of an administrator.
func (s *UserService) Create(ctx context.Context, actor domain.Identity, input CreateUserInput) (*CreatedUser, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = domain.RoleEmployee
	}

	var created *CreatedUser
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		created, err = s.insert(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, s.mapWriteError(err)
	}

	s.logger.Info("user created",
		zap.Int64("user_id", created.User.ID),
		zap.String("role", string(created.User.Role)),
		zap.Int64("actor_id", actor.UserID))
	s.publish(ctx, events.NewEvent(events.EventUserCreated, created.User.ID, actor, created.User.CreatedAt,
		events.UserCreatedPayload{Email: created.User.Email, Role: created.User.Role}))
	return created, nil
}

// List returns users ordered by id. Admin only.
func (s *UserService) List(ctx context.Context, actor domain.Identity, limit, offset int) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = repository.DefaultListLimit
	}
	if limit > repository.MaxListLimit {
		limit = repository.MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.store.Users().List(ctx, limit, offset)
	if err != nil {
		return nil, repository.MapError(err, "")
	}
	return users, nil
}

// Me returns the caller's own record.
func (s *UserService) Me(ctx context.Context, actor domain.Identity) (*domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, repository.MapError(err, apperrors.CodeUserNotFound)
	}
	return user, nil
}

// UpdateRole changes a user's role. Admin only.
func (s *UserService) UpdateRole(ctx context.Context, actor domain.Identity, userID int64, role domain.Role) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("", map[string]any{"role": "must be one of admin, agent, employee"})
	}

	var (
		user    *domain.User
		oldRole domain.Role
	)
	err := s.modify(ctx, userID, func(u *domain.User) {
		oldRole = u.Role
		u.Role = role
	}, &user)
	if err != nil {
		return nil, err
	}

	if oldRole != role {
		s.logger.Info("user role changed",
			zap.Int64("user_id", user.ID),
			zap.String("old_role", string(oldRole)),
			zap.String("new_role", string(role)),
			zap.Int64("actor_id", actor.UserID))
		s.publish(ctx, events.NewEvent(events.EventUserRoleChanged, user.ID, actor, s.now().UTC(),
			events.UserRoleChangedPayload{OldRole: oldRole, NewRole: role}))
	}
	return user, nil
}

// SetActive activates or deactivates a user. Admin only. Deactivated users
// fail authentication on their next request.
func (s *UserService) SetActive(ctx context.Context, actor domain.Identity, userID int64, active bool) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var user *domain.User
	if err := s.modify(ctx, userID, func(u *domain.User) { u.IsActive = active }, &user); err != nil {
		return nil, err
	}
	s.logger.Info("user activity changed",
		zap.Int64("user_id", user.ID),
		zap.Bool("active", active),
		zap.Int64("actor_id", actor.UserID))
	return user, nil
}

func (s *UserService) modify(ctx context.Context, userID int64, apply func(*domain.User), out **domain.User) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return repository.MapError(err, apperrors.CodeUserNotFound)
		}
		apply(user)
		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}
		*out = user
		return nil
	})
	if err != nil {
		return s.mapWriteError(err)
	}
	return nil
}

func (s *UserService) insert(ctx context.Context, tx repository.Store, input CreateUserInput) (*CreatedUser, error) {
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("", map[string]any{"role": "must be one of admin, agent, employee"})
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	_, err := tx.Users().GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperrors.NewConflict(apperrors.CodeEmailAlreadyExists, nil)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	key, err := s.keys.Generate()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		FullName:     strings.TrimSpace(input.FullName),
		Email:        email,
		Role:         input.Role,
		IsActive:     true,
		APIKeyPrefix: key.Prefix,
		APIKeyHash:   key.Hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := tx.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return &CreatedUser{User: user, APIKey: key.Plaintext}, nil
}

// mapWriteError turns a unique violation that slipped past the email check
// into email_already_exists.
func (s *UserService) mapWriteError(err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return apperrors.NewConflict(apperrors.CodeEmailAlreadyExists, nil)
	}
	mapped := repository.MapError(err, "")
	if de := apperrors.ToDomainError(mapped); de.HTTPStatus >= 500 {
		s.logger.Error("user write failed", zap.Error(err))
	}
	return mapped
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func requireAdmin(actor domain.Identity) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden(auth.CodeAdminOnly)
	}
	return nil
}
