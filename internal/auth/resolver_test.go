package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/repository/memory"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

type mapCache struct {
	ids     map[string]int64
	lookups int
	fail    bool
}

func (c *mapCache) Lookup(_ context.Context, key string) (int64, bool, error) {
	c.lookups++
	if c.fail {
		return 0, false, errors.New("cache down")
	}
	id, ok := c.ids[key]
	return id, ok, nil
}

func (c *mapCache) Remember(_ context.Context, key string, id int64) error {
	if c.fail {
		return errors.New("cache down")
	}
	c.ids[key] = id
	return nil
}

type fixture struct {
	store    *memory.Store
	resolver *Resolver
	tokens   *TokenManager
	cache    *mapCache
	user     *domain.User
	key      string
}

func setupResolver(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	key, err := NewKeyGenerator(bcrypt.MinCost).Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	user := &domain.User{
		FullName:     "Ann Agent",
		Email:        "ann@example.com",
		Role:         domain.RoleAgent,
		IsActive:     true,
		APIKeyPrefix: key.Prefix,
		APIKeyHash:   key.Hash,
		CreatedAt:    time.Now(),
	}
	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	tokens := NewTokenManager("secret", time.Hour)
	cache := &mapCache{ids: map[string]int64{}}
	return &fixture{
		store:    store,
		resolver: NewResolver(store.Users(), tokens, cache, nil, zap.NewNop()),
		tokens:   tokens,
		cache:    cache,
		user:     user,
		key:      key.Plaintext,
	}
}

func assertCode(t *testing.T, err error, code string, status int) {
	t.Helper()
	de := apperrors.ToDomainError(err)
	if de == nil {
		t.Fatalf("error = nil, want %s", code)
	}
	if de.Code != code || de.HTTPStatus != status {
		t.Fatalf("error = %s/%d, want %s/%d", de.Code, de.HTTPStatus, code, status)
	}
}

func TestResolveAPIKey(t *testing.T) {
	f := setupResolver(t)
	user, err := f.resolver.Resolve(context.Background(), Credential{APIKey: f.key})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if user.ID != f.user.ID {
		t.Errorf("user id = %d, want %d", user.ID, f.user.ID)
	}
	if f.cache.ids[f.key] != f.user.ID {
		t.Errorf("cache not populated after successful verification")
	}
}

func TestResolveUsesCacheButReloadsUser(t *testing.T) {
	f := setupResolver(t)
	ctx := context.Background()
	if _, err := f.resolver.Resolve(ctx, Credential{APIKey: f.key}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	stored, _ := f.store.Users().GetByID(ctx, f.user.ID)
	stored.IsActive = false
	if err := f.store.Users().Update(ctx, stored); err != nil {
		t.Fatalf("Update: %v", err)
	}

	_, err := f.resolver.Resolve(ctx, Credential{APIKey: f.key})
	assertCode(t, err, CodeUserInactive, http.StatusForbidden)
}

func TestResolveFallsBackWhenCacheFails(t *testing.T) {
	f := setupResolver(t)
	f.cache.fail = true
	if _, err := f.resolver.Resolve(context.Background(), Credential{APIKey: f.key}); err != nil {
		t.Fatalf("Resolve with failing cache: %v", err)
	}
}

func TestResolveRejects(t *testing.T) {
	f := setupResolver(t)
	ctx := context.Background()

	_, err := f.resolver.Resolve(ctx, Credential{})
	assertCode(t, err, CodeMissingAPIKey, http.StatusUnauthorized)

	_, err = f.resolver.Resolve(ctx, Credential{APIKey: "garbage"})
	assertCode(t, err, CodeInvalidAPIKey, http.StatusUnauthorized)

	_, err = f.resolver.Resolve(ctx, Credential{APIKey: "sd_ffffffff_nope"})
	assertCode(t, err, CodeInvalidAPIKey, http.StatusUnauthorized)

	_, err = f.resolver.Resolve(ctx, Credential{APIKey: "sd_" + f.user.APIKeyPrefix + "_wrongsecret"})
	assertCode(t, err, CodeInvalidAPIKey, http.StatusUnauthorized)

	_, err = f.resolver.Resolve(ctx, Credential{BearerToken: "not-a-jwt"})
	assertCode(t, err, CodeInvalidToken, http.StatusUnauthorized)
}

func TestResolveBearerToken(t *testing.T) {
	f := setupResolver(t)
	raw, _, err := f.tokens.GenerateToken(f.user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	user, err := f.resolver.Resolve(context.Background(), Credential{BearerToken: raw})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if user.Email != "ann@example.com" {
		t.Errorf("email = %q", user.Email)
	}

	ghost, _, _ := f.tokens.GenerateToken(&domain.User{ID: 999, Role: domain.RoleAdmin})
	_, err = f.resolver.Resolve(context.Background(), Credential{BearerToken: ghost})
	assertCode(t, err, CodeInvalidToken, http.StatusUnauthorized)
}
