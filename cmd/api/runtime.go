package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/config"
	"github.com/spec-kit/service-desk/internal/events"
	"github.com/spec-kit/service-desk/internal/observability"
	"github.com/spec-kit/service-desk/internal/persistence"
	"github.com/spec-kit/service-desk/internal/repository"
	"github.com/spec-kit/service-desk/internal/repository/memory"
	"github.com/spec-kit/service-desk/internal/service"
	"github.com/spec-kit/service-desk/internal/worker"
)

// runtime holds the wired application graph shared by the subcommands.
type runtime struct {
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *observability.Metrics
	postgres   *persistence.Postgres
	redis      *persistence.Redis
	store      repository.Store
	dispatcher events.Dispatcher
	users      *service.UserService
	requests   *service.RequestService
	tokens     *service.AuthService
	authMW     *auth.AuthMiddleware
}

func loadConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func newRuntime(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*runtime, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	var store repository.Store
	if pg.Enabled() {
		store = repository.NewPostgresStore(pg.PoolHandle())
	} else {
		store = memory.NewStore()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartActivityRecorder(dispatcher, logger, metrics)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	cache := auth.NewIdentityCache(redis.Client, cfg.Auth.IdentityCacheTTL())
	resolver := auth.NewResolver(store.Users(), tokens, cache, metrics, logger)

	return &runtime{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		postgres:   pg,
		redis:      redis,
		store:      store,
		dispatcher: dispatcher,
		users: service.NewUserService(service.UserDependencies{
			Store:        store,
			Keys:         auth.NewKeyGenerator(cfg.Auth.BcryptCost),
			Dispatcher:   dispatcher,
			Logger:       logger,
			BootstrapKey: cfg.Auth.AdminBootstrapKey,
		}),
		requests: service.NewRequestService(service.RequestDependencies{
			Store:      store,
			Dispatcher: dispatcher,
			Logger:     logger,
		}),
		tokens: service.NewAuthService(resolver, tokens),
		authMW: auth.NewAuthMiddleware(resolver),
	}, nil
}

func (r *runtime) Close() {
	r.redis.Close()
	r.postgres.Close()
}
