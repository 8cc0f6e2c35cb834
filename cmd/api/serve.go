package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/service-desk/internal/api/http"
	"github.com/spec-kit/service-desk/internal/api/http/handlers"
	"github.com/spec-kit/service-desk/internal/persistence"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, rt.postgres.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	checks := []handlers.Check{{Name: "store", Ping: rt.store.Ping}}
	if rt.redis.Enabled() {
		checks = append(checks, handlers.Check{Name: "redis", Ping: rt.redis.Ping})
	}

	app := httptransport.NewApp(httptransport.Dependencies{
		ServiceName:    cfg.App.Name,
		Version:        cfg.App.Version,
		Logger:         logger,
		Metrics:        rt.metrics,
		Requests:       rt.requests,
		Users:          rt.users,
		Tokens:         rt.tokens,
		AuthMiddleware: rt.authMW,
		HealthChecks:   checks,
		RequestTimeout: cfg.App.RequestTimeout(),
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("fiber listen: %w", err)
		}
		return nil
	}

	return app.ShutdownWithTimeout(shutdownTimeout)
}
