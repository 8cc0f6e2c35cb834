package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/service-desk/internal/api/http/handlers"
	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/observability"
	"github.com/spec-kit/service-desk/internal/service"
)

// Dependencies is everything the HTTP surface needs.
type Dependencies struct {
	ServiceName    string
	Version        string
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	Requests       *service.RequestService
	Users          *service.UserService
	Tokens         *service.AuthService
	AuthMiddleware *auth.AuthMiddleware
	HealthChecks   []handlers.Check
	RequestTimeout time.Duration
}

// NewApp assembles the fiber application.
func NewApp(deps Dependencies) *fiber.App {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               deps.ServiceName,
		DisableStartupMessage: true,
		Immutable:             true,
	})
	RegisterMiddlewares(app, logger, deps.Metrics, deps.RequestTimeout)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(deps.ServiceName, deps.Version, deps.HealthChecks...),
		Auth:           handlers.NewAuthHandler(deps.Tokens),
		Users:          handlers.NewUsersHandler(deps.Users, deps.AuthMiddleware),
		Requests:       handlers.NewRequestsHandler(deps.Requests),
		AuthMiddleware: deps.AuthMiddleware,
		Metrics:        deps.Metrics,
	})
	return app
}
