package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/service-desk/internal/api/http/handlers"
	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Requests       *handlers.RequestsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Static request paths are registered
// before /requests/:id so they win the match.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if reg := cfg.Metrics.Registry(); reg != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	app.Post("/auth/token", cfg.Auth.IssueToken)

	authed := cfg.AuthMiddleware.Handle
	adminOnly := auth.RequireAdmin()

	// POST /users authenticates inside the handler because bootstrap runs
	// without credentials.
	app.Post("/users", cfg.Users.Create)
	app.Get("/users", authed, adminOnly, cfg.Users.List)
	app.Get("/users/me", authed, cfg.Users.Me)
	app.Patch("/users/:id/role", authed, adminOnly, cfg.Users.UpdateRole)
	app.Patch("/users/:id/active", authed, adminOnly, cfg.Users.SetActive)

	app.Post("/requests", authed, cfg.Requests.Create)
	app.Get("/requests", authed, cfg.Requests.List)
	app.Get("/requests/my", authed, cfg.Requests.ListMine)
	app.Get("/requests/assigned-to-me", authed, cfg.Requests.ListAssignedToMe)
	app.Get("/requests/queue", authed, cfg.Requests.ListQueue)
	app.Get("/requests/by-public-id/:publicID", authed, cfg.Requests.GetByPublicID)
	app.Get("/requests/:id", authed, cfg.Requests.Get)
	app.Patch("/requests/:id/status", authed, cfg.Requests.UpdateStatus)
	app.Get("/requests/:id/history", authed, cfg.Requests.History)
}
