package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-tickets/internal/api/http/handlers"
	"github.com/spec-kit/support-tickets/internal/auth"
	"github.com/spec-kit/support-tickets/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Me             *handlers.MeHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireActor(), cfg.Me.Get)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireActor())
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/assign", auth.RequireInternal(), cfg.Tickets.AssignTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Post("/:id/attachments/presign-upload", cfg.Tickets.PresignUpload)
	tickets.Get("/:id/attachments/:attachmentId/presign-download", cfg.Tickets.PresignDownload)
}

// AppDependencies configures NewApp.
type AppDependencies struct {
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	RequestTimeout time.Duration
	Routes         RouteConfig
}

// NewApp builds a fiber app with middlewares and routes registered.
func NewApp(appName string, deps AppDependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		BodyLimit:             1 << 20,
	})
	RegisterMiddlewares(app, deps.Logger, deps.Metrics, deps.RequestTimeout)
	RegisterRoutes(app, deps.Routes)
	return app
}
