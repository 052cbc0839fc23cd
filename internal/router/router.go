package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/handler"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Search   *handler.SearchHandler
	Export   *handler.ExportHandler
	Outreach *handler.OutreachHandler
	Quota    *handler.QuotaHandler
	Health   *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))
	app.Use(handler.MetricsMiddleware())

	// Probes and metrics sit outside the API group
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	searchLimiter := middleware.NewSearchRateLimiter()
	exportLimiter := middleware.NewExportRateLimiter()
	outreachLimiter := middleware.NewOutreachRateLimiter()
	resetLimiter := middleware.NewQuotaResetRateLimiter()

	// API routes
	api := app.Group("/api")

	api.Get("/health", h.Health.Health)

	// Search and export
	api.Post("/search", h.Search.Search, searchLimiter.Handler())
	api.Post("/export/csv", h.Export.ExportCSV, exportLimiter.Handler())

	// Outreach
	api.Post("/outreach", h.Outreach.Send, outreachLimiter.Handler())

	// Quota routes
	api.Get("/quota/status", h.Quota.Status)
	api.Post("/quota/reset", h.Quota.Reset, resetLimiter.Handler())
}
