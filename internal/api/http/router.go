package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Metrics  *handlers.MetricsHandler
	Requests *handlers.RequestsHandler
}

// RegisterRoutes wires the API server routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Get)
	}

	app.Post("/requests", cfg.Requests.Submit)
	app.Get("/requests", cfg.Requests.List)
}

// RegisterAnalyzerRoutes wires the classification service routes.
func RegisterAnalyzerRoutes(app *fiber.App, health *handlers.HealthHandler, analysis *handlers.AnalysisHandler) {
	app.Get("/health/live", health.Live)

	app.Post("/requests", analysis.Analyze)
	app.All("/requests", analysis.MethodNotAllowed)
}
