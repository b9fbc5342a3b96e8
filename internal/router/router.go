package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/evalworks/audit-api/internal/config"
	"github.com/evalworks/audit-api/internal/handler"
	"github.com/evalworks/audit-api/internal/middleware"
	"github.com/evalworks/audit-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StepHandler      *handler.StepHandler
	ScoringHandler   *handler.ScoringHandler
	SessionHandler   *handler.SessionHandler
	ThresholdHandler *handler.ThresholdHandler
	ProgressHandler  *handler.ProgressHandler
	ActivityHandler  *handler.ActivityHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	if deps.StepHandler != nil {
		steps := api.Group("/steps")
		deps.StepHandler.Register(steps)
	}

	if deps.ScoringHandler != nil {
		// Scoring batches are the hottest write path; cap per-caller volume.
		items := api.Group("/items", middleware.RateLimit("scoring", 30, time.Second))
		deps.ScoringHandler.Register(items)
	}

	if deps.SessionHandler != nil {
		sessions := api.Group("/sessions")
		deps.SessionHandler.Register(sessions)
	}

	if deps.ThresholdHandler != nil {
		thresholds := api.Group("/thresholds")
		deps.ThresholdHandler.Register(thresholds)
	}

	if deps.ProgressHandler != nil {
		processes := api.Group("/processes")
		deps.ProgressHandler.Register(processes)
	}

	if deps.ActivityHandler != nil {
		activities := api.Group("/activities")
		deps.ActivityHandler.Register(activities)
	}
}
