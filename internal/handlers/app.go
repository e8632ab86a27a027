package handlers

import (
	"errors"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mensa-app/mensa/internal/config"
	"github.com/mensa-app/mensa/internal/middleware"
	"github.com/mensa-app/mensa/internal/schedule"
	"github.com/mensa-app/mensa/internal/services"
	"github.com/mensa-app/mensa/internal/types"
	"github.com/mensa-app/mensa/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// NewApp assembles the Fiber application: global middleware, the unguarded
// health and metrics endpoints, and the mensa routes behind the identity and
// phase middleware. A nil clock means time.Now.
func NewApp(db *gorm.DB, cfg *config.Config, sched schedule.Schedule, now func() time.Time) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        Views(),
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: errorHandler(cfg),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	app.Use(middleware.RequestID())

	// Prometheus metrics on a per-app registry, so rebuilding the app
	// (tests do) never double-registers collectors
	prom := fiberprometheus.NewWithRegistry(prometheus.NewRegistry(), "mensa", "http", "", nil)
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	// Health endpoint, outside the identity wall so probes need no header
	app.Get("/healthz", func(c *fiber.Ctx) error {
		result := services.HealthCheck(cfg, db)
		status := fiber.StatusOK
		if result.Status != "healthy" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(result)
	})

	// Everything below trusts the upstream-asserted identity and acts
	// within the phase of the request's arrival time.
	app.Use(middleware.Identity(db, cfg))
	app.Use(middleware.Phase(db, sched, now))

	h := &Handler{DB: db, Cfg: cfg, Schedule: sched}

	app.Get("/", h.Home)
	app.All("/state", h.SubmitStatement)
	app.All("/json", h.JSONStatements)
	app.All("/debug", h.Debug)

	// Anything else goes back to the form
	app.Use(func(c *fiber.Ctx) error {
		return c.Redirect("/", fiber.StatusFound)
	})

	return app
}

// errorHandler maps errors to the JSON error envelope. Internal diagnostics
// leak into responses only when DEBUG is set.
func errorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"
		errorType := "internal"

		var custom *types.CustomError
		var fiberErr *fiber.Error

		switch {
		case errors.As(err, &custom):
			code = custom.Code
			message = custom.Message
			errorType = custom.Type
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
			errorType = "http"
		default:
			if cfg.Debug {
				message = err.Error()
			}
		}

		return utils.ErrorResponse(c, message, code, errorType)
	}
}
