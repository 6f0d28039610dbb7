package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/handlers"
	"github.com/ridecast/ridecast/internal/logging"
	"github.com/ridecast/ridecast/internal/middleware"
	"github.com/ridecast/ridecast/internal/services"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, predictionService *services.PredictionService, cfg config.Config) (*handlers.Handler, error) {
	h, err := handlers.New(logger, predictionService, cfg.Inference)
	if err != nil {
		return nil, err
	}

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger, logging.DefaultMiddlewareConfig()))

	// Health check and dashboard (no auth required)
	app.Get("/health", h.Health)
	app.Get("/", h.Dashboard)
	app.Post("/", h.DashboardSubmit)

	// API v1 routes (protected by API key when auth is enabled)
	v1 := app.Group("/v1", middleware.APIKeyAuth(logger, cfg.Auth))
	v1.Get("/schema", h.Schema)
	v1.Get("/model", h.Model)
	v1.Post("/predict", h.Predict)
	v1.Post("/predict/batch", h.PredictBatch)

	// 404 handler
	app.Use(h.NotFound)

	return h, nil
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, predictionService *services.PredictionService, cfg config.Config) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:               "Ridecast",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	if _, err := Setup(app, logger, predictionService, cfg); err != nil {
		return nil, err
	}

	return app, nil
}
