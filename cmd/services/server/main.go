package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ridecast/ridecast/internal/artifacts"
	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/logging"
	"github.com/ridecast/ridecast/internal/queue"
	"github.com/ridecast/ridecast/internal/router"
	"github.com/ridecast/ridecast/internal/services"
	"github.com/ridecast/ridecast/internal/utils"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Prediction server starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Load model and column schema once; they are read-only afterwards
	bundle, err := artifacts.LoadBundle(cfg.Artifacts.ModelPath, cfg.Artifacts.SchemaPath)
	if err != nil {
		logger.Fatal("Failed to load model artifacts", "error", err,
			"model_path", cfg.Artifacts.ModelPath, "schema_path", cfg.Artifacts.SchemaPath)
	}
	logger.Info("Model loaded",
		"algorithm", bundle.Model.Name(),
		"features", bundle.Schema.Len(),
		"schema_version", bundle.Schema.Version,
	)

	lagFallback, lagSource := cfg.Inference.ResolveLagFallback(bundle.Schema.LagFillValue)
	if fill := bundle.Schema.LagFillValue; fill != nil && *fill != lagFallback {
		logger.Warn("Lag fallback differs from the training fill value",
			"lag_fallback", lagFallback,
			"source", lagSource,
			"training_fill_value", *fill,
		)
	}

	opts := services.DefaultPredictionOptions()
	opts.LagFallback = lagFallback
	opts.LagFallbackSource = lagSource
	opts.Subject = cfg.Queue.Subject
	opts.PublishTimeout = cfg.Queue.PublishTimeout

	// Connect the prediction event publisher (optional)
	if cfg.Queue.Enabled {
		logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
		publisher, err := queue.NewPublisher(cfg.Queue)
		if err != nil {
			logger.Fatal("Failed to connect to Queue", "error", err)
		}
		defer func() { _ = publisher.Close() }()
		opts.Publisher = publisher
		logger.Info("Queue connection established", "subject", cfg.Queue.Subject)
	} else {
		logger.Info("Prediction events disabled")
	}

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	predictionService := services.NewPredictionService(logger, bundle, opts)

	app, err := router.New(logger, predictionService, *cfg)
	if err != nil {
		logger.Fatal("Failed to initialize router", "error", err)
	}

	// Start server in goroutine
	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
