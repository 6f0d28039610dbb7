package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/logging"
	"github.com/ridecast/ridecast/internal/services"
	"github.com/ridecast/ridecast/internal/subscriber"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	group := flag.String("group", subscriber.DefaultConfig().Group, "Consumer group")
	consumer := flag.String("consumer", subscriber.DefaultConfig().Consumer, "Consumer name within the group")
	interval := flag.Duration("interval", 30*time.Second, "How often to log a summary")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)

	if cfg.Queue.Type == "memory" {
		logger.Fatal("The memory queue is in-process only; configure nats, redis or kafka")
	}

	sub, err := subscriber.NewSubscriber(cfg.Queue, subscriber.Config{Group: *group, Consumer: *consumer})
	if err != nil {
		logger.Fatal("Failed to create subscriber", "error", err, "type", cfg.Queue.Type)
	}
	defer func() { _ = sub.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitor := services.NewEventMonitor(logger)
	if err := sub.Subscribe(ctx, cfg.Queue.Subject, monitor.Handle); err != nil {
		logger.Fatal("Failed to subscribe", "error", err, "subject", cfg.Queue.Subject)
	}
	logger.Info("Watching prediction events",
		"type", cfg.Queue.Type, "subject", cfg.Queue.Subject, "group", *group, "consumer", *consumer)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logSummary(logger, "Prediction event summary", monitor.Summary())
		case <-ctx.Done():
			logSummary(logger, "Final prediction event summary", monitor.Summary())
			return
		}
	}
}

func logSummary(logger *logging.Logger, msg string, s services.EventSummary) {
	fields := []interface{}{
		"count", s.Count,
		"mean_prediction", fmt.Sprintf("%.1f", s.MeanPrediction),
		"min_prediction", s.MinPrediction,
		"max_prediction", s.MaxPrediction,
		"with_warnings", s.WithWarnings,
		"by_hour", s.ByHour,
	}
	if !s.LastEventAt.IsZero() {
		fields = append(fields, "last_event_at", s.LastEventAt.Format(time.RFC3339))
	}
	logger.Info(msg, fields...)
}
