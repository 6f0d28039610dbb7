package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/logging"
	"github.com/ridecast/ridecast/internal/training"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	dataPath := flag.String("data_path", "../data/hour.csv", "Path to the hourly rentals CSV")
	modelOut := flag.String("model_out", "../models/bike_model.json", "Where to write the fitted model")
	colsOut := flag.String("cols_out", "../models/feature_columns.json", "Where to write the feature column schema")
	algorithm := flag.String("algorithm", "", "Regression algorithm (forest, ridge, mean); overrides config")
	seed := flag.Int64("seed", 0, "Random seed for the split and the search; overrides config when non-zero")
	compress := flag.Bool("compress", false, "Write artifacts as snappy streams")
	reportPath := flag.String("report", "", "Optional path for a JSON training report")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)

	opts := training.OptionsFromConfig(cfg)
	opts.Logger = logger
	// path flags apply without a config file, or when given explicitly
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if *configPath == "" || set["data_path"] {
		opts.DataPath = *dataPath
	}
	if *configPath == "" || set["model_out"] {
		opts.ModelPath = *modelOut
	}
	if *configPath == "" || set["cols_out"] {
		opts.SchemaPath = *colsOut
	}
	if *algorithm != "" {
		opts.Algorithm = *algorithm
	}
	if *seed != 0 {
		opts.Seed = *seed
	}
	if *compress {
		opts.Compress = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := training.Run(ctx, opts)
	if err != nil {
		logger.Fatal("Training failed", "error", err)
	}

	fmt.Printf("Best params: %v\n", report.BestParams)
	fmt.Printf("CV R2: %.4f\n", report.CVScore)
	fmt.Printf("Test R2: %.4f  MSE: %.2f  MAE: %.2f\n", report.Test.R2, report.Test.MSE, report.Test.MAE)
	fmt.Printf("Model saved to %s\n", report.ModelPath)
	fmt.Printf("Feature columns saved to %s\n", report.SchemaPath)

	if *reportPath != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			logger.Fatal("Failed to encode report", "error", err)
		}
		if err := os.WriteFile(*reportPath, data, 0o644); err != nil {
			logger.Fatal("Failed to write report", "error", err, "path", *reportPath)
		}
	}
}
