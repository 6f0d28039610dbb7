// Package training fits the rental count regressor from the hourly dataset
// and writes the model and column schema artifacts the server loads.
package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ridecast/ridecast/internal/artifacts"
	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/dataset"
	"github.com/ridecast/ridecast/internal/features"
	"github.com/ridecast/ridecast/internal/logging"
	"github.com/ridecast/ridecast/internal/model"
	"github.com/ridecast/ridecast/internal/utils"
)

// Options configures a training run
type Options struct {
	DataPath   string
	ModelPath  string
	SchemaPath string
	Compress   bool

	Algorithm  string
	TestSize   float64
	Folds      int
	Iterations int
	Seed       int64
	// Alphas overrides the ridge penalty grid
	Alphas []float64

	Logger *logging.Logger
}

// DefaultOptions returns the defaults used by the train command
func DefaultOptions() Options {
	return Options{
		Algorithm:  utils.DefaultAlgorithm,
		TestSize:   utils.DefaultTestSize,
		Folds:      utils.DefaultFolds,
		Iterations: utils.DefaultSearchIterations,
		Seed:       utils.DefaultRandomSeed,
	}
}

// OptionsFromConfig builds run options from the training and artifact sections
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DataPath:   cfg.Training.DataPath,
		ModelPath:  cfg.Artifacts.ModelPath,
		SchemaPath: cfg.Artifacts.SchemaPath,
		Compress:   cfg.Artifacts.Compress,
		Algorithm:  cfg.Training.Algorithm,
		TestSize:   cfg.Training.TestSize,
		Folds:      cfg.Training.Folds,
		Iterations: cfg.Training.Iterations,
		Seed:       cfg.Training.Seed,
		Alphas:     cfg.Training.Alphas,
	}
}

// Report summarizes a training run
type Report struct {
	Algorithm    string           `json:"algorithm"`
	BestParams   model.Params     `json:"best_params"`
	CVScore      float64          `json:"cv_score"`
	Test         model.Evaluation `json:"test"`
	Trials       []model.Trial    `json:"trials"`
	TotalRows    int              `json:"total_rows"`
	TrainRows    int              `json:"train_rows"`
	TestRows     int              `json:"test_rows"`
	Features     int              `json:"features"`
	LagFillValue float64          `json:"lag_fill_value"`
	ModelPath    string           `json:"model_path"`
	SchemaPath   string           `json:"schema_path"`
	Duration     time.Duration    `json:"duration"`
}

// Run loads the dataset, engineers and encodes the features, searches the
// parameter grid on the training split, evaluates the best model on the
// held-out split and writes both artifacts.
func Run(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()

	if err := opts.validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Global()
	}
	logger = logger.With("component", "training")

	records, err := dataset.Load(opts.DataPath)
	if err != nil {
		return nil, err
	}
	logger.Info("Dataset loaded", "path", opts.DataPath, "rows", len(records))

	engineered := features.Engineer(records)
	engineered, fill, err := features.AddLagFeatures(engineered, features.DefaultLagOptions())
	if err != nil {
		return nil, err
	}
	logger.Debug("Lag features added", "fill_value", fill)

	fm, err := features.BuildFeatureMatrix(engineered)
	if err != nil {
		return nil, err
	}
	if fm.Y == nil {
		return nil, fmt.Errorf("%w: dataset has no %s column to train on", features.ErrInvalidInput, features.ColCnt)
	}
	fm.Schema.LagFillValue = &fill
	fm.Schema.CreatedAt = time.Now().UTC()
	logger.Info("Feature matrix built", "rows", fm.Rows(), "columns", fm.Schema.Len())

	split, err := model.SplitTrainTest(fm.X, fm.Y, opts.TestSize, opts.Seed)
	if err != nil {
		return nil, err
	}

	cfg := model.SearchConfig{
		Algorithm:  opts.Algorithm,
		Folds:      opts.Folds,
		Iterations: opts.Iterations,
		Seed:       opts.Seed,
	}
	if opts.Algorithm == "ridge" && len(opts.Alphas) > 0 {
		cfg.Grid = model.AlphaGrid(opts.Alphas)
	}

	logger.Info("Searching parameters",
		"algorithm", cfg.Algorithm,
		"train_rows", len(split.YTrain),
		"folds", cfg.Folds,
		"iterations", cfg.Iterations,
	)
	result, err := model.Search(ctx, split.XTrain, split.YTrain, cfg)
	if err != nil {
		return nil, fmt.Errorf("parameter search failed: %w", err)
	}
	logger.Info("Search complete", "best_params", result.BestParams, "cv_r2", result.BestScore)

	eval, err := model.Evaluate(result.Best, split.XTest, split.YTest)
	if err != nil {
		return nil, err
	}
	logger.Info("Test evaluation",
		"r2", eval.R2,
		"mse", eval.MSE,
		"mae", eval.MAE,
		"test_rows", len(split.YTest),
	)

	snap := result.Best.Snapshot()
	snap.Metrics = eval.Map()
	snap.Metrics["cv_r2"] = result.BestScore
	snap.TrainedAt = time.Now().UTC()

	aopts := artifacts.Options{Compress: opts.Compress}
	if err := artifacts.SaveModel(opts.ModelPath, snap, aopts); err != nil {
		return nil, fmt.Errorf("failed to save model: %w", err)
	}
	if err := artifacts.SaveSchema(opts.SchemaPath, fm.Schema, aopts); err != nil {
		return nil, fmt.Errorf("failed to save schema: %w", err)
	}

	report := &Report{
		Algorithm:    result.Best.Name(),
		BestParams:   result.BestParams,
		CVScore:      result.BestScore,
		Test:         eval,
		Trials:       result.Trials,
		TotalRows:    fm.Rows(),
		TrainRows:    len(split.YTrain),
		TestRows:     len(split.YTest),
		Features:     fm.Schema.Len(),
		LagFillValue: fill,
		ModelPath:    opts.ModelPath,
		SchemaPath:   opts.SchemaPath,
		Duration:     time.Since(start),
	}

	logger.Info("Artifacts written",
		"model_path", opts.ModelPath,
		"schema_path", opts.SchemaPath,
		"duration", report.Duration,
	)
	return report, nil
}

func (o Options) validate() error {
	if o.DataPath == "" {
		return errors.New("data path is required")
	}
	if o.ModelPath == "" || o.SchemaPath == "" {
		return errors.New("model and schema output paths are required")
	}
	if o.ModelPath == o.SchemaPath {
		return fmt.Errorf("model and schema paths must differ: %s", o.ModelPath)
	}
	if _, err := model.GetTrainer(o.Algorithm); err != nil {
		return err
	}
	return nil
}
