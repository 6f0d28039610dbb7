package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ridecast/ridecast/internal/artifacts"
	"github.com/ridecast/ridecast/internal/features"
	"github.com/ridecast/ridecast/internal/logging"
	"github.com/ridecast/ridecast/internal/model"
	"github.com/ridecast/ridecast/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testColumns = []string{
	"yr", "mnth", "holiday", "weekday", "workingday",
	"temp", "atemp", "hum", "windspeed", "hr",
	"hr_sin", "hr_cos", "temp_feels_like", "weather_comfort",
	"is_rush_hour", "is_weekend", "prev_day_same_hour",
	"season_2", "season_3", "season_4",
	"weathersit_2", "weathersit_3", "weathersit_4",
}

// newTestBundle returns a bundle whose model predicts
// intercept + 2*hr + 0.5*prev_day_same_hour + 100*season_3
func newTestBundle(t *testing.T, intercept float64) *artifacts.Bundle {
	t.Helper()

	schema := features.NewSchema(testColumns)
	schema.ReferenceLevels = map[string]int{"season": 1, "weathersit": 1}

	coef := make([]float64, len(testColumns))
	coef[schema.Index("hr")] = 2
	coef[schema.Index("prev_day_same_hour")] = 0.5
	coef[schema.Index("season_3")] = 100

	snap := &model.Snapshot{
		Algorithm:    "ridge",
		Params:       model.Params{model.ParamAlpha: 1},
		Features:     len(coef),
		Intercept:    intercept,
		Coefficients: coef,
		Metrics:      map[string]float64{"r2": 0.9},
	}
	p, err := model.Restore(snap)
	require.NoError(t, err)

	return &artifacts.Bundle{Model: p, Snapshot: snap, Schema: schema, LoadedAt: time.Now()}
}

func dashboardInput() features.RawRecord {
	return features.RawRecord{
		"season": 1, "yr": 0, "mnth": 1, "hr": 15, "holiday": 0, "weekday": 0,
		"workingday": 0, "weathersit": 1, "temp": 0.5, "atemp": 0.5, "hum": 0.5, "windspeed": 0.2,
	}
}

func newTestService(t *testing.T, opts PredictionOptions) *PredictionService {
	return NewPredictionService(logging.NewNop(), newTestBundle(t, 10), opts)
}

func TestPredictionService_Predict(t *testing.T) {
	svc := newTestService(t, DefaultPredictionOptions())

	p, err := svc.Predict(context.Background(), dashboardInput())
	require.NoError(t, err)

	assert.Equal(t, 140, p.Count)
	assert.InDelta(t, 140.0, p.Raw, 1e-9)
	assert.Equal(t, "ridge", p.Algorithm)
	assert.Equal(t, features.SchemaVersion, p.SchemaVersion)
	assert.Equal(t, testColumns, p.Features.Columns)
	assert.NotEmpty(t, p.ID)
	require.Len(t, p.Warnings, 1)
	assert.Contains(t, p.Warnings[0], "prev_day_same_hour")
}

func TestPredictionService_CategoricalAndLag(t *testing.T) {
	svc := newTestService(t, DefaultPredictionOptions())

	in := dashboardInput()
	in["season"] = 3
	in["prev_day_same_hour"] = 0

	p, err := svc.Predict(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 140, p.Count)
	assert.Empty(t, p.Warnings)
}

func TestPredictionService_ConfiguredFallback(t *testing.T) {
	opts := DefaultPredictionOptions()
	opts.LagFallback = 100
	opts.LagFallbackSource = "training"
	svc := newTestService(t, opts)

	p, err := svc.Predict(context.Background(), dashboardInput())
	require.NoError(t, err)
	assert.Equal(t, 90, p.Count)
	assert.Contains(t, p.Warnings[0], "training fallback 100")
	assert.Equal(t, "training", svc.Info().LagFallbackSource)
}

func TestPredictionService_ClampsNegative(t *testing.T) {
	svc := NewPredictionService(logging.NewNop(), newTestBundle(t, -1000), DefaultPredictionOptions())

	p, err := svc.Predict(context.Background(), dashboardInput())
	require.NoError(t, err)
	assert.Equal(t, 0, p.Count)
	assert.Less(t, p.Raw, 0.0)
}

func TestPredictionService_Warnings(t *testing.T) {
	svc := newTestService(t, DefaultPredictionOptions())

	in := dashboardInput()
	in["hr"] = 24
	in["weathersit"] = 9
	in["prev_day_same_hour"] = 50

	p, err := svc.Predict(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, p.Warnings, 2)
	assert.Contains(t, p.Warnings[0], "hr 24")
	assert.Contains(t, p.Warnings[1], "weathersit_9")
}

func TestPredictionService_InvalidInput(t *testing.T) {
	svc := newTestService(t, DefaultPredictionOptions())

	in := dashboardInput()
	delete(in, "temp")

	_, err := svc.Predict(context.Background(), in)
	require.Error(t, err)

	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, CodeInvalidInput, svcErr.Code)
	assert.ErrorIs(t, err, features.ErrInvalidInput)
	assert.Contains(t, svcErr.Message, "temp")
}

func TestPredictionService_PublishesEvent(t *testing.T) {
	pub := queue.NewMemoryPublisher()
	opts := DefaultPredictionOptions()
	opts.Publisher = pub
	svc := newTestService(t, opts)

	ctx := logging.WithRequestID(context.Background(), "req-42")
	p, err := svc.Predict(ctx, dashboardInput())
	require.NoError(t, err)

	msgs := pub.Messages("ridecast.predictions")
	require.Len(t, msgs, 1)

	var event PredictionEvent
	require.NoError(t, json.Unmarshal(msgs[0], &event))
	assert.Equal(t, p.ID, event.ID)
	assert.Equal(t, "req-42", event.RequestID)
	assert.Equal(t, 140, event.Prediction)
	assert.Equal(t, 15, event.Record.Hr)
}

func TestPredictionService_PublishFailureIsNotFatal(t *testing.T) {
	pub := queue.NewMemoryPublisher()
	_ = pub.Close()

	opts := DefaultPredictionOptions()
	opts.Publisher = pub
	svc := newTestService(t, opts)

	p, err := svc.Predict(context.Background(), dashboardInput())
	require.NoError(t, err)
	assert.Equal(t, 140, p.Count)
}

func TestPredictionService_Concurrent(t *testing.T) {
	svc := newTestService(t, DefaultPredictionOptions())

	var wg sync.WaitGroup
	results := make([]int, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := svc.Predict(context.Background(), dashboardInput())
			if err == nil {
				results[i] = p.Count
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, 140, r)
	}
}

func TestPredictionService_Info(t *testing.T) {
	svc := newTestService(t, DefaultPredictionOptions())

	info := svc.Info()
	assert.Equal(t, "ridge", info.Algorithm)
	assert.Equal(t, len(testColumns), info.Features)
	assert.Equal(t, 0.9, info.Metrics["r2"])
	assert.Equal(t, 200.0, info.LagFallback)
	assert.Equal(t, testColumns, svc.Schema().Columns)
}

func TestPredictionService_PredictBatch(t *testing.T) {
	pub := queue.NewMemoryPublisher()
	opts := DefaultPredictionOptions()
	opts.Publisher = pub
	svc := newTestService(t, opts)

	bad := dashboardInput()
	bad["hr"] = "noon"
	second := dashboardInput()
	second["season"] = 3

	results := svc.PredictBatch(context.Background(), []features.RawRecord{dashboardInput(), bad, second})
	require.Len(t, results, 3)

	require.NoError(t, results[0].Err)
	assert.Equal(t, 140, results[0].Prediction.Count)

	require.Error(t, results[1].Err)
	assert.Nil(t, results[1].Prediction)
	var svcErr *ServiceError
	require.True(t, errors.As(results[1].Err, &svcErr))
	assert.Equal(t, CodeInvalidInput, svcErr.Code)

	require.NoError(t, results[2].Err)
	assert.Equal(t, 240, results[2].Prediction.Count)

	msgs := pub.Messages("ridecast.predictions")
	require.Len(t, msgs, 2)
	var event PredictionEvent
	require.NoError(t, json.Unmarshal(msgs[1], &event))
	assert.Equal(t, results[2].Prediction.ID, event.ID)
}

func TestPredictionService_PredictBatchEmpty(t *testing.T) {
	pub := queue.NewMemoryPublisher()
	opts := DefaultPredictionOptions()
	opts.Publisher = pub
	svc := newTestService(t, opts)

	assert.Empty(t, svc.PredictBatch(context.Background(), nil))
	assert.Empty(t, pub.Messages("ridecast.predictions"))
}
