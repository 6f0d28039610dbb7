package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ridecast/ridecast/internal/artifacts"
	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/features"
	"github.com/ridecast/ridecast/internal/logging"
	"github.com/ridecast/ridecast/internal/model"
	"github.com/ridecast/ridecast/internal/queue"
	"github.com/ridecast/ridecast/internal/utils"
)

// PredictionOptions configures a PredictionService
type PredictionOptions struct {
	// LagFallback replaces prev_day_same_hour when a record has none
	LagFallback float64
	// LagFallbackSource records where LagFallback came from (constant or training)
	LagFallbackSource string
	// Publisher receives one event per prediction; nil disables events
	Publisher      queue.Publisher
	Subject        string
	PublishTimeout time.Duration
}

// DefaultPredictionOptions returns options with the constant lag fallback and
// no event publishing
func DefaultPredictionOptions() PredictionOptions {
	return PredictionOptions{
		LagFallback:       utils.DefaultLagFallback,
		LagFallbackSource: config.LagFallbackConstant,
		Subject:           utils.DefaultEventSubject,
		PublishTimeout:    utils.EventPublishTimeout,
	}
}

// PredictionService scores single records against the loaded model bundle.
// The bundle is read-only, so one service serves concurrent requests.
type PredictionService struct {
	logger *logging.Logger
	bundle *artifacts.Bundle
	opts   PredictionOptions
}

// NewPredictionService creates a new PredictionService
func NewPredictionService(logger *logging.Logger, bundle *artifacts.Bundle, opts PredictionOptions) *PredictionService {
	if opts.Subject == "" {
		opts.Subject = utils.DefaultEventSubject
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = utils.EventPublishTimeout
	}
	if opts.LagFallbackSource == "" {
		opts.LagFallbackSource = config.LagFallbackConstant
	}
	return &PredictionService{logger: logger, bundle: bundle, opts: opts}
}

// Prediction is the result of scoring one record
type Prediction struct {
	ID            string                 `json:"id"`
	Count         int                    `json:"prediction"`
	Raw           float64                `json:"raw_prediction"`
	Algorithm     string                 `json:"algorithm"`
	SchemaVersion int                    `json:"schema_version"`
	Record        features.Record        `json:"-"`
	Features      features.FeatureVector `json:"-"`
	Warnings      []string               `json:"warnings,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// PredictionEvent is published for every served prediction
type PredictionEvent struct {
	ID            string          `json:"id"`
	RequestID     string          `json:"request_id,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Record        features.Record `json:"record"`
	Prediction    int             `json:"prediction"`
	RawPrediction float64         `json:"raw_prediction"`
	Algorithm     string          `json:"algorithm"`
	SchemaVersion int             `json:"schema_version"`
	Warnings      []string        `json:"warnings,omitempty"`
}

// ModelInfo describes the loaded bundle
type ModelInfo struct {
	Algorithm         string             `json:"algorithm"`
	Params            model.Params       `json:"params,omitempty"`
	Features          int                `json:"features"`
	Metrics           map[string]float64 `json:"metrics,omitempty"`
	TrainedAt         time.Time          `json:"trained_at,omitempty"`
	LoadedAt          time.Time          `json:"loaded_at"`
	SchemaVersion     int                `json:"schema_version"`
	LagFallback       float64            `json:"lag_fallback"`
	LagFallbackSource string             `json:"lag_fallback_source"`
}

// Schema returns the training column schema
func (s *PredictionService) Schema() features.Schema {
	return s.bundle.Schema
}

// Info returns a description of the loaded bundle
func (s *PredictionService) Info() ModelInfo {
	info := ModelInfo{
		Algorithm:         s.bundle.Model.Name(),
		Features:          s.bundle.Schema.Len(),
		LoadedAt:          s.bundle.LoadedAt,
		SchemaVersion:     s.bundle.Schema.Version,
		LagFallback:       s.opts.LagFallback,
		LagFallbackSource: s.opts.LagFallbackSource,
	}
	if snap := s.bundle.Snapshot; snap != nil {
		info.Params = snap.Params
		info.Metrics = snap.Metrics
		info.TrainedAt = snap.TrainedAt
	}
	return info
}

// Predict parses a field->value mapping and scores it
func (s *PredictionService) Predict(ctx context.Context, raw features.RawRecord) (*Prediction, error) {
	rec, err := features.ParseRecord(raw)
	if err != nil {
		return nil, wrapServiceError(CodeInvalidInput, err)
	}
	return s.PredictRecord(ctx, rec)
}

// PredictRecord scores a typed record
func (s *PredictionService) PredictRecord(ctx context.Context, rec features.Record) (*Prediction, error) {
	p, err := s.score(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, p)
	return p, nil
}

// BatchResult is the outcome for one record of a batch.
// Exactly one of Prediction and Err is set.
type BatchResult struct {
	Prediction *Prediction
	Err        error
}

// PredictBatch scores each record independently; a bad record does not stop
// the others. Events for the successful predictions are published together.
func (s *PredictionService) PredictBatch(ctx context.Context, raws []features.RawRecord) []BatchResult {
	results := make([]BatchResult, len(raws))
	var served []*Prediction

	for i, raw := range raws {
		rec, err := features.ParseRecord(raw)
		if err != nil {
			results[i].Err = wrapServiceError(CodeInvalidInput, err)
			continue
		}
		p, err := s.score(ctx, rec)
		if err != nil {
			results[i].Err = err
			continue
		}
		results[i].Prediction = p
		served = append(served, p)
	}

	s.publishBatch(ctx, served)
	return results
}

func (s *PredictionService) score(ctx context.Context, rec features.Record) (*Prediction, error) {
	prepared, err := features.PrepareInput(rec, s.bundle.Schema, features.InputOptions{LagFallback: s.opts.LagFallback})
	if err != nil {
		code := CodePredictionFailed
		switch {
		case errors.Is(err, features.ErrInvalidInput):
			code = CodeInvalidInput
		case errors.Is(err, features.ErrSchemaMismatch):
			code = CodeSchemaMismatch
		}
		return nil, wrapServiceError(code, err)
	}

	preds, err := s.bundle.Model.Predict(prepared.Vector.Matrix())
	if err != nil {
		return nil, wrapServiceError(CodePredictionFailed, err)
	}
	if len(preds) != 1 {
		return nil, NewServiceError(CodePredictionFailed, fmt.Sprintf("model returned %d predictions for one record", len(preds)))
	}

	p := &Prediction{
		ID:            uuid.New().String(),
		Count:         model.PostProcess(preds[0]),
		Raw:           preds[0],
		Algorithm:     s.bundle.Model.Name(),
		SchemaVersion: s.bundle.Schema.Version,
		Record:        rec,
		Features:      prepared.Vector,
		Warnings:      s.warnings(rec, prepared),
		CreatedAt:     time.Now().UTC(),
	}

	s.logger.WithContext(ctx).Debug("Prediction served",
		"prediction_id", p.ID,
		"prediction", p.Count,
		"raw_prediction", p.Raw,
		"hr", rec.Hr,
	)
	return p, nil
}

func (s *PredictionService) warnings(rec features.Record, prepared *features.PreparedInput) []string {
	var w []string
	if !config.HourInTrainingRange(rec.Hr) {
		w = append(w, fmt.Sprintf("hr %d is outside the 0-23 range of the training data", rec.Hr))
	}
	if prepared.LagDefaulted {
		w = append(w, fmt.Sprintf("prev_day_same_hour not supplied, using %s fallback %g",
			s.opts.LagFallbackSource, s.opts.LagFallback))
	}
	var unseen []string
	for _, c := range prepared.Dropped {
		if !s.isReferenceIndicator(c) {
			unseen = append(unseen, c)
		}
	}
	if len(unseen) > 0 {
		w = append(w, "levels not seen in training: "+strings.Join(unseen, ", "))
	}
	return w
}

// isReferenceIndicator reports whether col is the indicator of a level that
// training dropped as the reference
func (s *PredictionService) isReferenceIndicator(col string) bool {
	for name, lvl := range s.bundle.Schema.ReferenceLevels {
		if features.IndicatorColumn(name, lvl) == col {
			return true
		}
	}
	// without level metadata an unseen level cannot be told from a reference one
	return len(s.bundle.Schema.ReferenceLevels) == 0
}

func (s *PredictionService) event(ctx context.Context, p *Prediction) PredictionEvent {
	return PredictionEvent{
		ID:            p.ID,
		RequestID:     logging.RequestIDFromContext(ctx),
		Timestamp:     p.CreatedAt,
		Record:        p.Record,
		Prediction:    p.Count,
		RawPrediction: p.Raw,
		Algorithm:     p.Algorithm,
		SchemaVersion: p.SchemaVersion,
		Warnings:      p.Warnings,
	}
}

func (s *PredictionService) publish(ctx context.Context, p *Prediction) {
	if s.opts.Publisher == nil {
		return
	}

	data, err := json.Marshal(s.event(ctx, p))
	if err != nil {
		s.logger.WithContext(ctx).Warn("Failed to encode prediction event", "error", err)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, s.opts.PublishTimeout)
	defer cancel()

	if err := s.opts.Publisher.Publish(pubCtx, s.opts.Subject, data); err != nil {
		s.logger.WithContext(ctx).Warn("Failed to publish prediction event",
			"prediction_id", p.ID,
			"subject", s.opts.Subject,
			"error", err,
		)
	}
}

func (s *PredictionService) publishBatch(ctx context.Context, preds []*Prediction) {
	if s.opts.Publisher == nil || len(preds) == 0 {
		return
	}

	msgs := make([]queue.BatchMessage, 0, len(preds))
	for _, p := range preds {
		data, err := json.Marshal(s.event(ctx, p))
		if err != nil {
			s.logger.WithContext(ctx).Warn("Failed to encode prediction event", "prediction_id", p.ID, "error", err)
			continue
		}
		msgs = append(msgs, queue.BatchMessage{Subject: s.opts.Subject, Data: data})
	}

	pubCtx, cancel := context.WithTimeout(ctx, s.opts.PublishTimeout)
	defer cancel()

	sent, err := s.opts.Publisher.PublishBatch(pubCtx, msgs)
	if err != nil {
		s.logger.WithContext(ctx).Warn("Failed to publish prediction events",
			"subject", s.opts.Subject,
			"published", sent,
			"total", len(msgs),
			"error", err,
		)
	}
}
