package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ridecast/ridecast/internal/features"
	"github.com/ridecast/ridecast/internal/logging"
	"github.com/ridecast/ridecast/internal/middleware"
	"github.com/ridecast/ridecast/internal/models"
	"github.com/ridecast/ridecast/internal/services"
)

// Predict handles POST /v1/predict
// Body is a JSON object of field values; ?explain=true adds the aligned
// feature vector to the response.
func (h *Handler) Predict(c *fiber.Ctx) error {
	var req models.PredictRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil || req == nil {
		return h.respondError(c, fmt.Errorf("%w: request body must be a JSON object", features.ErrInvalidInput))
	}

	ctx := c.UserContext()
	p, err := h.predictionService.Predict(ctx, features.RawRecord(req))
	if err != nil {
		return h.respondError(c, err)
	}

	if len(p.Warnings) > 0 {
		logging.WarnCtx(ctx, "Prediction served with warnings", "id", p.ID, "warnings", p.Warnings)
	}

	return c.JSON(toPredictResponse(p, c.QueryBool("explain"), logging.RequestIDFromContext(ctx)))
}

// PredictBatch handles POST /v1/predict/batch
func (h *Handler) PredictBatch(c *fiber.Ctx) error {
	var req models.PredictBatchRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return h.respondError(c, fmt.Errorf("%w: request body must be a JSON object with a records array", features.ErrInvalidInput))
	}
	if len(req.Records) == 0 {
		return h.respondError(c, fmt.Errorf("%w: records must not be empty", features.ErrInvalidInput))
	}

	raws := make([]features.RawRecord, len(req.Records))
	for i, r := range req.Records {
		raws[i] = features.RawRecord(r)
	}

	ctx := c.UserContext()
	requestID := logging.RequestIDFromContext(ctx)
	explain := c.QueryBool("explain")

	resp := models.PredictBatchResponse{
		Results:   make([]models.BatchItem, len(raws)),
		RequestID: requestID,
	}
	for i, r := range h.predictionService.PredictBatch(ctx, raws) {
		item := models.BatchItem{Index: i}
		if r.Err != nil {
			detail := middleware.ErrorDetailFor(r.Err)
			item.Error = &detail
			resp.Rejected++
		} else {
			item.Prediction = toPredictResponse(r.Prediction, explain, "")
			resp.Accepted++
		}
		resp.Results[i] = item
	}

	logging.DebugCtx(ctx, "Batch scored", "accepted", resp.Accepted, "rejected", resp.Rejected)

	return c.JSON(resp)
}

// Schema handles GET /v1/schema
func (h *Handler) Schema(c *fiber.Ctx) error {
	s := h.predictionService.Schema()
	resp := models.SchemaResponse{
		Version:         s.Version,
		Columns:         s.Columns,
		Count:           s.Len(),
		Categorical:     s.Categorical,
		ReferenceLevels: s.ReferenceLevels,
		LagFillValue:    s.LagFillValue,
	}
	if !s.CreatedAt.IsZero() {
		resp.CreatedAt = s.CreatedAt.Format(time.RFC3339)
	}
	return c.JSON(resp)
}

// Model handles GET /v1/model
func (h *Handler) Model(c *fiber.Ctx) error {
	info := h.predictionService.Info()
	resp := models.ModelResponse{
		Algorithm:         info.Algorithm,
		Params:            info.Params,
		Features:          info.Features,
		Metrics:           info.Metrics,
		LoadedAt:          info.LoadedAt,
		LagFallback:       info.LagFallback,
		LagFallbackSource: info.LagFallbackSource,
	}
	if !info.TrainedAt.IsZero() {
		resp.TrainedAt = &info.TrainedAt
	}
	return c.JSON(resp)
}

func toPredictResponse(p *services.Prediction, explain bool, requestID string) *models.PredictResponse {
	resp := &models.PredictResponse{
		ID:            p.ID,
		Prediction:    p.Count,
		RawPrediction: p.Raw,
		Algorithm:     p.Algorithm,
		SchemaVersion: p.SchemaVersion,
		Warnings:      p.Warnings,
		RequestID:     requestID,
	}
	if explain {
		resp.Features = p.Features.Map()
	}
	return resp
}
