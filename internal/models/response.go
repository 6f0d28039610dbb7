package models

import "time"

// HealthResponse represents health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	Version       string `json:"version"`
	Algorithm     string `json:"algorithm,omitempty"`
	SchemaVersion int    `json:"schema_version,omitempty"`
}

// PredictResponse represents a single prediction
type PredictResponse struct {
	ID            string             `json:"id"`
	Prediction    int                `json:"prediction"`
	RawPrediction float64            `json:"raw_prediction"`
	Algorithm     string             `json:"algorithm"`
	SchemaVersion int                `json:"schema_version"`
	Warnings      []string           `json:"warnings,omitempty"`
	Features      map[string]float64 `json:"features,omitempty"` // Set with ?explain=true
	RequestID     string             `json:"request_id,omitempty"`
}

// BatchItem is the outcome for one record of a batch
type BatchItem struct {
	Index      int              `json:"index"`
	Prediction *PredictResponse `json:"prediction,omitempty"`
	Error      *ErrorDetail     `json:"error,omitempty"`
}

// PredictBatchResponse represents batch prediction response
type PredictBatchResponse struct {
	Accepted  int         `json:"accepted"`
	Rejected  int         `json:"rejected"`
	Results   []BatchItem `json:"results"`
	RequestID string      `json:"request_id,omitempty"`
}

// SchemaResponse describes the training column schema
type SchemaResponse struct {
	Version         int              `json:"version"`
	Columns         []string         `json:"columns"`
	Count           int              `json:"count"`
	Categorical     map[string][]int `json:"categorical,omitempty"`
	ReferenceLevels map[string]int   `json:"reference_levels,omitempty"`
	LagFillValue    *float64         `json:"lag_fill_value,omitempty"`
	CreatedAt       string           `json:"created_at,omitempty"`
}

// ModelResponse describes the loaded model
type ModelResponse struct {
	Algorithm         string             `json:"algorithm"`
	Params            map[string]float64 `json:"params,omitempty"`
	Features          int                `json:"features"`
	Metrics           map[string]float64 `json:"metrics,omitempty"`
	TrainedAt         *time.Time         `json:"trained_at,omitempty"`
	LoadedAt          time.Time          `json:"loaded_at"`
	LagFallback       float64            `json:"lag_fallback"`
	LagFallbackSource string             `json:"lag_fallback_source"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
