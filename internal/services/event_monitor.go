package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ridecast/ridecast/internal/logging"
)

// EventSummary aggregates the prediction events seen by an EventMonitor
type EventSummary struct {
	Count          int         `json:"count"`
	MeanPrediction float64     `json:"mean_prediction"`
	MinPrediction  int         `json:"min_prediction"`
	MaxPrediction  int         `json:"max_prediction"`
	WithWarnings   int         `json:"with_warnings"`
	ByHour         map[int]int `json:"by_hour"`
	LastEventAt    time.Time   `json:"last_event_at,omitempty"`
}

// EventMonitor keeps running statistics over published prediction events.
// Handle has the subscriber.MessageHandler signature.
type EventMonitor struct {
	logger *logging.Logger

	mu       sync.Mutex
	count    int
	sum      float64
	min      int
	max      int
	warnings int
	byHour   map[int]int
	last     time.Time
}

// NewEventMonitor creates an empty monitor
func NewEventMonitor(logger *logging.Logger) *EventMonitor {
	if logger == nil {
		logger = logging.Global()
	}
	return &EventMonitor{
		logger: logger.With("component", "event_monitor"),
		min:    math.MaxInt,
		byHour: make(map[int]int),
	}
}

// Handle decodes one PredictionEvent and adds it to the statistics
func (m *EventMonitor) Handle(_ context.Context, subject string, data []byte) error {
	var event PredictionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to decode prediction event on %s: %w", subject, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.count++
	m.sum += float64(event.Prediction)
	if event.Prediction < m.min {
		m.min = event.Prediction
	}
	if event.Prediction > m.max {
		m.max = event.Prediction
	}
	if len(event.Warnings) > 0 {
		m.warnings++
	}
	m.byHour[event.Record.Hr]++
	if event.Timestamp.After(m.last) {
		m.last = event.Timestamp
	}

	m.logger.Debug("Prediction event received",
		"id", event.ID,
		"request_id", event.RequestID,
		"prediction", event.Prediction,
		"hr", event.Record.Hr)

	return nil
}

// Summary returns a snapshot of the statistics
func (m *EventMonitor) Summary() EventSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := EventSummary{
		Count:        m.count,
		WithWarnings: m.warnings,
		ByHour:       make(map[int]int, len(m.byHour)),
		LastEventAt:  m.last,
	}
	for hr, n := range m.byHour {
		s.ByHour[hr] = n
	}
	if m.count > 0 {
		s.MeanPrediction = m.sum / float64(m.count)
		s.MinPrediction = m.min
		s.MaxPrediction = m.max
	}
	return s
}
