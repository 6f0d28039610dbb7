package handlers

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/gofiber/fiber/v2"
	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/logging"
	"github.com/ridecast/ridecast/internal/middleware"
	"github.com/ridecast/ridecast/internal/models"
	"github.com/ridecast/ridecast/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler contains all HTTP handlers
type Handler struct {
	logger            *logging.Logger
	predictionService *services.PredictionService
	dashboard         *template.Template
	hourMin           int
	hourMax           int
}

// New creates a new handler instance
func New(logger *logging.Logger, predictionService *services.PredictionService, inference config.InferenceConfig) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}

	return &Handler{
		logger:            logger,
		predictionService: predictionService,
		dashboard:         tmpl,
		hourMin:           inference.HourMin,
		hourMax:           inference.HourMax,
	}, nil
}

func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	detail := middleware.ErrorDetailFor(err)
	detail.Path = c.Path()
	return c.Status(middleware.StatusForError(err)).JSON(models.ErrorResponse{Error: detail})
}
