package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ridecast/ridecast/internal/models"
	"github.com/ridecast/ridecast/internal/utils"
)

// Health handles health check requests
func (h *Handler) Health(c *fiber.Ctx) error {
	resp := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   utils.Version,
	}
	if h.predictionService != nil {
		info := h.predictionService.Info()
		resp.Algorithm = info.Algorithm
		resp.SchemaVersion = info.SchemaVersion
	}
	return c.JSON(resp)
}

// NotFound handles 404 errors
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NOT_FOUND",
			Message: "Route not found",
			Path:    c.Path(),
		},
	})
}
