// Package middleware holds the fiber middlewares shared by the API and the
// dashboard.
package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/ridecast/ridecast/internal/features"
	"github.com/ridecast/ridecast/internal/logging"
	"github.com/ridecast/ridecast/internal/models"
	"github.com/ridecast/ridecast/internal/services"
)

// StatusForError maps a service or core error to an HTTP status
func StatusForError(err error) int {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		switch svcErr.Code {
		case services.CodeInvalidInput:
			return fiber.StatusBadRequest
		case services.CodeSchemaMismatch:
			return fiber.StatusUnprocessableEntity
		}
		return fiber.StatusInternalServerError
	}

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, features.ErrInvalidInput):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// ErrorDetailFor builds the response body for an error
func ErrorDetailFor(err error) models.ErrorDetail {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		return models.ErrorDetail{Code: svcErr.Code, Message: svcErr.Message, Details: svcErr.Details}
	}

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return models.ErrorDetail{Code: "ERROR", Message: fe.Message}
	case errors.Is(err, features.ErrInvalidInput):
		return models.ErrorDetail{Code: services.CodeInvalidInput, Message: err.Error()}
	}
	return models.ErrorDetail{Code: "INTERNAL_ERROR", Message: "Internal Server Error"}
}

// ErrorHandler returns a custom error handler middleware
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := StatusForError(err)
		detail := ErrorDetailFor(err)
		detail.Path = c.Path()

		fields := []interface{}{
			"path", c.Path(),
			"method", c.Method(),
			"status", code,
			"error", err,
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("Request error", fields...)
		} else {
			logger.Debug("Request rejected", fields...)
		}

		return c.Status(code).JSON(models.ErrorResponse{Error: detail})
	}
}
