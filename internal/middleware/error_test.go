package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/ridecast/ridecast/internal/features"
	"github.com/ridecast/ridecast/internal/logging"
	"github.com/ridecast/ridecast/internal/models"
	"github.com/ridecast/ridecast/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "invalid input service error",
			err:      services.NewServiceError(services.CodeInvalidInput, "missing required fields: temp"),
			wantCode: fiber.StatusBadRequest,
			wantErr:  services.CodeInvalidInput,
		},
		{
			name:     "schema mismatch",
			err:      services.NewServiceError(services.CodeSchemaMismatch, "bad schema"),
			wantCode: fiber.StatusUnprocessableEntity,
			wantErr:  services.CodeSchemaMismatch,
		},
		{
			name:     "prediction failed",
			err:      services.NewServiceError(services.CodePredictionFailed, "boom"),
			wantCode: fiber.StatusInternalServerError,
			wantErr:  services.CodePredictionFailed,
		},
		{
			name:     "wrapped invalid input",
			err:      fmt.Errorf("decode: %w", features.ErrInvalidInput),
			wantCode: fiber.StatusBadRequest,
			wantErr:  services.CodeInvalidInput,
		},
		{
			name:     "fiber error",
			err:      fiber.NewError(fiber.StatusMethodNotAllowed, "nope"),
			wantCode: fiber.StatusMethodNotAllowed,
			wantErr:  "ERROR",
		},
		{
			name:     "unknown error",
			err:      errors.New("disk on fire"),
			wantCode: fiber.StatusInternalServerError,
			wantErr:  "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.NewNop())})
			app.Get("/fail", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantErr, body.Error.Code)
			assert.Equal(t, "/fail", body.Error.Path)
		})
	}
}

func TestErrorDetailFor_HidesInternalMessages(t *testing.T) {
	detail := ErrorDetailFor(errors.New("connection string with password"))
	assert.Equal(t, "Internal Server Error", detail.Message)
}
