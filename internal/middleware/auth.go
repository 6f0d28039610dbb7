package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/logging"
	"github.com/ridecast/ridecast/internal/models"
)

// MinAPIKeyLength is the minimum accepted API key length
const MinAPIKeyLength = 32

// ValidateAPIKey reports whether a configured key is long enough to use
func ValidateAPIKey(key string) bool {
	return len(key) >= MinAPIKeyLength && strings.TrimSpace(key) != ""
}

// APIKeyAuth checks the X-API-Key header, or an Authorization header with or
// without the Bearer prefix, against the configured keys. Keys shorter than
// MinAPIKeyLength are ignored with a warning.
func APIKeyAuth(logger *logging.Logger, cfg config.AuthConfig) fiber.Handler {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	var keys [][]byte
	for _, key := range cfg.APIKeys {
		if !ValidateAPIKey(key) {
			logger.Warn("Ignoring short API key",
				"key_prefix", maskAPIKey(key),
				"min_length", MinAPIKeyLength,
			)
			continue
		}
		keys = append(keys, []byte(key))
	}
	if len(keys) == 0 {
		logger.Error("No usable API keys configured, every API request will be rejected",
			"configured", len(cfg.APIKeys),
		)
	}

	return func(c *fiber.Ctx) error {
		apiKey := requestAPIKey(c)
		if apiKey == "" {
			return unauthorized(c, "API key is required. Provide it via X-API-Key or Authorization header.")
		}

		for _, k := range keys {
			if subtle.ConstantTimeCompare(k, []byte(apiKey)) == 1 {
				return c.Next()
			}
		}

		logger.WithContext(c.UserContext()).Warn("Invalid API key",
			"path", c.Path(),
			"ip", c.IP(),
			"key_prefix", maskAPIKey(apiKey),
		)
		return unauthorized(c, "Invalid API key.")
	}
}

func requestAPIKey(c *fiber.Ctx) string {
	if key := c.Get("X-API-Key"); key != "" {
		return key
	}
	auth := c.Get(fiber.HeaderAuthorization)
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return after
	}
	return auth
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "UNAUTHORIZED",
			Message: msg,
			Path:    c.Path(),
		},
	})
}

// maskAPIKey keeps the first 4 characters for logs
func maskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
