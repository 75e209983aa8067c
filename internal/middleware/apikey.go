package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// APIKeyHeader carries the caller's shared secret.
const APIKeyHeader = "X-Api-Key"

// APIKey rejects requests whose X-Api-Key header does not match key.
func APIKey(key string) fiber.Handler {
	expected := []byte(key)
	return func(c *fiber.Ctx) error {
		given := c.Get(APIKeyHeader)
		if given == "" || len(expected) == 0 || subtle.ConstantTimeCompare([]byte(given), expected) != 1 {
			return fiber.NewError(http.StatusUnauthorized, "Invalid or missing API key")
		}
		return c.Next()
	}
}
