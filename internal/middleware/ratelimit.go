package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	rateLimitPrefix = "rl:payments:"
	// rateLimitTTL outlives the one-minute window named in the key.
	rateLimitTTL = 2 * time.Minute
)

// RateLimit caps unsafe requests per API key (or client IP when no key is
// present) to maxPerMin using a fixed one-minute Redis window. Without Redis,
// or when Redis fails, requests pass through.
func RateLimit(cache *redis.Client, maxPerMin int, logger *slog.Logger) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 60
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		subject := c.IP()
		if key := c.Get(APIKeyHeader); key != "" {
			sum := sha256.Sum256([]byte(key))
			subject = hex.EncodeToString(sum[:8])
		}
		window := time.Now().UTC().Truncate(time.Minute).Unix()
		cacheKey := rateLimitPrefix + subject + ":" + strconv.FormatInt(window, 10)

		var incr *redis.IntCmd
		_, err := cache.TxPipelined(c.UserContext(), func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(c.UserContext(), cacheKey)
			pipe.Expire(c.UserContext(), cacheKey, rateLimitTTL)
			return nil
		})
		if err != nil {
			if logger != nil {
				logger.Warn("rate limit lookup failed", slog.Any("error", err))
			}
			return c.Next()
		}
		cnt := incr.Val()
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many payment requests, try again later")
		}
		return c.Next()
	}
}
