package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "rl:v1:"

// AccountRateLimit caps requests per account number per minute using a Redis counter.
// scope namespaces the counter (e.g. "withdraw"). Without Redis it is a no-op, and cache
// errors fail open.
func AccountRateLimit(cache *redis.Client, scope string, maxPerMin int, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cache == nil || maxPerMin <= 0 {
			return c.Next()
		}
		number := c.Params("accountNumber")
		if number == "" {
			return c.Next()
		}

		key := rateLimitPrefix + scope + ":" + number

		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			logger.Warn("rate limit lookup failed", slog.String("key", key), slog.Any("error", err))
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			c.Set(fiber.HeaderRetryAfter, "60")
			return fiber.NewError(http.StatusTooManyRequests, fmt.Sprintf("too many %s requests for account %s, try again later", scope, number))
		}
		return c.Next()
	}
}
