package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Audit emits one structured log line per request. Requests addressing an account carry
// its number so money movements can be traced per account.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
			slog.Duration("duration", time.Since(start)),
		}
		if requestID, _ := c.Locals(requestIDHeader).(string); requestID != "" {
			attrs = append(attrs, slog.String("request_id", requestID))
		}
		if number := c.Params("accountNumber"); number != "" {
			attrs = append(attrs, slog.String("account_number", number))
		}
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				attrs[2] = slog.Int("status", fe.Code)
			}
			attrs = append(attrs, slog.Any("error", err))
			logger.Warn("request failed", attrs...)
			return err
		}

		logger.Info("request completed", attrs...)
		return nil
	}
}
