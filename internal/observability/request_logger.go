package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the per-request identifier on every response.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestLogger traces every inbound request: it assigns a fresh request
// id, exposes it as a response header, and emits paired received/completed
// log records. The completion record is deferred so it fires on every
// exit path, including downstream panics unwound by the recovery layer.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := uuid.NewString()

		c.Locals(requestIDKey, requestID)
		c.Set(RequestIDHeader, requestID)

		logger.Info("incoming request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("remote_addr", c.IP()),
			zap.String("request_id", requestID),
		)

		defer func() {
			duration := time.Since(start)
			status := c.Response().StatusCode()
			logger.Info("request completed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Duration("duration", duration),
				zap.String("request_id", requestID),
			)
			metrics.RecordRequest(c.Path(), c.Method(), status, duration)
		}()

		return c.Next()
	}
}

// RequestIDFromContext returns the identifier assigned by RequestLogger.
func RequestIDFromContext(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDKey).(string); ok {
		return id
	}
	return ""
}
