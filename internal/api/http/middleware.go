package http

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-api/internal/config"
	"github.com/spec-kit/employee-api/internal/observability"
	apperrors "github.com/spec-kit/employee-api/pkg/util"
)

// RegisterMiddlewares attaches the global pipeline stages that run before
// authentication: request tracing, CORS, timeout and error normalization.
// Tracing is outermost so its completion record covers every exit path.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, cfg *config.Config) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(corsMiddleware(cfg.CORS))
	if timeout := cfg.App.RequestTimeout(); timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
}

func corsMiddleware(cfg config.CORSConfig) fiber.Handler {
	// credentials cannot ride a wildcard origin
	wildcard := len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*"
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Authorization,Content-Type,X-Requested-With,X-API-Key,X-Client-ID",
		ExposeHeaders:    "Authorization,Content-Type,X-Request-ID",
		AllowCredentials: !wildcard,
		MaxAge:           3600,
	})
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware is the error normalizer: every failure raised
// downstream, panics included, becomes exactly one envelope of the shape
// {timestamp, status, error, message, details?}.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("request_id", observability.RequestIDFromContext(c)),
				)
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				logFailure(logger, c, domainErr)

				envelope := fiber.Map{
					"timestamp": time.Now().Format(time.RFC3339),
					"status":    domainErr.HTTPStatus,
					"error":     http.StatusText(domainErr.HTTPStatus),
					"message":   domainErr.Message,
				}
				if len(domainErr.Details) > 0 {
					envelope["details"] = domainErr.Details
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(envelope)
				err = nil
			}
		}()
		return c.Next()
	}
}

func logFailure(logger *zap.Logger, c *fiber.Ctx, domainErr *apperrors.DomainError) {
	fields := []zap.Field{
		zap.String("code", domainErr.Code),
		zap.String("path", c.Path()),
		zap.String("request_id", observability.RequestIDFromContext(c)),
	}
	if domainErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error("request failed", append(fields, zap.Error(domainErr))...)
		return
	}
	logger.Warn("request rejected", append(fields, zap.String("message", domainErr.Message))...)
}
