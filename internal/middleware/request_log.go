package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger assigns a request id and logs every request once it
// completes. Mutations are logged at Info, reads at Debug, failures at Warn
// or Error.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			requestID := req.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(RequestIDHeader, requestID)
			c.Set("request_id", requestID)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			fields := []zap.Field{
				zap.String("request_id", requestID),
				zap.String("method", req.Method),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
			}
			switch {
			case status >= 500:
				logger.Error("request failed", append(fields, zap.Error(err))...)
			case status >= 400:
				logger.Warn("request rejected", fields...)
			case req.Method == "GET" || req.Method == "HEAD":
				logger.Debug("request", fields...)
			default:
				logger.Info("request", fields...)
			}
			return nil
		}
	}
}
