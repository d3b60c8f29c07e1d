package middleware

import (
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"go.uber.org/zap"
	"net/http"
	"time"
)

const (
	LoggerKey       = "logger"
	RequestIDHeader = "X-Request-ID"
)

// LoggingMiddleware attaches a request-scoped logger under LoggerKey and logs each request once it is served.
func LoggingMiddleware(log *zap.Logger) func(c *ginext.Context) {
	return func(c *ginext.Context) {
		start := time.Now()
		requestID := c.Request.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Writer.Header().Set(RequestIDHeader, requestID)

		reqLog := log.With(zap.String("request_id", requestID))
		c.Set(LoggerKey, reqLog)

		c.Next()

		if c.Request.URL.Path == "/health" {
			return
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			reqLog.Error("Request failed", fields...)
			return
		}
		reqLog.Info("Request served", fields...)
	}
}

// Recovery turns a panicking handler into a 500 and logs the panic.
func Recovery(log *zap.Logger) func(c *ginext.Context) {
	return func(c *ginext.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("Handler panicked", zap.Any("panic", rec), zap.String("path", c.Request.URL.Path), zap.Stack("stack"))
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}
