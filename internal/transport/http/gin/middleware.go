package httpgin

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kirinyoku/cineseat/internal/metrics"
)

const (
	requestIDKey    = "request_id"
	headerRequestID = "X-Request-ID"

	// client supplied ids longer than this are replaced
	maxRequestIDLen = 128
)

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(headerRequestID)
		if reqID == "" || len(reqID) > maxRequestIDLen {
			reqID = uuid.NewString()
		}

		c.Header(headerRequestID, reqID)
		c.Set(requestIDKey, reqID)

		c.Next()
	}
}

// RecoveryMiddleware turns a handler panic into the usual JSON error body.
// It must run inside LoggingMiddleware so the request is still logged.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		_ = c.Error(fmt.Errorf("panic: %v", rec))
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody("Internal server error"))
	})
}

func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			headerRequestID,
			"Idempotency-Key",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			headerRequestID,
			"ETag",
			"Cache-Control",
			"Idempotency-Key",
			"Idempotent-Replayed",
			"Retry-After",
		},
		MaxAge: 12 * time.Hour,
	})
}

// LoggingMiddleware writes one "http" record per request. Server faults log
// at error level, requests that recorded an error (lost seat races, bad
// input) at warn, probes at debug and everything else at info.
func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		attrs := []any{
			slog.Int("status", status),
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", c.Writer.Size()),
		}
		if cinemaID := c.Param("cinemaId"); cinemaID != "" {
			attrs = append(attrs, slog.String("cinema_id", cinemaID))
		}
		if c.Writer.Header().Get("Idempotent-Replayed") != "" {
			attrs = append(attrs, slog.Bool("replayed", true))
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case len(c.Errors) > 0:
			level = slog.LevelWarn
		case route == "/healthz" || route == "/metrics":
			level = slog.LevelDebug
		}

		args := []any{slog.Group("http", attrs...)}
		if len(c.Errors) > 0 {
			args = append(args, slog.String("error", c.Errors.String()))
		}

		logger.Log(context.WithoutCancel(c.Request.Context()), level, "http", args...)
	}
}

// MetricsMiddleware records request counts and latency per route template.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		method := c.Request.Method
		m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
