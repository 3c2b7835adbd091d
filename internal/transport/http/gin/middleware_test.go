package httpgin

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDKey))
	})

	t.Run("propagates client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(headerRequestID, "abc")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, "abc", rec.Header().Get(headerRequestID))
		assert.Equal(t, "abc", rec.Body.String())
	})

	t.Run("generates when missing or oversized", func(t *testing.T) {
		for _, in := range []string{"", strings.Repeat("x", maxRequestIDLen+1)} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if in != "" {
				req.Header.Set(headerRequestID, in)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			got := rec.Header().Get(headerRequestID)
			assert.Len(t, got, 36)
			assert.NotEqual(t, in, got)
		}
	})
}

func TestLoggingMiddleware_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := gin.New()
	r.Use(LoggingMiddleware(logger), RequestIDMiddleware())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/cinemas/:cinemaId/seats/:seatNumber/purchase", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusConflict)
	})
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	tests := []struct {
		method string
		path   string
		level  string
		extra  string
	}{
		{method: http.MethodGet, path: "/ok", level: "level=INFO"},
		{method: http.MethodGet, path: "/healthz", level: "level=DEBUG"},
		{method: http.MethodPost, path: "/cinemas/odeon-1/seats/4/purchase", level: "level=WARN", extra: "http.cinema_id=odeon-1"},
		{method: http.MethodGet, path: "/boom", level: "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			buf.Reset()

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			line := buf.String()
			require.NotEmpty(t, line)
			assert.Contains(t, line, tt.level)
			assert.Contains(t, line, "http.request_id=")
			if tt.extra != "" {
				assert.Contains(t, line, tt.extra)
			}
		})
	}
}
