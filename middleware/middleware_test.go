package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/mflix-service/internal/core/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGetTraceID(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "traceparent",
			headers: map[string]string{TraceParentHeader: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"},
			want:    "4bf92f3577b34da6a3ce929d0e0e4736",
		},
		{
			name:    "x-trace-id fallback",
			headers: map[string]string{TraceIDHeader: "abc123"},
			want:    "abc123",
		},
		{
			name: "malformed traceparent falls back",
			headers: map[string]string{
				TraceParentHeader: "garbage",
				TraceIDHeader:     "fallback",
			},
			want: "fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetTraceID(c))
		})
	}
}

func TestGetTraceID_Generated(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	id := GetTraceID(c)
	assert.Len(t, id, 32)
	assert.NotEqual(t, id, GetTraceID(c))
}

func TestLoggingMiddleware_SetsHeader(t *testing.T) {
	r := gin.New()
	r.Use(LoggingMiddleware())
	r.GET("/health", func(c *gin.Context) {
		traceID, ok := c.Get("trace_id")
		require.True(t, ok)
		c.String(http.StatusOK, fmt.Sprint(traceID))
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(TraceIDHeader, "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", rec.Header().Get(TraceIDHeader))
	assert.Equal(t, "req-1", rec.Body.String())
}

func TestOutcome(t *testing.T) {
	dup := fmt.Errorf("insert: %w: %w", domain.ErrOperation, domain.ErrDuplicateKey)

	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "invalid", outcome(fmt.Errorf("x: %w", domain.ErrValidation)))
	assert.Equal(t, "duplicate", outcome(dup))
	assert.Equal(t, "write_error", outcome(fmt.Errorf("x: %w", domain.ErrOperation)))
	assert.Equal(t, "error", outcome(errors.New("network")))
}

func TestObserveStoreOperation(t *testing.T) {
	before := testutil.ToFloat64(storeOperationsTotal.WithLabelValues("test.op", "ok"))
	ObserveStoreOperation("test.op", time.Now(), nil)
	after := testutil.ToFloat64(storeOperationsTotal.WithLabelValues("test.op", "ok"))

	assert.Equal(t, before+1, after)
}

func TestPrometheusMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(PrometheusMiddleware())
	r.GET("/ready", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/ready", "503"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ready", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/ready", "503"))

	assert.Equal(t, before+1, after)
}
