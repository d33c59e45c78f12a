package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-user-api/internal/observability"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestRequestLoggerUsesRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.GET("/api/tasks/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	perform(router, http.MethodGet, "/api/tasks/abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "/api/tasks/:id", entry["route"])
	assert.Equal(t, "/api/tasks/abc", entry["path"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
}

func TestRequestLoggerUnmatchedRoute(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(RequestLogger(logger))

	perform(router, http.MethodGet, "/nowhere")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "unmatched", entry["route"])
}

func TestMetricsCountsRequests(t *testing.T) {
	router := gin.New()
	router.Use(Metrics())
	router.GET("/metrics-probe", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	counter := observability.HTTPRequests.WithLabelValues(http.MethodGet, "/metrics-probe", "200")
	before := testutil.ToFloat64(counter)

	perform(router, http.MethodGet, "/metrics-probe")
	perform(router, http.MethodGet, "/metrics-probe")

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestRateLimitRejectsOverBurst(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(0.001, 2))
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/").Code)
	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/").Code)

	w := perform(router, http.MethodGet, "/")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, msgTooManyRequests, body["message"])
	assert.Nil(t, body["data"])
}

func TestRateLimitDisabled(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(0, 1))
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/").Code)
	}
}
