package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/brandloom/brandloom/engine/infra/monitoring/metrics"
	"github.com/brandloom/brandloom/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// instrumentedRouter wires the middleware to a manual reader so tests can
// collect exactly what one request emitted.
func instrumentedRouter(t *testing.T) (*gin.Engine, func() map[string]metricdata.Metrics) {
	t.Helper()
	ResetMetricsForTesting()
	t.Cleanup(ResetMetricsForTesting)
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	ctx := logger.ContextWithLogger(context.Background(), logger.NewForTests())
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(HTTPMetrics(ctx, meter))
	collect := func() map[string]metricdata.Metrics {
		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))
		out := make(map[string]metricdata.Metrics)
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				out[m.Name] = m
			}
		}
		return out
	}
	return router, collect
}

func requestPoints(t *testing.T, collected map[string]metricdata.Metrics) []metricdata.DataPoint[int64] {
	t.Helper()
	m, ok := collected["brandloom_http_requests_total"]
	require.True(t, ok, "request counter not recorded")
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	return sum.DataPoints
}

func inFlightValue(collected map[string]metricdata.Metrics) int64 {
	m, ok := collected["brandloom_http_requests_in_flight"]
	if !ok {
		return 0
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) == 0 {
		return 0
	}
	return sum.DataPoints[0].Value
}

func TestHTTPMetrics(t *testing.T) {
	t.Run("Should label counter and histogram with method, route and status", func(t *testing.T) {
		router, collect := instrumentedRouter(t)
		router.POST("/api/v0/resolve", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"resolved": true})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v0/resolve", http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)

		collected := collect()
		points := requestPoints(t, collected)
		require.Len(t, points, 1)
		attrs := points[0].Attributes.ToSlice()
		assert.Contains(t, attrs, attribute.String("method", "POST"))
		assert.Contains(t, attrs, attribute.String("path", "/api/v0/resolve"))
		assert.Contains(t, attrs, attribute.String("status_code", "200"))
		assert.Equal(t, int64(1), points[0].Value)

		duration, ok := collected["brandloom_http_request_duration_seconds"]
		require.True(t, ok, "duration histogram not recorded")
		hist, ok := duration.Data.(metricdata.Histogram[float64])
		require.True(t, ok)
		require.Len(t, hist.DataPoints, 1)
		assert.Contains(t, hist.DataPoints[0].Attributes.ToSlice(), attribute.String("status_code", "200"))
		assert.Greater(t, hist.DataPoints[0].Sum, float64(0))
	})

	t.Run("Should record non-2xx status codes", func(t *testing.T) {
		router, collect := instrumentedRouter(t)
		router.POST("/api/v0/context/truncate", func(c *gin.Context) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "budget exceeded"})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v0/context/truncate", http.NoBody))
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		points := requestPoints(t, collect())
		require.Len(t, points, 1)
		attrs := points[0].Attributes.ToSlice()
		assert.Contains(t, attrs, attribute.String("path", "/api/v0/context/truncate"))
		assert.Contains(t, attrs, attribute.String("status_code", "422"))
	})

	t.Run("Should collapse unmatched paths into a single series", func(t *testing.T) {
		router, collect := instrumentedRouter(t)
		router.GET("/api/v0/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})

		for _, path := range []string{"/nope", "/conversations/missing", "/api/v1/resolve"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", path, http.NoBody))
			require.Equal(t, http.StatusNotFound, w.Code)
		}

		points := requestPoints(t, collect())
		require.Len(t, points, 1)
		attrs := points[0].Attributes.ToSlice()
		assert.Contains(t, attrs, attribute.String("path", "unmatched"))
		assert.Equal(t, int64(3), points[0].Value)
	})

	t.Run("Should group parameterized routes under the template", func(t *testing.T) {
		router, collect := instrumentedRouter(t)
		router.GET("/api/v0/media/:mediaID", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"media_id": c.Param("mediaID")})
		})

		for _, id := range []string{"hero-shot", "logo-primary", "bts-clip"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v0/media/"+id, http.NoBody))
			require.Equal(t, http.StatusOK, w.Code)
		}

		points := requestPoints(t, collect())
		require.Len(t, points, 1, "distinct media IDs must share one series")
		assert.Contains(t, points[0].Attributes.ToSlice(), attribute.String("path", "/api/v0/media/:mediaID"))
		assert.Equal(t, int64(3), points[0].Value)
	})

	t.Run("Should use the configured latency buckets", func(t *testing.T) {
		router, collect := instrumentedRouter(t)
		router.GET("/api/v0/health", func(c *gin.Context) {
			time.Sleep(5 * time.Millisecond)
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v0/health", http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)

		m, ok := collect()["brandloom_http_request_duration_seconds"]
		require.True(t, ok)
		hist, ok := m.Data.(metricdata.Histogram[float64])
		require.True(t, ok)
		require.Len(t, hist.DataPoints, 1)
		assert.Equal(t, metrics.HTTPDurationBuckets, hist.DataPoints[0].Bounds)
	})
}

func TestHTTPMetricsInFlight(t *testing.T) {
	t.Run("Should track concurrent requests and drain back to zero", func(t *testing.T) {
		router, collect := instrumentedRouter(t)

		const concurrent = 3
		started := make(chan struct{}, concurrent)
		release := make(chan struct{})
		router.GET("/slow", func(c *gin.Context) {
			started <- struct{}{}
			<-release
			c.String(http.StatusOK, "done")
		})

		var wg sync.WaitGroup
		for range concurrent {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := httptest.NewRecorder()
				router.ServeHTTP(w, httptest.NewRequest("GET", "/slow", http.NoBody))
			}()
		}
		for range concurrent {
			<-started
		}

		assert.Equal(t, int64(concurrent), inFlightValue(collect()))

		close(release)
		wg.Wait()
		assert.Equal(t, int64(0), inFlightValue(collect()))
	})
}

func TestHTTPMetricsDegradedMeter(t *testing.T) {
	t.Run("Should serve requests with a noop meter", func(t *testing.T) {
		ResetMetricsForTesting()
		t.Cleanup(ResetMetricsForTesting)
		ctx := logger.ContextWithLogger(context.Background(), logger.NewForTests())
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(HTTPMetrics(ctx, noop.NewMeterProvider().Meter("test")))
		router.GET("/api/v0/health", func(c *gin.Context) {
			c.String(http.StatusOK, "healthy")
		})

		w := httptest.NewRecorder()
		assert.NotPanics(t, func() {
			router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v0/health", http.NoBody))
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should serve requests with a nil meter", func(t *testing.T) {
		ResetMetricsForTesting()
		t.Cleanup(ResetMetricsForTesting)
		ctx := logger.ContextWithLogger(context.Background(), logger.NewForTests())
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(HTTPMetrics(ctx, nil))
		router.GET("/api/v0/health", func(c *gin.Context) {
			c.String(http.StatusOK, "healthy")
		})

		w := httptest.NewRecorder()
		assert.NotPanics(t, func() {
			router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v0/health", http.NoBody))
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
