package monitoring

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/brandloom/brandloom/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// freshSystemMetrics resets the shared instruments and wires them to a manual
// reader, returning a collector for the current metric state.
func freshSystemMetrics(t *testing.T) (context.Context, func() map[string]metricdata.Metrics) {
	t.Helper()
	ctx := context.Background()
	ResetSystemMetricsForTesting(ctx)
	t.Cleanup(func() { ResetSystemMetricsForTesting(ctx) })

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	InitSystemMetrics(ctx, provider.Meter("test"))

	collect := func() map[string]metricdata.Metrics {
		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(ctx, &rm))
		byName := make(map[string]metricdata.Metrics)
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				byName[m.Name] = m
			}
		}
		return byName
	}
	return ctx, collect
}

func gaugeLabels(t *testing.T, m metricdata.Metrics) map[string]string {
	t.Helper()
	gauge, ok := m.Data.(metricdata.Gauge[float64])
	require.True(t, ok, "%s should be a float64 gauge", m.Name)
	require.Len(t, gauge.DataPoints, 1)
	labels := make(map[string]string)
	for _, attr := range gauge.DataPoints[0].Attributes.ToSlice() {
		labels[string(attr.Key)] = attr.Value.AsString()
	}
	return labels
}

func gaugeValue(t *testing.T, m metricdata.Metrics) float64 {
	t.Helper()
	gauge, ok := m.Data.(metricdata.Gauge[float64])
	require.True(t, ok, "%s should be a float64 gauge", m.Name)
	require.Len(t, gauge.DataPoints, 1)
	return gauge.DataPoints[0].Value
}

func TestSystemMetrics(t *testing.T) {
	t.Run("Should record build info with version labels", func(t *testing.T) {
		_, collect := freshSystemMetrics(t)

		byName := collect()
		m, ok := byName["brandloom_build_info"]
		require.True(t, ok, "brandloom_build_info metric not found")

		assert.Equal(t, float64(1), gaugeValue(t, m))
		labels := gaugeLabels(t, m)
		assert.Contains(t, labels, "version")
		assert.Contains(t, labels, "commit_hash")
		assert.Equal(t, runtime.Version(), labels["go_version"])
		assert.Len(t, labels, 3, "build_info carries exactly the version labels")
	})

	t.Run("Should expose a growing uptime gauge without labels", func(t *testing.T) {
		_, collect := freshSystemMetrics(t)

		time.Sleep(20 * time.Millisecond)
		first, ok := collect()["brandloom_uptime_seconds"]
		require.True(t, ok, "brandloom_uptime_seconds metric not found")
		uptime1 := gaugeValue(t, first)
		assert.Greater(t, uptime1, float64(0))
		assert.Empty(t, gaugeLabels(t, first))

		time.Sleep(50 * time.Millisecond)
		uptime2 := gaugeValue(t, collect()["brandloom_uptime_seconds"])
		assert.Greater(t, uptime2, uptime1)
	})

	t.Run("Should register instruments once across repeated init", func(t *testing.T) {
		ctx, collect := freshSystemMetrics(t)

		reader := sdkmetric.NewManualReader()
		meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("second")
		InitSystemMetrics(ctx, meter)
		InitSystemMetrics(ctx, meter)

		byName := collect()
		assert.Contains(t, byName, "brandloom_build_info")
		assert.Contains(t, byName, "brandloom_uptime_seconds")
	})
}

func TestBuildMetadata(t *testing.T) {
	t.Run("Should prefer ldflags-injected values", func(t *testing.T) {
		origVersion, origCommit := version.Version, version.CommitHash
		defer func() {
			version.Version, version.CommitHash = origVersion, origCommit
		}()

		version.Version = "v1.2.3"
		version.CommitHash = "abc123"

		ver, commit, goVersion := buildMetadata()
		assert.Equal(t, "v1.2.3", ver)
		assert.Equal(t, "abc123", commit)
		assert.Equal(t, runtime.Version(), goVersion)
	})

	t.Run("Should fall back to embedded build info", func(t *testing.T) {
		origVersion, origCommit := version.Version, version.CommitHash
		defer func() {
			version.Version, version.CommitHash = origVersion, origCommit
		}()

		version.Version = "unknown"
		version.CommitHash = "unknown"

		ver, commit, goVersion := buildMetadata()
		assert.NotEmpty(t, ver)
		assert.NotEmpty(t, commit)
		assert.Equal(t, runtime.Version(), goVersion)
	})

	t.Run("Should pass semver metadata through untouched", func(t *testing.T) {
		origVersion := version.Version
		defer func() { version.Version = origVersion }()
		version.Version = "v1.2.3-beta+build.456"

		_, collect := freshSystemMetrics(t)
		labels := gaugeLabels(t, collect()["brandloom_build_info"])
		assert.Equal(t, "v1.2.3-beta+build.456", labels["version"])
	})
}
