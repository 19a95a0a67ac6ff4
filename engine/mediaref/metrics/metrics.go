package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	monitoringmetrics "github.com/brandloom/brandloom/engine/infra/monitoring/metrics"
	"github.com/brandloom/brandloom/pkg/logger"
)

var (
	resolutionsTotal     metric.Int64Counter
	disambiguationsTotal metric.Int64Counter
	truncationsTotal     metric.Int64Counter
	messagesDroppedTotal metric.Int64Counter
	resolveLatency       metric.Float64Histogram

	metricsOnce sync.Once
	resetMutex  sync.Mutex
)

// Init registers the media reference metrics on the given meter. Safe to call
// more than once; only the first call registers.
func Init(ctx context.Context, meter metric.Meter) {
	if meter == nil {
		return
	}
	metricsOnce.Do(func() {
		initInstruments(ctx, meter)
	})
}

func initInstruments(ctx context.Context, meter metric.Meter) {
	log := logger.FromContext(ctx)
	counters := []struct {
		name        string
		description string
		target      *metric.Int64Counter
	}{
		{
			monitoringmetrics.MetricNameWithSubsystem("mediaref", "resolutions_total"),
			"Total number of media reference resolutions by method",
			&resolutionsTotal,
		},
		{
			monitoringmetrics.MetricNameWithSubsystem("mediaref", "disambiguations_total"),
			"Total number of resolutions sent back for clarification by reason",
			&disambiguationsTotal,
		},
		{
			monitoringmetrics.MetricNameWithSubsystem("budget", "truncations_total"),
			"Total number of history truncations that dropped messages",
			&truncationsTotal,
		},
		{
			monitoringmetrics.MetricNameWithSubsystem("budget", "messages_dropped_total"),
			"Total number of messages dropped by history truncation",
			&messagesDroppedTotal,
		},
	}
	for _, counter := range counters {
		created, err := meter.Int64Counter(counter.name, metric.WithDescription(counter.description))
		if err != nil {
			log.Error("Failed to create counter", "name", counter.name, "error", err)
			return
		}
		*counter.target = created
	}
	histogramName := monitoringmetrics.MetricNameWithSubsystem("mediaref", "resolve_duration_seconds")
	histogram, err := meter.Float64Histogram(histogramName, metric.WithDescription("Duration of resolve operations in seconds"))
	if err != nil {
		log.Error("Failed to create histogram", "name", histogramName, "error", err)
		return
	}
	resolveLatency = histogram
	log.Info("Media reference metrics initialized successfully")
}

// RecordResolution counts one resolution outcome.
func RecordResolution(ctx context.Context, method string) {
	if resolutionsTotal == nil {
		return
	}
	resolutionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}

// RecordDisambiguation counts one clarification trigger.
func RecordDisambiguation(ctx context.Context, reason string) {
	if disambiguationsTotal == nil {
		return
	}
	disambiguationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordTruncation counts a truncation that dropped messages.
func RecordTruncation(ctx context.Context, dropped int) {
	if dropped <= 0 {
		return
	}
	if truncationsTotal != nil {
		truncationsTotal.Add(ctx, 1)
	}
	if messagesDroppedTotal != nil {
		messagesDroppedTotal.Add(ctx, int64(dropped))
	}
}

// RecordResolveDuration records the latency of one resolve pipeline run.
func RecordResolveDuration(ctx context.Context, seconds float64) {
	if resolveLatency == nil {
		return
	}
	resolveLatency.Record(ctx, seconds)
}

// ResetForTesting clears all instruments so tests can re-initialize.
func ResetForTesting(context.Context) {
	resetMutex.Lock()
	defer resetMutex.Unlock()
	resolutionsTotal = nil
	disambiguationsTotal = nil
	truncationsTotal = nil
	messagesDroppedTotal = nil
	resolveLatency = nil
	metricsOnce = sync.Once{}
}
