package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics records synchronization-layer metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic; recording is best-effort.
type Metrics interface {
	// RecordLoad records one completed load for a resource type with
	// its duration and error status.
	RecordLoad(ctx context.Context, resourceType string, duration time.Duration, err error)

	// RecordCacheHit records a load served from cache without network.
	RecordCacheHit(ctx context.Context, resourceType string)

	// RecordCacheMiss records a load that required a network fetch.
	RecordCacheMiss(ctx context.Context, resourceType string)

	// RecordDedupJoin records a caller that joined an in-flight fetch
	// instead of issuing its own.
	RecordDedupJoin(ctx context.Context, resourceType string)

	// RecordRefresh records a credential refresh attempt.
	RecordRefresh(ctx context.Context, err error)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	loadCount    metric.Int64Counter
	loadErrors   metric.Int64Counter
	durationHist metric.Float64Histogram
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
	dedupJoins   metric.Int64Counter
	refreshCount metric.Int64Counter
}

// NewMetrics creates a Metrics instance recording through meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	loadCount, err := meter.Int64Counter(
		"sync.load.total",
		metric.WithDescription("Total number of resource loads that reached the network"),
		metric.WithUnit("{load}"),
	)
	if err != nil {
		return nil, err
	}

	loadErrors, err := meter.Int64Counter(
		"sync.load.errors",
		metric.WithDescription("Total number of failed resource loads"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"sync.load.duration_ms",
		metric.WithDescription("Resource load duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"sync.cache.hits",
		metric.WithDescription("Loads served from cache without network access"),
		metric.WithUnit("{load}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"sync.cache.misses",
		metric.WithDescription("Loads that required a network fetch"),
		metric.WithUnit("{load}"),
	)
	if err != nil {
		return nil, err
	}

	dedupJoins, err := meter.Int64Counter(
		"sync.load.joined",
		metric.WithDescription("Callers that joined an in-flight fetch"),
		metric.WithUnit("{caller}"),
	)
	if err != nil {
		return nil, err
	}

	refreshCount, err := meter.Int64Counter(
		"sync.auth.refreshes",
		metric.WithDescription("Credential refresh attempts"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		loadCount:    loadCount,
		loadErrors:   loadErrors,
		durationHist: durationHist,
		cacheHits:    cacheHits,
		cacheMisses:  cacheMisses,
		dedupJoins:   dedupJoins,
		refreshCount: refreshCount,
	}, nil
}

func resourceAttrs(resourceType string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("resource.type", resourceType))
}

func (m *metricsImpl) RecordLoad(ctx context.Context, resourceType string, duration time.Duration, err error) {
	opt := resourceAttrs(resourceType)
	m.loadCount.Add(ctx, 1, opt)
	if err != nil {
		m.loadErrors.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordCacheHit(ctx context.Context, resourceType string) {
	m.cacheHits.Add(ctx, 1, resourceAttrs(resourceType))
}

func (m *metricsImpl) RecordCacheMiss(ctx context.Context, resourceType string) {
	m.cacheMisses.Add(ctx, 1, resourceAttrs(resourceType))
}

func (m *metricsImpl) RecordDedupJoin(ctx context.Context, resourceType string) {
	m.dedupJoins.Add(ctx, 1, resourceAttrs(resourceType))
}

func (m *metricsImpl) RecordRefresh(ctx context.Context, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.refreshCount.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("nop"))
	return m
}
