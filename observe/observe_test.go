package observe

import (
	"context"
	"errors"
	"testing"
)

// TestConfig_Validate tests configuration validation rules.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			"missing service name",
			Config{},
			ErrMissingServiceName,
		},
		{
			"valid minimal",
			Config{ServiceName: "synckit"},
			nil,
		},
		{
			"bad tracing exporter",
			Config{ServiceName: "synckit", Tracing: TracingConfig{Enabled: true, Exporter: "jaeger"}},
			ErrInvalidTracingExporter,
		},
		{
			"bad sample pct",
			Config{ServiceName: "synckit", Tracing: TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1.5}},
			ErrInvalidSamplePct,
		},
		{
			"bad metrics exporter",
			Config{ServiceName: "synckit", Metrics: MetricsConfig{Enabled: true, Exporter: "statsd"}},
			ErrInvalidMetricsExporter,
		},
		{
			"bad log level",
			Config{ServiceName: "synckit", Logging: LoggingConfig{Enabled: true, Level: "verbose"}},
			ErrInvalidLogLevel,
		},
		{
			"all subsystems valid",
			Config{
				ServiceName: "synckit",
				Tracing:     TracingConfig{Enabled: true, Exporter: "none", SamplePct: 0.5},
				Metrics:     MetricsConfig{Enabled: true, Exporter: "none"},
				Logging:     LoggingConfig{Enabled: true, Level: "debug"},
			},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestNewObserver_Disabled verifies disabled subsystems produce working
// no-op primitives.
func TestNewObserver_Disabled(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "synckit"})
	if err != nil {
		t.Fatalf("NewObserver: %v", err)
	}

	ctx, span := obs.Tracer().StartSpan(context.Background(), LoadMeta{Resource: "orders"})
	if ctx == nil {
		t.Fatal("StartSpan returned nil context")
	}
	obs.Tracer().EndSpan(span, nil)

	obs.Metrics().RecordCacheHit(context.Background(), "orders")
	obs.Logger().Info(context.Background(), "dropped")

	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

// TestNewObserver_InvalidConfig verifies configuration errors surface.
func TestNewObserver_InvalidConfig(t *testing.T) {
	_, err := NewObserver(context.Background(), Config{})
	if !errors.Is(err, ErrMissingServiceName) {
		t.Errorf("NewObserver(empty) = %v, want ErrMissingServiceName", err)
	}
}

// TestNopObserver smoke-tests the no-op observer.
func TestNopObserver(t *testing.T) {
	obs := NopObserver()
	_, span := obs.Tracer().StartSpan(context.Background(), LoadMeta{Resource: "orders"})
	obs.Tracer().EndSpan(span, errors.New("still must not panic"))
	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

// TestLoadMeta_SpanName tests span naming.
func TestLoadMeta_SpanName(t *testing.T) {
	m := LoadMeta{Resource: "orders", Key: "res:orders:abcd"}
	if got := m.SpanName(); got != "sync.load.orders" {
		t.Errorf("SpanName() = %q, want sync.load.orders", got)
	}
}
