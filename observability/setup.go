package observability

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Settings selects where telemetry goes. Zero fields take local
// development defaults.
type Settings struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP/HTTP collector as host:port.
	Endpoint string
	Insecure bool
	// SampleRate is the fraction of root spans kept; zero keeps all.
	SampleRate float64
	// MetricInterval is the export period of the meter provider.
	MetricInterval time.Duration
}

func (s Settings) withDefaults() Settings {
	if s.ServiceVersion == "" {
		s.ServiceVersion = "dev"
	}
	if s.Environment == "" {
		s.Environment = "development"
	}
	if s.Endpoint == "" {
		s.Endpoint = "localhost:4318"
	}
	if s.SampleRate <= 0 {
		s.SampleRate = 1
	}
	if s.MetricInterval <= 0 {
		s.MetricInterval = 15 * time.Second
	}
	return s
}

// ShutdownFunc flushes and stops the installed providers.
type ShutdownFunc func(ctx context.Context) error

// Setup installs tracer and meter providers exporting to s.Endpoint.
func Setup(ctx context.Context, s Settings) (ShutdownFunc, error) {
	s = s.withDefaults()
	tp, err := InitTracer(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("tracer: %w", err)
	}
	mp, err := InitMeter(ctx, s)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("meter: %w", err)
	}
	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
