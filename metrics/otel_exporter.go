package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter exposes SDK metrics in Prometheus format
type OTelExporter struct {
	registry      *prometheus.Registry
	meterProvider *sdkmetric.MeterProvider
}

// NewOTelExporter creates a meter provider backed by a private Prometheus registry
func NewOTelExporter() (*OTelExporter, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	return &OTelExporter{
		registry:      registry,
		meterProvider: meterProvider,
	}, nil
}

// MeterProvider is passed to the client with posthook.WithMeterProvider
func (oe *OTelExporter) MeterProvider() metric.MeterProvider {
	return oe.meterProvider
}

// Handler serves Prometheus-formatted metrics
func (oe *OTelExporter) Handler() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
