package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider    *metric.MeterProvider
	meter            otelmetric.Meter
	decisionCounter  otelmetric.Int64Counter
	decisionDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	decisionCounter, _ := meter.Int64Counter(
		"decisions.processed",
		otelmetric.WithDescription("Number of application decisions processed"),
	)

	decisionDuration, _ := meter.Float64Histogram(
		"decisions.duration",
		otelmetric.WithDescription("Decision processing duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:    provider,
		meter:            meter,
		decisionCounter:  decisionCounter,
		decisionDuration: decisionDuration,
	}
}

func (o *Observability) RecordDecision(ctx context.Context, status string) {
	if o.decisionCounter != nil {
		o.decisionCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordDecisionDuration(ctx context.Context, duration time.Duration, status string) {
	if o.decisionDuration != nil {
		o.decisionDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
