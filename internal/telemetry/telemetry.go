package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/config"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Provider - инициализированный трейсинг. nil, если телеметрия выключена.
type Provider struct {
	TracerProvider *sdktrace.TracerProvider
}

// Initialize настраивает OTLP HTTP экспорт спанов и глобальный TracerProvider.
// При выключенной телеметрии глобальным остаётся noop-провайдер otel.
func Initialize(ctx context.Context, cfg config.TelemetryConfig, component string) (*Provider, error) {
	if !cfg.Enabled {
		utils.Log.Debug("📊 OpenTelemetry disabled")
		return nil, nil
	}

	utils.Log.Infof("📊 Initializing OpenTelemetry for %s/%s...", cfg.ServiceName, component)

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.namespace", "pro-pitashka"),
			attribute.String("service.component", component),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	utils.Log.Infof("✓ OpenTelemetry initialized (endpoint: %s)", cfg.Endpoint)
	return &Provider{TracerProvider: tp}, nil
}

// Shutdown дожидается отправки накопленных спанов
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.TracerProvider == nil {
		return nil
	}
	utils.Log.Info("📊 Shutting down OpenTelemetry...")
	if err := p.TracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	return nil
}
