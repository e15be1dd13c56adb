// Package metrics exposes the application's otel instruments.
package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	attributions     metric.Int64Counter
	commissionEvents metric.Int64Counter
	settlements      metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "commissionbot"
	}
	meter := provider.Meter(name)

	attributions, err := meter.Int64Counter("commissionbot_attributions_total")
	if err != nil {
		return nil, err
	}
	commissionEvents, err := meter.Int64Counter("commissionbot_commission_events_total")
	if err != nil {
		return nil, err
	}
	settlements, err := meter.Int64Counter("commissionbot_settlements_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		attributions:     attributions,
		commissionEvents: commissionEvents,
		settlements:      settlements,
	}, nil
}

// RecordAttribution counts attribution outcomes ("resolved", "unknown").
func (m *Metrics) RecordAttribution(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.attributions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", strings.TrimSpace(outcome))))
}

// RecordCommissionEvent counts recorded commission events by tier name.
func (m *Metrics) RecordCommissionEvent(ctx context.Context, tierName string) {
	if m == nil {
		return
	}
	m.commissionEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", strings.TrimSpace(tierName))))
}

// RecordSettlement counts settlement calls.
func (m *Metrics) RecordSettlement(ctx context.Context) {
	if m == nil {
		return
	}
	m.settlements.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
