package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const serviceName = "costdeck"

// ErrDisabled is returned by NewExporter when export is not configured.
var ErrDisabled = errors.New("telemetry export is disabled or has no endpoint")

// Exporter publishes the latest observation as gauges over OTLP/gRPC.
type Exporter struct {
	provider *sdkmetric.MeterProvider
	polls    metric.Int64Counter

	mu   sync.RWMutex
	last Observation
	seen bool
}

// NewExporter dials the collector and registers costdeck's instruments.
func NewExporter(ctx context.Context, cfg Config, version string) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, ErrDisabled
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts,
			otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			otlpmetricgrpc.WithInsecure(),
		)
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	e := &Exporter{provider: provider}
	if err := e.register(provider.Meter(serviceName)); err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	log.Info().Str("endpoint", cfg.Endpoint).Msg("telemetry export enabled")
	return e, nil
}

func (e *Exporter) register(meter metric.Meter) error {
	var err error
	e.polls, err = meter.Int64Counter(
		"costdeck_polls_total",
		metric.WithDescription("Daemon polls, labelled by outcome"),
		metric.WithUnit("{poll}"),
	)
	if err != nil {
		return fmt.Errorf("creating poll counter: %w", err)
	}

	gauges := []struct {
		name, desc, unit string
		value            func(Observation) float64
	}{
		{"costdeck_month_cost_usd", "Spend in the current calendar month", "USD",
			func(o Observation) float64 { return o.Costs.CurrentMonthCost }},
		{"costdeck_today_cost_usd", "Spend on the current calendar day", "USD",
			func(o Observation) float64 { return o.Costs.TodayCost }},
		{"costdeck_projected_month_cost_usd", "Month-end projection from today's spend", "USD",
			func(o Observation) float64 { return o.Forecast.ProjectedMonthly }},
		{"costdeck_budget_used_percent", "Month-to-date spend as a percentage of the limit", "%",
			func(o Observation) float64 { return o.Budget.Percentage }},
	}

	for _, g := range gauges {
		_, err := meter.Float64ObservableGauge(g.name,
			metric.WithDescription(g.desc),
			metric.WithUnit(g.unit),
			metric.WithFloat64Callback(func(_ context.Context, obs metric.Float64Observer) error {
				if last, ok := e.latest(); ok {
					obs.Observe(g.value(last), metric.WithAttributes(
						attribute.String("budget_state", string(last.Budget.State)),
					))
				}
				return nil
			}),
		)
		if err != nil {
			return fmt.Errorf("creating gauge %s: %w", g.name, err)
		}
	}
	return nil
}

func (e *Exporter) latest() (Observation, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last, e.seen
}

// Record stores obs for the next collection and counts the poll.
func (e *Exporter) Record(ctx context.Context, obs Observation) {
	outcome := "ok"
	if obs.Failed {
		outcome = "error"
	} else {
		e.mu.Lock()
		e.last = obs
		e.seen = true
		e.mu.Unlock()
	}
	e.polls.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Close flushes pending metrics and shuts down the provider.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}

// New returns an OTLP exporter when cfg enables one, and a NoOp otherwise.
// Export failures degrade to NoOp with a warning.
func New(ctx context.Context, cfg Config, version string) Recorder {
	exp, err := NewExporter(ctx, cfg, version)
	if err != nil {
		if !errors.Is(err, ErrDisabled) {
			log.Warn().Err(err).Msg("telemetry export unavailable")
		}
		return NoOp{}
	}
	return exp
}
