package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/theirongolddev/costdeck/internal/model"
)

func TestNew_DisabledIsNoOp(t *testing.T) {
	r := New(context.Background(), Config{}, "test")
	assert.IsType(t, NoOp{}, r)
	assert.NoError(t, r.Close(context.Background()))

	_, err := NewExporter(context.Background(), Config{Enabled: true}, "test")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestExporter_GaugesReportLatest(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(ctx) }()

	e := &Exporter{provider: provider}
	require.NoError(t, e.register(provider.Meter("test")))

	e.Record(ctx, Observation{
		Costs:    model.CostSnapshot{CurrentMonthCost: 42.5, TodayCost: 2},
		Budget:   model.BudgetStatus{Percentage: 85, State: model.BudgetWarning, Active: true},
		Forecast: model.BudgetForecast{ProjectedMonthly: 62},
	})
	e.Record(ctx, Observation{Failed: true})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	got := map[string]float64{}
	var polls int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Gauge[float64]:
				require.Len(t, data.DataPoints, 1)
				got[m.Name] = data.DataPoints[0].Value
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					polls += dp.Value
				}
			}
		}
	}

	assert.Equal(t, map[string]float64{
		"costdeck_month_cost_usd":           42.5,
		"costdeck_today_cost_usd":           2,
		"costdeck_projected_month_cost_usd": 62,
		"costdeck_budget_used_percent":      85,
	}, got)
	assert.Equal(t, int64(2), polls)
}
