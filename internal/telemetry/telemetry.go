// Package telemetry exports costdeck's poll results as OpenTelemetry metrics.
package telemetry

import (
	"context"

	"github.com/theirongolddev/costdeck/internal/model"
)

// Observation is the state recorded after one daemon poll.
type Observation struct {
	Costs    model.CostSnapshot
	Budget   model.BudgetStatus
	Forecast model.BudgetForecast
	Failed   bool
}

// Recorder receives poll observations.
type Recorder interface {
	Record(ctx context.Context, obs Observation)
	Close(ctx context.Context) error
}

// Config controls the OTLP exporter.
type Config struct {
	Enabled  bool
	Endpoint string
	Insecure bool
}

// NoOp discards observations. It is used when export is disabled.
type NoOp struct{}

func (NoOp) Record(context.Context, Observation) {}

func (NoOp) Close(context.Context) error { return nil }
