package orchestration

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const scopeName = "github.com/koscakluka/ema-vision/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	turnDuration = newTurnDuration()
)

func newTurnDuration() metric.Float64Histogram {
	histogram, err := meter.Float64Histogram("interaction.turn.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Time from final transcript to the end of a turn"),
	)
	if err != nil {
		logger.Warn("failed to create turn duration histogram", "error", err)
		histogram, _ = noop.NewMeterProvider().Meter(scopeName).Float64Histogram("interaction.turn.duration")
	}
	return histogram
}
