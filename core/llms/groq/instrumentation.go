package groq

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const scopeName = "github.com/koscakluka/ema-vision/core/llms/groq"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	tokenCounter = newTokenCounter()
)

func newTokenCounter() metric.Int64Counter {
	counter, err := meter.Int64Counter("llm.tokens",
		metric.WithUnit("{token}"),
		metric.WithDescription("Tokens used by chat completions"),
	)
	if err != nil {
		logger.Warn("failed to create token counter", "error", err)
		counter, _ = noop.NewMeterProvider().Meter(scopeName).Int64Counter("llm.tokens")
	}
	return counter
}
