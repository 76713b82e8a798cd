package gemini

import "go.opentelemetry.io/otel"

const scopeName = "github.com/koscakluka/ema-vision/core/vision/gemini"

var tracer = otel.Tracer(scopeName)
