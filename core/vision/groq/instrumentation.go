package groq

import "go.opentelemetry.io/otel"

const scopeName = "github.com/koscakluka/ema-vision/core/vision/groq"

var tracer = otel.Tracer(scopeName)
