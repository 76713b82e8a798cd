package vision

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/koscakluka/ema-vision/core/vision"

var logger = otelslog.NewLogger(scopeName)
