package orchestration

import (
	"context"

	"github.com/koscakluka/ema-vision/core/llms"
	"github.com/koscakluka/ema-vision/core/speechtotext"
	"github.com/koscakluka/ema-vision/core/vision"
)

// SpeechCapture runs one listening session per Listen call. Listen blocks
// until the session ends or ctx is cancelled and must not invoke any
// callback after it returns.
type SpeechCapture interface {
	Listen(ctx context.Context, opts ...speechtotext.ListenOption) error
}

// VisionContext describes a frame. The deadline travels in ctx.
type VisionContext interface {
	Describe(ctx context.Context, frame vision.Frame) (string, error)
}

// ResponseGenerator makes a single attempt at a reply for prompt.
type ResponseGenerator interface {
	Generate(ctx context.Context, prompt string, opts ...llms.GenerateOption) (string, error)
}

// SpeechOutput resolves once text has been played. Cancelling ctx stops
// playback immediately.
type SpeechOutput interface {
	Speak(ctx context.Context, text string) error
}
