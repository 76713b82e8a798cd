package orchestration

import (
	"time"

	"github.com/koscakluka/ema-vision/core/events"
	"github.com/koscakluka/ema-vision/core/vision"
)

const defaultContextTimeout = 2 * time.Second

type OrchestratorOption func(*Orchestrator)

func WithSpeechCapture(capture SpeechCapture) OrchestratorOption {
	return func(o *Orchestrator) {
		o.capture = capture
	}
}

// WithVisionContext sets the scene describer. Without it, or without a
// frame source, turns proceed with no visual context.
func WithVisionContext(describer VisionContext) OrchestratorOption {
	return func(o *Orchestrator) {
		o.vision = describer
	}
}

func WithFrameSource(source vision.FrameSource) OrchestratorOption {
	return func(o *Orchestrator) {
		o.frames = source
	}
}

func WithResponseGenerator(generator ResponseGenerator) OrchestratorOption {
	return func(o *Orchestrator) {
		o.generator = generator
	}
}

func WithSpeechOutput(output SpeechOutput) OrchestratorOption {
	return func(o *Orchestrator) {
		o.output = output
	}
}

// WithContextTimeout bounds visual context retrieval. Non-positive values
// keep the default.
func WithContextTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.contextTimeout = timeout
		}
	}
}

func WithPromptComposer(composer PromptComposer) OrchestratorOption {
	return func(o *Orchestrator) {
		if composer != nil {
			o.composePrompt = composer
		}
	}
}

// WithHistoryLimit sets how many finished turns History keeps. Zero keeps
// all of them.
func WithHistoryLimit(limit int) OrchestratorOption {
	return func(o *Orchestrator) {
		if limit >= 0 {
			o.history.limit = limit
		}
	}
}

// WithEventCallback receives the interaction events of every turn, in order
// with status changes.
func WithEventCallback(callback func(events.Event)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.onEvent = callback
	}
}
