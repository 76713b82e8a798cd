package deepgram

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/koscakluka/ema-vision/core/audio"
)

const (
	defaultBaseURL        = "wss://api.deepgram.com/v1/listen"
	defaultModel          = "nova-3"
	defaultLanguage       = "es"
	defaultSilenceTimeout = 8 * time.Second
)

// AudioInput is the microphone side of an audio backend.
type AudioInput interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	CaptureEncodingInfo() audio.EncodingInfo
}

// Capture streams microphone audio to Deepgram for one listening session at
// a time.
type Capture struct {
	input AudioInput

	apiKey         string
	baseURL        string
	model          string
	language       string
	silenceTimeout time.Duration

	mu sync.Mutex
}

type Option func(*Capture)

func WithAPIKey(apiKey string) Option {
	return func(c *Capture) { c.apiKey = apiKey }
}

func WithBaseURL(baseURL string) Option {
	return func(c *Capture) { c.baseURL = baseURL }
}

func WithModel(model string) Option {
	return func(c *Capture) { c.model = model }
}

func WithLanguage(language string) Option {
	return func(c *Capture) { c.language = language }
}

// WithSilenceTimeout ends a session once nothing was heard for the given
// duration. Whatever was already finalized is reported as the final
// transcript.
func WithSilenceTimeout(timeout time.Duration) Option {
	return func(c *Capture) { c.silenceTimeout = timeout }
}

func NewCapture(input AudioInput, opts ...Option) *Capture {
	c := &Capture{
		input:          input,
		apiKey:         os.Getenv("DEEPGRAM_API_KEY"),
		baseURL:        defaultBaseURL,
		model:          defaultModel,
		language:       defaultLanguage,
		silenceTimeout: defaultSilenceTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
