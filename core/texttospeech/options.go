package texttospeech

import (
	"context"

	"github.com/koscakluka/ema-vision/core/audio"
)

type SynthesisOptions struct {
	// Voice selects a provider specific voice, empty means the provider
	// default
	Voice string
	// SpeechAudioCallback is called with audio chunks as the provider
	// produces them. Not supported by all providers.
	SpeechAudioCallback func(audio []byte)

	// EncodingInfo is the requested output encoding. Providers that cannot
	// honour it report the actual encoding in [Synthesis].
	EncodingInfo audio.EncodingInfo
}

type SynthesisOption func(*SynthesisOptions)

func WithVoice(voice string) SynthesisOption {
	return func(o *SynthesisOptions) { o.Voice = voice }
}

func WithSpeechAudioCallback(callback func([]byte)) SynthesisOption {
	return func(o *SynthesisOptions) { o.SpeechAudioCallback = callback }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SynthesisOption {
	return func(o *SynthesisOptions) {
		if encodingInfo.IsZero() {
			logger.Warn("ignoring empty encoding info")
			return
		}

		o.EncodingInfo = encodingInfo
	}
}

// Synthesis is a complete synthesized utterance.
type Synthesis struct {
	Audio        []byte
	MIMEType     string
	EncodingInfo audio.EncodingInfo
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts ...SynthesisOption) (Synthesis, error)
}
