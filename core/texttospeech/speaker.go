package texttospeech

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/koscakluka/ema-vision/core/audio"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// AudioOutput is the speaker side of an audio backend.
type AudioOutput interface {
	EncodingInfo() audio.EncodingInfo
	SendAudio(audio []byte) error
	// Mark calls back once all audio sent before it has been played.
	Mark(mark string, callback func(string)) error
	ClearBuffer()
}

// Speaker synthesizes text and plays it on an AudioOutput, one utterance at
// a time.
type Speaker struct {
	synthesizer Synthesizer
	output      AudioOutput
	voice       string

	marks atomic.Uint64

	mu            sync.Mutex
	cancelCurrent context.CancelFunc
}

type SpeakerOption func(*Speaker)

func WithSpeakerVoice(voice string) SpeakerOption {
	return func(s *Speaker) { s.voice = voice }
}

func NewSpeaker(synthesizer Synthesizer, output AudioOutput, opts ...SpeakerOption) *Speaker {
	s := &Speaker{synthesizer: synthesizer, output: output}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Speak resolves once the whole utterance has been played. Cancelling ctx
// or calling CancelCurrent stops playback immediately.
func (s *Speaker) Speak(ctx context.Context, text string) (err error) {
	if s.synthesizer == nil {
		return fmt.Errorf("%w: no synthesizer configured", ErrPlayback)
	} else if s.output == nil {
		return fmt.Errorf("%w: no audio output configured", ErrPlayback)
	}

	ctx, span := tracer.Start(ctx, "speak")
	defer func() {
		if err != nil && !errors.Is(err, context.Canceled) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	if s.cancelCurrent != nil {
		s.cancelCurrent()
	}
	s.cancelCurrent = cancel
	s.mu.Unlock()

	outputEncoding := s.output.EncodingInfo()
	synthesis, err := s.synthesizer.Synthesize(ctx, text,
		WithVoice(s.voice),
		WithEncodingInfo(outputEncoding),
	)
	if ctx.Err() != nil {
		return ctx.Err()
	} else if err != nil {
		return fmt.Errorf("%w: synthesis failed: %w", ErrPlayback, err)
	}

	encoding := synthesis.EncodingInfo
	if encoding.IsZero() && synthesis.MIMEType != "" {
		if encoding, err = audio.EncodingFromMIMEType(synthesis.MIMEType); err != nil {
			return fmt.Errorf("%w: %w", ErrPlayback, err)
		}
	}
	if !encoding.IsZero() && encoding != outputEncoding {
		return fmt.Errorf("%w: synthesized %s at %d Hz, output expects %s at %d Hz",
			ErrPlayback,
			encoding.Format.Name(), encoding.SampleRate,
			outputEncoding.Format.Name(), outputEncoding.SampleRate)
	}
	span.SetAttributes(attribute.Int("speech.audio_bytes", len(synthesis.Audio)))

	if len(synthesis.Audio) == 0 {
		return fmt.Errorf("%w: no audio synthesized", ErrPlayback)
	}

	if err := s.output.SendAudio(synthesis.Audio); err != nil {
		return fmt.Errorf("%w: %w", ErrPlayback, err)
	}

	played := make(chan struct{})
	mark := "speech-" + strconv.FormatUint(s.marks.Add(1), 10)
	if err := s.output.Mark(mark, func(string) { close(played) }); err != nil {
		s.output.ClearBuffer()
		return fmt.Errorf("%w: %w", ErrPlayback, err)
	}

	select {
	case <-played:
		return nil
	case <-ctx.Done():
		s.output.ClearBuffer()
		logger.Debug("playback cancelled", "mark", mark)
		return ctx.Err()
	}
}

// CancelCurrent stops the utterance that is currently being spoken, if any.
func (s *Speaker) CancelCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelCurrent != nil {
		s.cancelCurrent()
		s.cancelCurrent = nil
	}
}
