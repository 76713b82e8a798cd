package texttospeech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ema-vision/core/audio"
)

type stubSynthesizer struct {
	synthesis Synthesis
	err       error

	mu      sync.Mutex
	options SynthesisOptions
}

func (s *stubSynthesizer) Synthesize(_ context.Context, _ string, opts ...SynthesisOption) (Synthesis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, opt := range opts {
		opt(&s.options)
	}
	return s.synthesis, s.err
}

// stubOutput plays instantly unless hold is set, in which case marks fire
// only after release is closed.
type stubOutput struct {
	encoding audio.EncodingInfo
	hold     bool
	release  chan struct{}

	mu      sync.Mutex
	sent    [][]byte
	cleared int
}

func (o *stubOutput) EncodingInfo() audio.EncodingInfo { return o.encoding }

func (o *stubOutput) SendAudio(audio []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, audio)
	return nil
}

func (o *stubOutput) Mark(mark string, callback func(string)) error {
	if !o.hold {
		go callback(mark)
		return nil
	}
	go func() {
		<-o.release
		callback(mark)
	}()
	return nil
}

func (o *stubOutput) ClearBuffer() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cleared++
}

var pcm24k = audio.EncodingInfo{SampleRate: 24000, Format: audio.EncodingLinear16}

func TestSpeakPlaysSynthesizedAudio(t *testing.T) {
	synthesizer := &stubSynthesizer{synthesis: Synthesis{Audio: []byte{1, 2, 3, 4}, MIMEType: pcm24k.MIMEType()}}
	output := &stubOutput{encoding: pcm24k}
	speaker := NewSpeaker(synthesizer, output, WithSpeakerVoice("Kore"))

	if err := speaker.Speak(context.Background(), "hola"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output.mu.Lock()
	defer output.mu.Unlock()
	if len(output.sent) != 1 || len(output.sent[0]) != 4 {
		t.Fatalf("expected the synthesized audio to be sent once, got %v", output.sent)
	}
	if synthesizer.options.Voice != "Kore" {
		t.Fatalf("expected voice Kore, got %q", synthesizer.options.Voice)
	}
	if synthesizer.options.EncodingInfo != pcm24k {
		t.Fatalf("expected output encoding to be requested, got %+v", synthesizer.options.EncodingInfo)
	}
}

func TestSpeakWrapsSynthesisFailureAsPlaybackError(t *testing.T) {
	speaker := NewSpeaker(&stubSynthesizer{err: errors.New("quota")}, &stubOutput{encoding: pcm24k})

	err := speaker.Speak(context.Background(), "hola")
	if !errors.Is(err, ErrPlayback) {
		t.Fatalf("expected ErrPlayback, got %v", err)
	}
}

func TestSpeakRejectsMismatchedEncoding(t *testing.T) {
	synthesizer := &stubSynthesizer{synthesis: Synthesis{
		Audio:        []byte{1, 2},
		EncodingInfo: audio.EncodingInfo{SampleRate: 16000, Format: audio.EncodingLinear16},
	}}
	speaker := NewSpeaker(synthesizer, &stubOutput{encoding: pcm24k})

	err := speaker.Speak(context.Background(), "hola")
	if !errors.Is(err, ErrPlayback) {
		t.Fatalf("expected ErrPlayback, got %v", err)
	}
}

func TestSpeakWithoutSynthesizerFails(t *testing.T) {
	err := NewSpeaker(nil, &stubOutput{encoding: pcm24k}).Speak(context.Background(), "hola")
	if !errors.Is(err, ErrPlayback) {
		t.Fatalf("expected ErrPlayback, got %v", err)
	}
}

func TestCancelCurrentStopsPlayback(t *testing.T) {
	synthesizer := &stubSynthesizer{synthesis: Synthesis{Audio: []byte{1, 2}, EncodingInfo: pcm24k}}
	output := &stubOutput{encoding: pcm24k, hold: true, release: make(chan struct{})}
	defer close(output.release)
	speaker := NewSpeaker(synthesizer, output)

	done := make(chan error, 1)
	go func() { done <- speaker.Speak(context.Background(), "hola") }()

	deadline := time.Now().Add(time.Second)
	for {
		output.mu.Lock()
		sent := len(output.sent)
		output.mu.Unlock()
		if sent > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for audio to be sent")
		}
		time.Sleep(5 * time.Millisecond)
	}

	speaker.CancelCurrent()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for speak to stop")
	}

	output.mu.Lock()
	defer output.mu.Unlock()
	if output.cleared != 1 {
		t.Fatalf("expected playback buffer to be cleared once, got %d", output.cleared)
	}
}
