package orchestration

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/koscakluka/ema-vision/core/speechtotext"
	"github.com/koscakluka/ema-vision/core/vision"
)

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("toggle: %w", &Error{Kind: ErrorKindBusy, Err: ErrBusy})
	if KindOf(err) != ErrorKindBusy {
		t.Fatalf("expected Busy, got %q", KindOf(err))
	}
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected the error to unwrap to ErrBusy")
	}
	if KindOf(errors.New("plain")) != ErrorKindNone {
		t.Fatalf("expected no kind for a plain error")
	}
}

func TestClassifyErrors(t *testing.T) {
	if kind := classifyCaptureError(fmt.Errorf("dial: %w", speechtotext.ErrCaptureUnavailable)); kind != ErrorKindCaptureUnavailable {
		t.Fatalf("expected CaptureUnavailable, got %q", kind)
	}
	if kind := classifyCaptureError(errors.New("connection lost")); kind != ErrorKindCaptureError {
		t.Fatalf("expected CaptureError, got %q", kind)
	}
	if kind := classifyContextError(context.DeadlineExceeded); kind != ErrorKindContextTimeout {
		t.Fatalf("expected ContextTimeout, got %q", kind)
	}
	if kind := classifyContextError(vision.ErrContextUnavailable); kind != ErrorKindContextUnavailable {
		t.Fatalf("expected ContextUnavailable, got %q", kind)
	}
}

func TestInteractionStateString(t *testing.T) {
	for state, want := range map[InteractionState]string{
		StateIdle:              "Idle",
		StateListening:         "Listening",
		StateRetrievingContext: "RetrievingContext",
		StateGenerating:        "Generating",
		StateSpeaking:          "Speaking",
		InteractionState(42):   "Unknown",
	} {
		if got := state.String(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
	if InteractionState(42).IsValid() {
		t.Fatalf("expected an unknown state to be invalid")
	}
}
