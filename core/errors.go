package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-vision/core/speechtotext"
)

type ErrorKind string

const (
	ErrorKindNone               ErrorKind = ""
	ErrorKindCaptureUnavailable ErrorKind = "CaptureUnavailable"
	ErrorKindCaptureError       ErrorKind = "CaptureError"
	ErrorKindContextUnavailable ErrorKind = "ContextUnavailable"
	ErrorKindContextTimeout     ErrorKind = "ContextTimeout"
	ErrorKindGenerationError    ErrorKind = "GenerationError"
	ErrorKindPlaybackError      ErrorKind = "PlaybackError"
	ErrorKindBusy               ErrorKind = "Busy"
)

var (
	// ErrBusy is returned by ToggleCapture while a turn is being processed.
	ErrBusy = errors.New("interaction in progress")
	// ErrDisposed is returned by every operation after Dispose.
	ErrDisposed = errors.New("orchestrator disposed")

	errEmptyReply = errors.New("empty reply")
)

// Error attaches an ErrorKind to a failure surfaced by the orchestrator.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind carried by err, if any.
func KindOf(err error) ErrorKind {
	var kindErr *Error
	if errors.As(err, &kindErr) {
		return kindErr.Kind
	}
	return ErrorKindNone
}

func classifyCaptureError(err error) ErrorKind {
	if errors.Is(err, speechtotext.ErrCaptureUnavailable) {
		return ErrorKindCaptureUnavailable
	}
	return ErrorKindCaptureError
}

func classifyContextError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindContextTimeout
	}
	// Provider faults other than a missing frame are absorbed the same way.
	return ErrorKindContextUnavailable
}
