// Package vision turns camera frames into short scene descriptions.
package vision

import (
	"errors"
	"time"
)

// DefaultInstruction asks for a one sentence description in Spanish.
const DefaultInstruction = "Describe lo que ves en una frase corta en español."

// ErrContextUnavailable is returned when there is no frame or no provider to
// describe it.
var ErrContextUnavailable = errors.New("visual context unavailable")

type Frame struct {
	Data       []byte
	MIMEType   string
	CapturedAt time.Time
}

func (f Frame) IsZero() bool {
	return len(f.Data) == 0
}

// FrameSource yields the newest frame, if a usable one exists.
type FrameSource interface {
	CurrentFrame() (Frame, bool)
}
