package vision

import (
	"context"
	"sync"
	"time"
)

// LatestFrame keeps the most recent frame pushed by a camera. Frames older
// than maxAge are reported as missing, a zero maxAge never expires them.
type LatestFrame struct {
	maxAge time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	frame Frame
}

func NewLatestFrame(maxAge time.Duration) *LatestFrame {
	return &LatestFrame{maxAge: maxAge, now: time.Now}
}

func (l *LatestFrame) Update(frame Frame) {
	if frame.CapturedAt.IsZero() {
		frame.CapturedAt = l.now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.frame = frame
}

func (l *LatestFrame) CurrentFrame() (Frame, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.frame.IsZero() {
		return Frame{}, false
	}
	if l.maxAge > 0 && l.now().Sub(l.frame.CapturedAt) > l.maxAge {
		return Frame{}, false
	}
	return l.frame, true
}

// Follow copies new frames from source into l every interval until ctx is
// done. CurrentFrame on l never touches the source, so readers are not held
// up by slow storage.
func (l *LatestFrame) Follow(ctx context.Context, source FrameSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last time.Time
	for {
		if frame, ok := source.CurrentFrame(); ok && (frame.CapturedAt.IsZero() || !frame.CapturedAt.Equal(last)) {
			last = frame.CapturedAt
			l.Update(frame)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
