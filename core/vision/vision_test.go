package vision

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLatestFrameReportsMissingFrame(t *testing.T) {
	if _, ok := NewLatestFrame(time.Second).CurrentFrame(); ok {
		t.Fatalf("expected no frame before the first update")
	}
}

func TestLatestFrameExpiresStaleFrames(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	latest := NewLatestFrame(time.Second)
	latest.now = func() time.Time { return now }

	latest.Update(Frame{Data: []byte{1}, MIMEType: "image/jpeg"})
	if _, ok := latest.CurrentFrame(); !ok {
		t.Fatalf("expected a fresh frame")
	}

	now = now.Add(2 * time.Second)
	if _, ok := latest.CurrentFrame(); ok {
		t.Fatalf("expected the frame to be stale")
	}
}

func TestLatestFrameWithoutMaxAgeNeverExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	latest := NewLatestFrame(0)
	latest.now = func() time.Time { return now }

	latest.Update(Frame{Data: []byte{1}})
	now = now.Add(time.Hour)
	if _, ok := latest.CurrentFrame(); !ok {
		t.Fatalf("expected the frame to stay available")
	}
}

func TestFileFrameSourceReadsImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")
	if err := os.WriteFile(path, png, 0o600); err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}

	frame, ok := NewFileFrameSource(path, time.Minute).CurrentFrame()
	if !ok {
		t.Fatalf("expected a frame")
	}
	if frame.MIMEType != "image/png" {
		t.Fatalf("expected image/png, got %q", frame.MIMEType)
	}
}

func TestFileFrameSourceMissingFile(t *testing.T) {
	source := NewFileFrameSource(filepath.Join(t.TempDir(), "missing.jpg"), 0)
	if _, ok := source.CurrentFrame(); ok {
		t.Fatalf("expected no frame for a missing file")
	}
}

type countingSource struct {
	frame Frame
	calls chan struct{}
}

func (c countingSource) CurrentFrame() (Frame, bool) {
	select {
	case c.calls <- struct{}{}:
	default:
	}
	return c.frame, true
}

func TestLatestFrameFollowsSource(t *testing.T) {
	source := countingSource{
		frame: Frame{Data: []byte{1}, MIMEType: "image/jpeg", CapturedAt: time.Now()},
		calls: make(chan struct{}, 1),
	}
	latest := NewLatestFrame(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		latest.Follow(ctx, source, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if frame, ok := latest.CurrentFrame(); ok {
			if frame.MIMEType != "image/jpeg" {
				t.Fatalf("expected the followed frame, got %+v", frame)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for the followed frame")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected Follow to return after cancel")
	}
}
