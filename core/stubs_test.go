package orchestration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koscakluka/ema-vision/core/events"
	"github.com/koscakluka/ema-vision/core/llms"
	"github.com/koscakluka/ema-vision/core/speechtotext"
	"github.com/koscakluka/ema-vision/core/vision"
)

var testFrame = vision.Frame{Data: []byte{0xff, 0xd8, 0xff}, MIMEType: "image/jpeg"}

func signal(ch chan struct{}) {
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// scriptedCapture plays its script as soon as Listen starts, then blocks
// until cancelled unless endAfterScript is set.
type scriptedCapture struct {
	interims       []string
	segments       []string
	final          string
	err            error
	endAfterScript bool

	scripted chan struct{}
	returned chan struct{}

	mu       sync.Mutex
	sessions []speechtotext.ListenOptions
}

func (c *scriptedCapture) Listen(ctx context.Context, opts ...speechtotext.ListenOption) error {
	defer signal(c.returned)

	options := speechtotext.NewListenOptions(opts...)
	c.mu.Lock()
	c.sessions = append(c.sessions, options)
	c.mu.Unlock()

	if c.err != nil {
		return c.err
	}

	if options.OnSpeechStarted != nil {
		options.OnSpeechStarted()
	}
	for _, interim := range c.interims {
		options.OnInterim(interim)
	}
	for _, segment := range c.segments {
		options.OnSegment(segment)
	}
	if c.final != "" {
		options.OnFinal(c.final)
	}
	signal(c.scripted)

	if c.endAfterScript {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (c *scriptedCapture) sessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

func (c *scriptedCapture) lastSession() speechtotext.ListenOptions {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[len(c.sessions)-1]
}

type staticFrames struct {
	frame vision.Frame
}

func (s staticFrames) CurrentFrame() (vision.Frame, bool) {
	return s.frame, !s.frame.IsZero()
}

// slowFrames blocks in CurrentFrame until release is closed.
type slowFrames struct {
	release chan struct{}
}

func (s slowFrames) CurrentFrame() (vision.Frame, bool) {
	<-s.release
	return testFrame, true
}

// visionStub waits for release, when set, without looking at its context.
type visionStub struct {
	description string
	err         error
	release     chan struct{}

	calls atomic.Int32
}

func (v *visionStub) Describe(_ context.Context, _ vision.Frame) (string, error) {
	v.calls.Add(1)
	if v.release != nil {
		<-v.release
	}
	return v.description, v.err
}

// generatorStub waits for release, when set, without looking at its context.
type generatorStub struct {
	reply   string
	err     error
	release chan struct{}
	started chan struct{}

	mu      sync.Mutex
	prompts []string
}

func (g *generatorStub) Generate(_ context.Context, prompt string, _ ...llms.GenerateOption) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	signal(g.started)

	if g.release != nil {
		<-g.release
	}
	return g.reply, g.err
}

func (g *generatorStub) receivedPrompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// speechStub blocks until its context is cancelled when block is set.
type speechStub struct {
	err   error
	block bool

	started   chan struct{}
	cancelled chan struct{}

	mu     sync.Mutex
	spoken []string
}

func (s *speechStub) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.mu.Unlock()
	signal(s.started)

	if s.block {
		<-ctx.Done()
		signal(s.cancelled)
		return ctx.Err()
	}
	return s.err
}

func (s *speechStub) spokenTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

type statusRecorder struct {
	mu      sync.Mutex
	changes []StatusChange
}

func recordStatuses(o *Orchestrator) *statusRecorder {
	recorder := &statusRecorder{}
	o.OnStatusChange(func(change StatusChange) {
		recorder.mu.Lock()
		defer recorder.mu.Unlock()
		recorder.changes = append(recorder.changes, change)
	})
	return recorder
}

func (r *statusRecorder) all() []StatusChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StatusChange(nil), r.changes...)
}

func (r *statusRecorder) transitions() []InteractionState {
	var states []InteractionState
	for _, change := range r.all() {
		if change.IsTransition() {
			states = append(states, change.State)
		}
	}
	return states
}

func (r *statusRecorder) find(match func(StatusChange) bool) (StatusChange, bool) {
	for _, change := range r.all() {
		if match(change) {
			return change, true
		}
	}
	return StatusChange{}, false
}

func (r *statusRecorder) waitFor(t *testing.T, description string, match func(StatusChange) bool) StatusChange {
	t.Helper()

	var found StatusChange
	waitForCondition(t, 2*time.Second, description, func() bool {
		var ok bool
		found, ok = r.find(match)
		return ok
	})
	return found
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := make([]events.Kind, 0, len(r.events))
	for _, event := range r.events {
		kinds = append(kinds, event.Kind())
	}
	return kinds
}

func (r *eventRecorder) has(kind events.Kind) bool {
	for _, k := range r.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

func (r *eventRecorder) first(kind events.Kind) (events.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, event := range r.events {
		if event.Kind() == kind {
			return event, true
		}
	}
	return nil, false
}

func waitForCondition(t *testing.T, timeout time.Duration, description string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("timed out waiting for %s", description)
}

func statesEqual(a, b []InteractionState) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
