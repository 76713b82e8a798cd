package orchestration

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/koscakluka/ema-vision/core/events"
	"github.com/koscakluka/ema-vision/core/vision"
)

// Orchestrator owns the interaction state machine. It runs at most one turn
// at a time and is the only writer of its state and the live turn.
type Orchestrator struct {
	capture   SpeechCapture
	vision    VisionContext
	frames    vision.FrameSource
	generator ResponseGenerator
	output    SpeechOutput

	contextTimeout time.Duration
	composePrompt  PromptComposer
	onEvent        func(events.Event)

	mu           sync.Mutex
	state        InteractionState
	current      *capabilityHandle
	draining     *capabilityHandle
	nextHandleID uint64
	session      *listeningSession
	turn         *turn
	history      turnHistory
	disposed     bool

	workers     sync.WaitGroup
	disposeOnce sync.Once

	listeners     statusListeners
	notifications *dispatcher
}

// listeningSession collects the finalized segments of one Listening phase.
type listeningSession struct {
	segments []string
}

func (s *listeningSession) transcript() string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(s.segments, " "))
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		state:          StateIdle,
		contextTimeout: defaultContextTimeout,
		composePrompt:  ComposePrompt,
		history:        turnHistory{limit: defaultHistoryLimit},
		notifications:  newDispatcher(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// ToggleCapture starts listening from Idle. While Listening it ends capture,
// continuing with whatever was already transcribed or returning to Idle when
// nothing was. In any other state it is rejected with ErrBusy.
func (o *Orchestrator) ToggleCapture() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return ErrDisposed
	}

	switch o.state {
	case StateIdle:
		o.startListeningLocked()
		return nil

	case StateListening:
		if transcript := o.session.transcript(); transcript != "" {
			o.beginTurnLocked(transcript)
			return nil
		}

		o.cancelCurrentLocked()
		o.session = nil
		o.transitionLocked(StateIdle, StatusChange{Reason: ReasonNoInput})
		return nil

	default:
		err := &Error{Kind: ErrorKindBusy, Err: ErrBusy}
		o.emitStatusLocked(StatusChange{
			State:     o.state,
			Previous:  o.state,
			Reason:    ReasonBusy,
			Turn:      o.turn.snapshot(),
			ErrorKind: ErrorKindBusy,
			Message:   ErrBusy.Error(),
			At:        time.Now(),
		})
		return err
	}
}

// Stop cancels whatever is in flight and returns to Idle. It is a no-op when
// already Idle.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed || o.state == StateIdle {
		return
	}
	o.cancelLocked()
}

// Dispose stops the orchestrator for good and waits for in-flight steps to
// return. A provider that ignores cancellation is abandoned after a short
// grace period. Status listeners still receive the final changes.
func (o *Orchestrator) Dispose() {
	o.disposeOnce.Do(func() {
		o.mu.Lock()
		if o.state != StateIdle {
			o.cancelLocked()
		}
		o.disposed = true
		o.emitStatusLocked(StatusChange{
			State:    StateIdle,
			Previous: StateIdle,
			Reason:   ReasonDisposed,
			At:       time.Now(),
		})
		o.mu.Unlock()

		o.workers.Wait()
		o.notifications.close()
	})
}

// OnStatusChange subscribes listener to status changes. Listeners run on a
// dedicated goroutine, in order, and never block the orchestrator.
func (o *Orchestrator) OnStatusChange(listener func(StatusChange)) (unsubscribe func()) {
	if listener == nil {
		return func() {}
	}
	return o.listeners.add(listener)
}

func (o *Orchestrator) State() InteractionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// ActiveTurn returns the live turn, or nil when none is in progress.
func (o *Orchestrator) ActiveTurn() *TurnSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.turn.snapshot()
}

// History returns the finished turns, oldest first.
func (o *Orchestrator) History() []TurnSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.history.snapshot()
}

func (o *Orchestrator) cancelLocked() {
	o.cancelCurrentLocked()
	o.session = nil

	if o.turn != nil {
		o.finishTurnLocked(TurnOutcomeCancelled, StatusChange{Reason: ReasonCancelled})
		return
	}
	o.transitionLocked(StateIdle, StatusChange{Reason: ReasonCancelled})
}

// newHandleLocked cancels the outstanding handle, if any, and makes a new
// one current. The last cancelled handle is returned so the next step can
// await it.
func (o *Orchestrator) newHandleLocked(turnID uuid.UUID, step InteractionState) (current, previous *capabilityHandle) {
	o.cancelCurrentLocked()
	previous, o.draining = o.draining, nil

	o.nextHandleID++
	o.current = newCapabilityHandle(o.nextHandleID, turnID, step)
	return o.current, previous
}

// cancelCurrentLocked cancels the outstanding handle and keeps it as the one
// the next step has to await.
func (o *Orchestrator) cancelCurrentLocked() {
	if o.current == nil {
		return
	}
	o.current.Cancel()
	o.draining = o.current
	o.current = nil
}

// isCurrentLocked reports whether results from h may still be applied.
func (o *Orchestrator) isCurrentLocked(h *capabilityHandle) bool {
	if h == nil || o.current != h || o.state != h.step {
		return false
	}
	if o.turn == nil {
		return h.turnID == uuid.Nil
	}
	return h.turnID == o.turn.ID
}

// transitionLocked moves to next and notifies listeners. Fields of change
// describing the transition itself are filled in here.
func (o *Orchestrator) transitionLocked(next InteractionState, change StatusChange) {
	change.Previous = o.state
	change.State = next
	if change.Turn == nil {
		change.Turn = o.turn.snapshot()
	}
	change.At = time.Now()

	o.state = next
	logger.Debug("interaction state changed",
		"from", change.Previous.String(),
		"to", change.State.String(),
		"reason", string(change.Reason),
		"error_kind", string(change.ErrorKind),
	)
	o.emitStatusLocked(change)
}

func (o *Orchestrator) emitStatusLocked(change StatusChange) {
	o.notifications.dispatch(func() { o.listeners.notify(change) })
}

func (o *Orchestrator) emitEventLocked(event events.Event) {
	logger.Debug("interaction event", "kind", string(event.Kind()), "namespace", event.Kind().Namespace())
	if o.onEvent == nil {
		return
	}
	onEvent := o.onEvent
	o.notifications.dispatch(func() { onEvent(event) })
}

func (o *Orchestrator) spawn(step func()) {
	o.workers.Add(1)
	go func() {
		defer o.workers.Done()
		step()
	}()
}
