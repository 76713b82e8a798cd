package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/koscakluka/ema-vision/core/events"
	"github.com/koscakluka/ema-vision/core/speechtotext"
	"github.com/koscakluka/ema-vision/core/texttospeech"
	"github.com/koscakluka/ema-vision/core/vision"
)

func (o *Orchestrator) startListeningLocked() {
	h, previous := o.newHandleLocked(uuid.Nil, StateListening)
	o.session = &listeningSession{}
	o.transitionLocked(StateListening, StatusChange{})
	o.spawn(func() { o.listen(h, previous) })
}

func (o *Orchestrator) listen(h *capabilityHandle, previous *capabilityHandle) {
	defer h.finish()
	h.awaitPrevious(previous)

	ctx, span := tracer.Start(h.ctx, "listen")
	defer span.End()

	var err error
	if o.capture == nil {
		err = fmt.Errorf("%w: no speech capture configured", speechtotext.ErrCaptureUnavailable)
	} else {
		_, err = callUntilDone(ctx, handleDrainTimeout, func() (struct{}, error) {
			return struct{}{}, o.capture.Listen(ctx,
				speechtotext.WithSpeechStartedCallback(func() {
					o.emitCaptureEvent(h, events.NewUserSpeechStarted())
				}),
				speechtotext.WithSpeechEndedCallback(func() {
					o.emitCaptureEvent(h, events.NewUserSpeechEnded())
				}),
				speechtotext.WithInterimCallback(func(transcript string) {
					o.emitCaptureEvent(h, events.NewUserTranscriptInterimUpdated(transcript))
				}),
				speechtotext.WithSegmentCallback(func(segment string) {
					o.onTranscriptSegment(h, segment)
				}),
				speechtotext.WithFinalCallback(func(transcript string) {
					o.onFinalTranscript(h, transcript)
				}),
			)
		})
	}
	if err != nil && h.ctx.Err() == nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	o.onCaptureEnded(h, err)
}

func (o *Orchestrator) emitCaptureEvent(h *capabilityHandle, event events.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.isCurrentLocked(h) {
		o.emitEventLocked(event)
	}
}

func (o *Orchestrator) onTranscriptSegment(h *capabilityHandle, segment string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.isCurrentLocked(h) {
		return
	}
	if segment = strings.TrimSpace(segment); segment == "" {
		return
	}
	o.session.segments = append(o.session.segments, segment)
	o.emitEventLocked(events.NewUserTranscriptSegment(segment))
}

func (o *Orchestrator) onFinalTranscript(h *capabilityHandle, transcript string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.isCurrentLocked(h) {
		return
	}
	o.emitEventLocked(events.NewUserTranscriptFinal(transcript))

	if transcript = strings.TrimSpace(transcript); transcript == "" {
		transcript = o.session.transcript()
	}
	if transcript == "" {
		return
	}
	o.beginTurnLocked(transcript)
}

// onCaptureEnded handles a listening session that ended without a final
// transcript having started a turn.
func (o *Orchestrator) onCaptureEnded(h *capabilityHandle, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.isCurrentLocked(h) {
		return
	}

	transcript := o.session.transcript()
	if err == nil && transcript != "" {
		o.beginTurnLocked(transcript)
		return
	}

	o.cancelCurrentLocked()
	o.session = nil
	if err != nil {
		kind := classifyCaptureError(err)
		logger.Warn("speech capture failed", "error", err, "error_kind", string(kind))
		o.transitionLocked(StateIdle, StatusChange{
			Reason:    ReasonFailed,
			ErrorKind: kind,
			Message:   err.Error(),
		})
		return
	}
	o.transitionLocked(StateIdle, StatusChange{Reason: ReasonNoInput})
}

func (o *Orchestrator) beginTurnLocked(transcript string) {
	o.session = nil
	o.turn = newTurn(transcript)

	h, previous := o.newHandleLocked(o.turn.ID, StateRetrievingContext)
	o.emitEventLocked(events.NewTurnStarted(o.turn.ID, transcript))
	o.transitionLocked(StateRetrievingContext, StatusChange{})
	o.emitEventLocked(events.NewVisualContextRequested())

	o.spawn(func() { o.retrieveContext(h, previous) })
}

func (o *Orchestrator) retrieveContext(h *capabilityHandle, previous *capabilityHandle) {
	defer h.finish()
	h.awaitPrevious(previous)

	ctx, span := tracer.Start(h.ctx, "retrieve visual context",
		trace.WithAttributes(attribute.String("turn.id", h.turnID.String())))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, o.contextTimeout)
	defer cancel()

	description, err := o.describe(ctx)
	if err != nil && h.ctx.Err() == nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	o.onContextSettled(h, description, err)
}

// describe returns once the provider answers or ctx is done, whichever comes
// first. Reading the frame counts against the same deadline.
func (o *Orchestrator) describe(ctx context.Context) (string, error) {
	if o.vision == nil {
		return "", fmt.Errorf("%w: no vision provider configured", vision.ErrContextUnavailable)
	} else if o.frames == nil {
		return "", fmt.Errorf("%w: no frame source configured", vision.ErrContextUnavailable)
	}

	return callUntilDone(ctx, 0, func() (string, error) {
		frame, ok := o.frames.CurrentFrame()
		if !ok {
			return "", fmt.Errorf("%w: no current frame", vision.ErrContextUnavailable)
		}
		return o.vision.Describe(ctx, frame)
	})
}

func (o *Orchestrator) onContextSettled(h *capabilityHandle, description string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.isCurrentLocked(h) {
		return
	}

	change := StatusChange{}
	description = strings.TrimSpace(description)
	if err == nil && description == "" {
		err = fmt.Errorf("%w: empty description", vision.ErrContextUnavailable)
	}
	if err != nil {
		kind := classifyContextError(err)
		logger.Info("continuing without visual context", "error", err, "error_kind", string(kind))
		change.ErrorKind = kind
		change.Message = err.Error()
		o.emitEventLocked(events.NewVisualContextSettled("", string(kind)))
	} else {
		o.turn.VisualContext = &description
		o.emitEventLocked(events.NewVisualContextSettled(description, ""))
	}

	prompt := o.composePrompt(o.turn.Transcript, o.turn.VisualContext)
	next, previous := o.newHandleLocked(o.turn.ID, StateGenerating)
	o.transitionLocked(StateGenerating, change)
	o.emitEventLocked(events.NewAssistantResponseStarted(prompt))

	o.spawn(func() { o.generate(next, previous, prompt) })
}

func (o *Orchestrator) generate(h *capabilityHandle, previous *capabilityHandle, prompt string) {
	defer h.finish()
	h.awaitPrevious(previous)

	ctx, span := tracer.Start(h.ctx, "generate reply",
		trace.WithAttributes(attribute.String("turn.id", h.turnID.String())))
	defer span.End()

	var reply string
	var err error
	if o.generator == nil {
		err = errors.New("no response generator configured")
	} else {
		reply, err = callUntilDone(ctx, handleDrainTimeout, func() (string, error) {
			return o.generator.Generate(ctx, prompt)
		})
	}
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errEmptyReply
	}
	if err != nil && h.ctx.Err() == nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	o.onReply(h, reply, err)
}

func (o *Orchestrator) onReply(h *capabilityHandle, reply string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.isCurrentLocked(h) {
		return
	}

	if err != nil {
		logger.Warn("reply generation failed", "error", err, "turn", h.turnID.String())
		o.turn.ErrorKind = ErrorKindGenerationError
		o.finishTurnLocked(TurnOutcomeFailed, StatusChange{
			Reason:    ReasonFailed,
			ErrorKind: ErrorKindGenerationError,
			Message:   err.Error(),
		})
		return
	}

	reply = strings.TrimSpace(reply)
	o.turn.Reply = reply
	o.emitEventLocked(events.NewAssistantResponseFinal(reply))

	next, previous := o.newHandleLocked(o.turn.ID, StateSpeaking)
	o.transitionLocked(StateSpeaking, StatusChange{})
	o.emitEventLocked(events.NewAssistantPlaybackStarted(reply))

	o.spawn(func() { o.speak(next, previous, reply) })
}

func (o *Orchestrator) speak(h *capabilityHandle, previous *capabilityHandle, reply string) {
	defer h.finish()
	h.awaitPrevious(previous)

	ctx, span := tracer.Start(h.ctx, "speak reply",
		trace.WithAttributes(attribute.String("turn.id", h.turnID.String())))
	defer span.End()

	var err error
	if o.output == nil {
		err = fmt.Errorf("%w: no speech output configured", texttospeech.ErrPlayback)
	} else {
		_, err = callUntilDone(ctx, handleDrainTimeout, func() (struct{}, error) {
			return struct{}{}, o.output.Speak(ctx, reply)
		})
	}
	if err != nil && h.ctx.Err() == nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	o.onPlaybackEnded(h, reply, err)
}

func (o *Orchestrator) onPlaybackEnded(h *capabilityHandle, reply string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.isCurrentLocked(h) {
		return
	}

	if err != nil {
		logger.Warn("playback failed", "error", err, "turn", h.turnID.String())
		o.turn.ErrorKind = ErrorKindPlaybackError
		o.finishTurnLocked(TurnOutcomeFailed, StatusChange{
			Reason:    ReasonFailed,
			ErrorKind: ErrorKindPlaybackError,
			Message:   err.Error(),
		})
		return
	}

	o.emitEventLocked(events.NewAssistantPlaybackEnded(reply))
	o.finishTurnLocked(TurnOutcomeCompleted, StatusChange{Reason: ReasonReady})
}

// finishTurnLocked closes the live turn, records it in the history and
// returns to Idle.
func (o *Orchestrator) finishTurnLocked(outcome TurnOutcome, change StatusChange) {
	o.cancelCurrentLocked()

	finished := o.turn
	finished.EndedAt = time.Now()
	finished.Outcome = outcome
	snapshot := finished.snapshot()
	o.history.add(*snapshot)
	o.turn = nil

	switch outcome {
	case TurnOutcomeCompleted:
		o.emitEventLocked(events.NewTurnCompleted(finished.ID))
	case TurnOutcomeFailed:
		o.emitEventLocked(events.NewTurnFailed(finished.ID, string(change.ErrorKind), change.Message))
	case TurnOutcomeCancelled:
		o.emitEventLocked(events.NewTurnCancelled(finished.ID))
	}
	turnDuration.Record(context.Background(), snapshot.Duration().Seconds(),
		metric.WithAttributes(attribute.String("outcome", string(outcome))))

	change.Turn = snapshot
	o.transitionLocked(StateIdle, change)
}
