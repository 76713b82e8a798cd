package events

import "github.com/google/uuid"

const (
	// KindTurnStarted identifies the start of a turn.
	KindTurnStarted Kind = "turn_state.started"
	// KindTurnCompleted identifies successful completion of a turn.
	KindTurnCompleted Kind = "turn_state.completed"
	// KindTurnFailed identifies a failed turn.
	KindTurnFailed Kind = "turn_state.failed"
	// KindTurnCancelled identifies turn cancellation.
	KindTurnCancelled Kind = "turn_state.cancelled"
)

// TurnStarted marks the start of a turn with its transcript.
type TurnStarted struct {
	Base
	TurnID     uuid.UUID
	Transcript string
}

// NewTurnStarted creates a turn started event.
func NewTurnStarted(turnID uuid.UUID, transcript string) TurnStarted {
	return TurnStarted{Base: NewBase(KindTurnStarted), TurnID: turnID, Transcript: transcript}
}

// TurnCompleted marks a turn whose reply was played in full.
type TurnCompleted struct {
	Base
	TurnID uuid.UUID
}

// NewTurnCompleted creates a turn completed event.
func NewTurnCompleted(turnID uuid.UUID) TurnCompleted {
	return TurnCompleted{Base: NewBase(KindTurnCompleted), TurnID: turnID}
}

// TurnFailed marks a turn aborted by an error.
type TurnFailed struct {
	Base
	TurnID    uuid.UUID
	ErrorKind string
	Message   string
}

// NewTurnFailed creates a turn failed event.
func NewTurnFailed(turnID uuid.UUID, errorKind, message string) TurnFailed {
	return TurnFailed{Base: NewBase(KindTurnFailed), TurnID: turnID, ErrorKind: errorKind, Message: message}
}

// TurnCancelled marks cancellation of the current turn.
type TurnCancelled struct {
	Base
	TurnID uuid.UUID
}

// NewTurnCancelled creates a turn cancelled event.
func NewTurnCancelled(turnID uuid.UUID) TurnCancelled {
	return TurnCancelled{Base: NewBase(KindTurnCancelled), TurnID: turnID}
}
