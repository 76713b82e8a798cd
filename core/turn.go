package orchestration

import (
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/koscakluka/ema-vision/internal/utils"
)

const defaultHistoryLimit = 20

type TurnOutcome string

const (
	TurnOutcomeInProgress TurnOutcome = ""
	TurnOutcomeCompleted  TurnOutcome = "completed"
	TurnOutcomeFailed     TurnOutcome = "failed"
	TurnOutcomeCancelled  TurnOutcome = "cancelled"
)

// turn is the live exchange. Only the orchestrator touches it, always under
// its mutex.
type turn struct {
	ID            uuid.UUID
	Transcript    string
	VisualContext *string
	Reply         string
	StartedAt     time.Time
	EndedAt       time.Time
	Outcome       TurnOutcome
	ErrorKind     ErrorKind
}

// TurnSnapshot is a point-in-time copy of a turn, safe to keep and read from
// any goroutine.
type TurnSnapshot struct {
	ID            uuid.UUID
	Transcript    string
	VisualContext *string
	Reply         string
	StartedAt     time.Time
	EndedAt       time.Time
	Outcome       TurnOutcome
	ErrorKind     ErrorKind
}

func newTurn(transcript string) *turn {
	return &turn{
		ID:         uuid.New(),
		Transcript: transcript,
		StartedAt:  time.Now(),
	}
}

func (t *turn) snapshot() *TurnSnapshot {
	if t == nil {
		return nil
	}

	snapshot := &TurnSnapshot{}
	if err := copier.Copy(snapshot, t); err != nil {
		logger.Warn("failed to copy turn", "error", err, "turn", t.ID.String())
	}
	if t.VisualContext != nil {
		snapshot.VisualContext = utils.Ptr(*t.VisualContext)
	}
	return snapshot
}

// HasVisualContext reports whether the reply was composed with a scene
// description.
func (s TurnSnapshot) HasVisualContext() bool {
	return s.VisualContext != nil
}

// Duration is zero while the turn is in progress.
func (s TurnSnapshot) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

func (s TurnSnapshot) clone() TurnSnapshot {
	if s.VisualContext != nil {
		s.VisualContext = utils.Ptr(*s.VisualContext)
	}
	return s
}

// turnHistory keeps the most recent finished turns, oldest first.
type turnHistory struct {
	limit int
	turns []TurnSnapshot
}

func (h *turnHistory) add(snapshot TurnSnapshot) {
	h.turns = append(h.turns, snapshot)
	if h.limit > 0 && len(h.turns) > h.limit {
		h.turns = append([]TurnSnapshot(nil), h.turns[len(h.turns)-h.limit:]...)
	}
}

func (h *turnHistory) snapshot() []TurnSnapshot {
	turns := make([]TurnSnapshot, 0, len(h.turns))
	for _, t := range h.turns {
		turns = append(turns, t.clone())
	}
	return turns
}
