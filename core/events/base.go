package events

import (
	"strings"
	"time"
)

// Kind names an event as "<namespace>.<name>", e.g. "turn_state.started".
type Kind string

// Namespace returns the part of the kind before the first dot.
func (k Kind) Namespace() string {
	namespace, _, _ := strings.Cut(string(k), ".")
	return namespace
}

// Event is implemented by every interaction event. Concrete events embed Base
// and are told apart with a type switch or by Kind.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind and the time the orchestrator raised the event.
type Base struct {
	kind Kind
	at   time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, at: time.Now()}
}

func (b Base) Kind() Kind           { return b.kind }
func (b Base) Timestamp() time.Time { return b.at }
