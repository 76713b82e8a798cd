package events

const (
	// KindVisualContextRequested identifies the start of scene description.
	KindVisualContextRequested Kind = "visual_context.requested"
	// KindVisualContextSettled identifies the outcome of scene description.
	KindVisualContextSettled Kind = "visual_context.settled"
)

// VisualContextRequested marks that a frame is being described.
type VisualContextRequested struct{ Base }

// NewVisualContextRequested creates a visual context requested event.
func NewVisualContextRequested() VisualContextRequested {
	return VisualContextRequested{Base: NewBase(KindVisualContextRequested)}
}

// VisualContextSettled carries the scene description, or the reason there is
// none. Description is empty whenever Reason is set.
type VisualContextSettled struct {
	Base
	Description string
	Reason      string
}

// NewVisualContextSettled creates a visual context settled event.
func NewVisualContextSettled(description, reason string) VisualContextSettled {
	return VisualContextSettled{Base: NewBase(KindVisualContextSettled), Description: description, Reason: reason}
}

// Available reports whether a description was produced.
func (e VisualContextSettled) Available() bool {
	return e.Reason == "" && e.Description != ""
}
