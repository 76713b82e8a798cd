package orchestration

// InteractionState is the single active phase of the interaction loop.
type InteractionState int

const (
	StateIdle InteractionState = iota
	StateListening
	StateRetrievingContext
	StateGenerating
	StateSpeaking
)

func (s InteractionState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateListening:
		return "Listening"
	case StateRetrievingContext:
		return "RetrievingContext"
	case StateGenerating:
		return "Generating"
	case StateSpeaking:
		return "Speaking"
	default:
		return "Unknown"
	}
}

// IsValid reports whether s is one of the five interaction states.
func (s InteractionState) IsValid() bool {
	return s >= StateIdle && s <= StateSpeaking
}

// isBusy reports whether a turn is being processed and new captures must be
// rejected.
func (s InteractionState) isBusy() bool {
	return s == StateRetrievingContext || s == StateGenerating || s == StateSpeaking
}
