package events

const (
	// KindAssistantResponseStarted identifies the start of reply generation.
	KindAssistantResponseStarted Kind = "assistant_response.started"
	// KindAssistantResponseFinal identifies the complete generated reply.
	KindAssistantResponseFinal Kind = "assistant_response.final"
)

// AssistantResponseStarted carries the prompt sent to the generator.
type AssistantResponseStarted struct {
	Base
	Prompt string
}

// NewAssistantResponseStarted creates an assistant response started event.
func NewAssistantResponseStarted(prompt string) AssistantResponseStarted {
	return AssistantResponseStarted{Base: NewBase(KindAssistantResponseStarted), Prompt: prompt}
}

// AssistantResponseFinal carries the complete reply.
type AssistantResponseFinal struct {
	Base
	Response string
}

// NewAssistantResponseFinal creates an assistant response final event.
func NewAssistantResponseFinal(response string) AssistantResponseFinal {
	return AssistantResponseFinal{Base: NewBase(KindAssistantResponseFinal), Response: response}
}
