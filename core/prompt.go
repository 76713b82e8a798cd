package orchestration

import (
	"fmt"
	"strings"
)

// PromptComposer builds the generation prompt of a turn. visualContext is
// nil when no scene description is available.
type PromptComposer func(transcript string, visualContext *string) string

// ComposePrompt prefixes the transcript with the scene description, when
// there is one.
func ComposePrompt(transcript string, visualContext *string) string {
	if visualContext == nil || strings.TrimSpace(*visualContext) == "" {
		return transcript
	}
	return fmt.Sprintf("Contexto visual: %s. Pregunta del usuario: %s", strings.TrimSpace(*visualContext), transcript)
}
