// Package captions turns orchestrator status changes into the Spanish
// captions shown to the user.
package captions

import (
	"fmt"

	orchestration "github.com/koscakluka/ema-vision/core"
)

const (
	Welcome           = "Pulsa el micrófono para comenzar la conversación."
	Listening         = "Escuchando..."
	Analyzing         = "Analizando..."
	Thinking          = "Pensando..."
	NoVoice           = "No se detectó voz. Pulsa el micrófono para hablar."
	ConversationError = "Error en la conversación. Inténtalo de nuevo."
	MicUnavailable    = "El micrófono no está disponible. Inténtalo de nuevo."
	SpeakAgain        = "Pulsa el micrófono para hablar."
	Busy              = "Espera a que termine la respuesta."
)

type Caption struct {
	Text string
	// Live marks text that is still changing while the user speaks.
	Live    bool
	IsError bool
}

// Interim is the caption for a transcript that is still being recognized.
func Interim(transcript string) Caption {
	return Caption{Text: "Tú: " + transcript, Live: true}
}

func Describe(change orchestration.StatusChange) Caption {
	transcript, reply := "", ""
	if change.Turn != nil {
		transcript, reply = change.Turn.Transcript, change.Turn.Reply
	}

	switch change.Reason {
	case orchestration.ReasonBusy:
		return Caption{Text: Busy}
	case orchestration.ReasonDisposed:
		return Caption{}
	}

	switch change.State {
	case orchestration.StateListening:
		return Caption{Text: Listening, Live: true}
	case orchestration.StateRetrievingContext:
		return Caption{Text: exchange(transcript, Analyzing)}
	case orchestration.StateGenerating:
		return Caption{Text: exchange(transcript, Thinking)}
	case orchestration.StateSpeaking:
		return Caption{Text: exchange(transcript, reply)}
	}

	switch change.Reason {
	case orchestration.ReasonNoInput:
		return Caption{Text: NoVoice}
	case orchestration.ReasonReady:
		return Caption{Text: exchange(transcript, reply) + "\n\n" + SpeakAgain}
	case orchestration.ReasonFailed:
		if change.ErrorKind == orchestration.ErrorKindCaptureUnavailable {
			return Caption{Text: MicUnavailable, IsError: true}
		}
		return Caption{Text: ConversationError, IsError: true}
	case orchestration.ReasonCancelled:
		return Caption{Text: SpeakAgain}
	default:
		return Caption{Text: Welcome}
	}
}

func exchange(transcript, agent string) string {
	return fmt.Sprintf("Tú: %s\nAgente: %s", transcript, agent)
}
