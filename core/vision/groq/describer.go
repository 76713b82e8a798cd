package groq

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/koscakluka/ema-vision/core/llms/groq"
	"github.com/koscakluka/ema-vision/core/vision"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultModel = "meta-llama/llama-4-scout-17b-16e-instruct"

const systemPrompt = "Eres los ojos de un asistente de voz. Respondes solo con la descripción pedida."

type sceneDescription struct {
	Description string `json:"description" jsonschema:"description=Una sola frase corta en español que describe la imagen"`
}

// Describer describes frames with a vision model behind an OpenAI compatible
// chat completions endpoint.
type Describer struct {
	client      *groq.Client
	instruction string
}

type Option func(*Describer)

func WithInstruction(instruction string) Option {
	return func(d *Describer) { d.instruction = instruction }
}

// NewDescriber expects a client configured with a vision capable model, see
// [DefaultModel].
func NewDescriber(client *groq.Client, opts ...Option) *Describer {
	d := &Describer{client: client, instruction: vision.DefaultInstruction}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Describer) Describe(ctx context.Context, frame vision.Frame) (string, error) {
	if frame.IsZero() {
		return "", vision.ErrContextUnavailable
	}

	ctx, span := tracer.Start(ctx, "describe frame")
	defer span.End()
	span.SetAttributes(attribute.Int("frame.bytes", len(frame.Data)))

	mimeType := frame.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(frame.Data)

	scene, err := groq.PromptJSONSchema[sceneDescription](ctx, d.client, systemPrompt, []groq.ContentPart{
		groq.TextPart(d.instruction),
		groq.ImagePart(dataURL),
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(scene.Description), nil
}
