package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/koscakluka/ema-vision/core/audio"
	"github.com/koscakluka/ema-vision/core/texttospeech"
	"github.com/koscakluka/ema-vision/internal/genaiclient"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const (
	DefaultModel = "gemini-2.5-flash-preview-tts"
	DefaultVoice = "Kore"
)

// ErrNoAudio is returned when the model answered without an audio part.
var ErrNoAudio = errors.New("no audio generated")

var availableVoices = []string{
	"Kore",   // female, Spanish (Spain)
	"Aoede",  // female
	"Charon", // male
}

func GetAvailableVoices() []string {
	return availableVoices
}

// ResolveVoice returns voice if it is one of the available voices and the
// default voice otherwise.
func ResolveVoice(voice string) string {
	if slices.Contains(availableVoices, voice) {
		return voice
	}
	return DefaultVoice
}

type TextToSpeechClient struct {
	client *genai.Client
	model  string
	voice  string
}

type options struct {
	apiKey  string
	baseURL string
	model   string
	voice   string
}

type Option func(*options)

func WithAPIKey(apiKey string) Option {
	return func(o *options) { o.apiKey = apiKey }
}

func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

func WithVoice(voice string) Option {
	return func(o *options) { o.voice = voice }
}

func NewTextToSpeechClient(ctx context.Context, opts ...Option) (*TextToSpeechClient, error) {
	o := options{
		apiKey: os.Getenv("GEMINI_API_KEY"),
		model:  DefaultModel,
		voice:  DefaultVoice,
	}
	for _, opt := range opts {
		opt(&o)
	}

	client, err := genaiclient.New(ctx, genaiclient.Config{APIKey: o.apiKey, BaseURL: o.baseURL})
	if err != nil {
		return nil, err
	}

	return &TextToSpeechClient{
		client: client,
		model:  o.model,
		voice:  ResolveVoice(o.voice),
	}, nil
}

// Synthesize asks the model for a spoken rendition of text. The requested
// encoding is ignored, Gemini always answers with raw PCM and reports its
// format in the mime type.
func (c *TextToSpeechClient) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) (_ texttospeech.Synthesis, err error) {
	options := texttospeech.SynthesisOptions{Voice: c.voice}
	for _, opt := range opts {
		opt(&options)
	}
	voice := ResolveVoice(options.Voice)

	ctx, span := tracer.Start(ctx, "synthesize")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("gemini.model", c.model),
		attribute.String("gemini.voice", voice),
	)

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
				},
			},
		},
	)
	if err != nil {
		return texttospeech.Synthesis{}, fmt.Errorf("failed to generate speech: %w", err)
	}

	blob := findAudio(resp)
	if blob == nil {
		return texttospeech.Synthesis{}, ErrNoAudio
	}

	synthesis := texttospeech.Synthesis{Audio: blob.Data, MIMEType: blob.MIMEType}
	if synthesis.EncodingInfo, err = audio.EncodingFromMIMEType(blob.MIMEType); err != nil {
		logger.Warn("unrecognised audio mime type", "mimeType", blob.MIMEType, "error", err)
		err = nil
	}
	if options.SpeechAudioCallback != nil {
		options.SpeechAudioCallback(synthesis.Audio)
	}

	return synthesis, nil
}

func findAudio(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil &&
			strings.HasPrefix(part.InlineData.MIMEType, "audio/") &&
			len(part.InlineData.Data) > 0 {
			return part.InlineData
		}
	}
	return nil
}
