package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/koscakluka/ema-vision/core/vision"
	"github.com/koscakluka/ema-vision/internal/genaiclient"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

type Describer struct {
	client      *genai.Client
	model       string
	instruction string
}

type options struct {
	apiKey      string
	baseURL     string
	model       string
	instruction string
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

func WithInstruction(instruction string) Option {
	return func(o *options) { o.instruction = instruction }
}

func NewDescriber(ctx context.Context, opts ...Option) (*Describer, error) {
	o := options{
		apiKey:      os.Getenv("GEMINI_API_KEY"),
		model:       DefaultModel,
		instruction: vision.DefaultInstruction,
	}
	for _, opt := range opts {
		opt(&o)
	}

	client, err := genaiclient.New(ctx, genaiclient.Config{APIKey: o.apiKey, BaseURL: o.baseURL})
	if err != nil {
		return nil, err
	}

	return &Describer{client: client, model: o.model, instruction: o.instruction}, nil
}

func (d *Describer) Describe(ctx context.Context, frame vision.Frame) (_ string, err error) {
	if frame.IsZero() {
		return "", vision.ErrContextUnavailable
	}

	ctx, span := tracer.Start(ctx, "describe frame")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("request.model", d.model),
		attribute.String("frame.mime_type", frame.MIMEType),
		attribute.Int("frame.bytes", len(frame.Data)),
	)

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(frame.Data, frame.MIMEType),
		genai.NewPartFromText(d.instruction),
	}, genai.RoleUser)}

	resp, err := d.client.Models.GenerateContent(ctx, d.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to describe frame: %w", err)
	}

	return strings.TrimSpace(resp.Text()), nil
}
