package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/koscakluka/ema-vision/core/llms"
	"github.com/koscakluka/ema-vision/internal/genaiclient"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

type Client struct {
	client       *genai.Client
	model        string
	instructions string
}

type options struct {
	apiKey       string
	baseURL      string
	model        string
	instructions string
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

func WithInstructions(instructions string) Option {
	return func(o *options) { o.instructions = instructions }
}

func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	o := options{
		apiKey:       os.Getenv("GEMINI_API_KEY"),
		model:        DefaultModel,
		instructions: llms.DefaultInstructions,
	}
	for _, opt := range opts {
		opt(&o)
	}

	client, err := genaiclient.New(ctx, genaiclient.Config{APIKey: o.apiKey, BaseURL: o.baseURL})
	if err != nil {
		return nil, err
	}

	return &Client{client: client, model: o.model, instructions: o.instructions}, nil
}

// Generate answers prompt in a single request. The whole reply is delivered
// to the stream callback at once.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...llms.GenerateOption) (_ string, err error) {
	options := llms.GenerateOptions{Instructions: c.instructions}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := tracer.Start(ctx, "generate")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("request.model", c.model))

	config := &genai.GenerateContentConfig{}
	if options.Instructions != "" {
		config.SystemInstruction = genai.NewContentFromText(options.Instructions, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		logger.Warn("model returned an empty reply", "model", c.model)
	}
	if options.Stream != nil && reply != "" {
		options.Stream(reply)
	}
	return reply, nil
}
