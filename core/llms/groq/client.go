package groq

import (
	"net/http"
	"os"

	"github.com/koscakluka/ema-vision/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultURL   = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel = "llama-3.3-70b-versatile"
)

// Client talks to Groq or any other OpenAI compatible chat completions
// endpoint.
type Client struct {
	apiKey       string
	url          string
	model        string
	instructions string
	httpClient   *http.Client
}

type Option func(*Client)

func WithAPIKey(apiKey string) Option {
	return func(c *Client) { c.apiKey = apiKey }
}

func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithURL points the client at another OpenAI compatible chat completions
// endpoint.
func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

func WithInstructions(instructions string) Option {
	return func(c *Client) { c.instructions = instructions }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		apiKey:       os.Getenv("GROQ_API_KEY"),
		url:          DefaultURL,
		model:        DefaultModel,
		instructions: llms.DefaultInstructions,
		httpClient:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
