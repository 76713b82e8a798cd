// Package genaiclient builds Gemini API clients that share the traced HTTP
// transport used by the rest of the providers.
package genaiclient

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"
)

type Config struct {
	APIKey string
	// BaseURL overrides the Gemini API endpoint, empty uses the default
	BaseURL string
}

func New(ctx context.Context, config Config) (*genai.Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini api key not found")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      config.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		HTTPOptions: genai.HTTPOptions{BaseURL: config.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}
