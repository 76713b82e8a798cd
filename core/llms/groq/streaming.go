package groq

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/koscakluka/ema-vision/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	endMessage  = "[DONE]"
	chunkPrefix = "data:"
)

// Generate streams a single chat completion for prompt and returns the
// concatenated content. There are no retries.
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

	reqBody := requestBody{
		Model:         c.model,
		Messages:      toMessages(options.Instructions, prompt),
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
	}
	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshalling JSON: %w", err)
	}

	resp, err := c.post(ctx, requestBodyBytes)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	requestTime := time.Now()
	firstToken := true
	var response strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		chunk := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))
		if len(chunk) == 0 {
			continue
		}
		if chunk == endMessage {
			break
		}

		var responseBody streamingResponseBody
		if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
			logger.Warn("error unmarshalling chunk", "error", err)
			continue
		}
		c.recordUsage(ctx, responseBody.usage())
		if len(responseBody.Choices) == 0 {
			continue
		}

		content := responseBody.Choices[0].Delta.Content
		if content == "" {
			continue
		}
		if firstToken {
			firstToken = false
			span.SetAttributes(attribute.Float64("response.request_to_first_token_time", time.Since(requestTime).Seconds()))
		}
		response.WriteString(content)
		if options.Stream != nil {
			options.Stream(content)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading streamed response: %w", err)
	}

	return strings.TrimSpace(response.String()), nil
}

func (c *Client) post(ctx context.Context, body []byte) (*http.Response, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("groq api key not found")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Warn("non-OK HTTP status", "status", resp.Status, "body", string(errorBody))
		return nil, fmt.Errorf("non-OK HTTP status: %s", resp.Status)
	}
	return resp, nil
}

func (c *Client) recordUsage(ctx context.Context, u *usage) {
	if u == nil {
		return
	}
	model := attribute.String("model", c.model)
	tokenCounter.Add(ctx, int64(u.PromptTokens), metric.WithAttributes(model, attribute.String("kind", "prompt")))
	tokenCounter.Add(ctx, int64(u.CompletionTokens), metric.WithAttributes(model, attribute.String("kind", "completion")))
}

type requestBody struct {
	Model          string              `json:"model"`
	Messages       []message           `json:"messages"`
	Stream         bool                `json:"stream"`
	StreamOptions  *streamOptions      `json:"stream_options,omitempty"`
	ResponseFormat *ChatResponseFormat `json:"response_format,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type streamingResponseBody struct {
	Choices []struct {
		Delta struct {
			Role         string  `json:"role,omitempty"`
			Content      string  `json:"content,omitempty"`
			FinishReason *string `json:"finish_reason,omitempty"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *usage `json:"usage"`
	// Groq reports usage of streamed completions here
	XGroq *struct {
		Usage *usage `json:"usage"`
	} `json:"x_groq"`
}

func (r streamingResponseBody) usage() *usage {
	if r.Usage != nil {
		return r.Usage
	}
	if r.XGroq != nil {
		return r.XGroq.Usage
	}
	return nil
}
