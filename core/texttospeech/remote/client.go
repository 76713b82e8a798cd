package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/koscakluka/ema-vision/core/audio"
	"github.com/koscakluka/ema-vision/core/texttospeech"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Client synthesizes speech through an HTTP speech endpoint, e.g. the one
// served by cmd/tts-server.
type Client struct {
	endpoint   string
	voice      string
	httpClient *http.Client
}

type Option func(*Client)

func WithVoice(voice string) Option {
	return func(c *Client) { c.voice = voice }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) (_ texttospeech.Synthesis, err error) {
	options := texttospeech.SynthesisOptions{Voice: c.voice}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := tracer.Start(ctx, "synthesize")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("tts.voice", options.Voice))

	reqBody, err := json.Marshal(Request{Text: text, VoiceID: options.Voice})
	if err != nil {
		return texttospeech.Synthesis{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return texttospeech.Synthesis{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return texttospeech.Synthesis{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return texttospeech.Synthesis{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.ErrorMessage == "" {
			return texttospeech.Synthesis{}, fmt.Errorf("speech endpoint returned %s", resp.Status)
		}
		return texttospeech.Synthesis{}, fmt.Errorf("speech endpoint returned %s: %s", resp.Status, errResp.ErrorMessage)
	}

	var speechResp Response
	if err := json.Unmarshal(body, &speechResp); err != nil {
		return texttospeech.Synthesis{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	synthesis := texttospeech.Synthesis{Audio: speechResp.AudioBytes, MIMEType: speechResp.MIMEType}
	if synthesis.EncodingInfo, err = audio.EncodingFromMIMEType(speechResp.MIMEType); err != nil {
		logger.Warn("unrecognised audio mime type", "mimeType", speechResp.MIMEType, "error", err)
		err = nil
	}
	if options.SpeechAudioCallback != nil {
		options.SpeechAudioCallback(synthesis.Audio)
	}

	return synthesis, nil
}
