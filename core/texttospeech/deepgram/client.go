package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-vision/core/audio"
	"github.com/koscakluka/ema-vision/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultBaseURL = "wss://api.deepgram.com/v1/speak"

var defaultEncodingInfo = audio.EncodingInfo{SampleRate: 24000, Format: audio.EncodingLinear16}

type TextToSpeechClient struct {
	apiKey  string
	baseURL string
	voice   deepgramVoice
}

type Option func(*TextToSpeechClient)

func WithAPIKey(apiKey string) Option {
	return func(c *TextToSpeechClient) { c.apiKey = apiKey }
}

func WithBaseURL(baseURL string) Option {
	return func(c *TextToSpeechClient) { c.baseURL = baseURL }
}

func NewTextToSpeechClient(voice string, opts ...Option) (*TextToSpeechClient, error) {
	client := &TextToSpeechClient{
		apiKey:  os.Getenv("DEEPGRAM_API_KEY"),
		baseURL: defaultBaseURL,
		voice:   defaultVoice,
	}
	for _, opt := range opts {
		opt(client)
	}

	if voice != "" {
		if !slices.Contains(GetAvailableVoices(), deepgramVoice(voice)) {
			return nil, fmt.Errorf("invalid voice %q", voice)
		}
		client.voice = deepgramVoice(voice)
	}

	return client, nil
}

// Synthesize speaks text over a dedicated websocket and collects the audio
// until Deepgram confirms the flush.
func (c *TextToSpeechClient) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) (_ texttospeech.Synthesis, err error) {
	options := texttospeech.SynthesisOptions{EncodingInfo: defaultEncodingInfo}
	for _, opt := range opts {
		opt(&options)
	}

	voice := c.voice
	if options.Voice != "" {
		if slices.Contains(GetAvailableVoices(), deepgramVoice(options.Voice)) {
			voice = deepgramVoice(options.Voice)
		} else {
			logger.Warn("unknown deepgram voice, using the client voice", "voice", options.Voice)
		}
	}

	ctx, span := tracer.Start(ctx, "synthesize")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("deepgram.voice", string(voice)))

	if c.apiKey == "" {
		return texttospeech.Synthesis{}, fmt.Errorf("deepgram api key not found")
	}

	conn, err := c.connectWebsocket(ctx, voice, options.EncodingInfo)
	if err != nil {
		return texttospeech.Synthesis{}, fmt.Errorf("failed to open websocket: %w", err)
	}
	req := &speakRequest{ws: conn}
	defer req.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := req.send(speakMsg{Type: "Speak", Text: text}); err != nil {
		return texttospeech.Synthesis{}, err
	}
	if err := req.send(flushMsg); err != nil {
		return texttospeech.Synthesis{}, err
	}

	audioData, err := req.collect(options.SpeechAudioCallback)
	if ctx.Err() != nil {
		return texttospeech.Synthesis{}, ctx.Err()
	} else if err != nil {
		return texttospeech.Synthesis{}, err
	}

	return texttospeech.Synthesis{
		Audio:        audioData,
		MIMEType:     options.EncodingInfo.MIMEType(),
		EncodingInfo: options.EncodingInfo,
	}, nil
}

func (c *TextToSpeechClient) connectWebsocket(ctx context.Context, voice deepgramVoice, encodingInfo audio.EncodingInfo) (*websocket.Conn, error) {
	speakUrl, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid deepgram url: %w", err)
	}

	urlValues := speakUrl.Query()
	urlValues.Set("encoding", encodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", string(voice))
	urlValues.Set("container", "none")
	speakUrl.RawQuery = urlValues.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, speakUrl.String(),
		http.Header{"Authorization": {"token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

type speakRequest struct {
	ws     *websocket.Conn
	mu     sync.Mutex
	closed bool
}

type websocketMessage struct {
	Type string `json:"type"`
}

type speakMsg struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	closeMsg = websocketMessage{Type: "Close"}
)

func (r *speakRequest) send(msg any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("websocket connection closed")
	}

	if err := r.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}

// collect reads audio until the flush is confirmed.
func (r *speakRequest) collect(onAudio func([]byte)) ([]byte, error) {
	var audioData []byte
	for {
		msgType, msg, err := r.ws.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("websocket read error: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			if len(msg) == 0 {
				continue
			}
			audioData = append(audioData, msg...)
			if onAudio != nil {
				onAudio(msg)
			}
		case websocket.TextMessage:
			var parsedMsg struct {
				Type    string `json:"type"`
				Message string `json:"err_msg"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Debug("failed to unmarshal deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				return audioData, nil
			case "Error":
				return nil, fmt.Errorf("deepgram error: %s", parsedMsg.Message)
			}
		}
	}
}

func (r *speakRequest) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	writeErr := r.ws.WriteJSON(closeMsg)
	if closeErr := r.ws.Close(); closeErr != nil && writeErr != nil {
		return fmt.Errorf("failed to close websocket: %w", errors.Join(writeErr, closeErr))
	}
	return nil
}
