package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-vision/core/audio"
	"github.com/koscakluka/ema-vision/core/speechtotext"
	"github.com/koscakluka/ema-vision/internal/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Listen runs a single listening session. It returns after the first final
// transcript, after the silence timeout, or when ctx is cancelled. No
// callback fires once Listen has returned.
func (c *Capture) Listen(ctx context.Context, opts ...speechtotext.ListenOption) (err error) {
	if c.input == nil {
		return fmt.Errorf("%w: no audio input", speechtotext.ErrCaptureUnavailable)
	}
	if c.apiKey == "" {
		return fmt.Errorf("%w: deepgram api key not found", speechtotext.ErrCaptureUnavailable)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := tracer.Start(ctx, "listen")
	defer func() {
		if err != nil && !errors.Is(err, context.Canceled) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	options := speechtotext.NewListenOptions(opts...)

	captureEncoding := c.input.CaptureEncodingInfo()
	encoding, err := newListenEncoding(captureEncoding)
	if err != nil {
		return fmt.Errorf("%w: %w", speechtotext.ErrCaptureUnavailable, err)
	}
	span.SetAttributes(
		attribute.String("deepgram.encoding", encoding.name),
		attribute.Int("deepgram.sample_rate", encoding.sampleRate),
	)

	s := newSession()
	onFinal := options.OnFinal
	options.OnFinal = func(transcript string) {
		if onFinal != nil {
			onFinal(transcript)
		}
		s.finish()
	}

	handlers, wsConfig := newSessionHandlers(options)
	s.handlers = handlers

	conn, err := c.connectWebsocket(ctx, connectionOptions{
		sampleRate:      encoding.sampleRate,
		encoding:        encoding.name,
		websocketConfig: wsConfig,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", speechtotext.ErrCaptureUnavailable, err)
	}
	s.conn = conn

	readDone := make(chan error, 1)
	go func() { readDone <- s.readAndProcessMessages() }()

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.generateSilence(sessionCtx, captureEncoding)

	end := func() {
		_ = c.input.StopCapture()
		s.close()
		<-readDone
	}

	if err := c.input.StartCapture(sessionCtx, s.onAudio); err != nil {
		end()
		return fmt.Errorf("%w: %w", speechtotext.ErrCaptureUnavailable, err)
	}

	silence := time.NewTimer(c.silenceTimeout)
	defer silence.Stop()
	for {
		select {
		case <-ctx.Done():
			end()
			return ctx.Err()

		case <-s.finished:
			end()
			return nil

		case <-s.activity:
			if !silence.Stop() {
				select {
				case <-silence.C:
				default:
				}
			}
			silence.Reset(c.silenceTimeout)

		case <-silence.C:
			logger.Debug("listening session ended on silence")
			s.flush()
			end()
			return nil

		case readErr := <-readDone:
			// Put the result back so end() does not block.
			readDone <- readErr
			select {
			case <-s.finished:
				end()
				return nil
			default:
			}
			end()
			if readErr == nil {
				return nil
			}
			return fmt.Errorf("deepgram connection lost: %w", readErr)
		}
	}
}

// sessionHandlers are the listen callbacks with no-ops in place of the unset
// ones.
type sessionHandlers struct {
	speechStarted func()
	speechEnded   func()
	interim       func(transcript string)
	segment       func(segment string)
	final         func(transcript string)
}

type websocketConfig struct {
	shouldDetectSpeechStart            bool
	shouldEnhanceSpeechEndingDetection bool
	shouldRequestInterimResults        bool
}

func newSessionHandlers(options speechtotext.ListenOptions) (sessionHandlers, websocketConfig) {
	h := sessionHandlers{
		speechStarted: orNoop(options.OnSpeechStarted),
		speechEnded:   orNoop(options.OnSpeechEnded),
		interim:       orNoopText(options.OnInterim),
		segment:       orNoopText(options.OnSegment),
		final:         orNoopText(options.OnFinal),
	}

	return h, websocketConfig{
		shouldDetectSpeechStart:            options.OnSpeechStarted != nil,
		shouldEnhanceSpeechEndingDetection: options.OnFinal != nil || options.OnSpeechEnded != nil,
		shouldRequestInterimResults:        options.OnInterim != nil,
	}
}

func orNoop(callback func()) func() {
	if callback == nil {
		return func() {}
	}
	return callback
}

func orNoopText(callback func(string)) func(string) {
	if callback == nil {
		return func(string) {}
	}
	return callback
}

type connectionOptions struct {
	sampleRate int
	encoding   string

	websocketConfig
}

func (c *Capture) connectWebsocket(ctx context.Context, options connectionOptions) (*websocket.Conn, error) {
	listenUrl, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid deepgram url: %w", err)
	}
	queryParams := listenUrl.Query()
	queryParams.Set("encoding", options.encoding)
	queryParams.Set("sample_rate", strconv.Itoa(options.sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", c.model)
	queryParams.Set("language", c.language)
	queryParams.Set("smart_format", "true")
	if options.shouldEnhanceSpeechEndingDetection {
		queryParams.Set("utterance_end_ms", "1000")
		queryParams.Set("interim_results", "true")
	} else if options.shouldRequestInterimResults {
		queryParams.Set("interim_results", "true")
	}
	queryParams.Set("endpointing", "300")
	if options.shouldDetectSpeechStart || options.shouldEnhanceSpeechEndingDetection {
		queryParams.Set("vad_events", "true")
	}

	listenUrl.RawQuery = queryParams.Encode()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, listenUrl.String(),
		http.Header{"Authorization": {"Token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

type session struct {
	conn   *websocket.Conn
	connMu sync.Mutex

	handlers sessionHandlers

	// lastMsgTs is the unix nano time of the last audio chunk sent
	lastMsgTs atomic.Int64

	transcriptMu          sync.Mutex
	accumulatedTranscript string
	unendedSegment        bool

	closed     atomic.Bool
	activity   chan struct{}
	finished   chan struct{}
	finishOnce sync.Once
}

func newSession() *session {
	s := &session{
		activity: make(chan struct{}, 1),
		finished: make(chan struct{}),
	}
	s.lastMsgTs.Store(time.Now().UnixNano())
	return s
}

func (s *session) finish() {
	s.finishOnce.Do(func() { close(s.finished) })
}

func (s *session) markActivity() {
	select {
	case s.activity <- struct{}{}:
	default:
	}
}

func (s *session) onAudio(audio []byte) {
	if s.closed.Load() {
		return
	}
	if err := s.sendAudio(audio); err != nil {
		logger.Warn("failed to send audio to deepgram", "error", err)
	}
}

func (s *session) sendAudio(audio []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	s.lastMsgTs.Store(time.Now().UnixNano())
	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

func (s *session) sendSilence(audio []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

func (s *session) sendKeepAlive() {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if err := s.conn.WriteJSON(
		struct {
			Type string `json:"type"`
		}{
			Type: "KeepAlive",
		}); err != nil {
		logger.Warn("failed to write keep alive to deepgram client", "error", err)
	}
}

// close asks Deepgram to end the stream and closes the connection, which
// unblocks the reader.
func (s *session) close() {
	if s.closed.Swap(true) {
		return
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if err := s.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		logger.Debug("failed to send close stream to deepgram", "error", err)
	}
	_ = s.conn.Close()
}

func (s *session) readAndProcessMessages() error {
	for {
		msgType, msg, err := s.conn.ReadMessage()
		if err != nil {
			if s.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		if msgType != websocket.BinaryMessage {
			s.processMessage(msg)
		}
	}
}

func (s *session) processMessage(msg []byte) {
	if s.closed.Load() {
		return
	}

	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return
	}

	s.transcriptMu.Lock()
	defer s.transcriptMu.Unlock()

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal deepgram results", "error", err)
			return
		}
		transcript := ""
		if len(msgResp.Channel.Alternatives) > 0 {
			transcript = strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		}
		if len(transcript) > 0 {
			s.markActivity()
		}

		if msgResp.IsFinal {
			if len(transcript) > 0 {
				s.accumulatedTranscript = strings.TrimSpace(s.accumulatedTranscript + " " + transcript)
				s.handlers.segment(transcript)
			}
			if msgResp.SpeechFinal {
				s.onSpeechEnded()
			}
		} else if len(transcript) > 0 {
			s.handlers.interim(strings.TrimSpace(s.accumulatedTranscript + " " + transcript))
		}

	case api.TypeUtteranceEndResponse:
		var msgResp api.UtteranceEndResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal deepgram utterance end", "error", err)
			return
		}

		if s.unendedSegment || s.accumulatedTranscript != "" {
			s.onSpeechEnded()
		}

	case api.TypeSpeechStartedResponse:
		var msgResp api.SpeechStartedResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal deepgram speech started", "error", err)
			return
		}

		s.markActivity()
		s.unendedSegment = true
		s.handlers.speechStarted()
	}
}

// flush reports whatever was finalized so far as the final transcript.
func (s *session) flush() {
	s.transcriptMu.Lock()
	defer s.transcriptMu.Unlock()
	if s.closed.Load() || s.accumulatedTranscript == "" {
		return
	}
	s.onSpeechEnded()
}

// onSpeechEnded must be called with transcriptMu held.
func (s *session) onSpeechEnded() {
	s.unendedSegment = false
	fullTranscript := strings.TrimSpace(s.accumulatedTranscript)
	s.accumulatedTranscript = ""
	if len(fullTranscript) > 0 {
		s.handlers.final(fullTranscript)
	}
	s.handlers.speechEnded()
}

func (s *session) generateSilence(ctx context.Context, encoding audio.EncodingInfo) {
	type silenceGeneratorState string
	const (
		silenceGeneratorStateWaiting   silenceGeneratorState = "waiting"
		silenceGeneratorStateSilence   silenceGeneratorState = "silence"
		silenceGeneratorStateKeepAlive silenceGeneratorState = "keepAlive"
	)

	const durationMs = 50
	const milisecondsPerSecond = 1000
	ticker := time.NewTicker(durationMs * time.Millisecond)
	defer ticker.Stop()

	chunk := make([]byte, encoding.SampleRate*encoding.Format.ByteSize()*durationMs/milisecondsPerSecond)
	for i := range chunk {
		chunk[i] = encoding.SilenceValue()
	}

	sinceLastMsg := func() time.Duration {
		return time.Since(time.Unix(0, s.lastMsgTs.Load()))
	}

	var state = silenceGeneratorStateWaiting
	var firstSilenceTime *time.Time
	var lastKeepAliveTime *time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.closed.Load() {
				return
			}

			switch state {
			case silenceGeneratorStateWaiting:
				if sinceLastMsg().Milliseconds() > 50 {
					state = silenceGeneratorStateSilence
					firstSilenceTime = utils.Ptr(time.Now())
					continue
				}

			case silenceGeneratorStateSilence:
				if sinceLastMsg().Milliseconds() < 50 {
					state = silenceGeneratorStateWaiting
					firstSilenceTime = nil
					continue
				}
				if time.Since(*firstSilenceTime).Milliseconds() >= 1000 {
					state = silenceGeneratorStateKeepAlive
					lastKeepAliveTime = utils.Ptr(time.Now())
					firstSilenceTime = nil
					continue
				}

				if err := s.sendSilence(chunk); err != nil {
					logger.Debug("sending silence audio failed", "error", err)
				}

			case silenceGeneratorStateKeepAlive:
				if sinceLastMsg().Milliseconds() < 50 {
					state = silenceGeneratorStateWaiting
					continue
				}

				if time.Since(*lastKeepAliveTime).Seconds() >= 5 {
					lastKeepAliveTime = utils.Ptr(time.Now())
					s.sendKeepAlive()
				}
			}
		}
	}
}
