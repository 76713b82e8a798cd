// Package ttsapi serves the remote speech endpoint consumed by
// core/texttospeech/remote.
package ttsapi

import (
	"errors"
	"net/http"
	"slices"

	"github.com/koscakluka/ema-vision/core/texttospeech"
	"github.com/koscakluka/ema-vision/core/texttospeech/gemini"
	"github.com/koscakluka/ema-vision/core/texttospeech/remote"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const Path = "/api/tts"

type handler struct {
	synthesizer  texttospeech.Synthesizer
	voices       []string
	defaultVoice string
}

type Option func(*handler)

// WithVoices restricts the accepted voices, unknown voices fall back to
// defaultVoice.
func WithVoices(voices []string, defaultVoice string) Option {
	return func(h *handler) {
		h.voices = voices
		h.defaultVoice = defaultVoice
	}
}

// New builds the speech server. A nil synthesizer means the provider is not
// configured and every request fails with 500.
func New(synthesizer texttospeech.Synthesizer, opts ...Option) *echo.Echo {
	h := &handler{
		synthesizer:  synthesizer,
		voices:       gemini.GetAvailableVoices(),
		defaultVoice: gemini.DefaultVoice,
	}
	for _, opt := range opts {
		opt(h)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		AllowMethods: []string{
			http.MethodGet, http.MethodOptions, http.MethodPatch,
			http.MethodDelete, http.MethodPost, http.MethodPut,
		},
		AllowHeaders: []string{
			"X-CSRF-Token", "X-Requested-With", echo.HeaderAccept, "Accept-Version",
			echo.HeaderContentLength, "Content-MD5", echo.HeaderContentType, "Date", "X-Api-Version",
		},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.Any(Path, h.speak)

	return e
}

func (h *handler) speak(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.JSON(http.StatusMethodNotAllowed, remote.ErrorResponse{ErrorMessage: "Method not allowed"})
	}

	var req remote.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, remote.ErrorResponse{ErrorMessage: "Invalid request body"})
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, remote.ErrorResponse{ErrorMessage: "Text is required"})
	}

	if h.synthesizer == nil {
		logger.Error("speech synthesizer is not configured")
		return c.JSON(http.StatusInternalServerError, remote.ErrorResponse{ErrorMessage: "API key not configured"})
	}

	voice := h.defaultVoice
	if slices.Contains(h.voices, req.VoiceID) {
		voice = req.VoiceID
	}

	ctx, span := tracer.Start(c.Request().Context(), "speak")
	defer span.End()
	span.SetAttributes(
		attribute.String("tts.voice", voice),
		attribute.Int("tts.text_length", len(req.Text)),
	)

	synthesis, err := h.synthesizer.Synthesize(ctx, req.Text, texttospeech.WithVoice(voice))
	if errors.Is(err, gemini.ErrNoAudio) || (err == nil && len(synthesis.Audio) == 0) {
		span.SetStatus(codes.Error, "no audio generated")
		return c.JSON(http.StatusInternalServerError, remote.ErrorResponse{ErrorMessage: "No audio generated"})
	} else if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("failed to generate speech", "error", err)
		return c.JSON(http.StatusInternalServerError, remote.ErrorResponse{ErrorMessage: "Failed to generate speech"})
	}

	return c.JSON(http.StatusOK, remote.Response{
		AudioBytes: synthesis.Audio,
		MIMEType:   synthesis.MIMEType,
	})
}
