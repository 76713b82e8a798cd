package ttsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/koscakluka/ema-vision/core/texttospeech"
	"github.com/koscakluka/ema-vision/core/texttospeech/gemini"
	"github.com/koscakluka/ema-vision/core/texttospeech/remote"
)

type stubSynthesizer struct {
	synthesis texttospeech.Synthesis
	err       error
	voice     string
}

func (s *stubSynthesizer) Synthesize(_ context.Context, _ string, opts ...texttospeech.SynthesisOption) (texttospeech.Synthesis, error) {
	options := texttospeech.SynthesisOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	s.voice = options.Voice
	return s.synthesis, s.err
}

func serve(t *testing.T, synthesizer texttospeech.Synthesizer, method, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, Path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	New(synthesizer).ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var errResp remote.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to decode error response %q: %v", rec.Body.String(), err)
	}
	return errResp.ErrorMessage
}

func TestSpeakRejectsNonPost(t *testing.T) {
	rec := serve(t, &stubSynthesizer{}, http.MethodGet, "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "Method not allowed" {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestSpeakRequiresText(t *testing.T) {
	rec := serve(t, &stubSynthesizer{}, http.MethodPost, `{"voiceId":"Kore"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "Text is required" {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestSpeakWithoutSynthesizerFails(t *testing.T) {
	rec := serve(t, nil, http.MethodPost, `{"text":"hola"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "API key not configured" {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestSpeakReportsMissingAudio(t *testing.T) {
	rec := serve(t, &stubSynthesizer{err: gemini.ErrNoAudio}, http.MethodPost, `{"text":"hola"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "No audio generated" {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestSpeakReportsSynthesisFailure(t *testing.T) {
	rec := serve(t, &stubSynthesizer{err: errors.New("quota")}, http.MethodPost, `{"text":"hola"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "Failed to generate speech" {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestSpeakReturnsAudioAndFallsBackToDefaultVoice(t *testing.T) {
	synthesizer := &stubSynthesizer{synthesis: texttospeech.Synthesis{
		Audio:    []byte{1, 2, 3},
		MIMEType: "audio/L16;codec=pcm;rate=24000",
	}}

	rec := serve(t, synthesizer, http.MethodPost, `{"text":"hola","voiceId":"Kora"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp remote.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !bytes.Equal(resp.AudioBytes, []byte{1, 2, 3}) || resp.MIMEType != "audio/L16;codec=pcm;rate=24000" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if synthesizer.voice != gemini.DefaultVoice {
		t.Fatalf("expected default voice %q, got %q", gemini.DefaultVoice, synthesizer.voice)
	}
}

func TestSpeakKeepsAllowedVoice(t *testing.T) {
	synthesizer := &stubSynthesizer{synthesis: texttospeech.Synthesis{Audio: []byte{1}}}

	rec := serve(t, synthesizer, http.MethodPost, `{"text":"hola","voiceId":"Charon"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if synthesizer.voice != "Charon" {
		t.Fatalf("expected voice Charon, got %q", synthesizer.voice)
	}
}

func TestSpeakAllowsCrossOriginRequests(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(`{"text":"hola"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	New(&stubSynthesizer{synthesis: texttospeech.Synthesis{Audio: []byte{1}}}).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("expected a CORS allow origin header")
	}
}
