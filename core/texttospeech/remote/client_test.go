package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/koscakluka/ema-vision/core/texttospeech"
)

func TestSynthesizeSendsWireRequest(t *testing.T) {
	var got Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Response{
			AudioBytes: []byte{1, 2, 3, 4},
			MIMEType:   "audio/L16;codec=pcm;rate=24000",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, WithVoice("Kore"), WithHTTPClient(server.Client()))
	synthesis, err := client.Synthesize(context.Background(), "hola", texttospeech.WithVoice("Aoede"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Text != "hola" || got.VoiceID != "Aoede" {
		t.Fatalf("unexpected request %+v", got)
	}
	if !bytes.Equal(synthesis.Audio, []byte{1, 2, 3, 4}) {
		t.Fatalf("unexpected audio %v", synthesis.Audio)
	}
	if synthesis.EncodingInfo.SampleRate != 24000 {
		t.Fatalf("expected 24000 Hz, got %d", synthesis.EncodingInfo.SampleRate)
	}
}

func TestSynthesizeSurfacesErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ErrorResponse{ErrorMessage: "API key not configured"})
	}))
	defer server.Close()

	_, err := NewClient(server.URL, WithHTTPClient(server.Client())).Synthesize(context.Background(), "hola")
	if err == nil || !strings.Contains(err.Error(), "API key not configured") {
		t.Fatalf("expected the endpoint error message, got %v", err)
	}
}
