package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-vision/core/texttospeech"
)

func newFakeSpeak(t *testing.T, chunks ...[]byte) (*httptest.Server, chan string) {
	t.Helper()

	received := make(chan string, 8)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- "model=" + r.URL.Query().Get("model")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var parsed struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}
			if err := json.Unmarshal(msg, &parsed); err != nil {
				return
			}
			received <- parsed.Type
			if parsed.Type != "Flush" {
				continue
			}

			for _, chunk := range chunks {
				if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
					return
				}
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Flushed","sequence_id":0}`)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server, received
}

func TestNewTextToSpeechClientRejectsUnknownVoice(t *testing.T) {
	if _, err := NewTextToSpeechClient("Kore"); err == nil {
		t.Fatalf("expected an error for an unknown voice")
	}
}

func TestSynthesizeCollectsAudioUntilFlushed(t *testing.T) {
	server, received := newFakeSpeak(t, []byte{1, 2}, []byte{3, 4})
	client, err := NewTextToSpeechClient("aura-2-nestor-es",
		WithAPIKey("key"),
		WithBaseURL("ws"+strings.TrimPrefix(server.URL, "http")),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	streamed := 0
	synthesis, err := client.Synthesize(context.Background(), "hola",
		texttospeech.WithSpeechAudioCallback(func(chunk []byte) { streamed += len(chunk) }),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(synthesis.Audio, []byte{1, 2, 3, 4}) {
		t.Fatalf("expected collected audio, got %v", synthesis.Audio)
	}
	if streamed != 4 {
		t.Fatalf("expected 4 streamed bytes, got %d", streamed)
	}
	if synthesis.EncodingInfo != defaultEncodingInfo {
		t.Fatalf("expected default encoding, got %+v", synthesis.EncodingInfo)
	}

	for _, expected := range []string{"model=aura-2-nestor-es", "Speak", "Flush"} {
		if got := <-received; got != expected {
			t.Fatalf("expected %q, got %q", expected, got)
		}
	}
}

func TestSynthesizeWithoutAPIKeyFails(t *testing.T) {
	client, err := NewTextToSpeechClient("", WithAPIKey(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := client.Synthesize(context.Background(), "hola"); err == nil {
		t.Fatalf("expected an error without an api key")
	}
}
