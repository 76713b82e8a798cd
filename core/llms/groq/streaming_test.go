package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/koscakluka/ema-vision/core/llms"
)

func TestGenerateConcatenatesStreamedChunks(t *testing.T) {
	var got requestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer key" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, content := range []string{"¡Ho", "la! ", "Veo una taza."} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", content)
		}
		fmt.Fprint(w, "data: {\"choices\":[],\"x_groq\":{\"usage\":{\"prompt_tokens\":12,\"completion_tokens\":5}}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(WithAPIKey("key"), WithURL(server.URL), WithHTTPClient(server.Client()))

	var streamed []string
	reply, err := client.Generate(context.Background(), "hola",
		llms.WithStream(func(chunk string) { streamed = append(streamed, chunk) }),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reply != "¡Hola! Veo una taza." {
		t.Fatalf("unexpected reply %q", reply)
	}
	if len(streamed) != 3 {
		t.Fatalf("expected 3 streamed chunks, got %d", len(streamed))
	}
	if !got.Stream || got.Model != DefaultModel {
		t.Fatalf("unexpected request %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != messageRoleSystem || got.Messages[1].Content != "hola" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
}

func TestGenerateFailsOnNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(WithAPIKey("key"), WithURL(server.URL), WithHTTPClient(server.Client()))
	_, err := client.Generate(context.Background(), "hola")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected a non-OK status error, got %v", err)
	}
}

func TestGenerateWithoutAPIKeyFails(t *testing.T) {
	if _, err := NewClient(WithAPIKey("")).Generate(context.Background(), "hola"); err == nil {
		t.Fatalf("expected an error without an api key")
	}
}

type testAnswer struct {
	Answer string `json:"answer"`
}

func TestPromptJSONSchemaDecodesStructuredContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got struct {
			ResponseFormat struct {
				Type       string `json:"type"`
				JSONSchema struct {
					Name string `json:"name"`
				} `json:"json_schema"`
			} `json:"response_format"`
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if got.ResponseFormat.Type != "json_schema" || got.ResponseFormat.JSONSchema.Name != "testAnswer" {
			t.Errorf("expected a json schema response format, got %+v", got.ResponseFormat)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"{\"answer\":\"una taza\"}"}}]}`)
	}))
	defer server.Close()

	client := NewClient(WithAPIKey("key"), WithURL(server.URL), WithHTTPClient(server.Client()))
	answer, err := PromptJSONSchema[testAnswer](context.Background(), client, "describe",
		[]ContentPart{TextPart("¿qué es esto?"), ImagePart("data:image/png;base64,AAAA")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Answer != "una taza" {
		t.Fatalf("unexpected answer %q", answer.Answer)
	}
}
