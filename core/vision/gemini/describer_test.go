package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/koscakluka/ema-vision/core/vision"
)

func TestDescribeSendsFrameAndInstruction(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Una persona sostiene una taza."}]}}]}`)
	}))
	defer server.Close()

	describer, err := NewDescriber(context.Background(), WithAPIKey("key"), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	description, err := describer.Describe(context.Background(), vision.Frame{Data: []byte{1, 2, 3}, MIMEType: "image/jpeg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if description != "Una persona sostiene una taza." {
		t.Fatalf("unexpected description %q", description)
	}
	if !strings.Contains(body, "image/jpeg") || !strings.Contains(body, "Describe lo que ves") {
		t.Fatalf("expected the frame and instruction in the request, got %s", body)
	}
}

func TestDescribeWithoutFrameIsUnavailable(t *testing.T) {
	describer, err := NewDescriber(context.Background(), WithAPIKey("key"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := describer.Describe(context.Background(), vision.Frame{}); !errors.Is(err, vision.ErrContextUnavailable) {
		t.Fatalf("expected ErrContextUnavailable, got %v", err)
	}
}
