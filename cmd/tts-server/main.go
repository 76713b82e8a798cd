// Command tts-server exposes the Gemini voice behind the remote speech
// endpoint used by core/texttospeech/remote.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/koscakluka/ema-vision/core/texttospeech"
	"github.com/koscakluka/ema-vision/core/texttospeech/gemini"
	"github.com/koscakluka/ema-vision/internal/config"
	"github.com/koscakluka/ema-vision/internal/ttsapi"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var synthesizer texttospeech.Synthesizer
	if client, err := gemini.NewTextToSpeechClient(ctx, gemini.WithAPIKey(cfg.GeminiAPIKey)); err != nil {
		log.Printf("Warning: speech synthesis disabled: %v", err)
	} else {
		synthesizer = client
	}

	server := &http.Server{
		Addr:              cfg.TTSServerAddress,
		Handler:           otelhttp.NewHandler(ttsapi.New(synthesizer), "tts-server"),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("tts server listening on %s", cfg.TTSServerAddress)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	case <-ctx.Done():
		log.Println("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = server.Close()
	}
}
