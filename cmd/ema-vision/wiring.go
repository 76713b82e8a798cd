package main

import (
	"context"
	"fmt"
	"log"
	"time"

	orchestration "github.com/koscakluka/ema-vision/core"
	"github.com/koscakluka/ema-vision/core/audio/miniaudio"
	"github.com/koscakluka/ema-vision/core/audio/portaudio"
	llmgemini "github.com/koscakluka/ema-vision/core/llms/gemini"
	"github.com/koscakluka/ema-vision/core/llms/groq"
	"github.com/koscakluka/ema-vision/core/speechtotext/deepgram"
	"github.com/koscakluka/ema-vision/core/texttospeech"
	ttsdeepgram "github.com/koscakluka/ema-vision/core/texttospeech/deepgram"
	ttsgemini "github.com/koscakluka/ema-vision/core/texttospeech/gemini"
	"github.com/koscakluka/ema-vision/core/texttospeech/remote"
	"github.com/koscakluka/ema-vision/core/vision"
	visiongemini "github.com/koscakluka/ema-vision/core/vision/gemini"
	visiongroq "github.com/koscakluka/ema-vision/core/vision/groq"
	"github.com/koscakluka/ema-vision/internal/config"
)

const (
	portaudioBufferSize = 512
	framePollInterval   = 200 * time.Millisecond
)

// audioDevice is a microphone and a speaker in one backend.
type audioDevice interface {
	deepgram.AudioInput
	texttospeech.AudioOutput
	Close()
}

func newAudioDevice(cfg config.Config) (audioDevice, error) {
	switch cfg.AudioBackend {
	case config.AudioPortaudio:
		client, err := portaudio.NewClient(portaudioBufferSize)
		if err != nil {
			return nil, fmt.Errorf("failed to open portaudio: %w", err)
		}
		return client, nil
	default:
		client, err := miniaudio.NewClient()
		if err != nil {
			return nil, fmt.Errorf("failed to open miniaudio: %w", err)
		}
		return client, nil
	}
}

func newSpeechCapture(cfg config.Config, device audioDevice) *deepgram.Capture {
	return deepgram.NewCapture(device,
		deepgram.WithAPIKey(cfg.DeepgramAPIKey),
		deepgram.WithLanguage(cfg.SpeechLanguage),
		deepgram.WithSilenceTimeout(cfg.SilenceTimeout),
	)
}

// newVisionContext returns nil when turns should go without visual context.
// The frame file is polled in the background until ctx is done.
func newVisionContext(ctx context.Context, cfg config.Config) (orchestration.VisionContext, vision.FrameSource) {
	if cfg.VisionProvider == config.ProviderNone || cfg.FramePath == "" {
		return nil, nil
	}

	var describer orchestration.VisionContext
	switch cfg.VisionProvider {
	case config.ProviderGroq:
		opts := []groq.Option{groq.WithAPIKey(cfg.GroqAPIKey), groq.WithModel(visiongroq.DefaultModel)}
		if cfg.VisionModel != "" {
			opts = append(opts, groq.WithModel(cfg.VisionModel))
		}
		describer = visiongroq.NewDescriber(groq.NewClient(opts...))

	default:
		opts := []visiongemini.Option{visiongemini.WithAPIKey(cfg.GeminiAPIKey)}
		if cfg.VisionModel != "" {
			opts = append(opts, visiongemini.WithModel(cfg.VisionModel))
		}
		client, err := visiongemini.NewDescriber(ctx, opts...)
		if err != nil {
			log.Printf("Warning: visual context disabled: %v", err)
			return nil, nil
		}
		describer = client
	}

	frames := vision.NewLatestFrame(cfg.FrameMaxAge)
	go frames.Follow(ctx, vision.NewFileFrameSource(cfg.FramePath, 0), framePollInterval)
	return describer, frames
}

func newResponseGenerator(ctx context.Context, cfg config.Config) (orchestration.ResponseGenerator, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		opts := []llmgemini.Option{llmgemini.WithAPIKey(cfg.GeminiAPIKey)}
		if cfg.LLMModel != "" {
			opts = append(opts, llmgemini.WithModel(cfg.LLMModel))
		}
		client, err := llmgemini.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return client, nil

	default:
		opts := []groq.Option{groq.WithAPIKey(cfg.GroqAPIKey)}
		if cfg.LLMModel != "" {
			opts = append(opts, groq.WithModel(cfg.LLMModel))
		}
		return groq.NewClient(opts...), nil
	}
}

func newSynthesizer(ctx context.Context, cfg config.Config) (texttospeech.Synthesizer, error) {
	switch cfg.TTSProvider {
	case config.ProviderDeepgram:
		client, err := ttsdeepgram.NewTextToSpeechClient(cfg.TTSVoice, ttsdeepgram.WithAPIKey(cfg.DeepgramAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create deepgram voice: %w", err)
		}
		return client, nil

	case config.ProviderRemote:
		var opts []remote.Option
		if cfg.TTSVoice != "" {
			opts = append(opts, remote.WithVoice(cfg.TTSVoice))
		}
		return remote.NewClient(cfg.TTSEndpoint, opts...), nil

	default:
		opts := []ttsgemini.Option{ttsgemini.WithAPIKey(cfg.GeminiAPIKey)}
		if cfg.TTSVoice != "" {
			opts = append(opts, ttsgemini.WithVoice(cfg.TTSVoice))
		}
		client, err := ttsgemini.NewTextToSpeechClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini voice: %w", err)
		}
		return client, nil
	}
}

// newOrchestrator wires every configured capability. Missing providers are
// left out so the affected step fails with its own error kind.
func newOrchestrator(ctx context.Context, cfg config.Config, device audioDevice, opts ...orchestration.OrchestratorOption) *orchestration.Orchestrator {
	opts = append(opts,
		orchestration.WithSpeechCapture(newSpeechCapture(cfg, device)),
		orchestration.WithContextTimeout(cfg.ContextTimeout),
	)

	if describer, frames := newVisionContext(ctx, cfg); describer != nil {
		opts = append(opts,
			orchestration.WithVisionContext(describer),
			orchestration.WithFrameSource(frames),
		)
	}

	if generator, err := newResponseGenerator(ctx, cfg); err != nil {
		log.Printf("Warning: replies disabled: %v", err)
	} else {
		opts = append(opts, orchestration.WithResponseGenerator(generator))
	}

	synthesizer, err := newSynthesizer(ctx, cfg)
	if err != nil {
		log.Printf("Warning: speech output disabled: %v", err)
	}
	var speakerOpts []texttospeech.SpeakerOption
	if cfg.TTSVoice != "" {
		speakerOpts = append(speakerOpts, texttospeech.WithSpeakerVoice(cfg.TTSVoice))
	}
	opts = append(opts, orchestration.WithSpeechOutput(texttospeech.NewSpeaker(synthesizer, device, speakerOpts...)))

	return orchestration.NewOrchestrator(opts...)
}
