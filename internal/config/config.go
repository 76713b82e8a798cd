package config

import (
	"log"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini   = "gemini"
	ProviderGroq     = "groq"
	ProviderDeepgram = "deepgram"
	ProviderRemote   = "remote"
	ProviderNone     = "none"

	AudioMiniaudio = "miniaudio"
	AudioPortaudio = "portaudio"
)

// Config holds the settings of both binaries.
type Config struct {
	DeepgramAPIKey string
	GeminiAPIKey   string
	GroqAPIKey     string

	// SpeechLanguage and SilenceTimeout configure speech capture.
	SpeechLanguage string
	SilenceTimeout time.Duration

	VisionProvider string
	VisionModel    string
	FramePath      string
	FrameMaxAge    time.Duration
	ContextTimeout time.Duration

	LLMProvider string
	LLMModel    string

	TTSProvider string
	TTSVoice    string
	TTSEndpoint string

	AudioBackend string

	TTSServerAddress string
}

// Load reads the environment, after loading .env when there is one, and
// fills in defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	cfg := Config{
		DeepgramAPIKey: os.Getenv("DEEPGRAM_API_KEY"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GroqAPIKey:     os.Getenv("GROQ_API_KEY"),

		SpeechLanguage: getString("EMA_SPEECH_LANGUAGE", "es"),
		SilenceTimeout: getDuration("EMA_SILENCE_TIMEOUT", 8*time.Second),

		VisionProvider: getChoice("EMA_VISION_PROVIDER", ProviderGemini, ProviderGemini, ProviderGroq, ProviderNone),
		VisionModel:    os.Getenv("EMA_VISION_MODEL"),
		FramePath:      os.Getenv("EMA_FRAME_PATH"),
		FrameMaxAge:    getDuration("EMA_FRAME_MAX_AGE", 5*time.Second),
		ContextTimeout: getDuration("EMA_CONTEXT_TIMEOUT", 2*time.Second),

		LLMProvider: getChoice("EMA_LLM_PROVIDER", ProviderGroq, ProviderGroq, ProviderGemini),
		LLMModel:    os.Getenv("EMA_LLM_MODEL"),

		TTSProvider: getChoice("EMA_TTS_PROVIDER", ProviderGemini, ProviderGemini, ProviderDeepgram, ProviderRemote),
		TTSVoice:    os.Getenv("EMA_TTS_VOICE"),
		TTSEndpoint: getString("EMA_TTS_ENDPOINT", "http://localhost:8080/api/tts"),

		AudioBackend: getChoice("EMA_AUDIO_BACKEND", AudioMiniaudio, AudioMiniaudio, AudioPortaudio),

		TTSServerAddress: getString("TTS_SERVER_ADDRESS", ":8080"),
	}

	cfg.warn()
	return cfg
}

func (c Config) warn() {
	if c.DeepgramAPIKey == "" {
		log.Println("Warning: DEEPGRAM_API_KEY not set - speech capture will not work")
	}
	if c.usesProvider(ProviderGemini) && c.GeminiAPIKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set - gemini providers will not work")
	}
	if c.usesProvider(ProviderGroq) && c.GroqAPIKey == "" {
		log.Println("Warning: GROQ_API_KEY not set - groq providers will not work")
	}
	if c.VisionProvider != ProviderNone && c.FramePath == "" {
		log.Println("Warning: EMA_FRAME_PATH not set - turns will have no visual context")
	}
	if c.AudioBackend == AudioPortaudio && c.TTSProvider != ProviderDeepgram {
		log.Println("Warning: the portaudio backend plays 16kHz audio, only the deepgram voice can match it")
	}
}

func (c Config) usesProvider(provider string) bool {
	return c.VisionProvider == provider || c.LLMProvider == provider || c.TTSProvider == provider
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}

	duration, err := time.ParseDuration(value)
	if err != nil || duration <= 0 {
		log.Printf("Warning: invalid %s %q - using %s", key, value, fallback)
		return fallback
	}
	return duration
}

func getChoice(key, fallback string, choices ...string) string {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return fallback
	}
	if !slices.Contains(choices, value) {
		log.Printf("Warning: unknown %s %q - using %s", key, value, fallback)
		return fallback
	}
	return value
}
