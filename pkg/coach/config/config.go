package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr string

	// Postgres DSN for the session store.
	DatabaseURL string

	// Directory backing the blob store; locators are served under /uploads/.
	UploadDir string

	// Gemini API key for reasoning and speech-to-text. Empty disables both;
	// coach turns then degrade to the static fallback result.
	GeminiAPIKey   string
	ReasoningModel string
	UtilityModel   string

	// ElevenLabs speech synthesis. Empty API key disables hint audio.
	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	ElevenLabsModel   string
	ElevenLabsBaseURL string

	// Problem metadata endpoints (tier 1 structured, tier 2 unstructured).
	GraphQLEndpoint     string
	UnstructuredBaseURL string

	// Per-tier and per-capability call timeouts.
	GraphQLTimeout      time.Duration
	UnstructuredTimeout time.Duration
	ReasoningTimeout    time.Duration
	STTTimeout          time.Duration
	TTSTimeout          time.Duration

	// Audio clips at or below this size are treated as empty and never transcribed.
	MinAudioBytes int

	MaxBodyBytes int64

	// CORS allowlist; empty => headers are never attached.
	CORSAllowedOrigins map[string]struct{}

	WSWriteTimeout time.Duration

	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("COACH_ADDR", ":8000"),
		DatabaseURL:         envOr("COACH_DATABASE_URL", ""),
		UploadDir:           envOr("COACH_UPLOAD_DIR", "uploads"),
		GeminiAPIKey:        envOr("GEMINI_API_KEY", ""),
		ReasoningModel:      envOr("COACH_REASONING_MODEL", "gemini-2.5-flash"),
		UtilityModel:        envOr("COACH_UTILITY_MODEL", "gemini-2.5-flash-lite"),
		ElevenLabsAPIKey:    envOr("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID:   envOr("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
		ElevenLabsModel:     envOr("COACH_ELEVENLABS_MODEL", "eleven_flash_v2_5"),
		ElevenLabsBaseURL:   envOr("COACH_ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
		GraphQLEndpoint:     envOr("COACH_PROBLEMS_GRAPHQL_URL", "https://leetcode.com/graphql"),
		UnstructuredBaseURL: envOr("COACH_PROBLEMS_ALT_URL", "https://alfa-leetcode-api.onrender.com"),
		GraphQLTimeout:      envDurationOr("COACH_PROBLEMS_GRAPHQL_TIMEOUT", 8*time.Second),
		UnstructuredTimeout: envDurationOr("COACH_PROBLEMS_ALT_TIMEOUT", 5*time.Second),
		ReasoningTimeout:    envDurationOr("COACH_REASONING_TIMEOUT", 60*time.Second),
		STTTimeout:          envDurationOr("COACH_STT_TIMEOUT", 30*time.Second),
		TTSTimeout:          envDurationOr("COACH_TTS_TIMEOUT", 10*time.Second),
		MinAudioBytes:       envIntOr("COACH_MIN_AUDIO_BYTES", 1000),
		MaxBodyBytes:        envInt64Or("COACH_MAX_BODY_BYTES", 16<<20), // 16 MiB
		CORSAllowedOrigins:  make(map[string]struct{}),
		WSWriteTimeout:      envDurationOr("COACH_WS_WRITE_TIMEOUT", 5*time.Second),
		ReadHeaderTimeout:   envDurationOr("COACH_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:         envDurationOr("COACH_READ_TIMEOUT", 2*time.Minute),
		ShutdownGracePeriod: envDurationOr("COACH_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	for _, origin := range splitCSV(os.Getenv("COACH_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return Config{}, fmt.Errorf("COACH_DATABASE_URL must be set")
	}
	if strings.TrimSpace(cfg.UploadDir) == "" {
		return Config{}, fmt.Errorf("COACH_UPLOAD_DIR must not be empty")
	}
	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("COACH_MAX_BODY_BYTES must be > 0")
	}
	if cfg.MinAudioBytes < 0 {
		return Config{}, fmt.Errorf("COACH_MIN_AUDIO_BYTES must be >= 0")
	}
	if cfg.GraphQLTimeout <= 0 {
		return Config{}, fmt.Errorf("COACH_PROBLEMS_GRAPHQL_TIMEOUT must be > 0")
	}
	if cfg.UnstructuredTimeout <= 0 {
		return Config{}, fmt.Errorf("COACH_PROBLEMS_ALT_TIMEOUT must be > 0")
	}
	if cfg.ReasoningTimeout <= 0 {
		return Config{}, fmt.Errorf("COACH_REASONING_TIMEOUT must be > 0")
	}
	if cfg.STTTimeout <= 0 {
		return Config{}, fmt.Errorf("COACH_STT_TIMEOUT must be > 0")
	}
	if cfg.TTSTimeout <= 0 {
		return Config{}, fmt.Errorf("COACH_TTS_TIMEOUT must be > 0")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("COACH_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("COACH_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("COACH_READ_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("COACH_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
