package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv  string
	Port    string
	DataDir string

	// GeminiAPIKey seeds the credential store on first start. The live
	// credential is owned by the store afterwards; this is never read again.
	GeminiAPIKey string

	ImageModel  string
	VideoModel  string
	TextModel   string
	SpeechModel string

	PollInterval    time.Duration
	HistoryCapacity int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("STUDIO_PORT", "8787"),
		DataDir:          getEnv("STUDIO_DATA_DIR", "data"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		ImageModel:       getEnv("STUDIO_IMAGE_MODEL", "gemini-2.5-flash-image"),
		VideoModel:       getEnv("STUDIO_VIDEO_MODEL", "veo-3.0-generate-001"),
		TextModel:        getEnv("STUDIO_TEXT_MODEL", "gemini-2.5-flash"),
		SpeechModel:      getEnv("STUDIO_SPEECH_MODEL", "gemini-2.5-flash-preview-tts"),
		PollInterval:     time.Second * time.Duration(getEnvInt("STUDIO_POLL_INTERVAL_SECONDS", 10)),
		HistoryCapacity:  getEnvInt("STUDIO_HISTORY_CAPACITY", 50),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DataDir == "" {
		return nil, fmt.Errorf("STUDIO_DATA_DIR must not be empty")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("STUDIO_POLL_INTERVAL_SECONDS must be positive")
	}
	if cfg.HistoryCapacity <= 0 {
		return nil, fmt.Errorf("STUDIO_HISTORY_CAPACITY must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
