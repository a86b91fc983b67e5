package infra

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ProviderConfig holds the per-provider connection settings.
type ProviderConfig struct {
	APIKey          string
	BaseURL         string
	RateLimitPerMin int
}

// Config represents application configuration loaded from environment
// variables. API keys are not validated here: a missing key surfaces as an
// authorization failure on the first provider call.
type Config struct {
	AppEnv    string
	LogFormat string

	NanoBanana ProviderConfig
	Stability  ProviderConfig
	Midjourney ProviderConfig
	ElevenLabs ProviderConfig

	HTTPTimeout time.Duration
}

// LoadConfig loads configuration from the environment, reading .env files
// when present, and applies defaults where needed.
func LoadConfig() *Config {
	_ = godotenv.Load(".env", ".env.local")

	return &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		LogFormat: getEnv("ASSETGEN_LOG_FORMAT", "console"),
		NanoBanana: ProviderConfig{
			APIKey:          os.Getenv("NANOBANANA_API_KEY"),
			BaseURL:         getEnv("NANOBANANA_BASE_URL", "https://api.nanobanana.com/v1"),
			RateLimitPerMin: getEnvInt("NANOBANANA_RATE_LIMIT_PER_MINUTE", 10),
		},
		Stability: ProviderConfig{
			APIKey:          os.Getenv("STABILITY_API_KEY"),
			BaseURL:         getEnv("STABILITY_BASE_URL", "https://api.stability.ai/v1"),
			RateLimitPerMin: getEnvInt("STABILITY_RATE_LIMIT_PER_MINUTE", 150),
		},
		Midjourney: ProviderConfig{
			APIKey:          os.Getenv("MIDJOURNEY_API_KEY"),
			BaseURL:         getEnv("MIDJOURNEY_BASE_URL", "https://api.midjourney.com/v1"),
			RateLimitPerMin: getEnvInt("MIDJOURNEY_RATE_LIMIT_PER_MINUTE", 5),
		},
		ElevenLabs: ProviderConfig{
			APIKey:          os.Getenv("ELEVENLABS_API_KEY"),
			BaseURL:         getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io/v1"),
			RateLimitPerMin: getEnvInt("ELEVENLABS_RATE_LIMIT_PER_MINUTE", 20),
		},
		HTTPTimeout: time.Second * time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 60)),
	}
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
