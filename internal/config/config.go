package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Classifier (OpenAI-compatible chat completions endpoint)
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	ClassifierTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Storage
	DataDir string

	// Cache / sessions
	CacheTTL   time.Duration
	SessionTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Session tokens
	JWTSecret  string
	SessionJWT time.Duration

	// Domain registries (injectable, never compiled-in)
	KnownMerchants []string
	BlockedWords   []string
}

// Registros padrão do produto; sobrescritos por env quando presente.
var (
	defaultKnownMerchants = []string{
		"netflix", "amazon", "spotify", "uber", "ifood",
		"google", "apple", "microsoft", "zoom",
	}
	defaultBlockedWords = []string{
		"merda", "porra", "caralho", "idiota", "bosta",
	}
)

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		ClassifierTimeout: getEnvDuration("CLASSIFIER_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 1*time.Second),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 10),

		DataDir: getEnv("DATA_DIR", "data"),

		CacheTTL:   getEnvDuration("CACHE_TTL", 5*time.Minute),
		SessionTTL: getEnvDuration("SESSION_TTL", 30*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		JWTSecret:  getEnv("JWT_SECRET", "zoopia-default-dev-secret-change-me"),
		SessionJWT: getEnvDuration("SESSION_JWT_TTL", 24*time.Hour),

		KnownMerchants: getEnvList("KNOWN_MERCHANTS", defaultKnownMerchants),
		BlockedWords:   getEnvList("BLOCKED_WORDS", defaultBlockedWords),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
