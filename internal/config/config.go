package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned by Validate when no provider API key is configured.
var ErrMissingAPIKey = errors.New("config: AI_INTEGRATIONS_OPENAI_API_KEY or OPENAI_API_KEY is required")

// API key and base URL variables, in precedence order.
var (
	apiKeyEnvVars  = []string{"AI_INTEGRATIONS_OPENAI_API_KEY", "OPENAI_API_KEY"}
	baseURLEnvVars = []string{"AI_INTEGRATIONS_OPENAI_BASE_URL", "OPENAI_BASE_URL"}
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Upstream provider
	OpenAIAPIKey  string
	OpenAIBaseURL string
	LLMModel      string
	Temperature   float32
	MaxTokens     int
	LLMTimeout    time.Duration

	// Extraction
	PromptFile      string
	SystemPrompt    string
	MaxContentChars int

	// HTTP surface
	CORSAllowedOrigins []string
	StaticDir          string

	// Optional completion cache
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	CacheTTL      time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "5000"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		OpenAIAPIKey:  firstEnv(apiKeyEnvVars...),
		OpenAIBaseURL: firstEnv(baseURLEnvVars...),
		LLMModel:      getEnv("LLM_MODEL", "gpt-4o-mini"),
		Temperature:   getEnvAsFloat32("LLM_TEMPERATURE", 0.3),
		MaxTokens:     getEnvAsInt("LLM_MAX_TOKENS", 500),
		LLMTimeout:    getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),

		PromptFile:      getEnv("EXTRACTION_PROMPT_FILE", ""),
		SystemPrompt:    getEnv("EXTRACTION_SYSTEM_PROMPT", ""),
		MaxContentChars: getEnvAsInt("MAX_CONTENT_CHARS", 2000),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		StaticDir:          getEnv("STATIC_DIR", "."),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		CacheTTL:      getEnvAsDuration("CACHE_TTL", 24*time.Hour),
	}
}

// Validate reports configuration that must stop the API server from starting.
func (c *Config) Validate() error {
	if c == nil || strings.TrimSpace(c.OpenAIAPIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// CacheEnabled reports whether a Redis address was configured.
func (c *Config) CacheEnabled() bool {
	return c != nil && strings.TrimSpace(c.RedisAddr) != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// firstEnv returns the first non-blank value among keys.
func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
