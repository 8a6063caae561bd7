package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	OCR    OCRConfig
	LLM    LLMConfig
	Cache  CacheConfig
	Limit  LimitConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr           string
	MaxFileSize    int64
	ExtractTimeout time.Duration
	AllowedOrigins []string
	Debug          bool
}

// OCRConfig holds OCR fallback configuration
type OCRConfig struct {
	DPI             int
	Language        string
	Concurrency     int
	MinCharsPerPage int
}

// LLMConfig holds LLM backend configuration
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	ModelSimple    string
	ModelComplex   string
	Temperature    float32
	Timeout        time.Duration
	MaxAttempts    int
	MaxPromptChars int
}

// CacheConfig holds response cache configuration
type CacheConfig struct {
	URL     string
	Enabled bool
	TTL     time.Duration
}

// LimitConfig holds per-client rate limit configuration
type LimitConfig struct {
	RPM   int
	Burst int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           getEnv("HTTP_ADDR", ":8000"),
			MaxFileSize:    getEnvAsInt64("MAX_FILE_SIZE", 10*1024*1024),
			ExtractTimeout: getEnvAsDuration("EXTRACT_TIMEOUT", 180*time.Second),
			AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "*")),
			Debug:          getEnvAsBool("DEBUG", false),
		},
		OCR: OCRConfig{
			DPI:             getEnvAsInt("OCR_DPI", 300),
			Language:        getEnv("OCR_LANGUAGE", "eng"),
			Concurrency:     getEnvAsInt("OCR_CONCURRENCY", 4),
			MinCharsPerPage: getEnvAsInt("OCR_MIN_CHARS_PER_PAGE", 32),
		},
		LLM: LLMConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			BaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			ModelSimple:    getEnv("OPENAI_MODEL_SIMPLE", "gpt-3.5-turbo"),
			ModelComplex:   getEnv("OPENAI_MODEL_COMPLEX", "gpt-4-turbo-preview"),
			Temperature:    getEnvAsFloat32("OPENAI_TEMPERATURE", 0.1),
			Timeout:        getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
			MaxAttempts:    getEnvAsInt("LLM_MAX_ATTEMPTS", 3),
			MaxPromptChars: getEnvAsInt("LLM_MAX_PROMPT_CHARS", 48000),
		},
		Cache: CacheConfig{
			URL:     getEnv("REDIS_URL", "redis://localhost:6379"),
			Enabled: getEnvAsBool("REDIS_ENABLED", true),
			TTL:     time.Duration(getEnvAsInt("REDIS_TTL", 86400)) * time.Second,
		},
		Limit: LimitConfig{
			RPM:   getEnvAsInt("RATE_LIMIT_RPM", 10),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 5),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", nil)
	}
	if c.Server.MaxFileSize <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_FILE_SIZE must be positive", nil)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", nil)
	}
	if c.LLM.MaxAttempts < 1 {
		return NewAppError("CONFIG_ERROR", "LLM_MAX_ATTEMPTS must be at least 1", nil)
	}
	if c.LLM.MaxPromptChars < 1 {
		return NewAppError("CONFIG_ERROR", "LLM_MAX_PROMPT_CHARS must be positive", nil)
	}
	if c.OCR.Concurrency < 1 {
		return NewAppError("CONFIG_ERROR", "OCR_CONCURRENCY must be at least 1", nil)
	}
	if c.Cache.Enabled && c.Cache.URL == "" {
		return NewAppError("CONFIG_ERROR", "REDIS_URL is required when REDIS_ENABLED", nil)
	}
	if c.Limit.RPM < 1 {
		return NewAppError("CONFIG_ERROR", "RATE_LIMIT_RPM must be at least 1", nil)
	}
	return nil
}
