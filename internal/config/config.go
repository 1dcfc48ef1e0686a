// Package config provides configuration management for the product enricher
// service. It loads configuration from environment variables with sensible
// defaults and validates it so the application starts safely.
//
// Environment Variables:
//
// Application Settings:
//   - APP_HOST: Bind address (default: 0.0.0.0)
//   - APP_PORT: Server port (default: 8000)
//   - LOG_LEVEL: Logging level (default: INFO)
//
// Zhipu AI (primary provider):
//   - ZHIPUAI_API_KEY: API key (required)
//   - ZHIPUAI_BASE_URL: API base URL (default: https://api.z.ai/api/coding/paas/v4)
//   - ZHIPUAI_MODEL: Model name (default: GLM-4.7)
//   - ZHIPUAI_TIMEOUT: Request timeout in seconds, 10-300 (default: 60)
//
// Cloud.ru (regional provider, optional):
//   - CLOUDRU_API_KEY: API key; empty disables the provider
//   - CLOUDRU_BASE_URL: API base URL (default: https://foundation-models.api.cloud.ru/v1)
//   - CLOUDRU_MODEL: Model name (default: ai-sage/GigaChat3-10B-A1.8B)
//   - CLOUDRU_TIMEOUT: Request timeout in seconds, 10-300 (default: 60)
//
// Cache:
//   - CACHE_BACKEND: "local" or "redis" (default: local)
//   - CACHE_TTL_SECONDS: Entry TTL, 60-86400 (default: 3600)
//   - CACHE_MAX_SIZE: Maximum entries, 100-100000 (default: 1000)
//   - REDIS_URL: Redis connection URL (required when CACHE_BACKEND=redis)
//
// Batch Processing:
//   - BATCH_MAX_PRODUCTS: Maximum products per batch request (default: 100)
//
// Rate Limiting:
//   - RATE_LIMIT_ENABLED: Enable HTTP rate limiting (default: false)
//   - RATE_LIMIT_REQUESTS: Requests per window (default: 100)
//   - RATE_LIMIT_WINDOW_SECONDS: Window length in seconds (default: 60)
//
// Field Profiles:
//   - FIELD_PROFILES_PATH: Optional YAML file with named field profiles
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the enrichment service
type Config struct {
	// Application settings
	Host     string
	Port     int
	LogLevel string

	// Zhipu AI provider
	ZhipuAPIKey  string
	ZhipuBaseURL string
	ZhipuModel   string
	ZhipuTimeout time.Duration

	// Cloud.ru provider
	CloudruAPIKey  string
	CloudruBaseURL string
	CloudruModel   string
	CloudruTimeout time.Duration

	// Cache
	CacheBackend string
	CacheTTL     time.Duration
	CacheMaxSize int
	RedisURL     string

	// Batch processing
	BatchMaxProducts int

	// Rate limiting
	RateLimitEnabled bool
	RateLimitRPS     int
	RateLimitWindow  time.Duration

	// Field profiles
	FieldProfilesPath string
}

// Load creates a Config with values from environment variables. Call
// Validate on the result before use.
func Load() *Config {
	return &Config{
		Host:     getEnv("APP_HOST", "0.0.0.0"),
		Port:     getIntEnv("APP_PORT", 8000),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		ZhipuAPIKey:  getEnv("ZHIPUAI_API_KEY", ""),
		ZhipuBaseURL: getEnv("ZHIPUAI_BASE_URL", "https://api.z.ai/api/coding/paas/v4"),
		ZhipuModel:   getEnv("ZHIPUAI_MODEL", "GLM-4.7"),
		ZhipuTimeout: getSecondsEnv("ZHIPUAI_TIMEOUT", 60),

		CloudruAPIKey:  getEnv("CLOUDRU_API_KEY", ""),
		CloudruBaseURL: getEnv("CLOUDRU_BASE_URL", "https://foundation-models.api.cloud.ru/v1"),
		CloudruModel:   getEnv("CLOUDRU_MODEL", "ai-sage/GigaChat3-10B-A1.8B"),
		CloudruTimeout: getSecondsEnv("CLOUDRU_TIMEOUT", 60),

		CacheBackend: getEnv("CACHE_BACKEND", "local"),
		CacheTTL:     getSecondsEnv("CACHE_TTL_SECONDS", 3600),
		CacheMaxSize: getIntEnv("CACHE_MAX_SIZE", 1000),
		RedisURL:     getEnv("REDIS_URL", ""),

		BatchMaxProducts: getIntEnv("BATCH_MAX_PRODUCTS", 100),

		RateLimitEnabled: getBoolEnv("RATE_LIMIT_ENABLED", false),
		RateLimitRPS:     getIntEnv("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:  getSecondsEnv("RATE_LIMIT_WINDOW_SECONDS", 60),

		FieldProfilesPath: getEnv("FIELD_PROFILES_PATH", ""),
	}
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.ZhipuAPIKey == "" {
		return fmt.Errorf("ZHIPUAI_API_KEY is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("APP_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.ZhipuTimeout < 10*time.Second || c.ZhipuTimeout > 300*time.Second {
		return fmt.Errorf("ZHIPUAI_TIMEOUT must be between 10 and 300 seconds")
	}
	if c.CloudruTimeout < 10*time.Second || c.CloudruTimeout > 300*time.Second {
		return fmt.Errorf("CLOUDRU_TIMEOUT must be between 10 and 300 seconds")
	}
	if c.CacheBackend != "local" && c.CacheBackend != "redis" {
		return fmt.Errorf("CACHE_BACKEND must be \"local\" or \"redis\", got %q", c.CacheBackend)
	}
	if c.CacheBackend == "redis" && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND=redis")
	}
	if c.CacheTTL < 60*time.Second || c.CacheTTL > 86400*time.Second {
		return fmt.Errorf("CACHE_TTL_SECONDS must be between 60 and 86400")
	}
	if c.CacheMaxSize < 100 || c.CacheMaxSize > 100000 {
		return fmt.Errorf("CACHE_MAX_SIZE must be between 100 and 100000, got %d", c.CacheMaxSize)
	}
	if c.BatchMaxProducts < 1 {
		return fmt.Errorf("BATCH_MAX_PRODUCTS must be positive, got %d", c.BatchMaxProducts)
	}
	if c.RateLimitEnabled && c.RateLimitRPS < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.RateLimitRPS)
	}
	return nil
}

// Addr returns the host:port bind address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultSeconds int) time.Duration {
	return time.Duration(getIntEnv(key, defaultSeconds)) * time.Second
}
