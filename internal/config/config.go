package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"menulens/internal/logger"
)

// Provider identifies an external service the pipeline depends on.
type Provider string

const (
	ProviderOpenAI       Provider = "openai"
	ProviderGoogleVision Provider = "google_vision"
	ProviderDocumentAI   Provider = "document_ai"
	ProviderGoogleSearch Provider = "google_search"
)

type Config struct {
	// OpenAI Configuration (vision extraction + descriptions)
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIVisionModel string

	// Google Cloud Configuration
	GoogleCloudProject         string
	GoogleCloudLocation        string
	GoogleServiceAccountKey    string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string

	// Google Custom Search Configuration (image search)
	GoogleSearchAPIKey   string
	GoogleSearchEngineID string

	// Pipeline Configuration
	MaxConcurrentEnrichment int
	ProcessingTimeout       time.Duration
	RequestTimeout          time.Duration

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OpenAIAPIKey:               getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:                getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIVisionModel:          getEnv("OPENAI_VISION_MODEL", "gpt-4o"),
		GoogleCloudProject:         getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:        getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		GoogleServiceAccountKey:    getEnv("GOOGLE_SERVICE_ACCOUNT_KEY", ""),
		DocumentAIProcessorID:      getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion: getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		GoogleSearchAPIKey:         getEnv("GOOGLE_SEARCH_API_KEY", ""),
		GoogleSearchEngineID:       getEnv("GOOGLE_SEARCH_ENGINE_ID", ""),
		MaxConcurrentEnrichment:    getEnvInt("MAX_CONCURRENT_ENRICHMENT", 3),
		ProcessingTimeout:          getEnvDuration("PROCESSING_TIMEOUT", 5*time.Minute),
		RequestTimeout:             getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:              getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                  getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	// At least one extraction path must be configured: OpenAI vision, or a
	// Google OCR backend for the OCR+parse path.
	if c.OpenAIAPIKey == "" && !c.hasGoogleCredentials() {
		return fmt.Errorf("no extraction provider configured: set OPENAI_API_KEY or Google Cloud credentials")
	}
	if c.MaxConcurrentEnrichment < 1 {
		return fmt.Errorf("MAX_CONCURRENT_ENRICHMENT must be at least 1")
	}
	if c.ProcessingTimeout <= 0 {
		return fmt.Errorf("PROCESSING_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) hasGoogleCredentials() bool {
	return c.GoogleServiceAccountKey != "" ||
		os.Getenv("GOOGLE_CREDENTIALS") != "" ||
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != ""
}

// IsConfigured reports whether the given provider has the credentials it
// needs. The orchestrator consults this instead of reading the environment.
func (c *Config) IsConfigured(provider Provider) bool {
	switch provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey != ""
	case ProviderGoogleVision:
		return c.hasGoogleCredentials()
	case ProviderDocumentAI:
		return c.hasGoogleCredentials() && c.GoogleCloudProject != "" && c.DocumentAIProcessorID != ""
	case ProviderGoogleSearch:
		return c.GoogleSearchAPIKey != "" && c.GoogleSearchEngineID != ""
	}
	return false
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
