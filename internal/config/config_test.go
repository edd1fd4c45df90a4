package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_VISION_MODEL",
		"GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_LOCATION", "GOOGLE_SERVICE_ACCOUNT_KEY",
		"GOOGLE_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS",
		"DOCUMENT_AI_PROCESSOR_ID", "DOCUMENT_AI_PROCESSOR_VERSION",
		"GOOGLE_SEARCH_API_KEY", "GOOGLE_SEARCH_ENGINE_ID",
		"MAX_CONCURRENT_ENRICHMENT", "PROCESSING_TIMEOUT", "REQUEST_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAIModel)
	assert.Equal(t, "gpt-4o", cfg.OpenAIVisionModel)
	assert.Equal(t, "us", cfg.GoogleCloudLocation)
	assert.Equal(t, 3, cfg.MaxConcurrentEnrichment)
	assert.Equal(t, 5*time.Minute, cfg.ProcessingTimeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestLoadRequiresAnExtractionProvider(t *testing.T) {
	clearProviderEnv(t)

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no extraction provider configured")
}

func TestLoadAcceptsGoogleCredentialsOnly(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GOOGLE_CREDENTIALS", `{"type": "service_account"}`)

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.IsConfigured(ProviderGoogleVision))
	assert.False(t, cfg.IsConfigured(ProviderOpenAI))
}

func TestLoadOverrides(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("MAX_CONCURRENT_ENRICHMENT", "5")
	t.Setenv("PROCESSING_TIMEOUT", "2m")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxConcurrentEnrichment)
	assert.Equal(t, 2*time.Minute, cfg.ProcessingTimeout)
}

func TestLoadRejectsInvalidLimits(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("MAX_CONCURRENT_ENRICHMENT", "0")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_CONCURRENT_ENRICHMENT")
}

func TestIsConfigured(t *testing.T) {
	clearProviderEnv(t)

	cfg := &Config{
		OpenAIAPIKey:          "key",
		GoogleCloudProject:    "project",
		DocumentAIProcessorID: "proc",
	}
	assert.True(t, cfg.IsConfigured(ProviderOpenAI))
	assert.False(t, cfg.IsConfigured(ProviderGoogleVision), "Document AI needs Google credentials too")
	assert.False(t, cfg.IsConfigured(ProviderDocumentAI))
	assert.False(t, cfg.IsConfigured(ProviderGoogleSearch))

	cfg.GoogleServiceAccountKey = "sa-key"
	assert.True(t, cfg.IsConfigured(ProviderGoogleVision))
	assert.True(t, cfg.IsConfigured(ProviderDocumentAI))

	cfg.GoogleSearchAPIKey = "search-key"
	assert.False(t, cfg.IsConfigured(ProviderGoogleSearch), "search needs an engine ID as well")
	cfg.GoogleSearchEngineID = "engine"
	assert.True(t, cfg.IsConfigured(ProviderGoogleSearch))
}

func TestGetLoggerConfig(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "json", LogOutput: "stderr"}

	logCfg := cfg.GetLoggerConfig()

	assert.Equal(t, "debug", logCfg.Level)
	assert.Equal(t, "json", logCfg.Format)
	assert.Equal(t, "stderr", logCfg.Output)
}
