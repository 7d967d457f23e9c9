package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FHIR_CHAT_OPENAI_API_KEY", "key")
	t.Setenv("FHIR_CHAT_OPENAI_ENDPOINT", "https://example.openai.azure.com")

	cfg := Load()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "azure", cfg.Provider)
	assert.Equal(t, "gpt-5-mini", cfg.Model)
	assert.Equal(t, 1.0, cfg.Temperature)
	assert.Equal(t, "http://localhost:8080/sse", cfg.MCPServerURL)
	assert.Equal(t, 30*time.Second, cfg.MCPTimeout)
	assert.Equal(t, DefaultSystemPrompt, cfg.SystemPrompt)
	assert.Equal(t, ":8000", cfg.WebAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FHIR_CHAT_OPENAI_API_KEY", "key")
	t.Setenv("FHIR_CHAT_PROVIDER", "openai")
	t.Setenv("FHIR_CHAT_MODEL", "gpt-4o")
	t.Setenv("FHIR_CHAT_TEMPERATURE", "0.2")
	t.Setenv("MCP_TIMEOUT_SECONDS", "60")
	t.Setenv("MCP_TRANSPORT", "http")

	cfg := Load()
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, 60*time.Second, cfg.MCPTimeout)
	assert.Equal(t, "http", cfg.MCPTransport)
}

func TestValidate_MissingCredential(t *testing.T) {
	cfg := &Config{Provider: "azure", APIEndpoint: "https://x"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FHIR_CHAT_OPENAI_API_KEY")
}

func TestValidate_AzureNeedsEndpoint(t *testing.T) {
	cfg := &Config{Provider: "azure", APIKey: "k"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FHIR_CHAT_OPENAI_ENDPOINT")

	// Non-Azure providers bring their own endpoints.
	cfg.Provider = "openai"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadNumbersFallBack(t *testing.T) {
	t.Setenv("FHIR_CHAT_TEMPERATURE", "hot")
	t.Setenv("MCP_TIMEOUT_SECONDS", "soon")

	cfg := Load()
	assert.Equal(t, 1.0, cfg.Temperature)
	assert.Equal(t, 30*time.Second, cfg.MCPTimeout)
}
