package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_KnownProviders(t *testing.T) {
	cases := []ProviderConfig{
		{Provider: "azure", APIKey: "k", Endpoint: "https://example.openai.azure.com", APIVersion: "2024-02-01", Model: "gpt-5-mini"},
		{Provider: "openai", APIKey: "k", Model: "gpt-4o"},
		{Provider: "anthropic", APIKey: "k"},
		{Provider: "ollama"},
	}
	for _, cfg := range cases {
		client, err := NewClient(cfg)
		require.NoError(t, err, "provider %q", cfg.Provider)
		assert.NotNil(t, client)
	}
}

func TestNewClient_AzureRequiresEndpoint(t *testing.T) {
	_, err := NewClient(ProviderConfig{Provider: "azure", APIKey: "k"})
	require.Error(t, err)
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient(ProviderConfig{Provider: "mystery"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown LLM provider")
}
