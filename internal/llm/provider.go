package llm

import "fmt"

type ProviderConfig struct {
	Provider    string // azure, openai, anthropic, ollama
	APIKey      string
	Endpoint    string // Azure resource endpoint, or OpenAI-compatible base URL
	APIVersion  string // Azure only
	Model       string // model id, or Azure deployment name
	Temperature float64
}

func NewClient(cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case "azure":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("azure provider requires an endpoint")
		}
		return NewAzureClient(cfg.APIKey, cfg.Endpoint, cfg.APIVersion, cfg.Model, cfg.Temperature), nil
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.Endpoint, cfg.Temperature), nil
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.Model, cfg.Temperature), nil
	case "ollama":
		if cfg.Model == "" {
			cfg.Model = "llama3.1"
		}
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "http://localhost:11434/v1"
		}
		return NewOpenAIClient("ollama", cfg.Model, endpoint, cfg.Temperature), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
