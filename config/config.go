package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSystemPrompt seeds every new conversation unless overridden.
const DefaultSystemPrompt = "You are a helpful FHIR assistant with access to Aidbox tools. " +
	"You can search, read, create, update, and delete FHIR resources. " +
	"Use the available tools to help users with FHIR-related tasks."

type Config struct {
	Provider     string  // azure, openai, anthropic, ollama
	APIKey       string  // FHIR_CHAT_OPENAI_API_KEY
	APIEndpoint  string  // FHIR_CHAT_OPENAI_ENDPOINT
	APIVersion   string  // Azure API version
	Model        string  // model id / Azure deployment name
	Temperature  float64
	SystemPrompt string

	MCPServerURL string
	MCPTransport string // sse, http, stdio
	MCPTimeout   time.Duration

	WebAddr  string
	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load() // ignore error if no .env

	return &Config{
		Provider:     envOr("FHIR_CHAT_PROVIDER", "azure"),
		APIKey:       os.Getenv("FHIR_CHAT_OPENAI_API_KEY"),
		APIEndpoint:  os.Getenv("FHIR_CHAT_OPENAI_ENDPOINT"),
		APIVersion:   envOr("FHIR_CHAT_API_VERSION", "2024-02-01"),
		Model:        envOr("FHIR_CHAT_MODEL", "gpt-5-mini"),
		Temperature:  envFloat("FHIR_CHAT_TEMPERATURE", 1.0),
		SystemPrompt: envOr("FHIR_CHAT_SYSTEM_PROMPT", DefaultSystemPrompt),
		MCPServerURL: envOr("MCP_SERVER_URL", "http://localhost:8080/sse"),
		MCPTransport: envOr("MCP_TRANSPORT", "sse"),
		MCPTimeout:   time.Duration(envInt("MCP_TIMEOUT_SECONDS", 30)) * time.Second,
		WebAddr:      envOr("FHIR_CHAT_WEB_ADDR", ":8000"),
		LogLevel:     envOr("LOG_LEVEL", "info"),
	}
}

// Validate checks the values that must be present before any session starts.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("FHIR_CHAT_OPENAI_API_KEY environment variable not set")
	}
	if c.Provider == "azure" && c.APIEndpoint == "" {
		return fmt.Errorf("FHIR_CHAT_OPENAI_ENDPOINT environment variable not set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
