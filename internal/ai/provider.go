package ai

import (
	"context"
	"fmt"

	"courier/internal/config"
)

// ChatMessage is one turn of conversation sent to a provider
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// GenerateRequest is a provider-agnostic completion request
type GenerateRequest struct {
	Model     string        `json:"model,omitempty"`
	System    string        `json:"system,omitempty"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

// Usage reports token consumption for a single request
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// GenerateResponse is a provider-agnostic completion response
type GenerateResponse struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
	Usage   Usage  `json:"usage"`
}

// Provider generates completions for chat conversations
type Provider interface {
	Name() string
	GenerateResponse(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

// defaultMaxTokens bounds completions when the config doesn't say otherwise.
const defaultMaxTokens = 4096

// NewProvider creates a provider from its configuration
func NewProvider(cfg config.ProviderConfig) (Provider, error) {
	switch cfg.Type {
	case "anthropic":
		return NewAnthropicProvider(cfg)
	case "openai":
		return NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}

// NewProviders builds all configured providers keyed by name and returns the
// default provider's name. Providers that fail to construct are skipped.
func NewProviders(cfg config.AIConfig) (map[string]Provider, string, error) {
	providers := make(map[string]Provider)
	for _, pc := range cfg.Providers {
		p, err := NewProvider(pc)
		if err != nil {
			return nil, "", fmt.Errorf("provider %s: %w", pc.Name, err)
		}
		providers[pc.Name] = p
	}
	if len(providers) == 0 {
		return nil, "", fmt.Errorf("no AI providers configured")
	}
	def := cfg.DefaultProvider
	if _, ok := providers[def]; !ok {
		return nil, "", fmt.Errorf("default provider %q is not configured", def)
	}
	return providers, def, nil
}
