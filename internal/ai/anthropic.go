package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"courier/internal/config"
)

// AnthropicProvider implements Provider on top of the Anthropic Messages API
type AnthropicProvider struct {
	name      string
	model     string
	maxTokens int
	client    *anthropic.Client
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(cfg config.ProviderConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api_key is required for Anthropic provider")
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &AnthropicProvider{
		name:      cfg.Name,
		model:     cfg.Model,
		maxTokens: maxTokens,
		client:    anthropic.NewClient(cfg.APIKey),
	}, nil
}

func (a *AnthropicProvider) Name() string {
	return a.name
}

// GenerateResponse sends the conversation to the Messages API. A leading
// system message in req.Messages is folded into the system field, which
// the API requires to be separate.
func (a *AnthropicProvider) GenerateResponse(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	model := a.model
	if req.Model != "" {
		model = req.Model
	}

	system := req.System
	messages := req.Messages
	if len(messages) > 0 && messages[0].Role == "system" {
		if system != "" {
			system += "\n\n"
		}
		system += messages[0].Content
		messages = messages[1:]
	}

	converted := make([]anthropic.Message, 0, len(messages))
	for _, m := range messages {
		if m.Content == "" {
			continue // the API rejects empty content blocks
		}
		switch m.Role {
		case "assistant":
			converted = append(converted, anthropic.NewAssistantTextMessage(m.Content))
		default:
			converted = append(converted, anthropic.NewUserTextMessage(m.Content))
		}
	}
	if len(converted) == 0 {
		return nil, fmt.Errorf("no non-empty messages to send")
	}

	resp, err := a.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(model),
		System:    system,
		Messages:  converted,
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		text.WriteString(block.GetText())
	}

	return &GenerateResponse{
		Content: text.String(),
		Model:   string(resp.Model),
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}
