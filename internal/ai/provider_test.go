package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courier/internal/config"
)

func TestNewProvider_UnknownType(t *testing.T) {
	_, err := NewProvider(config.ProviderConfig{Name: "x", Type: "carrier-pigeon"})
	assert.ErrorContains(t, err, "unknown provider type")
}

func TestNewProvider_AnthropicRequiresKey(t *testing.T) {
	_, err := NewProvider(config.ProviderConfig{Name: "a", Type: "anthropic", Model: "m"})
	assert.ErrorContains(t, err, "api_key")
}

func TestNewProvider_OpenAIRequiresKey(t *testing.T) {
	_, err := NewProvider(config.ProviderConfig{Name: "o", Type: "openai", Model: "m"})
	assert.ErrorContains(t, err, "api_key")
}

func TestNewProviders(t *testing.T) {
	providers, def, err := NewProviders(config.AIConfig{
		DefaultProvider: "anthropic",
		Providers: []config.ProviderConfig{
			{Name: "anthropic", Type: "anthropic", APIKey: "k", Model: "m"},
			{Name: "openai", Type: "openai", APIKey: "k", Model: "m"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", def)
	assert.Len(t, providers, 2)
}

func TestNewProviders_MissingDefault(t *testing.T) {
	_, _, err := NewProviders(config.AIConfig{
		DefaultProvider: "missing",
		Providers: []config.ProviderConfig{
			{Name: "anthropic", Type: "anthropic", APIKey: "k", Model: "m"},
		},
	})
	assert.ErrorContains(t, err, "default provider")
}

func TestNewProviders_Empty(t *testing.T) {
	_, _, err := NewProviders(config.AIConfig{DefaultProvider: "x"})
	assert.Error(t, err)
}

func TestMockProvider_SequencedResponses(t *testing.T) {
	m := NewMockProvider("mock").
		AddResponse(MockResponse{Content: "first"}).
		AddResponse(MockResponse{Error: errors.New("boom")})

	resp, err := m.GenerateResponse(context.Background(), &GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	_, err = m.GenerateResponse(context.Background(), &GenerateRequest{})
	assert.EqualError(t, err, "boom")

	assert.Len(t, m.Calls(), 2)
}
