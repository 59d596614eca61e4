package ai

import (
	"context"
	"sync"
)

// MockProvider is a test provider that records calls and returns
// pre-configured responses in order, repeating the last one.
type MockProvider struct {
	name      string
	responses []MockResponse
	calls     []*GenerateRequest
	mu        sync.Mutex
	respIndex int
}

// MockResponse represents a pre-configured response for the mock provider
type MockResponse struct {
	Content string
	Usage   Usage
	Error   error
}

// NewMockProvider creates a new mock provider for testing
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{name: name}
}

// AddResponse queues a response to return
func (m *MockProvider) AddResponse(r MockResponse) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, r)
	return m
}

// Calls returns the recorded requests
func (m *MockProvider) Calls() []*GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*GenerateRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) GenerateResponse(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)

	if len(m.responses) == 0 {
		return &GenerateResponse{Content: "ok"}, nil
	}

	r := m.responses[m.respIndex]
	if m.respIndex < len(m.responses)-1 {
		m.respIndex++
	}
	if r.Error != nil {
		return nil, r.Error
	}
	return &GenerateResponse{Content: r.Content, Usage: r.Usage}, nil
}
