package llm

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/bytedance/sonic"
)

// MockResponse is one canned MockProvider answer.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockPhrase returns a canned answer matching the phrase schema.
func MockPhrase(text string) MockResponse {
	raw, _ := sonic.Marshal(map[string]string{"phrase": text})
	return MockResponse{Content: raw, Usage: Usage{InputTokens: 20, OutputTokens: 8, TotalTokens: 28}}
}

// MockProvider replays canned responses in order and records requests.
// With Repeat set the last response is served forever.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
	Repeat    bool
}

func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate pops the next response; an empty queue is ErrProviderUnavailable.
func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.responses) == 0 {
		return nil, &ErrProviderUnavailable{}
	}

	resp := m.responses[0]
	if !m.Repeat || len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	if resp.Err != nil {
		return nil, resp.Err
	}

	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

func (m *MockProvider) ModelID() string { return "mock" }

// AddResponse queues another answer.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns how many times Generate ran.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
