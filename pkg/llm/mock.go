package llm

import "context"

// MockProvider is a trivial provider that always returns the same response.
// Useful as a fallback when no real backend is configured.
type MockProvider struct {
	Response string
	Err      error
}

// Chat implements Provider.
func (m *MockProvider) Chat(_ context.Context, _ ChatRequest) (*ChatResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &ChatResponse{
		Content: m.Response,
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: 10,
			TotalTokens:      20,
		},
	}, nil
}
