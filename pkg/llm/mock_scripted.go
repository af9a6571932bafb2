package llm

import (
	"context"
	"errors"
	"sync"
)

// ScriptedMockProvider is a mock provider that returns a pre-defined sequence
// of responses, including tool-call turns. Useful for testing multi-turn
// interactions and for deterministic offline replays.
type ScriptedMockProvider struct {
	mu        sync.Mutex
	Responses []ChatResponse
	Err       error
	// CallCount tracks how many times Chat has been called
	CallCount int
}

// NewScriptedMockProvider creates a provider that answers with plain text
// responses in order.
func NewScriptedMockProvider(responses ...string) *ScriptedMockProvider {
	p := &ScriptedMockProvider{}
	for _, content := range responses {
		p.Responses = append(p.Responses, ChatResponse{Content: content})
	}
	return p
}

// Chat pops the next scripted response or returns the configured error.
func (s *ScriptedMockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CallCount++

	if s.Err != nil {
		return nil, s.Err
	}

	if len(s.Responses) == 0 {
		return nil, errors.New("scripted mock: no more responses available")
	}

	resp := s.Responses[0]
	s.Responses = s.Responses[1:]

	if resp.Usage == (Usage{}) {
		resp.Usage = Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20}
	}
	return &resp, nil
}

// AddResponse appends a plain text response to the queue.
func (s *ScriptedMockProvider) AddResponse(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Responses = append(s.Responses, ChatResponse{Content: content})
}

// AddToolCalls appends a tool-call turn to the queue.
func (s *ScriptedMockProvider) AddToolCalls(calls ...ToolCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Responses = append(s.Responses, ChatResponse{ToolCalls: calls})
}
