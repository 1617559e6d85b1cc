package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentruntime/core"
)

// MockModel is a scripted model useful for tests and examples. Prompts map to
// canned responses; unknown prompts get "Mock response to: <prompt>".
type MockModel struct {
	mu        sync.Mutex
	responses map[string]string
	queue     []string
	calls     []core.ModelParams
}

// NewMockModel constructs an empty MockModel.
func NewMockModel() *MockModel {
	return &MockModel{responses: make(map[string]string)}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Enqueue adds responses returned in order regardless of prompt. Queued
// responses take precedence over prompt matches.
func (m *MockModel) Enqueue(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, responses...)
}

// Calls returns the params of every call so far.
func (m *MockModel) Calls() []core.ModelParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.ModelParams(nil), m.calls...)
}

func (m *MockModel) respond(params core.ModelParams) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, params)

	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next
	}

	if r, ok := m.responses[params.Prompt]; ok {
		return r
	}

	return fmt.Sprintf("Mock response to: %s", params.Prompt)
}

// Handler returns a core.ModelHandler producing a string result.
func (m *MockModel) Handler() core.ModelHandler {
	return func(ctx context.Context, _ core.Runtime, params core.ModelParams) (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return m.respond(params), nil
	}
}

// StreamingHandler returns a core.StreamingModelHandler emitting one chunk per rune.
func (m *MockModel) StreamingHandler() core.StreamingModelHandler {
	return func(ctx context.Context, _ core.Runtime, params core.ModelParams) (<-chan string, <-chan error) {
		out := make(chan string, 16)
		errCh := make(chan error, 1)

		go func() {
			defer close(out)
			defer close(errCh)

			for _, r := range m.respond(params) {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case out <- string(r):
				}
			}
		}()

		return out, errCh
	}
}
