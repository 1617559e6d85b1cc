package action

import (
	"sync"

	"github.com/hupe1980/agentruntime/core"
)

// ResultStore accumulates action results per message id for the process lifetime.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string][]core.ActionResult
}

// NewResultStore creates an empty ResultStore.
func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string][]core.ActionResult)}
}

// Append records a result for messageID.
func (s *ResultStore) Append(messageID string, result core.ActionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[messageID] = append(s.results[messageID], result)
}

// Get returns a copy of the results recorded for messageID.
func (s *ResultStore) Get(messageID string) []core.ActionResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rs := s.results[messageID]
	if len(rs) == 0 {
		return nil
	}

	return append([]core.ActionResult(nil), rs...)
}
