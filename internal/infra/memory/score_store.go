package memory

import (
	"context"
	"sync"
)

// ScoreStore keeps scores in a map. State is lost on restart; use it for tests and demos.
type ScoreStore struct {
	mu     sync.RWMutex
	values map[string]int
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{values: make(map[string]int)}
}

func (s *ScoreStore) GetInt(_ context.Context, key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

func (s *ScoreStore) SetInt(_ context.Context, key string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
