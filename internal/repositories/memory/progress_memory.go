package memory

import (
	"context"
	"sync"

	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
)

// ProgressMemory keeps progress records in process memory.
type ProgressMemory struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewProgressMemory() *ProgressMemory {
	return &ProgressMemory{records: make(map[string][]byte)}
}

func (m *ProgressMemory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.records[key]
	if !ok {
		return nil, repositories.ErrProgressNotFound
	}
	return append([]byte(nil), payload...), nil
}

func (m *ProgressMemory) Save(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = append([]byte(nil), payload...)
	return nil
}

func (m *ProgressMemory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

var _ repositories.ProgressRepository = (*ProgressMemory)(nil)
