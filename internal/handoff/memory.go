package handoff

import (
	"context"
	"sync"
)

// MemoryStore keeps hand-offs in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

func (m *MemoryStore) Put(_ context.Context, namespace string, values map[string]string) error {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	m.mu.Lock()
	m.data[namespace] = cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, namespace string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values, ok := m.data[namespace]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return cp, nil
}

func (m *MemoryStore) Delete(_ context.Context, namespace string) error {
	m.mu.Lock()
	delete(m.data, namespace)
	m.mu.Unlock()
	return nil
}
