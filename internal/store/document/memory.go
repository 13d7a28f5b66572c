package document

import (
	"context"
	"sync"

	"vitta/backend/internal/store"
)

type MemoryBackend struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string][]byte)}
}

func (m *MemoryBackend) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.docs[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryBackend) Mutate(ctx context.Context, key string, fn func(current []byte, found bool) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, found := m.docs[key]
	next, err := fn(append([]byte(nil), current...), found)
	if err != nil {
		return err
	}
	if next != nil {
		m.docs[key] = append([]byte(nil), next...)
	}
	return nil
}
