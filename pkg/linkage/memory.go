package linkage

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	payload   json.RawMessage
	createdAt time.Time
}

// MemoryStore mantém as referências em memória pelo tempo de vida do processo.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Put(ctx context.Context, body json.RawMessage) (string, error) {
	entry := memoryEntry{payload: cloneBody(body), createdAt: time.Now()}
	return issue(ctx, func(_ context.Context, ref string) (bool, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, exists := m.items[ref]; exists {
			return false, nil
		}
		m.items[ref] = entry
		return true, nil
	})
}

func (m *MemoryStore) Get(_ context.Context, reference string) (json.RawMessage, bool, error) {
	m.mu.RLock()
	entry, ok := m.items[reference]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return cloneBody(entry.payload), true, nil
}

// Len informa quantas referências foram emitidas.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
