package store

import (
	"context"
	"sync"
)

const defaultMemoryCap = 10000

// Memory keeps the most recent records in a ring. The oldest record is
// evicted once the ring is full.
type Memory struct {
	mu     sync.RWMutex
	ring   []Record
	next   int
	full   bool
	byID   map[string]int
	byHash map[string][]string
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = defaultMemoryCap
	}
	return &Memory{
		ring:   make([]Record, capacity),
		byID:   make(map[string]int, capacity),
		byHash: make(map[string][]string),
	}
}

func (m *Memory) Save(ctx context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.full {
		m.evict(m.ring[m.next])
	}
	m.ring[m.next] = r
	m.byID[r.ID] = m.next
	m.byHash[r.Fingerprint.Hash] = append(m.byHash[r.Fingerprint.Hash], r.ID)

	m.next = (m.next + 1) % len(m.ring)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

func (m *Memory) evict(old Record) {
	delete(m.byID, old.ID)
	ids := m.byHash[old.Fingerprint.Hash]
	for i, id := range ids {
		if id == old.ID {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(m.byHash, old.Fingerprint.Hash)
	} else {
		m.byHash[old.Fingerprint.Hash] = ids
	}
}

func (m *Memory) Get(ctx context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return m.ring[i], nil
}

func (m *Memory) FindByHash(ctx context.Context, hash string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.byHash[hash]
	out := make([]Record, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, m.ring[m.byID[ids[i]]])
	}
	return out, nil
}

func (m *Memory) Recent(ctx context.Context, n int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	size := m.len()
	if n <= 0 || n > size {
		n = size
	}
	out := make([]Record, 0, n)
	for i := 1; i <= n; i++ {
		idx := (m.next - i + len(m.ring)) % len(m.ring)
		out = append(out, m.ring[idx])
	}
	return out, nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.len()
}

func (m *Memory) len() int {
	if m.full {
		return len(m.ring)
	}
	return m.next
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
func (m *Memory) Close() error                   { return nil }
