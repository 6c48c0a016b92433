package cache

import (
	"context"
	"sync"
	"time"

	"github.com/DeafMist/newsdesk/internal/models"
)

type memoryEntry struct {
	storedAt time.Time
	value    models.NewsResult
}

// Memory is an in-process Store. By default it keeps every key until it is
// overwritten, expired ones included. A positive capacity is an operator
// bound: once exceeded, the least recently written key is dropped.
type Memory struct {
	mu       sync.Mutex
	items    map[string]memoryEntry
	order    []string
	capacity int
	opts     options
}

// NewMemory creates an in-memory store holding at most capacity keys.
// A capacity of zero or less means unbounded.
func NewMemory(capacity int, opts ...Option) *Memory {
	if capacity < 0 {
		capacity = 0
	}
	return &Memory{
		items:    make(map[string]memoryEntry),
		capacity: capacity,
		opts:     buildOptions(opts),
	}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (models.NewsResult, bool, error) {
	now := m.opts.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok || now.Sub(e.storedAt) >= m.opts.ttl {
		return models.NewsResult{}, false, nil
	}
	return e.value, true, nil
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, key string, value models.NewsResult) error {
	now := m.opts.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[key]; ok {
		m.forget(key)
	}
	m.items[key] = memoryEntry{storedAt: now, value: value}
	m.order = append(m.order, key)

	for m.capacity > 0 && len(m.items) > m.capacity {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.items, oldest)
	}
	return nil
}

// Len reports how many keys are held, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) forget(key string) {
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}
