package guardar

import (
	"context"
	"sort"
	"sync"
)

// Memory implements Backend and Swapper with a thread-safe in-memory map.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory Backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// GetItem returns the entry under key and whether it exists.
func (m *Memory) GetItem(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// SetItem stores value under key, replacing any previous entry.
func (m *Memory) SetItem(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (m *Memory) RemoveItem(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// CompareAndSwap replaces the entry only if it exists and equals oldValue.
func (m *Memory) CompareAndSwap(ctx context.Context, key, oldValue, newValue string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.data[key]
	if !ok || cur != oldValue {
		return false, nil
	}
	m.data[key] = newValue
	return true, nil
}

// Len returns the number of backend entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Keys returns every backend key in sorted order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
