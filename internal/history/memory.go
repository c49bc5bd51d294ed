package history

import (
	"context"
	"sync"
)

// MemoryList is an in-process ListStore for tests and dependency-free runs.
type MemoryList struct {
	mu    sync.Mutex
	lists map[string][]string // index 0 is the head
}

// NewMemoryList creates an empty in-memory list store.
func NewMemoryList() *MemoryList {
	return &MemoryList{lists: make(map[string][]string)}
}

func (m *MemoryList) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.lists[key]
	return ok, nil
}

func (m *MemoryList) PushHead(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[key] = append([]string{value}, m.lists[key]...)
	return nil
}

func (m *MemoryList) PopTail(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	if len(list) == 0 {
		return "", nil
	}
	tail := list[len(list)-1]
	list = list[:len(list)-1]
	if len(list) == 0 {
		delete(m.lists, key)
	} else {
		m.lists[key] = list
	}
	return tail, nil
}

func (m *MemoryList) RemoveValue(_ context.Context, key, value string, count int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	var removed int64
	kept := list[:0]
	for _, v := range list {
		if v == value && (count <= 0 || removed < count) {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	if len(kept) == 0 {
		delete(m.lists, key)
	} else {
		m.lists[key] = kept
	}
	return removed, nil
}

func (m *MemoryList) Length(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.lists[key])), nil
}

func (m *MemoryList) RangeAll(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

func (m *MemoryList) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lists, key)
	return nil
}

func (m *MemoryList) Close() error { return nil }
