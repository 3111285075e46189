package storage

import (
	"context"
	"sync"
)

// Memory implements Storage in process memory.
type Memory struct {
	mu    sync.RWMutex
	value string
	set   bool
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set {
		return "", ErrNotFound
	}
	return m.value, nil
}

func (m *Memory) Save(_ context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = value
	m.set = true
	return nil
}

// Raw returns the stored value as is.
func (m *Memory) Raw() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value, m.set
}

// Put stores value without going through a Store, e.g. to seed corrupt state.
func (m *Memory) Put(value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = value
	m.set = true
}

// MemoryFactory hands out one Memory per key and keeps it for later calls.
func MemoryFactory() Factory {
	var mu sync.Mutex
	slots := make(map[string]*Memory)
	return func(key string) Storage {
		mu.Lock()
		defer mu.Unlock()
		slot, ok := slots[key]
		if !ok {
			slot = NewMemory()
			slots[key] = slot
		}
		return slot
	}
}
