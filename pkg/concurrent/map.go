// Package concurrent provides mutex-guarded generic containers.
package concurrent

import "sync"

type Map[K comparable, V any] struct {
	mu     sync.RWMutex
	values map[K]V
}

func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		values: make(map[K]V),
	}
}

func (m *Map[K, V]) Load(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.values[key]
	return val, ok
}

func (m *Map[K, V]) Store(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
}

// Update replaces the value under key with f(current, found) atomically
// and returns the new value.
func (m *Map[K, V]) Update(key K, f func(current V, found bool) V) V {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, found := m.values[key]
	next := f(current, found)
	m.values[key] = next
	return next
}

func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.values)
}

// Values returns a copy of every value, in no particular order.
func (m *Map[K, V]) Values() []V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]V, 0, len(m.values))
	for _, v := range m.values {
		out = append(out, v)
	}
	return out
}
