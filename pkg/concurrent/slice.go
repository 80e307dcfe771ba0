package concurrent

import "sync"

type Slice[V any] struct {
	mu     sync.RWMutex
	values []V
}

func NewSlice[V any]() *Slice[V] {
	return &Slice[V]{}
}

// Append adds values as one contiguous run; concurrent appends never
// interleave.
func (s *Slice[V]) Append(values ...V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = append(s.values, values...)
}

func (s *Slice[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.values)
}

func (s *Slice[V]) All() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]V(nil), s.values...)
}

// Filter returns a copy of the values matching keep, in order.
func (s *Slice[V]) Filter(keep func(V) bool) []V {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []V
	for _, v := range s.values {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
