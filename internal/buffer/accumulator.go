package buffer

import "sync"

// Cloner is implemented by every buffered message type.
type Cloner[T any] interface {
	Clone() T
}

// Keyed accumulates cloned values per key until drained.
type Keyed[K comparable, V Cloner[V]] struct {
	mu   sync.Mutex
	data map[K][]V
}

// NewKeyed creates an empty keyed accumulator.
func NewKeyed[K comparable, V Cloner[V]]() *Keyed[K, V] {
	return &Keyed[K, V]{data: make(map[K][]V)}
}

// Add appends a clone of value to the sequence for key.
func (k *Keyed[K, V]) Add(key K, value V) {
	v := value.Clone()

	k.mu.Lock()
	k.data[key] = append(k.data[key], v)
	k.mu.Unlock()
}

// DrainAll returns everything accumulated so far and leaves the accumulator
// empty. The swap happens under the lock, so a concurrent Add lands either
// in the returned map or in the next drain.
func (k *Keyed[K, V]) DrainAll() map[K][]V {
	k.mu.Lock()
	defer k.mu.Unlock()

	out := k.data
	k.data = make(map[K][]V)
	return out
}

// Clear discards all accumulated values.
func (k *Keyed[K, V]) Clear() {
	k.mu.Lock()
	k.data = make(map[K][]V)
	k.mu.Unlock()
}

// Len returns the total number of values across all keys.
func (k *Keyed[K, V]) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	n := 0
	for _, vs := range k.data {
		n += len(vs)
	}
	return n
}

// Set accumulates cloned values that have no natural key.
type Set[V Cloner[V]] struct {
	mu    sync.Mutex
	items []V
}

// NewSet creates an empty unkeyed accumulator.
func NewSet[V Cloner[V]]() *Set[V] {
	return &Set[V]{}
}

// Add appends a clone of value.
func (s *Set[V]) Add(value V) {
	v := value.Clone()

	s.mu.Lock()
	s.items = append(s.items, v)
	s.mu.Unlock()
}

// DrainAll returns the accumulated values and leaves the set empty.
func (s *Set[V]) DrainAll() []V {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.items
	s.items = nil
	return out
}

// Clear discards all accumulated values.
func (s *Set[V]) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

// Len returns the number of accumulated values.
func (s *Set[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
