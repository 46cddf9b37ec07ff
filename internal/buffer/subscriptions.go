package buffer

import "sync"

// Subscriptions is the set of market data subscriptions currently open,
// keyed by the transaction id of the subscribe request.
type Subscriptions struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
}

// NewSubscriptions creates an empty registry.
func NewSubscriptions() *Subscriptions {
	return &Subscriptions{ids: make(map[int64]struct{})}
}

// Add registers id.
func (s *Subscriptions) Add(id int64) {
	s.mu.Lock()
	s.ids[id] = struct{}{}
	s.mu.Unlock()
}

// Remove forgets id. Unknown ids are ignored.
func (s *Subscriptions) Remove(id int64) {
	s.mu.Lock()
	delete(s.ids, id)
	s.mu.Unlock()
}

// Contains reports whether id is registered.
func (s *Subscriptions) Contains(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// ContainsAny reports whether at least one of ids is registered.
func (s *Subscriptions) ContainsAny(ids []int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range ids {
		if _, ok := s.ids[id]; ok {
			return true
		}
	}
	return false
}

// Clear forgets every id.
func (s *Subscriptions) Clear() {
	s.mu.Lock()
	s.ids = make(map[int64]struct{})
	s.mu.Unlock()
}

// Len returns the number of registered ids.
func (s *Subscriptions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}
