// Package dismiss tracks session-local event dismissals.
package dismiss

import "sync"

// Set is a mutex-guarded set of dismissed occurrence keys. Dismissal is
// monotonic: keys are only ever added, and the set lives for the lifetime
// of the process. Construct with New and pass explicitly to consumers.
type Set struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// New returns an empty dismissal set.
func New() *Set {
	return &Set{keys: make(map[string]struct{})}
}

// Add marks an occurrence key as dismissed.
func (s *Set) Add(key string) {
	s.mu.Lock()
	s.keys[key] = struct{}{}
	s.mu.Unlock()
}

// Contains reports whether an occurrence key has been dismissed.
func (s *Set) Contains(key string) bool {
	s.mu.Lock()
	_, ok := s.keys[key]
	s.mu.Unlock()
	return ok
}

// Snapshot returns a copy of the dismissed keys. Callers use the copy for
// rendering so the lock is never held across formatting or UI work.
func (s *Set) Snapshot() map[string]struct{} {
	s.mu.Lock()
	out := make(map[string]struct{}, len(s.keys))
	for k := range s.keys {
		out[k] = struct{}{}
	}
	s.mu.Unlock()
	return out
}

// Len returns the number of dismissed occurrences.
func (s *Set) Len() int {
	s.mu.Lock()
	n := len(s.keys)
	s.mu.Unlock()
	return n
}
