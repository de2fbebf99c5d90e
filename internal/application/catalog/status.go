package catalog

import "sync"

// Status holds the loading and error flags of the most recent load. The
// loader writes it; presentation reads it.
type Status struct {
	mu      sync.RWMutex
	loading bool
	err     error
}

func NewStatus() *Status {
	return &Status{}
}

func (s *Status) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the error of the last finished load, or nil.
func (s *Status) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Status) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.err = nil
}

func (s *Status) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.err = err
}
