package pending

import "sync"

// Slot holds at most one candidate: the latest study-related email awaiting
// an SMS reply. A new Put replaces any unresolved previous candidate.
type Slot struct {
	mu    sync.Mutex
	c     Candidate
	armed bool
}

func (s *Slot) Put(c Candidate) {
	s.mu.Lock()
	s.c, s.armed = c, true
	s.mu.Unlock()
}

// Take returns the held candidate and clears the slot.
func (s *Slot) Take() (Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.c, s.armed
	s.c, s.armed = Candidate{}, false
	return c, ok
}

func (s *Slot) Clear() {
	s.Take()
}
