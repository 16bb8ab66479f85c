package trigger

import "sync"

// DedupSet is the run-scoped set of state keys that already went through the
// coordinator. It is owned by one Coordinator instance; there is no
// process-wide set.
type DedupSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupSet() *DedupSet {
	return &DedupSet{seen: make(map[string]struct{})}
}

// CheckAndInsert atomically inserts key and reports whether it was new. The
// mutual exclusion here is what makes "at most one fire per state key per
// run" hold regardless of dispatch order.
func (s *DedupSet) CheckAndInsert(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

func (s *DedupSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
