package dedupe

// Set is the per-run record of texts already stored for one source.
// It is owned by a single ingestion run and is not safe for concurrent use.
type Set struct {
	items map[string]struct{}
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{items: make(map[string]struct{})}
}

// Add records key and reports whether it was new.
func (s *Set) Add(key string) bool {
	if _, ok := s.items[key]; ok {
		return false
	}
	s.items[key] = struct{}{}
	return true
}

// Has reports whether key was added before.
func (s *Set) Has(key string) bool {
	_, ok := s.items[key]
	return ok
}

// Len returns the number of distinct keys.
func (s *Set) Len() int {
	return len(s.items)
}
