package bout

import "sync"

// History is the append-only fight log. It exclusively owns appended results.
// Safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	entries []Result
}

// NewHistory returns an empty history.
func NewHistory() *History { return &History{} }

// Append adds r to the end of the log.
func (h *History) Append(r Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, r)
}

// Len returns the number of results.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Entries returns a copy of the log, oldest first.
func (h *History) Entries() []Result {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Result(nil), h.entries...)
}

// Recent returns up to limit results, newest first. limit <= 0 returns all.
func (h *History) Recent(limit int) []Result {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := len(h.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Result, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, h.entries[i])
	}
	return out
}

// Clear discards every result.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

// Stats summarises a set of results.
type Stats struct {
	Total   int
	Draws   int
	Methods map[Method]int
	Latest  *Result
}

// Summarize computes Stats over results given oldest first.
func Summarize(results []Result) Stats {
	s := Stats{Total: len(results), Methods: make(map[Method]int)}
	for _, r := range results {
		s.Methods[r.Method]++
		if r.Draw {
			s.Draws++
		}
	}
	if len(results) > 0 {
		latest := results[len(results)-1]
		s.Latest = &latest
	}
	return s
}

// Stats summarises the whole log.
func (h *History) Stats() Stats { return Summarize(h.Entries()) }
