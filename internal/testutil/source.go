package testutil

import "sync"

// FixedSource returns the same values on every draw. Float64 always yields F
// and Intn yields I modulo n.
type FixedSource struct {
	F float64
	I int
}

func (s FixedSource) Intn(n int) int { return s.I % n }

func (s FixedSource) Float64() float64 { return s.F }

// ScriptedSource replays queued values and falls back to the last value of
// each queue once exhausted (zero when a queue was never populated).
type ScriptedSource struct {
	mu     sync.Mutex
	floats []float64
	ints   []int
	lastF  float64
	lastI  int
}

// NewScriptedSource returns a source that yields floats and ints in order.
func NewScriptedSource(floats []float64, ints []int) *ScriptedSource {
	return &ScriptedSource{floats: floats, ints: ints}
}

func (s *ScriptedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.floats) > 0 {
		s.lastF, s.floats = s.floats[0], s.floats[1:]
	}
	return s.lastF
}

func (s *ScriptedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ints) > 0 {
		s.lastI, s.ints = s.ints[0], s.ints[1:]
	}
	return s.lastI % n
}
