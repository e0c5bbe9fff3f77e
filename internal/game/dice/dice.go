// Package dice provides the randomness handle shared by every fight engine
// component, plus small dice expressions used for damage jitter.
package dice

import "fmt"

// Source is the randomness provider injected into the resolver, the scheduler,
// the arena and the opponent policy.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0, 1).
	Float64() float64
}

// RollResult holds the audit trail for a single expression evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string
	Dice       []int
	Modifier   int
}

// Total returns the sum of all die results plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String renders the roll as "1d6-3 → [4] -3 = 1".
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Chance reports whether an event with probability p fires on src.
// p <= 0 never fires and p >= 1 always fires.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Float64() < p
}

// Between returns a uniformly distributed float in [lo, hi).
//
// Precondition: lo <= hi.
func Between(src Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}
