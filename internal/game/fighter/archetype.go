// Package fighter models fighters: a closed set of archetypes sharing one
// record type, stat blocks clamped to [0, 100], fight records and training.
package fighter

import (
	"fmt"
	"strings"
)

// Archetype is the closed set of fighter styles. Archetype-specific behavior
// is dispatched through lookup tables keyed by this tag.
type Archetype int

const (
	Balanced Archetype = iota
	Striker
	Grappler
	Hybrid
)

// Archetypes lists every archetype in declaration order.
var Archetypes = []Archetype{Balanced, Striker, Grappler, Hybrid}

// String returns the archetype's display name.
func (a Archetype) String() string {
	switch a {
	case Balanced:
		return "Balanced"
	case Striker:
		return "Striker"
	case Grappler:
		return "Grappler"
	case Hybrid:
		return "Hybrid"
	default:
		return "Unknown"
	}
}

// Valid reports whether a is one of the declared archetypes.
func (a Archetype) Valid() bool { return a >= Balanced && a <= Hybrid }

// ParseArchetype maps a case-insensitive name to an Archetype.
// "fighter" and "hybrid champion" are accepted as aliases.
func ParseArchetype(s string) (Archetype, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "balanced", "fighter", "":
		return Balanced, nil
	case "striker":
		return Striker, nil
	case "grappler":
		return Grappler, nil
	case "hybrid", "hybrid champion", "hybrid_champion":
		return Hybrid, nil
	}
	return Balanced, fmt.Errorf("fighter: unknown archetype %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Archetype) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Archetype) UnmarshalText(b []byte) error {
	v, err := ParseArchetype(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Weights are the coefficients of an archetype's overall skill formula.
type Weights struct {
	Striking        float64
	Grappling       float64
	Speed           float64
	KickPower       float64
	Submission      float64
	TakedownDefense float64
	Versatility     float64
}

// skillWeights is the overall-skill table keyed by archetype.
var skillWeights = map[Archetype]Weights{
	Balanced: {Striking: 0.5, Grappling: 0.5},
	Striker:  {Striking: 0.4, Speed: 0.3, KickPower: 0.2, Grappling: 0.1},
	Grappler: {Grappling: 0.5, Submission: 0.3, TakedownDefense: 0.15, Striking: 0.05},
	Hybrid:   {Striking: 0.25, Grappling: 0.25, Speed: 0.15, Submission: 0.15, Versatility: 0.2},
}

// SkillWeights returns the overall-skill coefficients for a.
func SkillWeights(a Archetype) Weights { return skillWeights[a] }

// Score returns the weighted sum of s.
func (w Weights) Score(s Stats) float64 {
	return w.Striking*float64(s.Striking) +
		w.Grappling*float64(s.Grappling) +
		w.Speed*float64(s.Speed) +
		w.KickPower*float64(s.KickPower) +
		w.Submission*float64(s.Submission) +
		w.TakedownDefense*float64(s.TakedownDefense) +
		w.Versatility*float64(s.Versatility)
}
