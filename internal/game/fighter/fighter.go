package fighter

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidFighter is wrapped by every construction failure.
var ErrInvalidFighter = errors.New("fighter: invalid fighter")

// Fighter is a single record type for every archetype. The Archetype tag
// selects the skill weights, drills and fight methods that apply.
//
// Identity is the ID; two fighters with equal stats are still distinct.
type Fighter struct {
	ID          string
	Name        string
	WeightClass WeightClass
	Archetype   Archetype
	Stats       Stats
	Record      Record
}

// New validates and constructs a fighter. An empty id is replaced by a
// freshly generated UUID.
//
// Precondition: name non-empty and a valid archetype.
// Postcondition: returns a fighter with a zero record and every stat clamped
// to [0, 100], or an error wrapping ErrInvalidFighter.
func New(id, name string, a Archetype, wc WeightClass, stats Stats) (*Fighter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidFighter)
	}
	if !a.Valid() {
		return nil, fmt.Errorf("%w: archetype %d", ErrInvalidFighter, a)
	}
	if wc == "" {
		wc = defaultWeightClass
	}
	if _, err := ParseWeightClass(string(wc)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFighter, err)
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Fighter{ID: id, Name: name, WeightClass: wc, Archetype: a, Stats: stats.Clamped()}, nil
}

// OverallSkill returns the archetype-weighted skill score, in [0, 100].
func (f *Fighter) OverallSkill() float64 {
	return skillWeights[f.Archetype].Score(f.Stats)
}

// Same reports whether f and o are the same fighter by identity.
func (f *Fighter) Same(o *Fighter) bool {
	return f != nil && o != nil && f.ID == o.ID
}

// Clone returns an independent copy of f.
func (f *Fighter) Clone() *Fighter {
	c := *f
	return &c
}

// String renders "Name (Archetype, Weight) W-L-D".
func (f *Fighter) String() string {
	return fmt.Sprintf("%s (%s, %s) %s", f.Name, f.Archetype, f.WeightClass, f.Record)
}

// Compare orders fighters by overall skill only.
func Compare(a, b *Fighter) int {
	return cmp.Compare(a.OverallSkill(), b.OverallSkill())
}

// SortBySkill sorts fs by descending overall skill, then name.
func SortBySkill(fs []*Fighter) {
	slices.SortStableFunc(fs, func(a, b *Fighter) int {
		if c := Compare(b, a); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}

// Combine merges two fighters into a new Balanced fighter whose stats are the
// integer average of both parents. The child has a fresh identity, an empty
// record and a's weight class.
func Combine(a, b *Fighter) *Fighter {
	avg := func(x, y int) int { return (x + y) / 2 }
	s := Stats{
		Striking:        avg(a.Stats.Striking, b.Stats.Striking),
		Grappling:       avg(a.Stats.Grappling, b.Stats.Grappling),
		Speed:           avg(a.Stats.Speed, b.Stats.Speed),
		KickPower:       avg(a.Stats.KickPower, b.Stats.KickPower),
		Submission:      avg(a.Stats.Submission, b.Stats.Submission),
		TakedownDefense: avg(a.Stats.TakedownDefense, b.Stats.TakedownDefense),
		Versatility:     avg(a.Stats.Versatility, b.Stats.Versatility),
	}
	return &Fighter{
		ID:          uuid.NewString(),
		Name:        fmt.Sprintf("%s + %s Hybrid", a.Name, b.Name),
		WeightClass: a.WeightClass,
		Archetype:   Balanced,
		Stats:       s,
	}
}

// SortByRecord orders fs as a leaderboard: most wins first, then fewest
// losses, then name.
func SortByRecord(fs []*Fighter) {
	slices.SortStableFunc(fs, func(a, b *Fighter) int {
		if c := cmp.Compare(b.Record.Wins, a.Record.Wins); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Record.Losses, b.Record.Losses); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}
