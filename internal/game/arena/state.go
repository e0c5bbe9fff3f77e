// Package arena is the real-time fight engine: a pure fixed-step Step over a
// value-typed State, plus a Session that drives it from a clock, human input
// and an opponent policy.
package arena

import (
	"fmt"

	"github.com/cory-johannsen/fightsim/internal/game/fighter"
)

// Slot identifies one of the two corners.
type Slot int

const (
	Red Slot = iota
	Blue
)

// Other returns the opposing slot.
func (s Slot) Other() Slot { return 1 - s }

func (s Slot) String() string {
	if s == Red {
		return "red"
	}
	return "blue"
}

// Phase is the bout lifecycle.
type Phase int

const (
	PhaseLive Phase = iota
	// PhaseOver is terminal: the state is frozen and only read for reporting.
	PhaseOver
)

func (p Phase) String() string {
	if p == PhaseOver {
		return "over"
	}
	return "live"
}

// Corner is one fighter's live state. Timers are absolute expiry times on
// the state's clock.
//
// Invariant: 0 <= HP <= Rules.MaxHP and 0 <= Stamina <= Rules.MaxStamina.
type Corner struct {
	FighterID string
	Name      string
	Archetype fighter.Archetype
	Stats     fighter.Stats

	HP      int
	Stamina float64
	Pos     Vec2
	Vel     Vec2

	CooldownUntil [moveCount]float64
	BlockUntil    float64
	StunUntil     float64
	RestReadyAt   float64
}

// Outcome is the terminal result. Winner is meaningless when Draw is set.
type Outcome struct {
	Winner Slot
	Draw   bool
}

// State is the complete live bout. It contains no references, so assigning
// a State copies it.
type State struct {
	Tick    uint64
	Clock   float64
	Phase   Phase
	Corners [2]Corner
	Outcome Outcome
}

// NewState places red and blue at their spawn points with full hp and
// stamina.
//
// Precondition: red and blue are distinct fighters and rules are valid.
func NewState(red, blue *fighter.Fighter, rules Rules) (State, error) {
	if red == nil || blue == nil {
		return State{}, fmt.Errorf("arena: both corners need a fighter")
	}
	if red.ID == blue.ID {
		return State{}, fmt.Errorf("arena: fighter %q cannot fight itself", red.ID)
	}
	if err := rules.Validate(); err != nil {
		return State{}, fmt.Errorf("arena: invalid rules: %w", err)
	}
	y := rules.Height / 2
	s := State{}
	s.Corners[Red] = newCorner(red, rules, Vec2{rules.SpawnInset, y})
	s.Corners[Blue] = newCorner(blue, rules, Vec2{rules.Width - rules.SpawnInset, y})
	return s, nil
}

func newCorner(f *fighter.Fighter, rules Rules, pos Vec2) Corner {
	return Corner{
		FighterID: f.ID,
		Name:      f.Name,
		Archetype: f.Archetype,
		Stats:     f.Stats,
		HP:        rules.MaxHP,
		Stamina:   rules.MaxStamina,
		Pos:       pos,
	}
}

// Distance returns the centre-to-centre distance between the corners.
func (s State) Distance() float64 {
	return s.Corners[Red].Pos.Dist(s.Corners[Blue].Pos)
}

// Over reports whether the bout has ended.
func (s State) Over() bool { return s.Phase == PhaseOver }

// Blocking reports whether slot's block window is open.
func (s State) Blocking(slot Slot) bool { return s.Clock < s.Corners[slot].BlockUntil }

// Stunned reports whether slot is stunned.
func (s State) Stunned(slot Slot) bool { return s.Clock < s.Corners[slot].StunUntil }

// Ready reports whether slot's cooldown for m has elapsed.
func (s State) Ready(slot Slot, m Move) bool { return s.Clock >= s.Corners[slot].CooldownUntil[m] }
