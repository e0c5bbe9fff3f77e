package ai

import (
	"github.com/cory-johannsen/fightsim/internal/game/arena"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
)

const (
	// CriticalStamina is the stamina below which a fighter considers resting.
	CriticalStamina = 25.0
	// CriticalHP is the hp at or below which hp_critical holds.
	CriticalHP = 25
	// RangeFactor shrinks the preferred move's reach so the policy stops
	// just inside it rather than on the edge.
	RangeFactor = 0.9
	// DominanceMargin is how far grappling must exceed striking before the
	// policy favours grapples.
	DominanceMargin = 10
)

// WorldState is the planner's view of one corner for a single decision.
type WorldState struct {
	Obs   arena.Observation
	Rules arena.Rules
}

// NewWorldState builds a WorldState from an arena observation.
func NewWorldState(obs arena.Observation, rules arena.Rules) WorldState {
	return WorldState{Obs: obs, Rules: rules}
}

// PreferredMove is the move the fighter's stats favour: grapple when
// grappling clearly exceeds striking, kick when kick power matches striking,
// otherwise jab.
func (w WorldState) PreferredMove() arena.Move {
	switch {
	case grappleDominant(w.Obs.Stats):
		return arena.MoveGrapple
	case kickDominant(w.Obs.Stats):
		return arena.MoveKick
	default:
		return arena.MoveJab
	}
}

// PreferredRange is the distance the fighter tries to close to.
func (w WorldState) PreferredRange() float64 {
	return w.Rules.Move(w.PreferredMove()).Reach * RangeFactor
}

// Fields flattens the state into named numbers for Lua predicates.
func (w WorldState) Fields() map[string]float64 {
	s := w.Obs.Stats
	return map[string]float64{
		"stamina":          w.Obs.Stamina,
		"hp":               float64(w.Obs.HP),
		"opponent_hp":      float64(w.Obs.OpponentHP),
		"distance":         w.Obs.Distance,
		"preferred_range":  w.PreferredRange(),
		"max_hp":           float64(w.Rules.MaxHP),
		"max_stamina":      w.Rules.MaxStamina,
		"striking":         float64(s.Striking),
		"grappling":        float64(s.Grappling),
		"speed":            float64(s.Speed),
		"kick_power":       float64(s.KickPower),
		"submission":       float64(s.Submission),
		"takedown_defense": float64(s.TakedownDefense),
		"versatility":      float64(s.Versatility),
		"jab_cost":         w.Rules.Move(arena.MoveJab).Cost,
		"kick_cost":        w.Rules.Move(arena.MoveKick).Cost,
		"grapple_cost":     w.Rules.Move(arena.MoveGrapple).Cost,
	}
}

// Predicate is a built-in method precondition.
type Predicate func(WorldState) bool

func grappleDominant(s fighter.Stats) bool {
	return s.Grappling > s.Striking+DominanceMargin
}

func kickDominant(s fighter.Stats) bool {
	return s.KickPower >= s.Striking
}

// builtins are resolved before any Lua hook of the same name.
var builtins = map[string]Predicate{
	"stamina_critical": func(w WorldState) bool { return w.Obs.Stamina < CriticalStamina },
	"hp_critical":      func(w WorldState) bool { return w.Obs.HP <= CriticalHP },
	"losing":           func(w WorldState) bool { return w.Obs.HP < w.Obs.OpponentHP },
	"out_of_range":     func(w WorldState) bool { return w.Obs.Distance > w.PreferredRange() },
	"in_range":         func(w WorldState) bool { return w.Obs.Distance <= w.PreferredRange() },
	"too_tired_to_strike": func(w WorldState) bool {
		return w.Obs.Stamina < w.Rules.Move(arena.MoveJab).Cost
	},
	"grapple_dominant": func(w WorldState) bool { return grappleDominant(w.Obs.Stats) },
	"kick_dominant":    func(w WorldState) bool { return kickDominant(w.Obs.Stats) },
}

// IsBuiltin reports whether name is a built-in predicate.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

func splitPredicate(p string) (name string, negate bool) {
	if len(p) > 0 && p[0] == '!' {
		return p[1:], true
	}
	return p, false
}
