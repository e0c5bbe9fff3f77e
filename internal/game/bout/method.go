// Package bout resolves single-shot probabilistic fights between two fighters
// and keeps the append-only fight history.
package bout

import (
	"github.com/cory-johannsen/fightsim/internal/game/dice"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
)

// Method is the way a bout was won.
type Method string

const (
	MethodKO                Method = "KO"
	MethodTKO               Method = "TKO"
	MethodDecisionStriking  Method = "Decision (Striking)"
	MethodSubmission        Method = "Submission"
	MethodDecisionGrappling Method = "Decision (Grappling)"
	MethodGroundAndPound    Method = "Ground and Pound"
	MethodDecision          Method = "Decision"
	// MethodDoubleKO is only produced by the arena when both fighters drop in
	// the same tick.
	MethodDoubleKO Method = "Double KO"
)

// Finish maps a method onto the record honors it earns.
func (m Method) Finish() fighter.Finish {
	switch m {
	case MethodKO, MethodTKO, MethodGroundAndPound:
		return fighter.FinishKnockout
	case MethodSubmission:
		return fighter.FinishSubmission
	default:
		return fighter.FinishDecision
	}
}

type weightedMethod struct {
	method Method
	weight float64
}

// methodTables holds the victory-method distribution keyed by the winner's
// archetype. Each table's weights sum to 1 and are listed most likely first.
var methodTables = map[fighter.Archetype][]weightedMethod{
	fighter.Striker: {
		{MethodKO, 0.4}, {MethodTKO, 0.3}, {MethodDecisionStriking, 0.3},
	},
	fighter.Grappler: {
		{MethodSubmission, 0.5}, {MethodDecisionGrappling, 0.3}, {MethodGroundAndPound, 0.2},
	},
	fighter.Balanced: {
		{MethodDecision, 0.4}, {MethodKO, 0.3}, {MethodSubmission, 0.3},
	},
	fighter.Hybrid: {
		{MethodDecision, 0.4}, {MethodKO, 0.3}, {MethodSubmission, 0.3},
	},
}

// Methods returns the methods a winner of archetype a can be awarded.
func Methods(a fighter.Archetype) []Method {
	table := methodTables[a]
	out := make([]Method, len(table))
	for i, wm := range table {
		out[i] = wm.method
	}
	return out
}

// LikelyMethod returns the most probable method for a winner of archetype a.
func LikelyMethod(a fighter.Archetype) Method {
	return methodTables[a][0].method
}

// SampleMethod draws a victory method for a winner of archetype a.
func SampleMethod(a fighter.Archetype, src dice.Source) Method {
	table := methodTables[a]
	u := src.Float64()
	acc := 0.0
	for _, wm := range table {
		acc += wm.weight
		if u < acc {
			return wm.method
		}
	}
	return table[len(table)-1].method
}
