package ai

import (
	"github.com/cory-johannsen/fightsim/internal/game/arena"
	"github.com/cory-johannsen/fightsim/internal/game/dice"
)

// Policy adapts a Planner to arena.Policy. The first planned action is taken;
// an empty plan holds position.
type Policy struct {
	planner *Planner
	rules   arena.Rules
}

// NewPolicy wraps planner for an arena running under rules.
//
// Precondition: planner must not be nil.
func NewPolicy(planner *Planner, rules arena.Rules) *Policy {
	if planner == nil {
		panic("ai.NewPolicy: planner must not be nil")
	}
	return &Policy{planner: planner, rules: rules}
}

// NewDefaultPolicy returns a Policy over DefaultDomain.
func NewDefaultPolicy(rules arena.Rules) *Policy {
	p, err := NewPlanner(DefaultDomain(), nil, "")
	if err != nil {
		panic("ai.NewDefaultPolicy: " + err.Error())
	}
	return NewPolicy(p, rules)
}

// Decide implements arena.Policy.
func (p *Policy) Decide(obs arena.Observation, src dice.Source) arena.Action {
	plan := p.planner.Plan(NewWorldState(obs, p.rules), src)
	if len(plan) == 0 {
		return arena.ActionHold
	}
	return plan[0].Action
}
