package ai

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/fightsim/internal/game/arena"
	"github.com/cory-johannsen/fightsim/internal/game/dice"
)

// maxSteps bounds decomposition so a cyclic domain cannot hang a tick.
const maxSteps = 32

// ScriptCaller is the interface required by the Planner to evaluate Lua
// preconditions that are not built in.
type ScriptCaller interface {
	// LoadString loads source into scope's VM.
	LoadString(scope, source string, instLimit int) error
	// CallWithFields calls a named Lua function in scope's VM with one table
	// argument. Returns (LNil, nil) if the function is not defined.
	CallWithFields(scope, hook string, fields map[string]float64) (lua.LValue, error)
}

// PlannedAction is one primitive action produced by the planner.
type PlannedAction struct {
	Operator string
	Action   arena.Action
}

// Planner evaluates an HTN domain for one corner and produces an ordered
// action plan for the current decision tick.
//
// Invariant: domain is non-nil and valid; caller is non-nil whenever the
// domain references a non-builtin predicate.
type Planner struct {
	domain  *Domain
	actions map[string]arena.Action
	caller  ScriptCaller
	scope   string
}

// NewPlanner constructs a Planner.
//
// Precondition: domain must not be nil. caller may be nil when every
// precondition is built in.
// Postcondition: returns error if the domain is invalid or references a
// custom predicate without a caller.
func NewPlanner(domain *Domain, caller ScriptCaller, scope string) (*Planner, error) {
	if domain == nil {
		panic("ai.NewPlanner: domain must not be nil")
	}
	if err := domain.Validate(); err != nil {
		return nil, err
	}
	if caller == nil {
		for _, name := range domain.Predicates() {
			if !IsBuiltin(name) {
				return nil, fmt.Errorf("ai.NewPlanner: domain %q predicate %q needs a script caller", domain.ID, name)
			}
		}
	}
	actions := make(map[string]arena.Action, len(domain.Operators))
	for _, op := range domain.Operators {
		a, _ := op.ArenaAction()
		actions[op.ID] = a
	}
	return &Planner{domain: domain, actions: actions, caller: caller, scope: scope}, nil
}

// Domain returns the planner's domain.
func (p *Planner) Domain() *Domain { return p.domain }

// Plan evaluates the HTN domain against state and returns an ordered plan.
//
// Precondition: src must not be nil.
// Postcondition: returns a non-nil slice (may be empty). Lua failures are
// treated as precondition-false.
func (p *Planner) Plan(state WorldState, src dice.Source) []PlannedAction {
	taskQueue := []string{RootTask}
	result := []PlannedAction{}

	for steps := 0; len(taskQueue) > 0 && steps < maxSteps; steps++ {
		current := taskQueue[0]
		taskQueue = taskQueue[1:]

		if a, ok := p.actions[current]; ok {
			result = append(result, PlannedAction{Operator: current, Action: a})
			continue
		}

		method := p.findApplicableMethod(current, state, src)
		if method == nil {
			continue
		}
		next := make([]string, 0, len(method.Subtasks)+len(taskQueue))
		next = append(next, method.Subtasks...)
		taskQueue = append(next, taskQueue...)
	}
	return result
}

// findApplicableMethod returns the first Method for taskID whose precondition
// passes and whose chance roll succeeds, or nil if none applies.
//
// Methods are tried in declaration order. An empty Precondition always passes.
// The chance roll is only made once the precondition holds.
func (p *Planner) findApplicableMethod(taskID string, state WorldState, src dice.Source) *Method {
	for _, m := range p.domain.MethodsForTask(taskID) {
		if !p.holds(m.Precondition, state) {
			continue
		}
		if m.Chance > 0 && !dice.Chance(src, m.Chance) {
			continue
		}
		return m
	}
	return nil
}

func (p *Planner) holds(precondition string, state WorldState) bool {
	if precondition == "" {
		return true
	}
	name, negate := splitPredicate(precondition)
	var ok bool
	if fn, builtin := builtins[name]; builtin {
		ok = fn(state)
	} else {
		val, err := p.caller.CallWithFields(p.scope, name, state.Fields())
		ok = err == nil && val == lua.LTrue
	}
	return ok != negate
}
