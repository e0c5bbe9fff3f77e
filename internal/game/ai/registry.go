package ai

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/fightsim/internal/game/arena"
)

// Registry indexes Planners by domain ID.
//
// Invariant: each domain ID is registered at most once.
type Registry struct {
	planners map[string]*Planner
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{planners: make(map[string]*Planner)}
}

// Register creates and stores a Planner for domain. A domain carrying an
// inline script has it loaded into caller under the domain ID.
//
// Precondition: domain must not be nil.
// Postcondition: returns error on domain ID collision, script load failure
// or an invalid domain.
func (r *Registry) Register(domain *Domain, caller ScriptCaller, instLimit int) error {
	if _, exists := r.planners[domain.ID]; exists {
		return fmt.Errorf("ai.Registry: domain %q already registered", domain.ID)
	}
	if domain.Script != "" {
		if caller == nil {
			return fmt.Errorf("ai.Registry: domain %q has a script but no script caller", domain.ID)
		}
		if err := caller.LoadString(domain.ID, domain.Script, instLimit); err != nil {
			return fmt.Errorf("ai.Registry: domain %q: %w", domain.ID, err)
		}
	}
	p, err := NewPlanner(domain, caller, domain.ID)
	if err != nil {
		return err
	}
	r.planners[domain.ID] = p
	return nil
}

// PlannerFor returns the Planner for domainID, or false if not registered.
func (r *Registry) PlannerFor(domainID string) (*Planner, bool) {
	p, ok := r.planners[domainID]
	return p, ok
}

// PolicyFor returns an arena policy backed by domainID's planner.
func (r *Registry) PolicyFor(domainID string, rules arena.Rules) (*Policy, bool) {
	p, ok := r.planners[domainID]
	if !ok {
		return nil, false
	}
	return NewPolicy(p, rules), true
}

// IDs returns the registered domain IDs, sorted.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.planners))
	for id := range r.planners {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
