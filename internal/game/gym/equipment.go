// Package gym gates fighter drills on training equipment that wears with use.
package gym

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/fightsim/internal/game/fighter"
)

const (
	// DefaultWear is the condition lost per training session.
	DefaultWear = 5
	// DefaultRepair is the condition restored by one repair.
	DefaultRepair = 20
	maxCondition  = 100
)

var (
	// ErrWornOut is returned when equipment has no condition left.
	ErrWornOut = errors.New("gym: equipment worn out")
	// ErrWrongEquipment is returned when the equipment cannot serve the drill.
	ErrWrongEquipment = errors.New("gym: equipment does not support drill")
	// ErrUnknownEquipment is returned for an id not on the rack.
	ErrUnknownEquipment = errors.New("gym: unknown equipment")
)

// Kind is an equipment category.
type Kind string

const (
	Gloves Kind = "gloves"
	Pads   Kind = "pads"
	Mat    Kind = "mat"
)

// supports lists the drills each kind of equipment can be used for.
var supports = map[Kind][]fighter.Drill{
	Gloves: {fighter.DrillStriking, fighter.DrillMMA},
	Pads:   {fighter.DrillStriking},
	Mat:    {fighter.DrillGrappling, fighter.DrillMMA},
}

// Equipment is a piece of training gear.
//
// Invariant: 0 <= Condition <= 100.
type Equipment struct {
	ID        string
	Name      string
	Kind      Kind
	Condition int
	Price     float64
}

// NewEquipment returns gear in the given condition, clamped to [0, 100].
func NewEquipment(id, name string, kind Kind, condition int, price float64) *Equipment {
	return &Equipment{ID: id, Name: name, Kind: kind, Condition: min(max(condition, 0), maxCondition), Price: price}
}

// Usable reports whether the equipment has any condition left.
func (e *Equipment) Usable() bool { return e.Condition > 0 }

// Use wears the equipment down by wear and reports whether it is still usable.
func (e *Equipment) Use(wear int) bool {
	e.Condition = max(0, e.Condition-wear)
	return e.Usable()
}

// Repair restores amount condition, capped at 100.
func (e *Equipment) Repair(amount int) {
	e.Condition = min(maxCondition, e.Condition+amount)
}

// Supports reports whether the equipment can serve drill d.
func (e *Equipment) Supports(d fighter.Drill) bool {
	for _, s := range supports[e.Kind] {
		if s == d {
			return true
		}
	}
	return false
}

func (e *Equipment) String() string {
	return fmt.Sprintf("%s (%s) %d%% $%.2f", e.Name, e.Kind, e.Condition, e.Price)
}

// Train runs drill d for f on eq. Equipment is worn only when the drill
// succeeds.
//
// Postcondition: on error neither f nor eq is modified.
func Train(f *fighter.Fighter, d fighter.Drill, eq *Equipment) error {
	if !eq.Usable() {
		return fmt.Errorf("%w: %s", ErrWornOut, eq.Name)
	}
	if !eq.Supports(d) {
		return fmt.Errorf("%w: %s for %s", ErrWrongEquipment, eq.Kind, d)
	}
	if err := f.Train(d); err != nil {
		return err
	}
	eq.Use(DefaultWear)
	return nil
}

// Rack is the gym's shared equipment, keyed by id.
type Rack struct {
	gear  map[string]*Equipment
	order []string
}

// NewRack returns a rack holding items in the given order. Later duplicates
// of an id replace earlier ones.
func NewRack(items ...*Equipment) *Rack {
	r := &Rack{gear: make(map[string]*Equipment, len(items))}
	for _, eq := range items {
		if _, dup := r.gear[eq.ID]; !dup {
			r.order = append(r.order, eq.ID)
		}
		r.gear[eq.ID] = eq
	}
	return r
}

// DefaultRack is the starter gym: one of each kind in full condition.
func DefaultRack() *Rack {
	return NewRack(
		NewEquipment("gloves", "16oz Sparring Gloves", Gloves, maxCondition, 60),
		NewEquipment("pads", "Thai Pads", Pads, maxCondition, 80),
		NewEquipment("mat", "Grappling Mat", Mat, maxCondition, 450),
	)
}

// Get returns the equipment with id.
func (r *Rack) Get(id string) (*Equipment, error) {
	eq, ok := r.gear[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEquipment, id)
	}
	return eq, nil
}

// Items returns copies of every piece in rack order.
func (r *Rack) Items() []Equipment {
	out := make([]Equipment, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.gear[id])
	}
	return out
}
