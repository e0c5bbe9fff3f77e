package fighter

import (
	"errors"
	"fmt"
	"strings"
)

// TrainingStep is the gain applied to each stat a drill works.
const TrainingStep = 2

var (
	// ErrUnknownDrill is returned when a drill name does not parse.
	ErrUnknownDrill = errors.New("fighter: unknown drill")
	// ErrDrillNotAllowed is returned when the archetype cannot run the drill.
	ErrDrillNotAllowed = errors.New("fighter: drill not allowed for archetype")
)

// Drill is a training session type.
type Drill int

const (
	DrillStriking Drill = iota
	DrillGrappling
	DrillMMA
)

func (d Drill) String() string {
	switch d {
	case DrillStriking:
		return "striking"
	case DrillGrappling:
		return "grappling"
	case DrillMMA:
		return "mma"
	default:
		return "unknown"
	}
}

// ParseDrill maps a case-insensitive name to a Drill.
func ParseDrill(s string) (Drill, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "striking":
		return DrillStriking, nil
	case "grappling":
		return DrillGrappling, nil
	case "mma", "complete", "complete_mma":
		return DrillMMA, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDrill, s)
}

// drillGains lists the stats each drill raises.
var drillGains = map[Drill][]Stat{
	DrillStriking:  {StatStriking, StatSpeed},
	DrillGrappling: {StatGrappling, StatSubmission},
	DrillMMA:       {StatStriking, StatGrappling, StatVersatility},
}

// allowedDrills is the drill legality table keyed by archetype.
var allowedDrills = map[Archetype][]Drill{
	Striker:  {DrillStriking},
	Grappler: {DrillGrappling},
	Hybrid:   {DrillStriking, DrillGrappling, DrillMMA},
}

// Drills returns the drills archetype a may run.
func Drills(a Archetype) []Drill {
	return append([]Drill(nil), allowedDrills[a]...)
}

// CanTrain reports whether f's archetype allows d.
func (f *Fighter) CanTrain(d Drill) bool {
	for _, allowed := range allowedDrills[f.Archetype] {
		if allowed == d {
			return true
		}
	}
	return false
}

// Train raises every stat d works by TrainingStep, clamped at StatMax.
//
// Postcondition: on error f is unchanged.
func (f *Fighter) Train(d Drill) error {
	gains, ok := drillGains[d]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownDrill, d)
	}
	if !f.CanTrain(d) {
		return fmt.Errorf("%w: %s cannot run %s drill", ErrDrillNotAllowed, f.Archetype, d)
	}
	for _, st := range gains {
		f.Stats = f.Stats.With(st, f.Stats.Get(st)+TrainingStep)
	}
	return nil
}
