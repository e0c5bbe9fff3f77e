package fighter

import "fmt"

const (
	// StatMin and StatMax bound every stat.
	StatMin = 0
	StatMax = 100
)

// Stat names a single attribute of a stat block.
type Stat int

const (
	StatStriking Stat = iota
	StatGrappling
	StatSpeed
	StatKickPower
	StatSubmission
	StatTakedownDefense
	StatVersatility
)

func (s Stat) String() string {
	switch s {
	case StatStriking:
		return "striking"
	case StatGrappling:
		return "grappling"
	case StatSpeed:
		return "speed"
	case StatKickPower:
		return "kick_power"
	case StatSubmission:
		return "submission"
	case StatTakedownDefense:
		return "takedown_defense"
	case StatVersatility:
		return "versatility"
	default:
		return "unknown"
	}
}

// Stats is a fully populated stat block. Archetypes that do not weigh a stat
// still carry a neutral value for it, see DefaultStats.
//
// Invariant: every field is within [StatMin, StatMax] once constructed via New.
type Stats struct {
	Striking        int `yaml:"striking" json:"striking"`
	Grappling       int `yaml:"grappling" json:"grappling"`
	Speed           int `yaml:"speed" json:"speed"`
	KickPower       int `yaml:"kick_power" json:"kick_power"`
	Submission      int `yaml:"submission" json:"submission"`
	TakedownDefense int `yaml:"takedown_defense" json:"takedown_defense"`
	Versatility     int `yaml:"versatility" json:"versatility"`
}

// Get returns the value of stat.
func (s Stats) Get(stat Stat) int {
	switch stat {
	case StatStriking:
		return s.Striking
	case StatGrappling:
		return s.Grappling
	case StatSpeed:
		return s.Speed
	case StatKickPower:
		return s.KickPower
	case StatSubmission:
		return s.Submission
	case StatTakedownDefense:
		return s.TakedownDefense
	case StatVersatility:
		return s.Versatility
	}
	panic(fmt.Sprintf("fighter: Stats.Get called with unknown stat %d", stat))
}

// With returns a copy of s with stat set to v clamped to [StatMin, StatMax].
func (s Stats) With(stat Stat, v int) Stats {
	v = clampStat(v)
	switch stat {
	case StatStriking:
		s.Striking = v
	case StatGrappling:
		s.Grappling = v
	case StatSpeed:
		s.Speed = v
	case StatKickPower:
		s.KickPower = v
	case StatSubmission:
		s.Submission = v
	case StatTakedownDefense:
		s.TakedownDefense = v
	case StatVersatility:
		s.Versatility = v
	default:
		panic(fmt.Sprintf("fighter: Stats.With called with unknown stat %d", stat))
	}
	return s
}

// Clamped returns s with every field clamped to [StatMin, StatMax].
func (s Stats) Clamped() Stats {
	for _, st := range allStats {
		s = s.With(st, s.Get(st))
	}
	return s
}

// Validate returns an error naming the first stat outside [StatMin, StatMax].
func (s Stats) Validate() error {
	for _, st := range allStats {
		if v := s.Get(st); v < StatMin || v > StatMax {
			return fmt.Errorf("fighter: %s %d out of range [%d, %d]", st, v, StatMin, StatMax)
		}
	}
	return nil
}

var allStats = []Stat{
	StatStriking, StatGrappling, StatSpeed, StatKickPower,
	StatSubmission, StatTakedownDefense, StatVersatility,
}

func clampStat(v int) int {
	return min(max(v, StatMin), StatMax)
}

// DefaultStats returns the neutral stat block an archetype is built with
// when no value is supplied. Kick power falls back to striking and
// submission to grappling for archetypes that do not specialise in them.
func DefaultStats(a Archetype) Stats {
	switch a {
	case Striker:
		return Stats{Striking: 85, Grappling: 45, Speed: 75, KickPower: 70, Submission: 45, TakedownDefense: 60, Versatility: 60}
	case Grappler:
		return Stats{Striking: 40, Grappling: 80, Speed: 60, KickPower: 40, Submission: 75, TakedownDefense: 70, Versatility: 60}
	case Hybrid:
		return Stats{Striking: 75, Grappling: 75, Speed: 70, KickPower: 70, Submission: 70, TakedownDefense: 70, Versatility: 85}
	default:
		return Stats{Striking: 50, Grappling: 50, Speed: 60, KickPower: 50, Submission: 50, TakedownDefense: 60, Versatility: 60}
	}
}

// StatsSpec is a partially specified stat block as it appears in roster files.
// Nil fields are filled from DefaultStats; kick power and submission follow
// the supplied striking and grappling values when they are themselves absent.
type StatsSpec struct {
	Striking        *int `yaml:"striking"`
	Grappling       *int `yaml:"grappling"`
	Speed           *int `yaml:"speed"`
	KickPower       *int `yaml:"kick_power"`
	Submission      *int `yaml:"submission"`
	TakedownDefense *int `yaml:"takedown_defense"`
	Versatility     *int `yaml:"versatility"`
}

// Resolve fills unset stats with archetype a's defaults.
func (sp StatsSpec) Resolve(a Archetype) Stats {
	s := DefaultStats(a)
	pick := func(p *int, fallback int) int {
		if p != nil {
			return *p
		}
		return fallback
	}
	s.Striking = pick(sp.Striking, s.Striking)
	s.Grappling = pick(sp.Grappling, s.Grappling)
	s.Speed = pick(sp.Speed, s.Speed)
	s.TakedownDefense = pick(sp.TakedownDefense, s.TakedownDefense)
	s.Versatility = pick(sp.Versatility, s.Versatility)

	kick, sub := s.KickPower, s.Submission
	if a != Striker && a != Hybrid {
		kick = s.Striking
	}
	if a != Grappler && a != Hybrid {
		sub = s.Grappling
	}
	s.KickPower = pick(sp.KickPower, kick)
	s.Submission = pick(sp.Submission, sub)
	return s
}
