package arena

import "fmt"

// AttackOutcome classifies an attack attempt. Only Landed and Missed are
// reported as events; the rest are silent no-ops.
type AttackOutcome int

const (
	Landed AttackOutcome = iota
	Missed
	OnCooldown
	Exhausted
	Incapacitated
	Frozen
)

func (o AttackOutcome) String() string {
	switch o {
	case Landed:
		return "landed"
	case Missed:
		return "missed"
	case OnCooldown:
		return "on cooldown"
	case Exhausted:
		return "exhausted"
	case Incapacitated:
		return "stunned"
	case Frozen:
		return "frozen"
	default:
		return "unknown"
	}
}

// Noop reports whether the attempt left the state untouched.
func (o AttackOutcome) Noop() bool { return o != Landed }

// EventKind is the kind of a reported arena event.
type EventKind int

const (
	EventHit EventKind = iota
	EventMiss
	EventBlock
	EventRest
	EventKO
	EventDoubleKO
)

// Event is one thing that happened during a tick.
type Event struct {
	Tick    uint64
	Kind    EventKind
	Actor   Slot
	Move    Move
	Damage  int
	Blocked bool
	Stunned bool
}

// Describe renders e as a log line using the corner names in s.
func (e Event) Describe(s State) string {
	actor := s.Corners[e.Actor].Name
	target := s.Corners[e.Actor.Other()].Name
	switch e.Kind {
	case EventHit:
		line := fmt.Sprintf("%s lands a %s on %s for %d", actor, e.Move, target, e.Damage)
		if e.Blocked {
			line += " (blocked)"
		}
		if e.Stunned {
			line += ", " + target + " is stunned"
		}
		return line
	case EventMiss:
		return fmt.Sprintf("%s throws a %s and misses", actor, e.Move)
	case EventBlock:
		return actor + " raises the guard"
	case EventRest:
		return actor + " catches a breath"
	case EventKO:
		return fmt.Sprintf("KO! %s wins", actor)
	case EventDoubleKO:
		return "Double KO! The bout is a draw"
	default:
		return ""
	}
}
