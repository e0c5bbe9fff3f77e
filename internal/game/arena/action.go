package arena

import (
	"fmt"
	"strings"
)

// Move is an attacking move. Each move has its own stamina cost, cooldown,
// reach and damage formula.
type Move int

const (
	MoveJab Move = iota
	MoveKick
	MoveGrapple
	moveCount
)

// Moves lists every attacking move.
var Moves = []Move{MoveJab, MoveKick, MoveGrapple}

func (m Move) String() string {
	switch m {
	case MoveJab:
		return "jab"
	case MoveKick:
		return "kick"
	case MoveGrapple:
		return "grapple"
	default:
		return "unknown"
	}
}

// Action is one intent a fighter can submit for a tick.
type Action int

const (
	ActionHold Action = iota
	ActionApproach
	ActionRetreat
	ActionJab
	ActionKick
	ActionGrapple
	ActionBlock
	ActionRest
)

var actionNames = map[Action]string{
	ActionHold:     "hold",
	ActionApproach: "approach",
	ActionRetreat:  "retreat",
	ActionJab:      "jab",
	ActionKick:     "kick",
	ActionGrapple:  "grapple",
	ActionBlock:    "block",
	ActionRest:     "rest",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// Move returns the attacking move for an attack action.
func (a Action) Move() (Move, bool) {
	switch a {
	case ActionJab:
		return MoveJab, true
	case ActionKick:
		return MoveKick, true
	case ActionGrapple:
		return MoveGrapple, true
	}
	return 0, false
}

// IsMovement reports whether a only steers the fighter.
func (a Action) IsMovement() bool {
	return a == ActionHold || a == ActionApproach || a == ActionRetreat
}

// UnknownMoveError is returned when an input names no known action. Invalid
// identifiers are rejected here and never reach engine state.
type UnknownMoveError struct {
	Name string
}

func (e *UnknownMoveError) Error() string {
	return fmt.Sprintf("arena: unknown move %q", e.Name)
}

// ParseAction maps a case-insensitive action name to an Action.
func ParseAction(name string) (Action, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for a, s := range actionNames {
		if s == n {
			return a, nil
		}
	}
	switch n {
	case "punch", "j":
		return ActionJab, nil
	case "k":
		return ActionKick, nil
	case "g", "takedown":
		return ActionGrapple, nil
	case "b", "guard":
		return ActionBlock, nil
	case "r", "recover":
		return ActionRest, nil
	case "wait", "stay":
		return ActionHold, nil
	}
	return ActionHold, &UnknownMoveError{Name: name}
}

// Intent is what a controller submits for one tick: an action plus, for human
// control, a free movement heading. Approach and retreat ignore Heading and
// steer relative to the opponent.
type Intent struct {
	Action  Action
	Heading Vec2
}
