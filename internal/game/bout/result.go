package bout

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/fightsim/internal/game/fighter"
)

// Kind says which engine produced a result.
type Kind string

const (
	KindSimulated Kind = "simulated"
	KindArena     Kind = "arena"
)

// Result is an immutable record of one resolved bout. Fighters are referenced
// by id; names are captured for display so history survives roster changes.
//
// Invariant: Draw is true iff WinnerID is empty.
type Result struct {
	ID           string
	Kind         Kind
	Fighter1ID   string
	Fighter2ID   string
	Fighter1Name string
	Fighter2Name string
	WinnerID     string
	Method       Method
	Score1       float64
	Score2       float64
	Draw         bool
	At           time.Time
}

// WinnerName returns the winner's captured name, or "" on a draw.
func (r Result) WinnerName() string {
	switch r.WinnerID {
	case "":
		return ""
	case r.Fighter1ID:
		return r.Fighter1Name
	default:
		return r.Fighter2Name
	}
}

// LoserID returns the loser's id, or "" on a draw.
func (r Result) LoserID() string {
	switch r.WinnerID {
	case "":
		return ""
	case r.Fighter1ID:
		return r.Fighter2ID
	default:
		return r.Fighter1ID
	}
}

func (r Result) String() string {
	if r.Draw {
		return fmt.Sprintf("%s vs %s: draw (%s) %.2f-%.2f", r.Fighter1Name, r.Fighter2Name, r.Method, r.Score1, r.Score2)
	}
	return fmt.Sprintf("%s vs %s: %s by %s %.2f-%.2f", r.Fighter1Name, r.Fighter2Name, r.WinnerName(), r.Method, r.Score1, r.Score2)
}

// ApplyRecords updates f1 and f2's records for a result produced outside the
// Resolver, such as an arena bout: the winner gains a win by r.Method's
// finish and the loser a loss, or both gain a draw.
//
// Precondition: f1 and f2 are the fighters r names, in order.
// Postcondition: on error neither record changes.
func ApplyRecords(r Result, f1, f2 *fighter.Fighter) error {
	if f1 == nil || f2 == nil || f1.ID != r.Fighter1ID || f2.ID != r.Fighter2ID {
		return &ValidationError{Reason: fmt.Sprintf("result %q does not match the supplied fighters", r.ID)}
	}
	if r.Draw {
		f1.Record.AddDraw()
		f2.Record.AddDraw()
		return nil
	}
	switch r.WinnerID {
	case f1.ID:
		f1.Record.AddWin(r.Method.Finish())
		f2.Record.AddLoss()
	case f2.ID:
		f2.Record.AddWin(r.Method.Finish())
		f1.Record.AddLoss()
	default:
		return &ValidationError{Reason: fmt.Sprintf("result %q winner %q fought in neither corner", r.ID, r.WinnerID)}
	}
	return nil
}
