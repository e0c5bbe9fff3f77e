// Package tournament runs single-elimination brackets over the bout resolver.
package tournament

import (
	"fmt"

	"github.com/cory-johannsen/fightsim/internal/game/bout"
	"github.com/cory-johannsen/fightsim/internal/game/dice"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
)

// MinRoster is the smallest roster a tournament accepts.
const MinRoster = 2

// InvalidRosterError is returned when the roster cannot form a bracket.
type InvalidRosterError struct {
	Reason string
}

func (e *InvalidRosterError) Error() string {
	return "tournament: invalid roster: " + e.Reason
}

// BoutResolver resolves a single bout. *bout.Resolver satisfies it.
type BoutResolver interface {
	Resolve(a, b *fighter.Fighter) (bout.Result, error)
}

// Pairing is one bout of a round.
type Pairing struct {
	Fighter1ID string
	Fighter2ID string
	Result     bout.Result
}

// Round is the shuffled field of one stage of the bracket. The last round of
// a completed bracket has a single entrant, the champion, and no pairings.
type Round struct {
	Number   int
	Entrants []string
	Pairings []Pairing
	// Bye is the id of the fighter who advanced without a bout, if any.
	Bye string
}

// Size returns the number of entrants in the round.
func (r Round) Size() int { return len(r.Entrants) }

// Bracket is the completed tournament.
type Bracket struct {
	Rounds   []Round
	Champion *fighter.Fighter
}

// Bouts returns the number of bouts resolved across all rounds.
func (b *Bracket) Bouts() int {
	n := 0
	for _, r := range b.Rounds {
		n += len(r.Pairings)
	}
	return n
}

// Results returns every bout result in the order it was resolved.
func (b *Bracket) Results() []bout.Result {
	out := make([]bout.Result, 0, b.Bouts())
	for _, r := range b.Rounds {
		for _, p := range r.Pairings {
			out = append(out, p.Result)
		}
	}
	return out
}

// Scheduler drives a bracket using a shared random source for shuffling.
type Scheduler struct {
	resolver BoutResolver
	src      dice.Source
}

// NewScheduler creates a Scheduler.
//
// Precondition: resolver and src must be non-nil. Tests should pass the same
// seeded source the resolver uses so the whole bracket is reproducible.
func NewScheduler(resolver BoutResolver, src dice.Source) *Scheduler {
	if resolver == nil || src == nil {
		panic("tournament: NewScheduler precondition violated: resolver and src must be non-nil")
	}
	return &Scheduler{resolver: resolver, src: src}
}

// Validate checks that roster can form a bracket.
func Validate(roster []*fighter.Fighter) error {
	if len(roster) < MinRoster {
		return &InvalidRosterError{Reason: fmt.Sprintf("need at least %d fighters, got %d", MinRoster, len(roster))}
	}
	seen := make(map[string]bool, len(roster))
	for i, f := range roster {
		if f == nil {
			return &InvalidRosterError{Reason: fmt.Sprintf("entry %d is nil", i)}
		}
		if seen[f.ID] {
			return &InvalidRosterError{Reason: fmt.Sprintf("duplicate fighter %q", f.ID)}
		}
		seen[f.ID] = true
	}
	return nil
}

// Run plays the tournament to completion. Each round's survivors are
// shuffled and paired consecutively; an odd fighter out advances without a
// bout. The champion's record gains a title.
//
// Postcondition: on success exactly one champion is returned and
// len(roster)-1 bouts were resolved. Validation errors occur before any bout.
func (s *Scheduler) Run(roster []*fighter.Fighter) (*Bracket, error) {
	if err := Validate(roster); err != nil {
		return nil, err
	}

	survivors := append([]*fighter.Fighter(nil), roster...)
	bracket := &Bracket{}
	for number := 1; ; number++ {
		s.shuffle(survivors)
		round := Round{Number: number, Entrants: ids(survivors)}
		if len(survivors) == 1 {
			bracket.Rounds = append(bracket.Rounds, round)
			break
		}

		next := make([]*fighter.Fighter, 0, (len(survivors)+1)/2)
		for i := 0; i+1 < len(survivors); i += 2 {
			a, b := survivors[i], survivors[i+1]
			res, err := s.resolver.Resolve(a, b)
			if err != nil {
				return nil, fmt.Errorf("round %d: %w", number, err)
			}
			round.Pairings = append(round.Pairings, Pairing{Fighter1ID: a.ID, Fighter2ID: b.ID, Result: res})
			if res.WinnerID == a.ID {
				next = append(next, a)
			} else {
				next = append(next, b)
			}
		}
		if len(survivors)%2 == 1 {
			odd := survivors[len(survivors)-1]
			round.Bye = odd.ID
			next = append(next, odd)
		}
		bracket.Rounds = append(bracket.Rounds, round)
		survivors = next
	}

	bracket.Champion = survivors[0]
	bracket.Champion.Record.AddTitle()
	return bracket, nil
}

// shuffle is a Fisher-Yates shuffle over src.
func (s *Scheduler) shuffle(fs []*fighter.Fighter) {
	for i := len(fs) - 1; i > 0; i-- {
		j := s.src.Intn(i + 1)
		fs[i], fs[j] = fs[j], fs[i]
	}
}

func ids(fs []*fighter.Fighter) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.ID
	}
	return out
}
