// Package storage holds what every persistence backend shares: sentinel
// errors and input checks. The backends live in the memory, sqlite and
// postgres subpackages.
package storage

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/fightsim/internal/game/bout"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
)

// ErrFighterNotFound is returned when a fighter lookup, update or delete
// matches no stored fighter.
var ErrFighterNotFound = errors.New("fighter not found")

// ErrDuplicateFighter is returned when adding a fighter whose ID is already stored.
var ErrDuplicateFighter = errors.New("fighter already exists")

// ErrDuplicateBout is returned when saving a bout result whose ID is already stored.
var ErrDuplicateBout = errors.New("bout result already exists")

// CheckFighter rejects fighters that cannot be persisted.
//
// Postcondition: nil return guarantees f is non-nil with a non-empty ID and name.
func CheckFighter(f *fighter.Fighter) error {
	if f == nil {
		return errors.New("storage: fighter must not be nil")
	}
	if f.ID == "" || f.Name == "" {
		return fmt.Errorf("storage: fighter id and name must be non-empty (id=%q)", f.ID)
	}
	return nil
}

// CheckResult rejects bout results that cannot be persisted.
func CheckResult(r bout.Result) error {
	if r.ID == "" {
		return errors.New("storage: bout result id must be non-empty")
	}
	if r.Fighter1ID == "" || r.Fighter2ID == "" {
		return fmt.Errorf("storage: bout %q must reference both fighters", r.ID)
	}
	return nil
}

// HistoryLimit normalizes a history limit: values below 1 mean "all".
func HistoryLimit(limit, total int) int {
	if limit < 1 || limit > total {
		return total
	}
	return limit
}
