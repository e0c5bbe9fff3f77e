// Package league ties the fight engine to persistence and commentary: it
// registers fighters, resolves simulated bouts and tournaments, and records
// finished arena bouts.
package league

import (
	"context"

	"github.com/cory-johannsen/fightsim/internal/game/bout"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
)

// Repository is the persistence collaborator. Implementations live under
// internal/storage and report misses with storage.ErrFighterNotFound.
type Repository interface {
	Add(ctx context.Context, f *fighter.Fighter) error
	Update(ctx context.Context, f *fighter.Fighter) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*fighter.Fighter, error)
	// GetAll returns every fighter, most wins first.
	GetAll(ctx context.Context) ([]*fighter.Fighter, error)
	// FindByName matches a case-insensitive substring of the name.
	FindByName(ctx context.Context, query string) ([]*fighter.Fighter, error)
	ByWeightClass(ctx context.Context, wc fighter.WeightClass) ([]*fighter.Fighter, error)
	SaveBoutResult(ctx context.Context, r bout.Result) error
	// GetHistory returns up to limit results, newest first; limit < 1 means all.
	GetHistory(ctx context.Context, limit int) ([]bout.Result, error)
	Counts(ctx context.Context) (fighters, bouts int, err error)
}
