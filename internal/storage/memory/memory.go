// Package memory provides an in-process fighter and bout store. It is the
// default backend and the reference behavior the SQL backends are tested
// against.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/cory-johannsen/fightsim/internal/game/bout"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
	"github.com/cory-johannsen/fightsim/internal/storage"
)

// Store keeps fighters and bout results in maps guarded by a RWMutex.
// Stored values are cloned on the way in and out so callers never share
// memory with the store.
type Store struct {
	mu       sync.RWMutex
	fighters map[string]*fighter.Fighter
	bouts    []bout.Result
	boutIDs  map[string]struct{}
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		fighters: make(map[string]*fighter.Fighter),
		boutIDs:  make(map[string]struct{}),
	}
}

// Add stores f.
//
// Postcondition: returns storage.ErrDuplicateFighter when f.ID is taken.
func (s *Store) Add(_ context.Context, f *fighter.Fighter) error {
	if err := storage.CheckFighter(f); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fighters[f.ID]; ok {
		return storage.ErrDuplicateFighter
	}
	s.fighters[f.ID] = f.Clone()
	return nil
}

// Update replaces the stored fighter with f.
//
// Postcondition: returns storage.ErrFighterNotFound when f.ID is unknown.
func (s *Store) Update(_ context.Context, f *fighter.Fighter) error {
	if err := storage.CheckFighter(f); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fighters[f.ID]; !ok {
		return storage.ErrFighterNotFound
	}
	s.fighters[f.ID] = f.Clone()
	return nil
}

// Delete removes the fighter with id. Bout history is kept.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fighters[id]; !ok {
		return storage.ErrFighterNotFound
	}
	delete(s.fighters, id)
	return nil
}

// GetByID returns a copy of the fighter with id.
func (s *Store) GetByID(_ context.Context, id string) (*fighter.Fighter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fighters[id]
	if !ok {
		return nil, storage.ErrFighterNotFound
	}
	return f.Clone(), nil
}

// GetAll returns every fighter in leaderboard order.
func (s *Store) GetAll(_ context.Context) ([]*fighter.Fighter, error) {
	return s.filter(func(*fighter.Fighter) bool { return true }), nil
}

// FindByName returns fighters whose name contains query, case-insensitively.
func (s *Store) FindByName(_ context.Context, query string) ([]*fighter.Fighter, error) {
	q := strings.ToLower(query)
	return s.filter(func(f *fighter.Fighter) bool {
		return strings.Contains(strings.ToLower(f.Name), q)
	}), nil
}

// ByWeightClass returns the fighters in wc.
func (s *Store) ByWeightClass(_ context.Context, wc fighter.WeightClass) ([]*fighter.Fighter, error) {
	return s.filter(func(f *fighter.Fighter) bool { return f.WeightClass == wc }), nil
}

func (s *Store) filter(keep func(*fighter.Fighter) bool) []*fighter.Fighter {
	s.mu.RLock()
	out := make([]*fighter.Fighter, 0, len(s.fighters))
	for _, f := range s.fighters {
		if keep(f) {
			out = append(out, f.Clone())
		}
	}
	s.mu.RUnlock()
	fighter.SortByRecord(out)
	return out
}

// SaveBoutResult appends r to the history.
func (s *Store) SaveBoutResult(_ context.Context, r bout.Result) error {
	if err := storage.CheckResult(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.boutIDs[r.ID]; ok {
		return storage.ErrDuplicateBout
	}
	s.boutIDs[r.ID] = struct{}{}
	s.bouts = append(s.bouts, r)
	return nil
}

// GetHistory returns up to limit results, newest first. limit < 1 returns all.
func (s *Store) GetHistory(_ context.Context, limit int) ([]bout.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := storage.HistoryLimit(limit, len(s.bouts))
	out := make([]bout.Result, 0, n)
	for i := len(s.bouts) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.bouts[i])
	}
	return out, nil
}

// Counts returns the number of stored fighters and bout results.
func (s *Store) Counts(_ context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fighters), len(s.bouts), nil
}

// Close is a no-op; it lets Store satisfy the same lifecycle as the SQL backends.
func (s *Store) Close() error { return nil }
