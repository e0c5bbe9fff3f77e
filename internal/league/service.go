package league

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fightsim/internal/game/arena"
	"github.com/cory-johannsen/fightsim/internal/game/bout"
	"github.com/cory-johannsen/fightsim/internal/game/dice"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
	"github.com/cory-johannsen/fightsim/internal/game/gym"
	"github.com/cory-johannsen/fightsim/internal/game/tournament"
	"github.com/cory-johannsen/fightsim/internal/narrative"
	"github.com/cory-johannsen/fightsim/internal/observability"
	"github.com/cory-johannsen/fightsim/internal/storage"
)

// BoutReport is the outcome of a resolved bout. Persisted is false when any
// write failed; the in-memory result is still authoritative.
type BoutReport struct {
	Result    bout.Result
	Fighter1  *fighter.Fighter
	Fighter2  *fighter.Fighter
	Persisted bool
}

// TournamentReport is the outcome of a tournament.
type TournamentReport struct {
	Bracket   *tournament.Bracket
	Persisted bool
}

// Service orchestrates the engine over a Repository.
//
// Mutating operations are serialized so the shared random source and the
// resolver's history see a single writer.
type Service struct {
	mu          sync.Mutex
	repo        Repository
	resolver    *bout.Resolver
	scheduler   *tournament.Scheduler
	src         dice.Source
	commentator narrative.Commentator
	rack        *gym.Rack
	logger      *zap.Logger
}

// NewService wires a Service.
//
// Precondition: repo and src must be non-nil. A nil commentator uses
// narrative.Static; a nil logger is replaced by a no-op logger.
func NewService(repo Repository, src dice.Source, commentator narrative.Commentator, logger *zap.Logger) *Service {
	if repo == nil || src == nil {
		panic("league: NewService precondition violated: repo and src must be non-nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	resolver := bout.NewResolver(src, nil, logger)
	return &Service{
		repo:        repo,
		resolver:    resolver,
		scheduler:   tournament.NewScheduler(resolver, src),
		src:         src,
		commentator: narrative.NewSafe(commentator, nil, logger),
		rack:        gym.DefaultRack(),
		logger:      logger,
	}
}

// Source returns the service's random source.
func (s *Service) Source() dice.Source { return s.src }

// Register stores a new fighter.
//
// Postcondition: stats are clamped to [0, 100] before the write; persisted
// reports whether the write succeeded.
func (s *Service) Register(ctx context.Context, f *fighter.Fighter) (persisted bool, err error) {
	if err := storage.CheckFighter(f); err != nil {
		return false, err
	}
	f.Stats = f.Stats.Clamped()
	if err := s.repo.Add(ctx, f); err != nil {
		if errors.Is(err, storage.ErrDuplicateFighter) {
			return false, err
		}
		s.persistFailed("add fighter", err, observability.FighterFields(f)...)
		return false, nil
	}
	s.logger.Info("fighter registered", observability.FighterFields(f)...)
	return true, nil
}

// Seed registers every fighter in roster whose ID is not stored yet and
// returns how many were added.
func (s *Service) Seed(ctx context.Context, roster []*fighter.Fighter) (int, error) {
	added := 0
	for _, f := range roster {
		_, err := s.repo.GetByID(ctx, f.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrFighterNotFound) {
			return added, fmt.Errorf("seeding %q: %w", f.ID, err)
		}
		ok, err := s.Register(ctx, f)
		if err != nil {
			return added, fmt.Errorf("seeding %q: %w", f.ID, err)
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// Fighter returns the stored fighter with id.
func (s *Service) Fighter(ctx context.Context, id string) (*fighter.Fighter, error) {
	return s.repo.GetByID(ctx, id)
}

// Roster returns every fighter in leaderboard order.
func (s *Service) Roster(ctx context.Context) ([]*fighter.Fighter, error) {
	return s.repo.GetAll(ctx)
}

// Find returns fighters whose name contains query.
func (s *Service) Find(ctx context.Context, query string) ([]*fighter.Fighter, error) {
	return s.repo.FindByName(ctx, query)
}

// Division returns the fighters in wc.
func (s *Service) Division(ctx context.Context, wc fighter.WeightClass) ([]*fighter.Fighter, error) {
	return s.repo.ByWeightClass(ctx, wc)
}

// Remove deletes a fighter. Bout history that names it is kept.
func (s *Service) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Delete(ctx, id)
}

// Train runs drill d on the stored fighter and saves the result.
//
// Postcondition: drill errors leave the stored fighter unchanged.
func (s *Service) Train(ctx context.Context, id string, d fighter.Drill) (*fighter.Fighter, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if err := f.Train(d); err != nil {
		return nil, false, err
	}
	return f, s.save(ctx, "update fighter", f), nil
}

// TrainWith runs drill d for fighter id on the gym equipment gearID. The
// rack lives in memory only; its wear is committed only once the trained
// fighter has been saved, so a failed write leaves the gear as it was.
//
// Postcondition: on error neither the fighter nor the equipment changes.
// When persisted is false the returned fighter is not stored and the gear
// is not worn.
func (s *Service) TrainWith(ctx context.Context, id string, d fighter.Drill, gearID string) (*fighter.Fighter, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	eq, err := s.rack.Get(gearID)
	if err != nil {
		return nil, false, err
	}
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	used := *eq
	if err := gym.Train(f, d, &used); err != nil {
		return nil, false, err
	}
	if !s.save(ctx, "update fighter", f) {
		return f, false, nil
	}
	*eq = used
	s.logger.Debug("gym session",
		zap.String("fighter", f.ID),
		zap.Stringer("drill", d),
		zap.String("gear", eq.ID),
		zap.Int("condition", eq.Condition),
	)
	return f, true, nil
}

// Gear lists the gym equipment.
func (s *Service) Gear() []gym.Equipment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rack.Items()
}

// Repair restores gym.DefaultRepair condition to gearID.
func (s *Service) Repair(gearID string) (gym.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	eq, err := s.rack.Get(gearID)
	if err != nil {
		return gym.Equipment{}, err
	}
	eq.Repair(gym.DefaultRepair)
	return *eq, nil
}

// Bout resolves a simulated bout between the stored fighters id1 and id2 and
// persists both records and the result.
func (s *Service) Bout(ctx context.Context, id1, id2 string) (BoutReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, b, err := s.pair(ctx, id1, id2)
	if err != nil {
		return BoutReport{}, err
	}
	res, err := s.resolver.Resolve(a, b)
	if err != nil {
		return BoutReport{}, err
	}
	s.logger.Info("bout resolved", observability.BoutFields(res)...)
	ok := s.commit(ctx, []bout.Result{res}, a, b)
	return BoutReport{Result: res, Fighter1: a, Fighter2: b, Persisted: ok}, nil
}

// Tournament runs a single-elimination bracket over the stored fighters ids,
// or over the whole roster when ids is empty.
//
// Postcondition: validation errors and resolver failures persist nothing.
func (s *Service) Tournament(ctx context.Context, ids []string) (TournamentReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var roster []*fighter.Fighter
	if len(ids) == 0 {
		all, err := s.repo.GetAll(ctx)
		if err != nil {
			return TournamentReport{}, err
		}
		roster = all
	} else {
		for _, id := range ids {
			f, err := s.repo.GetByID(ctx, id)
			if err != nil {
				return TournamentReport{}, fmt.Errorf("loading %q: %w", id, err)
			}
			roster = append(roster, f)
		}
	}
	br, err := s.scheduler.Run(roster)
	if err != nil {
		return TournamentReport{}, err
	}
	s.logger.Info("tournament complete",
		zap.Int("entrants", len(roster)),
		zap.Int("bouts", br.Bouts()),
		zap.String("champion", br.Champion.Name),
	)
	ok := s.commit(ctx, br.Results(), roster...)
	return TournamentReport{Bracket: br, Persisted: ok}, nil
}

// NewArenaSession loads the stored fighters and places them in a live arena.
// The session is not tracked; hand its result to RecordArenaResult.
func (s *Service) NewArenaSession(ctx context.Context, redID, blueID string, cfg arena.SessionConfig) (*arena.Session, error) {
	red, blue, err := s.pair(ctx, redID, blueID)
	if err != nil {
		return nil, err
	}
	return arena.NewSession(red, blue, cfg, s.src, s.logger)
}

// RecordArenaResult applies a finished arena bout to the stored records and
// saves the result.
func (s *Service) RecordArenaResult(ctx context.Context, r bout.Result) (BoutReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, b, err := s.pair(ctx, r.Fighter1ID, r.Fighter2ID)
	if err != nil {
		return BoutReport{}, err
	}
	if err := bout.ApplyRecords(r, a, b); err != nil {
		return BoutReport{}, err
	}
	s.resolver.History().Append(r)
	s.logger.Info("arena result recorded", observability.BoutFields(r)...)
	ok := s.commit(ctx, []bout.Result{r}, a, b)
	return BoutReport{Result: r, Fighter1: a, Fighter2: b, Persisted: ok}, nil
}

// History returns up to limit stored results, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]bout.Result, error) {
	return s.repo.GetHistory(ctx, limit)
}

// Stats summarizes the stored history.
func (s *Service) Stats(ctx context.Context) (bout.Stats, error) {
	all, err := s.repo.GetHistory(ctx, 0)
	if err != nil {
		return bout.Stats{}, err
	}
	st := bout.Summarize(all)
	if len(all) > 0 {
		// GetHistory is newest first.
		latest := all[0]
		st.Latest = &latest
	}
	return st, nil
}

// SessionHistory returns the results resolved by this process, oldest first.
func (s *Service) SessionHistory() []bout.Result {
	return s.resolver.History().Entries()
}

// Preview returns matchup commentary for two stored fighters. It degrades to
// static text when the commentator fails.
func (s *Service) Preview(ctx context.Context, id1, id2 string) (string, error) {
	a, b, err := s.pair(ctx, id1, id2)
	if err != nil {
		return "", err
	}
	return s.commentator.Analyze(ctx, a, b)
}

func (s *Service) pair(ctx context.Context, id1, id2 string) (*fighter.Fighter, *fighter.Fighter, error) {
	if id1 == id2 {
		return nil, nil, &bout.ValidationError{Reason: fmt.Sprintf("fighter %q cannot fight itself", id1)}
	}
	a, err := s.repo.GetByID(ctx, id1)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %q: %w", id1, err)
	}
	b, err := s.repo.GetByID(ctx, id2)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %q: %w", id2, err)
	}
	return a, b, nil
}

// commit writes fighters then results. Every write is attempted even after a
// failure.
func (s *Service) commit(ctx context.Context, results []bout.Result, fighters ...*fighter.Fighter) bool {
	ok := true
	for _, f := range fighters {
		ok = s.save(ctx, "update fighter", f) && ok
	}
	for _, r := range results {
		if err := s.repo.SaveBoutResult(ctx, r); err != nil {
			s.persistFailed("save bout result", err, observability.BoutFields(r)...)
			ok = false
		}
	}
	return ok
}

func (s *Service) save(ctx context.Context, op string, f *fighter.Fighter) bool {
	if err := s.repo.Update(ctx, f); err != nil {
		s.persistFailed(op, err, observability.FighterFields(f)...)
		return false
	}
	return true
}

func (s *Service) persistFailed(op string, err error, fields ...zap.Field) {
	s.logger.Warn("league: persistence failure",
		append([]zap.Field{zap.String("op", op), zap.Error(err)}, fields...)...,
	)
}
