package storage

import (
	"fmt"

	"github.com/cory-johannsen/fightsim/internal/game/fighter"
)

// FighterColumns is the column list both SQL backends select and insert, in
// the order ScanFighter and FighterArgs use.
const FighterColumns = `id, name, weight_class, archetype,
	striking, grappling, speed, kick_power, submission, takedown_defense, versatility,
	wins, losses, draws, knockout_wins, submission_wins, titles`

// Scanner is satisfied by *sql.Row, *sql.Rows, pgx.Row and pgx.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// FighterArgs returns f's values in FighterColumns order.
func FighterArgs(f *fighter.Fighter) []any {
	s, r := f.Stats, f.Record
	return []any{
		f.ID, f.Name, string(f.WeightClass), f.Archetype.String(),
		s.Striking, s.Grappling, s.Speed, s.KickPower, s.Submission, s.TakedownDefense, s.Versatility,
		r.Wins, r.Losses, r.Draws, r.KnockoutWins, r.SubmissionWins, r.Titles,
	}
}

// ScanFighter reads one FighterColumns row. The caller maps its driver's
// no-rows error to ErrFighterNotFound.
func ScanFighter(row Scanner) (*fighter.Fighter, error) {
	var (
		f        fighter.Fighter
		wc, arch string
		s        = &f.Stats
		r        = &f.Record
	)
	if err := row.Scan(
		&f.ID, &f.Name, &wc, &arch,
		&s.Striking, &s.Grappling, &s.Speed, &s.KickPower, &s.Submission, &s.TakedownDefense, &s.Versatility,
		&r.Wins, &r.Losses, &r.Draws, &r.KnockoutWins, &r.SubmissionWins, &r.Titles,
	); err != nil {
		return nil, err
	}
	a, err := fighter.ParseArchetype(arch)
	if err != nil {
		return nil, fmt.Errorf("fighter %q: %w", f.ID, err)
	}
	f.Archetype = a
	f.WeightClass = fighter.WeightClass(wc)
	return &f, nil
}
