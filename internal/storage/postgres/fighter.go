package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/fightsim/internal/game/fighter"
	"github.com/cory-johannsen/fightsim/internal/storage"
)

// FighterRepository provides fighter persistence operations.
type FighterRepository struct {
	db *pgxpool.Pool
}

// NewFighterRepository creates a FighterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewFighterRepository(db *pgxpool.Pool) *FighterRepository {
	return &FighterRepository{db: db}
}

// Add inserts f.
//
// Precondition: f must carry a non-empty ID and name.
// Postcondition: returns storage.ErrDuplicateFighter when f.ID is taken.
func (r *FighterRepository) Add(ctx context.Context, f *fighter.Fighter) error {
	if err := storage.CheckFighter(f); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO fighters (`+storage.FighterColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		storage.FighterArgs(f)...,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateFighter
		}
		return fmt.Errorf("inserting fighter: %w", err)
	}
	return nil
}

// Update overwrites the stored fighter with f.
//
// Postcondition: returns storage.ErrFighterNotFound if no row was updated.
func (r *FighterRepository) Update(ctx context.Context, f *fighter.Fighter) error {
	if err := storage.CheckFighter(f); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE fighters SET
			name = $2, weight_class = $3, archetype = $4,
			striking = $5, grappling = $6, speed = $7, kick_power = $8,
			submission = $9, takedown_defense = $10, versatility = $11,
			wins = $12, losses = $13, draws = $14, knockout_wins = $15,
			submission_wins = $16, titles = $17, updated_at = NOW()
		WHERE id = $1`,
		storage.FighterArgs(f)...,
	)
	if err != nil {
		return fmt.Errorf("updating fighter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrFighterNotFound
	}
	return nil
}

// Delete removes the fighter with id.
func (r *FighterRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM fighters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting fighter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrFighterNotFound
	}
	return nil
}

// GetByID retrieves a fighter by its primary key.
//
// Postcondition: Returns the Fighter or storage.ErrFighterNotFound.
func (r *FighterRepository) GetByID(ctx context.Context, id string) (*fighter.Fighter, error) {
	f, err := storage.ScanFighter(r.db.QueryRow(ctx,
		`SELECT `+storage.FighterColumns+` FROM fighters WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrFighterNotFound
		}
		return nil, fmt.Errorf("querying fighter: %w", err)
	}
	return f, nil
}

// GetAll returns every fighter in leaderboard order.
func (r *FighterRepository) GetAll(ctx context.Context) ([]*fighter.Fighter, error) {
	return r.list(ctx, `SELECT `+storage.FighterColumns+` FROM fighters`)
}

// FindByName matches a case-insensitive substring of the name.
func (r *FighterRepository) FindByName(ctx context.Context, query string) ([]*fighter.Fighter, error) {
	return r.list(ctx,
		`SELECT `+storage.FighterColumns+` FROM fighters WHERE strpos(lower(name), lower($1)) > 0`,
		query,
	)
}

// ByWeightClass returns the fighters in wc.
func (r *FighterRepository) ByWeightClass(ctx context.Context, wc fighter.WeightClass) ([]*fighter.Fighter, error) {
	return r.list(ctx, `SELECT `+storage.FighterColumns+` FROM fighters WHERE weight_class = $1`, string(wc))
}

func (r *FighterRepository) list(ctx context.Context, query string, args ...any) ([]*fighter.Fighter, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing fighters: %w", err)
	}
	defer rows.Close()

	out := make([]*fighter.Fighter, 0)
	for rows.Next() {
		f, err := storage.ScanFighter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning fighter row: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Ordering is done in Go so every backend agrees on ties.
	fighter.SortByRecord(out)
	return out, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
