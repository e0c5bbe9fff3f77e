package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/fightsim/internal/game/bout"
	"github.com/cory-johannsen/fightsim/internal/storage"
)

// BoutRepository stores the append-only bout history.
type BoutRepository struct {
	db *pgxpool.Pool
}

// NewBoutRepository creates a BoutRepository backed by the given pool.
func NewBoutRepository(db *pgxpool.Pool) *BoutRepository {
	return &BoutRepository{db: db}
}

// SaveBoutResult appends r.
//
// Postcondition: returns storage.ErrDuplicateBout when r.ID is already stored.
func (r *BoutRepository) SaveBoutResult(ctx context.Context, res bout.Result) error {
	if err := storage.CheckResult(res); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO bouts
			(id, kind, fighter1_id, fighter2_id, fighter1_name, fighter2_name,
			 winner_id, method, score1, score2, draw, fought_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		res.ID, string(res.Kind), res.Fighter1ID, res.Fighter2ID, res.Fighter1Name, res.Fighter2Name,
		res.WinnerID, string(res.Method), res.Score1, res.Score2, res.Draw, res.At,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateBout
		}
		return fmt.Errorf("inserting bout: %w", err)
	}
	return nil
}

// GetHistory returns up to limit results, newest first. limit < 1 returns all.
func (r *BoutRepository) GetHistory(ctx context.Context, limit int) ([]bout.Result, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, kind, fighter1_id, fighter2_id, fighter1_name, fighter2_name,
		       winner_id, method, score1, score2, draw, fought_at
		FROM bouts ORDER BY seq DESC LIMIT $1`,
		lim,
	)
	if err != nil {
		return nil, fmt.Errorf("listing bouts: %w", err)
	}
	defer rows.Close()

	out := make([]bout.Result, 0)
	for rows.Next() {
		var (
			res          bout.Result
			kind, method string
		)
		if err := rows.Scan(
			&res.ID, &kind, &res.Fighter1ID, &res.Fighter2ID, &res.Fighter1Name, &res.Fighter2Name,
			&res.WinnerID, &method, &res.Score1, &res.Score2, &res.Draw, &res.At,
		); err != nil {
			return nil, fmt.Errorf("scanning bout row: %w", err)
		}
		res.Kind, res.Method = bout.Kind(kind), bout.Method(method)
		res.At = res.At.UTC()
		out = append(out, res)
	}
	return out, rows.Err()
}
