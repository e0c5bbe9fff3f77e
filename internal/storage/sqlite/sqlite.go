// Package sqlite persists fighters and bout results in a single SQLite file
// using the pure-Go modernc driver. The schema is embedded and applied with
// goose on Open.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/fightsim/internal/game/bout"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
	"github.com/cory-johannsen/fightsim/internal/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var pragmas = []struct {
	name  string
	value string
}{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
	{"foreign_keys", "ON"},
	{"temp_store", "MEMORY"},
}

// Store is a league.Repository over SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the database at path and migrates it.
// ":memory:" yields a private in-memory database.
//
// Precondition: path must be non-empty.
// Postcondition: returns a migrated Store or a non-nil error with the handle closed.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: path must be non-empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %q: %w", path, err)
	}
	// SQLite serializes writers; one connection also keeps ":memory:" databases
	// from splitting across connections.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			logger.Warn("sqlite pragma failed",
				zap.String("pragma", p.name),
				zap.String("value", p.value),
				zap.Error(err),
			)
		}
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("sqlite store ready", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running sqlite migrations: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Health pings the database within timeout.
func (s *Store) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

// Add inserts f.
//
// Postcondition: returns storage.ErrDuplicateFighter when f.ID is taken.
func (s *Store) Add(ctx context.Context, f *fighter.Fighter) error {
	if err := storage.CheckFighter(f); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fighters (`+storage.FighterColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		storage.FighterArgs(f)...,
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.ErrDuplicateFighter
		}
		return fmt.Errorf("inserting fighter: %w", err)
	}
	return nil
}

// Update overwrites every column of the stored fighter with f's values.
//
// Postcondition: returns storage.ErrFighterNotFound if no row matched.
func (s *Store) Update(ctx context.Context, f *fighter.Fighter) error {
	if err := storage.CheckFighter(f); err != nil {
		return err
	}
	args := storage.FighterArgs(f)
	res, err := s.db.ExecContext(ctx, `
		UPDATE fighters SET
			name = ?, weight_class = ?, archetype = ?,
			striking = ?, grappling = ?, speed = ?, kick_power = ?,
			submission = ?, takedown_defense = ?, versatility = ?,
			wins = ?, losses = ?, draws = ?, knockout_wins = ?,
			submission_wins = ?, titles = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		append(args[1:], f.ID)...,
	)
	if err != nil {
		return fmt.Errorf("updating fighter: %w", err)
	}
	return expectRow(res)
}

// Delete removes the fighter with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fighters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting fighter: %w", err)
	}
	return expectRow(res)
}

// GetByID retrieves a fighter.
func (s *Store) GetByID(ctx context.Context, id string) (*fighter.Fighter, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+storage.FighterColumns+` FROM fighters WHERE id = ?`, id)
	f, err := storage.ScanFighter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrFighterNotFound
		}
		return nil, fmt.Errorf("querying fighter: %w", err)
	}
	return f, nil
}

// GetAll returns every fighter in leaderboard order.
func (s *Store) GetAll(ctx context.Context) ([]*fighter.Fighter, error) {
	return s.list(ctx, `SELECT `+storage.FighterColumns+` FROM fighters`)
}

// FindByName matches a case-insensitive substring of the name. LIKE is
// case-insensitive for ASCII in SQLite.
func (s *Store) FindByName(ctx context.Context, query string) ([]*fighter.Fighter, error) {
	return s.list(ctx,
		`SELECT `+storage.FighterColumns+` FROM fighters WHERE name LIKE ? ESCAPE '\'`,
		"%"+escapeLike(query)+"%",
	)
}

// ByWeightClass returns the fighters in wc.
func (s *Store) ByWeightClass(ctx context.Context, wc fighter.WeightClass) ([]*fighter.Fighter, error) {
	return s.list(ctx, `SELECT `+storage.FighterColumns+` FROM fighters WHERE weight_class = ?`, string(wc))
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*fighter.Fighter, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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
	fighter.SortByRecord(out)
	return out, nil
}

// SaveBoutResult appends r to the history.
//
// Postcondition: returns storage.ErrDuplicateBout when r.ID is already stored.
func (s *Store) SaveBoutResult(ctx context.Context, r bout.Result) error {
	if err := storage.CheckResult(r); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bouts
			(id, kind, fighter1_id, fighter2_id, fighter1_name, fighter2_name,
			 winner_id, method, score1, score2, draw, at_unix_nano)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID, string(r.Kind), r.Fighter1ID, r.Fighter2ID, r.Fighter1Name, r.Fighter2Name,
		r.WinnerID, string(r.Method), r.Score1, r.Score2, r.Draw, r.At.UnixNano(),
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.ErrDuplicateBout
		}
		return fmt.Errorf("inserting bout: %w", err)
	}
	return nil
}

// GetHistory returns up to limit results, newest first. limit < 1 returns all.
func (s *Store) GetHistory(ctx context.Context, limit int) ([]bout.Result, error) {
	if limit < 1 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, fighter1_id, fighter2_id, fighter1_name, fighter2_name,
		       winner_id, method, score1, score2, draw, at_unix_nano
		FROM bouts ORDER BY seq DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing bouts: %w", err)
	}
	defer rows.Close()

	out := make([]bout.Result, 0)
	for rows.Next() {
		var (
			r            bout.Result
			kind, method string
			at           int64
		)
		if err := rows.Scan(
			&r.ID, &kind, &r.Fighter1ID, &r.Fighter2ID, &r.Fighter1Name, &r.Fighter2Name,
			&r.WinnerID, &method, &r.Score1, &r.Score2, &r.Draw, &at,
		); err != nil {
			return nil, fmt.Errorf("scanning bout row: %w", err)
		}
		r.Kind, r.Method = bout.Kind(kind), bout.Method(method)
		r.At = time.Unix(0, at).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Counts returns the number of stored fighters and bout results.
func (s *Store) Counts(ctx context.Context) (int, int, error) {
	var fighters, bouts int
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM fighters), (SELECT COUNT(*) FROM bouts)`,
	).Scan(&fighters, &bouts)
	if err != nil {
		return 0, 0, fmt.Errorf("counting rows: %w", err)
	}
	return fighters, bouts, nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrFighterNotFound
	}
	return nil
}

// isConstraintError reports a UNIQUE or PRIMARY KEY violation. The modernc
// driver surfaces these only through the message text.
func isConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
