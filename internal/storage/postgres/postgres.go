// Package postgres persists fighters and bout results in PostgreSQL using pgx v5.
// The schema ships embedded and is applied with golang-migrate.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/fightsim/internal/config"
)

// Store combines the fighter and bout repositories into a league.Repository.
type Store struct {
	*FighterRepository
	*BoutRepository
	db    *pgxpool.Pool
	owned bool
}

// Open connects a pool sized by cfg and returns a Store that owns it.
//
// Postcondition: the database answered a ping, or a non-nil error is returned
// and nothing is left open.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	if logger != nil {
		logger.Info("postgres connected",
			zap.String("host", cfg.Host),
			zap.String("database", cfg.Name),
			zap.Int32("max_conns", cfg.MaxConns),
		)
	}
	s := NewStore(db)
	s.owned = true
	return s, nil
}

// NewStore serves the repositories over an existing pool. Close leaves a
// borrowed pool open.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		FighterRepository: NewFighterRepository(db),
		BoutRepository:    NewBoutRepository(db),
		db:                db,
	}
}

// Counts returns the number of stored fighters and bout results.
func (s *Store) Counts(ctx context.Context) (int, int, error) {
	var fighters, bouts int
	err := s.db.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM fighters), (SELECT COUNT(*) FROM bouts)`,
	).Scan(&fighters, &bouts)
	if err != nil {
		return 0, 0, fmt.Errorf("counting rows: %w", err)
	}
	return fighters, bouts, nil
}

// Health pings the database within timeout.
func (s *Store) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.db.Ping(ctx)
}

// Close releases the pool when the Store opened it.
func (s *Store) Close() error {
	if s.owned {
		s.db.Close()
	}
	return nil
}
