// Package main manages the PostgreSQL league schema. The SQLite backend
// migrates itself on open.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"

	"github.com/cory-johannsen/fightsim/internal/config"
	"github.com/cory-johannsen/fightsim/internal/observability"
	"github.com/cory-johannsen/fightsim/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	command := flag.String("command", "up", "up, down or version")
	steps := flag.Int("steps", 0, "migrations to apply or revert (0 = all)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg.Database, *command, *steps, logger); err != nil {
		logger.Fatal("migration failed", zap.String("command", *command), zap.Error(err))
	}
}

func run(db config.DatabaseConfig, command string, steps int, logger *zap.Logger) error {
	began := time.Now()
	m, err := postgres.NewMigrator(db.DSN())
	if err != nil {
		return err
	}
	defer m.Close()

	switch command {
	case "up":
		err = apply(m, steps, m.Up)
	case "down":
		err = apply(m, -steps, m.Down)
	case "version":
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	unchanged := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !unchanged {
		return err
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return verr
	}
	logger.Info("schema",
		zap.String("command", command),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
		zap.Bool("unchanged", unchanged),
		zap.Duration("elapsed", time.Since(began)),
	)
	return nil
}

// apply moves n steps, or runs all when n is zero.
func apply(m *migrate.Migrate, n int, all func() error) error {
	if n != 0 {
		return m.Steps(n)
	}
	return all()
}
