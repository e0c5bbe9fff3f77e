// Package app builds the shared object graph from configuration. The
// binaries call these providers directly or through wire.
package app

import (
	"context"
	"fmt"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/fightsim/internal/config"
	"github.com/cory-johannsen/fightsim/internal/game/ai"
	"github.com/cory-johannsen/fightsim/internal/game/arena"
	"github.com/cory-johannsen/fightsim/internal/game/dice"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
	"github.com/cory-johannsen/fightsim/internal/league"
	"github.com/cory-johannsen/fightsim/internal/narrative"
	"github.com/cory-johannsen/fightsim/internal/observability"
	"github.com/cory-johannsen/fightsim/internal/scripting"
	"github.com/cory-johannsen/fightsim/internal/storage/memory"
	"github.com/cory-johannsen/fightsim/internal/storage/postgres"
	"github.com/cory-johannsen/fightsim/internal/storage/sqlite"
)

// ProviderSet is the wire set for everything below the transport layer.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideSource,
	ProvideRoller,
	ProvideRepository,
	ProvideCommentator,
	ProvideScripts,
	ProvidePolicies,
	ProvideSessionConfig,
	ProvideLeague,
)

// ProvideLogger builds the zap logger.
func ProvideLogger(cfg config.Config) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideSource returns a seeded source when random.seed is set, otherwise a
// crypto-backed one.
func ProvideSource(cfg config.Config) dice.Source {
	if cfg.Random.Seed != 0 {
		return dice.NewSeededSource(cfg.Random.Seed)
	}
	return dice.NewCryptoSource()
}

// ProvideRoller wraps src in a logging dice roller.
func ProvideRoller(src dice.Source, logger *zap.Logger) *dice.Roller {
	return dice.NewLoggedRoller(src, logger)
}

// ProvideRepository opens the configured storage backend. The cleanup closes it.
func ProvideRepository(ctx context.Context, cfg config.Config, logger *zap.Logger) (league.Repository, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Storage.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		s := memory.NewStore()
		return s, func() { _ = s.Close() }, nil
	}
}

// ProvideCommentator returns the Anthropic commentator when narrative is
// enabled, otherwise nil so the league falls back to static commentary.
func ProvideCommentator(cfg config.Config, logger *zap.Logger) (narrative.Commentator, error) {
	if !cfg.Narrative.Enabled {
		return nil, nil
	}
	c, err := narrative.NewAnthropicCommentator(cfg.Narrative)
	if err != nil {
		return nil, err
	}
	logger.Info("narrative enabled", zap.String("model", cfg.Narrative.Model))
	return c, nil
}

// ProvideScripts creates the Lua manager and loads policy.script_dir into the
// global VM when set.
func ProvideScripts(cfg config.Config, roller *dice.Roller, logger *zap.Logger) (*scripting.Manager, func(), error) {
	mgr := scripting.NewManager(roller, logger)
	if cfg.Policy.ScriptDir != "" {
		if err := mgr.LoadGlobal(cfg.Policy.ScriptDir, cfg.Policy.InstructionLimit); err != nil {
			mgr.Close()
			return nil, nil, fmt.Errorf("loading policy scripts: %w", err)
		}
	}
	return mgr, mgr.Close, nil
}

// ProvidePolicies registers the built-in domain plus any in policy.domain_dir.
//
// Postcondition: the configured policy.domain is registered.
func ProvidePolicies(cfg config.Config, scripts *scripting.Manager, logger *zap.Logger) (*ai.Registry, error) {
	reg := ai.NewRegistry()
	domains := []*ai.Domain{ai.DefaultDomain()}
	if cfg.Policy.DomainDir != "" {
		extra, err := ai.LoadDomains(cfg.Policy.DomainDir)
		if err != nil {
			return nil, err
		}
		domains = append(domains, extra...)
	}
	for _, d := range domains {
		if err := reg.Register(d, scripts, cfg.Policy.InstructionLimit); err != nil {
			return nil, err
		}
	}
	if _, ok := reg.PlannerFor(cfg.Policy.Domain); !ok {
		return nil, fmt.Errorf("policy domain %q is not registered (have %v)", cfg.Policy.Domain, reg.IDs())
	}
	logger.Info("policies loaded", zap.Strings("domains", reg.IDs()))
	return reg, nil
}

// ProvideSessionConfig maps the arena section onto session settings.
func ProvideSessionConfig(cfg config.Config) arena.SessionConfig {
	return cfg.Arena.SessionConfig()
}

// ProvideLeague builds the league service and seeds it from league.roster_path.
func ProvideLeague(ctx context.Context, cfg config.Config, repo league.Repository, src dice.Source, commentator narrative.Commentator, logger *zap.Logger) (*league.Service, error) {
	svc := league.NewService(repo, src, commentator, logger)
	if cfg.League.RosterPath == "" {
		return svc, nil
	}
	roster, err := fighter.LoadRoster(cfg.League.RosterPath)
	if err != nil {
		return nil, err
	}
	added, err := svc.Seed(ctx, roster)
	if err != nil {
		return nil, err
	}
	logger.Info("roster seeded",
		zap.String("path", cfg.League.RosterPath),
		zap.Int("fighters", len(roster)),
		zap.Int("added", added),
	)
	return svc, nil
}
