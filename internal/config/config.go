// Package config provides Viper-based configuration loading for the fight
// simulator binaries.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/fightsim/internal/game/arena"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Driver is one of "memory", "sqlite", "postgres".
	Driver string `mapstructure:"driver"`
	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// RandomConfig controls the shared random source.
type RandomConfig struct {
	// Seed makes every run reproducible; 0 selects a crypto-backed source.
	Seed uint64 `mapstructure:"seed"`
}

// ArenaConfig holds the real-time arena tunables.
type ArenaConfig struct {
	TickRate          int     `mapstructure:"tick_rate"`
	DecisionInterval  float64 `mapstructure:"decision_interval"`
	LogLines          int     `mapstructure:"log_lines"`
	MaxHP             int     `mapstructure:"max_hp"`
	StaminaRegen      float64 `mapstructure:"stamina_regen"`
	BlockWindow       float64 `mapstructure:"block_window"`
	BlockDamageFactor float64 `mapstructure:"block_damage_factor"`
	StunChance        float64 `mapstructure:"stun_chance"`
	StunDuration      float64 `mapstructure:"stun_duration"`
	RestStamina       float64 `mapstructure:"rest_stamina"`
	RestCooldown      float64 `mapstructure:"rest_cooldown"`
}

// Rules overlays the configured tunables on arena.DefaultRules.
//
// Postcondition: fields not exposed by ArenaConfig keep their defaults.
func (a ArenaConfig) Rules() arena.Rules {
	r := arena.DefaultRules()
	r.MaxHP = a.MaxHP
	r.StaminaRegen = a.StaminaRegen
	r.BlockWindow = a.BlockWindow
	r.BlockDamageFactor = a.BlockDamageFactor
	r.StunChance = a.StunChance
	r.StunDuration = a.StunDuration
	r.RestStamina = a.RestStamina
	r.RestCooldown = a.RestCooldown
	return r
}

// SessionConfig returns an arena.SessionConfig with no policies attached.
func (a ArenaConfig) SessionConfig() arena.SessionConfig {
	return arena.SessionConfig{
		Rules:            a.Rules(),
		TickRate:         a.TickRate,
		DecisionInterval: a.DecisionInterval,
		LogLines:         a.LogLines,
	}
}

// PolicyConfig selects the opponent policy.
type PolicyConfig struct {
	// Domain is the ID of the HTN domain driving automated corners.
	Domain string `mapstructure:"domain"`
	// DomainDir optionally holds extra *.yaml domains; empty uses only the built-in domain.
	DomainDir string `mapstructure:"domain_dir"`
	// ScriptDir optionally holds *.lua files loaded into the shared VM.
	ScriptDir string `mapstructure:"script_dir"`
	// InstructionLimit caps Lua opcodes per predicate call; 0 uses the sandbox default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// NarrativeConfig controls fight commentary.
type NarrativeConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Model     string        `mapstructure:"model"`
	MaxTokens int64         `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// APIKey is normally supplied as FIGHT_NARRATIVE_API_KEY.
	APIKey string `mapstructure:"api_key"`
}

// LeagueConfig points at the seed content for the league.
type LeagueConfig struct {
	// RosterPath is a roster YAML file or a directory of them; empty seeds nothing.
	RosterPath string `mapstructure:"roster_path"`
	// HistoryLimit bounds history listings when the caller passes no limit.
	HistoryLimit int `mapstructure:"history_limit"`
}

// FightServerConfig holds gRPC settings for the batch fight service.
type FightServerConfig struct {
	GRPCHost string `mapstructure:"grpc_host"`
	GRPCPort int    `mapstructure:"grpc_port"`
}

// Addr returns the "host:port" gRPC address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (g FightServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.GRPCHost, g.GRPCPort)
}

// Config is the top-level application configuration.
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Random      RandomConfig      `mapstructure:"random"`
	Arena       ArenaConfig       `mapstructure:"arena"`
	Policy      PolicyConfig      `mapstructure:"policy"`
	Narrative   NarrativeConfig   `mapstructure:"narrative"`
	League      LeagueConfig      `mapstructure:"league"`
	FightServer FightServerConfig `mapstructure:"fightserver"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	check := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	check(validateLogging(c.Logging))
	check(validateStorage(c.Storage))
	if c.Storage.Driver == DriverPostgres {
		check(validateDatabase(c.Database))
	}
	check(validateArena(c.Arena))
	check(validatePolicy(c.Policy))
	check(validateNarrative(c.Narrative))
	check(validateLeague(c.League))
	check(validateFightServer(c.FightServer))

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	switch s.Driver {
	case DriverMemory, DriverPostgres:
		return nil
	case DriverSQLite:
		if s.SQLitePath == "" {
			return errors.New("storage.sqlite_path must not be empty for the sqlite driver")
		}
		return nil
	default:
		return fmt.Errorf("storage.driver must be one of [memory, sqlite, postgres], got %q", s.Driver)
	}
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateArena(a ArenaConfig) error {
	var errs []string
	if a.TickRate < 1 || a.TickRate > 1000 {
		errs = append(errs, fmt.Sprintf("arena.tick_rate must be 1-1000, got %d", a.TickRate))
	}
	if a.DecisionInterval <= 0 {
		errs = append(errs, "arena.decision_interval must be positive")
	}
	if a.LogLines < 1 {
		errs = append(errs, fmt.Sprintf("arena.log_lines must be >= 1, got %d", a.LogLines))
	}
	if err := a.Rules().Validate(); err != nil {
		errs = append(errs, "arena: "+strings.ReplaceAll(err.Error(), "\n", "; "))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validatePolicy(p PolicyConfig) error {
	if p.Domain == "" {
		return errors.New("policy.domain must not be empty")
	}
	if p.InstructionLimit < 0 {
		return fmt.Errorf("policy.instruction_limit must be >= 0, got %d", p.InstructionLimit)
	}
	return nil
}

func validateNarrative(n NarrativeConfig) error {
	if !n.Enabled {
		return nil
	}
	var errs []string
	if n.Model == "" {
		errs = append(errs, "narrative.model must not be empty when enabled")
	}
	if n.MaxTokens < 1 {
		errs = append(errs, fmt.Sprintf("narrative.max_tokens must be >= 1, got %d", n.MaxTokens))
	}
	if n.Timeout <= 0 {
		errs = append(errs, "narrative.timeout must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLeague(l LeagueConfig) error {
	if l.HistoryLimit < 1 {
		return fmt.Errorf("league.history_limit must be >= 1, got %d", l.HistoryLimit)
	}
	return nil
}

func validateFightServer(g FightServerConfig) error {
	var errs []string
	if g.GRPCHost == "" {
		errs = append(errs, "fightserver.grpc_host must not be empty")
	}
	if g.GRPCPort < 1 || g.GRPCPort > 65535 {
		errs = append(errs, fmt.Sprintf("fightserver.grpc_port must be 1-65535, got %d", g.GRPCPort))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	}

	// Environment variable overrides with FIGHT_ prefix
	v.SetEnvPrefix("FIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance carrying only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.sqlite_path", "fightsim.db")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "fightsim")
	v.SetDefault("database.password", "fightsim")
	v.SetDefault("database.name", "fightsim")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("random.seed", 0)

	rules := arena.DefaultRules()
	v.SetDefault("arena.tick_rate", arena.DefaultTickRate)
	v.SetDefault("arena.decision_interval", arena.DefaultDecisionInterval)
	v.SetDefault("arena.log_lines", arena.DefaultLogLines)
	v.SetDefault("arena.max_hp", rules.MaxHP)
	v.SetDefault("arena.stamina_regen", rules.StaminaRegen)
	v.SetDefault("arena.block_window", rules.BlockWindow)
	v.SetDefault("arena.block_damage_factor", rules.BlockDamageFactor)
	v.SetDefault("arena.stun_chance", rules.StunChance)
	v.SetDefault("arena.stun_duration", rules.StunDuration)
	v.SetDefault("arena.rest_stamina", rules.RestStamina)
	v.SetDefault("arena.rest_cooldown", rules.RestCooldown)

	v.SetDefault("policy.domain", "brawler")
	v.SetDefault("policy.domain_dir", "")
	v.SetDefault("policy.script_dir", "")
	v.SetDefault("policy.instruction_limit", 0)

	v.SetDefault("narrative.enabled", false)
	v.SetDefault("narrative.model", "claude-sonnet-4-5")
	v.SetDefault("narrative.max_tokens", 400)
	v.SetDefault("narrative.timeout", "20s")
	v.SetDefault("narrative.api_key", "")

	v.SetDefault("league.roster_path", "")
	v.SetDefault("league.history_limit", 20)

	v.SetDefault("fightserver.grpc_host", "127.0.0.1")
	v.SetDefault("fightserver.grpc_port", 50061)
}
