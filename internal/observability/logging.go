// Package observability provides logging helpers shared by the binaries and
// the league layer.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/fightsim/internal/config"
	"github.com/cory-johannsen/fightsim/internal/game/bout"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
)

// NewLogger creates a structured logger from the given logging configuration.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// FighterFields identifies a fighter in log entries.
func FighterFields(f *fighter.Fighter) []zap.Field {
	if f == nil {
		return []zap.Field{zap.String("fighter_id", "")}
	}
	return []zap.Field{
		zap.String("fighter_id", f.ID),
		zap.String("fighter", f.Name),
		zap.Stringer("archetype", f.Archetype),
	}
}

// BoutFields summarizes a bout result in log entries.
func BoutFields(r bout.Result) []zap.Field {
	return []zap.Field{
		zap.String("bout_id", r.ID),
		zap.String("kind", string(r.Kind)),
		zap.String("winner_id", r.WinnerID),
		zap.String("method", string(r.Method)),
		zap.Float64("score1", r.Score1),
		zap.Float64("score2", r.Score2),
		zap.Bool("draw", r.Draw),
	}
}
