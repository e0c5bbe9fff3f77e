// Package narrative produces free-text matchup commentary. The engine never
// depends on it: every caller goes through Safe, which falls back to Static.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fightsim/internal/game/bout"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
)

// Commentator analyzes a matchup between two fighters.
type Commentator interface {
	Analyze(ctx context.Context, a, b *fighter.Fighter) (string, error)
}

// Summary renders one fighter as a single descriptive line.
func Summary(f *fighter.Fighter) string {
	s := f.Stats
	return fmt.Sprintf("%s: %s %s, record %s, overall %.1f (striking %d, grappling %d, speed %d, kick %d, submission %d, takedown defense %d, versatility %d)",
		f.Name, f.WeightClass, f.Archetype, f.Record, f.OverallSkill(),
		s.Striking, s.Grappling, s.Speed, s.KickPower, s.Submission, s.TakedownDefense, s.Versatility)
}

// Prompt builds the matchup analysis request for a and b.
func Prompt(a, b *fighter.Fighter) string {
	var sb strings.Builder
	sb.WriteString("Analyze this mixed martial arts matchup in under 150 words. ")
	sb.WriteString("Cover each fighter's path to victory and the most likely finish.\n\n")
	sb.WriteString("Fighter 1 - ")
	sb.WriteString(Summary(a))
	sb.WriteString("\nFighter 2 - ")
	sb.WriteString(Summary(b))
	return sb.String()
}

// Static is a deterministic Commentator built from the same advantage math
// the bout resolver uses.
type Static struct{}

// Analyze implements Commentator. It never fails.
func (Static) Analyze(_ context.Context, a, b *fighter.Fighter) (string, error) {
	advA, advB := bout.Advantage(a, b), bout.Advantage(b, a)
	fav, dog, favAdv, dogAdv := a, b, advA, advB
	if advB > advA {
		fav, dog, favAdv, dogAdv = b, a, advB, advA
	}
	likely := bout.LikelyMethod(fav.Archetype)
	if favAdv == dogAdv {
		return fmt.Sprintf("%s vs %s is dead even on paper (%.1f each). Expect it to come down to the luck of the night.",
			a.Name, b.Name, favAdv), nil
	}
	return fmt.Sprintf("%s (%s) holds the edge over %s (%s), %.1f to %.1f. Look for a %s finish if the favourite imposes their game.",
		fav.Name, fav.Archetype, dog.Name, dog.Archetype, favAdv, dogAdv, likely), nil
}

// Safe wraps a primary Commentator. Any primary error is logged and answered
// with the fallback, so commentary can never fail a caller.
type Safe struct {
	primary  Commentator
	fallback Commentator
	logger   *zap.Logger
}

// NewSafe returns a Safe commentator. A nil primary always uses the fallback;
// a nil fallback uses Static.
func NewSafe(primary, fallback Commentator, logger *zap.Logger) *Safe {
	if fallback == nil {
		fallback = Static{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Safe{primary: primary, fallback: fallback, logger: logger}
}

// Analyze implements Commentator.
//
// Postcondition: err is non-nil only when the fallback itself fails.
func (s *Safe) Analyze(ctx context.Context, a, b *fighter.Fighter) (string, error) {
	if a == nil || b == nil {
		return "", fmt.Errorf("narrative: both fighters are required")
	}
	if s.primary != nil {
		text, err := s.primary.Analyze(ctx, a, b)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		s.logger.Warn("narrative: commentator failed, using fallback",
			zap.String("fighter1", a.ID),
			zap.String("fighter2", b.ID),
			zap.Error(err),
		)
	}
	return s.fallback.Analyze(ctx, a, b)
}
