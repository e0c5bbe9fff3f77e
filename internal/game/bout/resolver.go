package bout

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/fightsim/internal/game/dice"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
)

const (
	// MatchupBonus scales the attacker's signature stat in a favourable matchup.
	MatchupBonus = 0.2
	// FormBonus scales the attacker's win percentage.
	FormBonus = 0.1
	// LuckMin and LuckMax bound the shared random scalar.
	LuckMin = 0.8
	LuckMax = 1.2
)

// ValidationError reports malformed resolver input. It is returned before
// any record is touched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "bout: invalid bout: " + e.Reason }

// Advantage scores attacker against defender: overall skill, plus a matchup
// bonus when a Striker meets a Grappler or vice versa, plus recent form.
func Advantage(attacker, defender *fighter.Fighter) float64 {
	adv := attacker.OverallSkill()
	switch {
	case attacker.Archetype == fighter.Striker && defender.Archetype == fighter.Grappler:
		adv += float64(attacker.Stats.Striking) * MatchupBonus
	case attacker.Archetype == fighter.Grappler && defender.Archetype == fighter.Striker:
		adv += float64(attacker.Stats.Grappling) * MatchupBonus
	}
	return adv + attacker.Record.WinPercentage()*FormBonus
}

// Resolver turns two fighters into a Result.
//
// Resolve mutates only the two fighters' Record counters and the history.
// Callers must not resolve bouts involving the same fighter concurrently.
type Resolver struct {
	src     dice.Source
	history *History
	logger  *zap.Logger
	now     func() time.Time
}

// NewResolver creates a Resolver drawing randomness from src and appending to
// history.
//
// Precondition: src must be non-nil. A nil history or logger is replaced by a
// fresh History and a no-op logger.
func NewResolver(src dice.Source, history *History, logger *zap.Logger) *Resolver {
	if src == nil {
		panic("bout: NewResolver precondition violated: src must be non-nil")
	}
	if history == nil {
		history = NewHistory()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{src: src, history: history, logger: logger, now: time.Now}
}

// History returns the resolver's fight log.
func (r *Resolver) History() *History { return r.history }

// Resolve fights a against b.
//
// One luck scalar l ~ U[0.8, 1.2) is shared: score1 = adv1*l and
// score2 = adv2*(2-l). Exact ties are broken by a fair coin from the source.
//
// Precondition: a and b are non-nil and distinct by id.
// Postcondition: on success the winner gains exactly one win, the loser one
// loss, and the result is appended to the history. On error nothing changes.
func (r *Resolver) Resolve(a, b *fighter.Fighter) (Result, error) {
	if a == nil || b == nil {
		return Result{}, &ValidationError{Reason: "both fighters are required"}
	}
	if a.ID == b.ID {
		return Result{}, &ValidationError{Reason: fmt.Sprintf("fighter %q cannot fight itself", a.ID)}
	}

	adv1 := Advantage(a, b)
	adv2 := Advantage(b, a)
	luck := dice.Between(r.src, LuckMin, LuckMax)
	score1 := adv1 * luck
	score2 := adv2 * (2 - luck)

	winner, loser := a, b
	switch {
	case score2 > score1:
		winner, loser = b, a
	case score1 == score2 && r.src.Intn(2) == 1:
		winner, loser = b, a
	}
	method := SampleMethod(winner.Archetype, r.src)

	winner.Record.AddWin(method.Finish())
	loser.Record.AddLoss()

	res := Result{
		ID:           uuid.NewString(),
		Kind:         KindSimulated,
		Fighter1ID:   a.ID,
		Fighter2ID:   b.ID,
		Fighter1Name: a.Name,
		Fighter2Name: b.Name,
		WinnerID:     winner.ID,
		Method:       method,
		Score1:       score1,
		Score2:       score2,
		At:           r.now(),
	}
	r.history.Append(res)
	r.logger.Debug("bout resolved",
		zap.String("bout_id", res.ID),
		zap.String("winner", winner.Name),
		zap.String("method", string(method)),
		zap.Float64("luck", luck),
		zap.Float64("score1", score1),
		zap.Float64("score2", score2),
	)
	return res, nil
}
