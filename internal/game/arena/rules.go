package arena

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/fightsim/internal/game/dice"
)

// MoveSpec holds the tunables of one attacking move.
type MoveSpec struct {
	Cost     float64 // stamina spent when the move is thrown in range
	Cooldown float64 // seconds before the same move can be thrown again
	Reach    float64 // maximum centre-to-centre distance that lands
	MinDmg   int
	MaxDmg   int
	// Jitter is added to the formula damage before clamping.
	Jitter dice.Expression
}

// Rules are the arena's tunable constants. Times are in seconds, distances
// in ring units.
type Rules struct {
	Width, Height float64
	Radius        float64
	SpawnInset    float64
	MinSeparation float64

	MaxHP        int
	MaxStamina   float64
	StaminaRegen float64 // per second

	BaseSpeed      float64
	SpeedPerStat   float64
	TiredStamina   float64 // below this, movement is slowed
	TiredSpeedMult float64

	BlockWindow       float64
	BlockDamageFactor float64
	StunChance        float64
	StunDuration      float64

	RestStamina  float64
	RestCooldown float64

	Moves [moveCount]MoveSpec
}

// DefaultRules returns the standard ring.
func DefaultRules() Rules {
	return Rules{
		Width:         1140,
		Height:        520,
		Radius:        40,
		SpawnInset:    220,
		MinSeparation: 60,

		MaxHP:        100,
		MaxStamina:   100,
		StaminaRegen: 7,

		BaseSpeed:      260,
		SpeedPerStat:   1.2,
		TiredStamina:   25,
		TiredSpeedMult: 0.75,

		BlockWindow:       0.7,
		BlockDamageFactor: 0.45,
		StunChance:        0.35,
		StunDuration:      0.45,

		RestStamina:  20,
		RestCooldown: 0.5,

		Moves: [moveCount]MoveSpec{
			MoveJab:     {Cost: 10, Cooldown: 0.35, Reach: 125, MinDmg: 3, MaxDmg: 22, Jitter: dice.MustParse("1d6-3")},
			MoveKick:    {Cost: 14, Cooldown: 0.55, Reach: 125, MinDmg: 4, MaxDmg: 28, Jitter: dice.MustParse("1d8-4")},
			MoveGrapple: {Cost: 16, Cooldown: 0.75, Reach: 85, MinDmg: 4, MaxDmg: 26, Jitter: dice.MustParse("1d8-3")},
		},
	}
}

// Move returns the tuning for m.
func (r Rules) Move(m Move) MoveSpec { return r.Moves[m] }

// Validate reports every inconsistent tunable.
func (r Rules) Validate() error {
	var errs []error
	if r.Width <= 2*r.Radius || r.Height <= 2*r.Radius {
		errs = append(errs, fmt.Errorf("ring %gx%g too small for radius %g", r.Width, r.Height, r.Radius))
	}
	if r.SpawnInset < r.Radius || 2*r.SpawnInset >= r.Width {
		errs = append(errs, fmt.Errorf("spawn inset %g must be within the ring", r.SpawnInset))
	}
	if r.MaxHP <= 0 || r.MaxStamina <= 0 {
		errs = append(errs, errors.New("max hp and max stamina must be positive"))
	}
	if r.StaminaRegen < 0 {
		errs = append(errs, errors.New("stamina regen must be >= 0"))
	}
	if r.BlockDamageFactor < 0 || r.BlockDamageFactor > 1 {
		errs = append(errs, fmt.Errorf("block damage factor %g must be in [0, 1]", r.BlockDamageFactor))
	}
	if r.StunChance < 0 || r.StunChance > 1 {
		errs = append(errs, fmt.Errorf("stun chance %g must be in [0, 1]", r.StunChance))
	}
	if r.BlockWindow < 0 || r.StunDuration < 0 || r.RestCooldown < 0 {
		errs = append(errs, errors.New("windows and cooldowns must be >= 0"))
	}
	for _, m := range Moves {
		spec := r.Moves[m]
		if spec.Cost < 0 || spec.Cooldown < 0 || spec.Reach <= 0 {
			errs = append(errs, fmt.Errorf("%s: cost, cooldown and reach must be non-negative with positive reach", m))
		}
		if spec.MinDmg < 0 || spec.MinDmg > spec.MaxDmg {
			errs = append(errs, fmt.Errorf("%s: damage range [%d, %d] invalid", m, spec.MinDmg, spec.MaxDmg))
		}
		if spec.Jitter.Count == 0 {
			errs = append(errs, fmt.Errorf("%s: jitter expression missing", m))
		}
	}
	return errors.Join(errs...)
}
