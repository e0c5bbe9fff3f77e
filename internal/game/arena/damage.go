package arena

import (
	"github.com/cory-johannsen/fightsim/internal/game/dice"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
)

// styleBonus multiplies formula damage for moves that suit the archetype.
func styleBonus(a fighter.Archetype, m Move) float64 {
	switch {
	case a == fighter.Striker && (m == MoveJab || m == MoveKick):
		return 1.15
	case a == fighter.Grappler && m == MoveGrapple:
		return 1.2
	case a == fighter.Hybrid:
		return 1.07
	}
	return 1.0
}

// GrappleDefense is the defender's blended rating against grapples, in [10, 95].
func GrappleDefense(s fighter.Stats) int {
	return min(max((s.TakedownDefense+s.Grappling)/2, 10), 95)
}

// Damage computes the unblocked damage of m thrown by attacker at defender.
// Grapples are scaled down by the defender's GrappleDefense before the
// per-move clamp.
//
// Postcondition: rules.Move(m).MinDmg <= result <= rules.Move(m).MaxDmg.
func Damage(attacker, defender Corner, m Move, rules Rules, src dice.Source) int {
	s := attacker.Stats
	var formula float64
	switch m {
	case MoveJab:
		formula = 6 + float64(s.Striking)*0.10 + float64(s.Versatility)*0.03
	case MoveKick:
		formula = 8 + float64(s.KickPower)*0.11 + float64(s.Versatility)*0.02
	case MoveGrapple:
		formula = 7 + float64(s.Grappling)*0.08 + float64(s.Submission)*0.06
	}
	spec := rules.Move(m)
	dmg := int(formula*styleBonus(attacker.Archetype, m)) + dice.Roll(spec.Jitter, src).Total()
	if m == MoveGrapple {
		dmg = int(float64(dmg)*float64(100-GrappleDefense(defender.Stats))/100) + 6
	}
	return min(max(dmg, spec.MinDmg), spec.MaxDmg)
}

// blockedDamage applies the block factor, never reducing a hit below 1.
func blockedDamage(dmg int, rules Rules) int {
	return max(1, int(float64(dmg)*rules.BlockDamageFactor))
}
