package arena

import (
	"github.com/cory-johannsen/fightsim/internal/game/dice"
)

// TryAttack attempts m for attacker without advancing the clock. Cooldown,
// stamina, stun and terminal checks are silent no-ops that return s
// unchanged; an out-of-range attempt is a miss that spends nothing.
//
// Postcondition: when the returned outcome is a no-op, the returned state
// equals s.
func TryAttack(s State, attacker Slot, m Move, rules Rules, src dice.Source) (State, AttackOutcome, *Event) {
	next, outcome, ev, stun := strike(s, attacker, m, rules, src)
	if stun {
		next = stunCorner(next, attacker.Other(), rules)
	}
	return next, outcome, ev
}

// strike resolves m but only reports whether the defender should be stunned,
// so Step can apply both corners' stuns after both have acted.
func strike(s State, attacker Slot, m Move, rules Rules, src dice.Source) (State, AttackOutcome, *Event, bool) {
	if s.Over() {
		return s, Frozen, nil, false
	}
	if s.Stunned(attacker) {
		return s, Incapacitated, nil, false
	}
	if !s.Ready(attacker, m) {
		return s, OnCooldown, nil, false
	}
	spec := rules.Move(m)
	atk := s.Corners[attacker]
	if atk.Stamina < spec.Cost {
		return s, Exhausted, nil, false
	}
	if s.Distance() > spec.Reach {
		return s, Missed, &Event{Tick: s.Tick, Kind: EventMiss, Actor: attacker, Move: m}, false
	}

	defender := attacker.Other()
	def := s.Corners[defender]
	atk.Stamina -= spec.Cost
	atk.CooldownUntil[m] = s.Clock + spec.Cooldown

	dmg := Damage(atk, def, m, rules, src)
	blocked := s.Blocking(defender)
	if blocked {
		dmg = blockedDamage(dmg, rules)
		def.BlockUntil = 0
	}
	def.HP = max(0, def.HP-dmg)

	stunned := m == MoveGrapple && dice.Chance(src, rules.StunChance)

	s.Corners[attacker] = atk
	s.Corners[defender] = def
	return s, Landed, &Event{Tick: s.Tick, Kind: EventHit, Actor: attacker, Move: m, Damage: dmg, Blocked: blocked, Stunned: stunned}, stunned
}

func stunCorner(s State, slot Slot, rules Rules) State {
	c := &s.Corners[slot]
	c.StunUntil = s.Clock + rules.StunDuration
	c.Vel = Vec2{}
	return s
}

// Step advances s by dt seconds applying both intents. Both corners act on
// the same footing: movement, blocks and rests start before any strike
// lands, and stuns inflicted this tick apply only after both have struck.
// A double knockout is therefore possible. A terminal state is returned
// unchanged.
//
// Precondition: dt > 0.
func Step(s State, intents [2]Intent, dt float64, rules Rules, src dice.Source) (State, []Event) {
	if s.Over() {
		return s, nil
	}
	if dt <= 0 {
		panic("arena: Step precondition violated: dt must be > 0")
	}

	s.Tick++
	s.Clock += dt
	for i := range s.Corners {
		c := &s.Corners[i]
		c.Stamina = clampf(c.Stamina+rules.StaminaRegen*dt, 0, rules.MaxStamina)
	}

	acting := [2]bool{!s.Stunned(Red), !s.Stunned(Blue)}
	var events []Event
	for _, slot := range []Slot{Red, Blue} {
		var ev []Event
		s, ev = prepare(s, slot, intents[slot], acting[slot], rules)
		events = append(events, ev...)
	}
	var stuns [2]bool
	for _, slot := range []Slot{Red, Blue} {
		m, ok := intents[slot].Action.Move()
		if !acting[slot] || !ok {
			continue
		}
		next, _, ev, stun := strike(s, slot, m, rules, src)
		s = next
		if ev != nil {
			events = append(events, *ev)
		}
		if stun {
			stuns[slot.Other()] = true
		}
	}
	for _, slot := range []Slot{Red, Blue} {
		if stuns[slot] {
			s = stunCorner(s, slot, rules)
		}
	}

	s = integrate(s, dt, rules)

	redDown, blueDown := s.Corners[Red].HP <= 0, s.Corners[Blue].HP <= 0
	switch {
	case redDown && blueDown:
		s.Phase = PhaseOver
		s.Outcome = Outcome{Draw: true}
		events = append(events, Event{Tick: s.Tick, Kind: EventDoubleKO})
	case redDown:
		s.Phase = PhaseOver
		s.Outcome = Outcome{Winner: Blue}
		events = append(events, Event{Tick: s.Tick, Kind: EventKO, Actor: Blue})
	case blueDown:
		s.Phase = PhaseOver
		s.Outcome = Outcome{Winner: Red}
		events = append(events, Event{Tick: s.Tick, Kind: EventKO, Actor: Red})
	}
	if s.Over() {
		for i := range s.Corners {
			s.Corners[i].Vel = Vec2{}
		}
	}
	return s, events
}

// prepare sets slot's velocity and opens any block or rest for this tick.
func prepare(s State, slot Slot, in Intent, acting bool, rules Rules) (State, []Event) {
	c := &s.Corners[slot]
	if !acting {
		c.Vel = Vec2{}
		return s, nil
	}
	c.Vel = heading(s, slot, in).Scale(MoveSpeed(*c, rules))

	switch in.Action {
	case ActionBlock:
		c.BlockUntil = s.Clock + rules.BlockWindow
		return s, []Event{{Tick: s.Tick, Kind: EventBlock, Actor: slot}}
	case ActionRest:
		if s.Clock < c.RestReadyAt {
			return s, nil
		}
		c.Stamina = clampf(c.Stamina+rules.RestStamina, 0, rules.MaxStamina)
		c.RestReadyAt = s.Clock + rules.RestCooldown
		return s, []Event{{Tick: s.Tick, Kind: EventRest, Actor: slot}}
	}
	return s, nil
}

func heading(s State, slot Slot, in Intent) Vec2 {
	toward := s.Corners[slot.Other()].Pos.Sub(s.Corners[slot].Pos).Norm()
	switch in.Action {
	case ActionApproach:
		return toward
	case ActionRetreat:
		return toward.Scale(-1)
	case ActionHold:
		if in.Heading.IsZero() {
			return Vec2{}
		}
	}
	return in.Heading.Norm()
}

// MoveSpeed returns c's movement speed in units per second.
func MoveSpeed(c Corner, rules Rules) float64 {
	speed := rules.BaseSpeed + float64(c.Stats.Speed)*rules.SpeedPerStat
	if c.Stamina < rules.TiredStamina {
		speed *= rules.TiredSpeedMult
	}
	return speed
}

// integrate moves both corners, pushes them apart when closer than
// MinSeparation and keeps them inside the ring.
func integrate(s State, dt float64, rules Rules) State {
	for i := range s.Corners {
		c := &s.Corners[i]
		c.Pos = c.Pos.Add(c.Vel.Scale(dt))
	}
	red, blue := &s.Corners[Red], &s.Corners[Blue]
	gap := blue.Pos.Sub(red.Pos)
	if d := gap.Len(); d < rules.MinSeparation {
		dir := gap.Norm()
		if dir.IsZero() {
			dir = Vec2{X: 1}
		}
		push := dir.Scale((rules.MinSeparation - d) / 2)
		red.Pos = red.Pos.Sub(push)
		blue.Pos = blue.Pos.Add(push)
	}
	for i := range s.Corners {
		c := &s.Corners[i]
		c.Pos = Vec2{
			X: clampf(c.Pos.X, rules.Radius, rules.Width-rules.Radius),
			Y: clampf(c.Pos.Y, rules.Radius, rules.Height-rules.Radius),
		}
	}
	return s
}
