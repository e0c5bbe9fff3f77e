package arena_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/fightsim/internal/game/arena"
	"github.com/cory-johannsen/fightsim/internal/game/dice"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
	"github.com/cory-johannsen/fightsim/internal/testutil"
)

const dt = 1.0 / 60

type tb interface {
	require.TestingT
	Helper()
}

func fighters(t tb) (*fighter.Fighter, *fighter.Fighter) {
	t.Helper()
	red, err := fighter.New("red", "Red", fighter.Striker, "", fighter.DefaultStats(fighter.Striker))
	require.NoError(t, err)
	blue, err := fighter.New("blue", "Blue", fighter.Grappler, "", fighter.DefaultStats(fighter.Grappler))
	require.NoError(t, err)
	return red, blue
}

// closeState returns a fresh state with the corners gap units apart.
func closeState(t tb, rules arena.Rules, gap float64) arena.State {
	t.Helper()
	red, blue := fighters(t)
	s, err := arena.NewState(red, blue, rules)
	require.NoError(t, err)
	s.Corners[arena.Blue].Pos = s.Corners[arena.Red].Pos.Add(arena.Vec2{X: gap})
	return s
}

func TestNewState_Spawn(t *testing.T) {
	rules := arena.DefaultRules()
	red, blue := fighters(t)
	s, err := arena.NewState(red, blue, rules)
	require.NoError(t, err)
	assert.Equal(t, 100, s.Corners[arena.Red].HP)
	assert.Equal(t, 100.0, s.Corners[arena.Blue].Stamina)
	assert.InDelta(t, rules.Width-2*rules.SpawnInset, s.Distance(), 1e-9)
	assert.Equal(t, arena.PhaseLive, s.Phase)

	_, err = arena.NewState(red, red, rules)
	assert.Error(t, err)
}

func TestTryAttack_ExhaustedIsNoop(t *testing.T) {
	rules := arena.DefaultRules()
	s := closeState(t, rules, 100)
	s.Corners[arena.Red].Stamina = 5

	next, outcome, ev := arena.TryAttack(s, arena.Red, arena.MoveJab, rules, dice.NewSeededSource(1))
	assert.Equal(t, arena.Exhausted, outcome)
	assert.Nil(t, ev)
	assert.Equal(t, s, next)
	assert.Equal(t, 100, next.Corners[arena.Blue].HP)
	assert.Equal(t, 5.0, next.Corners[arena.Red].Stamina)
}

func TestTryAttack_CooldownIsNoop(t *testing.T) {
	rules := arena.DefaultRules()
	src := dice.NewSeededSource(2)
	s := closeState(t, rules, 100)

	s, outcome, _ := arena.TryAttack(s, arena.Red, arena.MoveKick, rules, src)
	require.Equal(t, arena.Landed, outcome)

	again, outcome, ev := arena.TryAttack(s, arena.Red, arena.MoveKick, rules, src)
	assert.Equal(t, arena.OnCooldown, outcome)
	assert.Nil(t, ev)
	assert.Equal(t, s, again)

	// A different move has its own cooldown.
	_, outcome, _ = arena.TryAttack(s, arena.Red, arena.MoveJab, rules, src)
	assert.Equal(t, arena.Landed, outcome)
}

func TestStep_CooldownNoopLaw_Property(t *testing.T) {
	rules := arena.DefaultRules()
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		m := rapid.SampledFrom(arena.Moves).Draw(rt, "move")
		src := dice.NewSeededSource(seed)

		s := closeState(rt, rules, 60)
		s, outcome, _ := arena.TryAttack(s, arena.Red, m, rules, src)
		require.Equal(rt, arena.Landed, outcome)

		action := map[arena.Move]arena.Action{arena.MoveJab: arena.ActionJab, arena.MoveKick: arena.ActionKick, arena.MoveGrapple: arena.ActionGrapple}[m]
		withMove, _ := arena.Step(s, [2]arena.Intent{{Action: action}, {}}, dt, rules, dice.NewSeededSource(seed))
		without, _ := arena.Step(s, [2]arena.Intent{{}, {}}, dt, rules, dice.NewSeededSource(seed))
		assert.Equal(rt, without, withMove)
	})
}

func TestTryAttack_OutOfRangeMissesForFree(t *testing.T) {
	rules := arena.DefaultRules()
	s := closeState(t, rules, 100)

	next, outcome, ev := arena.TryAttack(s, arena.Red, arena.MoveGrapple, rules, dice.NewSeededSource(3))
	assert.Equal(t, arena.Missed, outcome)
	require.NotNil(t, ev)
	assert.Equal(t, arena.EventMiss, ev.Kind)
	assert.Equal(t, s, next, "a miss spends no stamina and starts no cooldown")
}

func TestTryAttack_BlockReducesAndIsConsumed(t *testing.T) {
	rules := arena.DefaultRules()
	rules.StunChance = 0
	src := testutil.FixedSource{F: 0.5, I: 3}
	s := closeState(t, rules, 100)
	open := arena.Damage(s.Corners[arena.Red], s.Corners[arena.Blue], arena.MoveJab, rules, src)

	s.Corners[arena.Blue].BlockUntil = s.Clock + rules.BlockWindow
	next, outcome, ev := arena.TryAttack(s, arena.Red, arena.MoveJab, rules, src)
	require.Equal(t, arena.Landed, outcome)
	require.NotNil(t, ev)
	assert.True(t, ev.Blocked)
	assert.Equal(t, max(1, int(float64(open)*rules.BlockDamageFactor)), ev.Damage)
	assert.Equal(t, 100-ev.Damage, next.Corners[arena.Blue].HP)
	assert.False(t, next.Blocking(arena.Blue), "block window is consumed by the first absorbed hit")
	assert.Equal(t, 90.0, next.Corners[arena.Red].Stamina)
}

func TestTryAttack_GrappleStuns(t *testing.T) {
	rules := arena.DefaultRules()
	s := closeState(t, rules, 70)

	next, outcome, ev := arena.TryAttack(s, arena.Blue, arena.MoveGrapple, rules, testutil.FixedSource{F: 0})
	require.Equal(t, arena.Landed, outcome)
	assert.True(t, ev.Stunned)
	assert.True(t, next.Stunned(arena.Red))

	_, outcome, _ = arena.TryAttack(next, arena.Red, arena.MoveJab, rules, testutil.FixedSource{F: 0})
	assert.Equal(t, arena.Incapacitated, outcome)

	_, _, ev = arena.TryAttack(s, arena.Blue, arena.MoveGrapple, rules, testutil.FixedSource{F: 0.99})
	assert.False(t, ev.Stunned)
}

func TestDamage_WithinMoveRange_Property(t *testing.T) {
	rules := arena.DefaultRules()
	rapid.Check(t, func(rt *rapid.T) {
		stat := func(l string) int { return rapid.IntRange(0, 100).Draw(rt, l) }
		mk := func(prefix string) arena.Corner {
			return arena.Corner{
				Archetype: rapid.SampledFrom(fighter.Archetypes).Draw(rt, prefix+"arch"),
				Stats: fighter.Stats{
					Striking: stat(prefix + "str"), Grappling: stat(prefix + "grp"), Speed: stat(prefix + "spd"),
					KickPower: stat(prefix + "kick"), Submission: stat(prefix + "sub"),
					TakedownDefense: stat(prefix + "tdd"), Versatility: stat(prefix + "vers"),
				},
			}
		}
		m := rapid.SampledFrom(arena.Moves).Draw(rt, "move")
		dmg := arena.Damage(mk("a"), mk("d"), m, rules, dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")))
		spec := rules.Move(m)
		assert.GreaterOrEqual(rt, dmg, spec.MinDmg)
		assert.LessOrEqual(rt, dmg, spec.MaxDmg)
	})
}

func TestDamage_GrappleScalesWithDefense(t *testing.T) {
	rules := arena.DefaultRules()
	src := testutil.FixedSource{I: 3}
	atk := arena.Corner{Archetype: fighter.Grappler, Stats: fighter.Stats{Grappling: 100, Submission: 100}}
	soft := arena.Corner{Stats: fighter.Stats{Grappling: 0, TakedownDefense: 0}}
	hard := arena.Corner{Stats: fighter.Stats{Grappling: 100, TakedownDefense: 100}}
	assert.Greater(t, arena.Damage(atk, soft, arena.MoveGrapple, rules, src), arena.Damage(atk, hard, arena.MoveGrapple, rules, src))
	assert.Equal(t, 10, arena.GrappleDefense(soft.Stats))
	assert.Equal(t, 95, arena.GrappleDefense(hard.Stats))
}

func TestStep_RepeatedHitsEndAtExactlyZero(t *testing.T) {
	rules := arena.DefaultRules()
	rules.Moves[arena.MoveJab].Cost = 0
	src := dice.NewSeededSource(11)
	s := closeState(t, rules, 100)

	for i := 0; i < 1000 && !s.Over(); i++ {
		s, _ = arena.Step(s, [2]arena.Intent{{Action: arena.ActionJab}, {}}, 0.4, rules, src)
		assert.GreaterOrEqual(t, s.Corners[arena.Blue].HP, 0)
	}
	require.True(t, s.Over())
	assert.Equal(t, 0, s.Corners[arena.Blue].HP)
	assert.Equal(t, arena.Outcome{Winner: arena.Red}, s.Outcome)

	frozen, events := arena.Step(s, [2]arena.Intent{{Action: arena.ActionJab}, {Action: arena.ActionGrapple}}, 0.4, rules, src)
	assert.Equal(t, s, frozen)
	assert.Empty(t, events)

	_, outcome, _ := arena.TryAttack(s, arena.Red, arena.MoveJab, rules, src)
	assert.Equal(t, arena.Frozen, outcome)
}

func TestStep_DoubleKOIsDraw(t *testing.T) {
	rules := arena.DefaultRules()
	rules.StunChance = 0
	s := closeState(t, rules, 100)
	s.Corners[arena.Red].HP = 1
	s.Corners[arena.Blue].HP = 1

	next, events := arena.Step(s, [2]arena.Intent{{Action: arena.ActionJab}, {Action: arena.ActionJab}}, dt, rules, dice.NewSeededSource(4))
	require.True(t, next.Over())
	assert.True(t, next.Outcome.Draw)
	assert.Equal(t, arena.EventDoubleKO, events[len(events)-1].Kind)
}

// twinState returns two identically built fighters gap units apart.
func twinState(t tb, rules arena.Rules, gap float64) arena.State {
	t.Helper()
	a, err := fighter.New("a", "A", fighter.Hybrid, "", fighter.DefaultStats(fighter.Hybrid))
	require.NoError(t, err)
	b, err := fighter.New("b", "B", fighter.Hybrid, "", fighter.DefaultStats(fighter.Hybrid))
	require.NoError(t, err)
	s, err := arena.NewState(a, b, rules)
	require.NoError(t, err)
	s.Corners[arena.Blue].Pos = s.Corners[arena.Red].Pos.Add(arena.Vec2{X: gap})
	return s
}

func hitBy(events []arena.Event, actor arena.Slot) *arena.Event {
	for i := range events {
		if events[i].Kind == arena.EventHit && events[i].Actor == actor {
			return &events[i]
		}
	}
	return nil
}

func TestStep_SameTickGrapplesBothLand(t *testing.T) {
	rules := arena.DefaultRules()
	s := twinState(t, rules, 70)
	src := testutil.FixedSource{F: 0, I: 3}

	next, events := arena.Step(s, [2]arena.Intent{{Action: arena.ActionGrapple}, {Action: arena.ActionGrapple}}, dt, rules, src)
	red, blue := hitBy(events, arena.Red), hitBy(events, arena.Blue)
	require.NotNil(t, red)
	require.NotNil(t, blue, "a stun landed this tick must not cancel the other corner's strike")
	assert.True(t, red.Stunned)
	assert.True(t, blue.Stunned)
	assert.Equal(t, red.Damage, blue.Damage)
	assert.True(t, next.Stunned(arena.Red))
	assert.True(t, next.Stunned(arena.Blue))
	assert.Equal(t, next.Corners[arena.Red].HP, next.Corners[arena.Blue].HP)
}

func TestStep_SameTickBlockIsSymmetric(t *testing.T) {
	rules := arena.DefaultRules()
	src := testutil.FixedSource{F: 0.5, I: 3}

	redBlocks, evA := arena.Step(twinState(t, rules, 100), [2]arena.Intent{{Action: arena.ActionBlock}, {Action: arena.ActionJab}}, dt, rules, src)
	blueBlocks, evB := arena.Step(twinState(t, rules, 100), [2]arena.Intent{{Action: arena.ActionJab}, {Action: arena.ActionBlock}}, dt, rules, src)

	hitA, hitB := hitBy(evA, arena.Blue), hitBy(evB, arena.Red)
	require.NotNil(t, hitA)
	require.NotNil(t, hitB)
	assert.True(t, hitA.Blocked)
	assert.True(t, hitB.Blocked)
	assert.Equal(t, hitA.Damage, hitB.Damage)
	assert.Equal(t, redBlocks.Corners[arena.Red].HP, blueBlocks.Corners[arena.Blue].HP)
}

func TestStep_MirroredIntentsMirrorOutcome_Property(t *testing.T) {
	rules := arena.DefaultRules()
	actions := []arena.Action{arena.ActionHold, arena.ActionBlock, arena.ActionRest, arena.ActionJab, arena.ActionKick, arena.ActionGrapple}
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.SampledFrom(actions).Draw(rt, "a")
		b := rapid.SampledFrom(actions).Draw(rt, "b")
		gap := rapid.Float64Range(60, 140).Draw(rt, "gap")
		src := testutil.FixedSource{F: rapid.Float64Range(0, 0.99).Draw(rt, "f"), I: rapid.IntRange(0, 7).Draw(rt, "i")}

		fwd, _ := arena.Step(twinState(rt, rules, gap), [2]arena.Intent{{Action: a}, {Action: b}}, dt, rules, src)
		rev, _ := arena.Step(twinState(rt, rules, gap), [2]arena.Intent{{Action: b}, {Action: a}}, dt, rules, src)

		assert.Equal(rt, fwd.Corners[arena.Red].HP, rev.Corners[arena.Blue].HP)
		assert.Equal(rt, fwd.Corners[arena.Blue].HP, rev.Corners[arena.Red].HP)
		assert.Equal(rt, fwd.Stunned(arena.Red), rev.Stunned(arena.Blue))
		assert.Equal(rt, fwd.Blocking(arena.Red), rev.Blocking(arena.Blue))
		assert.InDelta(rt, fwd.Corners[arena.Red].Stamina, rev.Corners[arena.Blue].Stamina, 1e-9)
	})
}

func TestStep_StaminaRegenClamped(t *testing.T) {
	rules := arena.DefaultRules()
	s := closeState(t, rules, 300)
	s.Corners[arena.Red].Stamina = 50
	s.Corners[arena.Blue].Stamina = 99.95

	next, _ := arena.Step(s, [2]arena.Intent{}, 1, rules, dice.NewSeededSource(5))
	assert.InDelta(t, 57, next.Corners[arena.Red].Stamina, 1e-9)
	assert.Equal(t, rules.MaxStamina, next.Corners[arena.Blue].Stamina)
}

func TestStep_RestRestoresStaminaOncePerCooldown(t *testing.T) {
	rules := arena.DefaultRules()
	rules.StaminaRegen = 0
	s := closeState(t, rules, 300)
	s.Corners[arena.Red].Stamina = 10

	s, events := arena.Step(s, [2]arena.Intent{{Action: arena.ActionRest}, {}}, dt, rules, dice.NewSeededSource(6))
	assert.Equal(t, 30.0, s.Corners[arena.Red].Stamina)
	require.Len(t, events, 1)
	assert.Equal(t, arena.EventRest, events[0].Kind)

	s, _ = arena.Step(s, [2]arena.Intent{{Action: arena.ActionRest}, {}}, dt, rules, dice.NewSeededSource(6))
	assert.Equal(t, 30.0, s.Corners[arena.Red].Stamina)
}

func TestStep_ApproachClosesDistanceAndStaysInRing(t *testing.T) {
	rules := arena.DefaultRules()
	red, blue := fighters(t)
	s, err := arena.NewState(red, blue, rules)
	require.NoError(t, err)
	start := s.Distance()

	s, _ = arena.Step(s, [2]arena.Intent{{Action: arena.ActionApproach}, {Action: arena.ActionHold}}, dt, rules, dice.NewSeededSource(7))
	want := start - arena.MoveSpeed(s.Corners[arena.Red], rules)*dt
	assert.InDelta(t, want, s.Distance(), 1e-6)

	for i := 0; i < 600; i++ {
		s, _ = arena.Step(s, [2]arena.Intent{{Action: arena.ActionRetreat}, {Heading: arena.Vec2{X: 1, Y: 1}}}, dt, rules, dice.NewSeededSource(7))
	}
	for _, c := range s.Corners {
		assert.GreaterOrEqual(t, c.Pos.X, rules.Radius)
		assert.LessOrEqual(t, c.Pos.X, rules.Width-rules.Radius)
		assert.GreaterOrEqual(t, c.Pos.Y, rules.Radius)
		assert.LessOrEqual(t, c.Pos.Y, rules.Height-rules.Radius)
	}
}

func TestStep_StunnedCornerCannotMove(t *testing.T) {
	rules := arena.DefaultRules()
	s := closeState(t, rules, 300)
	s.Corners[arena.Red].StunUntil = 1
	before := s.Corners[arena.Red].Pos

	s, events := arena.Step(s, [2]arena.Intent{{Action: arena.ActionApproach}, {}}, dt, rules, dice.NewSeededSource(8))
	assert.Equal(t, before, s.Corners[arena.Red].Pos)
	assert.Empty(t, events)
}

func TestMoveSpeed_TiredPenalty(t *testing.T) {
	rules := arena.DefaultRules()
	c := arena.Corner{Stats: fighter.Stats{Speed: 50}, Stamina: 80}
	assert.InDelta(t, 320, arena.MoveSpeed(c, rules), 1e-9)
	c.Stamina = 10
	assert.InDelta(t, 240, arena.MoveSpeed(c, rules), 1e-9)
}

func TestParseAction(t *testing.T) {
	a, err := arena.ParseAction(" Kick ")
	require.NoError(t, err)
	assert.Equal(t, arena.ActionKick, a)

	_, err = arena.ParseAction("spinning-backfist")
	var ume *arena.UnknownMoveError
	assert.True(t, errors.As(err, &ume))
}

func TestRules_Validate(t *testing.T) {
	require.NoError(t, arena.DefaultRules().Validate())
	bad := arena.DefaultRules()
	bad.BlockDamageFactor = 2
	bad.Moves[arena.MoveKick].MinDmg = 50
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block damage factor")
	assert.Contains(t, err.Error(), "kick")
}
