package tournament_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/fightsim/internal/game/bout"
	"github.com/cory-johannsen/fightsim/internal/game/dice"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
	"github.com/cory-johannsen/fightsim/internal/game/tournament"
)

type tb interface {
	require.TestingT
	Helper()
}

func roster(t tb, n int) []*fighter.Fighter {
	t.Helper()
	out := make([]*fighter.Fighter, n)
	for i := range out {
		a := fighter.Archetypes[i%len(fighter.Archetypes)]
		f, err := fighter.New(fmt.Sprintf("f%d", i), fmt.Sprintf("Fighter %d", i), a, fighter.Welterweight, fighter.DefaultStats(a))
		require.NoError(t, err)
		out[i] = f
	}
	return out
}

func newScheduler(seed uint64) (*tournament.Scheduler, *bout.Resolver) {
	src := dice.NewSeededSource(seed)
	r := bout.NewResolver(src, nil, nil)
	return tournament.NewScheduler(r, src), r
}

func TestRun_EightFighters(t *testing.T) {
	s, r := newScheduler(8)
	fs := roster(t, 8)

	b, err := s.Run(fs)
	require.NoError(t, err)

	assert.Equal(t, 7, b.Bouts())
	assert.Equal(t, 7, r.History().Len())
	require.Len(t, b.Rounds, 4)
	last := b.Rounds[len(b.Rounds)-1]
	assert.Equal(t, 1, last.Size())
	assert.Empty(t, last.Pairings)
	assert.Equal(t, b.Champion.ID, last.Entrants[0])
	assert.Equal(t, []int{8, 4, 2, 1}, []int{b.Rounds[0].Size(), b.Rounds[1].Size(), b.Rounds[2].Size(), b.Rounds[3].Size()})
	assert.Equal(t, 1, b.Champion.Record.Titles)
	assert.Equal(t, 3, b.Champion.Record.Wins)
}

func TestRun_ByesAdvanceWithoutBout(t *testing.T) {
	s, _ := newScheduler(3)
	b, err := s.Run(roster(t, 5))
	require.NoError(t, err)

	first := b.Rounds[0]
	assert.NotEmpty(t, first.Bye)
	assert.Len(t, first.Pairings, 2)
	for _, p := range first.Pairings {
		assert.NotEqual(t, first.Bye, p.Fighter1ID)
		assert.NotEqual(t, first.Bye, p.Fighter2ID)
	}
	assert.Contains(t, b.Rounds[1].Entrants, first.Bye)
}

func TestRun_InvalidRoster(t *testing.T) {
	s, r := newScheduler(1)
	var ire *tournament.InvalidRosterError

	_, err := s.Run(roster(t, 1))
	assert.True(t, errors.As(err, &ire))

	_, err = s.Run(nil)
	assert.True(t, errors.As(err, &ire))

	fs := roster(t, 3)
	fs[2] = fs[0].Clone()
	_, err = s.Run(fs)
	assert.True(t, errors.As(err, &ire))
	assert.Equal(t, 0, r.History().Len(), "validation happens before any bout")
}

func TestRun_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 8).Draw(rt, "n")
		s, _ := newScheduler(rapid.Uint64().Draw(rt, "seed"))
		fs := roster(rt, n)

		b, err := s.Run(fs)
		require.NoError(rt, err)
		require.NotNil(rt, b.Champion)

		bouts := b.Bouts()
		assert.GreaterOrEqual(rt, bouts, int(math.Ceil(math.Log2(float64(n)))))
		assert.LessOrEqual(rt, bouts, n-1)
		assert.Equal(rt, 1, b.Rounds[len(b.Rounds)-1].Size())

		champions := 0
		for _, f := range fs {
			if f.Record.Losses == 0 {
				champions++
				assert.Equal(rt, b.Champion.ID, f.ID)
			}
		}
		assert.Equal(rt, 1, champions)
	})
}

func TestRun_DeterministicForSeed(t *testing.T) {
	s1, _ := newScheduler(77)
	s2, _ := newScheduler(77)
	b1, err := s1.Run(roster(t, 7))
	require.NoError(t, err)
	b2, err := s2.Run(roster(t, 7))
	require.NoError(t, err)

	assert.Equal(t, b1.Champion.ID, b2.Champion.ID)
	for i := range b1.Rounds {
		assert.Equal(t, b1.Rounds[i].Entrants, b2.Rounds[i].Entrants)
	}
}

type failingResolver struct{}

func (failingResolver) Resolve(a, b *fighter.Fighter) (bout.Result, error) {
	return bout.Result{}, errors.New("boom")
}

func TestRun_PropagatesResolverError(t *testing.T) {
	s := tournament.NewScheduler(failingResolver{}, dice.NewSeededSource(1))
	_, err := s.Run(roster(t, 2))
	assert.ErrorContains(t, err, "boom")
}
