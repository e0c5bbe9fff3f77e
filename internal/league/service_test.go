package league_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/fightsim/internal/game/arena"
	"github.com/cory-johannsen/fightsim/internal/game/bout"
	"github.com/cory-johannsen/fightsim/internal/game/dice"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
	"github.com/cory-johannsen/fightsim/internal/game/gym"
	"github.com/cory-johannsen/fightsim/internal/league"
	"github.com/cory-johannsen/fightsim/internal/storage"
	"github.com/cory-johannsen/fightsim/internal/storage/memory"
)

// flakyRepo fails every write after construction while reads keep working.
type flakyRepo struct {
	*memory.Store
	failWrites bool
}

var errDiskFull = errors.New("disk full")

func (r *flakyRepo) Update(ctx context.Context, f *fighter.Fighter) error {
	if r.failWrites {
		return errDiskFull
	}
	return r.Store.Update(ctx, f)
}

func (r *flakyRepo) SaveBoutResult(ctx context.Context, res bout.Result) error {
	if r.failWrites {
		return errDiskFull
	}
	return r.Store.SaveBoutResult(ctx, res)
}

type failingCommentator struct{}

func (failingCommentator) Analyze(context.Context, *fighter.Fighter, *fighter.Fighter) (string, error) {
	return "", errors.New("upstream unavailable")
}

func newFighter(t testing.TB, id, name string, a fighter.Archetype) *fighter.Fighter {
	t.Helper()
	f, err := fighter.New(id, name, a, fighter.Lightweight, fighter.DefaultStats(a))
	require.NoError(t, err)
	return f
}

func newService(t *testing.T, repo league.Repository) (*league.Service, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return league.NewService(repo, dice.NewSeededSource(11), nil, zap.New(core)), logs
}

func seeded(t *testing.T) (*league.Service, *memory.Store, *observer.ObservedLogs) {
	t.Helper()
	store := memory.NewStore()
	svc, logs := newService(t, store)
	roster := []*fighter.Fighter{
		newFighter(t, "a", "Ada", fighter.Striker),
		newFighter(t, "b", "Bea", fighter.Grappler),
		newFighter(t, "c", "Cal", fighter.Balanced),
		newFighter(t, "d", "Dee", fighter.Hybrid),
	}
	n, err := svc.Seed(context.Background(), roster)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	return svc, store, logs
}

func TestNewService_PanicsOnNilRepo(t *testing.T) {
	assert.Panics(t, func() { league.NewService(nil, dice.NewSeededSource(1), nil, nil) })
}

func TestRegister_DuplicateIsAnError(t *testing.T) {
	svc, _, _ := seeded(t)
	ok, err := svc.Register(context.Background(), newFighter(t, "a", "Ada Again", fighter.Striker))
	assert.False(t, ok)
	assert.ErrorIs(t, err, storage.ErrDuplicateFighter)
}

func TestRegister_ClampsStats(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newService(t, store)
	f := newFighter(t, "x", "Xan", fighter.Balanced)
	f.Stats.Striking = 140
	f.Stats.Speed = -3
	ok, err := svc.Register(context.Background(), f)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := store.GetByID(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 100, stored.Stats.Striking)
	assert.Equal(t, 0, stored.Stats.Speed)
}

func TestSeed_SkipsStoredFighters(t *testing.T) {
	svc, _, _ := seeded(t)
	n, err := svc.Seed(context.Background(), []*fighter.Fighter{
		newFighter(t, "a", "Ada", fighter.Striker),
		newFighter(t, "e", "Eve", fighter.Striker),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	all, err := svc.Roster(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestBout_PersistsRecordsAndResult(t *testing.T) {
	svc, store, _ := seeded(t)
	ctx := context.Background()

	rep, err := svc.Bout(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, rep.Persisted)
	assert.Equal(t, bout.KindSimulated, rep.Result.Kind)

	a, err := store.GetByID(ctx, "a")
	require.NoError(t, err)
	b, err := store.GetByID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Record.Total())
	assert.Equal(t, 1, b.Record.Total())
	assert.Equal(t, 1, a.Record.Wins+b.Record.Wins)

	hist, err := svc.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, rep.Result.ID, hist[0].ID)
	assert.Len(t, svc.SessionHistory(), 1)
}

func TestBout_RejectsSelfAndUnknown(t *testing.T) {
	svc, _, _ := seeded(t)
	ctx := context.Background()

	_, err := svc.Bout(ctx, "a", "a")
	var verr *bout.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Bout(ctx, "a", "zz")
	assert.ErrorIs(t, err, storage.ErrFighterNotFound)
}

func TestBout_PersistenceFailureIsReportedNotReturned(t *testing.T) {
	repo := &flakyRepo{Store: memory.NewStore()}
	svc, logs := newService(t, repo)
	ctx := context.Background()
	_, err := svc.Seed(ctx, []*fighter.Fighter{
		newFighter(t, "a", "Ada", fighter.Striker),
		newFighter(t, "b", "Bea", fighter.Grappler),
	})
	require.NoError(t, err)
	repo.failWrites = true

	rep, err := svc.Bout(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, rep.Persisted)
	assert.NotEmpty(t, rep.Result.WinnerID)
	assert.Equal(t, 3, logs.FilterMessage("league: persistence failure").Len())

	hist, err := svc.History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestTournament_WholeRosterCrownsOneChampion(t *testing.T) {
	svc, store, _ := seeded(t)
	ctx := context.Background()

	rep, err := svc.Tournament(ctx, nil)
	require.NoError(t, err)
	assert.True(t, rep.Persisted)
	assert.Equal(t, 3, rep.Bracket.Bouts())

	champ, err := store.GetByID(ctx, rep.Bracket.Champion.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, champ.Record.Titles)

	fighters, bouts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, fighters)
	assert.Equal(t, 3, bouts)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	require.NotNil(t, st.Latest)
}

func TestTournament_InvalidRosterPersistsNothing(t *testing.T) {
	svc, store, _ := seeded(t)
	ctx := context.Background()

	_, err := svc.Tournament(ctx, []string{"a"})
	require.Error(t, err)

	_, bouts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, bouts)
}

func TestTrain_SavesGainsAndRejectsDisallowedDrill(t *testing.T) {
	svc, store, _ := seeded(t)
	ctx := context.Background()

	before, err := store.GetByID(ctx, "a")
	require.NoError(t, err)
	f, ok, err := svc.Train(ctx, "a", fighter.DrillStriking)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEqual(t, before.Stats, f.Stats)

	after, err := store.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, f.Stats, after.Stats)

	_, _, err = svc.Train(ctx, "a", fighter.DrillGrappling)
	assert.ErrorIs(t, err, fighter.ErrDrillNotAllowed)
	unchanged, err := store.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, after.Stats, unchanged.Stats)
}

func TestTrainWith_WearsGearAndRepairRestoresIt(t *testing.T) {
	svc, store, _ := seeded(t)
	ctx := context.Background()

	f, ok, err := svc.TrainWith(ctx, "a", fighter.DrillStriking, "pads")
	require.NoError(t, err)
	assert.True(t, ok)
	stored, err := store.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, f.Stats, stored.Stats)

	_, _, err = svc.TrainWith(ctx, "a", fighter.DrillStriking, "mat")
	assert.ErrorIs(t, err, gym.ErrWrongEquipment)
	_, _, err = svc.TrainWith(ctx, "a", fighter.DrillStriking, "heavy-bag")
	assert.ErrorIs(t, err, gym.ErrUnknownEquipment)

	condition := map[string]int{}
	for _, eq := range svc.Gear() {
		condition[eq.ID] = eq.Condition
	}
	assert.Equal(t, map[string]int{"gloves": 100, "pads": 100 - gym.DefaultWear, "mat": 100}, condition)

	eq, err := svc.Repair("pads")
	require.NoError(t, err)
	assert.Equal(t, 100, eq.Condition)
}

func TestTrainWith_FailedSaveLeavesGearUnworn(t *testing.T) {
	repo := &flakyRepo{Store: memory.NewStore()}
	svc, logs := newService(t, repo)
	ctx := context.Background()
	_, err := svc.Seed(ctx, []*fighter.Fighter{newFighter(t, "a", "Ada", fighter.Striker)})
	require.NoError(t, err)
	before, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	repo.failWrites = true

	_, ok, err := svc.TrainWith(ctx, "a", fighter.DrillStriking, "gloves")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("league: persistence failure").Len())

	for _, eq := range svc.Gear() {
		assert.Equal(t, 100, eq.Condition, eq.ID)
	}
	stored, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, before.Stats, stored.Stats)

	repo.failWrites = false
	_, ok, err = svc.TrainWith(ctx, "a", fighter.DrillStriking, "gloves")
	require.NoError(t, err)
	assert.True(t, ok)
	gloves := svc.Gear()[0]
	assert.Equal(t, "gloves", gloves.ID)
	assert.Equal(t, 100-gym.DefaultWear, gloves.Condition)
}

func TestRecordArenaResult_UpdatesRecords(t *testing.T) {
	svc, store, _ := seeded(t)
	ctx := context.Background()

	sess, err := svc.NewArenaSession(ctx, "a", "b", arena.SessionConfig{})
	require.NoError(t, err)
	require.NoError(t, sess.SubmitAction(arena.Red, "jab"))

	res := bout.Result{
		ID: "arena-1", Kind: bout.KindArena,
		Fighter1ID: "a", Fighter2ID: "b", Fighter1Name: "Ada", Fighter2Name: "Bea",
		WinnerID: "a", Method: bout.MethodKO,
	}
	rep, err := svc.RecordArenaResult(ctx, res)
	require.NoError(t, err)
	assert.True(t, rep.Persisted)

	a, err := store.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Record.Wins)
	assert.Equal(t, 1, a.Record.KnockoutWins)
	b, err := store.GetByID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Record.Losses)

	res.WinnerID = "c"
	res.ID = "arena-2"
	_, err = svc.RecordArenaResult(ctx, res)
	var verr *bout.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestPreview_FallsBackWhenCommentatorFails(t *testing.T) {
	store := memory.NewStore()
	core, logs := observer.New(zap.WarnLevel)
	svc := league.NewService(store, dice.NewSeededSource(3), failingCommentator{}, zap.New(core))
	ctx := context.Background()
	_, err := svc.Seed(ctx, []*fighter.Fighter{
		newFighter(t, "a", "Ada", fighter.Striker),
		newFighter(t, "b", "Bea", fighter.Grappler),
	})
	require.NoError(t, err)

	text, err := svc.Preview(ctx, "a", "b")
	require.NoError(t, err)
	assert.Contains(t, text, "Ada")
	assert.Equal(t, 1, logs.FilterMessage("narrative: commentator failed, using fallback").Len())
}

func TestRemove(t *testing.T) {
	svc, _, _ := seeded(t)
	ctx := context.Background()
	require.NoError(t, svc.Remove(ctx, "d"))
	_, err := svc.Fighter(ctx, "d")
	assert.ErrorIs(t, err, storage.ErrFighterNotFound)
	assert.ErrorIs(t, svc.Remove(ctx, "d"), storage.ErrFighterNotFound)
}

func TestProperty_BoutsConserveWinsAndLosses(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := memory.NewStore()
		svc := league.NewService(store, dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")), nil, nil)
		ctx := context.Background()
		ids := []string{"a", "b", "c"}
		for i, id := range ids {
			a := fighter.Archetypes[i%len(fighter.Archetypes)]
			f, err := fighter.New(id, "F"+id, a, fighter.Lightweight, fighter.DefaultStats(a))
			if err != nil {
				rt.Fatal(err)
			}
			if _, err := svc.Register(ctx, f); err != nil {
				rt.Fatal(err)
			}
		}
		n := rapid.IntRange(1, 8).Draw(rt, "bouts")
		for i := 0; i < n; i++ {
			x := rapid.SampledFrom(ids).Draw(rt, "x")
			y := rapid.SampledFrom(ids).Draw(rt, "y")
			if x == y {
				continue
			}
			if _, err := svc.Bout(ctx, x, y); err != nil {
				rt.Fatal(err)
			}
		}
		all, err := svc.Roster(ctx)
		if err != nil {
			rt.Fatal(err)
		}
		wins, losses := 0, 0
		for _, f := range all {
			wins += f.Record.Wins
			losses += f.Record.Losses
		}
		if wins != losses {
			rt.Fatalf("wins %d != losses %d", wins, losses)
		}
	})
}
