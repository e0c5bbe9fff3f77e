// Package storagetest is the conformance suite every league.Repository
// backend runs. The memory store defines the expected behavior.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/fightsim/internal/game/bout"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
	"github.com/cory-johannsen/fightsim/internal/league"
	"github.com/cory-johannsen/fightsim/internal/storage"
)

// Open returns an empty repository. It registers its own cleanup.
type Open func(t *testing.T) league.Repository

// Run executes the suite, opening a fresh repository per subtest.
func Run(t *testing.T, open Open) {
	t.Helper()
	cases := []struct {
		name string
		fn   func(t *testing.T, repo league.Repository)
	}{
		{"AddAndGet", testAddAndGet},
		{"AddDuplicate", testAddDuplicate},
		{"AddInvalid", testAddInvalid},
		{"UpdateRoundTrips", testUpdate},
		{"UpdateMissing", testUpdateMissing},
		{"Delete", testDelete},
		{"GetAllOrdering", testGetAllOrdering},
		{"FindByName", testFindByName},
		{"ByWeightClass", testByWeightClass},
		{"History", testHistory},
		{"HistoryDuplicate", testHistoryDuplicate},
		{"HistorySurvivesFighterDelete", testHistorySurvivesDelete},
		{"Counts", testCounts},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, open(t))
		})
	}
}

// Epoch is a fixed timestamp for results whose time does not matter.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Fighter builds a valid fighter with default stats.
func Fighter(t testing.TB, id, name string, a fighter.Archetype, wc fighter.WeightClass) *fighter.Fighter {
	t.Helper()
	f, err := fighter.New(id, name, a, wc, fighter.DefaultStats(a))
	require.NoError(t, err)
	return f
}

// Result builds a simulated bout result won by fighter1.
func Result(id, f1, f2 string, at time.Time) bout.Result {
	return bout.Result{
		ID:           id,
		Kind:         bout.KindSimulated,
		Fighter1ID:   f1,
		Fighter2ID:   f2,
		Fighter1Name: "Name " + f1,
		Fighter2Name: "Name " + f2,
		WinnerID:     f1,
		Method:       bout.MethodSubmission,
		Score1:       88.25,
		Score2:       71.5,
		At:           at,
	}
}

func testAddAndGet(t *testing.T, repo league.Repository) {
	ctx := context.Background()
	f := Fighter(t, "f1", "Jon Jones", fighter.Hybrid, fighter.LightHeavyweight)
	f.Record = fighter.Record{Wins: 27, Losses: 1, KnockoutWins: 10, SubmissionWins: 7, Titles: 3}
	require.NoError(t, repo.Add(ctx, f))

	got, err := repo.GetByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, f, got)
	assert.NotSame(t, f, got)

	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrFighterNotFound)
}

func testAddDuplicate(t *testing.T, repo league.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, Fighter(t, "f1", "A", fighter.Striker, fighter.Lightweight)))
	err := repo.Add(ctx, Fighter(t, "f1", "B", fighter.Striker, fighter.Lightweight))
	assert.ErrorIs(t, err, storage.ErrDuplicateFighter)
}

func testAddInvalid(t *testing.T, repo league.Repository) {
	ctx := context.Background()
	assert.Error(t, repo.Add(ctx, nil))
	assert.Error(t, repo.Add(ctx, &fighter.Fighter{Name: "no id"}))
}

func testUpdate(t *testing.T, repo league.Repository) {
	ctx := context.Background()
	f := Fighter(t, "f1", "A", fighter.Grappler, fighter.Welterweight)
	require.NoError(t, repo.Add(ctx, f))

	f.Stats.Grappling = 99
	f.Record.AddWin(fighter.FinishSubmission)
	f.Record.AddTitle()
	f.WeightClass = fighter.Middleweight
	require.NoError(t, repo.Update(ctx, f))

	got, err := repo.GetByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func testUpdateMissing(t *testing.T, repo league.Repository) {
	err := repo.Update(context.Background(), Fighter(t, "ghost", "G", fighter.Balanced, fighter.Lightweight))
	assert.ErrorIs(t, err, storage.ErrFighterNotFound)
}

func testDelete(t *testing.T, repo league.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, Fighter(t, "f1", "A", fighter.Striker, fighter.Lightweight)))
	require.NoError(t, repo.Delete(ctx, "f1"))
	_, err := repo.GetByID(ctx, "f1")
	assert.ErrorIs(t, err, storage.ErrFighterNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "f1"), storage.ErrFighterNotFound)
}

func testGetAllOrdering(t *testing.T, repo league.Repository) {
	ctx := context.Background()
	mk := func(id, name string, w, l int) {
		f := Fighter(t, id, name, fighter.Balanced, fighter.Lightweight)
		f.Record.Wins, f.Record.Losses = w, l
		require.NoError(t, repo.Add(ctx, f))
	}
	mk("1", "Zed", 5, 0)
	mk("2", "Amy", 5, 0)
	mk("3", "Bob", 5, 2)
	mk("4", "Cat", 9, 4)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	names := make([]string, len(all))
	for i, f := range all {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"Cat", "Amy", "Zed", "Bob"}, names)
}

func testFindByName(t *testing.T, repo league.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, Fighter(t, "1", "Anderson Silva", fighter.Striker, fighter.Middleweight)))
	require.NoError(t, repo.Add(ctx, Fighter(t, "2", "Wanderlei Silva", fighter.Striker, fighter.LightHeavyweight)))
	require.NoError(t, repo.Add(ctx, Fighter(t, "3", "Royce Gracie", fighter.Grappler, fighter.Welterweight)))

	got, err := repo.FindByName(ctx, "silva")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.FindByName(ctx, "ANDER")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.FindByName(ctx, "khabib")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testByWeightClass(t *testing.T, repo league.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, Fighter(t, "1", "A", fighter.Striker, fighter.Middleweight)))
	require.NoError(t, repo.Add(ctx, Fighter(t, "2", "B", fighter.Striker, fighter.Middleweight)))
	require.NoError(t, repo.Add(ctx, Fighter(t, "3", "C", fighter.Striker, fighter.Heavyweight)))

	got, err := repo.ByWeightClass(ctx, fighter.Middleweight)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	got, err = repo.ByWeightClass(ctx, fighter.Flyweight)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testHistory(t *testing.T, repo league.Repository) {
	ctx := context.Background()
	base := time.Date(2024, 3, 9, 21, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.SaveBoutResult(ctx, Result(fmt.Sprintf("b%d", i), "x", "y", base.Add(time.Duration(i)*time.Minute))))
	}
	draw := bout.Result{
		ID: "draw", Kind: bout.KindArena, Fighter1ID: "x", Fighter2ID: "y",
		Fighter1Name: "X", Fighter2Name: "Y", Method: bout.MethodDoubleKO, Draw: true,
		At: base.Add(time.Hour),
	}
	require.NoError(t, repo.SaveBoutResult(ctx, draw))

	all, err := repo.GetHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, "draw", all[0].ID)
	assert.True(t, all[0].Draw)
	assert.Empty(t, all[0].WinnerID)
	assert.Equal(t, bout.KindArena, all[0].Kind)
	assert.Equal(t, "b4", all[1].ID)
	assert.Equal(t, "b0", all[5].ID)

	want := Result("b4", "x", "y", base.Add(4*time.Minute))
	got := all[1]
	assert.WithinDuration(t, want.At, got.At, time.Millisecond)
	got.At = want.At
	assert.Equal(t, want, got)

	recent, err := repo.GetHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "draw", recent[0].ID)
	assert.Equal(t, "b4", recent[1].ID)
}

func testHistoryDuplicate(t *testing.T, repo league.Repository) {
	ctx := context.Background()
	r := Result("b1", "x", "y", Epoch)
	require.NoError(t, repo.SaveBoutResult(ctx, r))
	assert.ErrorIs(t, repo.SaveBoutResult(ctx, r), storage.ErrDuplicateBout)
	assert.Error(t, repo.SaveBoutResult(ctx, bout.Result{ID: "b2"}))
}

func testHistorySurvivesDelete(t *testing.T, repo league.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, Fighter(t, "x", "X", fighter.Striker, fighter.Lightweight)))
	require.NoError(t, repo.Add(ctx, Fighter(t, "y", "Y", fighter.Grappler, fighter.Lightweight)))
	require.NoError(t, repo.SaveBoutResult(ctx, Result("b1", "x", "y", Epoch)))
	require.NoError(t, repo.Delete(ctx, "x"))

	hist, err := repo.GetHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "Name x", hist[0].Fighter1Name)
}

func testCounts(t *testing.T, repo league.Repository) {
	ctx := context.Background()
	n, b, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, b)

	require.NoError(t, repo.Add(ctx, Fighter(t, "x", "X", fighter.Striker, fighter.Lightweight)))
	require.NoError(t, repo.SaveBoutResult(ctx, Result("b1", "x", "y", Epoch)))
	n, b, err = repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, b)
}
