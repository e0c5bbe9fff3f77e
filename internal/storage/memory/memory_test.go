package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/fightsim/internal/game/fighter"
	"github.com/cory-johannsen/fightsim/internal/league"
	"github.com/cory-johannsen/fightsim/internal/storage/memory"
	"github.com/cory-johannsen/fightsim/internal/storage/storagetest"
)

func TestStore_Conformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) league.Repository {
		s := memory.NewStore()
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestStore_ReturnedFightersAreCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	f := storagetest.Fighter(t, "f1", "A", fighter.Striker, fighter.Lightweight)
	require.NoError(t, s.Add(ctx, f))

	f.Record.Wins = 50
	got, err := s.GetByID(ctx, "f1")
	require.NoError(t, err)
	assert.Zero(t, got.Record.Wins)

	got.Record.Wins = 7
	again, err := s.GetByID(ctx, "f1")
	require.NoError(t, err)
	assert.Zero(t, again.Record.Wins)
}

func TestStore_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("f%d", i)
			assert.NoError(t, s.Add(ctx, storagetest.Fighter(t, id, id, fighter.Balanced, fighter.Lightweight)))
			assert.NoError(t, s.SaveBoutResult(ctx, storagetest.Result("b"+id, id, "x", storagetest.Epoch)))
			_, _ = s.GetAll(ctx)
		}(i)
	}
	wg.Wait()
	n, b, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 32, n)
	assert.Equal(t, 32, b)
}
