package fightserver_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/fightsim/internal/fightserver"
	"github.com/cory-johannsen/fightsim/internal/game/ai"
	"github.com/cory-johannsen/fightsim/internal/game/arena"
	"github.com/cory-johannsen/fightsim/internal/game/dice"
	"github.com/cory-johannsen/fightsim/internal/league"
	"github.com/cory-johannsen/fightsim/internal/storage/memory"
)

func startServer(t *testing.T) (*fightserver.Client, *memory.Store) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := memory.NewStore()
	svc := league.NewService(store, dice.NewSeededSource(99), nil, logger)

	reg := ai.NewRegistry()
	require.NoError(t, reg.Register(ai.DefaultDomain(), nil, 0))
	srv := fightserver.NewServer(svc, reg, ai.DefaultDomain().ID, arena.SessionConfig{}, logger)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	grpcServer := grpc.NewServer()
	srv.Register(grpcServer)

	go func() { _ = grpcServer.Serve(lis) }()
	t.Cleanup(func() { grpcServer.Stop() })

	conn, err := grpc.NewClient(lis.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return fightserver.NewClient(conn), store
}

func register(t *testing.T, c *fightserver.Client, id, name, archetype string) {
	t.Helper()
	_, err := c.Call(context.Background(), "RegisterFighter", map[string]any{
		"id": id, "name": name, "archetype": archetype, "weight_class": "Welterweight",
	})
	require.NoError(t, err)
}

func code(err error) codes.Code { return status.Code(err) }

func TestRegisterAndGetFighter(t *testing.T) {
	c, _ := startServer(t)
	ctx := context.Background()

	out, err := c.Call(ctx, "RegisterFighter", map[string]any{
		"id": "gsp", "name": "Georges St-Pierre", "archetype": "hybrid",
		"weight_class": "welterweight",
		"stats":        map[string]any{"striking": 88},
	})
	require.NoError(t, err)
	assert.True(t, out.Fields["persisted"].GetBoolValue())

	got, err := c.Call(ctx, "GetFighter", map[string]any{"id": "gsp"})
	require.NoError(t, err)
	assert.Equal(t, "Georges St-Pierre", got.Fields["name"].GetStringValue())
	assert.Equal(t, "Hybrid", got.Fields["archetype"].GetStringValue())
	stats := got.Fields["stats"].GetStructValue()
	assert.Equal(t, 88.0, stats.Fields["striking"].GetNumberValue())
	assert.Equal(t, 75.0, stats.Fields["grappling"].GetNumberValue())
}

func TestRegisterFighterClampsStats(t *testing.T) {
	c, _ := startServer(t)
	ctx := context.Background()

	_, err := c.Call(ctx, "RegisterFighter", map[string]any{
		"id": "big", "name": "Big", "archetype": "striker",
		"stats": map[string]any{"speed": 150, "grappling": -20},
	})
	require.NoError(t, err)

	got, err := c.Call(ctx, "GetFighter", map[string]any{"id": "big"})
	require.NoError(t, err)
	stats := got.Fields["stats"].GetStructValue()
	assert.Equal(t, 100.0, stats.Fields["speed"].GetNumberValue())
	assert.Equal(t, 0.0, stats.Fields["grappling"].GetNumberValue())
}

func TestErrorCodes(t *testing.T) {
	c, _ := startServer(t)
	ctx := context.Background()
	register(t, c, "a", "Ada", "striker")

	_, err := c.Call(ctx, "GetFighter", map[string]any{"id": "missing"})
	assert.Equal(t, codes.NotFound, code(err))

	_, err = c.Call(ctx, "RegisterFighter", map[string]any{"id": "a", "name": "Ada"})
	assert.Equal(t, codes.AlreadyExists, code(err))

	_, err = c.Call(ctx, "RegisterFighter", map[string]any{"name": "Bad", "archetype": "wizard"})
	assert.Equal(t, codes.InvalidArgument, code(err))

	_, err = c.Call(ctx, "ResolveBout", map[string]any{"fighter1_id": "a", "fighter2_id": "a"})
	assert.Equal(t, codes.InvalidArgument, code(err))

	_, err = c.Call(ctx, "TrainFighter", map[string]any{"id": "a", "drill": "grappling"})
	assert.Equal(t, codes.InvalidArgument, code(err))

	_, err = c.Call(ctx, "RunTournament", map[string]any{"fighter_ids": []any{"a"}})
	assert.Equal(t, codes.InvalidArgument, code(err))
}

func TestResolveBoutAndHistory(t *testing.T) {
	c, store := startServer(t)
	ctx := context.Background()
	register(t, c, "a", "Ada", "striker")
	register(t, c, "b", "Bea", "grappler")

	out, err := c.Call(ctx, "ResolveBout", map[string]any{"fighter1_id": "a", "fighter2_id": "b"})
	require.NoError(t, err)
	assert.Contains(t, []string{"a", "b"}, out.Fields["winner_id"].GetStringValue())
	assert.Equal(t, "simulated", out.Fields["kind"].GetStringValue())

	hist, err := c.Call(ctx, "History", map[string]any{"limit": 5})
	require.NoError(t, err)
	assert.Len(t, hist.Fields["results"].GetListValue().GetValues(), 1)
	assert.Equal(t, 1.0, hist.Fields["total"].GetNumberValue())

	_, bouts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, bouts)
}

func TestRunTournament(t *testing.T) {
	c, _ := startServer(t)
	ctx := context.Background()
	for _, f := range []struct{ id, arch string }{{"a", "striker"}, {"b", "grappler"}, {"c", "hybrid"}, {"d", "balanced"}, {"e", "striker"}} {
		register(t, c, f.id, "Fighter "+f.id, f.arch)
	}

	out, err := c.Call(ctx, "RunTournament", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 4.0, out.Fields["bouts"].GetNumberValue())
	champ := out.Fields["champion"].GetStructValue()
	require.NotNil(t, champ)
	record := champ.Fields["record"].GetStructValue()
	assert.Equal(t, 1.0, record.Fields["titles"].GetNumberValue())
}

func TestSimulateArenaRecordsResult(t *testing.T) {
	c, store := startServer(t)
	ctx := context.Background()
	register(t, c, "a", "Ada", "striker")
	register(t, c, "b", "Bea", "grappler")

	out, err := c.Call(ctx, "SimulateArena", map[string]any{"red_id": "a", "blue_id": "b"})
	require.NoError(t, err)
	require.True(t, out.Fields["finished"].GetBoolValue())
	assert.Equal(t, "arena", out.Fields["kind"].GetStringValue())

	a, err := store.GetByID(ctx, "a")
	require.NoError(t, err)
	b, err := store.GetByID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Record.Total())
	assert.Equal(t, 1, b.Record.Total())
}

func TestSimulateArenaTickCap(t *testing.T) {
	c, store := startServer(t)
	ctx := context.Background()
	register(t, c, "a", "Ada", "striker")
	register(t, c, "b", "Bea", "grappler")

	out, err := c.Call(ctx, "SimulateArena", map[string]any{"red_id": "a", "blue_id": "b", "max_ticks": 3})
	require.NoError(t, err)
	assert.False(t, out.Fields["finished"].GetBoolValue())

	_, bouts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, bouts)
}

func TestSimulateArenaStopsOnCancelledRequest(t *testing.T) {
	logger := zaptest.NewLogger(t)
	store := memory.NewStore()
	svc := league.NewService(store, dice.NewSeededSource(98), nil, logger)
	reg := ai.NewRegistry()
	require.NoError(t, reg.Register(ai.DefaultDomain(), nil, 0))
	srv := fightserver.NewServer(svc, reg, ai.DefaultDomain().ID, arena.SessionConfig{}, logger)

	ctx := context.Background()
	for _, f := range []struct{ id, arch string }{{"a", "striker"}, {"b", "grappler"}} {
		req, err := structpb.NewStruct(map[string]any{"id": f.id, "name": f.id, "archetype": f.arch})
		require.NoError(t, err)
		_, err = srv.RegisterFighter(ctx, req)
		require.NoError(t, err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	req, err := structpb.NewStruct(map[string]any{"red_id": "a", "blue_id": "b"})
	require.NoError(t, err)
	_, err = srv.SimulateArena(cancelled, req)
	assert.Equal(t, codes.Canceled, code(err))

	_, bouts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, bouts)
}

func TestListFightersFilters(t *testing.T) {
	c, _ := startServer(t)
	ctx := context.Background()
	register(t, c, "a", "Anderson Silva", "striker")
	register(t, c, "b", "Royce Gracie", "grappler")

	all, err := c.Call(ctx, "ListFighters", map[string]any{})
	require.NoError(t, err)
	assert.Len(t, all.Fields["fighters"].GetListValue().GetValues(), 2)

	found, err := c.Call(ctx, "ListFighters", map[string]any{"query": "silva"})
	require.NoError(t, err)
	assert.Len(t, found.Fields["fighters"].GetListValue().GetValues(), 1)

	div, err := c.Call(ctx, "ListFighters", map[string]any{"weight_class": "heavyweight"})
	require.NoError(t, err)
	assert.Empty(t, div.Fields["fighters"].GetListValue().GetValues())

	_, err = c.Call(ctx, "ListFighters", map[string]any{"weight_class": "featherlight"})
	assert.Equal(t, codes.InvalidArgument, code(err))
}

func TestPreviewUsesStaticFallback(t *testing.T) {
	c, _ := startServer(t)
	ctx := context.Background()
	register(t, c, "a", "Ada", "striker")
	register(t, c, "b", "Bea", "grappler")

	out, err := c.Call(ctx, "Preview", map[string]any{"fighter1_id": "a", "fighter2_id": "b"})
	require.NoError(t, err)
	assert.Contains(t, out.Fields["text"].GetStringValue(), "Ada")
}

func TestNewServerRejectsUnknownDomain(t *testing.T) {
	svc := league.NewService(memory.NewStore(), dice.NewSeededSource(1), nil, nil)
	assert.Panics(t, func() {
		fightserver.NewServer(svc, ai.NewRegistry(), "nope", arena.SessionConfig{}, nil)
	})
}


func TestUnaryLoggerRecordsCalls(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	svc := league.NewService(memory.NewStore(), dice.NewSeededSource(1), nil, logger)
	reg := ai.NewRegistry()
	require.NoError(t, reg.Register(ai.DefaultDomain(), nil, 0))
	srv := fightserver.NewServer(svc, reg, "brawler", arena.SessionConfig{}, logger)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(fightserver.UnaryLogger(logger)))
	srv.Register(grpcServer)
	go func() { _ = grpcServer.Serve(lis) }()
	t.Cleanup(func() { grpcServer.Stop() })

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	c := fightserver.NewClient(conn)

	_, err = c.Call(context.Background(), "ListFighters", map[string]any{})
	require.NoError(t, err)
	_, err = c.Call(context.Background(), "GetFighter", map[string]any{"id": "ghost"})
	require.Error(t, err)

	ok := logs.FilterMessage("rpc").All()
	require.Len(t, ok, 1)
	assert.Equal(t, "/fightsim.v1.FightService/ListFighters", ok[0].ContextMap()["method"])
	failed := logs.FilterMessage("rpc failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "NotFound", failed[0].ContextMap()["code"])
}
