// Package fightserver exposes the league over gRPC for batch clients. Messages
// are protobuf Struct values, so the service needs no generated code; the
// method table lives in ServiceDesc.
package fightserver

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/fightsim/internal/game/ai"
	"github.com/cory-johannsen/fightsim/internal/game/arena"
	"github.com/cory-johannsen/fightsim/internal/game/bout"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
	"github.com/cory-johannsen/fightsim/internal/game/tournament"
	"github.com/cory-johannsen/fightsim/internal/league"
	"github.com/cory-johannsen/fightsim/internal/storage"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "fightsim.v1.FightService"

// DefaultMaxTicks caps a simulated arena bout at ten minutes of game time.
const DefaultMaxTicks = arena.DefaultTickRate * 60 * 10

// Server implements the fight service.
type Server struct {
	league   *league.Service
	policies *ai.Registry
	domain   string
	session  arena.SessionConfig
	logger   *zap.Logger
}

// NewServer creates a Server. Arena bouts put domain's policy in both corners.
//
// Precondition: svc and policies must be non-nil and domain registered.
func NewServer(svc *league.Service, policies *ai.Registry, domain string, session arena.SessionConfig, logger *zap.Logger) *Server {
	if svc == nil || policies == nil {
		panic("fightserver: NewServer precondition violated: svc and policies must be non-nil")
	}
	if _, ok := policies.PlannerFor(domain); !ok {
		panic("fightserver: NewServer precondition violated: unknown policy domain " + domain)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{league: svc, policies: policies, domain: domain, session: session, logger: logger}
}

// Register attaches s to gs.
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(&ServiceDesc, s)
}

// ListFighters returns the roster. An optional "query" filters by name and
// "weight_class" by division.
func (s *Server) ListFighters(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var (
		fs  []*fighter.Fighter
		err error
	)
	switch {
	case stringField(req, "query") != "":
		fs, err = s.league.Find(ctx, stringField(req, "query"))
	case stringField(req, "weight_class") != "":
		wc, perr := fighter.ParseWeightClass(stringField(req, "weight_class"))
		if perr != nil {
			return nil, status.Error(codes.InvalidArgument, perr.Error())
		}
		fs, err = s.league.Division(ctx, wc)
	default:
		fs, err = s.league.Roster(ctx)
	}
	if err != nil {
		return nil, s.toStatus("list fighters", err)
	}
	return toStruct(fightersMap(fs))
}

// GetFighter returns the fighter named by "id".
func (s *Server) GetFighter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := s.league.Fighter(ctx, stringField(req, "id"))
	if err != nil {
		return nil, s.toStatus("get fighter", err)
	}
	return toStruct(fighterMap(f))
}

// RegisterFighter creates a fighter from name, archetype, weight_class and
// an optional partial stats object.
func (s *Server) RegisterFighter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := fighterFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	persisted, err := s.league.Register(ctx, f)
	if err != nil {
		return nil, s.toStatus("register fighter", err)
	}
	out := fighterMap(f)
	out["persisted"] = persisted
	return toStruct(out)
}

// TrainFighter runs "drill" on fighter "id".
func (s *Server) TrainFighter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	d, err := fighter.ParseDrill(stringField(req, "drill"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	f, persisted, err := s.league.Train(ctx, stringField(req, "id"), d)
	if err != nil {
		return nil, s.toStatus("train fighter", err)
	}
	out := fighterMap(f)
	out["persisted"] = persisted
	return toStruct(out)
}

// ResolveBout runs a simulated bout between fighter1_id and fighter2_id.
func (s *Server) ResolveBout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	rep, err := s.league.Bout(ctx, stringField(req, "fighter1_id"), stringField(req, "fighter2_id"))
	if err != nil {
		return nil, s.toStatus("resolve bout", err)
	}
	out := resultMap(rep.Result)
	out["persisted"] = rep.Persisted
	return toStruct(out)
}

// SimulateArena plays a real-time bout between red_id and blue_id with the
// AI policy in both corners and records the result. "max_ticks" bounds the
// run; a bout still going at the cap is reported as unfinished. A cancelled
// request stops the simulation and records nothing.
func (s *Server) SimulateArena(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	maxTicks := intField(req, "max_ticks")
	if maxTicks <= 0 {
		maxTicks = DefaultMaxTicks
	}
	cfg := s.session
	if cfg.Rules == (arena.Rules{}) {
		cfg.Rules = arena.DefaultRules()
	}
	red, _ := s.policies.PolicyFor(s.domain, cfg.Rules)
	blue, _ := s.policies.PolicyFor(s.domain, cfg.Rules)
	cfg.Policies = [2]arena.Policy{red, blue}

	sess, err := s.league.NewArenaSession(ctx, stringField(req, "red_id"), stringField(req, "blue_id"), cfg)
	if err != nil {
		return nil, s.toStatus("start arena", err)
	}
	finished, err := sess.SimulateContext(ctx, maxTicks)
	if err != nil {
		return nil, s.toStatus("simulate arena", err)
	}
	if !finished {
		snap := sess.Snapshot()
		return toStruct(map[string]any{
			"finished": false,
			"tick":     snap.Tick,
			"red_hp":   snap.Corners[arena.Red].HP,
			"blue_hp":  snap.Corners[arena.Blue].HP,
		})
	}
	res, _ := sess.Result()
	rep, err := s.league.RecordArenaResult(ctx, res)
	if err != nil {
		return nil, s.toStatus("record arena result", err)
	}
	out := resultMap(rep.Result)
	out["finished"] = true
	out["tick"] = sess.Snapshot().Tick
	out["persisted"] = rep.Persisted
	return toStruct(out)
}

// RunTournament runs a bracket over "fighter_ids", or the whole roster when
// the list is empty.
func (s *Server) RunTournament(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	rep, err := s.league.Tournament(ctx, stringList(req, "fighter_ids"))
	if err != nil {
		return nil, s.toStatus("run tournament", err)
	}
	out := bracketMap(rep.Bracket)
	out["persisted"] = rep.Persisted
	return toStruct(out)
}

// History returns up to "limit" stored results, newest first, with a method
// breakdown.
func (s *Server) History(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	rs, err := s.league.History(ctx, intField(req, "limit"))
	if err != nil {
		return nil, s.toStatus("history", err)
	}
	st, err := s.league.Stats(ctx)
	if err != nil {
		return nil, s.toStatus("history", err)
	}
	methods := make(map[string]any, len(st.Methods))
	for m, n := range st.Methods {
		methods[string(m)] = n
	}
	return toStruct(map[string]any{
		"results": resultsList(rs),
		"total":   st.Total,
		"draws":   st.Draws,
		"methods": methods,
	})
}

// Preview returns matchup commentary for fighter1_id and fighter2_id.
func (s *Server) Preview(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text, err := s.league.Preview(ctx, stringField(req, "fighter1_id"), stringField(req, "fighter2_id"))
	if err != nil {
		return nil, s.toStatus("preview", err)
	}
	return toStruct(map[string]any{"text": text})
}

// toStatus maps domain errors onto gRPC codes. Unexpected errors are logged
// and reported as Internal.
func (s *Server) toStatus(op string, err error) error {
	var (
		verr *bout.ValidationError
		rerr *tournament.InvalidRosterError
	)
	switch {
	case errors.Is(err, storage.ErrFighterNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, storage.ErrDuplicateFighter), errors.Is(err, storage.ErrDuplicateBout):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.As(err, &verr), errors.As(err, &rerr),
		errors.Is(err, fighter.ErrInvalidFighter),
		errors.Is(err, fighter.ErrUnknownDrill),
		errors.Is(err, fighter.ErrDrillNotAllowed):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	s.logger.Error("fightserver: request failed", zap.String("op", op), zap.Error(err))
	return status.Error(codes.Internal, err.Error())
}
