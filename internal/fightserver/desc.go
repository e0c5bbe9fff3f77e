package fightserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

type unaryMethod func(*Server, context.Context, *structpb.Struct) (*structpb.Struct, error)

var methods = map[string]unaryMethod{
	"ListFighters":    (*Server).ListFighters,
	"GetFighter":      (*Server).GetFighter,
	"RegisterFighter": (*Server).RegisterFighter,
	"TrainFighter":    (*Server).TrainFighter,
	"ResolveBout":     (*Server).ResolveBout,
	"SimulateArena":   (*Server).SimulateArena,
	"RunTournament":   (*Server).RunTournament,
	"History":         (*Server).History,
	"Preview":         (*Server).Preview,
}

// ServiceDesc describes the fight service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*any)(nil),
	Methods:     methodDescs(),
	Streams:     []grpc.StreamDesc{},
	Metadata:    "fightsim/v1/fight.proto",
}

func methodDescs() []grpc.MethodDesc {
	names := []string{
		"ListFighters", "GetFighter", "RegisterFighter", "TrainFighter",
		"ResolveBout", "SimulateArena", "RunTournament", "History", "Preview",
	}
	out := make([]grpc.MethodDesc, 0, len(names))
	for _, name := range names {
		out = append(out, grpc.MethodDesc{MethodName: name, Handler: handler(name, methods[name])})
	}
	return out
}

func handler(name string, m unaryMethod) grpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + name
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return m(srv.(*Server), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return m(srv.(*Server), ctx, req.(*structpb.Struct))
		})
	}
}
