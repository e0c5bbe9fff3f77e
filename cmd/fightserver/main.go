// Package main provides the fight server binary: the league behind a gRPC
// service for batch clients.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/fightsim/internal/config"
	"github.com/cory-johannsen/fightsim/internal/fightserver"
	"github.com/cory-johannsen/fightsim/internal/game/ai"
	"github.com/cory-johannsen/fightsim/internal/game/arena"
	"github.com/cory-johannsen/fightsim/internal/league"
	"github.com/cory-johannsen/fightsim/internal/server"
)

// application is the wired object graph.
type application struct {
	cfg    config.Config
	logger *zap.Logger
	grpc   *grpc.Server
}

func provideFightServer(cfg config.Config, svc *league.Service, policies *ai.Registry, session arena.SessionConfig, logger *zap.Logger) *fightserver.Server {
	return fightserver.NewServer(svc, policies, cfg.Policy.Domain, session, logger)
}

func provideGRPCServer(srv *fightserver.Server, logger *zap.Logger) *grpc.Server {
	gs := grpc.NewServer(grpc.UnaryInterceptor(fightserver.UnaryLogger(logger)))
	srv.Register(gs)
	return gs
}

func newApplication(cfg config.Config, logger *zap.Logger, gs *grpc.Server) *application {
	return &application{cfg: cfg, logger: logger, grpc: gs}
}

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	app, cleanup, err := initializeApplication(ctx, cfg)
	if err != nil {
		log.Fatalf("initializing fight server: %v", err)
	}
	defer cleanup()
	logger := app.logger

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("grpc", server.ServiceFuncs{
		ServeFn: func(context.Context) error {
			lis, err := net.Listen("tcp", cfg.FightServer.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.FightServer.Addr(), err)
			}
			logger.Info("gRPC server listening",
				zap.String("addr", lis.Addr().String()),
			)
			return app.grpc.Serve(lis)
		},
		ShutdownFn: func(ctx context.Context) error {
			drained := make(chan struct{})
			go func() {
				app.grpc.GracefulStop()
				close(drained)
			}()
			select {
			case <-drained:
				return nil
			case <-ctx.Done():
				app.grpc.Stop()
				return fmt.Errorf("draining gRPC: %w", ctx.Err())
			}
		},
	})

	logger.Info("fight server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("grpc_addr", cfg.FightServer.Addr()),
		zap.String("storage", cfg.Storage.Driver),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
	}
}
