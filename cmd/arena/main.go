// Package main runs a live arena bout in the terminal. The red corner reads
// actions from stdin (approach, retreat, hold, jab, kick, grapple, block,
// rest); the blue corner is driven by the configured AI policy.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fightsim/internal/app"
	"github.com/cory-johannsen/fightsim/internal/config"
	"github.com/cory-johannsen/fightsim/internal/game/arena"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	redID := flag.String("red", "", "red corner fighter id (you)")
	blueID := flag.String("blue", "", "blue corner fighter id (AI)")
	auto := flag.Bool("auto", false, "let the AI fight the red corner too")
	flag.Parse()

	if *redID == "" || *blueID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *redID, *blueID, *auto); err != nil && !errors.Is(err, context.Canceled) {
		stop()
		log.Fatalf("arena: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config, redID, blueID string, auto bool) error {
	logger, syncLogger, err := app.ProvideLogger(cfg)
	if err != nil {
		return err
	}
	defer syncLogger()

	repo, closeRepo, err := app.ProvideRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	src := app.ProvideSource(cfg)
	svc, err := app.ProvideLeague(ctx, cfg, repo, src, nil, logger)
	if err != nil {
		return err
	}
	scripts, closeScripts, err := app.ProvideScripts(cfg, app.ProvideRoller(src, logger), logger)
	if err != nil {
		return err
	}
	defer closeScripts()
	policies, err := app.ProvidePolicies(cfg, scripts, logger)
	if err != nil {
		return err
	}

	sc := app.ProvideSessionConfig(cfg)
	ai, _ := policies.PolicyFor(cfg.Policy.Domain, sc.Rules)
	sc.Policies[arena.Blue] = ai
	if auto {
		red, _ := policies.PolicyFor(cfg.Policy.Domain, sc.Rules)
		sc.Policies[arena.Red] = red
	}

	sess, err := svc.NewArenaSession(ctx, redID, blueID, sc)
	if err != nil {
		return err
	}
	logger.Info("arena bout started", zap.String("session", sess.ID()))

	if !auto {
		fmt.Println("Commands: approach, retreat, hold, jab, kick, grapple, block, rest")
		go readCommands(sess)
	}

	printer := &printer{every: uint64(max(sc.TickRate, arena.DefaultTickRate))}
	if err := sess.Run(ctx, printer.observe); err != nil {
		return err
	}

	res, _ := sess.Result()
	rep, err := svc.RecordArenaResult(ctx, res)
	if err != nil {
		return err
	}
	fmt.Printf("\n%s\n", rep.Result)
	if !rep.Persisted {
		fmt.Println("(result not saved)")
	}
	return nil
}

func readCommands(sess *arena.Session) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := sess.SubmitAction(arena.Red, line); err != nil {
			fmt.Println(err)
		}
	}
}

// printer echoes new log lines as they appear and a status line once per
// second of game time.
type printer struct {
	every  uint64
	logged uint64
}

func (p *printer) observe(snap arena.Snapshot) {
	for _, line := range snap.Unseen(p.logged) {
		fmt.Println("  " + line)
	}
	p.logged = snap.Logged
	if snap.Tick%p.every == 0 || snap.Phase == arena.PhaseOver {
		r, b := snap.Corners[arena.Red], snap.Corners[arena.Blue]
		fmt.Printf("[%5.1fs] %s HP %3d ST %3.0f | %s HP %3d ST %3.0f | gap %.0f\n",
			snap.Clock, r.Name, r.HP, r.Stamina, b.Name, b.HP, b.Stamina, r.Pos.Dist(b.Pos))
	}
}
