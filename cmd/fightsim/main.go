// Package main provides the fightsim command line: roster management,
// simulated bouts, tournaments and history against the configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fightsim/internal/app"
	"github.com/cory-johannsen/fightsim/internal/config"
	"github.com/cory-johannsen/fightsim/internal/game/ai"
	"github.com/cory-johannsen/fightsim/internal/game/arena"
	"github.com/cory-johannsen/fightsim/internal/game/bout"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
	"github.com/cory-johannsen/fightsim/internal/league"
)

const usage = `usage: fightsim [-config path] <command> [flags]

commands:
  roster      list fighters (-query, -division)
  register    add a fighter (-id, -name, -archetype, -weight-class)
  train       run a drill (-id, -drill, optional -gear)
  gym         list equipment, or repair one piece (-repair)
  bout        simulate a bout (-a, -b)
  arena       play an AI vs AI arena bout (-red, -blue, -max-ticks)
  tournament  run a bracket over the given ids, or the whole roster
  history     show recent bouts (-limit)
  preview     matchup commentary (-a, -b)
`

type cli struct {
	cfg      config.Config
	league   *league.Service
	policies *ai.Registry
	logger   *zap.Logger
	out      io.Writer
}

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx := context.Background()
	c, cleanup, err := build(ctx, cfg)
	if err != nil {
		log.Fatalf("initializing: %v", err)
	}
	defer cleanup()

	if err := c.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		cleanup()
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}

func build(ctx context.Context, cfg config.Config) (*cli, func(), error) {
	logger, syncLogger, err := app.ProvideLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanups := []func(){syncLogger}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		cleanups = nil
	}
	fail := func(err error) (*cli, func(), error) {
		cleanup()
		return nil, nil, err
	}

	repo, closeRepo, err := app.ProvideRepository(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeRepo)
	src := app.ProvideSource(cfg)
	commentator, err := app.ProvideCommentator(cfg, logger)
	if err != nil {
		return fail(err)
	}
	svc, err := app.ProvideLeague(ctx, cfg, repo, src, commentator, logger)
	if err != nil {
		return fail(err)
	}
	scripts, closeScripts, err := app.ProvideScripts(cfg, app.ProvideRoller(src, logger), logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeScripts)
	policies, err := app.ProvidePolicies(cfg, scripts, logger)
	if err != nil {
		return fail(err)
	}
	return &cli{cfg: cfg, league: svc, policies: policies, logger: logger, out: os.Stdout}, cleanup, nil
}

func (c *cli) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "roster":
		return c.roster(ctx, args)
	case "register":
		return c.register(ctx, args)
	case "train":
		return c.train(ctx, args)
	case "gym":
		return c.gym(args)
	case "bout":
		return c.bout(ctx, args)
	case "arena":
		return c.arena(ctx, args)
	case "tournament":
		return c.tournament(ctx, args)
	case "history":
		return c.history(ctx, args)
	case "preview":
		return c.preview(ctx, args)
	}
	return fmt.Errorf("unknown command %q\n%s", cmd, usage)
}

func (c *cli) roster(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("roster", flag.ContinueOnError)
	query := fs.String("query", "", "case-insensitive name filter")
	division := fs.String("division", "", "weight class filter")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var (
		fighters []*fighter.Fighter
		err      error
	)
	switch {
	case *query != "":
		fighters, err = c.league.Find(ctx, *query)
	case *division != "":
		wc, perr := fighter.ParseWeightClass(*division)
		if perr != nil {
			return perr
		}
		fighters, err = c.league.Division(ctx, wc)
	default:
		fighters, err = c.league.Roster(ctx)
	}
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tARCHETYPE\tDIVISION\tRECORD\tKO\tSUB\tTITLES\tSKILL")
	for _, f := range fighters {
		r := f.Record
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%.1f\n",
			f.ID, f.Name, f.Archetype, f.WeightClass, r, r.KnockoutWins, r.SubmissionWins, r.Titles, f.OverallSkill())
	}
	return tw.Flush()
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	id := fs.String("id", "", "fighter id (generated when empty)")
	name := fs.String("name", "", "fighter name (required)")
	archetype := fs.String("archetype", "balanced", "balanced, striker, grappler or hybrid")
	division := fs.String("weight-class", "Lightweight", "weight class")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := fighter.ParseArchetype(*archetype)
	if err != nil {
		return err
	}
	wc, err := fighter.ParseWeightClass(*division)
	if err != nil {
		return err
	}
	f, err := fighter.New(*id, *name, a, wc, fighter.DefaultStats(a))
	if err != nil {
		return err
	}
	persisted, err := c.league.Register(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "registered %s [%s]%s\n", f, f.ID, unsaved(persisted))
	return nil
}

func (c *cli) train(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	id := fs.String("id", "", "fighter id")
	drill := fs.String("drill", "", "striking, grappling or mma")
	gear := fs.String("gear", "", "gym equipment id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	d, err := fighter.ParseDrill(*drill)
	if err != nil {
		return err
	}
	var (
		f         *fighter.Fighter
		persisted bool
	)
	if *gear != "" {
		f, persisted, err = c.league.TrainWith(ctx, *id, d, *gear)
	} else {
		f, persisted, err = c.league.Train(ctx, *id, d)
	}
	if err != nil {
		return err
	}
	s := f.Stats
	fmt.Fprintf(c.out, "%s finished %s drill: STR %d GRP %d SPD %d VER %d%s\n",
		f.Name, d, s.Striking, s.Grappling, s.Speed, s.Versatility, unsaved(persisted))
	return nil
}

func (c *cli) gym(args []string) error {
	fs := flag.NewFlagSet("gym", flag.ContinueOnError)
	repair := fs.String("repair", "", "equipment id to repair")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *repair != "" {
		eq, err := c.league.Repair(*repair)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "repaired %s\n", &eq)
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tCONDITION\tPRICE")
	for _, eq := range c.league.Gear() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d%%\t$%.2f\n", eq.ID, eq.Name, eq.Kind, eq.Condition, eq.Price)
	}
	return tw.Flush()
}

func (c *cli) bout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bout", flag.ContinueOnError)
	a := fs.String("a", "", "first fighter id")
	b := fs.String("b", "", "second fighter id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rep, err := c.league.Bout(ctx, *a, *b)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s%s\n", rep.Result, unsaved(rep.Persisted))
	fmt.Fprintf(c.out, "  %s\n  %s\n", rep.Fighter1, rep.Fighter2)
	return nil
}

func (c *cli) arena(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("arena", flag.ContinueOnError)
	red := fs.String("red", "", "red corner fighter id")
	blue := fs.String("blue", "", "blue corner fighter id")
	maxTicks := fs.Int("max-ticks", 0, "tick cap (default ten minutes of game time)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sc := c.cfg.Arena.SessionConfig()
	if *maxTicks <= 0 {
		*maxTicks = max(sc.TickRate, arena.DefaultTickRate) * 600
	}
	p1, _ := c.policies.PolicyFor(c.cfg.Policy.Domain, sc.Rules)
	p2, _ := c.policies.PolicyFor(c.cfg.Policy.Domain, sc.Rules)
	sc.Policies = [2]arena.Policy{p1, p2}

	sess, err := c.league.NewArenaSession(ctx, *red, *blue, sc)
	if err != nil {
		return err
	}
	finished, err := sess.SimulateContext(ctx, *maxTicks)
	if err != nil {
		return err
	}
	if !finished {
		fmt.Fprintf(c.out, "bout still going after %d ticks\n", *maxTicks)
		return nil
	}
	for _, line := range sess.Snapshot().Log {
		fmt.Fprintln(c.out, "  "+line)
	}
	res, _ := sess.Result()
	rep, err := c.league.RecordArenaResult(ctx, res)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s%s\n", rep.Result, unsaved(rep.Persisted))
	return nil
}

func (c *cli) tournament(ctx context.Context, args []string) error {
	rep, err := c.league.Tournament(ctx, args)
	if err != nil {
		return err
	}
	for _, rd := range rep.Bracket.Rounds {
		if len(rd.Pairings) == 0 {
			continue
		}
		fmt.Fprintf(c.out, "Round %d (%d fighters)\n", rd.Number, rd.Size())
		for _, p := range rd.Pairings {
			fmt.Fprintf(c.out, "  %s\n", p.Result)
		}
		if rd.Bye != "" {
			fmt.Fprintf(c.out, "  bye: %s\n", rd.Bye)
		}
	}
	fmt.Fprintf(c.out, "Champion: %s%s\n", rep.Bracket.Champion, unsaved(rep.Persisted))
	return nil
}

func (c *cli) history(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("limit", c.cfg.League.HistoryLimit, "number of bouts to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	results, err := c.league.History(ctx, *limit)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintf(c.out, "%s  %-9s %s\n", r.At.Format("2006-01-02 15:04"), r.Kind, r)
	}
	st, err := c.league.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\n%d bouts, %d draws\n", st.Total, st.Draws)
	fmt.Fprintln(c.out, methodBreakdown(st))
	return nil
}

func (c *cli) preview(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	a := fs.String("a", "", "first fighter id")
	b := fs.String("b", "", "second fighter id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text, err := c.league.Preview(ctx, *a, *b)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, text)
	return nil
}

func methodBreakdown(st bout.Stats) string {
	var parts []string
	for _, m := range []bout.Method{
		bout.MethodKO, bout.MethodTKO, bout.MethodSubmission, bout.MethodGroundAndPound,
		bout.MethodDecision, bout.MethodDecisionStriking, bout.MethodDecisionGrappling, bout.MethodDoubleKO,
	} {
		if n := st.Methods[m]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", m, n))
		}
	}
	return strings.Join(parts, ", ")
}

func unsaved(persisted bool) string {
	if persisted {
		return ""
	}
	return " (not saved)"
}
