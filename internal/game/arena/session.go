package arena

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/fightsim/internal/game/bout"
	"github.com/cory-johannsen/fightsim/internal/game/dice"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
)

// ErrAutomatedCorner is returned when input is submitted for a corner that
// an opponent policy controls.
var ErrAutomatedCorner = errors.New("arena: corner is controlled by a policy")

// Observation is everything an opponent policy may look at.
type Observation struct {
	Archetype  fighter.Archetype
	Stats      fighter.Stats
	Stamina    float64
	HP         int
	OpponentHP int
	Distance   float64
}

// Observe extracts slot's observation from s.
func Observe(s State, slot Slot) Observation {
	me, them := s.Corners[slot], s.Corners[slot.Other()]
	return Observation{
		Archetype:  me.Archetype,
		Stats:      me.Stats,
		Stamina:    me.Stamina,
		HP:         me.HP,
		OpponentHP: them.HP,
		Distance:   s.Distance(),
	}
}

// Policy chooses one action per decision tick.
type Policy interface {
	Decide(obs Observation, src dice.Source) Action
}

// SessionConfig configures a Session. Zero values take defaults.
type SessionConfig struct {
	Rules    Rules
	TickRate int
	// DecisionInterval is the time between policy decisions, in seconds.
	DecisionInterval float64
	LogLines         int
	// Policies holds the controller of each corner; nil means the corner
	// is driven through Submit.
	Policies [2]Policy
}

const (
	DefaultTickRate         = 60
	DefaultDecisionInterval = 0.15
	DefaultLogLines         = 8
)

// Session owns one live bout: it feeds human input and policy decisions into
// Step at a fixed rate and keeps a short event log for presentation.
// Safe for concurrent use; Submit may be called from an input goroutine
// while Run drives the clock.
type Session struct {
	mu       sync.Mutex
	id       string
	rules    Rules
	dt       float64
	interval float64
	src      dice.Source
	logger   *zap.Logger
	policies [2]Policy

	state        State
	standing     [2]Intent
	pending      [2]Action
	hasPending   [2]bool
	nextDecision [2]float64
	log          []string
	logged       uint64
	maxLog       int
	result       *bout.Result
	done         chan struct{}
}

// NewSession places red and blue in the ring.
//
// Precondition: src must be non-nil.
func NewSession(red, blue *fighter.Fighter, cfg SessionConfig, src dice.Source, logger *zap.Logger) (*Session, error) {
	if src == nil {
		panic("arena: NewSession precondition violated: src must be non-nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Rules == (Rules{}) {
		cfg.Rules = DefaultRules()
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.DecisionInterval <= 0 {
		cfg.DecisionInterval = DefaultDecisionInterval
	}
	if cfg.LogLines <= 0 {
		cfg.LogLines = DefaultLogLines
	}
	st, err := NewState(red, blue, cfg.Rules)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		rules:    cfg.Rules,
		dt:       1 / float64(cfg.TickRate),
		interval: cfg.DecisionInterval,
		src:      src,
		logger:   logger.With(zap.String("session", id)),
		policies: cfg.Policies,
		state:    st,
		maxLog:   cfg.LogLines,
		done:     make(chan struct{}),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// TickInterval returns the wall-clock duration of one tick.
func (s *Session) TickInterval() time.Duration {
	return time.Duration(s.dt * float64(time.Second))
}

// Done is closed when the bout reaches its terminal state.
func (s *Session) Done() <-chan struct{} { return s.done }

// Submit queues in for slot's next tick. Movement intents persist until
// replaced; other actions are consumed by the next tick, and only the first
// one submitted within a tick is kept. Input after the bout ends is ignored.
func (s *Session) Submit(slot Slot, in Intent) error {
	if slot != Red && slot != Blue {
		return fmt.Errorf("arena: unknown corner %d", slot)
	}
	if s.policies[slot] != nil {
		return ErrAutomatedCorner
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Over() {
		return nil
	}
	if in.Action.IsMovement() {
		s.standing[slot] = in
		return nil
	}
	if !in.Heading.IsZero() {
		s.standing[slot] = Intent{Action: ActionHold, Heading: in.Heading}
	}
	if !s.hasPending[slot] {
		s.pending[slot] = in.Action
		s.hasPending[slot] = true
	}
	return nil
}

// SubmitAction parses name and submits it for slot. Unknown names are
// rejected with an *UnknownMoveError.
func (s *Session) SubmitAction(slot Slot, name string) error {
	a, err := ParseAction(name)
	if err != nil {
		return err
	}
	return s.Submit(slot, Intent{Action: a})
}

// Tick advances the bout by one fixed step and returns the new snapshot.
func (s *Session) Tick() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Over() {
		return s.view()
	}

	var intents [2]Intent
	for _, slot := range []Slot{Red, Blue} {
		if p := s.policies[slot]; p != nil && s.state.Clock >= s.nextDecision[slot] {
			s.decide(slot, p)
		}
		intents[slot] = Intent{Action: s.standing[slot].Action, Heading: s.standing[slot].Heading}
		if s.hasPending[slot] {
			intents[slot].Action = s.pending[slot]
			s.hasPending[slot] = false
		}
	}

	next, events := Step(s.state, intents, s.dt, s.rules, s.src)
	s.state = next
	for _, ev := range events {
		s.appendLog(ev.Describe(next))
	}
	if next.Over() {
		s.finish()
	}
	return s.view()
}

func (s *Session) decide(slot Slot, p Policy) {
	a := p.Decide(Observe(s.state, slot), s.src)
	s.nextDecision[slot] = s.state.Clock + s.interval
	if a.IsMovement() {
		s.standing[slot] = Intent{Action: a}
		return
	}
	s.standing[slot] = Intent{Action: ActionHold}
	s.pending[slot] = a
	s.hasPending[slot] = true
}

func (s *Session) appendLog(line string) {
	if line == "" {
		return
	}
	s.log = append(s.log, line)
	s.logged++
	if len(s.log) > s.maxLog {
		s.log = s.log[len(s.log)-s.maxLog:]
	}
}

func (s *Session) finish() {
	red, blue := s.state.Corners[Red], s.state.Corners[Blue]
	res := bout.Result{
		ID:           uuid.NewString(),
		Kind:         bout.KindArena,
		Fighter1ID:   red.FighterID,
		Fighter2ID:   blue.FighterID,
		Fighter1Name: red.Name,
		Fighter2Name: blue.Name,
		Method:       bout.MethodKO,
		Score1:       float64(red.HP),
		Score2:       float64(blue.HP),
		At:           time.Now(),
	}
	if s.state.Outcome.Draw {
		res.Draw = true
		res.Method = bout.MethodDoubleKO
	} else {
		res.WinnerID = s.state.Corners[s.state.Outcome.Winner].FighterID
	}
	s.result = &res
	close(s.done)
	s.logger.Info("arena bout finished",
		zap.String("bout_id", res.ID),
		zap.String("method", string(res.Method)),
		zap.String("winner", res.WinnerName()),
		zap.Uint64("ticks", s.state.Tick),
	)
}

func (s *Session) view() Snapshot {
	snap := View(s.state, s.log)
	snap.Logged = s.logged
	return snap
}

// Result returns the terminal bout result once the bout is over.
func (s *Session) Result() (bout.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return bout.Result{}, false
	}
	return *s.result, true
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the current presentation view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// Run ticks the session in real time until the bout ends or ctx is
// cancelled, handing each snapshot to observe (which may be nil). An
// abandoned bout returns ctx.Err() and produces no result.
func (s *Session) Run(ctx context.Context, observe func(Snapshot)) error {
	ticker := time.NewTicker(s.TickInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("arena bout abandoned", zap.Uint64("tick", s.State().Tick))
			return ctx.Err()
		case <-ticker.C:
			snap := s.Tick()
			if observe != nil {
				observe(snap)
			}
			if snap.Phase == PhaseOver {
				return nil
			}
		}
	}
}

// simulateCheck is how many ticks SimulateContext runs between context
// checks.
const simulateCheck = 64

// Simulate ticks the session as fast as possible until the bout ends or
// maxTicks steps have run, reporting whether the bout finished.
func (s *Session) Simulate(maxTicks int) bool {
	done, _ := s.SimulateContext(context.Background(), maxTicks)
	return done
}

// SimulateContext is Simulate bounded by ctx as well. A cancelled run
// returns ctx.Err() and produces no result.
func (s *Session) SimulateContext(ctx context.Context, maxTicks int) (bool, error) {
	for i := 0; i < maxTicks; i++ {
		if i%simulateCheck == 0 {
			if err := ctx.Err(); err != nil {
				s.logger.Info("arena bout abandoned", zap.Uint64("tick", s.State().Tick))
				return false, err
			}
		}
		if s.Tick().Phase == PhaseOver {
			return true, nil
		}
	}
	return s.State().Over(), nil
}
