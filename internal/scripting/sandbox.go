// Package scripting provides a sandboxed GopherLua execution environment for
// opponent policy scripts. It has no dependency on the fight engine packages;
// callers pass observations in as plain numeric fields.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit caps the opcodes one policy hook may execute when
// no limit is configured. A decision runs every few ticks, so the cap is far
// above anything a predicate needs.
const DefaultInstructionLimit = 100_000

// strippedGlobals are removed after the safe libraries load. print is gone so
// policy code cannot write to the terminal the arena renders on.
var strippedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require", "print"}

// strippedMath keeps scripts on engine.dice so a seeded run replays exactly.
var strippedMath = []string{"random", "randomseed"}

// budget is a context that cancels itself once Done has been polled limit
// times. GopherLua polls Done once per opcode.
type budget struct {
	context.Context
	cancel context.CancelFunc
	limit  int64
	polls  atomic.Int64
}

func newBudget(limit int) *budget {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &budget{Context: ctx, cancel: cancel, limit: int64(limit)}
}

func (b *budget) Done() <-chan struct{} {
	if b.polls.Add(1) >= b.limit {
		b.cancel()
	}
	return b.Context.Done()
}

// used reports how many opcodes have run against the budget, capped at limit.
func (b *budget) used() int64 { return min(b.polls.Load(), b.limit) }

// NewSandboxedState returns an LState with only base, table, string and math
// opened, the globals in strippedGlobals and math.random removed, and
// execution capped at instLimit opcodes (0 uses DefaultInstructionLimit).
//
// Postcondition: the caller owns the LState and must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range strippedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	if math, ok := L.GetGlobal("math").(*lua.LTable); ok {
		for _, name := range strippedMath {
			math.RawSetString(name, lua.LNil)
		}
	}

	L.SetContext(newBudget(instLimit))
	return L
}
