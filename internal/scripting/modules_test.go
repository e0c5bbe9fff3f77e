package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/fightsim/internal/scripting"
)

func runScript(t testing.TB, mgr *scripting.Manager, src, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	require.NoError(t, mgr.LoadString("test", src, 0))
	ret, err := mgr.CallHook("test", hook, args...)
	require.NoError(t, err)
	return ret
}

func TestEngineLog_AllLevels(t *testing.T) {
	mgr, logs := newTestManager(t)
	runScript(t, mgr, `
		function do_all_logs()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
			engine.log.error("e")
		end
	`, "do_all_logs")

	for _, lvl := range []zapcore.Level{zap.DebugLevel, zap.InfoLevel, zap.WarnLevel, zap.ErrorLevel} {
		assert.Equal(t, 1, logs.FilterLevelExact(lvl).FilterField(zap.String("source", "lua")).Len(), lvl.String())
	}
}

func TestEngineDice_Roll_ReturnsTable(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function do_roll()
			local r = engine.dice.roll("1d6")
			if type(r.dice) ~= "number" then error("dice field missing") end
			return r.total
		end
	`, "do_roll")
	n, ok := ret.(lua.LNumber)
	require.True(t, ok, "expected LNumber, got %T", ret)
	assert.GreaterOrEqual(t, int(n), 1)
	assert.LessOrEqual(t, int(n), 6)
}

func TestEngineDice_Roll_BadExpressionIsRuntimeError(t *testing.T) {
	mgr, logs := newTestManager(t)
	ret := runScript(t, mgr, `function bad() return engine.dice.roll("banana").total end`, "bad")
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestEngineDice_Chance_Extremes(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Equal(t, lua.LTrue, runScript(t, mgr, `function f() return engine.dice.chance(1) end`, "f"))
	assert.Equal(t, lua.LFalse, runScript(t, mgr, `function f() return engine.dice.chance(0) end`, "f"))
}

func TestProperty_DiceRoll_TotalEqualsDicePlusModifier(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("test", `
		function check_invariant(expr)
			local r = engine.dice.roll(expr)
			return r.total == r.dice + r.modifier
		end
	`, 0))
	rapid.Check(t, func(rt *rapid.T) {
		expr := rapid.SampledFrom([]string{"1d6", "2d6-3", "1d4+1", "1d8-4"}).Draw(rt, "expr")
		ret, err := mgr.CallHook("test", "check_invariant", lua.LString(expr))
		if err != nil {
			rt.Fatal(err)
		}
		if ret != lua.LTrue {
			rt.Fatalf("total must equal dice + modifier for expr %s", expr)
		}
	})
}
