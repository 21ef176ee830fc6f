package scripting_test

import (
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dkrando/content"
	"github.com/cory-johannsen/dkrando/internal/scripting"
)

func newTestManager(t testing.TB, limit int) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return scripting.NewManager(zap.New(core), limit), logs
}

func scripts(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, src := range files {
		fsys["s/"+name] = &fstest.MapFile{Data: []byte(src)}
	}
	return fsys
}

func hasLevel(logs *observer.ObservedLogs, level zapcore.Level) bool {
	for _, e := range logs.All() {
		if e.Level == level {
			return true
		}
	}
	return false
}

func TestManager_Load_CallsHook(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.Load(scripts(map[string]string{"hooks.lua": `
		function add(a, b)
			return a + b
		end
	`}), "s"))
	ret, err := mgr.CallHook("add", lua.LNumber(3), lua.LNumber(4))
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(7), ret)
	assert.True(t, mgr.HasHook("add"))
	assert.False(t, mgr.HasHook("sub"))
}

func TestManager_CallHook_NothingLoaded(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	ret, err := mgr.CallHook("anything")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, mgr.TransitionEnabled("a", "b", nil))
	items, err := mgr.StartingItems(nil)
	require.NoError(t, err)
	assert.Nil(t, items)
}

func TestManager_CallHook_RuntimeErrorLogsWarn(t *testing.T) {
	mgr, logs := newTestManager(t, 0)
	require.NoError(t, mgr.Load(scripts(map[string]string{"bad.lua": `
		function bad_hook()
			error("intentional error")
		end
	`}), "s"))
	ret, err := mgr.CallHook("bad_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, hasLevel(logs, zapcore.WarnLevel), "expected Warn log for Lua runtime error")
}

func TestManager_InstructionBudgetIsPerCall(t *testing.T) {
	mgr, _ := newTestManager(t, 500)
	require.NoError(t, mgr.Load(scripts(map[string]string{"loop.lua": `
		function spin() while true do end end
		function small() local x = 0 for i = 1, 10 do x = x + i end return x end
	`}), "s"))

	ret, err := mgr.CallHook("spin")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret, "runaway hook is cut off")

	for range 20 {
		ret, err = mgr.CallHook("small")
		require.NoError(t, err)
		assert.Equal(t, lua.LNumber(55), ret, "each call gets a fresh budget")
	}
}

func TestManager_Load_RunawayScriptFails(t *testing.T) {
	mgr, _ := newTestManager(t, 50)
	err := mgr.Load(scripts(map[string]string{"loop.lua": `while true do end`}), "s")
	assert.Error(t, err)
}

func TestManager_Load_InvalidLuaKeepsPrevious(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.Load(scripts(map[string]string{"a.lua": `function get() return 1 end`}), "s"))
	err := mgr.Load(scripts(map[string]string{"bad.lua": `this is not valid lua @@@@`}), "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.lua")
	ret, _ := mgr.CallHook("get")
	assert.Equal(t, lua.LNumber(1), ret)
}

func TestManager_Load_OrderedByName(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.Load(scripts(map[string]string{
		"a.lua": `base_val = 10`,
		"b.lua": `function get_val() return base_val end`,
	}), "s"))
	ret, err := mgr.CallHook("get_val")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(10), ret)
}

func TestManager_EngineLog(t *testing.T) {
	mgr, logs := newTestManager(t, 0)
	require.NoError(t, mgr.Load(scripts(map[string]string{"log.lua": `engine.log("hello")`}), "s"))
	assert.Equal(t, 1, logs.FilterMessage("scripting: hello").Len())
}

func TestManager_Close(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.Load(scripts(map[string]string{"a.lua": `function get_x() return 1 end`}), "s"))
	mgr.Close()
	ret, err := mgr.CallHook("get_x")
	assert.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestBundledHooks(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.Load(content.FS, "scripts"))

	assert.True(t, mgr.TransitionEnabled("isles_main", "training_grounds", map[string]bool{"open_world": false}))
	assert.False(t, mgr.TransitionEnabled("isles_main", "training_grounds", map[string]bool{"open_world": true}))
	assert.True(t, mgr.TransitionEnabled("isles_main", "krool_arena", map[string]bool{"open_world": true}))

	items, err := mgr.StartingItems(map[string]bool{"unlock_fairy_shockwave": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"camera_and_shockwave"}, items)
	items, err = mgr.StartingItems(map[string]bool{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStartingItems_RejectsNonList(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.Load(scripts(map[string]string{"h.lua": `function starting_items(flags) return 3 end`}), "s"))
	_, err := mgr.StartingItems(nil)
	assert.Error(t, err)
}

func TestProperty_ConcurrentHooks_NoRace(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.Load(scripts(map[string]string{"h.lua": `
		function transition_enabled(from, to, flags)
			return not flags.blocked
		end
	`}), "s"))

	rapid.Check(t, func(rt *rapid.T) {
		blocked := rapid.Bool().Draw(rt, "blocked")
		goroutines := rapid.IntRange(1, 8).Draw(rt, "goroutines")
		var wg sync.WaitGroup
		results := make([]bool, goroutines)
		for i := range goroutines {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = mgr.TransitionEnabled("a", "b", map[string]bool{"blocked": blocked})
			}()
		}
		wg.Wait()
		for _, r := range results {
			assert.Equal(rt, !blocked, r)
		}
	})
}
