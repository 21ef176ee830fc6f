package scripting

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// Hook names understood by the generator.
const (
	HookTransitionEnabled = "transition_enabled"
	HookStartingItems     = "starting_items"
)

// flagTable converts flags into a Lua table keyed by flag name, inserting
// keys in sorted order so hook runs are reproducible.
func flagTable(L *lua.LState, flags map[string]bool) *lua.LTable {
	t := L.NewTable()
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t.RawSetString(name, lua.LBool(flags[name]))
	}
	return t
}

// TransitionEnabled asks transition_enabled(from, to, flags) whether a
// transition stays in the graph.
//
// Postcondition: Returns true when no scripts are loaded, the hook is not
// defined, it fails, or it returns anything other than false.
func (m *Manager) TransitionEnabled(from, to string, flags map[string]bool) bool {
	ret, _ := m.call(HookTransitionEnabled, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{lua.LString(from), lua.LString(to), flagTable(L, flags)}
	})
	return ret != lua.LFalse
}

// StartingItems calls starting_items(flags) and returns the item names it
// lists.
//
// Postcondition: Returns nil when the hook is absent or fails; returns an
// error when the hook returns something other than a list of strings.
func (m *Manager) StartingItems(flags map[string]bool) ([]string, error) {
	ret, err := m.call(HookStartingItems, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{flagTable(L, flags)}
	})
	if err != nil || ret == lua.LNil {
		return nil, err
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("scripting: %s returned %s, want a table", HookStartingItems, ret.Type())
	}
	var out []string
	for i := 1; i <= tbl.Len(); i++ {
		s, ok := tbl.RawGetInt(i).(lua.LString)
		if !ok {
			return nil, fmt.Errorf("scripting: %s entry %d is not a string", HookStartingItems, i)
		}
		out = append(out, string(s))
	}
	return out, nil
}
