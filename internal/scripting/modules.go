package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine Lua table into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine.log(msg) writes msg to the manager's logger at
// Debug level.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetFuncs(engine, map[string]lua.LGFunction{
		"log": func(L *lua.LState) int {
			m.logger.Debug("scripting: "+L.CheckString(1), zap.String("source", "lua"))
			return 0
		},
	})
	L.SetGlobal("engine", engine)
}
