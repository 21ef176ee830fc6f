package scripting

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Manager owns one sandboxed LState holding every loaded hook script and
// exposes hook dispatch.
//
// Manager is safe for concurrent use; calls into the VM are serialized.
type Manager struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int
	logger    *zap.Logger
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager; CallHook returns LNil until Load.
func NewManager(logger *zap.Logger, instLimit int) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{logger: logger, instLimit: instLimit}
}

// Load creates a sandboxed VM, registers the engine module, then executes
// every *.lua file under dir in fsys in lexicographic order. A previously
// loaded VM is replaced.
//
// Precondition: dir must be a readable directory in fsys.
// Postcondition: Returns an error naming the failing file on Lua load failure;
// the previous VM stays in place in that case.
func (m *Manager) Load(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			files = append(files, path.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	L := NewSandboxedState()
	m.RegisterModules(L)
	for _, file := range files {
		src, err := fs.ReadFile(fsys, file)
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: reading %q: %w", file, err)
		}
		if err := withBudget(L, m.instLimit, func() error { return L.DoString(string(src)) }); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", file, err)
		}
	}

	m.mu.Lock()
	if m.L != nil {
		m.L.Close()
	}
	m.L = L
	m.mu.Unlock()
	m.logger.Debug("scripting: hooks loaded", zap.String("dir", dir), zap.Int("files", len(files)))
	return nil
}

// LoadDir is Load over a directory on disk.
func (m *Manager) LoadDir(dir string) error {
	return m.Load(os.DirFS(dir), ".")
}

// CallHook calls the named Lua global function. Returns (LNil, nil) if no
// scripts are loaded or the hook is not defined. Lua runtime errors,
// including an exhausted instruction budget, are logged at Warn level and
// never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	return m.call(hook, func(*lua.LState) []lua.LValue { return args })
}

// call is CallHook with arguments built under the VM lock, for arguments
// such as tables that must be allocated in the VM.
func (m *Manager) call(hook string, args func(L *lua.LState) []lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L == nil {
		return lua.LNil, nil
	}
	fn := m.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	err := withBudget(m.L, m.instLimit, func() error {
		return m.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args(m.L)...)
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	ret := m.L.Get(-1)
	m.L.Pop(1)
	return ret, nil
}

// HasHook reports whether the loaded scripts define hook.
func (m *Manager) HasHook(hook string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.L != nil && m.L.GetGlobal(hook) != lua.LNil
}

// Close releases the VM. Subsequent calls to CallHook return LNil.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L != nil {
		m.L.Close()
		m.L = nil
	}
}
