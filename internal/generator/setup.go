package generator

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dkrando/content"
	"github.com/cory-johannsen/dkrando/internal/config"
	"github.com/cory-johannsen/dkrando/internal/observability"
	"github.com/cory-johannsen/dkrando/internal/scripting"
)

// ScriptsDisabled is the generation.script_dir value that turns hooks off.
const ScriptsDisabled = "none"

// FromConfig loads content and hooks as cfg.Generation directs and builds
// a generator for cfg.Settings. The returned close func releases the hook VM.
//
// Postcondition: Returns a generator and its close func, or an error;
// configuration problems wrap ErrConfiguration.
func FromConfig(cfg config.Config, logger *zap.Logger, metrics *observability.Metrics) (*Generator, func(), error) {
	c, err := LoadContentDir(cfg.Generation.ContentDir)
	if err != nil {
		return nil, nil, err
	}

	var hooks *scripting.Manager
	closeHooks := func() {}
	if cfg.Generation.ScriptDir != ScriptsDisabled {
		hooks = scripting.NewManager(logger, cfg.Generation.InstructionLimit)
		if cfg.Generation.ScriptDir == "" {
			err = hooks.Load(content.FS, "scripts")
		} else {
			err = hooks.LoadDir(cfg.Generation.ScriptDir)
		}
		if err != nil {
			hooks.Close()
			return nil, nil, fmt.Errorf("loading hooks: %w", err)
		}
		closeHooks = hooks.Close
	}

	g, err := New(c, Options{
		Settings:            cfg.Settings,
		MaxAttempts:         cfg.Generation.MaxAttempts,
		MaxEntranceAttempts: cfg.Generation.MaxEntranceAttempts,
		Hooks:               hooks,
		Logger:              logger,
		Metrics:             metrics,
	})
	if err != nil {
		closeHooks()
		return nil, nil, err
	}
	return g, closeHooks, nil
}
