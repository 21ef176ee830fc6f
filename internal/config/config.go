// Package config provides Viper-based configuration loading for the seed
// generator binaries.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/dkrando/internal/game/settings"
)

// Archive backends.
const (
	ArchiveNone     = "none"
	ArchivePostgres = "postgres"
	ArchiveSQLite   = "sqlite"
)

// Spoiler formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LogFileConfig configures the optional rotating log file.
type LogFileConfig struct {
	// Path of the log file; empty disables file logging.
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string        `mapstructure:"format"`
	File   LogFileConfig `mapstructure:"file"`
}

// GenerationConfig controls the generation pipeline.
type GenerationConfig struct {
	// ContentDir holds world/ and doors/; empty uses the bundled content.
	ContentDir string `mapstructure:"content_dir"`
	// ScriptDir holds the world hook scripts; empty uses the bundled scripts
	// and "none" disables hooks.
	ScriptDir string `mapstructure:"script_dir"`
	// InstructionLimit bounds each hook call; 0 uses the scripting default.
	InstructionLimit int `mapstructure:"instruction_limit"`
	// MaxAttempts bounds whole-pipeline retries per seed.
	MaxAttempts int `mapstructure:"max_attempts"`
	// MaxEntranceAttempts bounds door reassignment within one attempt.
	MaxEntranceAttempts int `mapstructure:"max_entrance_attempts"`
	// Parallelism bounds concurrent seeds in a batch.
	Parallelism   int    `mapstructure:"parallelism"`
	SpoilerFormat string `mapstructure:"spoiler_format"`
}

// ArchiveConfig selects where generated seeds are stored.
type ArchiveConfig struct {
	// Backend is "none", "postgres" or "sqlite".
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// HTTPConfig holds seed server listener settings.
type HTTPConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// MetricsConfig toggles the OpenTelemetry meter provider.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig     `mapstructure:"logging"`
	Generation GenerationConfig  `mapstructure:"generation"`
	Settings   settings.Settings `mapstructure:"settings"`
	Database   DatabaseConfig    `mapstructure:"database"`
	Archive    ArchiveConfig     `mapstructure:"archive"`
	HTTP       HTTPConfig        `mapstructure:"http"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
}

// Validate checks all configuration invariants. The database section is
// only checked when the postgres archive is selected.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGeneration(c.Generation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.Settings.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateArchive(c.Archive); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Archive.Backend == ArchivePostgres {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateHTTP(c.HTTP); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.File.Path != "" && l.File.MaxSizeMB < 1 {
		return fmt.Errorf("logging.file.max_size_mb must be >= 1, got %d", l.File.MaxSizeMB)
	}
	return nil
}

func validateGeneration(g GenerationConfig) error {
	var errs []string
	if g.MaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("generation.max_attempts must be >= 1, got %d", g.MaxAttempts))
	}
	if g.MaxEntranceAttempts < 1 {
		errs = append(errs, fmt.Sprintf("generation.max_entrance_attempts must be >= 1, got %d", g.MaxEntranceAttempts))
	}
	if g.Parallelism < 1 {
		errs = append(errs, fmt.Sprintf("generation.parallelism must be >= 1, got %d", g.Parallelism))
	}
	if g.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("generation.instruction_limit must be >= 0, got %d", g.InstructionLimit))
	}
	if g.SpoilerFormat != FormatYAML && g.SpoilerFormat != FormatJSON {
		errs = append(errs, fmt.Sprintf("generation.spoiler_format must be one of [yaml, json], got %q", g.SpoilerFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateArchive(a ArchiveConfig) error {
	switch a.Backend {
	case ArchiveNone, ArchivePostgres:
		return nil
	case ArchiveSQLite:
		if a.SQLitePath == "" {
			return fmt.Errorf("archive.sqlite_path must not be empty for the sqlite backend")
		}
		return nil
	}
	return fmt.Errorf("archive.backend must be one of [none, postgres, sqlite], got %q", a.Backend)
}

func validateHTTP(h HTTPConfig) error {
	var errs []string
	if h.Port < 1 || h.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be 1-65535, got %d", h.Port))
	}
	if h.ReadTimeout < 0 {
		errs = append(errs, "http.read_timeout must not be negative")
	}
	if h.WriteTimeout < 0 {
		errs = append(errs, "http.write_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with DKR_ prefix
	v.SetEnvPrefix("DKR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.path", "")
	v.SetDefault("logging.file.max_size_mb", 100)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.max_age_days", 28)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("generation.content_dir", "")
	v.SetDefault("generation.script_dir", "")
	v.SetDefault("generation.instruction_limit", 0)
	v.SetDefault("generation.max_attempts", 20)
	v.SetDefault("generation.max_entrance_attempts", 10)
	v.SetDefault("generation.parallelism", 4)
	v.SetDefault("generation.spoiler_format", FormatYAML)

	s := settings.Default()
	v.SetDefault("settings.starting_kong", s.StartingKong)
	v.SetDefault("settings.training_barrels", s.TrainingBarrels)
	v.SetDefault("settings.start_with_kongs", s.StartWithKongs)
	v.SetDefault("settings.start_with_cranky_moves", s.StartWithCrankyMoves)
	v.SetDefault("settings.progressive_upgrades", s.ProgressiveUpgrades)
	v.SetDefault("settings.open_lobbies", s.OpenLobbies)
	v.SetDefault("settings.open_levels", s.OpenLevels)
	v.SetDefault("settings.open_world", s.OpenWorld)
	v.SetDefault("settings.shuffle_levels", s.ShuffleLevels)
	v.SetDefault("settings.shuffle_doors", s.ShuffleDoors)
	v.SetDefault("settings.portals_per_level", s.PortalsPerLevel)
	v.SetDefault("settings.moveless_first_portal", s.MovelessFirstPortal)
	v.SetDefault("settings.entry_gbs", s.EntryGBs)
	v.SetDefault("settings.krool_keys", s.KRoolKeys)
	v.SetDefault("settings.medal_requirement", s.MedalRequirement)
	v.SetDefault("settings.coin_door", s.CoinDoor)
	v.SetDefault("settings.crown_door_crowns", s.CrownDoorCrowns)
	v.SetDefault("settings.accessibility", s.Accessibility)
	v.SetDefault("settings.tier_order", s.TierOrder)
	v.SetDefault("settings.starting_items", s.StartingItems)
	v.SetDefault("settings.unlock_fairy_shockwave", s.UnlockFairyShockwave)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dkrando")
	v.SetDefault("database.password", "dkrando")
	v.SetDefault("database.name", "dkrando")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("archive.backend", ArchiveNone)
	v.SetDefault("archive.sqlite_path", "seeds.db")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "60s")
	v.SetDefault("http.shutdown_timeout", "15s")

	v.SetDefault("metrics.enabled", true)
}
