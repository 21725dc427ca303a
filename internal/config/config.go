// Package config loads the TOML run configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/talgya/lifegrid/internal/world"
)

// AdminKeyEnv overrides api.admin_key when set, so the key can stay out of
// the config file.
const AdminKeyEnv = "LIFEGRID_ADMIN_KEY"

type Config struct {
	World   WorldConfig   `toml:"world"`
	Rules   RulesConfig   `toml:"rules"`
	Log     LogConfig     `toml:"log"`
	Logging LoggingConfig `toml:"logging"`
	Storage StorageConfig `toml:"storage"`
	API     APIConfig     `toml:"api"`
	Species SpeciesConfig `toml:"species"`
}

type WorldConfig struct {
	Width        int           `toml:"width"`
	Height       int           `toml:"height"`
	Seed         int64         `toml:"seed"`    // 0 picks a random seed at startup
	Meadows      bool          `toml:"meadows"` // plants start clustered on noise meadows
	TurnInterval time.Duration `toml:"turn_interval"`
}

type RulesConfig struct {
	Reproduction   bool `toml:"reproduction"`
	Wildlife       bool `toml:"wildlife"`
	SpreadChance   int  `toml:"spread_chance"` // percent, 0-100
	ParentCooldown int  `toml:"parent_cooldown"`
	ChildCooldown  int  `toml:"child_cooldown"`
}

// LogConfig controls the in-world event log shown to the player.
type LogConfig struct {
	Limit   int  `toml:"limit"` // 0 = unbounded
	PerTurn bool `toml:"per_turn"`
}

// LoggingConfig controls the process log.
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // "text" or "json"
	File   string `toml:"file"`   // empty = stderr
}

type StorageConfig struct {
	DB            string `toml:"db"`
	SnapshotDir   string `toml:"snapshot_dir"`
	AutosaveEvery int    `toml:"autosave_every"` // turns; 0 disables
}

type APIConfig struct {
	Port     int    `toml:"port"`
	AdminKey string `toml:"admin_key"`
}

type SpeciesConfig struct {
	File string `toml:"file"` // empty = built-in tuning
}

// Load reads the config at path over the defaults. A missing file is not an
// error; the defaults are used.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Info("config file not found, using defaults", "path", path)
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if key := os.Getenv(AdminKeyEnv); key != "" {
		cfg.API.AdminKey = key
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config { return defaults() }

func defaults() *Config {
	return &Config{
		World: WorldConfig{
			Width:        20,
			Height:       20,
			Meadows:      true,
			TurnInterval: 500 * time.Millisecond,
		},
		Rules: RulesConfig{
			Reproduction:   true,
			Wildlife:       true,
			SpreadChance:   10,
			ParentCooldown: 5,
			ChildCooldown:  10,
		},
		Log: LogConfig{
			Limit:   0,
			PerTurn: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Storage: StorageConfig{
			DB:            "data/lifegrid.db",
			SnapshotDir:   "data/snapshots",
			AutosaveEvery: 50,
		},
		API: APIConfig{
			Port: 8080,
		},
	}
}

// Validate rejects settings the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world size %dx%d must be positive", c.World.Width, c.World.Height))
	}
	if c.World.TurnInterval < 0 {
		errs = append(errs, fmt.Errorf("turn_interval %v is negative", c.World.TurnInterval))
	}
	if c.Rules.SpreadChance < 0 || c.Rules.SpreadChance > 100 {
		errs = append(errs, fmt.Errorf("spread_chance %d outside 0-100", c.Rules.SpreadChance))
	}
	if c.Rules.ParentCooldown < 0 || c.Rules.ChildCooldown < 0 {
		errs = append(errs, errors.New("breed cooldowns must not be negative"))
	}
	if c.Log.Limit < 0 {
		errs = append(errs, fmt.Errorf("log limit %d is negative", c.Log.Limit))
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if f := c.Logging.Format; f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("logging format %q: want text or json", f))
	}
	if c.Storage.AutosaveEvery < 0 {
		errs = append(errs, fmt.Errorf("autosave_every %d is negative", c.Storage.AutosaveEvery))
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api port %d out of range", c.API.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// SlogLevel parses the configured level name.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("logging level %q: %w", l.Level, err)
	}
	return lvl, nil
}

// WorldConfig builds the world settings for a run with the given seed and
// population mix.
func (c *Config) WorldConfig(seed int64, population []world.Quota) world.Config {
	return world.Config{
		Width:   c.World.Width,
		Height:  c.World.Height,
		Seed:    seed,
		Meadows: c.World.Meadows,
		Rules: world.Rules{
			Reproduction:   c.Rules.Reproduction,
			Wildlife:       c.Rules.Wildlife,
			SpreadChance:   c.Rules.SpreadChance,
			ParentCooldown: c.Rules.ParentCooldown,
			ChildCooldown:  c.Rules.ChildCooldown,
		},
		Log: world.LogConfig{
			Limit:   c.Log.Limit,
			PerTurn: c.Log.PerTurn,
		},
		Population: population,
	}
}
