// Package config loads run settings from defaults, an optional YAML file and
// RED_SANDS_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RED_SANDS_API_PORT.
const EnvPrefix = "RED_SANDS"

// Config is the resolved run configuration.
type Config struct {
	Seed         int64         `mapstructure:"seed"`
	PulseSeconds int           `mapstructure:"pulseSeconds"`
	Interval     time.Duration `mapstructure:"interval"`
	Speed        float64       `mapstructure:"speed"`
	LogLevel     string        `mapstructure:"logLevel"`
	Scenario     string        `mapstructure:"scenario"` // YAML scenario; empty = procedural colony

	DB      DBConfig      `mapstructure:"db"`
	API     APIConfig     `mapstructure:"api"`
	World   WorldConfig   `mapstructure:"world"`
	Terrain TerrainConfig `mapstructure:"terrain"`
}

// DBConfig holds the run journal settings.
type DBConfig struct {
	Path string `mapstructure:"path"` // Empty disables the journal
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	Port             int      `mapstructure:"port"` // 0 disables the API
	AdminKey         string   `mapstructure:"adminKey"`
	CORSOrigins      []string `mapstructure:"corsOrigins"`
	InterventionRate int      `mapstructure:"interventionRate"` // per minute per IP
}

// WorldConfig sizes the procedural colony.
type WorldConfig struct {
	Settlements           int     `mapstructure:"settlements"`
	PeoplePerSettlement   int     `mapstructure:"peoplePerSettlement"`
	VehiclesPerSettlement int     `mapstructure:"vehiclesPerSettlement"`
	SpreadKM              float64 `mapstructure:"spreadKM"`
}

// TerrainConfig controls topography synthesis.
type TerrainConfig struct {
	Rows int `mapstructure:"rows"`
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("seed", 42)
	v.SetDefault("pulseSeconds", 600)
	v.SetDefault("interval", "1s")
	v.SetDefault("speed", 1.0)
	v.SetDefault("logLevel", "info")
	v.SetDefault("scenario", "")

	v.SetDefault("db.path", "data/redsands.db")

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.adminKey", "")
	v.SetDefault("api.corsOrigins", []string{})
	v.SetDefault("api.interventionRate", 30)

	v.SetDefault("world.settlements", 6)
	v.SetDefault("world.peoplePerSettlement", 8)
	v.SetDefault("world.vehiclesPerSettlement", 2)
	v.SetDefault("world.spreadKM", 600.0)

	v.SetDefault("terrain.rows", 720)
}

// Load resolves configuration into v. A named file must exist; with no file
// name, redsands.yaml in the working directory is read if present.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("redsands")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the simulation cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.PulseSeconds <= 0 {
		errs = append(errs, fmt.Errorf("pulseSeconds must be positive, got %d", c.PulseSeconds))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval))
	}
	if c.Speed < 0 {
		errs = append(errs, fmt.Errorf("speed must not be negative, got %g", c.Speed))
	}
	if c.Scenario == "" && c.World.Settlements <= 0 {
		errs = append(errs, fmt.Errorf("world.settlements must be positive, got %d", c.World.Settlements))
	}
	if c.Terrain.Rows < 2 {
		errs = append(errs, fmt.Errorf("terrain.rows must be at least 2, got %d", c.Terrain.Rows))
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port out of range: %d", c.API.Port))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logLevel %q: %w", c.LogLevel, err)
	}
	return level, nil
}
