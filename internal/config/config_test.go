package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 600, cfg.PulseSeconds)
	assert.Equal(t, time.Second, cfg.Interval)
	assert.Equal(t, 1.0, cfg.Speed)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "data/redsands.db", cfg.DB.Path)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "", cfg.API.AdminKey)
	assert.Equal(t, 30, cfg.API.InterventionRate)
	assert.Equal(t, 6, cfg.World.Settlements)
	assert.Equal(t, 8, cfg.World.PeoplePerSettlement)
	assert.Equal(t, 2, cfg.World.VehiclesPerSettlement)
	assert.Equal(t, 600.0, cfg.World.SpreadKM)
	assert.Equal(t, 720, cfg.Terrain.Rows)
	assert.Empty(t, cfg.Scenario)
}

func TestLoad_WithConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "colony.yaml")
	content := `
seed: 7
pulseSeconds: 300
interval: 250ms
logLevel: debug
api:
  port: 9000
  corsOrigins: ["https://colony.example"]
world:
  settlements: 3
terrain:
  rows: 180
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 300, cfg.PulseSeconds)
	assert.Equal(t, 250*time.Millisecond, cfg.Interval)
	assert.Equal(t, 9000, cfg.API.Port)
	assert.Equal(t, []string{"https://colony.example"}, cfg.API.CORSOrigins)
	assert.Equal(t, 3, cfg.World.Settlements)
	assert.Equal(t, 8, cfg.World.PeoplePerSettlement, "unset keys keep defaults")
	assert.Equal(t, 180, cfg.Terrain.Rows)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_DiscoversWorkingDirectoryFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "redsands.yaml"), []byte("seed: 99\n"), 0644))
	t.Chdir(dir)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.Seed)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "colony.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  port: 9000\n"), 0644))
	t.Setenv("RED_SANDS_API_PORT", "9100")
	t.Setenv("RED_SANDS_API_ADMINKEY", "hunter2")
	t.Setenv("RED_SANDS_SEED", "5")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.API.Port)
	assert.Equal(t, "hunter2", cfg.API.AdminKey)
	assert.Equal(t, int64(5), cfg.Seed)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), "/nonexistent/colony.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	bad := cfg
	bad.PulseSeconds = 0
	bad.Terrain.Rows = 1
	bad.LogLevel = "loud"
	err = bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pulseSeconds")
	assert.Contains(t, err.Error(), "terrain.rows")
	assert.Contains(t, err.Error(), "logLevel")

	scenario := cfg
	scenario.World.Settlements = 0
	scenario.Scenario = "colony.yaml"
	assert.NoError(t, scenario.Validate(), "a scenario supplies its own settlements")
}
