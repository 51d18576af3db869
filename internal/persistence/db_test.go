package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/red-sands/internal/engine"
	"github.com/talgya/red-sands/internal/entropy"
	"github.com/talgya/red-sands/internal/task"
	"github.com/talgya/red-sands/internal/terrain"
	"github.com/talgya/red-sands/internal/units"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveEvents_RecentEventsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	events := []engine.Event{
		{Tick: 1, Sol: 0, Category: task.CategoryDrive, Description: "Ada sets off"},
		{Tick: 2, Sol: 0, Category: task.CategoryGreenhouse, Description: "harvest"},
		{Tick: 3, Sol: 0, Category: task.CategoryDrive, Description: "Ada arrives"},
	}
	require.NoError(t, db.SaveEvents("run-1", events))
	require.NoError(t, db.SaveEvents("run-1", nil))

	recent, err := db.RecentEvents(10, "")
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "Ada arrives", recent[0].Description)
	assert.Equal(t, uint64(1), recent[2].Tick)
	assert.NotEqual(t, recent[0].ID, recent[1].ID)
	assert.Equal(t, "run-1", recent[1].RunID)

	drives, err := db.RecentEvents(10, task.CategoryDrive)
	require.NoError(t, err)
	assert.Len(t, drives, 2)

	limited, err := db.RecentEvents(1, "")
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSaveStats_HistoryOldestFirst(t *testing.T) {
	db := openTestDB(t)
	for sol := 1; sol <= 5; sol++ {
		st := engine.SimStats{Sol: sol, Persons: 20, FoodStock: float64(100 * sol), OdometerKM: float64(sol) * 12.5}
		require.NoError(t, db.SaveStats("run-1", uint64(sol*148), st))
	}

	history, err := db.StatsHistory(3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 3, history[0].Sol)
	assert.Equal(t, 5, history[2].Sol)
	assert.InDelta(t, 500, history[2].FoodStock, 1e-9)
	assert.Contains(t, history[2].StatsJSON, `"odometer_km":62.5`)
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetMeta("missing")
	assert.Error(t, err)

	require.NoError(t, db.SaveMeta("last_tick", "10"))
	require.NoError(t, db.SaveMeta("last_tick", "20"))
	v, err := db.GetMeta("last_tick")
	require.NoError(t, err)
	assert.Equal(t, "20", v)
}

func TestSaveRun_FlushesSimulation(t *testing.T) {
	db := openTestDB(t)

	rng := entropy.New(7)
	u := units.NewManager(rng.Child(1))
	cfg := units.DefaultSpawnConfig()
	cfg.Settlements = 3
	cfg.PeoplePerSettlement = 4
	require.NoError(t, units.NewSpawner(7).Populate(u, cfg))
	grid, err := terrain.Uniform(90, 0)
	require.NoError(t, err)
	sim := engine.NewSimulation(task.NewWorld(u, grid, rng.Child(2)), engine.DefaultPulseSeconds)
	sim.EmitEvent("test", "journal me")

	require.NoError(t, db.SaveRun(sim))
	assert.Empty(t, sim.TakePending(), "pending events are taken by the journal")

	events, err := db.RecentEvents(10, "test")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, sim.RunID, events[0].RunID)

	runID, err := db.GetMeta("run_id")
	require.NoError(t, err)
	assert.Equal(t, sim.RunID, runID)

	history, err := db.StatsHistory(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 12, history[0].Persons)

	var rows int
	require.NoError(t, db.conn.Get(&rows, "SELECT COUNT(*) FROM settlement_snapshots"))
	assert.Equal(t, 3, rows)
}
