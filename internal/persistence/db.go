// Package persistence provides the SQLite run journal: events, per-sol
// statistics and settlement snapshots. World state is never restored from it.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/red-sands/internal/engine"
)

// DB wraps a SQLite connection for the run journal.
type DB struct {
	conn *sqlx.DB
}

// EventRecord is a journalled event.
type EventRecord struct {
	ID          string `db:"id" json:"id"`
	RunID       string `db:"run_id" json:"run_id"`
	Tick        uint64 `db:"tick" json:"tick"`
	Sol         int    `db:"sol" json:"sol"`
	Category    string `db:"category" json:"category"`
	Description string `db:"description" json:"description"`
}

// StatsRecord is one row of the statistics history.
type StatsRecord struct {
	RunID            string  `db:"run_id" json:"run_id"`
	Tick             uint64  `db:"tick" json:"tick"`
	Sol              int     `db:"sol" json:"sol"`
	Persons          int     `db:"persons" json:"persons"`
	PeopleTravelling int     `db:"people_travelling" json:"people_travelling"`
	VehiclesMoving   int     `db:"vehicles_moving" json:"vehicles_moving"`
	VehiclesBroken   int     `db:"vehicles_broken" json:"vehicles_broken"`
	VehiclesStuck    int     `db:"vehicles_stuck" json:"vehicles_stuck"`
	FoodStock        float64 `db:"food_stock" json:"food_stock"`
	TotalHarvest     float64 `db:"total_harvest" json:"total_harvest"`
	OdometerKM       float64 `db:"odometer_km" json:"odometer_km"`
	StatsJSON        string  `db:"stats_json" json:"-"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		sol INTEGER NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_category ON events(category);

	CREATE TABLE IF NOT EXISTS stats_history (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		sol INTEGER NOT NULL,
		persons INTEGER NOT NULL,
		people_travelling INTEGER NOT NULL,
		vehicles_moving INTEGER NOT NULL,
		vehicles_broken INTEGER NOT NULL,
		vehicles_stuck INTEGER NOT NULL,
		food_stock REAL NOT NULL,
		total_harvest REAL NOT NULL,
		odometer_km REAL NOT NULL,
		stats_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settlement_snapshots (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		settlement_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		population INTEGER NOT NULL,
		parked_vehicles INTEGER NOT NULL,
		food_stock REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveEvents appends events to the journal, each under a fresh id.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		rec := EventRecord{
			ID:          uuid.NewString(),
			RunID:       runID,
			Tick:        e.Tick,
			Sol:         e.Sol,
			Category:    e.Category,
			Description: e.Description,
		}
		_, err := tx.NamedExec(
			`INSERT INTO events (id, run_id, tick, sol, category, description)
			 VALUES (:id, :run_id, :tick, :sol, :category, :description)`,
			rec,
		)
		if err != nil {
			return fmt.Errorf("insert event at tick %d: %w", e.Tick, err)
		}
	}

	return tx.Commit()
}

// SaveStats appends a statistics row.
func (db *DB) SaveStats(runID string, tick uint64, st engine.SimStats) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	rec := StatsRecord{
		RunID:            runID,
		Tick:             tick,
		Sol:              st.Sol,
		Persons:          st.Persons,
		PeopleTravelling: st.PeopleTravelling,
		VehiclesMoving:   st.VehiclesMoving,
		VehiclesBroken:   st.VehiclesBroken,
		VehiclesStuck:    st.VehiclesStuck,
		FoodStock:        st.FoodStock,
		TotalHarvest:     st.TotalHarvest,
		OdometerKM:       st.OdometerKM,
		StatsJSON:        string(raw),
	}
	_, err = db.conn.NamedExec(
		`INSERT INTO stats_history (run_id, tick, sol, persons, people_travelling, vehicles_moving,
			vehicles_broken, vehicles_stuck, food_stock, total_harvest, odometer_km, stats_json)
		 VALUES (:run_id, :tick, :sol, :persons, :people_travelling, :vehicles_moving,
			:vehicles_broken, :vehicles_stuck, :food_stock, :total_harvest, :odometer_km, :stats_json)`,
		rec,
	)
	return err
}

// SaveSettlements records a snapshot row per settlement.
func (db *DB) SaveSettlements(runID string, tick uint64, setts []engine.SettlementView) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, s := range setts {
		_, err := tx.Exec(
			`INSERT INTO settlement_snapshots (run_id, tick, settlement_id, name, population, parked_vehicles, food_stock)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, tick, s.ID, s.Name, s.Population, len(s.ParkedVehicles), s.FoodStock,
		)
		if err != nil {
			return fmt.Errorf("insert settlement %d: %w", s.ID, err)
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in the run metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// SaveRun flushes the simulation's pending events and current statistics.
func (db *DB) SaveRun(sim *engine.Simulation) error {
	status := sim.Status()
	events := sim.TakePending()
	slog.Info("saving run journal", "run", status.RunID, "tick", status.Tick, "events", len(events))

	if err := db.SaveEvents(status.RunID, events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveStats(status.RunID, status.Tick, status.Stats); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	if err := db.SaveSettlements(status.RunID, status.Tick, sim.Settlements()); err != nil {
		return fmt.Errorf("save settlements: %w", err)
	}
	if err := db.SaveMeta("run_id", status.RunID); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("last_tick", fmt.Sprintf("%d", status.Tick)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	return nil
}

// RecentEvents returns the most recent events, newest first. A category
// of "" matches everything.
func (db *DB) RecentEvents(limit int, category string) ([]EventRecord, error) {
	var events []EventRecord
	var err error
	if category == "" {
		err = db.conn.Select(&events,
			"SELECT id, run_id, tick, sol, category, description FROM events ORDER BY seq DESC LIMIT ?",
			limit,
		)
	} else {
		err = db.conn.Select(&events,
			"SELECT id, run_id, tick, sol, category, description FROM events WHERE category = ? ORDER BY seq DESC LIMIT ?",
			category, limit,
		)
	}
	return events, err
}

// StatsHistory returns up to limit statistics rows, oldest first.
func (db *DB) StatsHistory(limit int) ([]StatsRecord, error) {
	var rows []StatsRecord
	err := db.conn.Select(&rows,
		`SELECT run_id, tick, sol, persons, people_travelling, vehicles_moving, vehicles_broken,
			vehicles_stuck, food_stock, total_harvest, odometer_km, stats_json
		 FROM (SELECT * FROM stats_history ORDER BY seq DESC LIMIT ?) ORDER BY seq ASC`,
		limit,
	)
	return rows, err
}
