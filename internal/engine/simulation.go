// Simulation ties the colony units and task managers together and applies
// each pulse to them.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/red-sands/internal/task"
	"github.com/talgya/red-sands/internal/units"
)

const (
	maxRecentEvents  = 1000
	maxPendingEvents = 10000
)

// Simulation holds the complete colony state. Pulses take the write lock;
// API readers take the read lock through the snapshot accessors.
type Simulation struct {
	mu sync.RWMutex

	RunID        string
	World        *task.World
	PulseSeconds int
	LastTick     uint64 // Most recent pulse processed

	events  []Event // Recent events, oldest first
	pending []Event // Events not yet taken by the journal

	stats SimStats
}

// Event is a notable occurrence in the colony.
type Event struct {
	Tick        uint64 `json:"tick"`
	Sol         int    `json:"sol"`
	Category    string `json:"category"` // "drive", "vehicle", "greenhouse", "maintenance", "intervention"
	Description string `json:"description"`
}

// SimStats tracks aggregate colony statistics.
type SimStats struct {
	Sol         int `json:"sol"`
	Persons     int `json:"persons"`
	Vehicles    int `json:"vehicles"`
	Settlements int `json:"settlements"`

	PeopleTravelling int `json:"people_travelling"`
	VehiclesMoving   int `json:"vehicles_moving"`
	VehiclesBroken   int `json:"vehicles_broken"`
	VehiclesStuck    int `json:"vehicles_stuck"`
	VehiclesInGarage int `json:"vehicles_in_garage"`

	FoodStock    float64 `json:"food_stock"`    // kg across all settlements
	TotalHarvest float64 `json:"total_harvest"` // kg since start
	OdometerKM   float64 `json:"odometer_km"`   // km across all vehicles
}

// NewSimulation wraps a populated task world.
func NewSimulation(w *task.World, pulseSeconds int) *Simulation {
	if pulseSeconds <= 0 {
		pulseSeconds = DefaultPulseSeconds
	}
	sim := &Simulation{
		RunID:        uuid.NewString(),
		World:        w,
		PulseSeconds: pulseSeconds,
	}
	sim.updateStats()
	return sim
}

// CurrentTick returns the most recently processed pulse number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastTick
}

// Pulse applies one pulse: every person acts, in insertion order, then
// settlement facilities advance.
func (s *Simulation) Pulse(tick uint64, seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastTick = tick
	for _, p := range s.World.Units.Persons() {
		s.World.Manager(p.ID).TakeAction(seconds)
	}
	s.World.Units.TimePasses(float64(seconds))

	for _, e := range s.World.DrainEvents() {
		s.emitLocked(e.Category, e.Description)
	}
}

// TickSol runs at each sol boundary: statistics and the daily report.
func (s *Simulation) TickSol(tick uint64, sol int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updateStats()
	s.stats.Sol = sol

	eventCounts := make(map[string]int)
	for _, e := range s.events {
		if e.Sol == sol-1 {
			eventCounts[e.Category]++
		}
	}

	slog.Info("sol report",
		"tick", tick,
		"time", SimTime(tick, s.PulseSeconds),
		"persons", s.stats.Persons,
		"travelling", s.stats.PeopleTravelling,
		"vehicles_moving", s.stats.VehiclesMoving,
		"vehicles_broken", s.stats.VehiclesBroken,
		"vehicles_stuck", s.stats.VehiclesStuck,
		"food_kg", humanize.CommafWithDigits(s.stats.FoodStock, 1),
		"harvest_kg", humanize.CommafWithDigits(s.stats.TotalHarvest, 1),
		"odometer_km", humanize.Comma(int64(s.stats.OdometerKM)),
		"events_drive", eventCounts[task.CategoryDrive],
		"events_vehicle", eventCounts[task.CategoryVehicle],
		"events_greenhouse", eventCounts[task.CategoryGreenhouse],
		"events_maintenance", eventCounts[task.CategoryMaintenance],
	)
}

// Stats returns the statistics from the last sol report.
func (s *Simulation) Stats() SimStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// EmitEvent records an event at the current tick.
func (s *Simulation) EmitEvent(category, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitLocked(category, description)
}

func (s *Simulation) emitLocked(category, description string) {
	e := Event{
		Tick:        s.LastTick,
		Sol:         SolOf(s.LastTick, s.PulseSeconds),
		Category:    category,
		Description: description,
	}
	s.events = append(s.events, e)
	if len(s.events) > maxRecentEvents {
		s.events = s.events[len(s.events)-maxRecentEvents:]
	}
	s.pending = append(s.pending, e)
	if len(s.pending) > maxPendingEvents {
		dropped := len(s.pending) - maxPendingEvents
		s.pending = s.pending[dropped:]
		slog.Warn("journal backlog trimmed", "dropped", dropped)
	}
}

// TakePending returns and clears the events not yet journalled.
func (s *Simulation) TakePending() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// RecentEvents returns up to limit of the newest events, oldest first.
// A category filter of "" matches everything.
func (s *Simulation) RecentEvents(limit int, category string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Event
	for _, e := range s.events {
		if category == "" || e.Category == category {
			matched = append(matched, e)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched
}

func (s *Simulation) updateStats() {
	u := s.World.Units
	st := SimStats{Sol: SolOf(s.LastTick, s.PulseSeconds)}
	st.Persons, st.Vehicles, st.Settlements = u.Counts()

	for _, p := range u.Persons() {
		if p.Situation == units.InVehicle {
			st.PeopleTravelling++
		}
	}
	for _, v := range u.Vehicles() {
		switch v.Status {
		case units.StatusMoving, units.StatusWinching:
			st.VehiclesMoving++
		case units.StatusBrokenDown:
			st.VehiclesBroken++
		case units.StatusStuck:
			st.VehiclesStuck++
		case units.StatusMaintenance:
			st.VehiclesInGarage++
		}
		st.OdometerKM += v.Odometer
	}
	for _, sett := range u.Settlements() {
		st.FoodStock += sett.FoodStock
		if sett.Greenhouse != nil {
			st.TotalHarvest += sett.Greenhouse.TotalHarvest
		}
	}
	s.stats = st
}

// String summarises the simulation for logs.
func (s *Simulation) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	persons, vehicles, settlements := s.World.Units.Counts()
	return fmt.Sprintf("run %s at %s: %d persons, %d vehicles, %d settlements",
		s.RunID, SimTime(s.LastTick, s.PulseSeconds), persons, vehicles, settlements)
}
