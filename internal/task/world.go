package task

import (
	"fmt"

	"github.com/talgya/red-sands/internal/entropy"
	"github.com/talgya/red-sands/internal/terrain"
	"github.com/talgya/red-sands/internal/units"
)

// Event categories.
const (
	CategoryDrive       = "drive"
	CategoryVehicle     = "vehicle"
	CategoryGreenhouse  = "greenhouse"
	CategoryMaintenance = "maintenance"
)

// Event is something notable a task did during a pulse.
type Event struct {
	Category    string `json:"category"`
	Description string `json:"description"`
}

// World is everything a task can see: the units, the surface, the random
// source and every person's task manager.
type World struct {
	Units   *units.Manager
	Surface terrain.Surface
	Rand    *entropy.Source
	Catalog []Entry

	managers map[units.PersonID]*Manager
	events   []Event
}

// NewWorld assembles a world with the standard task catalog.
func NewWorld(u *units.Manager, surface terrain.Surface, rng *entropy.Source) *World {
	return &World{
		Units:    u,
		Surface:  surface,
		Rand:     rng,
		Catalog:  DefaultCatalog(),
		managers: make(map[units.PersonID]*Manager),
	}
}

// Manager returns the task manager of a person, creating it on first use.
func (w *World) Manager(id units.PersonID) *Manager {
	m, ok := w.managers[id]
	if !ok {
		m = &Manager{person: id, world: w}
		w.managers[id] = m
	}
	return m
}

// ExistingManager returns a person's task manager, or nil when the person
// has never acted. Unlike Manager it never mutates the world.
func (w *World) ExistingManager(id units.PersonID) *Manager {
	return w.managers[id]
}

// CurrentTaskName returns the name of the task a person is running, or ""
// when idle.
func (w *World) CurrentTaskName(id units.PersonID) string {
	m, ok := w.managers[id]
	if !ok {
		return ""
	}
	if t := m.CurrentTask(); t != nil {
		return t.Name()
	}
	return ""
}

// Emit records an event for the current pulse.
func (w *World) Emit(category, format string, args ...any) {
	w.events = append(w.events, Event{Category: category, Description: fmt.Sprintf(format, args...)})
}

// DrainEvents returns and clears the pending events.
func (w *World) DrainEvents() []Event {
	events := w.events
	w.events = nil
	return events
}
