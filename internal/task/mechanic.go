package task

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/red-sands/internal/units"
)

// MechanicName is the name of the repair task.
const MechanicName = "Performing Mechanic Work"

// Mechanic repairs a vehicle's mechanical failure until it is fixed.
type Mechanic struct {
	Base
	vehicle units.VehicleID
}

// NewMechanic creates a repair task on a vehicle.
func NewMechanic(person units.PersonID, w *World, vehicle units.VehicleID) *Mechanic {
	m := &Mechanic{
		Base:    newBase(MechanicName, person, w),
		vehicle: vehicle,
	}
	if v := w.Units.Vehicle(vehicle); v != nil && v.Failure != nil {
		m.description = fmt.Sprintf("Repair %s on %s.", v.Failure.Name, v.Name)
	}
	return m
}

// brokenVehicleFor finds the vehicle a person could repair: the one they
// are riding in, else one parked at their settlement.
func brokenVehicleFor(p *units.Person, w *World) *units.Vehicle {
	switch p.Situation {
	case units.InVehicle:
		if v := w.Units.Vehicle(p.VehicleID); v != nil && v.HasUnfixedFailure() {
			return v
		}
	case units.InSettlement:
		for _, v := range w.Units.ParkedVehiclesAt(p.SettlementID) {
			if v.HasUnfixedFailure() {
				return v
			}
		}
	}
	return nil
}

func mechanicProbability(p *units.Person, w *World) int {
	if brokenVehicleFor(p, w) != nil {
		return 50
	}
	return 0
}

func newMechanicFromCatalog(p *units.Person, w *World) Task {
	v := brokenVehicleFor(p, w)
	if v == nil {
		return NewRelax(p.ID, w)
	}
	return NewMechanic(p.ID, w, v.ID)
}

// Phase implements Task.
func (m *Mechanic) Phase() string { return "Repairing" }

// SubPhase implements Task.
func (m *Mechanic) SubPhase() string { return "" }

// VehicleID returns the vehicle being repaired.
func (m *Mechanic) VehicleID() units.VehicleID { return m.vehicle }

// DoTask implements Task. Skill speeds up the work: each mechanics level
// adds a quarter to the hours applied.
func (m *Mechanic) DoTask(seconds int) int {
	if m.done || seconds <= 0 {
		return seconds
	}

	v := m.world.Units.Vehicle(m.vehicle)
	p := m.personRef()
	if v == nil || p == nil || !v.HasUnfixedFailure() {
		if v != nil {
			v.Repaired()
		}
		m.end()
		return seconds
	}

	factor := 1 + 0.25*float64(p.SkillLevel(units.SkillMechanics))
	f := v.Failure
	needed := int(math.Ceil(f.RemainingHours / factor * 3600))

	used := seconds
	if needed < used {
		used = needed
	}
	f.AddWorkTime(float64(used) / 3600 * factor)
	p.AddExperience(units.SkillMechanics, float64(used)/3600)
	m.spend(used)

	if !f.Fixed() {
		return seconds - used
	}

	v.Repaired()
	slog.Debug("vehicle repaired", "vehicle", v.Name, "failure", f.Name, "mechanic", p.Name)
	m.world.Emit(CategoryVehicle, "%s fixed %s on %s.", p.Name, f.Name, v.Name)
	m.end()
	return seconds - used
}
