package task

import (
	"fmt"
	"log/slog"

	"github.com/talgya/red-sands/internal/units"
)

// MaintainVehicleName is the name of the periodic maintenance task.
const MaintainVehicleName = "Maintaining Vehicle"

// MaintenanceWork is the seconds of work a periodic maintenance needs.
const MaintenanceWork = 8 * 3600.0

// MaintainVehicle brings a vehicle due for maintenance into the settlement
// garage and services it.
type MaintainVehicle struct {
	Base
	settlement units.SettlementID
	vehicle    units.VehicleID
	duration   int
}

// NewMaintainVehicle creates a maintenance shift of up to four hours on a
// vehicle parked at the person's settlement.
func NewMaintainVehicle(person units.PersonID, w *World, vehicle units.VehicleID) *MaintainVehicle {
	m := &MaintainVehicle{
		Base:     newBase(MaintainVehicleName, person, w),
		vehicle:  vehicle,
		duration: w.Rand.RandIntRange(3600, 4*3600),
	}
	if p := m.personRef(); p != nil {
		m.settlement = p.SettlementID
	}
	if v := w.Units.Vehicle(vehicle); v != nil {
		m.description = fmt.Sprintf("Perform periodic maintenance on %s.", v.Name)
	}
	return m
}

// maintainableVehicle finds a vehicle at the person's settlement that is
// already being serviced or is due and fits the garage.
func maintainableVehicle(p *units.Person, w *World) *units.Vehicle {
	if p.Situation != units.InSettlement {
		return nil
	}
	s := w.Units.Settlement(p.SettlementID)
	if s == nil || s.Garage == nil {
		return nil
	}
	for _, v := range w.Units.ParkedVehiclesAt(s.ID) {
		if v.Status == units.StatusMaintenance && s.Garage.Contains(v.ID) {
			return v
		}
	}
	for _, v := range w.Units.ParkedVehiclesAt(s.ID) {
		if v.Status == units.StatusParked && !v.Reserved && v.NeedsMaintenance() && s.Garage.Fits(v) {
			return v
		}
	}
	return nil
}

func maintainVehicleProbability(p *units.Person, w *World) int {
	if maintainableVehicle(p, w) != nil {
		return 20
	}
	return 0
}

func newMaintainVehicleFromCatalog(p *units.Person, w *World) Task {
	v := maintainableVehicle(p, w)
	if v == nil {
		return NewRelax(p.ID, w)
	}
	return NewMaintainVehicle(p.ID, w, v.ID)
}

// Phase implements Task.
func (m *MaintainVehicle) Phase() string { return "Maintaining" }

// SubPhase implements Task.
func (m *MaintainVehicle) SubPhase() string { return "" }

// DoTask implements Task.
func (m *MaintainVehicle) DoTask(seconds int) int {
	if m.done || seconds <= 0 {
		return seconds
	}

	p := m.personRef()
	v := m.world.Units.Vehicle(m.vehicle)
	s := m.world.Units.Settlement(m.settlement)
	if p == nil || v == nil || s == nil || s.Garage == nil || !s.HasVehicle(v.ID) {
		m.end()
		return seconds
	}

	switch v.Status {
	case units.StatusParked:
		if v.Reserved || !v.NeedsMaintenance() {
			m.end()
			return seconds
		}
		if err := s.Garage.AddVehicle(v); err != nil {
			slog.Debug("vehicle cannot enter garage", "vehicle", v.Name, "settlement", s.Name, "error", err)
			m.end()
			return seconds
		}
		v.Status = units.StatusMaintenance
	case units.StatusMaintenance:
	default:
		m.end()
		return seconds
	}

	used := m.duration - m.timeCompleted
	if used > seconds {
		used = seconds
	}
	factor := 1 + 0.25*float64(p.SkillLevel(units.SkillMechanics))
	if needed := int((MaintenanceWork - v.MaintenanceWork) / factor); needed < used {
		used = needed + 1
	}
	v.MaintenanceWork += float64(used) * factor
	p.AddExperience(units.SkillMechanics, float64(used)/3600)
	m.spend(used)

	if v.MaintenanceWork >= MaintenanceWork {
		v.CompleteMaintenance()
		s.Garage.RemoveVehicle(v.ID)
		v.Status = units.StatusParked
		slog.Debug("vehicle maintained", "vehicle", v.Name, "settlement", s.Name)
		m.world.Emit(CategoryMaintenance, "%s finished maintenance on %s at %s.", p.Name, v.Name, s.Name)
		m.end()
	} else if m.timeCompleted >= m.duration {
		m.end()
	}
	return seconds - used
}
