package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/red-sands/internal/task"
	"github.com/talgya/red-sands/internal/units"
)

// CategoryIntervention marks events caused by an operator.
const CategoryIntervention = "intervention"

// Intervention errors.
var (
	ErrPersonNotFound  = errors.New("person not found")
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrNotInSettlement = errors.New("person is not in a settlement")
	ErrAlreadyBroken   = errors.New("vehicle already has an open failure")
)

// ProvisionSettlement delivers food to a settlement.
func (s *Simulation) ProvisionSettlement(name string, kg float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sett := s.World.Units.SettlementByName(name)
	if sett == nil {
		return "", fmt.Errorf("settlement %q: %w", name, units.ErrUnknownSettlement)
	}
	if kg <= 0 {
		return "", fmt.Errorf("provision must be positive, got %.1f kg", kg)
	}

	sett.FoodStock += kg
	desc := fmt.Sprintf("A supply drop lands at %s carrying %.1f kg of food", sett.Name, kg)
	s.emitLocked(CategoryIntervention, desc)

	slog.Info("provision intervention", "settlement", sett.Name, "kg", kg, "food_stock", sett.FoodStock)
	return desc, nil
}

// DispatchDrive sends a person in a settlement on a trip to another one. The
// drive is pushed above whatever they were doing.
func (s *Simulation) DispatchDrive(personID units.PersonID, destination string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.World.Units.Person(personID)
	if p == nil {
		return "", fmt.Errorf("person %d: %w", personID, ErrPersonNotFound)
	}
	if p.Situation != units.InSettlement {
		return "", fmt.Errorf("%s: %w", p.Name, ErrNotInSettlement)
	}
	dest := s.World.Units.SettlementByName(destination)
	if dest == nil {
		return "", fmt.Errorf("settlement %q: %w", destination, units.ErrUnknownSettlement)
	}
	if dest.ID == p.SettlementID {
		return "", fmt.Errorf("%s is already at %s", p.Name, dest.Name)
	}

	s.World.Manager(p.ID).AddSubTask(task.NewDriveToSettlement(p.ID, s.World, dest.ID))
	desc := fmt.Sprintf("%s is ordered to drive to %s", p.Name, dest.Name)
	s.emitLocked(CategoryIntervention, desc)

	slog.Info("dispatch intervention", "person", p.Name, "destination", dest.Name)
	return desc, nil
}

// InduceBreakdown gives a vehicle a mechanical failure. Anyone aboard starts
// repairing it; a parked vehicle waits for a mechanic at its settlement.
func (s *Simulation) InduceBreakdown(vehicleID units.VehicleID, failure string, hours float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.World.Units.Vehicle(vehicleID)
	if v == nil {
		return "", fmt.Errorf("vehicle %d: %w", vehicleID, ErrVehicleNotFound)
	}
	if v.HasUnfixedFailure() {
		return "", fmt.Errorf("%s: %w", v.Name, ErrAlreadyBroken)
	}
	if hours <= 0 {
		return "", fmt.Errorf("repair hours must be positive, got %.1f", hours)
	}
	if failure == "" {
		failure = "Unexplained Fault"
	}

	if v.Status == units.StatusParked || v.Status == units.StatusMaintenance {
		// Parked vehicles keep their status; the failure alone makes them
		// unreservable until repaired.
		v.Failure = units.NewMechanicalFailure(failure, hours)
	} else {
		v.Breakdown(units.NewMechanicalFailure(failure, hours))
	}
	for _, id := range v.Passengers {
		s.World.Manager(id).AddSubTask(task.NewMechanic(id, s.World, v.ID))
	}

	desc := fmt.Sprintf("%s suffers a %s", v.Name, failure)
	s.emitLocked(CategoryIntervention, desc)

	slog.Info("breakdown intervention", "vehicle", v.Name, "failure", failure, "hours", hours)
	return desc, nil
}
