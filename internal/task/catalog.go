package task

import "github.com/talgya/red-sands/internal/units"

// Entry is one selectable task type. Probability must be free of side
// effects; it runs for every idle person on every pulse.
type Entry struct {
	Name        string
	Probability func(p *units.Person, w *World) int
	New         func(p *units.Person, w *World) Task
}

// DefaultCatalog returns the task types a colonist chooses between.
func DefaultCatalog() []Entry {
	return []Entry{
		{
			Name:        RelaxName,
			Probability: relaxProbability,
			New:         func(p *units.Person, w *World) Task { return NewRelax(p.ID, w) },
		},
		{
			Name:        DriveName,
			Probability: driveProbability,
			New:         newDriveFromCatalog,
		},
		{
			Name:        TendGreenhouseName,
			Probability: tendGreenhouseProbability,
			New:         func(p *units.Person, w *World) Task { return NewTendGreenhouse(p.ID, w) },
		},
		{
			Name:        MechanicName,
			Probability: mechanicProbability,
			New:         newMechanicFromCatalog,
		},
		{
			Name:        MaintainVehicleName,
			Probability: maintainVehicleProbability,
			New:         newMaintainVehicleFromCatalog,
		},
	}
}
