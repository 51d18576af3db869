package units

import (
	"fmt"

	"github.com/talgya/red-sands/internal/entropy"
)

// failureNames are the faults a ground vehicle can suffer.
var failureNames = []string{
	"Fuel Leak",
	"Cracked Axle",
	"Battery Failure",
	"Blown Seal",
	"Radiator Clog",
	"Navigation Fault",
	"Drive Motor Burnout",
	"Suspension Damage",
	"Airlock Jam",
	"Coolant Loss",
}

// MechanicalFailure is a repairable fault. Once fixed it stays fixed.
type MechanicalFailure struct {
	Name           string  `json:"name"`
	WorkHours      float64 `json:"work_hours"`
	RemainingHours float64 `json:"remaining_hours"`
}

// NewMechanicalFailure creates an unfixed failure needing hours of work.
func NewMechanicalFailure(name string, hours float64) *MechanicalFailure {
	return &MechanicalFailure{Name: name, WorkHours: hours, RemainingHours: hours}
}

// RandomFailure creates a failure with a random name and 1–50 hours of work.
func RandomFailure(rng *entropy.Source) *MechanicalFailure {
	name := failureNames[rng.Intn(len(failureNames))]
	return NewMechanicalFailure(name, float64(rng.RandIntRange(1, 50)))
}

// Fixed reports whether no repair work remains.
func (f *MechanicalFailure) Fixed() bool {
	return f.RemainingHours <= 0
}

// AddWorkTime applies repair work in hours. Residue below a nanohour is
// treated as done so floating drift cannot leave a failure open forever.
func (f *MechanicalFailure) AddWorkTime(hours float64) {
	if f.Fixed() || hours <= 0 {
		return
	}
	f.RemainingHours -= hours
	if f.RemainingHours < 1e-9 {
		f.RemainingHours = 0
	}
}

// CompletedHours returns how much work has been applied.
func (f *MechanicalFailure) CompletedHours() float64 {
	return f.WorkHours - f.RemainingHours
}

func (f *MechanicalFailure) String() string {
	return fmt.Sprintf("%s (%.1f/%.1f h)", f.Name, f.CompletedHours(), f.WorkHours)
}
