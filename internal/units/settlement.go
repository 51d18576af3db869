package units

import (
	"fmt"

	"github.com/talgya/red-sands/internal/coords"
)

// FoodPerPersonSol is the food a colonist consumes per sol in kg.
const FoodPerPersonSol = 0.62

// Settlement is a colony base with a roster of people and parked vehicles.
type Settlement struct {
	ID       SettlementID       `json:"id"`
	Name     string             `json:"name"`
	Location coords.Coordinates `json:"location"`

	People         []PersonID  `json:"people"`
	ParkedVehicles []VehicleID `json:"parked_vehicles"`

	Garage     *Garage        `json:"garage,omitempty"`
	Greenhouse *Greenhouse    `json:"greenhouse,omitempty"`
	Quarters   LivingQuarters `json:"quarters"`

	FoodStock float64 `json:"food_stock"` // kg
}

// LivingQuarters bounds how many people a settlement can house.
type LivingQuarters struct {
	Capacity int `json:"capacity"`
}

// Population returns the number of people in the roster.
func (s *Settlement) Population() int {
	return len(s.People)
}

// AvailablePopulation returns how many more people the quarters can house.
func (s *Settlement) AvailablePopulation() int {
	return s.Quarters.Capacity - len(s.People)
}

// HasPerson reports whether id is in the roster.
func (s *Settlement) HasPerson(id PersonID) bool {
	return containsID(s.People, id)
}

// AddPerson adds id to the roster. Duplicates are ignored.
func (s *Settlement) AddPerson(id PersonID) {
	if !s.HasPerson(id) {
		s.People = append(s.People, id)
	}
}

// PersonLeave removes id from the roster.
func (s *Settlement) PersonLeave(id PersonID) bool {
	var ok bool
	s.People, ok = removeID(s.People, id)
	return ok
}

// HasVehicle reports whether id is parked here.
func (s *Settlement) HasVehicle(id VehicleID) bool {
	return containsID(s.ParkedVehicles, id)
}

// AddVehicle parks id at the settlement. Duplicates are ignored.
func (s *Settlement) AddVehicle(id VehicleID) {
	if !s.HasVehicle(id) {
		s.ParkedVehicles = append(s.ParkedVehicles, id)
	}
}

// VehicleLeave removes id from the parked list and the garage.
func (s *Settlement) VehicleLeave(id VehicleID) bool {
	var ok bool
	s.ParkedVehicles, ok = removeID(s.ParkedVehicles, id)
	if s.Garage != nil {
		s.Garage.RemoveVehicle(id)
	}
	return ok
}

// InGarage reports whether id is inside the settlement's garage.
func (s *Settlement) InGarage(id VehicleID) bool {
	return s.Garage != nil && s.Garage.Contains(id)
}

// TendGreenhouse applies seconds of greenhouse work and stores any harvest.
// It returns the harvest in kg.
func (s *Settlement) TendGreenhouse(seconds float64) float64 {
	if s.Greenhouse == nil {
		return 0
	}
	harvest := s.Greenhouse.AddWork(seconds)
	s.FoodStock += harvest
	return harvest
}

// TimePasses advances the settlement's facilities and food consumption.
func (s *Settlement) TimePasses(seconds float64) {
	if s.Greenhouse != nil {
		s.Greenhouse.TimePasses(seconds)
	}
	s.FoodStock -= float64(len(s.People)) * FoodPerPersonSol * seconds / SolSeconds
	if s.FoodStock < 0 {
		s.FoodStock = 0
	}
}

func (s *Settlement) String() string {
	return fmt.Sprintf("%s (%d people, %d vehicles)", s.Name, len(s.People), len(s.ParkedVehicles))
}

// Garage is a maintenance facility. The summed size of vehicles inside
// never exceeds MaxSizeCapacity and no vehicle larger than MaxVehicleSize
// is admitted.
type Garage struct {
	MaxVehicleSize  int `json:"max_vehicle_size"`
	MaxSizeCapacity int `json:"max_size_capacity"`

	Vehicles []GarageSlot `json:"vehicles"`
}

// GarageSlot is a vehicle held in a garage.
type GarageSlot struct {
	VehicleID VehicleID `json:"vehicle_id"`
	Size      int       `json:"size"`
}

// NewGarage creates an empty garage.
func NewGarage(maxVehicleSize, maxSizeCapacity int) *Garage {
	return &Garage{MaxVehicleSize: maxVehicleSize, MaxSizeCapacity: maxSizeCapacity}
}

// UsedCapacity returns the summed size of vehicles inside.
func (g *Garage) UsedCapacity() int {
	used := 0
	for _, slot := range g.Vehicles {
		used += slot.Size
	}
	return used
}

// Contains reports whether id is inside.
func (g *Garage) Contains(id VehicleID) bool {
	for _, slot := range g.Vehicles {
		if slot.VehicleID == id {
			return true
		}
	}
	return false
}

// Fits reports whether v could be admitted now.
func (g *Garage) Fits(v *Vehicle) bool {
	return v.Size <= g.MaxVehicleSize && g.UsedCapacity()+v.Size <= g.MaxSizeCapacity
}

// AddVehicle admits v. Adding a vehicle already inside is a no-op.
func (g *Garage) AddVehicle(v *Vehicle) error {
	if g.Contains(v.ID) {
		return nil
	}
	if v.Size > g.MaxVehicleSize {
		return fmt.Errorf("%s size %d: %w", v.Name, v.Size, ErrVehicleTooLarge)
	}
	if g.UsedCapacity()+v.Size > g.MaxSizeCapacity {
		return fmt.Errorf("%s size %d: %w", v.Name, v.Size, ErrGarageFull)
	}
	g.Vehicles = append(g.Vehicles, GarageSlot{VehicleID: v.ID, Size: v.Size})
	return nil
}

// RemoveVehicle takes id out of the garage.
func (g *Garage) RemoveVehicle(id VehicleID) bool {
	for i, slot := range g.Vehicles {
		if slot.VehicleID == id {
			g.Vehicles = append(g.Vehicles[:i], g.Vehicles[i+1:]...)
			return true
		}
	}
	return false
}
