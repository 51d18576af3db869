package engine

import (
	"sort"

	"github.com/talgya/red-sands/internal/coords"
	"github.com/talgya/red-sands/internal/units"
)

// Status is the top-level view of a running simulation.
type Status struct {
	RunID        string   `json:"run_id"`
	Tick         uint64   `json:"tick"`
	SimTime      string   `json:"sim_time"`
	PulseSeconds int      `json:"pulse_seconds"`
	Stats        SimStats `json:"stats"`
}

// PersonView is a person with their current task.
type PersonView struct {
	ID         units.PersonID          `json:"id"`
	Name       string                  `json:"name"`
	Situation  units.LocationSituation `json:"situation"`
	Location   coords.Coordinates      `json:"location"`
	Settlement string                  `json:"settlement,omitempty"`
	Vehicle    string                  `json:"vehicle,omitempty"`
	Skills     map[string]int          `json:"skills"`

	Task            string `json:"task"`
	TaskDescription string `json:"task_description"`
	TaskPhase       string `json:"task_phase"`
	TaskSubPhase    string `json:"task_sub_phase"`
	TaskDepth       int    `json:"task_depth"`
}

// VehicleView is a vehicle's navigation state.
type VehicleView struct {
	ID           units.VehicleID     `json:"id"`
	Name         string              `json:"name"`
	Kind         units.VehicleKind   `json:"kind"`
	Status       units.VehicleStatus `json:"status"`
	Location     coords.Coordinates  `json:"location"`
	Direction    coords.Direction    `json:"direction"`
	Speed        float64             `json:"speed"`
	Elevation    float64             `json:"elevation"`
	TerrainGrade float64             `json:"terrain_grade"`
	Reserved     bool                `json:"reserved"`

	Driver     string   `json:"driver,omitempty"`
	Passengers []string `json:"passengers"`

	Destination           string  `json:"destination,omitempty"`
	DistanceToDestination float64 `json:"distance_to_destination"`
	Odometer              float64 `json:"odometer"`
	SinceMaintenance      float64 `json:"distance_since_maintenance"`
	Failure               string  `json:"failure,omitempty"`
	Settlement            string  `json:"settlement,omitempty"`
}

// SettlementView is a settlement with its roster and facilities.
type SettlementView struct {
	ID         units.SettlementID `json:"id"`
	Name       string             `json:"name"`
	Location   coords.Coordinates `json:"location"`
	Population int                `json:"population"`
	Capacity   int                `json:"capacity"`
	Incoming   int                `json:"incoming"`
	FoodStock  float64            `json:"food_stock"`

	Greenhouse *units.Greenhouse `json:"greenhouse,omitempty"`
	GarageUsed int               `json:"garage_used"`
	GarageSize int               `json:"garage_size"`

	People         []string      `json:"people"`
	ParkedVehicles []VehicleView `json:"parked_vehicles"`
}

// Status returns the current status.
func (s *Simulation) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		RunID:        s.RunID,
		Tick:         s.LastTick,
		SimTime:      SimTime(s.LastTick, s.PulseSeconds),
		PulseSeconds: s.PulseSeconds,
		Stats:        s.stats,
	}
}

// Persons returns every person, sorted by id.
func (s *Simulation) Persons() []PersonView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	persons := s.World.Units.Persons()
	out := make([]PersonView, 0, len(persons))
	for _, p := range persons {
		out = append(out, s.personView(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Person returns one person by id.
func (s *Simulation) Person(id units.PersonID) (PersonView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.World.Units.Person(id)
	if p == nil {
		return PersonView{}, false
	}
	return s.personView(p), true
}

// Vehicles returns every vehicle, sorted by id.
func (s *Simulation) Vehicles() []VehicleView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicles := s.World.Units.Vehicles()
	out := make([]VehicleView, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, s.vehicleView(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Settlements returns every settlement, sorted by id.
func (s *Simulation) Settlements() []SettlementView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	setts := s.World.Units.Settlements()
	out := make([]SettlementView, 0, len(setts))
	for _, sett := range setts {
		out = append(out, s.settlementView(sett))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Settlement returns one settlement by id.
func (s *Simulation) Settlement(id units.SettlementID) (SettlementView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sett := s.World.Units.Settlement(id)
	if sett == nil {
		return SettlementView{}, false
	}
	return s.settlementView(sett), true
}

func (s *Simulation) personView(p *units.Person) PersonView {
	u := s.World.Units
	view := PersonView{
		ID:        p.ID,
		Name:      p.Name,
		Situation: p.Situation,
		Location:  p.Location,
		Skills:    make(map[string]int),
	}
	if m := s.World.ExistingManager(p.ID); m != nil {
		view.Task = m.TaskName()
		view.TaskDescription = m.TaskDescription()
		view.TaskPhase = m.TaskPhase()
		view.TaskSubPhase = m.TaskSubPhase()
		view.TaskDepth = m.Depth()
	}
	for _, skill := range []units.Skill{units.SkillDriving, units.SkillMechanics, units.SkillGreenhouseFarming} {
		view.Skills[skill.String()] = p.SkillLevel(skill)
	}
	if sett := u.Settlement(p.SettlementID); sett != nil {
		view.Settlement = sett.Name
	}
	if v := u.Vehicle(p.VehicleID); v != nil {
		view.Vehicle = v.Name
	}
	return view
}

func (s *Simulation) vehicleView(v *units.Vehicle) VehicleView {
	u := s.World.Units
	view := VehicleView{
		ID:                    v.ID,
		Name:                  v.Name,
		Kind:                  v.Kind,
		Status:                v.Status,
		Location:              v.Location,
		Direction:             v.Direction,
		Speed:                 v.Speed,
		Elevation:             v.Elevation,
		TerrainGrade:          v.TerrainGrade,
		Reserved:              v.Reserved,
		Passengers:            make([]string, 0, len(v.Passengers)),
		DistanceToDestination: v.DistanceToDestination,
		Odometer:              v.Odometer,
		SinceMaintenance:      v.DistanceSinceMaintenance,
	}
	if d := u.Person(v.DriverID); d != nil {
		view.Driver = d.Name
	}
	for _, id := range v.Passengers {
		if p := u.Person(id); p != nil {
			view.Passengers = append(view.Passengers, p.Name)
		}
	}
	switch v.DestinationType {
	case units.DestinationSettlement:
		if dest := u.Settlement(v.DestinationSettlementID); dest != nil {
			view.Destination = dest.Name
		}
	case units.DestinationCoordinates:
		view.Destination = v.Destination.String()
	}
	if v.Failure != nil && !v.Failure.Fixed() {
		view.Failure = v.Failure.String()
	}
	if sett := u.Settlement(v.SettlementID); sett != nil {
		view.Settlement = sett.Name
	}
	return view
}

func (s *Simulation) settlementView(sett *units.Settlement) SettlementView {
	u := s.World.Units
	view := SettlementView{
		ID:             sett.ID,
		Name:           sett.Name,
		Location:       sett.Location,
		Population:     sett.Population(),
		Capacity:       sett.Quarters.Capacity,
		Incoming:       u.IncomingPassengers(sett.ID),
		FoodStock:      sett.FoodStock,
		People:         make([]string, 0, len(sett.People)),
		ParkedVehicles: make([]VehicleView, 0, len(sett.ParkedVehicles)),
	}
	if sett.Greenhouse != nil {
		gh := *sett.Greenhouse
		view.Greenhouse = &gh
	}
	if sett.Garage != nil {
		view.GarageUsed = sett.Garage.UsedCapacity()
		view.GarageSize = sett.Garage.MaxSizeCapacity
	}
	for _, p := range u.PersonsAt(sett.ID) {
		view.People = append(view.People, p.Name)
	}
	for _, v := range u.ParkedVehiclesAt(sett.ID) {
		view.ParkedVehicles = append(view.ParkedVehicles, s.vehicleView(v))
	}
	return view
}
