package units

import (
	"sort"

	"github.com/talgya/red-sands/internal/coords"
	"github.com/talgya/red-sands/internal/entropy"
)

// Manager owns every unit and hands out ids. Iteration follows insertion
// order so pulses are reproducible for a given seed.
type Manager struct {
	rng *entropy.Source

	persons     map[PersonID]*Person
	vehicles    map[VehicleID]*Vehicle
	settlements map[SettlementID]*Settlement

	personOrder     []PersonID
	vehicleOrder    []VehicleID
	settlementOrder []SettlementID

	nextPerson     PersonID
	nextVehicle    VehicleID
	nextSettlement SettlementID
}

// NewManager creates an empty manager drawing randomness from rng.
func NewManager(rng *entropy.Source) *Manager {
	return &Manager{
		rng:            rng,
		persons:        make(map[PersonID]*Person),
		vehicles:       make(map[VehicleID]*Vehicle),
		settlements:    make(map[SettlementID]*Settlement),
		nextPerson:     1,
		nextVehicle:    1,
		nextSettlement: 1,
	}
}

// AddSettlement registers s, assigning an id when it has none.
func (m *Manager) AddSettlement(s *Settlement) SettlementID {
	if s.ID == 0 {
		s.ID = m.nextSettlement
	}
	if s.ID >= m.nextSettlement {
		m.nextSettlement = s.ID + 1
	}
	if _, ok := m.settlements[s.ID]; !ok {
		m.settlementOrder = append(m.settlementOrder, s.ID)
	}
	m.settlements[s.ID] = s
	return s.ID
}

// AddVehicle registers v, assigning an id when it has none. A vehicle with a
// settlement id is parked there.
func (m *Manager) AddVehicle(v *Vehicle) VehicleID {
	if v.ID == 0 {
		v.ID = m.nextVehicle
	}
	if v.ID >= m.nextVehicle {
		m.nextVehicle = v.ID + 1
	}
	if _, ok := m.vehicles[v.ID]; !ok {
		m.vehicleOrder = append(m.vehicleOrder, v.ID)
	}
	m.vehicles[v.ID] = v
	if s := m.settlements[v.SettlementID]; s != nil {
		v.Location = s.Location
		s.AddVehicle(v.ID)
	}
	return v.ID
}

// AddPerson registers p, assigning an id when it has none. A person with a
// settlement id joins its roster.
func (m *Manager) AddPerson(p *Person) PersonID {
	if p.ID == 0 {
		p.ID = m.nextPerson
	}
	if p.ID >= m.nextPerson {
		m.nextPerson = p.ID + 1
	}
	if _, ok := m.persons[p.ID]; !ok {
		m.personOrder = append(m.personOrder, p.ID)
	}
	m.persons[p.ID] = p
	if s := m.settlements[p.SettlementID]; s != nil {
		p.EnterSettlement(s)
		s.AddPerson(p.ID)
	}
	return p.ID
}

// Person returns the person with id, or nil.
func (m *Manager) Person(id PersonID) *Person { return m.persons[id] }

// Vehicle returns the vehicle with id, or nil.
func (m *Manager) Vehicle(id VehicleID) *Vehicle { return m.vehicles[id] }

// Settlement returns the settlement with id, or nil.
func (m *Manager) Settlement(id SettlementID) *Settlement { return m.settlements[id] }

// Persons returns all persons in insertion order.
func (m *Manager) Persons() []*Person {
	out := make([]*Person, 0, len(m.personOrder))
	for _, id := range m.personOrder {
		out = append(out, m.persons[id])
	}
	return out
}

// Vehicles returns all vehicles in insertion order.
func (m *Manager) Vehicles() []*Vehicle {
	out := make([]*Vehicle, 0, len(m.vehicleOrder))
	for _, id := range m.vehicleOrder {
		out = append(out, m.vehicles[id])
	}
	return out
}

// Settlements returns all settlements in insertion order.
func (m *Manager) Settlements() []*Settlement {
	out := make([]*Settlement, 0, len(m.settlementOrder))
	for _, id := range m.settlementOrder {
		out = append(out, m.settlements[id])
	}
	return out
}

// SettlementByName returns the first settlement named name, or nil.
func (m *Manager) SettlementByName(name string) *Settlement {
	for _, id := range m.settlementOrder {
		if s := m.settlements[id]; s.Name == name {
			return s
		}
	}
	return nil
}

// PersonsAt resolves a settlement's roster.
func (m *Manager) PersonsAt(id SettlementID) []*Person {
	s := m.settlements[id]
	if s == nil {
		return nil
	}
	out := make([]*Person, 0, len(s.People))
	for _, pid := range s.People {
		if p := m.persons[pid]; p != nil {
			out = append(out, p)
		}
	}
	return out
}

// ParkedVehiclesAt resolves a settlement's parked vehicles.
func (m *Manager) ParkedVehiclesAt(id SettlementID) []*Vehicle {
	s := m.settlements[id]
	if s == nil {
		return nil
	}
	out := make([]*Vehicle, 0, len(s.ParkedVehicles))
	for _, vid := range s.ParkedVehicles {
		if v := m.vehicles[vid]; v != nil {
			out = append(out, v)
		}
	}
	return out
}

// VehiclesHeadedTo returns vehicles whose destination is the settlement.
func (m *Manager) VehiclesHeadedTo(id SettlementID) []*Vehicle {
	var out []*Vehicle
	for _, vid := range m.vehicleOrder {
		v := m.vehicles[vid]
		if v.DestinationType == DestinationSettlement && v.DestinationSettlementID == id {
			out = append(out, v)
		}
	}
	return out
}

// IncomingPassengers counts persons aboard vehicles headed to the settlement.
func (m *Manager) IncomingPassengers(id SettlementID) int {
	n := 0
	for _, v := range m.VehiclesHeadedTo(id) {
		n += v.PassengerCount()
	}
	return n
}

// ClosestSettlements returns up to n settlements nearest to from, skipping
// exclude. Ties keep insertion order.
func (m *Manager) ClosestSettlements(from coords.Coordinates, n int, exclude SettlementID) []*Settlement {
	candidates := make([]*Settlement, 0, len(m.settlementOrder))
	for _, id := range m.settlementOrder {
		if id != exclude {
			candidates = append(candidates, m.settlements[id])
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return from.DistanceTo(candidates[i].Location) < from.DistanceTo(candidates[j].Location)
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// RandomSettlement returns a uniformly random settlement other than exclude,
// or nil when there is none.
func (m *Manager) RandomSettlement(exclude SettlementID) *Settlement {
	candidates := make([]*Settlement, 0, len(m.settlementOrder))
	for _, id := range m.settlementOrder {
		if id != exclude {
			candidates = append(candidates, m.settlements[id])
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[m.rng.Intn(len(candidates))]
}

// RandomOfThreeClosest returns one of the three settlements nearest to from,
// or fewer when fewer exist; nil when there is none.
func (m *Manager) RandomOfThreeClosest(from coords.Coordinates, exclude SettlementID) *Settlement {
	closest := m.ClosestSettlements(from, 3, exclude)
	if len(closest) == 0 {
		return nil
	}
	return closest[m.rng.Intn(len(closest))]
}

// TimePasses advances every settlement.
func (m *Manager) TimePasses(seconds float64) {
	for _, id := range m.settlementOrder {
		m.settlements[id].TimePasses(seconds)
	}
}

// Counts returns the number of persons, vehicles and settlements.
func (m *Manager) Counts() (persons, vehicles, settlements int) {
	return len(m.persons), len(m.vehicles), len(m.settlements)
}
