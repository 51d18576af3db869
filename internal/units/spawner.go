// Colony spawning: places settlements and seeds them with people and rovers.
package units

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/talgya/red-sands/internal/coords"
)

// SpawnConfig controls initial colony generation.
type SpawnConfig struct {
	Seed                  int64
	Settlements           int
	PeoplePerSettlement   int
	VehiclesPerSettlement int
	Centre                coords.Coordinates // Region the colony is spread around
	SpreadKM              float64            // Maximum distance from Centre
	MinSpacingKM          float64            // Minimum distance between settlements
}

// DefaultSpawnConfig returns a small colony around the Gale crater region.
func DefaultSpawnConfig() SpawnConfig {
	return SpawnConfig{
		Settlements:           6,
		PeoplePerSettlement:   8,
		VehiclesPerSettlement: 2,
		Centre:                coords.New(math.Pi/2+4.5*math.Pi/180, 137.4*math.Pi/180),
		SpreadKM:              600,
		MinSpacingKM:          120,
	}
}

// Spawner creates units for a new colony.
type Spawner struct {
	rng *rand.Rand
}

// NewSpawner creates a spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{rng: rand.New(rand.NewSource(seed + 300))}
}

// Populate places settlements and fills them with people and vehicles.
func (s *Spawner) Populate(m *Manager, cfg SpawnConfig) error {
	if cfg.Settlements <= 0 {
		return fmt.Errorf("spawn: need at least one settlement, got %d", cfg.Settlements)
	}

	names := s.settlementNames(cfg.Settlements)
	placed := make([]coords.Coordinates, 0, cfg.Settlements)
	for i := 0; i < cfg.Settlements; i++ {
		loc := s.placeSettlement(cfg, placed)
		placed = append(placed, loc)

		sett := s.NewSettlement(names[i], loc, cfg.PeoplePerSettlement)
		m.AddSettlement(sett)

		for j := 0; j < cfg.VehiclesPerSettlement; j++ {
			m.AddVehicle(s.NewRover(sett.ID))
		}
		for j := 0; j < cfg.PeoplePerSettlement; j++ {
			m.AddPerson(s.NewPerson(sett.ID))
		}
	}
	return nil
}

// NewSettlement builds a settlement with standard facilities and quarters
// sized for residents plus visitors.
func (s *Spawner) NewSettlement(name string, loc coords.Coordinates, residents int) *Settlement {
	return &Settlement{
		Name:       name,
		Location:   loc,
		Garage:     NewGarage(2, 4),
		Greenhouse: NewGreenhouse(120 + float64(s.rng.Intn(80))),
		Quarters:   LivingQuarters{Capacity: residents + 4 + s.rng.Intn(8)},
		FoodStock:  float64(residents) * FoodPerPersonSol * 30,
	}
}

// NewRover builds a ground vehicle parked at a settlement.
func (s *Spawner) NewRover(settlementID SettlementID) *Vehicle {
	model := roverModels[s.rng.Intn(len(roverModels))]
	return &Vehicle{
		Name:            fmt.Sprintf("%s %d", model.name, 1+s.rng.Intn(99)),
		Kind:            KindRover,
		Status:          StatusParked,
		Direction:       coords.NewDirection(0),
		BaseSpeed:       model.baseSpeed,
		TerrainHandling: model.handling,
		Size:            model.size,
		MaxPassengers:   model.passengers,
		SettlementID:    settlementID,
	}
}

// NewPerson builds a colonist living at a settlement.
func (s *Spawner) NewPerson(settlementID SettlementID) *Person {
	p := &Person{
		Name:               s.generateName(),
		Situation:          InSettlement,
		SettlementID:       settlementID,
		ExperienceAptitude: 25 + s.rng.Intn(51),
	}
	p.Skills.SetLevel(SkillDriving, s.rng.Intn(4))
	p.Skills.SetLevel(SkillMechanics, s.rng.Intn(3))
	p.Skills.SetLevel(SkillGreenhouseFarming, s.rng.Intn(3))
	return p
}

// placeSettlement picks a random spot within the spread that keeps the
// minimum spacing, relaxing the spacing if the region is crowded.
func (s *Spawner) placeSettlement(cfg SpawnConfig, existing []coords.Coordinates) coords.Coordinates {
	minDist := cfg.MinSpacingKM
	for {
		var loc coords.Coordinates
		for attempt := 0; attempt < 200; attempt++ {
			dir := coords.NewDirection(s.rng.Float64() * 2 * math.Pi)
			// Square root keeps placements uniform over the disc.
			dist := cfg.SpreadKM * math.Sqrt(s.rng.Float64())
			loc = cfg.Centre.NewLocation(dir, dist)
			if !tooClose(loc, existing, minDist) {
				return loc
			}
		}
		if minDist < 1 {
			return loc
		}
		minDist /= 2
	}
}

func tooClose(loc coords.Coordinates, existing []coords.Coordinates, minDist float64) bool {
	for _, e := range existing {
		if loc.DistanceTo(e) < minDist {
			return true
		}
	}
	return false
}

type roverModel struct {
	name       string
	baseSpeed  float64
	handling   float64
	size       int
	passengers int
}

var roverModels = []roverModel{
	{name: "Explorer Rover", baseSpeed: 40, handling: 2, size: 2, passengers: 8},
	{name: "Transport Rover", baseSpeed: 50, handling: 1, size: 2, passengers: 8},
	{name: "Cargo Rover", baseSpeed: 35, handling: 1.5, size: 3, passengers: 2},
	{name: "Light Utility Rover", baseSpeed: 60, handling: 2.5, size: 1, passengers: 2},
}

// settlementNames produces procedural names by combining syllables.
func (s *Spawner) settlementNames(count int) []string {
	prefixes := []string{
		"Red", "Iron", "Dust", "Rust", "Ares", "Olympus", "Tharsis", "Hellas",
		"Elysium", "Noctis", "Valles", "Arcadia", "Utopia", "Syrtis", "Gale",
		"Jezero", "Phobos", "Deimos", "Argyre", "Meridian",
	}
	suffixes := []string{
		" Base", " Station", " Outpost", " Camp", " Hab", " Landing",
		" Ridge", " Crater", " Colony", " Depot", " Point", " Rise",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)
	for len(names) < count {
		name := prefixes[s.rng.Intn(len(prefixes))] + suffixes[s.rng.Intn(len(suffixes))]
		if used[name] {
			if len(used) >= len(prefixes)*len(suffixes) {
				name = fmt.Sprintf("%s %d", name, len(names)+1)
			} else {
				continue
			}
		}
		used[name] = true
		names = append(names, name)
	}
	return names
}

var firstNames = []string{
	"Ada", "Boris", "Chen", "Dara", "Elif", "Farid", "Greta", "Hiro",
	"Ines", "Jonas", "Kavya", "Lars", "Mira", "Nikolai", "Oluwa", "Priya",
	"Quinn", "Rosa", "Sven", "Tomas", "Uma", "Viktor", "Wen", "Yara", "Zane",
}

var lastNames = []string{
	"Abara", "Baptiste", "Castillo", "Dubois", "Eriksen", "Fujita", "Gallo",
	"Haddad", "Ivanova", "Jensen", "Kowalski", "Lindqvist", "Moreau",
	"Nakamura", "Okafor", "Petrov", "Quispe", "Reyes", "Sato", "Tanaka",
}

func (s *Spawner) generateName() string {
	first := firstNames[s.rng.Intn(len(firstNames))]
	last := lastNames[s.rng.Intn(len(lastNames))]
	return first + " " + last
}
