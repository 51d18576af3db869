// Package scenario loads hand-authored colonies from YAML.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/red-sands/internal/coords"
	"github.com/talgya/red-sands/internal/units"
)

// Scenario is a complete starting colony.
type Scenario struct {
	Name        string       `yaml:"name"`
	Settlements []Settlement `yaml:"settlements"`
	Vehicles    []Vehicle    `yaml:"vehicles"`
	People      []Person     `yaml:"people"`
}

// Settlement describes one settlement and its facilities.
type Settlement struct {
	Name      string  `yaml:"name"`
	Latitude  string  `yaml:"latitude"`  // e.g. "4.5 S"
	Longitude string  `yaml:"longitude"` // e.g. "137.4 E"
	Capacity  int     `yaml:"capacity"`  // living quarters
	FoodStock float64 `yaml:"food_stock"`

	Garage *struct {
		MaxVehicleSize int `yaml:"max_vehicle_size"`
		Capacity       int `yaml:"capacity"`
	} `yaml:"garage"`
	GreenhouseKG float64 `yaml:"greenhouse_kg"` // max harvest per cycle; 0 = none
}

// Vehicle describes one vehicle parked at a settlement.
type Vehicle struct {
	Name          string  `yaml:"name"`
	Settlement    string  `yaml:"settlement"`
	Kind          string  `yaml:"kind"` // "rover" (default) or "lander"
	BaseSpeed     float64 `yaml:"base_speed"`
	Handling      float64 `yaml:"handling"`
	Size          int     `yaml:"size"`
	MaxPassengers int     `yaml:"max_passengers"`
}

// Person describes one colonist living at a settlement.
type Person struct {
	Name       string `yaml:"name"`
	Settlement string `yaml:"settlement"`
	Driving    int    `yaml:"driving"`
	Mechanics  int    `yaml:"mechanics"`
	Farming    int    `yaml:"farming"`
	Aptitude   *int   `yaml:"aptitude"` // 0–100; default 50
}

// FromYAML parses and validates a scenario from raw YAML bytes.
func FromYAML(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("invalid scenario yaml: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := FromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Validate checks names, references and numeric ranges.
func (sc *Scenario) Validate() error {
	var errs []error
	if len(sc.Settlements) == 0 {
		errs = append(errs, errors.New("scenario needs at least one settlement"))
	}

	names := make(map[string]bool, len(sc.Settlements))
	for i, s := range sc.Settlements {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("settlement %d: name required", i))
			continue
		}
		if names[s.Name] {
			errs = append(errs, fmt.Errorf("settlement %q: duplicate name", s.Name))
		}
		names[s.Name] = true
		if _, err := coords.Parse(s.Latitude, s.Longitude); err != nil {
			errs = append(errs, fmt.Errorf("settlement %q: %w", s.Name, err))
		}
		if s.Capacity < 0 || s.FoodStock < 0 || s.GreenhouseKG < 0 {
			errs = append(errs, fmt.Errorf("settlement %q: negative capacity, food or greenhouse", s.Name))
		}
		if s.Garage != nil && (s.Garage.MaxVehicleSize <= 0 || s.Garage.Capacity <= 0) {
			errs = append(errs, fmt.Errorf("settlement %q: garage sizes must be positive", s.Name))
		}
	}

	for i, v := range sc.Vehicles {
		if v.Name == "" {
			errs = append(errs, fmt.Errorf("vehicle %d: name required", i))
		}
		if !names[v.Settlement] {
			errs = append(errs, fmt.Errorf("vehicle %q: settlement %q: %w", v.Name, v.Settlement, units.ErrUnknownSettlement))
		}
		if _, err := parseKind(v.Kind); err != nil {
			errs = append(errs, fmt.Errorf("vehicle %q: %w", v.Name, err))
		}
		if v.BaseSpeed <= 0 || v.Size <= 0 || v.MaxPassengers <= 0 {
			errs = append(errs, fmt.Errorf("vehicle %q: speed, size and passengers must be positive", v.Name))
		}
	}

	for i, p := range sc.People {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("person %d: name required", i))
		}
		if !names[p.Settlement] {
			errs = append(errs, fmt.Errorf("person %q: settlement %q: %w", p.Name, p.Settlement, units.ErrUnknownSettlement))
		}
		if p.Driving < 0 || p.Mechanics < 0 || p.Farming < 0 {
			errs = append(errs, fmt.Errorf("person %q: skills must not be negative", p.Name))
		}
		if p.Aptitude != nil && (*p.Aptitude < 0 || *p.Aptitude > 100) {
			errs = append(errs, fmt.Errorf("person %q: aptitude must be 0-100", p.Name))
		}
	}

	return errors.Join(errs...)
}

// Build adds the scenario's units to m. Settlements are added first so that
// vehicles and people can be parked and housed.
func (sc *Scenario) Build(m *units.Manager) error {
	if err := sc.Validate(); err != nil {
		return err
	}

	ids := make(map[string]units.SettlementID, len(sc.Settlements))
	for _, s := range sc.Settlements {
		loc, _ := coords.Parse(s.Latitude, s.Longitude)
		sett := &units.Settlement{
			Name:      s.Name,
			Location:  loc,
			Quarters:  units.LivingQuarters{Capacity: s.Capacity},
			FoodStock: s.FoodStock,
		}
		if s.Garage != nil {
			sett.Garage = units.NewGarage(s.Garage.MaxVehicleSize, s.Garage.Capacity)
		}
		if s.GreenhouseKG > 0 {
			sett.Greenhouse = units.NewGreenhouse(s.GreenhouseKG)
		}
		ids[s.Name] = m.AddSettlement(sett)
	}

	for _, v := range sc.Vehicles {
		kind, _ := parseKind(v.Kind)
		m.AddVehicle(&units.Vehicle{
			Name:            v.Name,
			Kind:            kind,
			Status:          units.StatusParked,
			Direction:       coords.NewDirection(0),
			BaseSpeed:       v.BaseSpeed,
			TerrainHandling: v.Handling,
			Size:            v.Size,
			MaxPassengers:   v.MaxPassengers,
			SettlementID:    ids[v.Settlement],
		})
	}

	for _, p := range sc.People {
		aptitude := 50
		if p.Aptitude != nil {
			aptitude = *p.Aptitude
		}
		person := &units.Person{
			Name:               p.Name,
			Situation:          units.InSettlement,
			SettlementID:       ids[p.Settlement],
			ExperienceAptitude: aptitude,
		}
		person.Skills.SetLevel(units.SkillDriving, p.Driving)
		person.Skills.SetLevel(units.SkillMechanics, p.Mechanics)
		person.Skills.SetLevel(units.SkillGreenhouseFarming, p.Farming)
		m.AddPerson(person)
	}

	return nil
}

func parseKind(s string) (units.VehicleKind, error) {
	switch strings.ToLower(s) {
	case "", "rover":
		return units.KindRover, nil
	case "lander":
		return units.KindLander, nil
	default:
		return 0, fmt.Errorf("unknown vehicle kind %q", s)
	}
}
