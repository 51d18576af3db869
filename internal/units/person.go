package units

import "github.com/talgya/red-sands/internal/coords"

// LocationSituation describes where a person is.
type LocationSituation uint8

const (
	InSettlement LocationSituation = iota
	InVehicle
	Outside
)

var situationNames = [...]string{
	InSettlement: "In Settlement",
	InVehicle:    "In Vehicle",
	Outside:      "Outside",
}

func (l LocationSituation) String() string {
	if int(l) < len(situationNames) {
		return situationNames[l]
	}
	return "Unknown"
}

// MarshalText renders the situation by name in JSON.
func (l LocationSituation) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Skill is a trainable ability.
type Skill uint8

const (
	SkillDriving Skill = iota
	SkillMechanics
	SkillGreenhouseFarming
	skillCount
)

var skillNames = [...]string{
	SkillDriving:           "Driving",
	SkillMechanics:         "Mechanics",
	SkillGreenhouseFarming: "Greenhouse Farming",
}

func (s Skill) String() string {
	if s < skillCount {
		return skillNames[s]
	}
	return "Unknown"
}

// levelBase is the experience needed for level 1. Each further level needs
// twice the previous increment.
const levelBase = 25.0

// Skills holds accumulated experience per skill.
type Skills [skillCount]float64

// Experience returns the accumulated experience for a skill.
func (s *Skills) Experience(skill Skill) float64 {
	return s[skill]
}

// Level returns the skill level derived from experience: level n needs
// 25·(2^n − 1) experience.
func (s *Skills) Level(skill Skill) int {
	exp := s[skill]
	level := 0
	need := levelBase
	for exp >= need {
		level++
		need += levelBase * float64(int(1)<<level)
	}
	return level
}

// SetLevel sets experience to the minimum for the given level.
func (s *Skills) SetLevel(skill Skill, level int) {
	exp := 0.0
	for i := 0; i < level; i++ {
		exp += levelBase * float64(int(1)<<i)
	}
	s[skill] = exp
}

// Person is a colonist.
type Person struct {
	ID   PersonID `json:"id"`
	Name string   `json:"name"`

	Location     coords.Coordinates `json:"location"`
	Situation    LocationSituation  `json:"situation"`
	SettlementID SettlementID       `json:"settlement_id,omitempty"`
	VehicleID    VehicleID          `json:"vehicle_id,omitempty"`

	Skills             Skills `json:"skills"`
	ExperienceAptitude int    `json:"experience_aptitude"` // 0–100, 50 is neutral
}

// SkillLevel is shorthand for p.Skills.Level.
func (p *Person) SkillLevel(skill Skill) int {
	return p.Skills.Level(skill)
}

// AddExperience adds experience points, scaled up or down by aptitude.
func (p *Person) AddExperience(skill Skill, points float64) {
	points += points * float64(p.ExperienceAptitude-50) / 100
	if points > 0 {
		p.Skills[skill] += points
	}
}

// EnterSettlement places the person in a settlement's roster situation.
// The caller updates the settlement roster.
func (p *Person) EnterSettlement(s *Settlement) {
	p.Situation = InSettlement
	p.SettlementID = s.ID
	p.VehicleID = 0
	p.Location = s.Location
}

// EnterVehicle places the person inside a vehicle.
func (p *Person) EnterVehicle(v *Vehicle) {
	p.Situation = InVehicle
	p.SettlementID = 0
	p.VehicleID = v.ID
	p.Location = v.Location
}

// GoOutside leaves the person on the surface at their current location.
func (p *Person) GoOutside() {
	p.Situation = Outside
	p.SettlementID = 0
	p.VehicleID = 0
}
