package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/red-sands/internal/entropy"
)

func TestVehicle_PassengersAndDriver(t *testing.T) {
	v := &Vehicle{Kind: KindRover}
	v.AddPassenger(1)
	v.AddPassenger(1)
	v.SetDriver(2)

	assert.Equal(t, []PersonID{1, 2}, v.Passengers)
	assert.Equal(t, PersonID(2), v.DriverID)

	v.RemovePassenger(2)
	assert.Zero(t, v.DriverID)
	assert.Equal(t, 1, v.PassengerCount())
}

func TestVehicle_Reservable(t *testing.T) {
	v := &Vehicle{Kind: KindRover, Status: StatusParked}
	assert.True(t, v.Reservable())

	v.Reserved = true
	assert.False(t, v.Reservable())
	v.Reserved = false

	v.Failure = NewMechanicalFailure("Fuel Leak", 2)
	assert.False(t, v.Reservable())
	v.Failure.AddWorkTime(2)
	assert.True(t, v.Reservable())

	lander := &Vehicle{Kind: KindLander, Status: StatusParked}
	assert.False(t, lander.Reservable())
}

func TestVehicle_BreakdownAndRepair(t *testing.T) {
	s := &Settlement{ID: 3, Location: equator(1)}
	v := &Vehicle{Kind: KindRover, Status: StatusMoving, Speed: 30, Location: equator(0)}
	v.SetDestinationSettlement(s)
	assert.InDelta(t, v.Location.DistanceTo(s.Location), v.DistanceToDestination, 1e-9)

	v.Breakdown(NewMechanicalFailure("Cracked Axle", 1))
	assert.Equal(t, StatusBrokenDown, v.Status)
	assert.Zero(t, v.Speed)

	v.Repaired()
	assert.Equal(t, StatusBrokenDown, v.Status, "unfixed failure keeps the vehicle down")

	v.Failure.AddWorkTime(1)
	v.Repaired()
	assert.Equal(t, StatusMoving, v.Status)

	v.Park(s)
	assert.Equal(t, StatusParked, v.Status)
	assert.Equal(t, DestinationNone, v.DestinationType)
	assert.Equal(t, s.ID, v.SettlementID)
}

func TestVehicle_RepairKeepsStuckVehicleStuck(t *testing.T) {
	v := &Vehicle{Kind: KindRover, Status: StatusStuck, Location: equator(0)}
	v.SetDestinationCoordinates(equator(1))

	v.Breakdown(NewMechanicalFailure("Seized Winch", 1))
	assert.Equal(t, StatusBrokenDown, v.Status)
	v.Failure.AddWorkTime(1)
	v.Repaired()
	assert.Equal(t, StatusStuck, v.Status)

	v.Status = StatusMoving
	v.Breakdown(NewMechanicalFailure("Flat Tyre", 1))
	v.Failure.AddWorkTime(1)
	v.Repaired()
	assert.Equal(t, StatusMoving, v.Status)
}

func TestVehicle_Maintenance(t *testing.T) {
	v := &Vehicle{}
	v.AddDistance(MaintenanceInterval)
	assert.False(t, v.NeedsMaintenance())
	v.AddDistance(1)
	assert.True(t, v.NeedsMaintenance())
	assert.Equal(t, MaintenanceInterval+1, v.Odometer)

	v.MaintenanceWork = 100
	v.CompleteMaintenance()
	assert.False(t, v.NeedsMaintenance())
	assert.Zero(t, v.MaintenanceWork)
	assert.Equal(t, MaintenanceInterval+1, v.Odometer)
}

func TestMechanicalFailure_Work(t *testing.T) {
	f := NewMechanicalFailure("Blown Seal", 3)
	assert.False(t, f.Fixed())

	f.AddWorkTime(1)
	assert.InDelta(t, 2, f.RemainingHours, 1e-12)
	f.AddWorkTime(2 - 1e-12)
	assert.True(t, f.Fixed(), "residue below a nanohour counts as fixed")

	f.AddWorkTime(5)
	assert.Zero(t, f.RemainingHours)
	assert.Equal(t, "Blown Seal (3.0/3.0 h)", f.String())
}

func TestRandomFailure_Bounds(t *testing.T) {
	rng := entropy.New(11)
	for i := 0; i < 100; i++ {
		f := RandomFailure(rng)
		require.NotEmpty(t, f.Name)
		assert.GreaterOrEqual(t, f.WorkHours, 1.0)
		assert.LessOrEqual(t, f.WorkHours, 50.0)
		assert.Equal(t, f.WorkHours, f.RemainingHours)
	}
}

func TestSkills_Levels(t *testing.T) {
	var s Skills
	assert.Equal(t, 0, s.Level(SkillDriving))

	s[SkillDriving] = 24.9
	assert.Equal(t, 0, s.Level(SkillDriving))
	s[SkillDriving] = 25
	assert.Equal(t, 1, s.Level(SkillDriving))
	s[SkillDriving] = 75
	assert.Equal(t, 2, s.Level(SkillDriving))
	s[SkillDriving] = 174
	assert.Equal(t, 2, s.Level(SkillDriving))

	for level := 0; level < 6; level++ {
		s.SetLevel(SkillMechanics, level)
		assert.Equal(t, level, s.Level(SkillMechanics))
	}
}

func TestPerson_AddExperienceScalesWithAptitude(t *testing.T) {
	keen := &Person{ExperienceAptitude: 100}
	keen.AddExperience(SkillDriving, 10)
	assert.InDelta(t, 15, keen.Skills.Experience(SkillDriving), 1e-12)

	dull := &Person{ExperienceAptitude: 0}
	dull.AddExperience(SkillDriving, 10)
	assert.InDelta(t, 5, dull.Skills.Experience(SkillDriving), 1e-12)
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "Periodic Maintenance", StatusMaintenance.String())
	assert.Equal(t, "Broken Down", StatusBrokenDown.String())
	assert.Equal(t, "In Vehicle", InVehicle.String())
	assert.Equal(t, "Rover", KindRover.String())
	assert.Equal(t, "Settlement", DestinationSettlement.String())
	assert.Equal(t, "Harvesting", GreenhouseHarvesting.String())
	assert.Equal(t, "Greenhouse Farming", SkillGreenhouseFarming.String())
}
