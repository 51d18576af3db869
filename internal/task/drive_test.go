package task

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/talgya/red-sands/internal/coords"
	"github.com/talgya/red-sands/internal/units"
)

// runDrive pulses d until it finishes or reaches the given phase.
func runDrive(t testing.TB, d *Drive, seconds, limit int, until string) {
	t.Helper()
	for i := 0; i < limit; i++ {
		if d.Done() || (until != "" && d.Phase() == until) {
			return
		}
		d.DoTask(seconds)
	}
	require.Failf(t, "drive did not finish", "still %s/%s after %d pulses", d.Phase(), d.SubPhase(), limit)
}

// boardedDriver puts a new person at the wheel of a new rover at loc.
func boardedDriver(w *World, loc coords.Coordinates) (*units.Person, *units.Vehicle) {
	v := &units.Vehicle{
		Name:            "Transport 4",
		Kind:            units.KindRover,
		Status:          units.StatusMoving,
		Location:        loc,
		BaseSpeed:       30,
		TerrainHandling: 2,
		Size:            2,
		MaxPassengers:   4,
	}
	w.Units.AddVehicle(v)
	p := &units.Person{Name: "Ada", ExperienceAptitude: 50}
	w.Units.AddPerson(p)
	v.SetDriver(p.ID)
	p.EnterVehicle(v)
	return p, v
}

func TestDrive_TripBetweenSettlements(t *testing.T) {
	w := newFlatWorld(t, 21)
	a := addSettlement(w, "A", equator(0), 10)
	b := addSettlement(w, "B", equator(0.5), 10)
	p := addPerson(w, "Ada", a.ID)
	v := addRover(w, "Explorer 1", a.ID)

	d := NewDriveToSettlement(p.ID, w, b.ID)
	assert.Equal(t, "Embarking", d.Phase())

	d.DoTask(600)
	assert.Equal(t, v.ID, d.VehicleID())
	assert.Equal(t, "Driving", d.Phase())
	assert.Equal(t, "Drive Explorer 1 to B.", d.Description())
	assert.Equal(t, units.InVehicle, p.Situation)
	assert.Equal(t, units.StatusMoving, v.Status)
	assert.False(t, v.Reserved)
	assert.False(t, a.HasPerson(p.ID))
	assert.False(t, a.HasVehicle(v.ID))
	assert.Equal(t, []units.VehicleID{v.ID}, vehicleIDs(w.Units.VehiclesHeadedTo(b.ID)))
	assert.True(t, p.Location.Equal(v.Location), "driver rides with the vehicle")

	runDrive(t, d, 600, 100, "")
	assert.True(t, d.Done())
	assert.Equal(t, units.InSettlement, p.Situation)
	assert.Equal(t, b.ID, p.SettlementID)
	assert.True(t, b.HasPerson(p.ID))
	assert.True(t, b.HasVehicle(v.ID))
	assert.Equal(t, b.ID, v.SettlementID)
	assert.Equal(t, units.StatusParked, v.Status)
	assert.True(t, v.Location.Equal(b.Location))
	assert.Empty(t, v.Passengers)
	assert.False(t, v.HasDestination())
	assert.InDelta(t, a.Location.DistanceTo(b.Location), v.Odometer, 0.5)
	assert.Greater(t, p.Skills.Experience(units.SkillDriving), 0.0)

	var categories []string
	for _, e := range w.DrainEvents() {
		categories = append(categories, e.Category)
	}
	assert.Equal(t, []string{CategoryDrive, CategoryDrive}, categories)
}

func vehicleIDs(vs []*units.Vehicle) []units.VehicleID {
	var ids []units.VehicleID
	for _, v := range vs {
		ids = append(ids, v.ID)
	}
	return ids
}

func TestDrive_ChoosesNearbyDestination(t *testing.T) {
	w := newFlatWorld(t, 22)
	a := addSettlement(w, "A", equator(0), 10)
	for i, deg := range []float64{0.5, 1, 1.5, 40} {
		addSettlement(w, string(rune('B'+i)), equator(deg), 10)
	}
	p := addPerson(w, "Ada", a.ID)
	v := addRover(w, "Explorer 1", a.ID)

	d := NewDrive(p.ID, w)
	d.DoTask(10)
	require.False(t, d.Done())
	require.True(t, v.Reserved)
	require.Equal(t, "Prepare Vehicle", d.SubPhase(), "zero-time steps run as soon as a vehicle is reserved")
	assert.NotEqual(t, a.ID, d.destSettlement)
	assert.Equal(t, units.DestinationSettlement, d.destType)
}

func TestDrive_SecondDriverFindsNoVehicle(t *testing.T) {
	w := newFlatWorld(t, 23)
	a := addSettlement(w, "A", equator(0), 10)
	addSettlement(w, "B", equator(0.5), 10)
	p1 := addPerson(w, "Ada", a.ID)
	p2 := addPerson(w, "Boris", a.ID)
	v := addRover(w, "Explorer 1", a.ID)

	d1 := NewDrive(p1.ID, w)
	d2 := NewDrive(p2.ID, w)

	d1.DoTask(10)
	assert.Equal(t, v.ID, d1.VehicleID())
	assert.True(t, v.Reserved)

	d2.DoTask(600)
	assert.True(t, d2.Done())
	assert.Zero(t, d2.VehicleID())
}

func TestDrive_ReservationsAreExclusive(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := newFlatWorld(t, rapid.Int64Range(1, 1000).Draw(rt, "seed"))
		a := addSettlement(w, "A", equator(0), 100)
		addSettlement(w, "B", equator(0.5), 100)
		addSettlement(w, "C", equator(1), 100)

		people := rapid.IntRange(1, 8).Draw(rt, "people")
		vehicles := rapid.IntRange(0, 5).Draw(rt, "vehicles")
		var drives []*Drive
		for i := 0; i < people; i++ {
			p := addPerson(w, "P", a.ID)
			drives = append(drives, NewDrive(p.ID, w))
		}
		for i := 0; i < vehicles; i++ {
			addRover(w, "R", a.ID)
		}

		seen := map[units.VehicleID]bool{}
		for _, d := range drives {
			d.DoTask(10)
			if id := d.VehicleID(); id != 0 {
				if seen[id] {
					rt.Fatalf("vehicle %d reserved twice", id)
				}
				seen[id] = true
			}
		}
		if want := min(people, vehicles); len(seen) != want {
			rt.Fatalf("%d reservations, want %d", len(seen), want)
		}
	})
}

func TestDrive_NoDestinationReleasesVehicle(t *testing.T) {
	w := newFlatWorld(t, 24)
	a := addSettlement(w, "A", equator(0), 10)
	p := addPerson(w, "Ada", a.ID)
	v := addRover(w, "Explorer 1", a.ID)

	d := NewDrive(p.ID, w)
	d.DoTask(600)
	assert.True(t, d.Done())
	assert.False(t, v.Reserved)
	assert.Equal(t, units.StatusParked, v.Status)
	assert.True(t, a.HasPerson(p.ID))
}

func TestDrive_FullDestinationCancels(t *testing.T) {
	w := newFlatWorld(t, 25)
	a := addSettlement(w, "A", equator(0), 10)
	b := addSettlement(w, "B", equator(0.5), 1)
	addPerson(w, "Resident", b.ID)
	p := addPerson(w, "Ada", a.ID)
	v := addRover(w, "Explorer 1", a.ID)

	d := NewDriveToSettlement(p.ID, w, b.ID)
	d.DoTask(600)
	assert.True(t, d.Done())
	assert.False(t, v.Reserved)
	assert.True(t, a.HasVehicle(v.ID))
}

func TestDrive_InvitesIdlePeople(t *testing.T) {
	w := newFlatWorld(t, 26)
	a := addSettlement(w, "A", equator(0), 20)
	b := addSettlement(w, "B", equator(0.5), 20)
	driver := addPerson(w, "Ada", a.ID)
	busy := addPerson(w, "Busy", a.ID)
	w.Manager(busy.ID).AddSubTask(NewTendGreenhouse(busy.ID, w))
	var idle []*units.Person
	for i := 0; i < 12; i++ {
		idle = append(idle, addPerson(w, "Idle", a.ID))
	}
	v := addRover(w, "Explorer 1", a.ID)

	d := NewDriveToSettlement(driver.ID, w, b.ID)
	d.DoTask(210)
	require.Equal(t, "Driving", d.Phase())

	assert.LessOrEqual(t, v.PassengerCount(), v.MaxPassengers)
	assert.Greater(t, v.PassengerCount(), 1, "twelve idle people and even odds fill some seats")
	assert.False(t, v.HasPassenger(busy.ID))
	assert.True(t, a.HasPerson(busy.ID))
	for _, p := range idle {
		if v.HasPassenger(p.ID) {
			assert.Equal(t, units.InVehicle, p.Situation)
			assert.False(t, a.HasPerson(p.ID))
		} else {
			assert.True(t, a.HasPerson(p.ID))
		}
	}
	assert.Equal(t, v.PassengerCount(), w.Units.IncomingPassengers(b.ID))

	runDrive(t, d, 600, 100, "")
	for _, p := range idle {
		assert.NotEqual(t, units.InVehicle, p.Situation)
	}
	assert.Equal(t, 20-b.Population(), b.AvailablePopulation())
}

func TestDrive_InvitationsRespectDestinationRoom(t *testing.T) {
	w := newFlatWorld(t, 27)
	a := addSettlement(w, "A", equator(0), 20)
	b := addSettlement(w, "B", equator(0.5), 2)
	driver := addPerson(w, "Ada", a.ID)
	for i := 0; i < 12; i++ {
		addPerson(w, "Idle", a.ID)
	}
	v := addRover(w, "Explorer 1", a.ID)

	d := NewDriveToSettlement(driver.ID, w, b.ID)
	d.DoTask(210)
	require.Equal(t, "Driving", d.Phase())
	assert.LessOrEqual(t, v.PassengerCount(), 2)

	runDrive(t, d, 600, 100, "")
	assert.LessOrEqual(t, b.Population(), 2)
}

func TestDrive_ReachesDestinationExactly(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := newFlatWorld(t, 28)
		startDeg := rapid.Float64Range(0, 360).Draw(rt, "start")
		offsetDeg := rapid.Float64Range(-3, 3).Filter(func(x float64) bool { return math.Abs(x) > 0.01 }).Draw(rt, "offset")
		pulse := rapid.IntRange(60, 3600).Draw(rt, "pulse")

		p, v := boardedDriver(w, equator(startDeg))
		v.BaseSpeed = rapid.Float64Range(5, 60).Draw(rt, "speed")
		dest := equator(startDeg + offsetDeg)

		d := NewDriveToCoordinates(p.ID, w, dest, WithoutEmbark(), WithVehicle(v.ID))
		require.Equal(t, "Driving", d.Phase())
		runDrive(t, d, pulse, 100000, "Disembarking")

		if !v.Location.Equal(dest) {
			rt.Fatalf("stopped at %s, want %s", v.Location, dest)
		}
		if v.Status != units.StatusParked {
			rt.Fatalf("status %s on arrival", v.Status)
		}
		if d.ObstacleTimeCount() >= stuckAttempts {
			rt.Fatalf("obstacle count %d on flat ground", d.ObstacleTimeCount())
		}
	})
}

func TestDrive_DisembarkOutside(t *testing.T) {
	w := newFlatWorld(t, 29)
	p, v := boardedDriver(w, equator(10))
	dest := equator(10.2)

	d := NewDriveToCoordinates(p.ID, w, dest, WithoutEmbark())
	assert.Equal(t, v.ID, d.VehicleID(), "adopts the vehicle the driver sits in")
	runDrive(t, d, 600, 100, "")

	assert.Equal(t, units.Outside, p.Situation)
	assert.True(t, p.Location.Equal(dest))
	assert.Empty(t, v.Passengers)
	assert.Zero(t, v.SettlementID)
	assert.Equal(t, units.StatusParked, v.Status)
}

func TestDrive_WithoutDisembarkKeepsPassengers(t *testing.T) {
	w := newFlatWorld(t, 30)
	p, v := boardedDriver(w, equator(10))

	d := NewDriveToCoordinates(p.ID, w, equator(10.1), WithoutEmbark(), WithoutDisembark())
	runDrive(t, d, 600, 100, "")
	assert.True(t, d.Done())
	assert.True(t, v.HasPassenger(p.ID))
	assert.Equal(t, units.InVehicle, p.Situation)
}

func TestDrive_StuckAfterTwentyAttempts(t *testing.T) {
	w := newFlatWorld(t, 31)
	flat := w.Surface
	w.Surface = slopeSurface{grade: math.Pi / 2}
	p, v := boardedDriver(w, equator(10))
	v.TerrainHandling = 10

	d := NewDriveToCoordinates(p.ID, w, equator(12), WithoutEmbark())
	for i := 1; i <= stuckAttempts+1; i++ {
		require.Zero(t, d.DoTask(600), "call %d", i)
		require.False(t, d.Done(), "call %d", i)
	}
	assert.Equal(t, 600, d.DoTask(600))
	assert.True(t, d.Done())
	assert.Equal(t, units.StatusStuck, v.Status)
	assert.True(t, v.Location.Equal(equator(10)), "never moved")
	assert.True(t, v.HasDestination())

	// Another attempt starts by winching the vehicle free.
	assert.Equal(t, 5, driveProbability(p, w))
	resumed, ok := newDriveFromCatalog(p, w).(*Drive)
	require.True(t, ok)
	assert.Equal(t, "Winching Stuck Vehicle", resumed.SubPhase())
	assert.Equal(t, units.StatusWinching, v.Status)
	assert.Equal(t, p.ID, v.DriverID)

	w.Surface = flat
	resumed.DoTask(600)
	assert.Equal(t, "Normal Driving", resumed.SubPhase())
	assert.Equal(t, units.StatusMoving, v.Status)
	runDrive(t, resumed, 600, 1000, "")
	assert.Equal(t, units.Outside, p.Situation)
	assert.True(t, p.Location.Equal(equator(12)))
}

func TestDrive_SteepGroundSlowsVehicle(t *testing.T) {
	w := newFlatWorld(t, 32)
	p, v := boardedDriver(w, equator(10))
	d := NewDriveToCoordinates(p.ID, w, equator(12), WithoutEmbark())

	assert.InDelta(t, 30, d.speed(p, v, v.Location, coords.NewDirection(0)), 1e-9)

	w.Surface = slopeSurface{grade: 0.05}
	// Handling 2 scales the grade by 15/2.
	assert.InDelta(t, 30*math.Cos(0.375), d.speed(p, v, v.Location, coords.NewDirection(0)), 1e-9)

	w.Surface = slopeSurface{grade: -0.05}
	assert.InDelta(t, 30*math.Cos(0.375), d.speed(p, v, v.Location, coords.NewDirection(0)), 1e-9)

	w.Surface = slopeSurface{grade: 0.06}
	v.TerrainHandling = -2
	// Negative handling inverts to a modifier of 1/2, pushing the slope past vertical.
	assert.Zero(t, d.speed(p, v, v.Location, coords.NewDirection(0)))
}

func TestDrive_BreakdownSendsEveryoneToRepair(t *testing.T) {
	w := newFlatWorld(t, 33)
	p, v := boardedDriver(w, equator(10))
	passenger := &units.Person{Name: "Boris", ExperienceAptitude: 50}
	w.Units.AddPerson(passenger)
	v.AddPassenger(passenger.ID)
	passenger.EnterVehicle(v)
	// Far overdue maintenance makes a failure certain.
	v.DistanceSinceMaintenance = 400 * units.MaintenanceInterval

	d := NewDriveToCoordinates(p.ID, w, equator(20), WithoutEmbark())
	assert.Zero(t, d.DoTask(600))
	require.Equal(t, units.StatusBrokenDown, v.Status)
	require.NotNil(t, v.Failure)

	for _, id := range []units.PersonID{p.ID, passenger.ID} {
		assert.Equal(t, MechanicName, w.Manager(id).TaskName())
	}
	assert.Equal(t, 600, d.DoTask(600), "waits while broken down")

	for i := 0; i < 100 && v.HasUnfixedFailure(); i++ {
		w.Manager(p.ID).TakeAction(3600)
		w.Manager(passenger.ID).TakeAction(3600)
	}
	assert.False(t, v.HasUnfixedFailure())
	assert.Equal(t, units.StatusMoving, v.Status, "repaired vehicle resumes its trip")
	assert.Greater(t, p.Skills.Experience(units.SkillMechanics), 0.0)
}

func TestDrive_FailureBeforeDepartureCancelsTrip(t *testing.T) {
	w := newFlatWorld(t, 34)
	a := addSettlement(w, "A", equator(0), 20)
	b := addSettlement(w, "B", equator(0.5), 20)
	driver := addPerson(w, "Ada", a.ID)
	var idle []*units.Person
	for i := 0; i < 6; i++ {
		idle = append(idle, addPerson(w, "Idle", a.ID))
	}
	v := addRover(w, "Explorer 1", a.ID)

	w.Manager(driver.ID).AddSubTask(NewDriveToSettlement(driver.ID, w, b.ID))
	w.Manager(driver.ID).TakeAction(60)
	d, ok := w.Manager(driver.ID).CurrentTask().(*Drive)
	require.True(t, ok)
	require.Equal(t, "Prepare Vehicle", d.SubPhase())
	require.True(t, v.Reserved)

	// A parked vehicle takes the failure without changing status.
	v.Failure = units.NewMechanicalFailure("Cracked Axle", 2)
	d.DoTask(600)

	assert.True(t, d.Done())
	assert.Equal(t, units.StatusParked, v.Status)
	assert.False(t, v.Reserved)
	assert.Empty(t, v.Passengers)
	assert.True(t, a.HasVehicle(v.ID))
	for _, p := range append(idle, driver) {
		assert.Equal(t, units.InSettlement, p.Situation)
		assert.True(t, a.HasPerson(p.ID))
	}

	// The driver is free to repair it, after which it can be reserved again.
	assert.Equal(t, 50, mechanicProbability(driver, w))
	m := NewMechanic(driver.ID, w, v.ID)
	for i := 0; i < 10 && !m.Done(); i++ {
		m.DoTask(3600)
	}
	assert.False(t, v.HasUnfixedFailure())
	assert.True(t, v.Reservable())
}

func TestDrive_RepairedStuckVehicleCanBeWinched(t *testing.T) {
	w := newFlatWorld(t, 35)
	flat := w.Surface
	w.Surface = slopeSurface{grade: math.Pi / 2}
	p, v := boardedDriver(w, equator(10))
	v.TerrainHandling = 10

	d := NewDriveToCoordinates(p.ID, w, equator(11), WithoutEmbark())
	runDrive(t, d, 600, stuckAttempts+5, "")
	require.Equal(t, units.StatusStuck, v.Status)

	v.Breakdown(units.NewMechanicalFailure("Seized Winch", 2))
	assert.Zero(t, driveProbability(p, w), "no winching until repaired")

	w.Surface = flat
	m := NewMechanic(p.ID, w, v.ID)
	for i := 0; i < 10 && !m.Done(); i++ {
		m.DoTask(3600)
	}
	require.True(t, m.Done())
	assert.Equal(t, units.StatusStuck, v.Status)
	assert.Equal(t, 5, driveProbability(p, w))

	resumed, ok := newDriveFromCatalog(p, w).(*Drive)
	require.True(t, ok)
	runDrive(t, resumed, 600, 1000, "")
	assert.True(t, p.Location.Equal(equator(11)))
	assert.Equal(t, units.StatusParked, v.Status)
}

func TestDrive_ShortHopArrivesExactly(t *testing.T) {
	w := newFlatWorld(t, 36)
	start := coords.New(math.Pi/2, 0)
	dest := coords.New(math.Pi/2, 0.01)
	p, v := boardedDriver(w, start)

	d := NewDriveToCoordinates(p.ID, w, dest, WithoutEmbark(), WithVehicle(v.ID))
	runDrive(t, d, 600, 1000, "Disembarking")
	assert.Equal(t, dest, v.Location)
	assert.True(t, v.Location.Equal(dest))
}
