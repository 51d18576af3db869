package units

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/talgya/red-sands/internal/coords"
)

// Property: garage capacity is never exceeded and oversize vehicles are never
// admitted, whatever sequence of arrivals and departures occurs.
func TestProperty_GarageCapacity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxSize := rapid.IntRange(1, 4).Draw(rt, "maxSize")
		g := NewGarage(maxSize, rapid.IntRange(maxSize, 12).Draw(rt, "capacity"))

		vehicles := make([]*Vehicle, 8)
		for i := range vehicles {
			vehicles[i] = &Vehicle{
				ID:   VehicleID(i + 1),
				Name: "rover",
				Size: rapid.IntRange(1, 5).Draw(rt, "size"),
			}
		}

		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			v := vehicles[rapid.IntRange(0, len(vehicles)-1).Draw(rt, "pick")]
			if rapid.Bool().Draw(rt, "add") {
				wasInside := g.Contains(v.ID)
				before := g.UsedCapacity()
				err := g.AddVehicle(v)
				switch {
				case wasInside:
					if err != nil || g.UsedCapacity() != before {
						rt.Fatalf("re-adding vehicle %d changed the garage", v.ID)
					}
				case v.Size > g.MaxVehicleSize:
					if !errors.Is(err, ErrVehicleTooLarge) {
						rt.Fatalf("oversize vehicle admitted: %v", err)
					}
				case before+v.Size > g.MaxSizeCapacity:
					if !errors.Is(err, ErrGarageFull) {
						rt.Fatalf("over-capacity vehicle admitted: %v", err)
					}
				default:
					if err != nil {
						rt.Fatalf("unexpected error %v", err)
					}
				}
			} else {
				g.RemoveVehicle(v.ID)
				if g.Contains(v.ID) {
					rt.Fatalf("vehicle %d still inside after removal", v.ID)
				}
			}

			if g.UsedCapacity() > g.MaxSizeCapacity {
				rt.Fatalf("used %d exceeds capacity %d", g.UsedCapacity(), g.MaxSizeCapacity)
			}
			for _, slot := range g.Vehicles {
				if slot.Size > g.MaxVehicleSize {
					rt.Fatalf("slot size %d exceeds max %d", slot.Size, g.MaxVehicleSize)
				}
			}
		}
	})
}

func TestGarage_Errors(t *testing.T) {
	g := NewGarage(2, 3)
	big := &Vehicle{ID: 1, Name: "Cargo", Size: 3}
	a := &Vehicle{ID: 2, Name: "A", Size: 2}
	b := &Vehicle{ID: 3, Name: "B", Size: 2}

	assert.ErrorIs(t, g.AddVehicle(big), ErrVehicleTooLarge)
	require.NoError(t, g.AddVehicle(a))
	require.NoError(t, g.AddVehicle(a))
	assert.Equal(t, 2, g.UsedCapacity())
	assert.ErrorIs(t, g.AddVehicle(b), ErrGarageFull)

	assert.True(t, g.RemoveVehicle(a.ID))
	assert.False(t, g.RemoveVehicle(a.ID))
	require.NoError(t, g.AddVehicle(b))
	assert.True(t, g.Contains(b.ID))
}

func TestSettlement_Roster(t *testing.T) {
	s := &Settlement{ID: 1, Name: "Gale Base", Garage: NewGarage(2, 4), Quarters: LivingQuarters{Capacity: 3}}

	s.AddPerson(10)
	s.AddPerson(11)
	s.AddPerson(10)
	assert.Equal(t, 2, s.Population())
	assert.Equal(t, 1, s.AvailablePopulation())

	assert.True(t, s.PersonLeave(10))
	assert.False(t, s.PersonLeave(10))
	assert.Equal(t, []PersonID{11}, s.People)

	v := &Vehicle{ID: 5, Name: "Explorer", Size: 1}
	s.AddVehicle(v.ID)
	require.NoError(t, s.Garage.AddVehicle(v))
	assert.True(t, s.InGarage(v.ID))

	assert.True(t, s.VehicleLeave(v.ID))
	assert.False(t, s.HasVehicle(v.ID))
	assert.False(t, s.InGarage(v.ID))
}

func TestGreenhouse_FullCycle(t *testing.T) {
	g := NewGreenhouse(100)
	assert.True(t, g.NeedsWork())

	assert.Zero(t, g.AddWork(PlantingWork/2))
	assert.Equal(t, GreenhousePlanting, g.Phase)
	assert.Zero(t, g.AddWork(PlantingWork/2))
	assert.Equal(t, GreenhouseGrowing, g.Phase)

	g.AddWork(TendingTarget / 2)
	assert.True(t, g.NeedsWork())
	g.AddWork(TendingTarget)
	assert.False(t, g.NeedsWork())
	assert.Equal(t, TendingTarget, g.Tending)

	g.TimePasses(GrowingPeriod - 1)
	assert.Equal(t, GreenhouseGrowing, g.Phase)
	g.TimePasses(1)
	assert.Equal(t, GreenhouseHarvesting, g.Phase)

	assert.Zero(t, g.AddWork(HarvestWork-1))
	harvest := g.AddWork(1)
	assert.InDelta(t, 100, harvest, 1e-9)
	assert.Equal(t, GreenhousePlanting, g.Phase)
	assert.Equal(t, 1, g.Cycles)
}

func TestGreenhouse_UntendedYieldIsHalved(t *testing.T) {
	g := NewGreenhouse(80)
	g.AddWork(PlantingWork)
	g.TimePasses(GrowingPeriod)
	assert.InDelta(t, 40, g.AddWork(HarvestWork), 1e-9)
}

func TestSettlement_TendGreenhouseStoresHarvest(t *testing.T) {
	s := &Settlement{Greenhouse: NewGreenhouse(60)}
	s.TendGreenhouse(PlantingWork)
	s.TimePasses(GrowingPeriod)
	s.TendGreenhouse(HarvestWork)
	assert.InDelta(t, 30, s.FoodStock, 1e-9)
}

func TestSettlement_FoodConsumption(t *testing.T) {
	s := &Settlement{People: []PersonID{1, 2}, FoodStock: 10}
	s.TimePasses(SolSeconds)
	assert.InDelta(t, 10-2*FoodPerPersonSol, s.FoodStock, 1e-9)

	s.TimePasses(100 * SolSeconds)
	assert.Zero(t, s.FoodStock)
}

func TestSettlement_String(t *testing.T) {
	s := &Settlement{Name: "Jezero Hab", Location: coords.New(math.Pi/2, 0), People: []PersonID{1}}
	assert.Equal(t, "Jezero Hab (1 people, 0 vehicles)", s.String())
}
