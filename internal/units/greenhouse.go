package units

import "math"

// GreenhousePhase is a stage of the crop cycle.
type GreenhousePhase uint8

const (
	GreenhouseInactive GreenhousePhase = iota
	GreenhousePlanting
	GreenhouseGrowing
	GreenhouseHarvesting
)

var greenhousePhaseNames = [...]string{
	GreenhouseInactive:   "Inactive",
	GreenhousePlanting:   "Planting",
	GreenhouseGrowing:    "Growing",
	GreenhouseHarvesting: "Harvesting",
}

func (p GreenhousePhase) String() string {
	if int(p) < len(greenhousePhaseNames) {
		return greenhousePhaseNames[p]
	}
	return "Unknown"
}

// MarshalText renders the phase by name in JSON.
func (p GreenhousePhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Crop cycle durations in seconds.
const (
	PlantingWork  = 4 * 3600.0
	HarvestWork   = 4 * 3600.0
	TendingTarget = 8 * 3600.0
	GrowingPeriod = 5 * SolSeconds
)

// Greenhouse grows food through a planting, growing and harvesting cycle.
// Planting and harvesting need work; growing needs time, and tending during
// growth raises the yield.
type Greenhouse struct {
	Phase      GreenhousePhase `json:"phase"`
	MaxHarvest float64         `json:"max_harvest"` // kg per cycle

	Work        float64 `json:"work"`         // seconds in the current phase
	GrowingTime float64 `json:"growing_time"` // seconds since planting ended
	Tending     float64 `json:"tending"`      // seconds of tending this cycle

	TotalHarvest float64 `json:"total_harvest"`
	Cycles       int     `json:"cycles"`
}

// NewGreenhouse creates an idle greenhouse.
func NewGreenhouse(maxHarvest float64) *Greenhouse {
	return &Greenhouse{Phase: GreenhouseInactive, MaxHarvest: maxHarvest}
}

// NeedsWork reports whether a farmer has something useful to do.
func (g *Greenhouse) NeedsWork() bool {
	switch g.Phase {
	case GreenhouseGrowing:
		return g.Tending < TendingTarget
	default:
		return true
	}
}

// AddWork applies seconds of farming and returns any harvest in kg.
func (g *Greenhouse) AddWork(seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	switch g.Phase {
	case GreenhouseInactive:
		g.Phase = GreenhousePlanting
		g.Work = 0
		fallthrough
	case GreenhousePlanting:
		g.Work += seconds
		if g.Work >= PlantingWork {
			g.Phase = GreenhouseGrowing
			g.Work = 0
			g.GrowingTime = 0
			g.Tending = 0
		}
	case GreenhouseGrowing:
		g.Tending = math.Min(TendingTarget, g.Tending+seconds)
	case GreenhouseHarvesting:
		g.Work += seconds
		if g.Work >= HarvestWork {
			harvest := g.Yield()
			g.TotalHarvest += harvest
			g.Cycles++
			g.Phase = GreenhousePlanting
			g.Work = 0
			g.Tending = 0
			return harvest
		}
	}
	return 0
}

// Yield returns the harvest the current cycle would produce.
func (g *Greenhouse) Yield() float64 {
	return g.MaxHarvest * (0.5 + 0.5*math.Min(1, g.Tending/TendingTarget))
}

// TimePasses advances crop growth.
func (g *Greenhouse) TimePasses(seconds float64) {
	if g.Phase != GreenhouseGrowing {
		return
	}
	g.GrowingTime += seconds
	if g.GrowingTime >= GrowingPeriod {
		g.Phase = GreenhouseHarvesting
		g.Work = 0
	}
}
