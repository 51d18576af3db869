package task

import (
	"fmt"
	"log/slog"

	"github.com/talgya/red-sands/internal/units"
)

// TendGreenhouseName is the name of the farming task.
const TendGreenhouseName = "Tending Greenhouse"

// TendGreenhouse works the settlement greenhouse for a while: planting,
// tending the growing crop or harvesting, whichever the greenhouse needs.
type TendGreenhouse struct {
	Base
	settlement units.SettlementID
	duration   int
	phase      string
}

// NewTendGreenhouse creates a farming shift of one to three hours at the
// person's settlement.
func NewTendGreenhouse(person units.PersonID, w *World) *TendGreenhouse {
	t := &TendGreenhouse{
		Base:     newBase(TendGreenhouseName, person, w),
		duration: w.Rand.RandIntRange(3600, 3*3600),
	}
	if p := t.personRef(); p != nil && p.Situation == units.InSettlement {
		t.settlement = p.SettlementID
		if s := w.Units.Settlement(t.settlement); s != nil {
			t.description = fmt.Sprintf("Tend greenhouse at %s.", s.Name)
		}
	}
	return t
}

func tendGreenhouseProbability(p *units.Person, w *World) int {
	if p.Situation != units.InSettlement {
		return 0
	}
	s := w.Units.Settlement(p.SettlementID)
	if s == nil || s.Greenhouse == nil || !s.Greenhouse.NeedsWork() {
		return 0
	}
	return 25
}

// Phase implements Task. It follows the greenhouse's crop phase.
func (t *TendGreenhouse) Phase() string {
	if t.phase == "" {
		return "Tending"
	}
	return t.phase
}

// SubPhase implements Task.
func (t *TendGreenhouse) SubPhase() string { return "" }

// DoTask implements Task.
func (t *TendGreenhouse) DoTask(seconds int) int {
	if t.done || seconds <= 0 {
		return seconds
	}

	p := t.personRef()
	s := t.world.Units.Settlement(t.settlement)
	if p == nil || s == nil || s.Greenhouse == nil || p.Situation != units.InSettlement || p.SettlementID != s.ID {
		t.end()
		return seconds
	}
	if !s.Greenhouse.NeedsWork() {
		t.end()
		return seconds
	}

	t.phase = s.Greenhouse.Phase.String()

	used := t.duration - t.timeCompleted
	if used > seconds {
		used = seconds
	}

	factor := 1 + 0.25*float64(p.SkillLevel(units.SkillGreenhouseFarming))
	if harvest := s.TendGreenhouse(float64(used) * factor); harvest > 0 {
		slog.Debug("greenhouse harvested", "settlement", s.Name, "kg", harvest)
		t.world.Emit(CategoryGreenhouse, "%s harvested %.1f kg of crops at %s.", p.Name, harvest, s.Name)
	}
	p.AddExperience(units.SkillGreenhouseFarming, float64(used)/3600)

	t.spend(used)
	if t.timeCompleted >= t.duration {
		t.end()
	}
	return seconds - used
}
