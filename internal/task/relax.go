package task

import "github.com/talgya/red-sands/internal/units"

// RelaxName is the name of the idle task.
const RelaxName = "Relaxing"

// Relax passes a random stretch of time doing nothing in particular. It is
// also what a person falls back to when nothing else applies.
type Relax struct {
	Base
	duration int
}

// NewRelax creates a relax task lasting 10 to 60 minutes.
func NewRelax(person units.PersonID, w *World) *Relax {
	r := &Relax{
		Base:     newBase(RelaxName, person, w),
		duration: w.Rand.RandIntRange(10*60, 60*60),
	}
	return r
}

func relaxProbability(*units.Person, *World) int {
	return 10
}

// Phase implements Task.
func (r *Relax) Phase() string { return RelaxName }

// SubPhase implements Task.
func (r *Relax) SubPhase() string { return "" }

// Duration returns the total seconds the task lasts.
func (r *Relax) Duration() int { return r.duration }

// DoTask implements Task.
func (r *Relax) DoTask(seconds int) int {
	if r.done || seconds <= 0 {
		return seconds
	}
	used := r.duration - r.timeCompleted
	if used > seconds {
		used = seconds
	}
	r.spend(used)
	if r.timeCompleted >= r.duration {
		r.end()
	}
	return seconds - used
}
