// Package task implements the per-person activity state machines and the
// manager that selects and runs them each pulse.
//
// A task consumes simulated seconds through DoTask and reports what it did
// not use, so a pulse can flow from a finishing task into the next one.
// Sub-tasks are pushed onto the owning person's Manager stack; the top-most
// live task is the one that runs.
package task

import "github.com/talgya/red-sands/internal/units"

// Task is a resumable activity.
type Task interface {
	// Name is the stable task name, e.g. "Relaxing".
	Name() string
	// Description is the human-readable summary of what is being done.
	Description() string
	// Phase and SubPhase name the current state machine step.
	Phase() string
	SubPhase() string
	// Done reports whether the task has finished.
	Done() bool
	// DoTask consumes up to seconds of simulated time and returns the
	// seconds left unused. On a done task it returns seconds unchanged.
	DoTask(seconds int) int
}

// Base carries the bookkeeping shared by every task.
type Base struct {
	name        string
	description string
	person      units.PersonID
	world       *World

	done              bool
	timeCompleted     int
	subPhaseCompleted int
}

func newBase(name string, person units.PersonID, w *World) Base {
	return Base{name: name, description: name, person: person, world: w}
}

// Name implements Task.
func (b *Base) Name() string { return b.name }

// Description implements Task.
func (b *Base) Description() string { return b.description }

// Done implements Task.
func (b *Base) Done() bool { return b.done }

// TimeCompleted returns the seconds the task has consumed so far.
func (b *Base) TimeCompleted() int { return b.timeCompleted }

// PersonID returns the person performing the task.
func (b *Base) PersonID() units.PersonID { return b.person }

// DoSubPhase accumulates seconds towards a step that needs required seconds
// of work. It reports true exactly when the step completes, together with
// the seconds supplied beyond what the step needed, and resets the
// accumulator. Otherwise it keeps accumulating and reports false, 0.
func (b *Base) DoSubPhase(seconds, required int) (bool, int) {
	if b.subPhaseCompleted+seconds >= required {
		left := b.subPhaseCompleted + seconds - required
		b.subPhaseCompleted = 0
		return true, left
	}
	b.subPhaseCompleted += seconds
	return false, 0
}

func (b *Base) personRef() *units.Person {
	return b.world.Units.Person(b.person)
}

func (b *Base) spend(seconds int) {
	b.timeCompleted += seconds
}

func (b *Base) end() {
	b.done = true
}

// Stack is the explicit sub-task stack of one person. The last element is
// the top.
type Stack struct {
	tasks []Task
}

// Push makes t the current task.
func (s *Stack) Push(t Task) {
	s.tasks = append(s.tasks, t)
}

// Prune pops finished tasks off the top so the next push lands on the
// nearest live parent.
func (s *Stack) Prune() {
	for len(s.tasks) > 0 && s.tasks[len(s.tasks)-1].Done() {
		s.tasks[len(s.tasks)-1] = nil
		s.tasks = s.tasks[:len(s.tasks)-1]
	}
}

// Top returns the top-most live task, or nil.
func (s *Stack) Top() Task {
	for i := len(s.tasks) - 1; i >= 0; i-- {
		if !s.tasks[i].Done() {
			return s.tasks[i]
		}
	}
	return nil
}

// Len returns the number of tasks on the stack, finished or not.
func (s *Stack) Len() int {
	return len(s.tasks)
}
