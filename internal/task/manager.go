package task

import (
	"log/slog"

	"github.com/talgya/red-sands/internal/units"
)

// maxSelections bounds how many new tasks one pulse may start, so tasks
// that finish without using time cannot spin forever.
const maxSelections = 8

// Manager owns one person's task stack.
type Manager struct {
	person units.PersonID
	world  *World
	stack  Stack
}

// TakeAction spends a pulse of seconds on the person's tasks. When the
// current task finishes early the remainder flows into the next one, which
// is selected first if the stack is empty. Done tasks are never run.
func (m *Manager) TakeAction(seconds int) {
	selections := 0
	for seconds > 0 {
		m.stack.Prune()
		if m.stack.Len() == 0 {
			if selections == maxSelections {
				return
			}
			m.stack.Push(m.newTask())
			selections++
		}

		current := m.stack.Top()
		if current == nil {
			return
		}
		remaining := current.DoTask(seconds)
		if remaining > seconds {
			remaining = seconds
		}
		if remaining == seconds && !current.Done() && m.stack.Top() == current {
			// Waiting on something outside its control.
			return
		}
		seconds = remaining
	}
}

// AddSubTask pushes t above the current task.
func (m *Manager) AddSubTask(t Task) {
	m.stack.Push(t)
}

// CurrentTask returns the top-most live task, or nil.
func (m *Manager) CurrentTask() Task {
	return m.stack.Top()
}

// Depth returns the number of tasks on the stack.
func (m *Manager) Depth() int {
	return m.stack.Len()
}

// TaskName returns the current task's name, or "" when idle.
func (m *Manager) TaskName() string {
	if t := m.stack.Top(); t != nil {
		return t.Name()
	}
	return ""
}

// TaskDescription returns the current task's description, or "" when idle.
func (m *Manager) TaskDescription() string {
	if t := m.stack.Top(); t != nil {
		return t.Description()
	}
	return ""
}

// TaskPhase returns the current task's phase, or "" when idle.
func (m *Manager) TaskPhase() string {
	if t := m.stack.Top(); t != nil {
		return t.Phase()
	}
	return ""
}

// TaskSubPhase returns the current task's sub-phase, or "" when idle.
func (m *Manager) TaskSubPhase() string {
	if t := m.stack.Top(); t != nil {
		return t.SubPhase()
	}
	return ""
}

// newTask picks a task by weighted random choice over the catalog. A person
// with nothing applicable relaxes.
func (m *Manager) newTask() Task {
	p := m.world.Units.Person(m.person)
	if p == nil {
		return NewRelax(m.person, m.world)
	}

	type candidate struct {
		entry  Entry
		weight int
	}
	candidates := make([]candidate, 0, len(m.world.Catalog))
	total := 0
	for _, e := range m.world.Catalog {
		w := e.Probability(p, m.world)
		if w > 0 {
			candidates = append(candidates, candidate{e, w})
			total += w
		}
	}
	if total == 0 {
		return NewRelax(m.person, m.world)
	}

	r := m.world.Rand.RandInt(total)
	cumulative := 0
	for _, c := range candidates {
		cumulative += c.weight
		if cumulative >= r {
			slog.Debug("task selected", "person", p.Name, "task", c.entry.Name)
			return c.entry.New(p, m.world)
		}
	}
	// Unreachable: r never exceeds total.
	return candidates[len(candidates)-1].entry.New(p, m.world)
}
