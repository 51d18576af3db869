// Package engine provides the master clock and the simulation it drives.
// Each clock tick is one pulse of simulated seconds applied to the colony.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/talgya/red-sands/internal/units"
)

// Clock defaults.
const (
	DefaultPulseSeconds = 600 // 10 sim-minutes per pulse
	DefaultInterval     = time.Second
	MaxSpeed            = 1000.0
)

// Engine is the master clock. Pulses are applied strictly one after another
// from the goroutine running Run.
type Engine struct {
	Tick         uint64        // Pulses applied so far (monotonic)
	PulseSeconds int           // Simulated seconds per pulse
	Interval     time.Duration // Wall time between pulses at speed 1

	// Callbacks, set before Run.
	OnPulse func(tick uint64, seconds int) // Every pulse
	OnSol   func(tick uint64, sol int)     // When a sol boundary is crossed

	mu      sync.Mutex
	speed   float64
	running bool
	stop    chan struct{}
}

// NewEngine creates a master clock with default settings.
func NewEngine() *Engine {
	return &Engine{
		PulseSeconds: DefaultPulseSeconds,
		Interval:     DefaultInterval,
		speed:        1.0,
	}
}

// Speed returns the speed multiplier. 0 means paused.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier, clamped to [0, MaxSpeed].
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = math.Max(0, math.Min(MaxSpeed, speed))
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Run applies pulses until ctx is cancelled or Stop is called. It never
// stops in the middle of a pulse.
func (e *Engine) Run(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stop = make(chan struct{})
	stop := e.stop
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	slog.Info("master clock started", "tick", e.Tick, "pulse_seconds", e.PulseSeconds, "speed", e.Speed())

	for {
		select {
		case <-ctx.Done():
			slog.Info("master clock stopped", "tick", e.Tick, "reason", ctx.Err())
			return
		case <-stop:
			slog.Info("master clock stopped", "tick", e.Tick)
			return
		default:
		}

		speed := e.Speed()
		if speed <= 0 {
			// Paused.
			e.wait(ctx, stop, 100*time.Millisecond)
			continue
		}

		start := time.Now()
		e.Step()

		target := time.Duration(float64(e.Interval) / speed)
		if elapsed := time.Since(start); elapsed < target {
			e.wait(ctx, stop, target-elapsed)
		}
	}
}

func (e *Engine) wait(ctx context.Context, stop <-chan struct{}, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-stop:
	case <-t.C:
	}
}

// Stop asks Run to return after the current pulse.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running && e.stop != nil {
		select {
		case <-e.stop:
		default:
			close(e.stop)
		}
	}
}

// Step applies one pulse and fires OnSol when it crosses into a new sol.
func (e *Engine) Step() {
	before := SolOf(e.Tick, e.PulseSeconds)
	e.Tick++

	if e.OnPulse != nil {
		e.OnPulse(e.Tick, e.PulseSeconds)
	}

	if after := SolOf(e.Tick, e.PulseSeconds); after > before && e.OnSol != nil {
		e.OnSol(e.Tick, after)
	}
}

// Elapsed returns the simulated seconds after tick pulses.
func Elapsed(tick uint64, pulseSeconds int) float64 {
	return float64(tick) * float64(pulseSeconds)
}

// SolOf returns the zero-based sol the clock is in after tick pulses.
func SolOf(tick uint64, pulseSeconds int) int {
	return int(Elapsed(tick, pulseSeconds) / units.SolSeconds)
}

// SimTime renders the mission clock after tick pulses, e.g. "Sol 3, 14:05".
// Hours and minutes are Earth units counted from the start of the sol.
func SimTime(tick uint64, pulseSeconds int) string {
	elapsed := Elapsed(tick, pulseSeconds)
	sol := int(elapsed / units.SolSeconds)
	into := int(elapsed - float64(sol)*units.SolSeconds)
	return fmt.Sprintf("Sol %d, %d:%02d", sol+1, into/3600, into%3600/60)
}
