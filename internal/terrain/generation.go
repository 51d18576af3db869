package terrain

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/red-sands/internal/entropy"
)

// GenConfig holds topography generation parameters.
type GenConfig struct {
	Rows        int     // Latitude bands (1440 for the reference resolution)
	Seed        int64   // Noise seed (0 = random)
	Octaves     int     // Noise layers
	Frequency   float64 // Base frequency on the unit sphere
	Persistence float64 // Amplitude falloff per octave
	MinKM       float64 // Lowest elevation produced
	MaxKM       float64 // Highest elevation produced
}

// DefaultGenConfig returns a Mars-like relief at a moderate resolution.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Rows:        720,
		Seed:        0,
		Octaves:     5,
		Frequency:   2.5,
		Persistence: 0.5,
		MinKM:       -7.5,
		MaxKM:       12,
	}
}

// SmallTestConfig returns a coarse grid for fast tests.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Rows:        90,
		Seed:        42,
		Octaves:     3,
		Frequency:   2,
		Persistence: 0.5,
		MinKM:       -4,
		MaxKM:       6,
	}
}

// Generate synthesises a topography grid from layered simplex noise sampled
// on the unit sphere, so the map has no seam at the date line.
func Generate(cfg GenConfig) (*Grid, error) {
	return NewGrid(cfg.Rows, newRelief(cfg).elevation)
}

// relief turns a point on the sphere into an elevation. Octave weights are
// normalised to sum to one so the result stays within [MinKM, MaxKM].
type relief struct {
	noise   opensimplex.Noise
	freqs   []float64
	weights []float64
	minKM   float64
	spanKM  float64
}

func newRelief(cfg GenConfig) *relief {
	seed := cfg.Seed
	if seed == 0 {
		seed = entropy.CryptoSeed()
	}
	r := &relief{
		noise:  opensimplex.NewNormalized(seed),
		minKM:  cfg.MinKM,
		spanKM: cfg.MaxKM - cfg.MinKM,
	}

	freq, amp, sum := cfg.Frequency, 1.0, 0.0
	for i := 0; i < cfg.Octaves; i++ {
		r.freqs = append(r.freqs, freq)
		r.weights = append(r.weights, amp)
		sum += amp
		freq *= 2
		amp *= cfg.Persistence
	}
	for i := range r.weights {
		r.weights[i] /= sum
	}
	return r
}

func (r *relief) elevation(phi, theta float64) float64 {
	if len(r.freqs) == 0 {
		return r.minKM + r.spanKM/2
	}
	sinPhi, cosPhi := math.Sincos(phi)
	sinTheta, cosTheta := math.Sincos(theta)
	x, y, z := sinPhi*cosTheta, sinPhi*sinTheta, cosPhi

	n := 0.0
	for i, f := range r.freqs {
		n += r.weights[i] * r.noise.Eval3(x*f, y*f, z*f)
	}
	return r.minKM + n*r.spanKM
}
