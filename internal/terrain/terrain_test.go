package terrain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/talgya/red-sands/internal/coords"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		km := rapid.Float64Range(-8, 21.8).Draw(rt, "km")
		got := DecodeElevation(EncodeElevation(km))
		if math.Abs(got-km) > 0.1 {
			rt.Fatalf("decode(encode(%v)) = %v", km, got)
		}
	})
}

func TestDecodeElevation_PaletteBranches(t *testing.T) {
	// Pure white has no saturation: the top of the palette.
	assert.InDelta(t, 21.875, DecodeElevation(0xffffff), 1e-9)
	// Pure red sits below the hue band and reads as saturation.
	assert.InDelta(t, (21875-21527.78)/1000, DecodeElevation(0xff0000), 1e-9)
	// Pure blue (hue 2/3) sits inside the hue band.
	assert.InDelta(t, (-13801.99*2.0/3.0+2500)/1000, DecodeElevation(0x0000ff), 1e-6)
}

func TestEncodeElevation_Clamps(t *testing.T) {
	assert.InDelta(t, -8, DecodeElevation(EncodeElevation(-30)), 0.1)
	assert.InDelta(t, 21.875, DecodeElevation(EncodeElevation(40)), 0.1)
}

func TestNewGrid_Layout(t *testing.T) {
	g, err := Uniform(90, 1)
	require.NoError(t, err)

	assert.Equal(t, 90, g.Rows())
	// Equatorial rows carry twice as many samples as there are rows.
	assert.Equal(t, 180, g.index[45])
	assert.Less(t, g.index[0], g.index[45])
	for r := 1; r < g.rows; r++ {
		assert.Equal(t, g.sum[r-1]+g.index[r-1], g.sum[r])
	}
	assert.Equal(t, g.sum[g.rows-1]+g.index[g.rows-1], g.Samples())
}

func TestNewGrid_RejectsNoRows(t *testing.T) {
	_, err := Uniform(0, 1)
	assert.Error(t, err)
}

func TestUniform_FlatEverywhere(t *testing.T) {
	g, err := Uniform(60, 2)
	require.NoError(t, err)

	rapid.Check(t, func(rt *rapid.T) {
		loc := coords.New(
			rapid.Float64Range(0, math.Pi).Draw(rt, "phi"),
			rapid.Float64Range(0, 2*math.Pi).Draw(rt, "theta"),
		)
		dir := coords.NewDirection(rapid.Float64Range(0, 2*math.Pi).Draw(rt, "dir"))
		if d := g.TerrainDifficulty(loc, dir); d != 0 {
			rt.Fatalf("difficulty %v on a flat grid", d)
		}
		if e := g.Elevation(loc); math.Abs(e-2) > 0.1 {
			rt.Fatalf("elevation %v, want 2", e)
		}
	})
}

func TestTerrainDifficulty_Step(t *testing.T) {
	g, err := NewGrid(DefaultRows, func(_, theta float64) float64 {
		if theta >= 1 {
			return 3
		}
		return 0
	})
	require.NoError(t, err)

	rise := DecodeElevation(EncodeElevation(3)) - DecodeElevation(EncodeElevation(0))
	want := math.Atan(rise / sampleKM)

	uphill := g.TerrainDifficulty(coords.New(math.Pi/2, 0.998), coords.NewDirection(math.Pi/2))
	assert.InDelta(t, want, uphill, 1e-9)
	assert.Greater(t, uphill, 0.2)

	downhill := g.TerrainDifficulty(coords.New(math.Pi/2, 1.002), coords.NewDirection(3*math.Pi/2))
	assert.InDelta(t, -want, downhill, 1e-9)
}

func TestGenerate_DeterministicAndBounded(t *testing.T) {
	cfg := SmallTestConfig()
	a, err := Generate(cfg)
	require.NoError(t, err)
	b, err := Generate(cfg)
	require.NoError(t, err)

	assert.Equal(t, a.data, b.data)

	varied := false
	first := DecodeElevation(a.data[0])
	for _, rgb := range a.data {
		e := DecodeElevation(rgb)
		assert.GreaterOrEqual(t, e, cfg.MinKM-0.1)
		assert.LessOrEqual(t, e, cfg.MaxKM+0.1)
		if math.Abs(e-first) > 0.5 {
			varied = true
		}
	}
	assert.True(t, varied, "generated relief should not be flat")
}

func TestGenerate_FlatWithoutOctaves(t *testing.T) {
	cfg := SmallTestConfig()
	cfg.Octaves = 0
	g, err := Generate(cfg)
	require.NoError(t, err)
	mid := DecodeElevation(EncodeElevation((cfg.MinKM + cfg.MaxKM) / 2))
	assert.Equal(t, mid, g.Elevation(coords.New(math.Pi/2, 0)))
	assert.Equal(t, mid, g.Elevation(coords.New(1, 4)))
}

