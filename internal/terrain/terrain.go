// Package terrain samples surface elevation and slope from a colour-encoded
// elevation grid laid over the Mars sphere.
package terrain

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/talgya/red-sands/internal/coords"
)

// DefaultRows is the number of latitude rows of the reference topography map.
const DefaultRows = 1440

// sampleUnits is how far ahead (in map units) slope is measured.
const sampleUnits = 1.5

// sampleKM is sampleUnits expressed as surface distance.
const sampleKM = sampleUnits * coords.KMPerMapUnit

// Surface answers elevation and slope queries for navigation.
type Surface interface {
	// Elevation returns the height at loc in km.
	Elevation(loc coords.Coordinates) float64
	// TerrainDifficulty returns the slope angle in radians when heading dir
	// from loc. Positive is uphill.
	TerrainDifficulty(loc coords.Coordinates, dir coords.Direction) float64
}

// Grid is a latitude-banded elevation map. Row r spans a band of colatitude
// and holds index[r] colour samples around the longitude circle; sum[r] is
// the offset of the row's first sample.
type Grid struct {
	rows  int
	index []int
	sum   []int
	data  []uint32
}

// NewGrid builds a grid of rows latitude bands, filling each sample from
// elevation(phi, theta) in km at the sample's centre.
func NewGrid(rows int, elevation func(phi, theta float64) float64) (*Grid, error) {
	if rows <= 0 {
		return nil, fmt.Errorf("terrain rows must be positive, got %d", rows)
	}
	g := &Grid{
		rows:  rows,
		index: make([]int, rows),
		sum:   make([]int, rows),
	}

	total := 0
	for r := 0; r < rows; r++ {
		phi := (float64(r) + 0.5) * math.Pi / float64(rows)
		cols := int(math.Round(2 * float64(rows) * math.Sin(phi)))
		if cols < 1 {
			cols = 1
		}
		g.index[r] = cols
		g.sum[r] = total
		total += cols
	}

	g.data = make([]uint32, total)
	for r := 0; r < rows; r++ {
		phi := (float64(r) + 0.5) * math.Pi / float64(rows)
		cols := g.index[r]
		for c := 0; c < cols; c++ {
			theta := (float64(c) + 0.5) * 2 * math.Pi / float64(cols)
			g.data[g.sum[r]+c] = EncodeElevation(elevation(phi, theta))
		}
	}
	return g, nil
}

// Uniform returns a flat grid where every sample has the same elevation.
func Uniform(rows int, elevationKM float64) (*Grid, error) {
	return NewGrid(rows, func(float64, float64) float64 { return elevationKM })
}

// Rows returns the number of latitude bands.
func (g *Grid) Rows() int { return g.rows }

// Samples returns the total number of colour samples.
func (g *Grid) Samples() int { return len(g.data) }

// Elevation implements Surface.
func (g *Grid) Elevation(loc coords.Coordinates) float64 {
	return DecodeElevation(g.rgb(loc))
}

// TerrainDifficulty implements Surface.
func (g *Grid) TerrainDifficulty(loc coords.Coordinates, dir coords.Direction) float64 {
	ahead := loc.ConvertRectToSpherical(dir.Sin()*sampleUnits, -dir.Cos()*sampleUnits)
	rise := g.Elevation(ahead) - g.Elevation(loc)
	return math.Atan(rise / sampleKM)
}

func (g *Grid) rgb(loc coords.Coordinates) uint32 {
	row := int(loc.Phi() / math.Pi * float64(g.rows))
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	cols := g.index[row]
	col := int(coords.CleanAngle(loc.Theta()) / (2 * math.Pi) * float64(cols))
	if col >= cols {
		col = cols - 1
	}
	return g.data[g.sum[row]+col]
}

// Colour decoding constants of the topography palette. Hues between the two
// bounds are read linearly as depth; outside them height is read from
// saturation, with white at the top.
const (
	hueLow    = 0.033
	hueHigh   = 0.792
	hueSlope  = -13801.99
	hueOffset = 2500.0
	satSlope  = -21527.78
	satOffset = 21875.0

	// Encoding keeps clear of the hue band edges so 8-bit rounding cannot
	// move a sample into the other branch.
	hueBranchTopM    = 2000.0
	hueBranchBottomM = -8000.0
)

// DecodeElevation converts a packed 0xRRGGBB sample into km.
func DecodeElevation(rgb uint32) float64 {
	c := colorful.Color{
		R: float64((rgb>>16)&0xff) / 255,
		G: float64((rgb>>8)&0xff) / 255,
		B: float64(rgb&0xff) / 255,
	}
	h, s, _ := c.Hsv()
	hue := h / 360

	var metres float64
	if hue > hueLow && hue < hueHigh {
		metres = hueSlope*hue + hueOffset
	} else {
		metres = satSlope*s + satOffset
	}
	return metres / 1000
}

// EncodeElevation converts km into the palette colour that decodes to it,
// clamped into the palette's range.
func EncodeElevation(km float64) uint32 {
	metres := km * 1000
	if metres < hueBranchBottomM {
		metres = hueBranchBottomM
	}
	if metres > satOffset {
		metres = satOffset
	}

	var c colorful.Color
	if metres <= hueBranchTopM {
		hue := (metres - hueOffset) / hueSlope
		c = colorful.Hsv(hue*360, 1, 1)
	} else {
		sat := (metres - satOffset) / satSlope
		c = colorful.Hsv(0, sat, 1)
	}
	r, g, b := c.Clamped().RGB255()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}
