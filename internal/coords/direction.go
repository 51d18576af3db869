package coords

import "math"

// Direction is a heading in radians, clockwise from north, with cached trig
// values.
type Direction struct {
	radians float64
	sin     float64
	cos     float64
}

// NewDirection returns the heading for an angle, normalised into [0, 2π).
func NewDirection(radians float64) Direction {
	r := CleanAngle(radians)
	d := Direction{radians: r}
	d.sin, d.cos = math.Sincos(r)
	return d
}

// Radians returns the heading in [0, 2π).
func (d Direction) Radians() float64 { return d.radians }

// Degrees returns the heading in degrees.
func (d Direction) Degrees() float64 { return d.radians * 180 / math.Pi }

// Sin returns the cached sine of the heading.
func (d Direction) Sin() float64 { return d.sin }

// Cos returns the cached cosine of the heading.
func (d Direction) Cos() float64 { return d.cos }

// Add returns the heading turned clockwise by radians.
func (d Direction) Add(radians float64) Direction {
	return NewDirection(d.radians + radians)
}

// Reverse returns the opposite heading.
func (d Direction) Reverse() Direction {
	return d.Add(math.Pi)
}
