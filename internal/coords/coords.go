// Package coords provides spherical Mars surface positions and the
// flat-projection geometry used for navigation and map sampling.
//
// Phi is the colatitude (0 at the north pole, π at the south pole) and theta
// the longitude (0..2π, increasing eastward).
package coords

import (
	"fmt"
	"math"
)

const (
	// MarsRadiusKM is the approximate radius of Mars used for distances.
	MarsRadiusKM = 3393.0

	// MapRho is the radius of the reference map projection in map units.
	MapRho = 1440.0 / math.Pi

	// HalfMap is half the width of the reference map projection in map units.
	HalfMap = 720

	// KMPerMapUnit converts kilometres travelled on the surface into map units
	// for ConvertRectToSpherical.
	KMPerMapUnit = 7.4

	halfPi = math.Pi / 2
	twoPi  = math.Pi * 2
)

// Coordinates is a location on the surface of Mars with cached trig values.
// The zero value is not a valid location; use New.
type Coordinates struct {
	phi   float64
	theta float64

	sinPhi   float64
	cosPhi   float64
	sinTheta float64
	cosTheta float64
}

// New returns the location at colatitude phi and longitude theta (radians).
func New(phi, theta float64) Coordinates {
	c := Coordinates{phi: phi, theta: theta}
	c.sinPhi, c.cosPhi = math.Sincos(phi)
	c.sinTheta, c.cosTheta = math.Sincos(theta)
	return c
}

// Phi returns the colatitude in radians.
func (c Coordinates) Phi() float64 { return c.phi }

// Theta returns the longitude in radians.
func (c Coordinates) Theta() float64 { return c.theta }

// SinPhi returns the cached sine of phi.
func (c Coordinates) SinPhi() float64 { return c.sinPhi }

// CosPhi returns the cached cosine of phi.
func (c Coordinates) CosPhi() float64 { return c.cosPhi }

// SinTheta returns the cached sine of theta.
func (c Coordinates) SinTheta() float64 { return c.sinTheta }

// CosTheta returns the cached cosine of theta.
func (c Coordinates) CosTheta() float64 { return c.cosTheta }

// SetPhi changes the colatitude and refreshes the cached values.
func (c *Coordinates) SetPhi(phi float64) {
	c.phi = phi
	c.sinPhi, c.cosPhi = math.Sincos(phi)
}

// SetTheta changes the longitude and refreshes the cached values.
func (c *Coordinates) SetTheta(theta float64) {
	c.theta = theta
	c.sinTheta, c.cosTheta = math.Sincos(theta)
}

// SetCoords copies another location into c.
func (c *Coordinates) SetCoords(other Coordinates) {
	c.SetPhi(other.phi)
	c.SetTheta(other.theta)
}

// Equal reports exact equality of phi and theta.
func (c Coordinates) Equal(other Coordinates) bool {
	return c.phi == other.phi && c.theta == other.theta
}

// AngleTo returns the arc angle to another location in radians.
//
// This is the flat-projection approximation the rest of the navigation model
// is calibrated against, not a great-circle formula.
func (c Coordinates) AngleTo(other Coordinates) float64 {
	diffPhi := (c.phi - other.phi) * MapRho

	diffTheta := math.Abs(c.theta - other.theta)
	if diffTheta > math.Pi {
		diffTheta = twoPi - diffTheta
	}
	avgRadius := MapRho * (c.sinPhi + other.sinPhi) / 2
	diffX := avgRadius * diffTheta

	return math.Sqrt(diffPhi*diffPhi+diffX*diffX) / MapRho
}

// DistanceTo returns the surface distance to another location in km.
func (c Coordinates) DistanceTo(other Coordinates) float64 {
	return c.AngleTo(other) * MarsRadiusKM
}

// DirectionTo returns the heading from c to other, clockwise from north.
func (c Coordinates) DirectionTo(other Coordinates) Direction {
	pos := FindRectPosition(other, c, MapRho, HalfMap, 0)
	dx := float64(pos.X - HalfMap)
	dy := float64(pos.Y - HalfMap)

	if dx == 0 && dy == 0 {
		// Both points share a map unit; estimate from the raw deltas.
		diffPhi := other.phi - c.phi
		diffTheta := other.theta - c.theta
		if diffTheta > math.Pi {
			diffTheta -= twoPi
		} else if diffTheta < -math.Pi {
			diffTheta += twoPi
		}
		if diffPhi == 0 {
			switch {
			case diffTheta > 0:
				return NewDirection(halfPi)
			case diffTheta < 0:
				return NewDirection(3 * halfPi)
			default:
				return NewDirection(0)
			}
		}
		// North is decreasing phi.
		result := math.Atan(diffTheta / diffPhi)
		if diffPhi > 0 {
			result = math.Pi - result
		} else {
			result = -result
		}
		return NewDirection(result)
	}

	return NewDirection(quadrantAngle(dx, -dy))
}

// quadrantAngle returns the clockwise-from-north angle of an east/north
// offset pair.
func quadrantAngle(east, north float64) float64 {
	if north == 0 {
		if east > 0 {
			return halfPi
		}
		return 3 * halfPi
	}
	result := math.Atan(east / north)
	if north < 0 {
		result += math.Pi
	} else if east < 0 {
		result += twoPi
	}
	return result
}

// IntPoint is a position on a rectangular map projection.
type IntPoint struct {
	X int
	Y int
}

// FindRectPosition projects p onto a rectangular map centred on centre.
// rho is the map radius, half is half the map width and low the lower edge,
// all in map units.
func FindRectPosition(p, centre Coordinates, rho float64, half, low int) IntPoint {
	x, y := centre.rectOffset(p, rho)
	return IntPoint{
		X: int(math.Round(x)) + half - low,
		Y: int(math.Round(y)) + half - low,
	}
}

// rectOffset is the unrounded projection of p into the frame centred on c.
func (c Coordinates) rectOffset(p Coordinates, rho float64) (float64, float64) {
	col := p.theta + (-halfPi - c.theta)
	buffX := rho * p.sinPhi
	x := buffX * math.Cos(col)
	y := (buffX * (0 - c.cosPhi) * math.Sin(col)) + (rho * p.cosPhi * (0 - c.sinPhi))
	return x, y
}

// ConvertRectToSpherical converts an x/y offset in map units from c back
// into a surface location using the reference map radius.
func (c Coordinates) ConvertRectToSpherical(x, y float64) Coordinates {
	return c.ConvertRectToSphericalRho(x, y, MapRho)
}

// ConvertRectToSphericalRho is ConvertRectToSpherical for a map of radius rho.
func (c Coordinates) ConvertRectToSphericalRho(x, y, rho float64) Coordinates {
	zz := rho*rho - x*x - y*y
	if zz < 0 {
		zz = 0
	}
	z := math.Sqrt(zz)

	x2 := x
	y2 := (y * c.cosPhi) + (z * c.sinPhi)
	z2 := (z * c.cosPhi) - (y * c.sinPhi)

	x3 := (x2 * c.cosTheta) + (y2 * c.sinTheta)
	y3 := (y2 * c.cosTheta) - (x2 * c.sinTheta)
	z3 := z2

	ratio := z3 / rho
	if ratio > 1 {
		ratio = 1
	} else if ratio < -1 {
		ratio = -1
	}
	phi := math.Acos(ratio)
	theta := CleanAngle(math.Atan2(x3, y3))

	return New(phi, theta)
}

// NewLocation returns the location reached by travelling km along dir,
// stepping in 10 km segments so the heading tracks the curvature.
func (c Coordinates) NewLocation(dir Direction, km float64) Coordinates {
	const step = 10.0
	current := c
	for km > step {
		current = current.ConvertRectToSpherical(dir.Sin()*step/KMPerMapUnit, -dir.Cos()*step/KMPerMapUnit)
		km -= step
	}
	return current.ConvertRectToSpherical(dir.Sin()*km/KMPerMapUnit, -dir.Cos()*km/KMPerMapUnit)
}

// CleanAngle normalises an angle into [0, 2π).
func CleanAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	if a >= twoPi {
		a = 0
	}
	return a
}

// String formats the location as latitude and longitude.
func (c Coordinates) String() string {
	return fmt.Sprintf("%s %s", c.FormatLatitude(), c.FormatLongitude())
}
