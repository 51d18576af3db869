package coords

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

// FormatLatitude renders the colatitude as a latitude string, e.g. "4.50 N".
func (c Coordinates) FormatLatitude() string {
	lat := 90 - c.phi*radToDeg
	dir := "N"
	if lat < 0 {
		dir = "S"
		lat = -lat
	}
	return fmt.Sprintf("%.2f %s", lat, dir)
}

// FormatLongitude renders the longitude, e.g. "137.40 E" or "45.00 W".
func (c Coordinates) FormatLongitude() string {
	lon := c.theta * radToDeg
	dir := "E"
	if lon > 180 {
		lon = 360 - lon
		dir = "W"
	}
	return fmt.Sprintf("%.2f %s", lon, dir)
}

// ParseLatitude converts a latitude such as "25.3 N", "-12.5" or "12.5° S"
// into a colatitude in radians.
func ParseLatitude(s string) (float64, error) {
	value, dir, err := splitAngle(s)
	if err != nil {
		return 0, fmt.Errorf("latitude %q: %w", s, err)
	}
	switch dir {
	case "", "N":
	case "S":
		value = -value
	default:
		return 0, fmt.Errorf("latitude %q: invalid direction %q", s, dir)
	}
	if value > 90 || value < -90 {
		return 0, fmt.Errorf("latitude %q: out of range", s)
	}
	return (90 - value) * degToRad, nil
}

// ParseLongitude converts a longitude such as "63.5 W", "137.4 E" or "200"
// into a theta in radians.
func ParseLongitude(s string) (float64, error) {
	value, dir, err := splitAngle(s)
	if err != nil {
		return 0, fmt.Errorf("longitude %q: %w", s, err)
	}
	switch dir {
	case "", "E":
	case "W":
		value = -value
	default:
		return 0, fmt.Errorf("longitude %q: invalid direction %q", s, dir)
	}
	if value > 360 || value < -360 {
		return 0, fmt.Errorf("longitude %q: out of range", s)
	}
	return CleanAngle(value * degToRad), nil
}

// Parse builds Coordinates from latitude and longitude strings.
func Parse(latitude, longitude string) (Coordinates, error) {
	phi, err := ParseLatitude(latitude)
	if err != nil {
		return Coordinates{}, err
	}
	theta, err := ParseLongitude(longitude)
	if err != nil {
		return Coordinates{}, err
	}
	return New(phi, theta), nil
}

func splitAngle(s string) (float64, string, error) {
	clean := strings.ToUpper(strings.TrimSpace(s))
	if clean == "" {
		return 0, "", fmt.Errorf("blank value")
	}
	dir := ""
	if last := clean[len(clean)-1]; last == 'N' || last == 'S' || last == 'E' || last == 'W' {
		dir = string(last)
		clean = strings.TrimSpace(clean[:len(clean)-1])
	}
	clean = strings.TrimSuffix(clean, "°")
	clean = strings.ReplaceAll(clean, ",", ".")
	value, err := strconv.ParseFloat(strings.TrimSpace(clean), 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid number: %w", err)
	}
	return value, dir, nil
}

// MarshalJSON renders the location with both raw angles and readable strings.
func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Phi       float64 `json:"phi"`
		Theta     float64 `json:"theta"`
		Latitude  string  `json:"latitude"`
		Longitude string  `json:"longitude"`
	}{c.phi, c.theta, c.FormatLatitude(), c.FormatLongitude()})
}

// MarshalJSON renders the heading in degrees.
func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(math.Round(d.Degrees()*100) / 100)
}
