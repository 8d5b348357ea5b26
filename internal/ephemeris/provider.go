// Package ephemeris computes ecliptic positions of the classical bodies and
// the house cusps for a moment and place on Earth.
//
// The Provider interface is the contract the rest of the backend depends on.
// Chart assembly, house assignment, and aspect detection only ever see
// Position and Cusp values, so they can be exercised with fixed synthetic
// positions in tests.
package ephemeris

import (
	"context"
	"errors"
	"math"
	"time"
)

// Body names a celestial body or chart point.
type Body string

// Supported bodies. Ascendant is a chart point, not a planet.
const (
	Sun       Body = "Sun"
	Moon      Body = "Moon"
	Mercury   Body = "Mercury"
	Venus     Body = "Venus"
	Mars      Body = "Mars"
	Jupiter   Body = "Jupiter"
	Saturn    Body = "Saturn"
	Ascendant Body = "Ascendant"
)

// ClassicalBodies is the fixed iteration order used for placements and
// aspect pairs.
var ClassicalBodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn}

// ErrNonFinite is returned when a computation produced NaN or Inf.
var ErrNonFinite = errors.New("ephemeris: non-finite result")

// Position is a body's place on the ecliptic.
type Position struct {
	Longitude  float64 // absolute ecliptic longitude, [0,360)
	Sign       string
	SignDegree float64 // degree within Sign, [0,30)
}

// Cusp is the start of a house.
type Cusp struct {
	Longitude float64
	Sign      string
}

// Provider is a deterministic source of body positions and house cusps.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Positions returns every classical body plus the Ascendant.
	Positions(ctx context.Context, instant time.Time, lat, lon float64) (map[Body]Position, error)
	// Houses returns 12 cusps ordered from house 1 to house 12.
	Houses(ctx context.Context, instant time.Time, lat, lon float64) ([]Cusp, error)
}

// PositionAt builds a Position from an absolute longitude.
func PositionAt(longitude float64) Position {
	l := Normalize(longitude)
	sign, deg := SignOf(l)
	return Position{Longitude: l, Sign: sign, SignDegree: deg}
}

// CuspAt builds a Cusp from an absolute longitude.
func CuspAt(longitude float64) Cusp {
	l := Normalize(longitude)
	sign, _ := SignOf(l)
	return Cusp{Longitude: l, Sign: sign}
}

// Normalize reduces deg into [0,360).
func Normalize(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

// HouseOf returns the 1-based house whose [cusp, next cusp) arc contains
// longitude, wrapping at 360. A longitude exactly on a cusp belongs to the
// house that cusp opens.
func HouseOf(longitude float64, cusps []Cusp) int {
	n := len(cusps)
	if n == 0 {
		return 0
	}
	l := Normalize(longitude)
	for i := 0; i < n; i++ {
		start := cusps[i].Longitude
		end := cusps[(i+1)%n].Longitude
		span := Normalize(end - start)
		if span == 0 {
			continue
		}
		if Normalize(l-start) < span {
			return i + 1
		}
	}
	// All cusps coincide; everything sits on house 1's cusp.
	return 1
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
