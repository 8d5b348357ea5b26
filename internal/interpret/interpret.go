// Package interpret renders chart placements as text.
//
// Basic text covers the Sun, Moon and Ascendant. Premium text covers every
// classical body followed by the major aspects between them. Both are pure
// functions of the positions they are given, so re-rendering a stored chart
// always yields the same text.
package interpret

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tbourn/astro-chart-backend/internal/ephemeris"
)

// DefaultOrb is the tolerance in degrees for every aspect.
const DefaultOrb = 6.0

// ErrMissingBody is returned when a required body has no position.
var ErrMissingBody = errors.New("interpret: missing body")

// AspectKind is a canonical angular relationship.
type AspectKind struct {
	Name  string
	Angle float64
}

// MajorAspects in canonical order.
var MajorAspects = []AspectKind{
	{"Conjunction", 0},
	{"Sextile", 60},
	{"Square", 90},
	{"Trine", 120},
	{"Opposition", 180},
}

// Aspect is a detected relationship between two bodies.
type Aspect struct {
	A, B ephemeris.Body
	Kind AspectKind
	Orb  float64 // distance from the exact angle, degrees
}

func (a Aspect) String() string {
	return fmt.Sprintf("%s-%s: %s (%.1f°)", a.A, a.B, a.Kind.Name, a.Orb)
}

var basicBodies = []ephemeris.Body{ephemeris.Sun, ephemeris.Moon, ephemeris.Ascendant}

// Basic renders one line each for the Sun, Moon and Ascendant.
func Basic(pos map[ephemeris.Body]ephemeris.Position) (string, error) {
	lines, err := placementLines(pos, basicBodies)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// Premium renders one line per classical body, then one line per aspect.
func Premium(pos map[ephemeris.Body]ephemeris.Position) (string, error) {
	lines, err := placementLines(pos, ephemeris.ClassicalBodies)
	if err != nil {
		return "", err
	}
	for _, a := range FindAspects(pos, DefaultOrb) {
		lines = append(lines, a.String())
	}
	return strings.Join(lines, "\n"), nil
}

func placementLines(pos map[ephemeris.Body]ephemeris.Position, bodies []ephemeris.Body) ([]string, error) {
	lines := make([]string, 0, len(bodies))
	for _, b := range bodies {
		p, ok := pos[b]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingBody, b)
		}
		lines = append(lines, fmt.Sprintf("%s in %s (%.1f°)", b, p.Sign, p.SignDegree))
	}
	return lines, nil
}

// FindAspects checks every unordered pair of classical bodies, in list
// order, against the major aspects. A pair reports at most one aspect: the
// one with the smallest orb, earlier kinds winning ties. Bodies without a
// position are skipped.
func FindAspects(pos map[ephemeris.Body]ephemeris.Position, orb float64) []Aspect {
	var out []Aspect
	bodies := ephemeris.ClassicalBodies
	for i := 0; i < len(bodies); i++ {
		a, ok := pos[bodies[i]]
		if !ok {
			continue
		}
		for j := i + 1; j < len(bodies); j++ {
			b, ok := pos[bodies[j]]
			if !ok {
				continue
			}
			if kind, o, hit := Match(Separation(a.Longitude, b.Longitude), orb); hit {
				out = append(out, Aspect{A: bodies[i], B: bodies[j], Kind: kind, Orb: o})
			}
		}
	}
	return out
}

// Match returns the major aspect nearest to sep if it lies within orb.
func Match(sep, orb float64) (AspectKind, float64, bool) {
	best := -1
	bestOrb := math.Inf(1)
	for i, k := range MajorAspects {
		if o := math.Abs(sep - k.Angle); o <= orb && o < bestOrb {
			best, bestOrb = i, o
		}
	}
	if best < 0 {
		return AspectKind{}, 0, false
	}
	return MajorAspects[best], bestOrb, true
}

// Separation is the smaller arc between two longitudes, in [0,180].
func Separation(a, b float64) float64 {
	d := math.Abs(ephemeris.Normalize(a) - ephemeris.Normalize(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}
