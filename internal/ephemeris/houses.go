package ephemeris

import (
	"fmt"
	"math"
	"strings"

	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/unit"
)

// HouseSystem selects how the 12 cusps are derived from the chart angles.
type HouseSystem string

const (
	Placidus  HouseSystem = "placidus"
	Porphyry  HouseSystem = "porphyry"
	Equal     HouseSystem = "equal"
	WholeSign HouseSystem = "whole_sign"
)

// ParseHouseSystem maps a config value to a HouseSystem. Empty means Placidus.
func ParseHouseSystem(s string) (HouseSystem, error) {
	switch HouseSystem(strings.ToLower(strings.TrimSpace(s))) {
	case "", Placidus:
		return Placidus, nil
	case Porphyry:
		return Porphyry, nil
	case Equal:
		return Equal, nil
	case WholeSign, "wholesign", "whole-sign":
		return WholeSign, nil
	}
	return "", fmt.Errorf("unknown house system %q", s)
}

// angles are the local sidereal frame of a chart, in radians except where
// noted.
type angles struct {
	ramc float64 // right ascension of the meridian
	eps  float64 // true obliquity of the ecliptic
	lat  float64 // geographic latitude
	asc  float64 // Ascendant longitude, degrees
	mc   float64 // Midheaven longitude, degrees
}

func newAngles(ramc, eps, lat float64) angles {
	a := angles{ramc: ramc, eps: eps, lat: lat}
	a.mc = raToLongitude(ramc, eps)
	a.asc = Normalize(rad2deg(math.Atan2(
		math.Cos(ramc),
		-(math.Sin(ramc)*math.Cos(eps) + math.Tan(lat)*math.Sin(eps)),
	)))
	return a
}

// cusps returns longitudes in degrees for houses 1..12.
func (a angles) cusps(sys HouseSystem) []float64 {
	switch sys {
	case Equal:
		return equalCusps(a.asc)
	case WholeSign:
		return equalCusps(math.Floor(a.asc/30) * 30)
	case Porphyry:
		return porphyryCusps(a.asc, a.mc)
	default:
		if c, ok := placidusCusps(a); ok && partitions(c) {
			return c
		}
		// Placidus is undefined where some ecliptic points never rise or set.
		return porphyryCusps(a.asc, a.mc)
	}
}

func equalCusps(start float64) []float64 {
	out := make([]float64, 12)
	for i := range out {
		out[i] = Normalize(start + float64(i)*30)
	}
	return out
}

// minQuadrant is the smallest MC-to-ASC arc, in degrees, that still yields
// twelve distinct cusps.
const minQuadrant = 1e-6

// porphyryCusps trisects the quadrants between the angles. Inside the polar
// circles the Ascendant can fall west of the Midheaven; the MC is then
// flipped to its opposite point so the quadrants keep their order. If the
// angles coincide the houses are Equal from the Ascendant.
func porphyryCusps(asc, mc float64) []float64 {
	if Normalize(asc-mc) > 180 {
		mc = Normalize(mc + 180)
	}
	upper := Normalize(asc - mc) // MC -> ASC through houses 10..12
	if upper < minQuadrant || upper > 180-minQuadrant {
		return equalCusps(asc)
	}
	out := make([]float64, 12)
	ic := Normalize(mc + 180)
	lower := Normalize(ic - asc) // ASC -> IC through houses 1..3

	out[9] = mc
	out[10] = Normalize(mc + upper/3)
	out[11] = Normalize(mc + 2*upper/3)
	out[0] = asc
	out[1] = Normalize(asc + lower/3)
	out[2] = Normalize(asc + 2*lower/3)
	for i := 3; i < 9; i++ {
		out[i] = Normalize(out[(i+6)%12] + 180)
	}
	return out
}

// placidusCusps trisects the diurnal and nocturnal semi-arcs by iterating
// on the cusp declination. ok is false at latitudes where the semi-arc is
// undefined.
func placidusCusps(a angles) ([]float64, bool) {
	ramc := rad2deg(a.ramc)
	type target struct {
		house  int // 0-based index
		offset func(ad float64) float64
	}
	targets := []target{
		{10, func(ad float64) float64 { return (90 + ad) / 3 }},
		{11, func(ad float64) float64 { return 2 * (90 + ad) / 3 }},
		{1, func(ad float64) float64 { return 120 + 2*ad/3 }},
		{2, func(ad float64) float64 { return 150 + ad/3 }},
	}

	out := make([]float64, 12)
	out[0] = a.asc
	out[9] = a.mc
	for _, tg := range targets {
		ra := ramc + tg.offset(0)
		var lon float64
		converged := false
		for iter := 0; iter < 100; iter++ {
			lon = raToLongitude(deg2rad(ra), a.eps)
			dec := math.Asin(math.Sin(a.eps) * math.Sin(deg2rad(lon)))
			x := math.Tan(a.lat) * math.Tan(dec)
			if x < -1 || x > 1 {
				return nil, false
			}
			ad := rad2deg(math.Asin(x))
			next := ramc + tg.offset(ad)
			if math.Abs(Normalize(next-ra+180)-180) < 1e-9 {
				converged = true
				ra = next
				break
			}
			ra = next
		}
		if !converged {
			return nil, false
		}
		out[tg.house] = raToLongitude(deg2rad(ra), a.eps)
	}
	for i := 3; i < 9; i++ {
		out[i] = Normalize(out[(i+6)%12] + 180)
	}
	return out, true
}

// partitions reports whether cusps run forward around the zodiac exactly
// once with no empty house.
func partitions(c []float64) bool {
	total := 0.0
	for i := range c {
		arc := Normalize(c[(i+1)%len(c)] - c[i])
		if arc <= 0 {
			return false
		}
		total += arc
	}
	return math.Abs(total-360) < 1e-6
}

// raToLongitude returns the ecliptic longitude (degrees) of the ecliptic
// point with right ascension ra (radians).
func raToLongitude(ra, eps float64) float64 {
	ob := coord.NewObliquity(unit.Angle(eps))
	lon, _ := coord.EqToEcl(unit.RAFromRad(ra), 0, ob.S, ob.C)
	return Normalize(lon.Deg())
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }
