package ephemeris

import (
	"context"
	"fmt"
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
)

// MeeusProvider computes positions analytically. The Sun, Moon, nutation
// and sidereal time come from Meeus' Astronomical Algorithms; Mercury to
// Saturn use the mean elements of Table 31.A solved with Kepler's equation,
// plus the main Jupiter/Saturn perturbations, good to a fraction of a
// degree over several centuries.
//
// The instant is used directly as dynamical time; the ~1 minute TT-UT
// difference is below the precision of the planetary theory.
type MeeusProvider struct {
	System HouseSystem
}

// NewMeeusProvider returns a provider using the given house system.
func NewMeeusProvider(sys HouseSystem) *MeeusProvider {
	if sys == "" {
		sys = Placidus
	}
	return &MeeusProvider{System: sys}
}

// Positions implements Provider.
func (p *MeeusProvider) Positions(_ context.Context, instant time.Time, lat, lon float64) (map[Body]Position, error) {
	jd := julian.TimeToJD(instant.UTC())
	longs := bodyLongitudes(jd)
	a := frame(jd, lat, lon)
	longs[Ascendant] = a.asc

	out := make(map[Body]Position, len(longs))
	for b, l := range longs {
		if !finite(l) {
			return nil, fmt.Errorf("%s longitude: %w", b, ErrNonFinite)
		}
		out[b] = PositionAt(l)
	}
	return out, nil
}

// Houses implements Provider.
func (p *MeeusProvider) Houses(_ context.Context, instant time.Time, lat, lon float64) ([]Cusp, error) {
	jd := julian.TimeToJD(instant.UTC())
	a := frame(jd, lat, lon)
	raw := a.cusps(p.System)
	out := make([]Cusp, len(raw))
	for i, c := range raw {
		if !finite(c) {
			return nil, fmt.Errorf("house %d cusp: %w", i+1, ErrNonFinite)
		}
		out[i] = CuspAt(c)
	}
	return out, nil
}

// bodyLongitudes returns apparent geocentric longitudes in degrees for the
// classical bodies.
func bodyLongitudes(jd float64) map[Body]float64 {
	t := base.J2000Century(jd)
	dpsi, _ := nutation.Nutation(jd)

	sunTrue, _ := solar.True(t)
	sunDist := solar.Radius(t)
	moonLon, _, _ := moonposition.Position(jd)

	out := map[Body]float64{
		Sun:  Normalize(solar.ApparentLongitude(t).Deg()),
		Moon: Normalize(moonLon.Deg() + dpsi.Deg()),
	}
	for _, b := range []Body{Mercury, Venus, Mars, Jupiter, Saturn} {
		out[b] = Normalize(geocentricLongitude(b, jd, sunTrue.Deg(), sunDist) + dpsi.Deg())
	}
	return out
}

// frame computes RAMC, true obliquity, Ascendant and Midheaven. Longitude
// is east-positive in degrees.
func frame(jd, lat, lon float64) angles {
	_, deps := nutation.Nutation(jd)
	eps := nutation.MeanObliquity(jd) + deps
	gast := sidereal.Apparent(jd)
	ramc := gast.Rad() + unit.AngleFromDeg(lon).Rad()
	return newAngles(ramc, eps.Rad(), deg2rad(lat))
}
