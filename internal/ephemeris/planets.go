package ephemeris

import (
	"math"

	"github.com/soniakeys/meeus/v3/kepler"
	"github.com/soniakeys/meeus/v3/planetelements"
	"github.com/soniakeys/unit"
)

var elementIndex = map[Body]int{
	Mercury: planetelements.Mercury,
	Venus:   planetelements.Venus,
	Mars:    planetelements.Mars,
	Jupiter: planetelements.Jupiter,
	Saturn:  planetelements.Saturn,
}

// meanAnomaly returns M = L - ϖ in degrees.
func meanAnomaly(el *planetelements.Elements) float64 {
	return Normalize((el.Lon - el.Peri).Deg())
}

// heliocentric returns rectangular ecliptic coordinates in AU, referred to
// the mean equinox of date.
func heliocentric(el *planetelements.Elements) (x, y, z float64) {
	m := unit.AngleFromDeg(meanAnomaly(el))
	ea, err := kepler.Kepler2(el.Ecc, m, 10)
	if err != nil {
		ea = kepler.Kepler3(el.Ecc, m)
	}
	v := kepler.True(ea, el.Ecc)
	r := kepler.Radius(ea, el.Ecc, el.Axis)

	u := v.Rad() + (el.Peri - el.Node).Rad() // argument of latitude
	sn, cn := el.Node.Sincos()
	si, ci := el.Inc.Sincos()
	su, cu := math.Sincos(u)
	x = r * (cn*cu - sn*su*ci)
	y = r * (sn*cu + cn*su*ci)
	z = r * su * si
	return x, y, z
}

// perturb applies the largest Jupiter/Saturn mutual perturbations to the
// heliocentric longitude (degrees). Mean elements omit them and they reach
// about 0.3° for Jupiter and 0.8° for Saturn.
func perturb(body Body, lon, mj, ms float64) float64 {
	sin := func(deg float64) float64 { return math.Sin(deg2rad(deg)) }
	cos := func(deg float64) float64 { return math.Cos(deg2rad(deg)) }
	switch body {
	case Jupiter:
		return lon -
			0.332*sin(2*mj-5*ms-67.6) -
			0.056*sin(2*mj-2*ms+21) +
			0.042*sin(3*mj-5*ms+21) -
			0.036*sin(mj-2*ms) +
			0.022*cos(mj-ms) +
			0.023*sin(2*mj-3*ms+52) -
			0.016*sin(mj-5*ms-69)
	case Saturn:
		return lon +
			0.812*sin(2*mj-5*ms-67.6) -
			0.229*cos(2*mj-4*ms-2) +
			0.119*sin(mj-2*ms-3) +
			0.046*sin(2*mj-6*ms-69) +
			0.014*sin(mj-3*ms+32)
	}
	return lon
}

// geocentricLongitude returns the geometric geocentric ecliptic longitude
// (degrees, mean equinox of date) of a planet, given the Sun's geometric
// longitude (degrees) and distance (AU) at the same instant.
func geocentricLongitude(body Body, jde, sunLon, sunDist float64) float64 {
	var el planetelements.Elements
	planetelements.Mean(elementIndex[body], jde, &el)
	x, y, z := heliocentric(&el)

	if body == Jupiter || body == Saturn {
		var jup, sat planetelements.Elements
		planetelements.Mean(planetelements.Jupiter, jde, &jup)
		planetelements.Mean(planetelements.Saturn, jde, &sat)

		r := math.Sqrt(x*x + y*y + z*z)
		lat := math.Atan2(z, math.Hypot(x, y))
		lon := perturb(body, rad2deg(math.Atan2(y, x)), meanAnomaly(&jup), meanAnomaly(&sat))
		x = r * math.Cos(deg2rad(lon)) * math.Cos(lat)
		y = r * math.Sin(deg2rad(lon)) * math.Cos(lat)
	}

	xs := sunDist * math.Cos(deg2rad(sunLon))
	ys := sunDist * math.Sin(deg2rad(sunLon))
	return Normalize(rad2deg(math.Atan2(y+ys, x+xs)))
}
