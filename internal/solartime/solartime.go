// Package solartime converts a UTC instant to local apparent (true) solar
// time at a given longitude.
//
// The correction has two parts: a mean offset of four minutes of time per
// degree of longitude, and a low-order harmonic approximation of the
// equation of time driven by the Sun's ecliptic longitude. The harmonic is
// accurate to a few minutes, which is enough for display purposes; it is
// not an ephemeris-grade equation of time.
package solartime

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNonFinite is returned when an input or intermediate value is NaN or Inf.
var ErrNonFinite = errors.New("solartime: non-finite value")

// ClockLayout is the display format for standard and solar clock times.
const ClockLayout = "15:04:05"

// Result is the outcome of a solar time correction.
type Result struct {
	// Standard is the input instant in UTC.
	Standard time.Time
	// Solar is Standard shifted by the total offset.
	Solar time.Time
	// LongitudeOffset is the mean-time part of the shift.
	LongitudeOffset time.Duration
	// EquationOfTime is the apparent-time correction in minutes.
	EquationOfTime float64
	// TotalSeconds is the full signed shift; positive means solar time is ahead.
	TotalSeconds float64
}

// StandardClock formats Standard as HH:MM:SS.
func (r Result) StandardClock() string { return r.Standard.Format(ClockLayout) }

// SolarClock formats Solar as HH:MM:SS.
func (r Result) SolarClock() string { return r.Solar.Format(ClockLayout) }

// Interpretation renders the correction as a single sentence.
func (r Result) Interpretation() string {
	direction := "behind"
	if r.TotalSeconds > 0 {
		direction = "ahead of"
	}
	return fmt.Sprintf(
		"True Solar Time is %s (%.1f minutes %s standard time). Equation of time correction: %.1f minutes.",
		r.SolarClock(), math.Abs(r.TotalSeconds/60), direction, r.EquationOfTime,
	)
}

// EquationOfTime returns the approximate equation of time in minutes for a
// solar ecliptic longitude in degrees.
func EquationOfTime(sunLongitude float64) float64 {
	return -7.658*math.Sin(rad(sunLongitude)) + 9.863*math.Sin(2*rad(sunLongitude+3.58))
}

// Correct shifts utc by the longitude offset and the equation of time.
// longitude is east-positive degrees.
func Correct(utc time.Time, longitude, sunLongitude float64) (Result, error) {
	if !finite(longitude) || !finite(sunLongitude) {
		return Result{}, ErrNonFinite
	}
	lonSeconds := longitude * 4 * 60
	eot := EquationOfTime(sunLongitude)
	total := lonSeconds + eot*60
	if !finite(total) {
		return Result{}, ErrNonFinite
	}

	std := utc.UTC()
	return Result{
		Standard:        std,
		Solar:           std.Add(seconds(total)),
		LongitudeOffset: seconds(lonSeconds),
		EquationOfTime:  eot,
		TotalSeconds:    total,
	}, nil
}

// seconds converts fractional seconds to a Duration, rounded to the
// microsecond.
func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s*1e6)) * time.Microsecond
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
