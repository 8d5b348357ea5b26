package services

import (
	"math"
	"strings"
	"time"
)

// Input layouts for birth date and time.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// BirthInput is a birth moment as submitted: a wall-clock date and time in a
// named IANA zone, plus the birth place.
type BirthInput struct {
	Date      string
	Time      string
	Latitude  float64
	Longitude float64
	Timezone  string
}

// Validate checks formats and coordinate ranges without resolving the zone.
func (in BirthInput) Validate() error {
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return ErrInvalidFormat
	}
	if _, err := time.Parse(TimeLayout, in.Time); err != nil {
		return ErrInvalidFormat
	}
	if math.IsNaN(in.Latitude) || in.Latitude < -90 || in.Latitude > 90 {
		return ErrCoordinatesOutOfRange
	}
	if math.IsNaN(in.Longitude) || in.Longitude < -180 || in.Longitude > 180 {
		return ErrCoordinatesOutOfRange
	}
	return nil
}

// LoadZone resolves an IANA zone name. Empty and "Local" are rejected; the
// process zone is not a birth place.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return nil, ErrInvalidTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, ErrInvalidTimezone
	}
	return loc, nil
}

// ResolveBirthInstant validates in and converts its wall clock to a UTC
// instant. It fails with ErrAmbiguousLocalTime when the wall clock falls in
// a DST gap (no instant) or fold (two instants).
func ResolveBirthInstant(in BirthInput) (time.Time, error) {
	if err := in.Validate(); err != nil {
		return time.Time{}, err
	}
	loc, err := LoadZone(in.Timezone)
	if err != nil {
		return time.Time{}, err
	}
	wall, err := time.Parse(DateLayout+" "+TimeLayout, in.Date+" "+in.Time)
	if err != nil {
		return time.Time{}, ErrInvalidFormat
	}
	matches := localInstants(wall, loc)
	if len(matches) != 1 {
		return time.Time{}, ErrAmbiguousLocalTime
	}
	return matches[0].UTC(), nil
}

// localInstants returns every instant whose wall clock in loc equals wall
// (read as a naive UTC value). A zone changes offset at most once within a
// day either side, so the offsets in force 24h before and after, plus the
// one Go picks, cover all candidates.
func localInstants(wall time.Time, loc *time.Location) []time.Time {
	_, off0 := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), 0, 0, loc).Zone()
	_, offBefore := wall.Add(-24 * time.Hour).In(loc).Zone()
	_, offAfter := wall.Add(24 * time.Hour).In(loc).Zone()

	seen := make(map[int]bool, 3)
	var out []time.Time
	for _, off := range []int{offBefore, off0, offAfter} {
		if seen[off] {
			continue
		}
		seen[off] = true
		inst := wall.Add(-time.Duration(off) * time.Second)
		local := inst.In(loc)
		if _, got := local.Zone(); got != off {
			continue
		}
		if local.Year() == wall.Year() && local.YearDay() == wall.YearDay() &&
			local.Hour() == wall.Hour() && local.Minute() == wall.Minute() {
			out = append(out, inst)
		}
	}
	return out
}
