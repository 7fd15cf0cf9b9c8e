package timeutil

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// locationCache stores cached timezone locations for performance.
var locationCache sync.Map

// Layouts used for award schedules.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// GetLocation returns a cached timezone location.
// It caches the result for subsequent calls with the same name.
func GetLocation(name string) (*time.Location, error) {
	if loc, ok := locationCache.Load(name); ok {
		return loc.(*time.Location), nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}

	locationCache.Store(name, loc)
	return loc, nil
}

// MustGetLocation returns a cached timezone location or panics on error.
// Use this for known-good timezone names.
func MustGetLocation(name string) *time.Location {
	loc, err := GetLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// AirportTimezone returns the IANA timezone name of an airport.
func AirportTimezone(code string) (string, bool) {
	tz, ok := airportTimezones[strings.ToUpper(code)]
	return tz, ok
}

// AirportLocation returns the cached location of an airport.
func AirportLocation(code string) (*time.Location, error) {
	tz, ok := AirportTimezone(code)
	if !ok {
		return nil, fmt.Errorf("no timezone for airport %q", code)
	}
	return GetLocation(tz)
}

// LocalTime combines a YYYY-MM-DD date, a day offset and an HH:MM clock time
// into an instant in the airport's local timezone.
func LocalTime(airport, date string, dayOffset int, clock string) (time.Time, error) {
	loc, err := AirportLocation(airport)
	if err != nil {
		return time.Time{}, err
	}
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	c, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", clock, err)
	}
	d = d.AddDate(0, 0, dayOffset)
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc), nil
}

// ParseInTimezone parses a time string in the specified timezone.
func ParseInTimezone(layout, value, timezone string) (time.Time, error) {
	loc, err := GetLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation(layout, value, loc)
}

// FormatDate formats a time as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatTime formats a time as HH:MM.
func FormatTime(t time.Time) string {
	return t.Format(ClockLayout)
}

// StartOfDay returns the start of the day (00:00:00) for the given time.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CivilDate returns the calendar date of t as UTC midnight, discarding the zone.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(CivilDate(b).Sub(CivilDate(a)).Hours() / 24)
}

// ClearLocationCache clears the cached timezone locations.
// This is primarily useful for testing.
func ClearLocationCache() {
	locationCache.Range(func(key, _ interface{}) bool {
		locationCache.Delete(key)
		return true
	})
}
