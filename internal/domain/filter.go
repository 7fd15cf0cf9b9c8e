package domain

import (
	"strings"
	"time"
)

// SortOption defines the available sorting options for awards.
type SortOption string

// Available sort options.
const (
	// SortByBestValue sorts by the calculated ranking score (default)
	SortByBestValue SortOption = "best"

	// SortByMileage sorts by miles cost ascending, unknown costs last
	SortByMileage SortOption = "mileage"

	// SortByDuration sorts by flight duration ascending (shortest first)
	SortByDuration SortOption = "duration"

	// SortByDeparture sorts by departure time ascending (earliest first)
	SortByDeparture SortOption = "departure"
)

// IsValid checks if the sort option is a valid value.
func (s SortOption) IsValid() bool {
	switch s {
	case SortByBestValue, SortByMileage, SortByDuration, SortByDeparture:
		return true
	default:
		return false
	}
}

// ParseSortOption converts a string to a SortOption.
// Returns SortByBestValue if the string is empty or invalid.
func ParseSortOption(s string) SortOption {
	option := SortOption(strings.ToLower(s))
	if option.IsValid() {
		return option
	}
	return SortByBestValue
}

// AwardFilter narrows a list of awards. Zero values disable a criterion.
type AwardFilter struct {
	// Cabins keeps awards whose highest cabin is one of these
	Cabins []Cabin `json:"cabins,omitempty"`

	// MaxStops filters out flights with more stops than this value
	// 0 = direct flights only, 1 = max 1 stop, etc.
	MaxStops *int `json:"maxStops,omitempty"`

	// Airlines keeps awards where every segment is flown by one of these
	Airlines []string `json:"airlines,omitempty"`

	// SaverOnly keeps saver fares
	SaverOnly bool `json:"saverOnly,omitempty"`

	// MinQuantity keeps awards with at least this many seats
	MinQuantity int `json:"minQuantity,omitempty"`

	// ExcludeWaitlisted drops waitlisted awards
	ExcludeWaitlisted bool `json:"excludeWaitlisted,omitempty"`

	// ExcludeMixed drops mixed-cabin awards
	ExcludeMixed bool `json:"excludeMixed,omitempty"`

	// DepartureTimeRange filters by local departure clock time
	DepartureTimeRange *TimeRange `json:"departureTimeRange,omitempty"`

	// DurationRange filters by total duration in minutes
	DurationRange *MinutesRange `json:"durationRange,omitempty"`
}

// TimeRange represents a time-of-day window for filtering.
type TimeRange struct {
	// Start is the beginning of the time range (inclusive)
	Start time.Time `json:"start"`

	// End is the end of the time range (inclusive)
	End time.Time `json:"end"`
}

// Contains checks if the clock time of t falls within the range.
func (tr *TimeRange) Contains(t time.Time) bool {
	if tr == nil {
		return true
	}
	minutes := t.Hour()*60 + t.Minute()
	start := tr.Start.Hour()*60 + tr.Start.Minute()
	end := tr.End.Hour()*60 + tr.End.Minute()
	return minutes >= start && minutes <= end
}

// MinutesRange is an inclusive range of minutes.
type MinutesRange struct {
	MinMinutes *int `json:"minMinutes,omitempty"`
	MaxMinutes *int `json:"maxMinutes,omitempty"`
}

// IsValid returns false if min > max, or if any values are negative.
func (r *MinutesRange) IsValid() bool {
	if r == nil {
		return true
	}
	if r.MinMinutes != nil && *r.MinMinutes < 0 {
		return false
	}
	if r.MaxMinutes != nil && *r.MaxMinutes < 0 {
		return false
	}
	if r.MinMinutes != nil && r.MaxMinutes != nil && *r.MinMinutes > *r.MaxMinutes {
		return false
	}
	return true
}

// Contains checks if minutes falls within the range.
func (r *MinutesRange) Contains(minutes int) bool {
	if r == nil {
		return true
	}
	if r.MinMinutes != nil && minutes < *r.MinMinutes {
		return false
	}
	if r.MaxMinutes != nil && minutes > *r.MaxMinutes {
		return false
	}
	return true
}

// Matches checks if an award and its flight satisfy every criterion.
func (f *AwardFilter) Matches(a *Award) bool {
	if f == nil {
		return true
	}
	flight := a.Flight()

	if len(f.Cabins) > 0 {
		highest := HighestCabin(a.Cabins())
		found := false
		for _, c := range f.Cabins {
			if c == highest {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.SaverOnly && !a.Fare().Saver {
		return false
	}
	if f.MinQuantity > 0 && a.Quantity() < f.MinQuantity {
		return false
	}
	if f.ExcludeWaitlisted && a.Waitlisted() {
		return false
	}
	if f.ExcludeMixed && a.MixedCabin() {
		return false
	}

	if flight == nil {
		return f.MaxStops == nil && len(f.Airlines) == 0 && f.DepartureTimeRange == nil && f.DurationRange == nil
	}

	if f.MaxStops != nil && flight.Stops() > *f.MaxStops {
		return false
	}

	// Every segment airline must be allowed (case-insensitive)
	if len(f.Airlines) > 0 {
		allowed := make(map[string]bool, len(f.Airlines))
		for _, code := range f.Airlines {
			allowed[strings.ToUpper(code)] = true
		}
		for _, code := range flight.Airlines() {
			if !allowed[code] {
				return false
			}
		}
	}

	if f.DepartureTimeRange != nil && !f.DepartureTimeRange.Contains(flight.DepartureTime()) {
		return false
	}
	if f.DurationRange != nil && !f.DurationRange.Contains(flight.Duration()) {
		return false
	}

	return true
}
