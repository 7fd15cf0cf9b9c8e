// Package domain contains the value objects, aggregates, errors and ports of
// the award search system. Nothing here performs I/O directly; assets are
// read and written through the AssetStore port.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/timeutil"
)

// Flight is one itinerary: an ordered, non-empty list of segments plus the
// awards offered on it. Flights are immutable once built.
type Flight struct {
	segments []Segment
	awards   []*Award

	key         string
	duration    int
	minLayover  int
	maxLayover  int
	connections []int
	stops       int
	lagDays     int
}

// NewFlight builds a flight from its segments and binds one award per params
// entry to it. Segment cabins are discarded; cabins belong to awards.
func NewFlight(segments []Segment, awards ...AwardParams) (*Flight, error) {
	if len(segments) == 0 {
		return nil, errors.New("flight: at least one segment is required")
	}

	f := &Flight{segments: make([]Segment, len(segments))}
	for i, seg := range segments {
		if seg.s == nil {
			return nil, fmt.Errorf("flight: segment %d is empty", i)
		}
		f.segments[i] = seg.WithCabin("")
	}
	f.derive()

	for _, p := range awards {
		a, err := NewAward(p, f)
		if err != nil {
			return nil, err
		}
		f.awards = append(f.awards, a)
	}
	return f, nil
}

// derive computes the cached properties of the flight.
func (f *Flight) derive() {
	first, last := f.segments[0], f.segments[len(f.segments)-1]

	parts := []string{first.Date(), first.FromCity(), last.ToCity()}
	firstDate, _ := time.Parse(DateLayout, first.Date())
	for _, seg := range f.segments {
		d, _ := time.Parse(DateLayout, seg.Date())
		offset := int(d.Sub(firstDate).Hours() / 24)
		parts = append(parts, fmt.Sprintf("%d%s", offset, seg.Flight()))
	}
	f.key = strings.Join(parts, ":")

	f.duration = int(last.ArrivalTime().Sub(first.DepartureTime()).Minutes())
	f.lagDays = timeutil.DaysBetween(first.DepartureTime(), last.ArrivalTime())

	f.stops = len(f.segments) - 1
	for i, seg := range f.segments {
		f.stops += seg.Stops()
		if i == len(f.segments)-1 {
			break
		}
		gap := int(f.segments[i+1].DepartureTime().Sub(seg.ArrivalTime()).Minutes())
		f.connections = append(f.connections, gap)
		if i == 0 || gap < f.minLayover {
			f.minLayover = gap
		}
		if i == 0 || gap > f.maxLayover {
			f.maxLayover = gap
		}
	}
}

// Key returns the dedupe key, e.g. "2019-09-18:ORD:PEK:0UA851".
// Each segment contributes its day offset from the first segment's date
// followed by its flight designator.
func (f *Flight) Key() string { return f.key }

// Segments returns a copy of the flight's segments (without cabins).
func (f *Flight) Segments() []Segment {
	out := make([]Segment, len(f.segments))
	copy(out, f.segments)
	return out
}

// Awards returns a copy of the awards bound to this flight.
func (f *Flight) Awards() []*Award {
	out := make([]*Award, len(f.awards))
	copy(out, f.awards)
	return out
}

// FromCity returns the origin of the first segment.
func (f *Flight) FromCity() string { return f.segments[0].FromCity() }

// ToCity returns the destination of the last segment.
func (f *Flight) ToCity() string { return f.segments[len(f.segments)-1].ToCity() }

// Date returns the local departure date of the first segment.
func (f *Flight) Date() string { return f.segments[0].Date() }

// DepartureTime returns the departure instant of the first segment.
func (f *Flight) DepartureTime() time.Time { return f.segments[0].DepartureTime() }

// ArrivalTime returns the arrival instant of the last segment.
func (f *Flight) ArrivalTime() time.Time { return f.segments[len(f.segments)-1].ArrivalTime() }

// Duration returns the total travel time in minutes, layovers included.
func (f *Flight) Duration() int { return f.duration }

// MinLayover returns the shortest connection in minutes (0 if non-stop).
func (f *Flight) MinLayover() int { return f.minLayover }

// MaxLayover returns the longest connection in minutes (0 if non-stop).
func (f *Flight) MaxLayover() int { return f.maxLayover }

// NextConnection returns the connection time in minutes after segment i.
// The last segment has no connection.
func (f *Flight) NextConnection(i int) (int, bool) {
	if i < 0 || i >= len(f.connections) {
		return 0, false
	}
	return f.connections[i], true
}

// Stops returns connections plus technical stops.
func (f *Flight) Stops() int { return f.stops }

// LagDays returns the calendar day offset of the final arrival.
func (f *Flight) LagDays() int { return f.lagDays }

// Airlines returns the distinct segment airlines in order of appearance.
func (f *Flight) Airlines() []string {
	seen := make(map[string]bool, len(f.segments))
	var out []string
	for _, seg := range f.segments {
		if !seen[seg.Airline()] {
			seen[seg.Airline()] = true
			out = append(out, seg.Airline())
		}
	}
	return out
}

// MixedCabin reports whether any award on the flight mixes cabins.
func (f *Flight) MixedCabin() bool {
	for _, a := range f.awards {
		if a.MixedCabin() {
			return true
		}
	}
	return false
}

// HighestCabin returns the best cabin offered by any award on the flight.
func (f *Flight) HighestCabin() Cabin {
	var best Cabin
	for _, a := range f.awards {
		if c := HighestCabin(a.Cabins()); c.Rank() > best.Rank() {
			best = c
		}
	}
	return best
}

// SameSchedule reports whether both flights fly identical segments.
func (f *Flight) SameSchedule(other *Flight) bool {
	if len(f.segments) != len(other.segments) {
		return false
	}
	for i := range f.segments {
		if !f.segments[i].SameSchedule(other.segments[i]) {
			return false
		}
	}
	return true
}

// String returns the key and a summary of the segments.
func (f *Flight) String() string {
	parts := make([]string, len(f.segments))
	for i, seg := range f.segments {
		parts[i] = seg.String()
	}
	return fmt.Sprintf("%s [%s]", f.key, strings.Join(parts, ", "))
}

// withAwards returns a copy of f sharing its segments and carrying awards
// rebound to the copy.
func (f *Flight) withAwards(awards []*Award) *Flight {
	clone := *f
	clone.awards = make([]*Award, len(awards))
	for i, a := range awards {
		clone.awards[i] = a.rebind(&clone)
	}
	return &clone
}

type flightJSON struct {
	Key      string        `json:"key"`
	Duration int           `json:"duration"`
	Stops    int           `json:"stops"`
	Segments []Segment     `json:"segments"`
	Awards   []AwardParams `json:"awards"`
}

// MarshalJSON encodes the flight with its segments and award parameters.
func (f *Flight) MarshalJSON() ([]byte, error) {
	out := flightJSON{Key: f.key, Duration: f.duration, Stops: f.stops, Segments: f.segments}
	for _, a := range f.awards {
		out.Awards = append(out.Awards, a.Params())
	}
	return json.Marshal(out)
}

// FormatMinutes renders a duration in minutes as "2h 30m", "2h" or "45m".
func FormatMinutes(totalMinutes int) string {
	hours, minutes := totalMinutes/60, totalMinutes%60
	switch {
	case hours == 0:
		return fmt.Sprintf("%dm", minutes)
	case minutes == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
}
