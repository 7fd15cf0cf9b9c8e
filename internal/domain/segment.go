package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/timeutil"
)

// clockRegex matches local clock times in HH:MM format.
var clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// flightRegex matches flight designators such as "UA851" or "3U8888". The
// airline prefix needs at least one letter.
var flightRegex = regexp.MustCompile(`^([A-Z]{2}|[A-Z]\d|\d[A-Z])\d{1,4}[A-Z]?$`)

// SegmentParams are the raw inputs of NewSegment.
type SegmentParams struct {
	// Airline is the marketing airline code; derived from Flight when empty
	Airline string `json:"airline,omitempty"`

	// Flight is the flight designator (e.g., "UA851")
	Flight string `json:"flight"`

	// Aircraft is the equipment type, if known
	Aircraft string `json:"aircraft,omitempty"`

	// FromCity and ToCity are airport codes
	FromCity string `json:"fromCity"`
	ToCity   string `json:"toCity"`

	// Date is the local departure date (YYYY-MM-DD)
	Date string `json:"date"`

	// Departure and Arrival are local clock times (HH:MM)
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`

	// Cabin is empty until assigned by an award
	Cabin Cabin `json:"cabin,omitempty"`

	// Stops counts technical stops without a change of plane
	Stops int `json:"stops"`

	// LagDays is the arrival date offset from Date
	LagDays int `json:"lagDays"`
}

// schedule holds the immutable facts of a segment. Clones share it.
type schedule struct {
	params   SegmentParams
	departAt time.Time
	arriveAt time.Time
}

// Segment is one non-stop physical flight leg.
type Segment struct {
	s     *schedule
	cabin Cabin
}

// NewSegment validates params and computes the segment's instants using the
// timezone of each airport. Arrival before departure is an integrity error.
func NewSegment(params SegmentParams) (Segment, error) {
	params.Flight = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(params.Flight), " ", ""))
	params.Airline = strings.ToUpper(strings.TrimSpace(params.Airline))
	params.FromCity = strings.ToUpper(strings.TrimSpace(params.FromCity))
	params.ToCity = strings.ToUpper(strings.TrimSpace(params.ToCity))
	params.Aircraft = strings.TrimSpace(params.Aircraft)

	if !flightRegex.MatchString(params.Flight) {
		return Segment{}, fmt.Errorf("segment: invalid flight designator %q", params.Flight)
	}
	if params.Airline == "" {
		params.Airline = params.Flight[:2]
	}
	if !airportCodeRegex.MatchString(params.FromCity) || !airportCodeRegex.MatchString(params.ToCity) {
		return Segment{}, fmt.Errorf("segment %s: invalid airport codes %q-%q", params.Flight, params.FromCity, params.ToCity)
	}
	if !dateRegex.MatchString(params.Date) {
		return Segment{}, fmt.Errorf("segment %s: invalid date %q", params.Flight, params.Date)
	}
	if !clockRegex.MatchString(params.Departure) || !clockRegex.MatchString(params.Arrival) {
		return Segment{}, fmt.Errorf("segment %s: invalid times %q-%q", params.Flight, params.Departure, params.Arrival)
	}
	if params.Cabin != "" && !params.Cabin.IsValid() {
		return Segment{}, fmt.Errorf("segment %s: invalid cabin %q", params.Flight, params.Cabin)
	}
	if params.Stops < 0 || params.LagDays < 0 {
		return Segment{}, fmt.Errorf("segment %s: stops and lagDays must not be negative", params.Flight)
	}

	departAt, err := timeutil.LocalTime(params.FromCity, params.Date, 0, params.Departure)
	if err != nil {
		return Segment{}, fmt.Errorf("segment %s: %w: %v", params.Flight, ErrUnknownAirport, err)
	}
	arriveAt, err := timeutil.LocalTime(params.ToCity, params.Date, params.LagDays, params.Arrival)
	if err != nil {
		return Segment{}, fmt.Errorf("segment %s: %w: %v", params.Flight, ErrUnknownAirport, err)
	}
	if arriveAt.Before(departAt) {
		return Segment{}, newIntegrityError(ErrNegativeDuration,
			"segment %s %s-%s on %s arrives before it departs", params.Flight, params.FromCity, params.ToCity, params.Date)
	}

	cabin := params.Cabin
	params.Cabin = ""
	return Segment{
		s:     &schedule{params: params, departAt: departAt, arriveAt: arriveAt},
		cabin: cabin,
	}, nil
}

// MustSegment is like NewSegment but panics on error. For fixtures and tests.
func MustSegment(params SegmentParams) Segment {
	seg, err := NewSegment(params)
	if err != nil {
		panic(err)
	}
	return seg
}

// WithCabin returns a clone sharing the schedule with a different cabin.
func (s Segment) WithCabin(c Cabin) Segment {
	return Segment{s: s.s, cabin: c}
}

// Airline returns the marketing airline code.
func (s Segment) Airline() string { return s.s.params.Airline }

// Flight returns the flight designator.
func (s Segment) Flight() string { return s.s.params.Flight }

// Aircraft returns the equipment type, or "".
func (s Segment) Aircraft() string { return s.s.params.Aircraft }

// FromCity returns the origin airport code.
func (s Segment) FromCity() string { return s.s.params.FromCity }

// ToCity returns the destination airport code.
func (s Segment) ToCity() string { return s.s.params.ToCity }

// Date returns the local departure date (YYYY-MM-DD).
func (s Segment) Date() string { return s.s.params.Date }

// Departure returns the local departure clock time.
func (s Segment) Departure() string { return s.s.params.Departure }

// Arrival returns the local arrival clock time.
func (s Segment) Arrival() string { return s.s.params.Arrival }

// Cabin returns the assigned cabin, or "" when unassigned.
func (s Segment) Cabin() Cabin { return s.cabin }

// Stops returns the number of technical stops.
func (s Segment) Stops() int { return s.s.params.Stops }

// LagDays returns the arrival date offset from Date.
func (s Segment) LagDays() int { return s.s.params.LagDays }

// Overnight reports whether the segment arrives on a later calendar day.
func (s Segment) Overnight() bool { return s.s.params.LagDays > 0 }

// DepartureTime returns the departure instant in the origin's timezone.
func (s Segment) DepartureTime() time.Time { return s.s.departAt }

// ArrivalTime returns the arrival instant in the destination's timezone.
func (s Segment) ArrivalTime() time.Time { return s.s.arriveAt }

// Duration returns the flying time in minutes.
func (s Segment) Duration() int {
	return int(s.s.arriveAt.Sub(s.s.departAt).Minutes())
}

// SameSchedule reports whether two segments describe the same leg,
// ignoring cabin.
func (s Segment) SameSchedule(other Segment) bool {
	if s.s == other.s {
		return true
	}
	if s.s == nil || other.s == nil {
		return false
	}
	return s.s.params == other.s.params
}

// Params returns the inputs of the segment, including its cabin.
func (s Segment) Params() SegmentParams {
	p := s.s.params
	p.Cabin = s.cabin
	return p
}

// String returns e.g. "UA851 ORD-PEK 2019-09-18 12:35-15:25+1".
func (s Segment) String() string {
	lag := ""
	if s.LagDays() > 0 {
		lag = fmt.Sprintf("+%d", s.LagDays())
	}
	return fmt.Sprintf("%s %s-%s %s %s-%s%s", s.Flight(), s.FromCity(), s.ToCity(), s.Date(), s.Departure(), s.Arrival(), lag)
}

// MarshalJSON encodes the segment parameters.
func (s Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Params())
}

// UnmarshalJSON decodes and re-validates a segment.
func (s *Segment) UnmarshalJSON(data []byte) error {
	var p SegmentParams
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	seg, err := NewSegment(p)
	if err != nil {
		return err
	}
	*s = seg
	return nil
}
