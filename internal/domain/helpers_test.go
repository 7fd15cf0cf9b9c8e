package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	economySaver = BookingClass{Code: "X", Cabin: CabinEconomy, Saver: true, Name: "Economy Saver"}
	businessFare = BookingClass{Code: "I", Cabin: CabinBusiness, Saver: true, Name: "Business Saver"}
	firstFare    = BookingClass{Code: "O", Cabin: CabinFirst, Saver: false, Name: "First Standard"}
)

// newTestConfig returns a valid airline configuration.
func newTestConfig() *AirlineConfig {
	return &AirlineConfig{
		ID:                "UA",
		Name:              "MileagePlus",
		Adapter:           "jsonapi",
		HomeURL:           "https://awards.example.com/",
		SearchURL:         "https://awards.example.com/search",
		WaitUntil:         "load",
		NavigationTimeout: Duration(30 * time.Second),
		MinDays:           0,
		MaxDays:           337,
		Modifiable:        []QueryField{FieldDepartDate, FieldReturnDate},
		Throttling: ThrottleProfile{
			RequestsPerHour:      60,
			RestPeriod:           DurationRange{Min: 15 * time.Minute, Max: 30 * time.Minute},
			DelayBetweenRequests: FixedDuration(5 * time.Second),
		},
		Fares: []BookingClass{economySaver, businessFare, firstFare},
	}
}

// ua851 is ORD 12:35 -> PEK 15:25+1.
func ua851(t *testing.T) Segment {
	t.Helper()
	seg, err := NewSegment(SegmentParams{
		Flight: "UA851", Aircraft: "777-300ER",
		FromCity: "ORD", ToCity: "PEK",
		Date: "2019-09-18", Departure: "12:35", Arrival: "15:25", LagDays: 1,
	})
	require.NoError(t, err)
	return seg
}

// ca1501 is PEK 17:30 -> PVG 19:45 on the day after ua851.
func ca1501(t *testing.T) Segment {
	t.Helper()
	seg, err := NewSegment(SegmentParams{
		Flight: "CA1501", FromCity: "PEK", ToCity: "PVG",
		Date: "2019-09-19", Departure: "17:30", Arrival: "19:45",
	})
	require.NoError(t, err)
	return seg
}

func awardParams(fare BookingClass, quantity int) AwardParams {
	return AwardParams{Engine: "UA", Fare: fare, Quantity: quantity, Exact: true}
}

func mustFlight(t *testing.T, segments []Segment, awards ...AwardParams) *Flight {
	t.Helper()
	f, err := NewFlight(segments, awards...)
	require.NoError(t, err)
	return f
}

func mustQuery(t *testing.T, p QueryParams) *Query {
	t.Helper()
	q, err := NewQuery(p)
	require.NoError(t, err)
	return q
}

func defaultQueryParams() QueryParams {
	return QueryParams{
		Engine:     "UA",
		Cabin:      "economy",
		Quantity:   1,
		FromCity:   "ORD",
		ToCity:     "PEK",
		DepartDate: "2019-09-18",
		ReturnDate: "2019-09-25",
	}
}
