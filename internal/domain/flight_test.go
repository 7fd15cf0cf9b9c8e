package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFlight_Connection(t *testing.T) {
	f := mustFlight(t, []Segment{ua851(t), ca1501(t)}, awardParams(economySaver, 2))

	assert.Equal(t, "2019-09-18:ORD:PVG:0UA851:1CA1501", f.Key())
	assert.Equal(t, "ORD", f.FromCity())
	assert.Equal(t, "PVG", f.ToCity())
	assert.Equal(t, "2019-09-18", f.Date())
	assert.Equal(t, 18*60+10, f.Duration())
	assert.Equal(t, 1, f.Stops())
	assert.Equal(t, 1, f.LagDays())
	assert.Equal(t, 125, f.MinLayover())
	assert.Equal(t, 125, f.MaxLayover())
	assert.Equal(t, []string{"UA", "CA"}, f.Airlines())

	gap, ok := f.NextConnection(0)
	assert.True(t, ok)
	assert.Equal(t, 125, gap)

	_, ok = f.NextConnection(1)
	assert.False(t, ok, "last segment has no connection")
}

func TestNewFlight_NonStop(t *testing.T) {
	f := mustFlight(t, []Segment{ua851(t)}, awardParams(economySaver, 1))

	assert.Equal(t, "2019-09-18:ORD:PEK:0UA851", f.Key())
	assert.Equal(t, 0, f.Stops())
	assert.Equal(t, 0, f.MinLayover())
	assert.Equal(t, 0, f.MaxLayover())
	assert.Equal(t, 13*60+50, f.Duration())
}

func TestNewFlight_TechnicalStopsCount(t *testing.T) {
	seg, err := NewSegment(SegmentParams{
		Flight: "UA1", FromCity: "SFO", ToCity: "SIN",
		Date: "2019-09-18", Departure: "23:00", Arrival: "06:30", LagDays: 2, Stops: 1,
	})
	require.NoError(t, err)

	f := mustFlight(t, []Segment{seg}, awardParams(economySaver, 1))
	assert.Equal(t, 1, f.Stops())
	assert.Equal(t, 2, f.LagDays())
}

func TestNewFlight_RequiresSegments(t *testing.T) {
	_, err := NewFlight(nil)
	assert.Error(t, err)

	_, err = NewFlight([]Segment{{}})
	assert.Error(t, err)
}

func TestNewFlight_DropsSegmentCabins(t *testing.T) {
	f := mustFlight(t, []Segment{ua851(t).WithCabin(CabinFirst)})

	for _, seg := range f.Segments() {
		assert.Equal(t, Cabin(""), seg.Cabin())
	}
}

func TestFlight_KeyIsStable(t *testing.T) {
	a := mustFlight(t, []Segment{ua851(t), ca1501(t)})
	b := mustFlight(t, []Segment{ua851(t), ca1501(t)})

	assert.Equal(t, a.Key(), b.Key())
	assert.True(t, a.SameSchedule(b))
}

func TestFlight_Cabins(t *testing.T) {
	mixed := awardParams(businessFare, 1)
	mixed.Cabins = []Cabin{CabinBusiness, CabinEconomy}

	f := mustFlight(t, []Segment{ua851(t), ca1501(t)}, awardParams(economySaver, 4), mixed)

	assert.Len(t, f.Awards(), 2)
	assert.True(t, f.MixedCabin())
	assert.Equal(t, CabinBusiness, f.HighestCabin())
	for _, a := range f.Awards() {
		assert.Same(t, f, a.Flight())
	}
}

func TestFlight_MarshalJSON(t *testing.T) {
	f := mustFlight(t, []Segment{ua851(t)}, awardParams(economySaver, 1))

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var decoded struct {
		Key      string            `json:"key"`
		Segments []json.RawMessage `json:"segments"`
		Awards   []AwardParams     `json:"awards"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, f.Key(), decoded.Key)
	assert.Len(t, decoded.Segments, 1)
	require.Len(t, decoded.Awards, 1)
	assert.Equal(t, "X", decoded.Awards[0].Fare.Code)
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		name          string
		totalMinutes  int
		wantFormatted string
	}{
		{name: "hours and minutes", totalMinutes: 150, wantFormatted: "2h 30m"},
		{name: "only hours", totalMinutes: 120, wantFormatted: "2h"},
		{name: "only minutes", totalMinutes: 45, wantFormatted: "45m"},
		{name: "zero minutes", totalMinutes: 0, wantFormatted: "0m"},
		{name: "single digit minutes", totalMinutes: 65, wantFormatted: "1h 5m"},
		{name: "long haul", totalMinutes: 830, wantFormatted: "13h 50m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantFormatted, FormatMinutes(tt.totalMinutes))
		})
	}
}
