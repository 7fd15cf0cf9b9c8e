package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAward_DefaultsCabinsToFare(t *testing.T) {
	f := mustFlight(t, []Segment{ua851(t), ca1501(t)})

	a, err := NewAward(awardParams(businessFare, 2), f)
	require.NoError(t, err)

	assert.Equal(t, []Cabin{CabinBusiness, CabinBusiness}, a.Cabins())
	assert.Len(t, a.Cabins(), len(f.Segments()))
	assert.False(t, a.MixedCabin())
	assert.Equal(t, "I", a.Fare().Code)
	assert.Equal(t, 2, a.Quantity())
	assert.True(t, a.Exact())
}

func TestNewAward_CabinsMustMatchSegments(t *testing.T) {
	f := mustFlight(t, []Segment{ua851(t), ca1501(t)})

	p := awardParams(economySaver, 1)
	p.Cabins = []Cabin{CabinEconomy}

	_, err := NewAward(p, f)
	assert.Error(t, err)
}

func TestNewAward_Partner(t *testing.T) {
	own := mustFlight(t, []Segment{ua851(t)})
	mixed := mustFlight(t, []Segment{ua851(t), ca1501(t)})

	tests := []struct {
		name    string
		flight  *Flight
		engine  string
		partner *bool
		want    bool
	}{
		{name: "own metal", flight: own, engine: "UA", want: false},
		{name: "partner segment", flight: mixed, engine: "UA", want: true},
		{name: "other program", flight: own, engine: "NH", want: true},
		{name: "explicit override", flight: mixed, engine: "UA", partner: boolPtr(false), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := awardParams(economySaver, 1)
			p.Engine = tt.engine
			p.Partner = tt.partner

			a, err := NewAward(p, tt.flight)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Partner())
		})
	}
}

func TestNewAward_Invalid(t *testing.T) {
	f := mustFlight(t, []Segment{ua851(t)})

	tests := []struct {
		name   string
		modify func(p *AwardParams)
	}{
		{name: "zero quantity", modify: func(p *AwardParams) { p.Quantity = 0 }},
		{name: "missing engine", modify: func(p *AwardParams) { p.Engine = "" }},
		{name: "invalid fare", modify: func(p *AwardParams) { p.Fare = BookingClass{Code: "Z"} }},
		{name: "invalid cabin", modify: func(p *AwardParams) { p.Cabins = []Cabin{"coach"} }},
		{name: "negative mileage", modify: func(p *AwardParams) { p.Mileage = -1 }},
		{name: "fees without currency", modify: func(p *AwardParams) { p.Fees = "5.60" }},
		{name: "fees currency first", modify: func(p *AwardParams) { p.Fees = "USD 5.60" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := awardParams(economySaver, 1)
			tt.modify(&p)
			_, err := NewAward(p, f)
			assert.Error(t, err)
		})
	}
}

func TestNewAward_Fees(t *testing.T) {
	f := mustFlight(t, []Segment{ua851(t)})

	for _, fees := range []string{"5.60 USD", "120 JPY", "0 CAD"} {
		p := awardParams(economySaver, 1)
		p.Fees = fees
		a, err := NewAward(p, f)
		require.NoError(t, err, fees)
		assert.Equal(t, fees, a.Fees())
	}
}

func TestAward_SegmentsCarryCabins(t *testing.T) {
	f := mustFlight(t, []Segment{ua851(t), ca1501(t)})
	p := awardParams(firstFare, 1)
	p.Cabins = []Cabin{CabinFirst, CabinBusiness}

	a, err := NewAward(p, f)
	require.NoError(t, err)

	segs := a.Segments()
	require.Len(t, segs, 2)
	assert.Equal(t, CabinFirst, segs[0].Cabin())
	assert.Equal(t, CabinBusiness, segs[1].Cabin())
	assert.True(t, a.MixedCabin())

	for _, seg := range f.Segments() {
		assert.Equal(t, Cabin(""), seg.Cabin(), "flight segments stay cabin-less")
	}
}

func TestAward_OrphanHasNoSegments(t *testing.T) {
	a, err := NewAward(awardParams(economySaver, 1), nil)
	require.NoError(t, err)

	assert.Nil(t, a.Flight())
	assert.Nil(t, a.Segments())
	assert.False(t, a.MixedCabin())
}

func TestAward_String(t *testing.T) {
	p := awardParams(economySaver, 2)
	p.Mileage = 35000
	p.Waitlisted = true
	a, err := NewAward(p, mustFlight(t, []Segment{ua851(t)}))
	require.NoError(t, err)

	assert.Equal(t, "UA X economy x2 35000 mi (waitlisted)", a.String())
}

func TestAward_MarshalJSON(t *testing.T) {
	a, err := NewAward(awardParams(economySaver, 1), mustFlight(t, []Segment{ua851(t)}))
	require.NoError(t, err)

	data, err := json.Marshal(a)
	require.NoError(t, err)

	var decoded struct {
		AwardParams
		Segments []Segment `json:"segments"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.Partner)
	assert.False(t, *decoded.Partner)
	require.Len(t, decoded.Segments, 1)
	assert.Equal(t, CabinEconomy, decoded.Segments[0].Cabin())
}

func boolPtr(b bool) *bool { return &b }
