package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// feesRegex matches "<amount> <currency>", e.g. "5.60 USD".
var feesRegex = regexp.MustCompile(`^\d+(\.\d+)? [A-Z]{3}$`)

// AwardParams are the raw inputs of NewAward.
type AwardParams struct {
	// Engine is the id of the loyalty program offering the award
	Engine string `json:"engine"`

	// Partner overrides the derived partner flag when non-nil
	Partner *bool `json:"partner,omitempty"`

	// Cabins holds one cabin per segment; defaults to the fare cabin
	Cabins []Cabin `json:"cabins,omitempty"`

	// Fare is the booking class of the award
	Fare BookingClass `json:"fare"`

	// Quantity is the number of seats available (or a lower bound, see Exact)
	Quantity int `json:"quantity"`

	// Exact is false when Quantity is only a lower bound
	Exact bool `json:"exact"`

	// Waitlisted marks inventory pending confirmation
	Waitlisted bool `json:"waitlisted"`

	// Mileage is the miles cost; 0 when unknown
	Mileage int `json:"mileage,omitempty"`

	// Fees is the cash co-pay, "<amount> <currency>"
	Fees string `json:"fees,omitempty"`
}

// Award is one fare offer on a single flight.
type Award struct {
	p       AwardParams
	partner bool
	flight  *Flight
}

// NewAward validates params against flight. A nil flight produces an
// orphaned award, which Reconcile rejects.
func NewAward(params AwardParams, flight *Flight) (*Award, error) {
	params.Engine = strings.ToUpper(strings.TrimSpace(params.Engine))
	params.Fees = strings.TrimSpace(params.Fees)

	if params.Engine == "" {
		return nil, fmt.Errorf("award: engine is required")
	}
	if err := params.Fare.Validate(); err != nil {
		return nil, fmt.Errorf("award: %w", err)
	}
	if params.Quantity < 1 {
		return nil, fmt.Errorf("award %s: quantity must be a positive integer, got %d", params.Fare.Code, params.Quantity)
	}
	if params.Mileage < 0 {
		return nil, fmt.Errorf("award %s: mileage must not be negative", params.Fare.Code)
	}
	if params.Fees != "" && !feesRegex.MatchString(params.Fees) {
		return nil, fmt.Errorf("award %s: fees %q must look like \"<amount> <currency>\"", params.Fare.Code, params.Fees)
	}

	a := &Award{flight: flight}
	if flight != nil {
		if len(params.Cabins) == 0 {
			params.Cabins = make([]Cabin, len(flight.segments))
			for i := range params.Cabins {
				params.Cabins[i] = params.Fare.Cabin
			}
		}
		if len(params.Cabins) != len(flight.segments) {
			return nil, fmt.Errorf("award %s: %d cabins for %d segments", params.Fare.Code, len(params.Cabins), len(flight.segments))
		}
	}
	params.Cabins = append([]Cabin(nil), params.Cabins...)
	for _, c := range params.Cabins {
		if !c.IsValid() {
			return nil, fmt.Errorf("award %s: invalid cabin %q", params.Fare.Code, c)
		}
	}

	a.p = params
	switch {
	case params.Partner != nil:
		a.partner = *params.Partner
	case flight != nil:
		for _, seg := range flight.segments {
			if seg.Airline() != params.Engine {
				a.partner = true
				break
			}
		}
	}
	return a, nil
}

// Flight returns the flight the award belongs to.
func (a *Award) Flight() *Flight { return a.flight }

// Engine returns the id of the program offering the award.
func (a *Award) Engine() string { return a.p.Engine }

// Partner reports whether any segment is flown by another airline.
func (a *Award) Partner() bool { return a.partner }

// Cabins returns a copy of the per-segment cabins.
func (a *Award) Cabins() []Cabin {
	return append([]Cabin(nil), a.p.Cabins...)
}

// Fare returns the booking class.
func (a *Award) Fare() BookingClass { return a.p.Fare }

// Quantity returns the number of seats.
func (a *Award) Quantity() int { return a.p.Quantity }

// Exact reports whether Quantity is a precise count.
func (a *Award) Exact() bool { return a.p.Exact }

// Waitlisted reports whether the award is waitlisted.
func (a *Award) Waitlisted() bool { return a.p.Waitlisted }

// Mileage returns the miles cost, or 0 when unknown.
func (a *Award) Mileage() int { return a.p.Mileage }

// Fees returns the cash co-pay string.
func (a *Award) Fees() string { return a.p.Fees }

// MixedCabin reports whether the segments are booked in different cabins.
func (a *Award) MixedCabin() bool {
	if len(a.p.Cabins) < 2 {
		return false
	}
	for _, c := range a.p.Cabins[1:] {
		if c != a.p.Cabins[0] {
			return true
		}
	}
	return false
}

// Segments returns the flight's segments carrying this award's cabins.
func (a *Award) Segments() []Segment {
	if a.flight == nil {
		return nil
	}
	out := make([]Segment, len(a.flight.segments))
	for i, seg := range a.flight.segments {
		out[i] = seg.WithCabin(a.p.Cabins[i])
	}
	return out
}

// Params returns the normalized inputs, with the partner flag resolved.
func (a *Award) Params() AwardParams {
	p := a.p
	p.Cabins = a.Cabins()
	partner := a.partner
	p.Partner = &partner
	return p
}

// String returns e.g. "NH X economy x2 35000 mi".
func (a *Award) String() string {
	s := fmt.Sprintf("%s %s %s x%d", a.p.Engine, a.p.Fare.Code, HighestCabin(a.p.Cabins), a.p.Quantity)
	if a.p.Mileage > 0 {
		s += fmt.Sprintf(" %d mi", a.p.Mileage)
	}
	if a.p.Waitlisted {
		s += " (waitlisted)"
	}
	return s
}

// rebind returns a copy of a attached to flight.
func (a *Award) rebind(flight *Flight) *Award {
	clone := *a
	clone.flight = flight
	return &clone
}

// awardJSON is the serialized form of an award with its flight.
type awardJSON struct {
	AwardParams
	Segments []Segment `json:"segments"`
}

// MarshalJSON encodes the award together with its segments.
func (a *Award) MarshalJSON() ([]byte, error) {
	return json.Marshal(awardJSON{AwardParams: a.Params(), Segments: a.Segments()})
}
