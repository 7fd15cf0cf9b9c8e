package jsonapi

// Search status values reported by the award API.
const (
	StatusPending  = "pending"
	StatusComplete = "complete"
	StatusError    = "error"
)

// Directions of a trip in a search response.
const (
	DirectionOutbound = "outbound"
	DirectionInbound  = "inbound"
)

// SearchRequest is the body posted to the award search endpoint.
type SearchRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	DepartDate  string `json:"departDate"`
	ReturnDate  string `json:"returnDate,omitempty"`
	Cabin       string `json:"cabin"`
	Passengers  int    `json:"passengers"`
	Partners    bool   `json:"partners"`
}

// ModifyRequest changes the dates or passenger count of an existing search.
type ModifyRequest struct {
	DepartDate string `json:"departDate,omitempty"`
	ReturnDate string `json:"returnDate,omitempty"`
	Passengers int    `json:"passengers,omitempty"`
}

// SearchResponse is the award API response, both for the initial post and
// for status polls.
type SearchResponse struct {
	SearchID string `json:"searchId"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Trips    []Trip `json:"trips"`

	// Calendar is the date range offered by the search page, when reported
	Calendar *Calendar `json:"calendar,omitempty"`
}

// Calendar bounds the dates a search can be moved to without a new search.
type Calendar struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// Trip holds the itineraries of one direction.
type Trip struct {
	Direction   string      `json:"direction"`
	Date        string      `json:"date"`
	Itineraries []Itinerary `json:"itineraries"`
}

// Itinerary is one bookable sequence of segments with its award fares.
type Itinerary struct {
	Segments []Segment `json:"segments"`
	Fares    []Fare    `json:"fares"`
}

// Segment is a flight leg as reported by the API.
type Segment struct {
	Flight    string `json:"flight"`
	Airline   string `json:"airline,omitempty"`
	Aircraft  string `json:"aircraft,omitempty"`
	From      string `json:"from"`
	To        string `json:"to"`
	Date      string `json:"date"`
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
	LagDays   int    `json:"lagDays"`
	Stops     int    `json:"stops"`
}

// Fare is award availability for one booking class on an itinerary.
type Fare struct {
	Code       string   `json:"code"`
	Cabins     []string `json:"cabins,omitempty"`
	Seats      int      `json:"seats"`
	Exact      bool     `json:"exact"`
	Waitlisted bool     `json:"waitlisted"`
	Miles      int      `json:"miles"`
	Fees       *Money   `json:"fees,omitempty"`
}

// Money is an amount with its ISO currency.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}
