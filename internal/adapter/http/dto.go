package http

// AwardDTO is one award with its flight.
type AwardDTO struct {
	Engine     string    `json:"engine"`
	Fare       FareDTO   `json:"fare"`
	Cabin      string    `json:"cabin"`
	Cabins     []string  `json:"cabins"`
	Mixed      bool      `json:"mixed"`
	Partner    bool      `json:"partner"`
	Quantity   int       `json:"quantity"`
	Exact      bool      `json:"exact"`
	Waitlisted bool      `json:"waitlisted"`
	Mileage    int       `json:"mileage,omitempty"`
	Fees       string    `json:"fees,omitempty"`
	Flight     FlightDTO `json:"flight"`
}

// FareDTO represents a booking class.
type FareDTO struct {
	Code  string `json:"code"`
	Name  string `json:"name,omitempty"`
	Saver bool   `json:"saver"`
}

// FlightDTO represents a flight: one or more segments.
type FlightDTO struct {
	Key        string       `json:"key"`
	From       string       `json:"from"`
	To         string       `json:"to"`
	Date       string       `json:"date"`
	Departure  string       `json:"departure"`
	Arrival    string       `json:"arrival"`
	Duration   DurationDTO  `json:"duration"`
	Stops      int          `json:"stops"`
	LagDays    int          `json:"lag_days"`
	Airlines   []string     `json:"airlines"`
	Segments   []SegmentDTO `json:"segments"`
	MinLayover *int         `json:"min_layover,omitempty"`
}

// SegmentDTO represents one flight leg.
type SegmentDTO struct {
	Flight    string `json:"flight"`
	Airline   string `json:"airline"`
	Aircraft  string `json:"aircraft,omitempty"`
	From      string `json:"from"`
	To        string `json:"to"`
	Date      string `json:"date"`
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
	LagDays   int    `json:"lag_days,omitempty"`
	Cabin     string `json:"cabin,omitempty"`
}

// DurationDTO represents flight duration.
type DurationDTO struct {
	TotalMinutes int    `json:"total_minutes"`
	Formatted    string `json:"formatted"`
}

// RequestDTO is one stored search.
type RequestDTO struct {
	ID         string   `json:"id"`
	Engine     string   `json:"engine"`
	Partners   bool     `json:"partners"`
	From       string   `json:"from"`
	To         string   `json:"to"`
	DepartDate string   `json:"depart_date"`
	ReturnDate string   `json:"return_date,omitempty"`
	Cabin      string   `json:"cabin"`
	Quantity   int      `json:"quantity"`
	CreatedAt  string   `json:"created_at"`
	Assets     []string `json:"assets"`
}

// RequestDetailDTO is a stored search with its awards.
type RequestDetailDTO struct {
	RequestDTO
	Awards []AwardDTO `json:"awards"`
}

// EngineDTO describes a configured airline.
type EngineDTO struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Adapter       string    `json:"adapter"`
	LoginRequired bool      `json:"login_required"`
	Modifiable    []string  `json:"modifiable"`
	Throttled     bool      `json:"throttled"`
	Fares         []FareDTO `json:"fares"`
}

// AwardsResponseDTO is the payload of GET /api/v1/awards.
type AwardsResponseDTO struct {
	Metadata AwardsMetadataDTO `json:"metadata"`
	Awards   []AwardDTO        `json:"awards"`
}

// AwardsMetadataDTO reports how the award list was selected.
type AwardsMetadataDTO struct {
	// Stored is the number of awards matching the storage filters
	Stored int `json:"stored"`

	// TotalResults is the number of awards returned
	TotalResults int    `json:"total_results"`
	SortBy       string `json:"sort_by"`
}
