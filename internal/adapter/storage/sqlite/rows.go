package sqlite

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
)

// RequestRow is a row of the requests table: one finished search.
type RequestRow struct {
	ID         string
	Engine     string
	Partners   bool
	FromCity   string
	ToCity     string
	DepartDate string
	ReturnDate string
	Cabin      string
	Quantity   int
	Assets     domain.Assets
	CreatedAt  time.Time
}

// NewRequestRow maps results to a row. Assets written to disk keep only
// their path; in-memory assets keep their contents.
func NewRequestRow(results *domain.Results) RequestRow {
	p := results.Query().Params()
	return RequestRow{
		ID:         results.ID(),
		Engine:     results.Engine(),
		Partners:   p.Partners,
		FromCity:   p.FromCity,
		ToCity:     p.ToCity,
		DepartDate: p.DepartDate,
		ReturnDate: p.ReturnDate,
		Cabin:      p.Cabin,
		Quantity:   p.Quantity,
		Assets:     storedAssets(results.Assets()),
		CreatedAt:  results.CreatedAt(),
	}
}

// Query rebuilds the query of the request.
func (r RequestRow) Query() (*domain.Query, error) {
	return domain.NewQuery(domain.QueryParams{
		Engine:     r.Engine,
		Partners:   r.Partners,
		Cabin:      r.Cabin,
		Quantity:   r.Quantity,
		FromCity:   r.FromCity,
		ToCity:     r.ToCity,
		DepartDate: r.DepartDate,
		ReturnDate: r.ReturnDate,
	})
}

// Results restores the search so its assets can be parsed again. Assets
// written to disk are read through store.
func (r RequestRow) Results(registry *domain.Registry, store domain.AssetStore) (*domain.Results, error) {
	query, err := r.Query()
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", r.ID, err)
	}
	data, err := json.Marshal(struct {
		ID        string        `json:"id"`
		Engine    string        `json:"engine"`
		Query     *domain.Query `json:"query"`
		CreatedAt time.Time     `json:"createdAt"`
		Assets    domain.Assets `json:"assets"`
	}{r.ID, r.Engine, query, r.CreatedAt, r.Assets})
	if err != nil {
		return nil, err
	}
	return domain.LoadResults(data, registry, store)
}

func storedAssets(assets domain.Assets) domain.Assets {
	strip := func(in []domain.Asset) []domain.Asset {
		out := make([]domain.Asset, len(in))
		for i, a := range in {
			out[i] = domain.Asset{Name: a.Name, Path: a.Path}
			if a.Path == "" {
				out[i].Contents = a.Contents
			}
		}
		return out
	}
	return domain.Assets{
		HTML:       strip(assets.HTML),
		JSON:       strip(assets.JSON),
		Screenshot: strip(assets.Screenshot),
	}
}

// AwardRow is a row of the awards table. The scalar columns are
// denormalized for querying; Fare and Segments hold everything needed to
// rebuild the award with its flight.
type AwardRow struct {
	ID         int64
	RequestID  string
	Engine     string
	Partner    bool
	FromCity   string
	ToCity     string
	Date       string
	Cabin      domain.Cabin
	Mixed      bool
	Stops      int
	Quantity   int
	Exact      bool
	Waitlisted bool
	Mileage    int
	Fees       string

	// Airline, Flight and Aircraft join the segment values with spaces
	Airline  string
	Flight   string
	Aircraft string

	FareCodes string
	Fare      domain.BookingClass
	Segments  []domain.SegmentParams
}

// NewAwardRow maps an award of request requestID to a row. The award must
// belong to a flight.
func NewAwardRow(requestID string, award *domain.Award) (AwardRow, error) {
	flight := award.Flight()
	if flight == nil {
		return AwardRow{}, fmt.Errorf("award %s: %w", award, domain.ErrOrphanedFlight)
	}

	segments := award.Segments()
	params := make([]domain.SegmentParams, len(segments))
	flights := make([]string, len(segments))
	aircraft := make([]string, 0, len(segments))
	for i, seg := range segments {
		params[i] = seg.Params()
		flights[i] = seg.Flight()
		if seg.Aircraft() != "" {
			aircraft = append(aircraft, seg.Aircraft())
		}
	}

	return AwardRow{
		RequestID:  requestID,
		Engine:     award.Engine(),
		Partner:    award.Partner(),
		FromCity:   flight.FromCity(),
		ToCity:     flight.ToCity(),
		Date:       flight.Date(),
		Cabin:      domain.HighestCabin(award.Cabins()),
		Mixed:      award.MixedCabin(),
		Stops:      flight.Stops(),
		Quantity:   award.Quantity(),
		Exact:      award.Exact(),
		Waitlisted: award.Waitlisted(),
		Mileage:    award.Mileage(),
		Fees:       award.Fees(),
		Airline:    strings.Join(flight.Airlines(), " "),
		Flight:     strings.Join(flights, " "),
		Aircraft:   strings.Join(aircraft, " "),
		FareCodes:  award.Fare().Code,
		Fare:       award.Fare(),
		Segments:   params,
	}, nil
}

// Award rebuilds the award and its flight. Segments are validated again.
func (r AwardRow) Award() (*domain.Award, error) {
	segments := make([]domain.Segment, len(r.Segments))
	cabins := make([]domain.Cabin, len(r.Segments))
	for i, p := range r.Segments {
		seg, err := domain.NewSegment(p)
		if err != nil {
			return nil, fmt.Errorf("award %d: segment %d: %w", r.ID, i, err)
		}
		segments[i] = seg
		cabins[i] = p.Cabin
	}

	partner := r.Partner
	flight, err := domain.NewFlight(segments, domain.AwardParams{
		Engine:     r.Engine,
		Partner:    &partner,
		Cabins:     cabins,
		Fare:       r.Fare,
		Quantity:   r.Quantity,
		Exact:      r.Exact,
		Waitlisted: r.Waitlisted,
		Mileage:    r.Mileage,
		Fees:       r.Fees,
	})
	if err != nil {
		return nil, fmt.Errorf("award %d: %w", r.ID, err)
	}
	return flight.Awards()[0], nil
}

func encodeJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
