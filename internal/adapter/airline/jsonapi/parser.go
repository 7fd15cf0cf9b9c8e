package jsonapi

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
)

// Parser turns the "results" JSON asset into flights and awards.
type Parser struct {
	cfg *domain.AirlineConfig
}

// NewParser returns the parser of the site configured by cfg.
func NewParser(cfg *domain.AirlineConfig) *Parser {
	return &Parser{cfg: cfg}
}

// NewSite bundles the searcher factory and parser of cfg.
func NewSite(cfg *domain.AirlineConfig) domain.Site {
	return domain.Site{Config: cfg, NewSearcher: NewSearcher, Parser: NewParser(cfg)}
}

// Parse implements domain.Parser. Itineraries of both directions become
// flights. Fares without seats are skipped, and so are itineraries left
// without any fare.
func (p *Parser) Parse(ctx context.Context, results *domain.Results) (domain.Parsed, error) {
	var resp SearchResponse
	if err := results.JSON(ctx, "results", &resp); err != nil {
		return domain.Parsed{}, p.fail(err)
	}
	if resp.Status != StatusComplete {
		return domain.Parsed{}, p.fail(fmt.Errorf("search status is %q", resp.Status))
	}

	var flights []*domain.Flight
	for _, trip := range resp.Trips {
		for i, it := range trip.Itineraries {
			flight, err := p.flight(it)
			if err != nil {
				err = fmt.Errorf("%s itinerary %d: %w", trip.Direction, i, err)
				if domain.IsIntegrityError(err) {
					return domain.Parsed{}, err
				}
				return domain.Parsed{}, p.fail(err)
			}
			if flight != nil {
				flights = append(flights, flight)
			}
		}
	}
	return domain.Parsed{Flights: flights}, nil
}

func (p *Parser) flight(it Itinerary) (*domain.Flight, error) {
	if len(it.Segments) == 0 {
		return nil, fmt.Errorf("no segments")
	}

	segments := make([]domain.Segment, 0, len(it.Segments))
	for _, s := range it.Segments {
		seg, err := domain.NewSegment(domain.SegmentParams{
			Airline:   s.Airline,
			Flight:    s.Flight,
			Aircraft:  s.Aircraft,
			FromCity:  s.From,
			ToCity:    s.To,
			Date:      s.Date,
			Departure: s.Departure,
			Arrival:   s.Arrival,
			Stops:     s.Stops,
			LagDays:   s.LagDays,
		})
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}

	awards := make([]domain.AwardParams, 0, len(it.Fares))
	for _, f := range it.Fares {
		if f.Seats <= 0 {
			continue
		}
		params, err := p.award(f)
		if err != nil {
			return nil, err
		}
		awards = append(awards, params)
	}
	if len(awards) == 0 {
		return nil, nil
	}
	return domain.NewFlight(segments, awards...)
}

func (p *Parser) award(f Fare) (domain.AwardParams, error) {
	fare, ok := p.cfg.Fare(f.Code)
	if !ok {
		return domain.AwardParams{}, fmt.Errorf("unknown fare code %q", f.Code)
	}

	var cabins []domain.Cabin
	for _, raw := range f.Cabins {
		c, err := domain.ParseCabin(raw)
		if err != nil {
			return domain.AwardParams{}, err
		}
		cabins = append(cabins, c)
	}

	params := domain.AwardParams{
		Engine:     p.cfg.ID,
		Cabins:     cabins,
		Fare:       fare,
		Quantity:   f.Seats,
		Exact:      f.Exact,
		Waitlisted: f.Waitlisted,
		Mileage:    f.Miles,
	}
	if f.Fees != nil && f.Fees.Currency != "" {
		params.Fees = strconv.FormatFloat(f.Fees.Amount, 'f', -1, 64) + " " + strings.ToUpper(f.Fees.Currency)
	}
	return params, nil
}

func (p *Parser) fail(err error) error {
	return domain.NewParserError(p.cfg.ID, err)
}

var _ domain.Parser = (*Parser)(nil)
