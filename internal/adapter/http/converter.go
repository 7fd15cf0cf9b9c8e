package http

import (
	"time"

	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/storage/sqlite"
	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/usecase"
)

// ToStoreQuery maps the filters the store can evaluate. The rest are
// applied by ToAwardQuery.
func ToStoreQuery(req *AwardsRequest) sqlite.AwardQuery {
	return sqlite.AwardQuery{
		Engine:   req.Engine,
		FromCity: req.From,
		ToCity:   req.To,
		Date:     req.Date,
		Cabin:    domain.Cabin(req.Cabin),
		MaxStops: req.MaxStops,
		Limit:    sqlite.DefaultLimit * 10,
	}
}

// ToAwardQuery maps the in-memory filters, sort order and limit.
func ToAwardQuery(req *AwardsRequest) usecase.AwardQuery {
	filter := &domain.AwardFilter{
		Airlines:    req.Airlines,
		SaverOnly:   req.Saver,
		MinQuantity: req.MinQuantity,
	}
	if req.DepartAfter != "" || req.DepartBefore != "" {
		filter.DepartureTimeRange = toTimeRange(req.DepartAfter, req.DepartBefore)
	}
	if req.MaxDuration != nil {
		filter.DurationRange = &domain.MinutesRange{MaxMinutes: req.MaxDuration}
	}

	limit := req.Limit
	if limit == 0 {
		limit = sqlite.DefaultLimit
	}
	return usecase.AwardQuery{
		Filter: filter,
		SortBy: domain.ParseSortOption(req.SortBy),
		Limit:  limit,
	}
}

// toTimeRange builds a departure window; a missing bound is open.
func toTimeRange(after, before string) *domain.TimeRange {
	if after == "" {
		after = "00:00"
	}
	if before == "" {
		before = "23:59"
	}
	start, err := time.Parse("15:04", after)
	if err != nil {
		return nil
	}
	end, err := time.Parse("15:04", before)
	if err != nil {
		return nil
	}
	return &domain.TimeRange{Start: start, End: end}
}

// ToAwardDTOs converts awards in order.
func ToAwardDTOs(awards []*domain.Award) []AwardDTO {
	out := make([]AwardDTO, len(awards))
	for i, a := range awards {
		out[i] = ToAwardDTO(a)
	}
	return out
}

// ToAwardDTO converts an award bound to a flight.
func ToAwardDTO(a *domain.Award) AwardDTO {
	cabins := make([]string, len(a.Cabins()))
	for i, c := range a.Cabins() {
		cabins[i] = string(c)
	}
	dto := AwardDTO{
		Engine:     a.Engine(),
		Fare:       toFareDTO(a.Fare()),
		Cabin:      string(domain.HighestCabin(a.Cabins())),
		Cabins:     cabins,
		Mixed:      a.MixedCabin(),
		Partner:    a.Partner(),
		Quantity:   a.Quantity(),
		Exact:      a.Exact(),
		Waitlisted: a.Waitlisted(),
		Mileage:    a.Mileage(),
		Fees:       a.Fees(),
	}
	if a.Flight() != nil {
		dto.Flight = toFlightDTO(a.Flight(), a.Segments())
	}
	return dto
}

func toFareDTO(f domain.BookingClass) FareDTO {
	return FareDTO{Code: f.Code, Name: f.Name, Saver: f.Saver}
}

func toFlightDTO(f *domain.Flight, segments []domain.Segment) FlightDTO {
	first, last := segments[0], segments[len(segments)-1]
	dto := FlightDTO{
		Key:       f.Key(),
		From:      f.FromCity(),
		To:        f.ToCity(),
		Date:      f.Date(),
		Departure: first.Departure(),
		Arrival:   last.Arrival(),
		Duration: DurationDTO{
			TotalMinutes: f.Duration(),
			Formatted:    domain.FormatMinutes(f.Duration()),
		},
		Stops:    f.Stops(),
		LagDays:  f.LagDays(),
		Airlines: f.Airlines(),
		Segments: make([]SegmentDTO, len(segments)),
	}
	if len(segments) > 1 {
		layover := f.MinLayover()
		dto.MinLayover = &layover
	}
	for i, seg := range segments {
		dto.Segments[i] = SegmentDTO{
			Flight:    seg.Flight(),
			Airline:   seg.Airline(),
			Aircraft:  seg.Aircraft(),
			From:      seg.FromCity(),
			To:        seg.ToCity(),
			Date:      seg.Date(),
			Departure: seg.Departure(),
			Arrival:   seg.Arrival(),
			LagDays:   seg.LagDays(),
			Cabin:     string(seg.Cabin()),
		}
	}
	return dto
}

// ToRequestDTO converts a stored request.
func ToRequestDTO(r sqlite.RequestRow) RequestDTO {
	assets := make([]string, 0, len(r.Assets.HTML)+len(r.Assets.JSON)+len(r.Assets.Screenshot))
	for _, list := range [][]domain.Asset{r.Assets.HTML, r.Assets.JSON, r.Assets.Screenshot} {
		for _, a := range list {
			name := a.Path
			if name == "" {
				name = a.Name
			}
			assets = append(assets, name)
		}
	}
	return RequestDTO{
		ID:         r.ID,
		Engine:     r.Engine,
		Partners:   r.Partners,
		From:       r.FromCity,
		To:         r.ToCity,
		DepartDate: r.DepartDate,
		ReturnDate: r.ReturnDate,
		Cabin:      r.Cabin,
		Quantity:   r.Quantity,
		CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
		Assets:     assets,
	}
}

// ToEngineDTO describes an airline configuration.
func ToEngineDTO(cfg *domain.AirlineConfig) EngineDTO {
	modifiable := make([]string, len(cfg.Modifiable))
	for i, f := range cfg.Modifiable {
		modifiable[i] = string(f)
	}
	fares := make([]FareDTO, len(cfg.Fares))
	for i, f := range cfg.Fares {
		fares[i] = toFareDTO(f)
	}
	return EngineDTO{
		ID:            cfg.ID,
		Name:          cfg.Name,
		Adapter:       cfg.Adapter,
		LoginRequired: cfg.LoginRequired,
		Modifiable:    modifiable,
		Throttled:     !cfg.Throttling.Disabled,
		Fares:         fares,
	}
}
