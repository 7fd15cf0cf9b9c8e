package usecase

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/timeutil"
)

// testNow is the fixed clock of every engine test.
const testNow = "2019-09-01T12:00:00Z"

var (
	economySaver  = domain.BookingClass{Code: "X", Cabin: domain.CabinEconomy, Saver: true, Name: "Economy Saver"}
	economyStd    = domain.BookingClass{Code: "Y", Cabin: domain.CabinEconomy, Saver: false, Name: "Economy Standard"}
	businessSaver = domain.BookingClass{Code: "I", Cabin: domain.CabinBusiness, Saver: true, Name: "Business Saver"}
	firstStd      = domain.BookingClass{Code: "O", Cabin: domain.CabinFirst, Saver: false, Name: "First Standard"}
)

// newTestConfig returns a valid airline configuration.
func newTestConfig() *domain.AirlineConfig {
	return &domain.AirlineConfig{
		ID:                "UA",
		Name:              "MileagePlus",
		Adapter:           "jsonapi",
		HomeURL:           "https://awards.example.com/",
		SearchURL:         "https://awards.example.com/search",
		WaitUntil:         "load",
		NavigationTimeout: domain.Duration(30 * time.Second),
		MaxDays:           337,
		Modifiable:        []domain.QueryField{domain.FieldDepartDate, domain.FieldReturnDate},
		Throttling: domain.ThrottleProfile{
			RequestsPerHour:      60,
			RestPeriod:           domain.DurationRange{Min: 15 * time.Minute, Max: 30 * time.Minute},
			DelayBetweenRequests: domain.FixedDuration(5 * time.Second),
		},
		Fares: []domain.BookingClass{economySaver, economyStd, businessSaver, firstStd},
	}
}

func defaultQueryParams() domain.QueryParams {
	return domain.QueryParams{
		Engine:     "UA",
		Cabin:      "economy",
		Quantity:   1,
		FromCity:   "ORD",
		ToCity:     "PEK",
		DepartDate: "2019-09-18",
		ReturnDate: "2019-09-25",
	}
}

// mustQuery builds a query from the defaults, adjusted by mutate.
func mustQuery(t *testing.T, mutate ...func(*domain.QueryParams)) *domain.Query {
	t.Helper()
	p := defaultQueryParams()
	for _, m := range mutate {
		m(&p)
	}
	q, err := domain.NewQuery(p)
	require.NoError(t, err)
	return q
}

func mustSegment(t *testing.T, flight, from, to, date, departure, arrival string, lagDays int) domain.Segment {
	t.Helper()
	seg, err := domain.NewSegment(domain.SegmentParams{
		Flight: flight, FromCity: from, ToCity: to,
		Date: date, Departure: departure, Arrival: arrival, LagDays: lagDays,
	})
	require.NoError(t, err)
	return seg
}

// ua851 is ORD 12:35 -> PEK 15:25+1, 13h50m.
func ua851(t *testing.T) domain.Segment {
	return mustSegment(t, "UA851", "ORD", "PEK", "2019-09-18", "12:35", "15:25", 1)
}

// ua889 is SFO 11:05 -> PEK 15:00+1, 12h55m.
func ua889(t *testing.T) domain.Segment {
	return mustSegment(t, "UA889", "SFO", "PEK", "2019-09-18", "11:05", "15:00", 1)
}

// ua1148 is ORD 07:00 -> SFO 09:30 on the same day as ua889.
func ua1148(t *testing.T) domain.Segment {
	return mustSegment(t, "UA1148", "ORD", "SFO", "2019-09-18", "07:00", "09:30", 0)
}

// mustAward builds a single-award flight over segments and returns the award.
func mustAward(t *testing.T, fare domain.BookingClass, mileage int, segments ...domain.Segment) *domain.Award {
	t.Helper()
	f, err := domain.NewFlight(segments, domain.AwardParams{
		Engine: "UA", Fare: fare, Quantity: 2, Exact: true, Mileage: mileage,
	})
	require.NoError(t, err)
	require.Len(t, f.Awards(), 1)
	return f.Awards()[0]
}

// parserFunc adapts a function to domain.Parser.
type parserFunc func(ctx context.Context, results *domain.Results) (domain.Parsed, error)

func (f parserFunc) Parse(ctx context.Context, results *domain.Results) (domain.Parsed, error) {
	return f(ctx, results)
}

// fixedParser always parses into a direct ORD-PEK flight with one saver award.
func fixedParser(t *testing.T) domain.Parser {
	seg := ua851(t)
	return parserFunc(func(context.Context, *domain.Results) (domain.Parsed, error) {
		f, err := domain.NewFlight([]domain.Segment{seg}, domain.AwardParams{
			Engine: "UA", Fare: economySaver, Quantity: 2, Exact: true, Mileage: 35000,
		})
		if err != nil {
			return domain.Parsed{}, err
		}
		return domain.Parsed{Flights: []*domain.Flight{f}}, nil
	})
}

// newOKSession returns a session mock answering every request with an
// empty 200 page.
func newOKSession(ctrl *gomock.Controller) *domain.MockSession {
	return newStatusSession(ctrl, func(*domain.Request) int { return http.StatusOK })
}

// newStatusSession returns a session mock answering with the status chosen
// by status, tracking the current page.
func newStatusSession(ctrl *gomock.Controller, status func(req *domain.Request) int) *domain.MockSession {
	session := domain.NewMockSession(ctrl)

	var mu sync.Mutex
	var current *domain.Response
	session.EXPECT().Do(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *domain.Request) (*domain.Response, error) {
			mu.Lock()
			defer mu.Unlock()
			current = &domain.Response{
				URL:         req.URL,
				Status:      status(req),
				ContentType: "text/html",
				Body:        []byte("<html></html>"),
			}
			return current, nil
		}).AnyTimes()
	session.EXPECT().Current().DoAndReturn(func() *domain.Response {
		mu.Lock()
		defer mu.Unlock()
		return current
	}).AnyTimes()
	session.EXPECT().Screenshot(gomock.Any()).Return([]byte("png"), nil).AnyTimes()
	session.EXPECT().Cookies().Return(nil).AnyTimes()
	session.EXPECT().Close().Return(nil).AnyTimes()
	return session
}

// modifyingSearcher is a searcher that can also modify a prior search.
type modifyingSearcher struct {
	*domain.MockSearcher
	*domain.MockModifier
}

// authSearcher is a searcher of a site requiring login.
type authSearcher struct {
	*domain.MockSearcher
	*domain.MockAuthenticator
}

// validatingSearcher is a searcher with site-specific query rules.
type validatingSearcher struct {
	*domain.MockSearcher
	*domain.MockQueryValidator
}

// gateClock is a mock clock whose sleeps block until release is closed.
type gateClock struct {
	*timeutil.MockClock
	sleeping chan time.Duration
	release  chan struct{}
}

func newGateClock() *gateClock {
	return &gateClock{
		MockClock: timeutil.NewMockClockFromString(testNow),
		sleeping:  make(chan time.Duration, 8),
		release:   make(chan struct{}),
	}
}

func (c *gateClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeping <- d
	select {
	case <-c.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return c.MockClock.Sleep(ctx, d)
}

// minRange picks the lower bound of every range, for deterministic throttling.
func minRange(r domain.DurationRange) time.Duration { return r.Min }

type engineFixture struct {
	engine *Engine
	clock  *timeutil.MockClock
	site   domain.Site
}

// newTestEngine builds and initializes an engine over session and searcher.
func newTestEngine(t *testing.T, cfg *domain.AirlineConfig, searcher domain.Searcher, session domain.Session, opts ...EngineOption) engineFixture {
	t.Helper()

	clock := timeutil.NewMockClockFromString(testNow)
	site := domain.Site{
		Config: cfg,
		NewSearcher: func(domain.SiteEnv) (domain.Searcher, error) {
			return searcher, nil
		},
		Parser: fixedParser(t),
	}
	base := []EngineOption{
		WithSessionFactory(func(context.Context, domain.SessionOptions) (domain.Session, error) {
			return session, nil
		}),
		WithClock(clock),
		WithThrottleOptions(WithRandom(minRange)),
	}
	engine, err := NewEngine(site, append(base, opts...)...)
	require.NoError(t, err)
	require.NoError(t, engine.Initialize(context.Background(), InitOptions{
		Credentials: domain.Credentials{Username: "user", Password: "secret"},
	}))
	t.Cleanup(func() { _ = engine.Close() })

	return engineFixture{engine: engine, clock: clock, site: site}
}
