package commands

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/airline/jsonapi"
	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/storage/sqlite"
	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/usecase"
	"github.com/flightplan-tool/flightplan-sub000/test/testutil"
)

func TestBuildQueries(t *testing.T) {
	base := searchOptions{
		engines:  []string{"ua", " nh "},
		from:     "ord",
		to:       "pek",
		start:    "2019-09-18",
		end:      "2019-09-20",
		stay:     7,
		cabin:    "business",
		quantity: 2,
	}

	queries, err := buildQueries(base)
	require.NoError(t, err)
	require.Len(t, queries, 2)
	require.Len(t, queries["UA"], 3)
	require.Len(t, queries["NH"], 3)

	last := queries["UA"][2]
	assert.Equal(t, "ORD", last.FromCity())
	assert.Equal(t, "2019-09-20", last.DepartDate().Format(domain.DateLayout))
	assert.Equal(t, "2019-09-27", last.ReturnDate().Format(domain.DateLayout))
	assert.Equal(t, domain.CabinBusiness, last.Cabin())
	assert.Equal(t, 2, last.Quantity())

	oneWay := base
	oneWay.engines = []string{"UA"}
	oneWay.end = ""
	oneWay.stay = 0
	queries, err = buildQueries(oneWay)
	require.NoError(t, err)
	require.Len(t, queries["UA"], 1)
	assert.True(t, queries["UA"][0].OneWay())
}

func TestBuildQueries_Errors(t *testing.T) {
	valid := searchOptions{engines: []string{"UA"}, from: "ORD", to: "PEK", start: "2019-09-18", cabin: "economy", quantity: 1}

	tests := []struct {
		name   string
		mutate func(o *searchOptions)
	}{
		{name: "bad start", mutate: func(o *searchOptions) { o.start = "18/09/2019" }},
		{name: "bad end", mutate: func(o *searchOptions) { o.end = "soon" }},
		{name: "end before start", mutate: func(o *searchOptions) { o.end = "2019-09-01" }},
		{name: "negative stay", mutate: func(o *searchOptions) { o.stay = -1 }},
		{name: "no engine", mutate: func(o *searchOptions) { o.engines = []string{" "} }},
		{name: "same airports", mutate: func(o *searchOptions) { o.to = "ORD" }},
		{name: "bad cabin", mutate: func(o *searchOptions) { o.cabin = "coach" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid
			tt.mutate(&opts)
			_, err := buildQueries(opts)
			assert.ErrorIs(t, err, domain.ErrInvalidQuery)
		})
	}
}

func TestAwardsOptions_Queries(t *testing.T) {
	opts := awardsOptions{
		engine:      "UA",
		from:        "ORD",
		cabin:       "Business",
		maxStops:    0,
		airlines:    []string{"UA"},
		saver:       true,
		minQuantity: 2,
		sortBy:      "mileage",
		limit:       10,
	}

	storeQuery, awardQuery, err := opts.queries()
	require.NoError(t, err)
	assert.Equal(t, domain.CabinBusiness, storeQuery.Cabin)
	require.NotNil(t, storeQuery.MaxStops)
	assert.Zero(t, *storeQuery.MaxStops)
	assert.Equal(t, domain.SortByMileage, awardQuery.SortBy)
	assert.True(t, awardQuery.Filter.SaverOnly)
	assert.Equal(t, 10, awardQuery.Limit)

	opts.maxStops = -1
	storeQuery, _, err = opts.queries()
	require.NoError(t, err)
	assert.Nil(t, storeQuery.MaxStops)

	opts.sortBy = "price"
	_, _, err = opts.queries()
	assert.Error(t, err)

	opts.sortBy = "best"
	opts.cabin = "coach"
	_, _, err = opts.queries()
	assert.Error(t, err)
}

func fixtureAwards(t *testing.T) (*domain.Results, []*domain.Award) {
	t.Helper()
	cfg := testutil.AirlineConfig("https://awards.example.com", false)
	results := domain.NewResults("UA", testutil.MustQuery(t), domain.ResultsOptions{
		Parser:    jsonapi.NewParser(cfg),
		CreatedAt: time.Date(2019, 9, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, results.SaveJSON(context.Background(), "results", testutil.AwardFixture(t)))
	awards, err := results.Awards(context.Background())
	require.NoError(t, err)
	return results, awards
}

func TestRenderAwards(t *testing.T) {
	_, awards := fixtureAwards(t)
	awards = usecase.SortAwards(awards, domain.SortByDeparture)

	var buf bytes.Buffer
	renderAwards(&buf, awards)
	out := buf.String()

	assert.Contains(t, out, "UA1148 UA889")
	assert.Contains(t, out, "ORD-PEK")
	assert.Contains(t, out, "+1")
	assert.Contains(t, out, "partner, waitlisted")
	assert.Contains(t, out, "mixed")
	assert.Contains(t, out, "9+ seats")
}

func TestRenderRequests(t *testing.T) {
	results, _ := fixtureAwards(t)
	row := sqlite.NewRequestRow(results)
	oneWay := row
	oneWay.ID = "one-way-request"
	oneWay.ReturnDate = ""

	var buf bytes.Buffer
	renderRequests(&buf, []sqlite.RequestRow{row, oneWay})
	out := buf.String()

	assert.Contains(t, out, results.ID())
	assert.Contains(t, out, "2019-09-25")
	assert.Contains(t, out, "one-way")
}

func TestRenderSummaries(t *testing.T) {
	failed := errors.New("blocked")
	query := testutil.MustQuery(t)

	var buf bytes.Buffer
	renderSummaries(&buf, []usecase.JobResult{
		{Engine: "NH", Err: failed, Summary: usecase.RunSummary{Engine: "NH", Stopped: true}},
		{Engine: "UA", Summary: usecase.RunSummary{
			Engine:   "UA",
			Searched: 1,
			Failed:   1,
			Awards:   7,
			Outcomes: []usecase.QueryOutcome{{Query: query, Err: domain.ErrNavigation}},
		}},
	})
	out := buf.String()

	assert.Contains(t, out, "blocked")
	assert.Contains(t, out, "incomplete")
	assert.Contains(t, out, "navigation failed")
}

func TestRenderParse(t *testing.T) {
	results, _ := fixtureAwards(t)
	row := sqlite.NewRequestRow(results)

	var buf bytes.Buffer
	renderParse(&buf, []parseOutcome{
		{row: row, awards: 7},
		{row: row, err: &domain.IntegrityError{Err: domain.ErrFlightMismatch}},
	})
	assert.Contains(t, buf.String(), "integrity: flight schedule mismatch")
}
