package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
)

// TestIsValidTimeFormat tests the time format validation function.
func TestIsValidTimeFormat(t *testing.T) {
	tests := []struct {
		name     string
		timeStr  string
		expected bool
	}{
		// Valid formats
		{name: "valid morning time", timeStr: "08:00", expected: true},
		{name: "valid noon time", timeStr: "12:00", expected: true},
		{name: "valid evening time", timeStr: "18:30", expected: true},
		{name: "valid midnight", timeStr: "00:00", expected: true},
		{name: "valid end of day", timeStr: "23:59", expected: true},
		{name: "valid single digit minute", timeStr: "10:05", expected: true},

		// Invalid hours
		{name: "hour too high", timeStr: "24:00", expected: false},
		{name: "hour way too high", timeStr: "25:00", expected: false},
		{name: "hour negative", timeStr: "-01:00", expected: false},

		// Invalid minutes
		{name: "minute too high", timeStr: "12:60", expected: false},
		{name: "minute way too high", timeStr: "12:99", expected: false},
		{name: "minute negative", timeStr: "12:-01", expected: false},

		// Invalid formats
		{name: "missing colon", timeStr: "1200", expected: false},
		{name: "single digit hour", timeStr: "8:00", expected: false},
		{name: "single digit minute", timeStr: "08:0", expected: false},
		{name: "empty string", timeStr: "", expected: false},
		{name: "only hour", timeStr: "12", expected: false},
		{name: "only minute", timeStr: ":30", expected: false},
		{name: "text", timeStr: "noon", expected: false},
		{name: "wrong separator", timeStr: "12-30", expected: false},
		{name: "too many parts", timeStr: "12:30:00", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isValidTimeFormat(tt.timeStr)
			assert.Equal(t, tt.expected, result, "isValidTimeFormat(%q) should be %v", tt.timeStr, tt.expected)
		})
	}
}

func bindQuery(t *testing.T, rawQuery string) (*AwardsRequest, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/awards?"+rawQuery, nil)
	return BindAwardsRequest(e.NewContext(req, httptest.NewRecorder()))
}

func TestBindAwardsRequest(t *testing.T) {
	req, err := bindQuery(t, "engine=ua&from=ord&to=pek&date=2019-09-18&cabin=Business"+
		"&maxStops=0&airlines=UA,%20ca&saver=true&minQuantity=2&departAfter=08:00&maxDuration=900&sortBy=mileage&limit=20")
	require.NoError(t, err)

	assert.Equal(t, "ua", req.Engine)
	assert.Equal(t, "ord", req.From)
	require.NotNil(t, req.MaxStops)
	assert.Equal(t, 0, *req.MaxStops)
	require.NotNil(t, req.MaxDuration)
	assert.Equal(t, 900, *req.MaxDuration)
	assert.Equal(t, []string{"UA", "ca"}, req.Airlines)
	assert.True(t, req.Saver)
	assert.Equal(t, 2, req.MinQuantity)
	assert.Equal(t, 20, req.Limit)

	require.NoError(t, req.Validate())
	assert.Equal(t, "UA", req.Engine)
	assert.Equal(t, "ORD", req.From)
	assert.Equal(t, "PEK", req.To)
	assert.Equal(t, "business", req.Cabin)
	assert.Equal(t, []string{"UA", "CA"}, req.Airlines)
}

func TestBindAwardsRequest_Empty(t *testing.T) {
	req, err := bindQuery(t, "")
	require.NoError(t, err)
	assert.Nil(t, req.MaxStops)
	assert.Nil(t, req.MaxDuration)
	assert.Empty(t, req.Airlines)
	assert.NoError(t, req.Validate())
}

func TestBindAwardsRequest_TypeErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		field string
	}{
		{name: "limit", query: "limit=ten", field: "limit"},
		{name: "max stops", query: "maxStops=direct", field: "maxStops"},
		{name: "saver", query: "saver=maybe", field: "saver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bindQuery(t, tt.query)
			var bindErr *echo.BindingError
			require.ErrorAs(t, err, &bindErr)
			assert.Equal(t, tt.field, bindErr.Field)
		})
	}
}

func TestAwardsRequest_Validate(t *testing.T) {
	negative := -1
	tests := []struct {
		name      string
		req       AwardsRequest
		wantField string
	}{
		{name: "bad origin", req: AwardsRequest{From: "CHICAGO"}, wantField: "from"},
		{name: "bad destination", req: AwardsRequest{To: "P3K"}, wantField: "to"},
		{name: "bad date format", req: AwardsRequest{Date: "18/09/2019"}, wantField: "date"},
		{name: "impossible date", req: AwardsRequest{Date: "2019-02-30"}, wantField: "date"},
		{name: "unknown cabin", req: AwardsRequest{Cabin: "coach"}, wantField: "cabin"},
		{name: "negative stops", req: AwardsRequest{MaxStops: &negative}, wantField: "maxStops"},
		{name: "negative duration", req: AwardsRequest{MaxDuration: &negative}, wantField: "maxDuration"},
		{name: "negative quantity", req: AwardsRequest{MinQuantity: -2}, wantField: "minQuantity"},
		{name: "bad airline", req: AwardsRequest{Airlines: []string{"UAL"}}, wantField: "airlines[0]"},
		{name: "bad depart after", req: AwardsRequest{DepartAfter: "8am"}, wantField: "departAfter"},
		{name: "bad depart before", req: AwardsRequest{DepartBefore: "24:00"}, wantField: "departBefore"},
		{name: "unknown sort", req: AwardsRequest{SortBy: "price"}, wantField: "sortBy"},
		{name: "limit too large", req: AwardsRequest{Limit: MaxLimit + 1}, wantField: "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			var errs *ValidationErrors
			require.ErrorAs(t, err, &errs)
			assert.Contains(t, errs.ToMap(), tt.wantField)
		})
	}
}

func TestAwardsRequest_ValidateCollectsAll(t *testing.T) {
	req := AwardsRequest{From: "X", To: "Y", SortBy: "cheapest"}
	err := req.Validate()

	var errs *ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs.Errors, 3)
	assert.Equal(t, errs.Errors[0].Message, errs.Error())
}

func TestRequestsRequest_Validate(t *testing.T) {
	req := RequestsRequest{Engine: " ua ", Limit: 10}
	require.NoError(t, req.Validate())
	assert.Equal(t, "UA", req.Engine)

	req = RequestsRequest{Limit: -1}
	assert.Error(t, req.Validate())
}

func TestToAwardQuery(t *testing.T) {
	maxDuration := 600
	q := ToAwardQuery(&AwardsRequest{
		Saver:        true,
		MinQuantity:  2,
		Airlines:     []string{"UA"},
		DepartBefore: "12:00",
		MaxDuration:  &maxDuration,
		SortBy:       "duration",
	})

	assert.Equal(t, domain.SortByDuration, q.SortBy)
	assert.Equal(t, 100, q.Limit)
	require.NotNil(t, q.Filter)
	assert.True(t, q.Filter.SaverOnly)
	assert.Equal(t, 2, q.Filter.MinQuantity)
	require.NotNil(t, q.Filter.DepartureTimeRange)
	assert.Equal(t, 0, q.Filter.DepartureTimeRange.Start.Hour())
	assert.Equal(t, 12, q.Filter.DepartureTimeRange.End.Hour())
	require.NotNil(t, q.Filter.DurationRange)
	assert.Equal(t, 600, *q.Filter.DurationRange.MaxMinutes)

	defaults := ToAwardQuery(&AwardsRequest{})
	assert.Equal(t, domain.SortByBestValue, defaults.SortBy)
	assert.Nil(t, defaults.Filter.DepartureTimeRange)
	assert.Nil(t, defaults.Filter.DurationRange)
}
