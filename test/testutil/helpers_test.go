package testutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
)

func TestMustParseTime(t *testing.T) {
	tests := []struct {
		name    string
		dateStr string
	}{
		{name: "valid RFC3339", dateStr: "2019-09-18T12:55:00Z"},
		{name: "valid RFC3339 with timezone", dateStr: "2019-09-18T12:55:00-05:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MustParseTime(t, tt.dateStr)
			assert.False(t, result.IsZero())
		})
	}
}

func TestMustParseDate(t *testing.T) {
	tests := []struct {
		name      string
		dateStr   string
		wantYear  int
		wantMonth time.Month
		wantDay   int
	}{
		{name: "valid date", dateStr: "2019-09-18", wantYear: 2019, wantMonth: time.September, wantDay: 18},
		{name: "leap year date", dateStr: "2020-02-29", wantYear: 2020, wantMonth: time.February, wantDay: 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MustParseDate(t, tt.dateStr)
			assert.Equal(t, tt.wantYear, result.Year())
			assert.Equal(t, tt.wantMonth, result.Month())
			assert.Equal(t, tt.wantDay, result.Day())
		})
	}
}

func TestPtr(t *testing.T) {
	intVal := Ptr(42)
	require.NotNil(t, intVal)
	assert.Equal(t, 42, *intVal)

	boolVal := Ptr(true)
	require.NotNil(t, boolVal)
	assert.True(t, *boolVal)
}

func TestMustQuery(t *testing.T) {
	q := MustQuery(t)
	assert.Equal(t, "ORD", q.FromCity())
	assert.False(t, q.OneWay())

	oneWay := MustQuery(t, func(p *domain.QueryParams) { p.ReturnDate = "" })
	assert.True(t, oneWay.OneWay())
}

func TestAirlineConfig(t *testing.T) {
	cfg := AirlineConfig("http://127.0.0.1:8080", true)
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.LoginRequired)
	assert.Equal(t, "http://127.0.0.1:8080/award", cfg.SearchURL)
}

func TestAwardFixture(t *testing.T) {
	var doc struct {
		Status string            `json:"status"`
		Trips  []json.RawMessage `json:"trips"`
	}
	require.NoError(t, json.Unmarshal(AwardFixture(t), &doc))
	assert.Equal(t, "complete", doc.Status)
	assert.Len(t, doc.Trips, 2)
}
