// Package testutil provides test helper functions for unit and end-to-end tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
)

// ProjectRoot returns the module root directory.
func ProjectRoot(t *testing.T) string {
	t.Helper()

	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// testutil is in test/testutil
	return filepath.Join(filepath.Dir(currentFile), "..", "..")
}

// LoadFixture reads a file given relative to the module root.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(ProjectRoot(t), filepath.FromSlash(path)))
	if err != nil {
		t.Fatalf("Failed to load fixture %s: %v", path, err)
	}
	return data
}

// AwardFixture returns the ORD-PEK round-trip award search response used
// across the end-to-end tests. It holds 4 bookable flights and 7 awards.
func AwardFixture(t *testing.T) []byte {
	t.Helper()
	return LoadFixture(t, "internal/adapter/airline/jsonapi/testdata/ord-pek.json")
}

// AirlineConfig returns a valid airline configuration for a site at
// baseURL. Throttling is disabled.
func AirlineConfig(baseURL string, loginRequired bool) *domain.AirlineConfig {
	return &domain.AirlineConfig{
		ID:                "UA",
		Name:              "United MileagePlus",
		Adapter:           "jsonapi",
		HomeURL:           baseURL + "/",
		SearchURL:         baseURL + "/award",
		LoginRequired:     loginRequired,
		NavigationTimeout: domain.Duration(10 * time.Second),
		MaxDays:           337,
		Modifiable:        []domain.QueryField{domain.FieldDepartDate, domain.FieldReturnDate, domain.FieldQuantity},
		Throttling:        domain.ThrottleProfile{Disabled: true},
		Fares: []domain.BookingClass{
			{Code: "X", Cabin: domain.CabinEconomy, Saver: true, Name: "Economy Saver"},
			{Code: "Y", Cabin: domain.CabinEconomy, Name: "Economy Everyday"},
			{Code: "XN", Cabin: domain.CabinPremium, Saver: true, Name: "Premium Plus Saver"},
			{Code: "I", Cabin: domain.CabinBusiness, Saver: true, Name: "Business Saver"},
			{Code: "O", Cabin: domain.CabinFirst, Saver: true, Name: "First Saver"},
		},
	}
}

// MustQuery builds a query, failing the test on error. The defaults are an
// ORD-PEK economy round trip for one passenger.
func MustQuery(t *testing.T, mutate ...func(*domain.QueryParams)) *domain.Query {
	t.Helper()

	params := domain.QueryParams{
		Engine:     "UA",
		Cabin:      "economy",
		Quantity:   1,
		FromCity:   "ORD",
		ToCity:     "PEK",
		DepartDate: "2019-09-18",
		ReturnDate: "2019-09-25",
	}
	for _, m := range mutate {
		m(&params)
	}
	q, err := domain.NewQuery(params)
	if err != nil {
		t.Fatalf("Failed to build query: %v", err)
	}
	return q
}

// MustParseTime parses a time string in RFC3339 format.
// It fails the test if parsing fails.
func MustParseTime(t *testing.T, dateStr string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, dateStr)
	if err != nil {
		t.Fatalf("Failed to parse time %s: %v", dateStr, err)
	}
	return parsed
}

// MustParseDate parses a date string in YYYY-MM-DD format.
// It fails the test if parsing fails.
func MustParseDate(t *testing.T, dateStr string) time.Time {
	t.Helper()
	parsed, err := time.Parse(domain.DateLayout, dateStr)
	if err != nil {
		t.Fatalf("Failed to parse date %s: %v", dateStr, err)
	}
	return parsed
}

// Ptr returns a pointer to the given value.
func Ptr[T any](v T) *T {
	return &v
}
