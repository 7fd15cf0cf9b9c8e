package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// DateLayout is the format of every calendar date in the system.
const DateLayout = "2006-01-02"

// airportCodeRegex matches valid IATA airport codes (3 uppercase letters).
var airportCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// dateRegex matches dates in YYYY-MM-DD format.
var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// QueryField names a search field that can differ between two queries.
type QueryField string

// Diffable query fields.
const (
	FieldEngine     QueryField = "engine"
	FieldPartners   QueryField = "partners"
	FieldCabin      QueryField = "cabin"
	FieldQuantity   QueryField = "quantity"
	FieldFromCity   QueryField = "fromCity"
	FieldToCity     QueryField = "toCity"
	FieldDepartDate QueryField = "departDate"
	FieldReturnDate QueryField = "returnDate"
	FieldOneWay     QueryField = "oneWay"
)

var queryFields = map[QueryField]bool{
	FieldEngine: true, FieldPartners: true, FieldCabin: true, FieldQuantity: true,
	FieldFromCity: true, FieldToCity: true, FieldDepartDate: true,
	FieldReturnDate: true, FieldOneWay: true,
}

// IsValid reports whether f is a known query field.
func (f QueryField) IsValid() bool {
	return queryFields[f]
}

// AssetOptions control where the raw assets of a search are written.
// An empty path keeps that asset type in memory.
type AssetOptions struct {
	HTMLPath       string `json:"htmlPath,omitempty"`
	JSONPath       string `json:"jsonPath,omitempty"`
	ScreenshotPath string `json:"screenshotPath,omitempty"`
	Compress       bool   `json:"compress,omitempty"`
}

// QueryParams are the raw inputs of NewQuery.
type QueryParams struct {
	Engine     string       `json:"engine"`
	Partners   bool         `json:"partners"`
	Cabin      string       `json:"cabin"`
	Quantity   int          `json:"quantity"`
	FromCity   string       `json:"fromCity"`
	ToCity     string       `json:"toCity"`
	DepartDate string       `json:"departDate"`
	ReturnDate string       `json:"returnDate,omitempty"`
	Assets     AssetOptions `json:"assets"`
}

// Query is a validated, immutable search request. Build a new Query to
// represent the next search.
type Query struct {
	p      QueryParams
	depart time.Time
	ret    time.Time
}

// NewQuery normalizes and validates params.
func NewQuery(params QueryParams) (*Query, error) {
	params.Engine = strings.ToUpper(strings.TrimSpace(params.Engine))
	params.FromCity = strings.ToUpper(strings.TrimSpace(params.FromCity))
	params.ToCity = strings.ToUpper(strings.TrimSpace(params.ToCity))
	params.Cabin = strings.ToLower(strings.TrimSpace(params.Cabin))
	params.DepartDate = strings.TrimSpace(params.DepartDate)
	params.ReturnDate = strings.TrimSpace(params.ReturnDate)

	if !airportCodeRegex.MatchString(params.FromCity) {
		return nil, NewValidationError(string(FieldFromCity), fmt.Sprintf("must be a valid 3-letter IATA code, got %q", params.FromCity))
	}
	if !airportCodeRegex.MatchString(params.ToCity) {
		return nil, NewValidationError(string(FieldToCity), fmt.Sprintf("must be a valid 3-letter IATA code, got %q", params.ToCity))
	}
	if params.FromCity == params.ToCity {
		return nil, NewValidationError(string(FieldToCity), "must differ from fromCity")
	}

	if !Cabin(params.Cabin).IsValid() {
		return nil, NewValidationError(string(FieldCabin), fmt.Sprintf("must be one of first, business, premium, economy; got %q", params.Cabin))
	}
	if params.Quantity < 1 {
		return nil, NewValidationError(string(FieldQuantity), "must be at least 1")
	}

	depart, err := parseDate(string(FieldDepartDate), params.DepartDate)
	if err != nil {
		return nil, err
	}

	q := &Query{p: params, depart: depart}
	if params.ReturnDate != "" {
		ret, err := parseDate(string(FieldReturnDate), params.ReturnDate)
		if err != nil {
			return nil, err
		}
		if ret.Before(depart) {
			return nil, NewValidationError(string(FieldReturnDate), "must not be before departDate")
		}
		q.ret = ret
	}

	return q, nil
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, NewValidationError(field, "is required")
	}
	if !dateRegex.MatchString(value) {
		return time.Time{}, NewValidationError(field, fmt.Sprintf("must be in YYYY-MM-DD format, got %q", value))
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, NewValidationError(field, fmt.Sprintf("is not a valid date: %s", value))
	}
	return t, nil
}

// Engine returns the airline id the query targets ("" if unset).
func (q *Query) Engine() string { return q.p.Engine }

// Partners reports whether partner awards are requested.
func (q *Query) Partners() bool { return q.p.Partners }

// Cabin returns the requested cabin.
func (q *Query) Cabin() Cabin { return Cabin(q.p.Cabin) }

// Quantity returns the number of passengers.
func (q *Query) Quantity() int { return q.p.Quantity }

// FromCity returns the origin airport code.
func (q *Query) FromCity() string { return q.p.FromCity }

// ToCity returns the destination airport code.
func (q *Query) ToCity() string { return q.p.ToCity }

// DepartDate returns the departure date at UTC midnight.
func (q *Query) DepartDate() time.Time { return q.depart }

// ReturnDate returns the return date at UTC midnight, or the zero time for one-way.
func (q *Query) ReturnDate() time.Time { return q.ret }

// OneWay reports whether the query has no return date.
func (q *Query) OneWay() bool { return q.ret.IsZero() }

// Assets returns the asset output options.
func (q *Query) Assets() AssetOptions { return q.p.Assets }

// Params returns a copy of the normalized parameters.
func (q *Query) Params() QueryParams { return q.p }

// DepartDays returns the number of days from today until departure.
func (q *Query) DepartDays(today time.Time) int {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(q.depart.Sub(start).Hours() / 24)
}

// WithDates returns a copy of the query with different dates.
func (q *Query) WithDates(departDate, returnDate string) (*Query, error) {
	p := q.p
	p.DepartDate = departDate
	p.ReturnDate = returnDate
	return NewQuery(p)
}

// WithAssets returns a copy of the query with different asset options.
func (q *Query) WithAssets(opts AssetOptions) *Query {
	clone := *q
	clone.p.Assets = opts
	return &clone
}

// String returns a short description, e.g. "ORD-PEK 2019-09-18/2019-09-25 economy x1".
func (q *Query) String() string {
	dates := q.p.DepartDate
	if q.p.ReturnDate != "" {
		dates += "/" + q.p.ReturnDate
	}
	return fmt.Sprintf("%s-%s %s %s x%d", q.p.FromCity, q.p.ToCity, dates, q.p.Cabin, q.p.Quantity)
}

// MarshalJSON encodes the normalized parameters.
func (q *Query) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.p)
}

// UnmarshalJSON decodes and re-validates a query.
func (q *Query) UnmarshalJSON(data []byte) error {
	var p QueryParams
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	parsed, err := NewQuery(p)
	if err != nil {
		return err
	}
	*q = *parsed
	return nil
}

// QueryDiff is the set of search fields that changed between two queries.
type QueryDiff map[QueryField]FieldChange

// FieldChange holds the previous and new value of a field.
type FieldChange struct {
	From interface{}
	To   interface{}
}

// Fields returns the changed fields in sorted order.
func (d QueryDiff) Fields() []QueryField {
	fields := make([]QueryField, 0, len(d))
	for f := range d {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// Has reports whether the field changed.
func (d QueryDiff) Has(field QueryField) bool {
	_, ok := d[field]
	return ok
}

// Diff returns the search fields of q that differ from prev. Asset options
// never participate. A nil prev yields a nil diff.
func (q *Query) Diff(prev *Query) QueryDiff {
	if prev == nil {
		return nil
	}
	diff := QueryDiff{}
	add := func(field QueryField, from, to interface{}) {
		if from != to {
			diff[field] = FieldChange{From: from, To: to}
		}
	}
	add(FieldEngine, prev.p.Engine, q.p.Engine)
	add(FieldPartners, prev.p.Partners, q.p.Partners)
	add(FieldCabin, prev.p.Cabin, q.p.Cabin)
	add(FieldQuantity, prev.p.Quantity, q.p.Quantity)
	add(FieldFromCity, prev.p.FromCity, q.p.FromCity)
	add(FieldToCity, prev.p.ToCity, q.p.ToCity)
	add(FieldDepartDate, prev.p.DepartDate, q.p.DepartDate)
	add(FieldReturnDate, prev.p.ReturnDate, q.p.ReturnDate)
	add(FieldOneWay, prev.OneWay(), q.OneWay())
	return diff
}
