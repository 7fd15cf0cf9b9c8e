// Package http serves persisted award searches over an echo API.
// It handles query parsing, validation, response formatting, and error
// mapping.
package http

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
)

// MaxLimit caps the page size of list endpoints.
const MaxLimit = 500

// AwardsRequest holds the query parameters of GET /api/v1/awards.
type AwardsRequest struct {
	Engine string
	From   string
	To     string

	// Date is the local departure date (YYYY-MM-DD)
	Date string

	// Cabin matches the highest cabin of the award
	Cabin string

	// MaxStops is nil when the parameter is absent
	MaxStops *int

	// Airlines is a comma separated list of carrier codes
	Airlines []string

	Saver       bool
	MinQuantity int

	// DepartAfter and DepartBefore bound the local departure time (HH:MM)
	DepartAfter  string
	DepartBefore string

	// MaxDuration is the longest total travel time, in minutes
	MaxDuration *int

	SortBy string
	Limit  int
}

// RequestsRequest holds the query parameters of GET /api/v1/requests.
type RequestsRequest struct {
	Engine string
	Limit  int
}

// Validation regex patterns.
var (
	airportCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)
	airlineCodePattern = regexp.MustCompile(`^[A-Z0-9]{2}$`)
	datePattern        = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern        = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Valid sort options.
var validSortOptions = map[string]bool{
	string(domain.SortByBestValue): true,
	string(domain.SortByMileage):   true,
	string(domain.SortByDuration):  true,
	string(domain.SortByDeparture): true,
	"":                             true,
}

// ValidationError represents a field-level validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors holds multiple validation errors.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}
	return v.Errors[0].Message
}

// Add adds a validation error.
func (v *ValidationErrors) Add(field, message string) {
	v.Errors = append(v.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// ToMap converts validation errors to a map for API response.
func (v *ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string, len(v.Errors))
	for _, e := range v.Errors {
		result[e.Field] = e.Message
	}
	return result
}

// BindAwardsRequest reads the query parameters of c. Type errors are
// returned as a *echo.BindingError.
func BindAwardsRequest(c echo.Context) (*AwardsRequest, error) {
	r := &AwardsRequest{}
	var airlines string
	b := echo.QueryParamsBinder(c).
		String("engine", &r.Engine).
		String("from", &r.From).
		String("to", &r.To).
		String("date", &r.Date).
		String("cabin", &r.Cabin).
		String("airlines", &airlines).
		Bool("saver", &r.Saver).
		Int("minQuantity", &r.MinQuantity).
		String("departAfter", &r.DepartAfter).
		String("departBefore", &r.DepartBefore).
		String("sortBy", &r.SortBy).
		Int("limit", &r.Limit)
	if c.QueryParam("maxStops") != "" {
		r.MaxStops = new(int)
		b = b.Int("maxStops", r.MaxStops)
	}
	if c.QueryParam("maxDuration") != "" {
		r.MaxDuration = new(int)
		b = b.Int("maxDuration", r.MaxDuration)
	}
	if err := b.BindError(); err != nil {
		return nil, err
	}

	for _, code := range strings.Split(airlines, ",") {
		if code = strings.TrimSpace(code); code != "" {
			r.Airlines = append(r.Airlines, code)
		}
	}
	return r, nil
}

// Validate normalizes and checks the request.
func (r *AwardsRequest) Validate() error {
	errs := &ValidationErrors{}

	r.Engine = strings.ToUpper(strings.TrimSpace(r.Engine))
	r.From = validateAirport(errs, "from", r.From)
	r.To = validateAirport(errs, "to", r.To)

	if r.Date != "" {
		validateDate(errs, "date", r.Date)
	}

	r.Cabin = strings.ToLower(strings.TrimSpace(r.Cabin))
	if r.Cabin != "" && !domain.Cabin(r.Cabin).IsValid() {
		errs.Add("cabin", "cabin must be one of: economy, premium, business, first")
	}

	if r.MaxStops != nil && *r.MaxStops < 0 {
		errs.Add("maxStops", "maxStops must be a non-negative number")
	}
	if r.MaxDuration != nil && *r.MaxDuration < 0 {
		errs.Add("maxDuration", "maxDuration must be a non-negative number")
	}
	if r.MinQuantity < 0 {
		errs.Add("minQuantity", "minQuantity must be a non-negative number")
	}

	for i, airline := range r.Airlines {
		normalized := strings.ToUpper(airline)
		if !airlineCodePattern.MatchString(normalized) {
			errs.Add(fmt.Sprintf("airlines[%d]", i), "airline code must be 2 characters")
		}
		r.Airlines[i] = normalized
	}

	r.validateDepartureWindow(errs)

	r.SortBy = strings.ToLower(r.SortBy)
	if !validSortOptions[r.SortBy] {
		errs.Add("sortBy", "sortBy must be one of: best, mileage, duration, departure")
	}

	validateLimit(errs, r.Limit)

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func (r *AwardsRequest) validateDepartureWindow(errs *ValidationErrors) {
	if r.DepartAfter == "" && r.DepartBefore == "" {
		return
	}
	if r.DepartAfter != "" && !isValidTimeFormat(r.DepartAfter) {
		errs.Add("departAfter", "departAfter must be in HH:MM format with valid hours (00-23) and minutes (00-59)")
	}
	if r.DepartBefore != "" && !isValidTimeFormat(r.DepartBefore) {
		errs.Add("departBefore", "departBefore must be in HH:MM format with valid hours (00-23) and minutes (00-59)")
	}
}

// Validate normalizes and checks the request.
func (r *RequestsRequest) Validate() error {
	errs := &ValidationErrors{}
	r.Engine = strings.ToUpper(strings.TrimSpace(r.Engine))
	validateLimit(errs, r.Limit)
	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateAirport(errs *ValidationErrors, field, value string) string {
	if value == "" {
		return ""
	}
	code := strings.ToUpper(strings.TrimSpace(value))
	if !airportCodePattern.MatchString(code) {
		errs.Add(field, field+" must be a valid 3-letter IATA airport code")
	}
	return code
}

func validateDate(errs *ValidationErrors, field, value string) {
	if !datePattern.MatchString(value) {
		errs.Add(field, field+" must be in YYYY-MM-DD format")
		return
	}
	if _, err := time.Parse(domain.DateLayout, value); err != nil {
		errs.Add(field, field+" is not a valid date")
	}
}

func validateLimit(errs *ValidationErrors, limit int) {
	if limit < 0 || limit > MaxLimit {
		errs.Add("limit", fmt.Sprintf("limit must be between 0 and %d", MaxLimit))
	}
}

// isValidTimeFormat validates that a time string is in HH:MM format with valid values.
// Hours must be 00-23, minutes must be 00-59.
func isValidTimeFormat(timeStr string) bool {
	if !timePattern.MatchString(timeStr) {
		return false
	}

	var hour, minute int
	if _, err := fmt.Sscanf(timeStr, "%02d:%02d", &hour, &minute); err != nil {
		return false
	}
	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}
