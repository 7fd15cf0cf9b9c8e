package domain

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// airlineCodeRegex matches IATA airline codes.
var airlineCodeRegex = regexp.MustCompile(`^[A-Z0-9]{2}$`)

// AirlineConfig holds the static settings of one supported airline website.
// It is validated once at registration and never modified afterwards.
type AirlineConfig struct {
	// ID is the IATA code of the airline running the loyalty program (e.g., "AC")
	ID string `json:"id"`

	// Name is the display name of the program
	Name string `json:"name"`

	// Adapter names the site automation implementing this airline
	Adapter string `json:"adapter"`

	// HomeURL is loaded once on initialization to seed referrer state
	HomeURL string `json:"homeURL"`

	// SearchURL is where every full search starts
	SearchURL string `json:"searchURL"`

	// LoginRequired is true when the site needs an authenticated session to search
	LoginRequired bool `json:"loginRequired"`

	// WaitUntil is the navigation wait policy ("load", "networkidle", ...)
	WaitUntil string `json:"waitUntil"`

	// NavigationTimeout bounds any single page load
	NavigationTimeout Duration `json:"navigationTimeout"`

	// MinDays and MaxDays bound the searchable departure window, in days from today
	MinDays int `json:"minDays"`
	MaxDays int `json:"maxDays"`

	// Modifiable lists the query fields the site can change without a full search
	Modifiable []QueryField `json:"modifiable"`

	// Throttling is the request budget of the site
	Throttling ThrottleProfile `json:"throttling"`

	// Fares lists the booking classes the site returns
	Fares []BookingClass `json:"fares"`
}

// ThrottleProfile configures the throttle controller for one site.
type ThrottleProfile struct {
	// Disabled turns throttling off entirely
	Disabled bool `json:"disabled"`

	// RequestsPerHour is the budget used to size each checkpoint window
	RequestsPerHour int `json:"requestsPerHour"`

	// RestPeriod is the length of a checkpoint window
	RestPeriod DurationRange `json:"restPeriod"`

	// DelayBetweenRequests is the minimum spacing between two searches
	DelayBetweenRequests DurationRange `json:"delayBetweenRequests"`
}

// Validate checks the throttle profile.
func (p ThrottleProfile) Validate() error {
	if p.Disabled {
		return nil
	}
	if p.RequestsPerHour <= 0 {
		return fmt.Errorf("%w: throttling.requestsPerHour must be positive", ErrInvalidConfig)
	}
	if !p.RestPeriod.IsValid() || p.RestPeriod.Max <= 0 {
		return fmt.Errorf("%w: throttling.restPeriod must be a positive range", ErrInvalidConfig)
	}
	if !p.DelayBetweenRequests.IsValid() {
		return fmt.Errorf("%w: throttling.delayBetweenRequests is not a valid range", ErrInvalidConfig)
	}
	return nil
}

// Validate checks the configuration for correctness.
func (c *AirlineConfig) Validate() error {
	if !airlineCodeRegex.MatchString(c.ID) {
		return fmt.Errorf("%w: id must be a 2-character airline code, got %q", ErrInvalidConfig, c.ID)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: %s: name is required", ErrInvalidConfig, c.ID)
	}
	for field, raw := range map[string]string{"homeURL": c.HomeURL, "searchURL": c.SearchURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %s: %s must be an absolute http(s) URL, got %q", ErrInvalidConfig, c.ID, field, raw)
		}
	}
	if c.MinDays < 0 || c.MaxDays < c.MinDays {
		return fmt.Errorf("%w: %s: require 0 <= minDays <= maxDays, got %d..%d", ErrInvalidConfig, c.ID, c.MinDays, c.MaxDays)
	}
	if c.NavigationTimeout < 0 {
		return fmt.Errorf("%w: %s: navigationTimeout must not be negative", ErrInvalidConfig, c.ID)
	}
	for _, f := range c.Modifiable {
		if !f.IsValid() {
			return fmt.Errorf("%w: %s: unknown modifiable field %q", ErrInvalidConfig, c.ID, f)
		}
	}
	if err := c.Throttling.Validate(); err != nil {
		return fmt.Errorf("%s: %w", c.ID, err)
	}
	if len(c.Fares) == 0 {
		return fmt.Errorf("%w: %s: at least one fare is required", ErrInvalidConfig, c.ID)
	}
	seen := make(map[string]bool, len(c.Fares))
	for _, fare := range c.Fares {
		if err := fare.Validate(); err != nil {
			return fmt.Errorf("%s: %w", c.ID, err)
		}
		if seen[fare.Code] {
			return fmt.Errorf("%w: %s: duplicate fare code %q", ErrInvalidConfig, c.ID, fare.Code)
		}
		seen[fare.Code] = true
	}
	return nil
}

// Fare looks up a booking class by code.
func (c *AirlineConfig) Fare(code string) (BookingClass, bool) {
	for _, fare := range c.Fares {
		if fare.Code == code {
			return fare, true
		}
	}
	return BookingClass{}, false
}

// FaresForCabin returns the booking classes of the given cabin.
func (c *AirlineConfig) FaresForCabin(cabin Cabin) []BookingClass {
	var fares []BookingClass
	for _, fare := range c.Fares {
		if fare.Cabin == cabin {
			fares = append(fares, fare)
		}
	}
	return fares
}

// SupportsCabin reports whether any fare books into the cabin.
func (c *AirlineConfig) SupportsCabin(cabin Cabin) bool {
	return len(c.FaresForCabin(cabin)) > 0
}

// IsModifiable reports whether the field can be changed by the modify hook.
func (c *AirlineConfig) IsModifiable(field QueryField) bool {
	for _, f := range c.Modifiable {
		if f == field {
			return true
		}
	}
	return false
}

// ValidDateRange returns the first and last searchable dates relative to today.
func (c *AirlineConfig) ValidDateRange(today time.Time) (time.Time, time.Time) {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return start.AddDate(0, 0, c.MinDays), start.AddDate(0, 0, c.MaxDays)
}

// Duration is a time.Duration that unmarshals from a duration string ("15m")
// or a number of seconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalJSON encodes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON decodes a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := parseDuration(v)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func parseDuration(v interface{}) (time.Duration, error) {
	switch val := v.(type) {
	case float64:
		return time.Duration(val * float64(time.Second)), nil
	case string:
		return time.ParseDuration(val)
	default:
		return 0, fmt.Errorf("invalid duration %v", v)
	}
}

// DurationRange is either a fixed duration (Min == Max) or a [Min, Max] range.
type DurationRange struct {
	Min time.Duration
	Max time.Duration
}

// FixedDuration returns a range that always yields d.
func FixedDuration(d time.Duration) DurationRange {
	return DurationRange{Min: d, Max: d}
}

// IsZero reports whether the range is unset.
func (r DurationRange) IsZero() bool {
	return r.Min == 0 && r.Max == 0
}

// IsValid reports whether the range is non-negative and ordered.
func (r DurationRange) IsValid() bool {
	return r.Min >= 0 && r.Max >= r.Min
}

// Random returns a uniformly distributed duration in [Min, Max].
func (r DurationRange) Random() time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rand.Int63n(int64(r.Max-r.Min)+1))
}

// MarshalJSON encodes a fixed range as a scalar and a range as a pair.
func (r DurationRange) MarshalJSON() ([]byte, error) {
	if r.Min == r.Max {
		return json.Marshal(r.Min.String())
	}
	return json.Marshal([]string{r.Min.String(), r.Max.String()})
}

// UnmarshalJSON accepts a scalar or a one- or two-element array.
func (r *DurationRange) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	list, ok := v.([]interface{})
	if !ok {
		d, err := parseDuration(v)
		if err != nil {
			return err
		}
		*r = FixedDuration(d)
		return nil
	}

	switch len(list) {
	case 1:
		d, err := parseDuration(list[0])
		if err != nil {
			return err
		}
		*r = FixedDuration(d)
	case 2:
		lo, err := parseDuration(list[0])
		if err != nil {
			return err
		}
		hi, err := parseDuration(list[1])
		if err != nil {
			return err
		}
		*r = DurationRange{Min: lo, Max: hi}
	default:
		return fmt.Errorf("duration range must have 1 or 2 elements, got %d", len(list))
	}
	return nil
}
