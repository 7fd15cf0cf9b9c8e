package domain

import (
	"fmt"
	"strings"
)

// Cabin is a service class.
type Cabin string

// Supported cabins.
const (
	CabinFirst    Cabin = "first"
	CabinBusiness Cabin = "business"
	CabinPremium  Cabin = "premium"
	CabinEconomy  Cabin = "economy"
)

// Cabins lists every cabin from highest to lowest.
var Cabins = []Cabin{CabinFirst, CabinBusiness, CabinPremium, CabinEconomy}

// cabinRank orders cabins, higher is better.
var cabinRank = map[Cabin]int{
	CabinEconomy:  1,
	CabinPremium:  2,
	CabinBusiness: 3,
	CabinFirst:    4,
}

// IsValid reports whether c is one of the supported cabins.
func (c Cabin) IsValid() bool {
	_, ok := cabinRank[c]
	return ok
}

// Rank returns the ordering of the cabin (economy=1 ... first=4, invalid=0).
func (c Cabin) Rank() int {
	return cabinRank[c]
}

// String implements fmt.Stringer.
func (c Cabin) String() string {
	return string(c)
}

// ParseCabin converts a cabin name to a Cabin, case-insensitively.
func ParseCabin(s string) (Cabin, error) {
	c := Cabin(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("unknown cabin %q", s)
	}
	return c, nil
}

// HighestCabin returns the highest-ranked cabin in the list, or "" if empty.
func HighestCabin(cabins []Cabin) Cabin {
	var best Cabin
	for _, c := range cabins {
		if c.Rank() > best.Rank() {
			best = c
		}
	}
	return best
}

// BookingClass is a fare definition loaded from an airline's configuration.
type BookingClass struct {
	// Code is the fare code (e.g., "FS" for first saver)
	Code string `json:"code"`

	// Cabin is the cabin this fare books into
	Cabin Cabin `json:"cabin"`

	// Saver is true for the cheapest award tier
	Saver bool `json:"saver"`

	// Name is a display name (e.g., "First Saver")
	Name string `json:"name"`
}

// Validate checks the fare definition.
func (b BookingClass) Validate() error {
	if strings.TrimSpace(b.Code) == "" {
		return fmt.Errorf("%w: fare code is required", ErrInvalidConfig)
	}
	if !b.Cabin.IsValid() {
		return fmt.Errorf("%w: fare %s has invalid cabin %q", ErrInvalidConfig, b.Code, b.Cabin)
	}
	return nil
}
