package domain

import (
	"sort"
)

// Reconcile validates the raw output of a Parser and folds it into a
// deduplicated set of flights:
//   - every flight in parsed.Flights must own at least one award;
//   - every award in parsed.Awards must reference a flight;
//   - flights sharing a key must have identical schedules, and their award
//     sets are merged;
//   - segment durations and connections must not be negative.
//
// The returned flights are sorted by departure then key, and the returned
// awards are the flattened awards of those flights in the same order.
// Every failure is an *IntegrityError.
func Reconcile(parsed Parsed) ([]*Flight, []*Award, error) {
	type group struct {
		canonical *Flight
		awards    []*Award
		seen      map[*Award]bool
	}
	groups := make(map[string]*group)
	var order []string

	add := func(f *Flight, awards ...*Award) error {
		g, ok := groups[f.Key()]
		if !ok {
			g = &group{canonical: f, seen: make(map[*Award]bool)}
			groups[f.Key()] = g
			order = append(order, f.Key())
		} else if g.canonical != f && !g.canonical.SameSchedule(f) {
			return newIntegrityError(ErrFlightMismatch,
				"flights with key %s differ: %s vs %s", f.Key(), g.canonical, f)
		}
		for _, a := range awards {
			if !g.seen[a] {
				g.seen[a] = true
				g.awards = append(g.awards, a)
			}
		}
		return nil
	}

	for _, f := range parsed.Flights {
		if f == nil {
			continue
		}
		if len(f.awards) == 0 {
			return nil, nil, newIntegrityError(ErrOrphanedFlight, "flight %s has no awards", f)
		}
		if err := add(f, f.awards...); err != nil {
			return nil, nil, err
		}
	}
	for _, a := range parsed.Awards {
		if a == nil {
			continue
		}
		if a.flight == nil {
			return nil, nil, newIntegrityError(ErrOrphanedAward, "award %s has no flight", a)
		}
		if err := add(a.flight, a); err != nil {
			return nil, nil, err
		}
	}

	flights := make([]*Flight, 0, len(order))
	for _, key := range order {
		g := groups[key]
		f := g.canonical.withAwards(g.awards)
		if err := checkDurations(f); err != nil {
			return nil, nil, err
		}
		flights = append(flights, f)
	}

	sort.SliceStable(flights, func(i, j int) bool {
		a, b := flights[i].DepartureTime(), flights[j].DepartureTime()
		if !a.Equal(b) {
			return a.Before(b)
		}
		return flights[i].Key() < flights[j].Key()
	})

	var awards []*Award
	for _, f := range flights {
		awards = append(awards, f.awards...)
	}
	return flights, awards, nil
}

func checkDurations(f *Flight) error {
	for i, seg := range f.segments {
		if seg.Duration() < 0 {
			return newIntegrityError(ErrNegativeDuration, "segment %s has negative duration", seg)
		}
		if gap, ok := f.NextConnection(i); ok && gap < 0 {
			return newIntegrityError(ErrNegativeDuration, "segment %s has negative connection %d", seg, gap)
		}
	}
	return nil
}
