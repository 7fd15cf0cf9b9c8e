package usecase

import (
	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
)

// ApplyAwardFilter returns the awards matching every criterion of filter.
//
// Behavior:
//   - Returns the original slice if filter is nil (no filtering)
//   - Zero-valued criteria are skipped
//   - Does NOT mutate the original awards slice
func ApplyAwardFilter(awards []*domain.Award, filter *domain.AwardFilter) []*domain.Award {
	if filter == nil {
		return awards
	}

	result := make([]*domain.Award, 0, len(awards))
	for _, a := range awards {
		if filter.Matches(a) {
			result = append(result, a)
		}
	}
	return result
}

// FilterByCabin keeps awards whose highest cabin is cabin.
func FilterByCabin(awards []*domain.Award, cabin domain.Cabin) []*domain.Award {
	return ApplyAwardFilter(awards, &domain.AwardFilter{Cabins: []domain.Cabin{cabin}})
}

// FilterByMaxStops keeps awards on flights with at most maxStops stops.
// Returns all awards if maxStops is nil.
// Common values: 0 (direct only), 1 (max 1 stop), 2 (max 2 stops)
func FilterByMaxStops(awards []*domain.Award, maxStops *int) []*domain.Award {
	if maxStops == nil {
		return awards
	}
	return ApplyAwardFilter(awards, &domain.AwardFilter{MaxStops: maxStops})
}

// FilterSaver keeps saver fares only.
func FilterSaver(awards []*domain.Award) []*domain.Award {
	return ApplyAwardFilter(awards, &domain.AwardFilter{SaverOnly: true})
}

// AwardQuery bundles a filter with a sort order, as used by the CLI and
// the HTTP API.
type AwardQuery struct {
	Filter *domain.AwardFilter
	SortBy domain.SortOption
	Limit  int
}

// Select filters, sorts and truncates awards.
func (q AwardQuery) Select(awards []*domain.Award) []*domain.Award {
	out := SortAwards(ApplyAwardFilter(awards, q.Filter), q.SortBy)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}
