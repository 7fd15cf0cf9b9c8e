package usecase

import (
	"math"
	"sort"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
)

// Ranking algorithm weights. Their sum is 1.0.
const (
	// weightMileage is the weight of the miles cost (50%).
	weightMileage = 0.5

	// weightDuration is the weight of the total travel time (30%).
	weightDuration = 0.3

	// weightStops is the weight of the number of stops (20%).
	weightStops = 0.2

	// saverBonus is subtracted from the score of saver fares.
	saverBonus = 0.05
)

// RankedAward pairs an award with its ranking score.
type RankedAward struct {
	Award *domain.Award
	Score float64
}

// RankAwards scores each award using a weighted formula:
//
//	Score = (0.5 × NormalizedMileage) + (0.3 × NormalizedDuration) + (0.2 × NormalizedStops) - saverBonus
//
// Normalized values are in [0, 1] where 0 is best. Lower score = better
// value. Awards with unknown mileage are scored as the most expensive, and
// awards without a flight as the longest with the most stops. The input is
// not modified.
func RankAwards(awards []*domain.Award) []RankedAward {
	if len(awards) == 0 {
		return nil
	}

	minMileage, maxMileage := findMileageRange(awards)
	minDuration, maxDuration, minStops, maxStops := findFlightRanges(awards)

	ranked := make([]RankedAward, len(awards))
	for i, a := range awards {
		mileage := float64(a.Mileage())
		if a.Mileage() <= 0 {
			mileage = maxMileage
		}
		duration, stops := float64(maxDuration), float64(maxStops)
		if f := a.Flight(); f != nil {
			duration, stops = float64(f.Duration()), float64(f.Stops())
		}

		score := (weightMileage * normalizeValue(mileage, minMileage, maxMileage)) +
			(weightDuration * normalizeValue(duration, float64(minDuration), float64(maxDuration))) +
			(weightStops * normalizeValue(stops, float64(minStops), float64(maxStops)))
		if a.Fare().Saver {
			score -= saverBonus
		}
		ranked[i] = RankedAward{Award: a, Score: score}
	}
	return ranked
}

// normalizeValue normalizes a value to the range [0, 1] based on min and max.
// Returns 0 when min == max (all values equal = all optimal).
func normalizeValue(value, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (value - min) / (max - min)
}

// findMileageRange finds the minimum and maximum known mileage.
func findMileageRange(awards []*domain.Award) (min, max float64) {
	min, max = math.MaxFloat64, 0
	for _, a := range awards {
		if a.Mileage() <= 0 {
			continue
		}
		m := float64(a.Mileage())
		if m < min {
			min = m
		}
		if m > max {
			max = m
		}
	}
	if min == math.MaxFloat64 {
		return 0, 0
	}
	return min, max
}

// findFlightRanges finds the duration and stop ranges across award flights.
func findFlightRanges(awards []*domain.Award) (minDuration, maxDuration, minStops, maxStops int) {
	minDuration, minStops = math.MaxInt, math.MaxInt
	for _, a := range awards {
		f := a.Flight()
		if f == nil {
			continue
		}
		minDuration = min(minDuration, f.Duration())
		maxDuration = max(maxDuration, f.Duration())
		minStops = min(minStops, f.Stops())
		maxStops = max(maxStops, f.Stops())
	}
	if minDuration == math.MaxInt {
		return 0, 0, 0, 0
	}
	return minDuration, maxDuration, minStops, maxStops
}

// SortAwards sorts awards according to the sort option. Sorting is stable
// and the input is not modified.
//
// Sort options:
//   - SortByBestValue (default): ascending ranking score
//   - SortByMileage: ascending miles, unknown mileage last
//   - SortByDuration: ascending flight duration
//   - SortByDeparture: earliest departure first
func SortAwards(awards []*domain.Award, sortBy domain.SortOption) []*domain.Award {
	result := make([]*domain.Award, len(awards))
	copy(result, awards)
	if len(result) <= 1 {
		return result
	}

	if !sortBy.IsValid() {
		sortBy = domain.SortByBestValue
	}

	switch sortBy {
	case domain.SortByMileage:
		sort.SliceStable(result, func(i, j int) bool {
			return mileageKey(result[i]) < mileageKey(result[j])
		})
	case domain.SortByDuration:
		sort.SliceStable(result, func(i, j int) bool {
			return durationKey(result[i]) < durationKey(result[j])
		})
	case domain.SortByDeparture:
		sort.SliceStable(result, func(i, j int) bool {
			fi, fj := result[i].Flight(), result[j].Flight()
			if fi == nil || fj == nil {
				return fi != nil
			}
			return fi.DepartureTime().Before(fj.DepartureTime())
		})
	default:
		ranked := RankAwards(result)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Score < ranked[j].Score
		})
		for i, r := range ranked {
			result[i] = r.Award
		}
	}

	return result
}

func mileageKey(a *domain.Award) int {
	if a.Mileage() <= 0 {
		return math.MaxInt
	}
	return a.Mileage()
}

func durationKey(a *domain.Award) int {
	if a.Flight() == nil {
		return math.MaxInt
	}
	return a.Flight().Duration()
}
