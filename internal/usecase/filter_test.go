package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
)

func intPtr(i int) *int { return &i }

func TestApplyAwardFilter(t *testing.T) {
	direct := mustAward(t, economySaver, 35000, ua851(t))
	standard := mustAward(t, economyStd, 70000, ua851(t))
	connecting := mustAward(t, economySaver, 32000, ua1148(t), ua889(t))
	business := mustAward(t, businessSaver, 70000, ua851(t))
	awards := []*domain.Award{direct, standard, connecting, business}

	tests := []struct {
		name   string
		filter *domain.AwardFilter
		want   []*domain.Award
	}{
		{"nil filter", nil, awards},
		{"empty filter", &domain.AwardFilter{}, awards},
		{"cabin", &domain.AwardFilter{Cabins: []domain.Cabin{domain.CabinBusiness}}, []*domain.Award{business}},
		{"direct only", &domain.AwardFilter{MaxStops: intPtr(0)}, []*domain.Award{direct, standard, business}},
		{"saver", &domain.AwardFilter{SaverOnly: true}, []*domain.Award{direct, connecting, business}},
		{"quantity", &domain.AwardFilter{MinQuantity: 3}, []*domain.Award{}},
		{"airlines", &domain.AwardFilter{Airlines: []string{"UA"}}, awards},
		{"other airline", &domain.AwardFilter{Airlines: []string{"CA"}}, []*domain.Award{}},
		{
			name:   "duration",
			filter: &domain.AwardFilter{DurationRange: &domain.MinutesRange{MaxMinutes: intPtr(900)}},
			want:   []*domain.Award{direct, standard, business},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyAwardFilter(awards, tt.filter))
		})
	}
}

func TestFilterHelpers(t *testing.T) {
	direct := mustAward(t, economySaver, 35000, ua851(t))
	standard := mustAward(t, economyStd, 70000, ua851(t))
	connecting := mustAward(t, economySaver, 32000, ua1148(t), ua889(t))
	awards := []*domain.Award{direct, standard, connecting}

	assert.Equal(t, awards, FilterByCabin(awards, domain.CabinEconomy))
	assert.Empty(t, FilterByCabin(awards, domain.CabinFirst))
	assert.Equal(t, awards, FilterByMaxStops(awards, nil))
	assert.Equal(t, []*domain.Award{direct, standard}, FilterByMaxStops(awards, intPtr(0)))
	assert.Equal(t, []*domain.Award{direct, connecting}, FilterSaver(awards))
}

func TestAwardQuery_Select(t *testing.T) {
	direct := mustAward(t, economySaver, 35000, ua851(t))
	standard := mustAward(t, economyStd, 70000, ua851(t))
	connecting := mustAward(t, economySaver, 32000, ua1148(t), ua889(t))
	business := mustAward(t, businessSaver, 50000, ua851(t))
	awards := []*domain.Award{standard, connecting, business, direct}

	got := AwardQuery{
		Filter: &domain.AwardFilter{MaxStops: intPtr(0)},
		SortBy: domain.SortByMileage,
		Limit:  2,
	}.Select(awards)
	assert.Equal(t, []*domain.Award{direct, business}, got)

	all := AwardQuery{SortBy: domain.SortByMileage}.Select(awards)
	assert.Equal(t, []*domain.Award{connecting, direct, business, standard}, all)
}
