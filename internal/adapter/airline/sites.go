// Package airline maps airline configurations to the site automations
// implementing them.
package airline

import (
	"fmt"

	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/airline/jsonapi"
	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
)

// adapters holds the site constructors by AirlineConfig.Adapter.
var adapters = map[string]func(*domain.AirlineConfig) domain.Site{
	jsonapi.AdapterName: jsonapi.NewSite,
}

// Sites builds the site of every config.
func Sites(configs []*domain.AirlineConfig) ([]domain.Site, error) {
	sites := make([]domain.Site, 0, len(configs))
	for _, cfg := range configs {
		newSite, ok := adapters[cfg.Adapter]
		if !ok {
			return nil, fmt.Errorf("%w: %s: unknown adapter %q", domain.ErrInvalidConfig, cfg.ID, cfg.Adapter)
		}
		sites = append(sites, newSite(cfg))
	}
	return sites, nil
}

// NewRegistry builds the registry of every config.
func NewRegistry(configs []*domain.AirlineConfig) (*domain.Registry, error) {
	sites, err := Sites(configs)
	if err != nil {
		return nil, err
	}
	return domain.NewRegistry(sites...)
}
