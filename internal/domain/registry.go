package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Site bundles everything needed to search one airline.
type Site struct {
	Config      *AirlineConfig
	NewSearcher SearcherFactory
	Parser      Parser
}

// ID returns the airline id of the site.
func (s Site) ID() string {
	if s.Config == nil {
		return ""
	}
	return s.Config.ID
}

// Registry is the read-only set of supported sites. It is built once at
// startup and is safe for concurrent use since it is never modified.
type Registry struct {
	sites map[string]Site
}

// NewRegistry validates every site configuration and builds a Registry.
func NewRegistry(sites ...Site) (*Registry, error) {
	r := &Registry{sites: make(map[string]Site, len(sites))}
	for _, site := range sites {
		if site.Config == nil {
			return nil, fmt.Errorf("%w: site without config", ErrInvalidConfig)
		}
		if err := site.Config.Validate(); err != nil {
			return nil, err
		}
		id := strings.ToUpper(site.Config.ID)
		if _, exists := r.sites[id]; exists {
			return nil, fmt.Errorf("%w: duplicate site %s", ErrInvalidConfig, id)
		}
		r.sites[id] = site
	}
	return r, nil
}

// Get returns the site registered under id.
func (r *Registry) Get(id string) (Site, error) {
	site, ok := r.sites[strings.ToUpper(id)]
	if !ok {
		return Site{}, fmt.Errorf("%w: %q", ErrUnknownEngine, id)
	}
	return site, nil
}

// Config returns the configuration registered under id, or nil.
func (r *Registry) Config(id string) *AirlineConfig {
	site, ok := r.sites[strings.ToUpper(id)]
	if !ok {
		return nil
	}
	return site.Config
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.sites))
	for id := range r.sites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered sites.
func (r *Registry) Len() int {
	return len(r.sites)
}
