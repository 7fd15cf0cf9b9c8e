package airline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightplan-tool/flightplan-sub000/internal/config"
	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/test/testutil"
)

func TestNewRegistry_EmbeddedConfigs(t *testing.T) {
	configs, err := config.LoadAirlines(config.AirlineOptions{})
	require.NoError(t, err)

	registry, err := NewRegistry(configs)
	require.NoError(t, err)
	assert.Equal(t, []string{"AC", "NH", "UA"}, registry.IDs())

	site, err := registry.Get("ua")
	require.NoError(t, err)
	assert.NotNil(t, site.NewSearcher)
	assert.NotNil(t, site.Parser)
}

func TestSites_UnknownAdapter(t *testing.T) {
	cfg := testutil.AirlineConfig("https://awards.example.com", false)
	cfg.Adapter = "puppeteer"

	_, err := Sites([]*domain.AirlineConfig{cfg})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.ErrorContains(t, err, "puppeteer")
}
