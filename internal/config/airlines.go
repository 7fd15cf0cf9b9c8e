package config

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/rs/zerolog/log"
	"github.com/titanous/json5"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
)

//go:embed airlines/*.json5
var airlineFiles embed.FS

// AirlineOptions control LoadAirlines.
type AirlineOptions struct {
	// OverridesDir holds optional <id>.local.json5 files merged over the
	// embedded configs
	OverridesDir string

	// DisableThrottling turns throttling off for every airline
	DisableThrottling bool
}

// AirlineOptions returns the airline loading options of the process.
func (c *Config) AirlineOptions() AirlineOptions {
	return AirlineOptions{
		OverridesDir:      c.App.AirlineOverridesDir,
		DisableThrottling: !c.Throttle.Enabled,
	}
}

// DefaultAirline returns the values every airline config starts from.
func DefaultAirline() domain.AirlineConfig {
	return domain.AirlineConfig{
		WaitUntil:         "networkidle",
		NavigationTimeout: domain.Duration(60 * time.Second),
		MinDays:           0,
		MaxDays:           330,
		Throttling: domain.ThrottleProfile{
			RequestsPerHour:      90,
			RestPeriod:           domain.DurationRange{Min: 30 * time.Minute, Max: 60 * time.Minute},
			DelayBetweenRequests: domain.DurationRange{Min: 20 * time.Second, Max: 30 * time.Second},
		},
	}
}

// rangeTransformer replaces duration ranges as a whole, so a file setting
// [0s, 5s] does not keep the default lower bound.
type rangeTransformer struct{}

func (rangeTransformer) Transformer(typ reflect.Type) func(dst, src reflect.Value) error {
	if typ != reflect.TypeOf(domain.DurationRange{}) {
		return nil
	}
	return func(dst, src reflect.Value) error {
		if dst.CanSet() && !src.IsZero() {
			dst.Set(src)
		}
		return nil
	}
}

// decodeJSON5 parses JSON5 into v. The document is normalized to JSON
// first so the json.Unmarshaler implementations of domain types apply.
func decodeJSON5(data []byte, v interface{}) error {
	var raw interface{}
	if err := json5.Unmarshal(data, &raw); err != nil {
		return err
	}
	normalized, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(normalized, v)
}

// ParseAirline decodes one JSON5 airline file merged over DefaultAirline.
func ParseAirline(data []byte) (domain.AirlineConfig, error) {
	var file domain.AirlineConfig
	if err := decodeJSON5(data, &file); err != nil {
		return domain.AirlineConfig{}, err
	}
	out := DefaultAirline()
	if err := mergo.Merge(&out, file, mergo.WithOverride, mergo.WithTransformers(rangeTransformer{})); err != nil {
		return domain.AirlineConfig{}, err
	}
	out.ID = strings.ToUpper(out.ID)
	return out, nil
}

// LoadAirlines reads every embedded airline config, applies local
// overrides and validates the result. Configs are sorted by id.
func LoadAirlines(opts AirlineOptions) ([]*domain.AirlineConfig, error) {
	return loadAirlines(airlineFiles, "airlines", opts)
}

func loadAirlines(fsys fs.FS, dir string, opts AirlineOptions) ([]*domain.AirlineConfig, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read airline configs: %w", err)
	}

	var configs []*domain.AirlineConfig
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json5") || strings.HasSuffix(name, ".local.json5") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		cfg, err := ParseAirline(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}

		if opts.OverridesDir != "" {
			if err := applyOverride(&cfg, opts.OverridesDir); err != nil {
				return nil, err
			}
		}
		if opts.DisableThrottling {
			cfg.Throttling.Disabled = true
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		configs = append(configs, &cfg)
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ID < configs[j].ID })
	return configs, nil
}

// applyOverride merges <dir>/<id>.local.json5 over cfg when it exists.
func applyOverride(cfg *domain.AirlineConfig, dir string) error {
	file := filepath.Join(dir, strings.ToLower(cfg.ID)+".local.json5")
	data, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	var override domain.AirlineConfig
	if err := decodeJSON5(data, &override); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}
	override.ID = ""
	if err := mergo.Merge(cfg, override, mergo.WithOverride, mergo.WithTransformers(rangeTransformer{})); err != nil {
		return fmt.Errorf("merge %s: %w", file, err)
	}

	log.Info().Str("airline", cfg.ID).Str("local", file).Msg("merging airline config with local overrides")
	return nil
}
