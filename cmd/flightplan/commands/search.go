package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/session"
	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/usecase"
)

// searchOptions are the flags of the search command.
type searchOptions struct {
	engines  []string
	from     string
	to       string
	start    string
	end      string
	stay     int
	cabin    string
	quantity int
	partners bool
	noCache  bool
	noParse  bool
}

var searchOpts searchOptions

func init() {
	f := searchCmd.Flags()
	f.StringSliceVarP(&searchOpts.engines, "engine", "e", nil, "airline ids to search, comma separated")
	f.StringVar(&searchOpts.from, "from", "", "departure airport")
	f.StringVar(&searchOpts.to, "to", "", "arrival airport")
	f.StringVar(&searchOpts.start, "start", "", "first departure date (YYYY-MM-DD)")
	f.StringVar(&searchOpts.end, "end", "", "last departure date, defaults to --start")
	f.IntVar(&searchOpts.stay, "stay", 0, "days between departure and return; 0 searches one-way")
	f.StringVarP(&searchOpts.cabin, "cabin", "c", string(domain.CabinEconomy), "cabin: first, business, premium or economy")
	f.IntVarP(&searchOpts.quantity, "quantity", "q", 1, "passengers")
	f.BoolVar(&searchOpts.partners, "partners", false, "include partner awards")
	f.BoolVar(&searchOpts.noCache, "no-cache", false, "search even when recent results are cached")
	f.BoolVar(&searchOpts.noParse, "no-parse", false, "store assets without parsing awards")
	for _, name := range []string{"engine", "from", "to", "start"} {
		_ = searchCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search --engine UA --from ORD --to PEK --start 2019-09-18 [--end 2019-09-20] [--stay 7]",
	Short: "Searches airline websites and stores the awards found.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, searchOpts)
	},
}

// buildQueries returns one query per engine and departure date, in date
// order.
func buildQueries(opts searchOptions) (map[string][]*domain.Query, error) {
	start, err := time.Parse(domain.DateLayout, opts.start)
	if err != nil {
		return nil, fmt.Errorf("%w: start: %v", domain.ErrInvalidQuery, err)
	}
	end := start
	if opts.end != "" {
		if end, err = time.Parse(domain.DateLayout, opts.end); err != nil {
			return nil, fmt.Errorf("%w: end: %v", domain.ErrInvalidQuery, err)
		}
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s is before start %s", domain.ErrInvalidQuery, opts.end, opts.start)
	}
	if opts.stay < 0 {
		return nil, fmt.Errorf("%w: stay must not be negative", domain.ErrInvalidQuery)
	}

	out := make(map[string][]*domain.Query)
	for _, engine := range opts.engines {
		engine = strings.ToUpper(strings.TrimSpace(engine))
		if engine == "" {
			continue
		}
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			params := domain.QueryParams{
				Engine:     engine,
				Partners:   opts.partners,
				Cabin:      opts.cabin,
				Quantity:   opts.quantity,
				FromCity:   opts.from,
				ToCity:     opts.to,
				DepartDate: day.Format(domain.DateLayout),
			}
			if opts.stay > 0 {
				params.ReturnDate = day.AddDate(0, 0, opts.stay).Format(domain.DateLayout)
			}
			query, err := domain.NewQuery(params)
			if err != nil {
				return nil, err
			}
			out[engine] = append(out[engine], query)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no engine given", domain.ErrInvalidQuery)
	}
	return out, nil
}

func runSearch(cmd *cobra.Command, opts searchOptions) error {
	ctx := cmd.Context()
	queries, err := buildQueries(opts)
	if err != nil {
		return err
	}

	a, err := openApp(ctx, !opts.noCache)
	if err != nil {
		return err
	}
	defer a.Close()

	var jobs []usecase.Job
	for id, list := range queries {
		engine, err := a.newEngine(ctx, id)
		if err != nil {
			return err
		}
		defer engine.Close()

		runOpts := usecase.RunOptions{
			Store:    a.store,
			Registry: a.registry,
			Assets:   a.assets,
			// asset paths are relative to the asset store root
			AssetsDir: ".",
			Compress:  a.cfg.Storage.Compress,
			Parse:     !opts.noParse,
			Logger:    a.log,
		}
		if !opts.noCache {
			runOpts.Cache = a.cache
		}
		jobs = append(jobs, usecase.Job{Runner: usecase.NewRunner(engine, runOpts), Queries: list})
	}

	results := usecase.RunEngines(ctx, jobs)
	renderSummaries(cmd.OutOrStdout(), results)

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Engine, r.Err))
		}
	}
	return errors.Join(errs...)
}

// newEngine creates and initializes the engine of airline id.
func (a *app) newEngine(ctx context.Context, id string) (*usecase.Engine, error) {
	site, err := a.registry.Get(id)
	if err != nil {
		return nil, err
	}

	browser := a.cfg.Browser
	sessionCfg := session.DefaultConfig()
	sessionCfg.RequestsPerSecond = browser.RequestsPerSecond
	sessionCfg.Burst = browser.Burst
	sessionCfg.DumpDir = browser.DumpDir
	sessionCfg.Logger = a.log

	engine, err := usecase.NewEngine(site,
		usecase.WithSessionFactory(session.NewFactory(sessionCfg)),
		usecase.WithAssetStore(a.assets),
		usecase.WithLogger(a.log),
		usecase.WithThrottleOptions(usecase.WithCheckpointStore(a.store)),
	)
	if err != nil {
		return nil, err
	}

	err = engine.Initialize(ctx, usecase.InitOptions{
		Headless:        browser.Headless,
		Proxy:           browser.Proxy(),
		Credentials:     a.cfg.Credentials(id),
		UserAgent:       browser.UserAgent,
		Timeout:         browser.NavigationTimeout,
		DisableThrottle: !a.cfg.Throttle.Enabled,
	})
	if err != nil {
		_ = engine.Close()
		return nil, err
	}
	return engine, nil
}
