package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/logger"
)

// SearchEngine is the part of Engine used by a Runner.
type SearchEngine interface {
	ID() string
	Search(ctx context.Context, query *domain.Query) (*domain.Results, error)
}

// ResultsCache holds serialized Results of recent searches.
type ResultsCache interface {
	// Get returns the cached results of query, if any.
	Get(ctx context.Context, query *domain.Query) ([]byte, bool)

	// Set caches the serialized results of query.
	Set(ctx context.Context, query *domain.Query, data []byte) error
}

// ResultStore persists a finished search and its awards.
type ResultStore interface {
	SaveResults(ctx context.Context, results *domain.Results, awards []*domain.Award) error
}

// QueryOutcome is the result of one query of a run.
type QueryOutcome struct {
	Query   *domain.Query
	Results *domain.Results
	Awards  []*domain.Award
	Flights int
	Cached  bool
	Err     error
}

// RunSummary reports a run over a list of queries.
type RunSummary struct {
	Engine   string
	Outcomes []QueryOutcome
	Searched int
	Cached   int
	Failed   int
	Skipped  int
	Awards   int
	Flights  int

	// Stopped is true when a credential error ended the run early
	Stopped bool
	Elapsed time.Duration
}

// OK reports whether every query succeeded.
func (s RunSummary) OK() bool {
	return s.Failed == 0 && s.Skipped == 0 && !s.Stopped
}

func (s *RunSummary) add(out QueryOutcome) {
	s.Outcomes = append(s.Outcomes, out)
	switch {
	case out.Err != nil:
		s.Failed++
	case out.Cached:
		s.Cached++
	default:
		s.Searched++
	}
	s.Awards += len(out.Awards)
	s.Flights += out.Flights
}

// Runner executes a list of queries against one engine, one at a time.
//
// Searcher, parser, validation and integrity failures only fail the query
// they occur in. Credential errors stop the run since every later query
// would hit the same account. Any other error is returned.
type Runner struct {
	engine SearchEngine
	opts   RunOptions
	log    *logger.Logger
}

// NewRunner creates a runner for engine.
func NewRunner(engine SearchEngine, opts RunOptions) *Runner {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{engine: engine, opts: opts, log: log.WithEngine(engine.ID())}
}

// Run executes queries in order.
func (r *Runner) Run(ctx context.Context, queries []*domain.Query) (RunSummary, error) {
	start := time.Now()
	summary := RunSummary{Engine: r.engine.ID()}

	for i, query := range queries {
		if err := ctx.Err(); err != nil {
			summary.Skipped = len(queries) - i
			summary.Elapsed = time.Since(start)
			return summary, err
		}

		out, err := r.runOne(ctx, query)
		summary.add(out)
		if err != nil {
			summary.Skipped = len(queries) - i - 1
			if domain.Classify(err) == domain.KindCredential {
				summary.Stopped = true
				r.log.Error().Err(err).Int("skipped", summary.Skipped).Msg("credential error, stopping run")
			}
			summary.Elapsed = time.Since(start)
			return summary, err
		}
	}

	summary.Elapsed = time.Since(start)
	r.log.Info().
		Int("searched", summary.Searched).
		Int("cached", summary.Cached).
		Int("failed", summary.Failed).
		Int("awards", summary.Awards).
		Msg("run complete")
	return summary, nil
}

func (r *Runner) runOne(ctx context.Context, query *domain.Query) (QueryOutcome, error) {
	query = r.withAssetPaths(query)
	out := QueryOutcome{Query: query}
	log := r.log.WithQuery(query)

	if cached := r.fromCache(ctx, query); cached != nil {
		out.Results, out.Cached = cached, true
		log.Debug().Str("results", cached.ID()).Msg("using cached results")
	} else {
		results, err := r.engine.Search(ctx, query)
		out.Results = results
		if err != nil {
			out.Err = err
			if domain.Classify(err) == domain.KindValidation {
				log.Warn().Err(err).Msg("skipping invalid query")
				return out, nil
			}
			return out, err
		}
	}

	if !out.Results.OK() {
		out.Err = out.Results.Err()
		log.Warn().Err(out.Err).Msg("search failed")
		return out, nil
	}

	if r.opts.Parse || r.opts.Store != nil {
		awards, err := out.Results.Awards(ctx)
		if err != nil {
			out.Err = err
			log.Error().Err(err).Str("kind", domain.Classify(err).String()).Msg("failed to parse results")
			return out, nil
		}
		flights, _ := out.Results.Flights(ctx)
		out.Awards, out.Flights = awards, len(flights)
	}

	if out.Cached {
		return out, nil
	}

	if r.opts.Cache != nil {
		if data, err := json.Marshal(out.Results); err != nil {
			log.Warn().Err(err).Msg("failed to encode results for cache")
		} else if err := r.opts.Cache.Set(ctx, query, data); err != nil {
			log.Warn().Err(err).Msg("failed to cache results")
		}
	}

	if r.opts.Store != nil {
		if err := r.opts.Store.SaveResults(ctx, out.Results, out.Awards); err != nil {
			out.Err = err
			return out, fmt.Errorf("save results %s: %w", out.Results.ID(), err)
		}
	}

	log.Info().Int("awards", len(out.Awards)).Int("flights", out.Flights).Msg("query complete")
	return out, nil
}

func (r *Runner) fromCache(ctx context.Context, query *domain.Query) *domain.Results {
	if r.opts.Cache == nil || r.opts.Registry == nil {
		return nil
	}
	data, ok := r.opts.Cache.Get(ctx, query)
	if !ok {
		return nil
	}
	results, err := domain.LoadResults(data, r.opts.Registry, r.opts.Assets)
	if err != nil {
		r.log.Warn().Err(err).Msg("ignoring unreadable cached results")
		return nil
	}
	return results
}

// withAssetPaths gives query default asset paths under AssetsDir, unless
// the caller configured its own.
func (r *Runner) withAssetPaths(query *domain.Query) *domain.Query {
	if r.opts.AssetsDir == "" || query.Assets() != (domain.AssetOptions{}) {
		return query
	}

	ret := "ow"
	if !query.OneWay() {
		ret = query.ReturnDate().Format(domain.DateLayout)
	}
	name := fmt.Sprintf("%s-%s-%s-%s-%s",
		query.FromCity(), query.ToCity(),
		query.DepartDate().Format(domain.DateLayout), ret,
		strings.SplitN(uuid.NewString(), "-", 2)[0])
	base := filepath.Join(r.opts.AssetsDir, strings.ToLower(r.engine.ID()), name)

	return query.WithAssets(domain.AssetOptions{
		HTMLPath:       base + ".html",
		JSONPath:       base + ".json",
		ScreenshotPath: base + ".snapshot.html",
		Compress:       r.opts.Compress,
	})
}

// Job is the work of one engine in RunEngines.
type Job struct {
	Runner  *Runner
	Queries []*domain.Query
}

// JobResult is the outcome of one Job.
type JobResult struct {
	Engine  string
	Summary RunSummary
	Err     error
}

// RunEngines runs every job concurrently, one goroutine per engine, and
// gathers their summaries sorted by engine id. A panicking job is reported
// as an error instead of crashing the process.
func RunEngines(ctx context.Context, jobs []Job) []JobResult {
	resultsChan := make(chan JobResult, len(jobs))

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(j Job) {
			defer wg.Done()
			engine := j.Runner.engine.ID()
			defer func() {
				if rec := recover(); rec != nil {
					resultsChan <- JobResult{Engine: engine, Err: fmt.Errorf("engine %s panic: %v", engine, rec)}
				}
			}()

			summary, err := j.Runner.Run(ctx, j.Queries)
			resultsChan <- JobResult{Engine: engine, Summary: summary, Err: err}
		}(job)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	var results []JobResult
	for result := range resultsChan {
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Engine < results[j].Engine })
	return results
}
