// Package usecase contains the award search orchestration: the Engine
// driving one airline site, its throttle and login loop, the multi-query
// Runner, and award filtering and ranking.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/logger"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/retry"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/timeutil"
)

const tracerName = "github.com/flightplan-tool/flightplan-sub000/internal/usecase"

// ErrNoSessionFactory is returned by Initialize when the engine was built
// without a way to open a session.
var ErrNoSessionFactory = errors.New("no session factory configured")

// InitOptions configure the session of an Engine.
type InitOptions struct {
	Headless    bool
	Proxy       *domain.Proxy
	Cookies     []*http.Cookie
	Credentials domain.Credentials
	UserAgent   string

	// Timeout bounds every page load; defaults to the airline's navigation timeout
	Timeout time.Duration

	// DisableThrottle skips throttling regardless of the airline profile
	DisableThrottle bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSessionFactory sets how sessions are opened.
func WithSessionFactory(factory domain.SessionFactory) EngineOption {
	return func(e *Engine) { e.newSession = factory }
}

// WithAssetStore sets where assets with a configured path are written.
func WithAssetStore(store domain.AssetStore) EngineOption {
	return func(e *Engine) { e.store = store }
}

// WithClock sets the clock used for date windows, throttling and waits.
func WithClock(clock timeutil.Clock) EngineOption {
	return func(e *Engine) { e.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

// WithTracer sets the tracer; defaults to the global otel provider.
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) { e.tracer = tracer }
}

// WithThrottleOptions passes options to the throttle created by Initialize.
func WithThrottleOptions(opts ...ThrottleOption) EngineOption {
	return func(e *Engine) { e.throttleOpts = append(e.throttleOpts, opts...) }
}

// Engine drives the search UI of one airline through one session. It runs
// one search at a time; run several engines for concurrency.
type Engine struct {
	site         domain.Site
	cfg          *domain.AirlineConfig
	newSession   domain.SessionFactory
	store        domain.AssetStore
	clock        timeutil.Clock
	log          *logger.Logger
	tracer       trace.Tracer
	throttleOpts []ThrottleOption

	// searching serializes Initialize, Search and Close and guards the
	// fields below; mu also guards throttle, for Checkpoint during a search.
	searching sync.Mutex
	mu        sync.Mutex
	session   domain.Session
	page      *enginePage
	searcher  domain.Searcher
	throttle  *Throttle
	creds     domain.Credentials
	prevQuery *domain.Query
	closed    bool
}

// NewEngine creates an engine for site. Call Initialize before searching.
func NewEngine(site domain.Site, opts ...EngineOption) (*Engine, error) {
	if site.Config == nil {
		return nil, fmt.Errorf("%w: site without config", domain.ErrInvalidConfig)
	}
	e := &Engine{
		site:   site,
		cfg:    site.Config,
		clock:  timeutil.NewRealClock(),
		log:    logger.Nop(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.WithEngine(e.cfg.ID)
	return e, nil
}

// ID returns the airline id of the engine.
func (e *Engine) ID() string { return e.cfg.ID }

// Config returns the airline configuration.
func (e *Engine) Config() *domain.AirlineConfig { return e.cfg }

// Checkpoint returns the throttle state, or the zero value before Initialize.
func (e *Engine) Checkpoint() Checkpoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.throttle == nil {
		return Checkpoint{}
	}
	return e.throttle.Checkpoint()
}

// Initialize opens the session, builds the searcher and loads the home
// page to seed referrer state.
func (e *Engine) Initialize(ctx context.Context, opts InitOptions) error {
	e.searching.Lock()
	defer e.searching.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("engine %s is closed", e.cfg.ID)
	}
	if e.session != nil {
		return fmt.Errorf("engine %s is already initialized", e.cfg.ID)
	}
	if e.site.NewSearcher == nil {
		return fmt.Errorf("%w: %s", domain.ErrNoSearcher, e.cfg.ID)
	}
	if e.newSession == nil {
		return ErrNoSessionFactory
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = e.cfg.NavigationTimeout.Std()
	}

	session, err := e.newSession(ctx, domain.SessionOptions{
		Headless:  opts.Headless,
		Proxy:     opts.Proxy,
		Cookies:   opts.Cookies,
		UserAgent: opts.UserAgent,
		Timeout:   timeout,
	})
	if err != nil {
		return fmt.Errorf("open session for %s: %w", e.cfg.ID, err)
	}

	profile := e.cfg.Throttling
	if opts.DisableThrottle {
		profile.Disabled = true
	}
	throttleOpts := append([]ThrottleOption{
		WithThrottleClock(e.clock),
		WithThrottleLogger(e.log),
	}, e.throttleOpts...)
	throttle := NewThrottle(e.cfg.ID, profile, throttleOpts...)

	page := &enginePage{
		session:  session,
		throttle: throttle,
		clock:    e.clock,
		timeout:  timeout,
		log:      e.log,
	}
	searcher, err := e.site.NewSearcher(domain.SiteEnv{Config: e.cfg, Page: page, Clock: e.clock, Log: e.log})
	if err != nil {
		_ = session.Close()
		return fmt.Errorf("create searcher for %s: %w", e.cfg.ID, err)
	}

	_, err = retry.DoWithResult(ctx, func() (*domain.Response, error) {
		return page.Goto(ctx, e.cfg.HomeURL)
	}, retry.NavigationConfig.WithClock(e.clock))
	if err != nil {
		_ = session.Close()
		return domain.NewSearcherError(e.cfg.ID, "initialize", err)
	}

	e.session = session
	e.page = page
	e.searcher = searcher
	e.throttle = throttle
	e.creds = opts.Credentials

	e.log.Info().
		Str("home", e.cfg.HomeURL).
		Bool("throttled", !profile.Disabled).
		Msg("engine initialized")
	return nil
}

// Search runs query and returns its results.
//
// Validation and credential errors are returned. Searcher errors
// (navigation failures, timeouts, unexpected pages) and parser errors are
// recorded on the results, which are returned with a nil error. Any other
// error is returned along with the partial results.
func (e *Engine) Search(ctx context.Context, query *domain.Query) (*domain.Results, error) {
	e.searching.Lock()
	defer e.searching.Unlock()

	if e.session == nil || e.closed {
		return nil, domain.ErrNotInitialized
	}
	if query == nil {
		return nil, domain.NewValidationError("query", "is required")
	}

	ctx, span := e.tracer.Start(ctx, "Engine.Search", trace.WithAttributes(
		attribute.String("engine", e.cfg.ID),
		attribute.String("query", query.String()),
	))
	defer span.End()

	log := e.log.WithQuery(query)

	if err := e.validate(query); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := e.throttle.Wait(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	results, err := e.run(ctx, query, log)

	if !results.HasScreenshot() {
		if shotErr := results.Screenshot(ctx, ""); shotErr != nil {
			log.Warn().Err(shotErr).Msg("failed to capture screenshot")
		}
	}

	if err != nil {
		e.prevQuery = nil
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		switch domain.Classify(err) {
		case domain.KindSearcher, domain.KindParser:
			var searcherErr *domain.SearcherError
			if !errors.As(err, &searcherErr) && !domain.IsParserError(err) {
				err = domain.NewSearcherError(e.cfg.ID, "search", err)
			}
			log.Error().Err(err).Msg("search failed")
			results.SetError(err)
			return results, nil
		default:
			return results, err
		}
	}

	e.prevQuery = query
	span.SetAttributes(attribute.Int("assets.html", len(results.Assets().HTML)))
	log.Info().Str("results", results.ID()).Msg("search complete")
	return results, nil
}

// run tries the modify short-circuit and falls back to a full search.
func (e *Engine) run(ctx context.Context, query *domain.Query, log *logger.Logger) (*domain.Results, error) {
	results := e.newResults(query)

	if diff, ok := e.modifiable(query); ok {
		modifier := e.searcher.(domain.Modifier)
		applied, err := modifier.Modify(ctx, diff, query, e.prevQuery, results)
		switch {
		case err == nil && applied:
			log.Info().Interface("fields", diff.Fields()).Msg("modified previous search")
			return results, nil
		case err != nil && domain.Classify(err) != domain.KindSearcher:
			return results, err
		case err != nil:
			log.Warn().Err(err).Msg("modify failed, running full search")
		default:
			log.Info().Msg("modify not applied, running full search")
		}
		// Assets of the failed attempt are discarded
		results = e.newResults(query)
	}

	return results, e.fullSearch(ctx, query, results)
}

func (e *Engine) fullSearch(ctx context.Context, query *domain.Query, results *domain.Results) error {
	if _, err := e.page.Goto(ctx, e.cfg.SearchURL); err != nil {
		return err
	}

	ok, err := e.ensureLoggedIn(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewSearcherError(e.cfg.ID, "login", domain.ErrLoginFailed)
	}

	return e.searcher.Search(ctx, query, results)
}

// ensureLoggedIn is not applicable, and succeeds, for sites without login.
func (e *Engine) ensureLoggedIn(ctx context.Context) (bool, error) {
	auth, ok := e.searcher.(domain.Authenticator)
	if !ok || !e.cfg.LoginRequired {
		return true, nil
	}
	return ensureLoggedIn(ctx, auth, e.creds, func(ctx context.Context) error {
		_, err := e.page.Goto(ctx, e.cfg.SearchURL)
		return err
	}, e.log)
}

// modifiable returns the diff against the previous successful query when
// every changed field can be applied in place.
func (e *Engine) modifiable(query *domain.Query) (domain.QueryDiff, bool) {
	if e.prevQuery == nil || len(e.cfg.Modifiable) == 0 {
		return nil, false
	}
	if _, ok := e.searcher.(domain.Modifier); !ok {
		return nil, false
	}
	diff := query.Diff(e.prevQuery)
	if len(diff) == 0 {
		return nil, false
	}
	for _, field := range diff.Fields() {
		if !e.cfg.IsModifiable(field) {
			return nil, false
		}
	}
	return diff, true
}

func (e *Engine) newResults(query *domain.Query) *domain.Results {
	return domain.NewResults(e.cfg.ID, query, domain.ResultsOptions{
		Store:     e.store,
		Parser:    e.site.Parser,
		Page:      e.page,
		CreatedAt: e.clock.Now(),
	})
}

// validate checks query against the airline before any network activity.
func (e *Engine) validate(query *domain.Query) error {
	if query.Engine() != "" && query.Engine() != e.cfg.ID {
		return domain.NewValidationError("engine", fmt.Sprintf("query is for %s, engine is %s", query.Engine(), e.cfg.ID))
	}

	first, last := e.cfg.ValidDateRange(e.clock.Now().UTC())
	window := fmt.Sprintf("must be between %s and %s", first.Format(domain.DateLayout), last.Format(domain.DateLayout))
	if query.DepartDate().Before(first) || query.DepartDate().After(last) {
		return domain.NewValidationError(string(domain.FieldDepartDate), window)
	}
	if !query.OneWay() && query.ReturnDate().After(last) {
		return domain.NewValidationError(string(domain.FieldReturnDate), window)
	}

	if !e.cfg.SupportsCabin(query.Cabin()) {
		return domain.NewValidationError(string(domain.FieldCabin), fmt.Sprintf("%s does not offer %s awards", e.cfg.Name, query.Cabin()))
	}

	if v, ok := e.searcher.(domain.QueryValidator); ok {
		if err := v.Validate(query); err != nil {
			if domain.IsValidationError(err) {
				return err
			}
			return domain.NewValidationError("query", err.Error())
		}
	}
	return nil
}

// Close releases the session. It is safe to call more than once.
func (e *Engine) Close() error {
	e.searching.Lock()
	defer e.searching.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.prevQuery = nil
	if e.session == nil {
		return nil
	}
	err := e.session.Close()
	e.session = nil
	e.log.Info().Msg("engine closed")
	return err
}
