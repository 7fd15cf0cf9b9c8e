// Package integration provides helpers and end-to-end tests for the award
// search system. The tests run the real session, engine, site automation,
// storage and HTTP API against fake award websites.
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/airline/jsonapi"
	httpAdapter "github.com/flightplan-tool/flightplan-sub000/internal/adapter/http"
	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/http/middleware"
	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/session"
	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/storage/sqlite"
	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/assets"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/logger"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/timeutil"
	"github.com/flightplan-tool/flightplan-sub000/internal/usecase"
	"github.com/flightplan-tool/flightplan-sub000/test/mock"
	"github.com/flightplan-tool/flightplan-sub000/test/testutil"
)

// Today is the date the engines believe it is.
const Today = "2019-09-01T12:00:00Z"

// Pipeline wires fake award sites to the real search stack and storage.
type Pipeline struct {
	Registry *domain.Registry
	Store    *sqlite.Store
	Assets   *assets.FileStore
	Server   *TestServer

	sites map[string]*mock.AwardSite
}

// NewPipeline registers one airline per site, keyed by airline id. Sites
// must be started.
func NewPipeline(t *testing.T, sites map[string]*mock.AwardSite, loginRequired bool) *Pipeline {
	t.Helper()

	ids := make([]string, 0, len(sites))
	for id := range sites {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var registered []domain.Site
	for _, id := range ids {
		cfg := testutil.AirlineConfig(sites[id].URL(), loginRequired)
		cfg.ID = id
		registered = append(registered, jsonapi.NewSite(cfg))
	}
	registry, err := domain.NewRegistry(registered...)
	require.NoError(t, err)

	store, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	files, err := assets.NewFileStore(t.TempDir())
	require.NoError(t, err)

	return &Pipeline{
		Registry: registry,
		Store:    store,
		Assets:   files,
		Server:   NewTestServer(store, registry),
		sites:    sites,
	}
}

// Engine returns an initialized engine for airline id.
func (p *Pipeline) Engine(t *testing.T, id string, creds domain.Credentials) *usecase.Engine {
	t.Helper()
	site, err := p.Registry.Get(id)
	require.NoError(t, err)

	engine, err := usecase.NewEngine(site,
		usecase.WithSessionFactory(session.NewFactory(session.Config{RequestsPerSecond: 100, Burst: 10})),
		usecase.WithClock(timeutil.NewMockClockFromString(Today)),
		usecase.WithAssetStore(p.Assets),
		usecase.WithThrottleOptions(usecase.WithCheckpointStore(p.Store)),
	)
	require.NoError(t, err)
	require.NoError(t, engine.Initialize(context.Background(), usecase.InitOptions{Credentials: creds}))
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

// RunOptions returns runner options storing into the pipeline, with
// compressed assets on disk.
func (p *Pipeline) RunOptions(cache usecase.ResultsCache) usecase.RunOptions {
	return usecase.RunOptions{
		Cache:     cache,
		Store:     p.Store,
		Registry:  p.Registry,
		Assets:    p.Assets,
		AssetsDir: ".",
		Compress:  true,
		Parse:     true,
		Logger:    logger.Nop(),
	}
}

// MemoryCache is an in-process ResultsCache keyed by query.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]byte)}
}

// Get implements usecase.ResultsCache.
func (c *MemoryCache) Get(_ context.Context, query *domain.Query) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[query.Engine()+" "+query.String()]
	return data, ok
}

// Set implements usecase.ResultsCache.
func (c *MemoryCache) Set(_ context.Context, query *domain.Query, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[query.Engine()+" "+query.String()] = data
	return nil
}

// TestServer wraps an Echo instance serving the award API.
type TestServer struct {
	Echo    *echo.Echo
	Handler *httpAdapter.AwardHandler
}

// NewTestServer creates a test server over store, with the full
// middleware stack.
func NewTestServer(store httpAdapter.AwardStore, registry *domain.Registry) *TestServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	middleware.Setup(e, logger.Nop())
	handler := httpAdapter.NewAwardHandler(store, registry)
	httpAdapter.RegisterRoutes(e, handler)

	return &TestServer{
		Echo:    e,
		Handler: handler,
	}
}

// Response represents a test HTTP response.
type Response struct {
	Code    int
	Body    []byte
	Headers http.Header
}

// Get executes a GET request.
func (ts *TestServer) Get(path string) Response {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	ts.Echo.ServeHTTP(rec, req)

	return Response{
		Code:    rec.Code,
		Body:    rec.Body.Bytes(),
		Headers: rec.Header(),
	}
}

// Data decodes the data of a success envelope into v.
func (r *Response) Data(v interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.Body, &envelope); err != nil {
		return err
	}
	return json.Unmarshal(envelope.Data, v)
}

// ParseError extracts the error object from an error response.
func (r *Response) ParseError() (map[string]interface{}, error) {
	var body map[string]interface{}
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return nil, err
	}
	if errObj, ok := body["error"].(map[string]interface{}); ok {
		return errObj, nil
	}
	return body, nil
}

// RequestList is the payload of GET /api/v1/requests.
type RequestList struct {
	Total int                      `json:"total"`
	Items []httpAdapter.RequestDTO `json:"items"`
}
