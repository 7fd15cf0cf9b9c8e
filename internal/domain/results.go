package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AssetKind is the type of a captured asset.
type AssetKind string

// Asset kinds.
const (
	AssetHTML       AssetKind = "html"
	AssetJSON       AssetKind = "json"
	AssetScreenshot AssetKind = "screenshot"
)

// Asset is one raw capture of a search. Contents are held in memory unless
// Path is set, in which case they are loaded through the AssetStore.
type Asset struct {
	Name     string `json:"name"`
	Path     string `json:"path,omitempty"`
	Contents []byte `json:"contents,omitempty"`
}

// Assets are the ordered captures of a search, by kind.
type Assets struct {
	HTML       []Asset `json:"html"`
	JSON       []Asset `json:"json"`
	Screenshot []Asset `json:"screenshot"`
}

// ResultsOptions wire a Results to its collaborators.
type ResultsOptions struct {
	// Store persists assets when the query configures paths
	Store AssetStore

	// Parser turns assets into flights and awards
	Parser Parser

	// Page supplies screenshots; nil for results loaded from storage
	Page Page

	// CreatedAt defaults to time.Now()
	CreatedAt time.Time
}

// Results holds the raw assets of one search and lazily parses them.
type Results struct {
	id        string
	engine    string
	query     *Query
	createdAt time.Time

	store  AssetStore
	parser Parser
	page   Page

	mu     sync.Mutex
	assets Assets
	err    error

	parseOnce sync.Once
	flights   []*Flight
	awards    []*Award
	parseErr  error
}

// NewResults creates an empty Results for query.
func NewResults(engine string, query *Query, opts ResultsOptions) *Results {
	createdAt := opts.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &Results{
		id:        uuid.New().String(),
		engine:    strings.ToUpper(engine),
		query:     query,
		createdAt: createdAt.UTC(),
		store:     opts.Store,
		parser:    opts.Parser,
		page:      opts.Page,
	}
}

// ID returns the unique id of the results.
func (r *Results) ID() string { return r.id }

// Engine returns the id of the engine that produced the results.
func (r *Results) Engine() string { return r.engine }

// Query returns the query that was searched.
func (r *Results) Query() *Query { return r.query }

// CreatedAt returns when the search started.
func (r *Results) CreatedAt() time.Time { return r.createdAt }

// OK reports whether no error was recorded.
func (r *Results) OK() bool { return r.Err() == nil }

// Err returns the recorded error, if any.
func (r *Results) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// SetError records err on the results. The first error wins.
func (r *Results) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}

// Assets returns a copy of the captured assets.
func (r *Results) Assets() Assets {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Assets{
		HTML:       append([]Asset(nil), r.assets.HTML...),
		JSON:       append([]Asset(nil), r.assets.JSON...),
		Screenshot: append([]Asset(nil), r.assets.Screenshot...),
	}
}

// HasScreenshot reports whether at least one screenshot was captured.
func (r *Results) HasScreenshot() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.assets.Screenshot) > 0
}

// SaveHTML captures an HTML document under name.
func (r *Results) SaveHTML(ctx context.Context, name, contents string) error {
	return r.save(ctx, AssetHTML, name, []byte(contents))
}

// SaveJSON captures a JSON document under name. contents may be raw bytes,
// a string or any value that encoding/json can marshal.
func (r *Results) SaveJSON(ctx context.Context, name string, contents interface{}) error {
	var data []byte
	switch v := contents.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return fmt.Errorf("encode %s json: %w", name, err)
		}
	}
	if !json.Valid(data) {
		return fmt.Errorf("asset %s is not valid json", name)
	}
	return r.save(ctx, AssetJSON, name, data)
}

// Screenshot captures the current page under name.
func (r *Results) Screenshot(ctx context.Context, name string) error {
	if r.page == nil {
		return errors.New("screenshot: results have no page")
	}
	data, err := r.page.Screenshot(ctx)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	return r.save(ctx, AssetScreenshot, name, data)
}

func (r *Results) save(ctx context.Context, kind AssetKind, name string, contents []byte) error {
	if name == "" {
		name = "results"
	}

	var base string
	compress := false
	if r.query != nil {
		opts := r.query.Assets()
		switch kind {
		case AssetHTML:
			base, compress = opts.HTMLPath, opts.Compress
		case AssetJSON:
			base, compress = opts.JSONPath, opts.Compress
		case AssetScreenshot:
			base = opts.ScreenshotPath
		}
	}

	r.mu.Lock()
	list := r.list(kind)
	for _, a := range *list {
		if a.Name == name {
			r.mu.Unlock()
			return fmt.Errorf("%s asset %q already saved", kind, name)
		}
	}
	asset := Asset{Name: name}
	if base != "" && r.store != nil {
		asset.Path = assetPath(base, name, len(*list))
		if compress {
			asset.Path += ".gz"
		}
	} else {
		asset.Contents = append([]byte(nil), contents...)
	}
	*list = append(*list, asset)
	r.mu.Unlock()

	if asset.Path == "" {
		return nil
	}
	if err := r.store.Write(ctx, asset.Path, contents, compress); err != nil {
		return fmt.Errorf("write %s asset %q: %w", kind, name, err)
	}
	return nil
}

// list returns the asset slice of kind. Callers hold r.mu.
func (r *Results) list(kind AssetKind) *[]Asset {
	switch kind {
	case AssetHTML:
		return &r.assets.HTML
	case AssetJSON:
		return &r.assets.JSON
	default:
		return &r.assets.Screenshot
	}
}

// assetPath returns base for the first asset and inserts "-name" before the
// extension for later ones.
func assetPath(base, name string, index int) string {
	if index == 0 {
		return base
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-" + name + ext
}

// HTML returns the contents of the named HTML asset. An empty name selects
// the first one.
func (r *Results) HTML(ctx context.Context, name string) (string, error) {
	data, err := r.load(ctx, AssetHTML, name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// JSON decodes the named JSON asset into v. An empty name selects the first one.
func (r *Results) JSON(ctx context.Context, name string, v interface{}) error {
	data, err := r.load(ctx, AssetJSON, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode json asset %q: %w", name, err)
	}
	return nil
}

func (r *Results) load(ctx context.Context, kind AssetKind, name string) ([]byte, error) {
	r.mu.Lock()
	var found *Asset
	for _, a := range *r.list(kind) {
		if name == "" || a.Name == name {
			a := a
			found = &a
			break
		}
	}
	r.mu.Unlock()

	if found == nil {
		return nil, fmt.Errorf("no %s asset named %q", kind, name)
	}
	if found.Path == "" {
		if found.Contents == nil {
			return nil, fmt.Errorf("%s asset %q has neither a path nor contents", kind, found.Name)
		}
		return found.Contents, nil
	}
	if r.store == nil {
		return nil, fmt.Errorf("%s asset %q is on disk but results have no store", kind, found.Name)
	}
	return r.store.Read(ctx, found.Path)
}

// Flights returns the deduplicated flights of the search. The parse runs
// at most once; its outcome, success or failure, is cached.
func (r *Results) Flights(ctx context.Context) ([]*Flight, error) {
	r.parse(ctx)
	return r.flights, r.parseErr
}

// Awards returns the awards of all flights, in flight order.
func (r *Results) Awards(ctx context.Context) ([]*Award, error) {
	r.parse(ctx)
	return r.awards, r.parseErr
}

func (r *Results) parse(ctx context.Context) {
	r.parseOnce.Do(func() {
		if r.parser == nil {
			r.parseErr = fmt.Errorf("results for %s have no parser", r.engine)
			return
		}
		parsed, err := r.parser.Parse(ctx, r)
		if err != nil {
			// integrity errors are bugs and stay off the results
			if Classify(err) == KindParser {
				r.SetError(err)
			}
			r.parseErr = err
			return
		}
		r.flights, r.awards, r.parseErr = Reconcile(parsed)
	})
}

// resultsJSON is the persisted form of Results.
type resultsJSON struct {
	ID        string    `json:"id"`
	Engine    string    `json:"engine"`
	Query     *Query    `json:"query"`
	CreatedAt time.Time `json:"createdAt"`
	Assets    Assets    `json:"assets"`
	Error     string    `json:"error,omitempty"`
}

// MarshalJSON encodes the query, assets and recorded error. Parsed flights
// are not persisted; they are rebuilt from the assets.
func (r *Results) MarshalJSON() ([]byte, error) {
	out := resultsJSON{
		ID:        r.id,
		Engine:    r.engine,
		Query:     r.query,
		CreatedAt: r.createdAt,
		Assets:    r.Assets(),
	}
	if err := r.Err(); err != nil {
		out.Error = err.Error()
	}
	return json.Marshal(out)
}

// LoadResults restores results saved with MarshalJSON, wiring the parser
// of the engine from registry so the assets can be parsed again.
func LoadResults(data []byte, registry *Registry, store AssetStore) (*Results, error) {
	var in resultsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	site, err := registry.Get(in.Engine)
	if err != nil {
		return nil, err
	}
	r := &Results{
		id:        in.ID,
		engine:    site.ID(),
		query:     in.Query,
		createdAt: in.CreatedAt,
		store:     store,
		parser:    site.Parser,
		assets:    in.Assets,
	}
	if r.id == "" {
		r.id = uuid.New().String()
	}
	if in.Error != "" {
		r.err = NewSearcherError(r.engine, "load", errors.New(in.Error))
	}
	return r, nil
}
