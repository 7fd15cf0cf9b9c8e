package domain

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=domain

import (
	"context"
	"net/http"
	"time"

	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/logger"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/timeutil"
)

// Credentials are the loyalty account login details for one site.
type Credentials struct {
	Username string
	Password string
}

// IsZero reports whether no credentials were supplied.
func (c Credentials) IsZero() bool {
	return c.Username == "" && c.Password == ""
}

// Request is a page load or form submission issued through a Session.
type Request struct {
	// Method defaults to GET
	Method string

	// URL is absolute, or relative to the current page
	URL string

	// Query holds URL query parameters
	Query map[string]string

	// Form is sent url-encoded when non-empty
	Form map[string]string

	// JSON is sent as the request body when non-nil
	JSON interface{}

	// Headers are added to the session's default headers
	Headers map[string]string
}

// Response is the outcome of a Request.
type Response struct {
	URL         string
	Status      int
	ContentType string
	Body        []byte
	Header      http.Header
}

// OK reports whether the status is 2xx or 304 Not Modified.
func (r *Response) OK() bool {
	return (r.Status >= 200 && r.Status < 300) || r.Status == http.StatusNotModified
}

// Proxy configures an authenticated outbound proxy.
type Proxy struct {
	URL      string
	Username string
	Password string
}

// SessionOptions configure a new browsing session.
type SessionOptions struct {
	Headless  bool
	Proxy     *Proxy
	Cookies   []*http.Cookie
	UserAgent string
	Timeout   time.Duration
}

// Session is a browsing session owned by exactly one Engine.
type Session interface {
	// Do issues a request and makes its response the current page.
	Do(ctx context.Context, req *Request) (*Response, error)

	// Current returns the current page, or nil before the first request.
	Current() *Response

	// Screenshot captures the visible state of the current page.
	Screenshot(ctx context.Context) ([]byte, error)

	// Cookies returns the cookies of the session.
	Cookies() []*http.Cookie

	// Close releases the session.
	Close() error
}

// SessionFactory opens a new Session.
type SessionFactory func(ctx context.Context, opts SessionOptions) (Session, error)

// WaitOptions bound a wait for page state.
type WaitOptions struct {
	Timeout  time.Duration
	Interval time.Duration
}

// Page is the view of the session handed to site automations. Non-OK
// responses are returned as *NavigationError and penalize the throttle.
type Page interface {
	// Goto navigates to the URL.
	Goto(ctx context.Context, url string) (*Response, error)

	// Submit issues an arbitrary request (form post, JSON fetch).
	Submit(ctx context.Context, req *Request) (*Response, error)

	// Current returns the current page, or nil before the first request.
	Current() *Response

	// Screenshot captures the visible state of the current page.
	Screenshot(ctx context.Context) ([]byte, error)

	// WaitFor polls check until it reports true, fails, or the timeout
	// expires. A timeout is reported as ErrTimeout.
	WaitFor(ctx context.Context, check func(ctx context.Context) (bool, error), opts WaitOptions) error
}

// Searcher drives one airline's search UI.
type Searcher interface {
	// Search performs a full search and stores raw assets on results.
	Search(ctx context.Context, query *Query, results *Results) error
}

// Authenticator is implemented by searchers of sites requiring login.
type Authenticator interface {
	// IsLoggedIn inspects the current page for a logged-in state.
	IsLoggedIn(ctx context.Context) (bool, error)

	// Login enters credentials. It may fail with one of the credential errors.
	Login(ctx context.Context, creds Credentials) error
}

// Modifier is implemented by searchers able to change a prior search in place.
type Modifier interface {
	// Modify applies diff to the previous search. It returns false when the
	// change could not be applied and a full search is required.
	Modify(ctx context.Context, diff QueryDiff, query, prev *Query, results *Results) (bool, error)
}

// QueryValidator is implemented by searchers with site-specific query rules.
type QueryValidator interface {
	// Validate returns a *ValidationError for queries the site cannot run.
	Validate(query *Query) error
}

// Parsed is the output of a Parser: standalone flights owning their awards
// and/or awards referencing their flight.
type Parsed struct {
	Flights []*Flight
	Awards  []*Award
}

// Parser extracts flights and awards from the assets captured by a search.
type Parser interface {
	// Parse returns a *ParserError for malformed content. Any other error
	// is treated as a bug.
	Parse(ctx context.Context, results *Results) (Parsed, error)
}

// SiteEnv is handed to a SearcherFactory when an engine initializes.
type SiteEnv struct {
	Config *AirlineConfig
	Page   Page

	// Clock and Log are the engine's; nil selects the real clock and a
	// no-op logger
	Clock timeutil.Clock
	Log   *logger.Logger
}

// SearcherFactory builds the searcher of a site for one engine session.
type SearcherFactory func(env SiteEnv) (Searcher, error)

// AssetStore persists captured assets.
type AssetStore interface {
	// Write stores contents at path, gzip-compressed when compress is true.
	Write(ctx context.Context, path string, contents []byte, compress bool) error

	// Read loads the contents at path, decompressing .gz files.
	Read(ctx context.Context, path string) ([]byte, error)
}
