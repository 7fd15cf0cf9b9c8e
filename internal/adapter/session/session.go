// Package session implements domain.Session over plain HTTP with resty.
//
// A Session keeps a cookie jar, follows redirects, paces its requests with a
// token bucket and remembers the last response as the current page. Sites
// that serve their award data as HTML or JSON can be automated without a
// real browser.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/logger"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// ErrNoPage is returned by Screenshot before the first request.
var ErrNoPage = errors.New("session has no current page")

// Config holds the settings shared by every session of a Factory.
type Config struct {
	// RequestsPerSecond and Burst size the token bucket of each session
	RequestsPerSecond float64
	Burst             int

	// MaxRedirects bounds redirect chains; defaults to 10
	MaxRedirects int

	// DumpDir, when set, receives a copy of every response
	DumpDir string

	// Bypass wraps the transport with browser-like TLS and headers
	Bypass bool

	Logger *logger.Logger
}

// DefaultConfig returns the settings used by the CLI.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 2,
		Burst:             4,
		MaxRedirects:      10,
		Bypass:            true,
		Logger:            logger.Nop(),
	}
}

// Session is a resty-backed browsing session.
type Session struct {
	client  *resty.Client
	jar     http.CookieJar
	limiter *rate.Limiter
	log     *logger.Logger

	mu      sync.Mutex
	current *domain.Response
	visited map[string]*url.URL
	closed  bool
}

// NewFactory returns a domain.SessionFactory opening sessions with cfg.
func NewFactory(cfg Config) domain.SessionFactory {
	return func(ctx context.Context, opts domain.SessionOptions) (domain.Session, error) {
		return New(ctx, opts, cfg)
	}
}

// New opens a session.
func New(_ context.Context, opts domain.SessionOptions, cfg Config) (*Session, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig().RequestsPerSecond
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 10
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(cfg.MaxRedirects))
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")

	// The proxy must be set while the transport is still an *http.Transport
	if opts.Proxy != nil && opts.Proxy.URL != "" {
		proxyURL, err := proxyURL(opts.Proxy)
		if err != nil {
			return nil, err
		}
		client.SetProxy(proxyURL)
	}
	if cfg.Bypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if cfg.DumpDir != "" {
		dump, err := newDumper(cfg.DumpDir, log)
		if err != nil {
			return nil, err
		}
		client.OnAfterResponse(dump.onAfterResponse)
	}

	s := &Session{
		client:  client,
		jar:     jar,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		log:     log,
		visited: make(map[string]*url.URL),
	}
	if err := s.seedCookies(opts.Cookies); err != nil {
		return nil, err
	}

	log.Debug().
		Bool("headless", opts.Headless).
		Bool("proxy", opts.Proxy != nil).
		Int("cookies", len(opts.Cookies)).
		Msg("session opened")
	return s, nil
}

func proxyURL(p *domain.Proxy) (string, error) {
	u, err := url.Parse(p.URL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid proxy url %q", p.URL)
	}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u.String(), nil
}

// seedCookies loads cookies captured by an earlier session. Cookies need a
// domain to be placed in the jar.
func (s *Session) seedCookies(cookies []*http.Cookie) error {
	for _, c := range cookies {
		host := strings.TrimPrefix(c.Domain, ".")
		if host == "" {
			return fmt.Errorf("cookie %q has no domain", c.Name)
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		u := &url.URL{Scheme: "https", Host: host, Path: path}
		s.jar.SetCookies(u, []*http.Cookie{c})
		s.remember(u)
	}
	return nil
}

// Do issues req, relative to the current page when its URL is relative.
func (s *Session) Do(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, errors.New("session is closed")
	}

	target, err := s.resolve(req.URL)
	if err != nil {
		return nil, err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	r := s.client.R().SetContext(ctx)
	if current := s.Current(); current != nil {
		r.SetHeader("Referer", current.URL)
	}
	for k, v := range req.Headers {
		r.SetHeader(k, v)
	}
	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}
	switch {
	case len(req.Form) > 0:
		r.SetFormData(req.Form)
	case req.JSON != nil:
		r.SetHeader("Content-Type", "application/json")
		r.SetBody(req.JSON)
	}

	res, err := r.Execute(method, target.String())
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}

	final := target.String()
	if raw := res.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		final = raw.Request.URL.String()
	}
	resp := &domain.Response{
		URL:         final,
		Status:      res.StatusCode(),
		ContentType: res.Header().Get("Content-Type"),
		Body:        res.Body(),
		Header:      res.Header(),
	}

	s.mu.Lock()
	s.current = resp
	s.mu.Unlock()
	if u, err := url.Parse(final); err == nil {
		s.remember(u)
	}

	s.log.Debug().
		Str("method", method).
		Str("url", final).
		Int("status", resp.Status).
		Dur("elapsed", res.Time()).
		Msg("request complete")
	return resp, nil
}

func (s *Session) resolve(raw string) (*url.URL, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if ref.IsAbs() {
		return ref, nil
	}
	current := s.Current()
	if current == nil {
		return nil, fmt.Errorf("relative url %q without a current page", raw)
	}
	base, err := url.Parse(current.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid current url %q: %w", current.URL, err)
	}
	return base.ResolveReference(ref), nil
}

func (s *Session) remember(u *url.URL) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := u.Host
	if _, ok := s.visited[key]; !ok {
		s.visited[key] = &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
	}
}

// Current returns the last response.
func (s *Session) Current() *domain.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Screenshot returns an HTML snapshot of the current page. There is no
// renderer behind an HTTP session, so the snapshot is the raw document.
func (s *Session) Screenshot(context.Context) ([]byte, error) {
	current := s.Current()
	if current == nil {
		return nil, ErrNoPage
	}
	return append([]byte(nil), current.Body...), nil
}

// Cookies returns the cookies of every host the session has visited.
func (s *Session) Cookies() []*http.Cookie {
	s.mu.Lock()
	hosts := make([]*url.URL, 0, len(s.visited))
	for _, u := range s.visited {
		hosts = append(hosts, u)
	}
	s.mu.Unlock()

	var cookies []*http.Cookie
	for _, u := range hosts {
		for _, c := range s.jar.Cookies(u) {
			c.Domain = u.Hostname()
			cookies = append(cookies, c)
		}
	}
	return cookies
}

// Close releases idle connections. Later requests fail.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.client.GetClient().CloseIdleConnections()
	return nil
}

var _ domain.Session = (*Session)(nil)
