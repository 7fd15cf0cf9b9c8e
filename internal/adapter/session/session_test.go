package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
)

// newSiteServer serves a tiny login-protected award site.
func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html><body>home</body></html>")
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.FormValue("username") != "user" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc", Path: "/"})
		http.Redirect(w, r, "/account", http.StatusFound)
	})
	mux.HandleFunc("/account", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("sid")
		if err != nil {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = io.WriteString(w, "account "+c.Value)
	})
	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"from":    body["from"],
			"page":    r.URL.Query().Get("page"),
			"agent":   r.UserAgent(),
			"referer": r.Referer(),
			"custom":  r.Header.Get("X-Custom"),
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig() Config {
	return Config{RequestsPerSecond: 100, Burst: 10}
}

func newTestSession(t *testing.T, opts domain.SessionOptions, cfg Config) *Session {
	t.Helper()
	s, err := New(context.Background(), opts, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSession_Do(t *testing.T) {
	srv := newSiteServer(t)
	ctx := context.Background()

	t.Run("get sets the current page", func(t *testing.T) {
		s := newTestSession(t, domain.SessionOptions{}, testConfig())
		assert.Nil(t, s.Current())

		resp, err := s.Do(ctx, &domain.Request{URL: srv.URL + "/"})
		require.NoError(t, err)
		assert.True(t, resp.OK())
		assert.Equal(t, "text/html", resp.ContentType)
		assert.Contains(t, string(resp.Body), "home")
		assert.Same(t, resp, s.Current())
	})

	t.Run("form login keeps cookies and follows redirects", func(t *testing.T) {
		s := newTestSession(t, domain.SessionOptions{}, testConfig())

		resp, err := s.Do(ctx, &domain.Request{
			Method: http.MethodPost,
			URL:    srv.URL + "/login",
			Form:   map[string]string{"username": "user", "password": "secret"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, srv.URL+"/account", resp.URL)
		assert.Equal(t, "account abc", string(resp.Body))

		cookies := s.Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "sid", cookies[0].Name)
		assert.Equal(t, "127.0.0.1", cookies[0].Domain)

		// cookies carry over into a fresh session
		next := newTestSession(t, domain.SessionOptions{Cookies: cookies}, testConfig())
		resp, err = next.Do(ctx, &domain.Request{URL: srv.URL + "/account"})
		require.NoError(t, err)
		assert.Equal(t, "account abc", string(resp.Body))
	})

	t.Run("non-2xx is a response, not an error", func(t *testing.T) {
		s := newTestSession(t, domain.SessionOptions{}, testConfig())

		resp, err := s.Do(ctx, &domain.Request{URL: srv.URL + "/account"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.Status)
		assert.False(t, resp.OK())
	})

	t.Run("json request relative to the current page", func(t *testing.T) {
		s := newTestSession(t, domain.SessionOptions{UserAgent: "flightplan-test"}, testConfig())

		_, err := s.Do(ctx, &domain.Request{URL: srv.URL + "/"})
		require.NoError(t, err)
		resp, err := s.Do(ctx, &domain.Request{
			Method:  http.MethodPost,
			URL:     "api/search",
			Query:   map[string]string{"page": "2"},
			JSON:    map[string]string{"from": "ORD"},
			Headers: map[string]string{"X-Custom": "yes"},
		})
		require.NoError(t, err)
		require.True(t, resp.OK())

		var echoed map[string]string
		require.NoError(t, json.Unmarshal(resp.Body, &echoed))
		assert.Equal(t, map[string]string{
			"from":    "ORD",
			"page":    "2",
			"agent":   "flightplan-test",
			"referer": srv.URL + "/",
			"custom":  "yes",
		}, echoed)
	})

	t.Run("relative url without a page", func(t *testing.T) {
		s := newTestSession(t, domain.SessionOptions{}, testConfig())
		_, err := s.Do(ctx, &domain.Request{URL: "/account"})
		assert.ErrorContains(t, err, "without a current page")
	})

	t.Run("seeded cookies are sent", func(t *testing.T) {
		host := strings.TrimPrefix(srv.URL, "http://")
		hostname := strings.Split(host, ":")[0]
		s := newTestSession(t, domain.SessionOptions{
			Cookies: []*http.Cookie{{Name: "sid", Value: "restored", Domain: hostname, Path: "/"}},
		}, testConfig())

		resp, err := s.Do(ctx, &domain.Request{URL: srv.URL + "/account"})
		require.NoError(t, err)
		assert.Equal(t, "account restored", string(resp.Body))
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := newTestSession(t, domain.SessionOptions{}, testConfig())
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := s.Do(cancelled, &domain.Request{URL: srv.URL + "/"})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, s.Current())
	})

	t.Run("closed session", func(t *testing.T) {
		s := newTestSession(t, domain.SessionOptions{}, testConfig())
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())

		_, err := s.Do(ctx, &domain.Request{URL: srv.URL + "/"})
		assert.Error(t, err)
	})

	t.Run("bypass transport still reaches the site", func(t *testing.T) {
		cfg := testConfig()
		cfg.Bypass = true
		s := newTestSession(t, domain.SessionOptions{Timeout: 5 * time.Second}, cfg)

		resp, err := s.Do(ctx, &domain.Request{URL: srv.URL + "/"})
		require.NoError(t, err)
		assert.True(t, resp.OK())
	})
}

func TestSession_Screenshot(t *testing.T) {
	srv := newSiteServer(t)
	s := newTestSession(t, domain.SessionOptions{}, testConfig())

	_, err := s.Screenshot(context.Background())
	assert.ErrorIs(t, err, ErrNoPage)

	_, err = s.Do(context.Background(), &domain.Request{URL: srv.URL + "/"})
	require.NoError(t, err)
	shot, err := s.Screenshot(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(shot), "home")
}

func TestSession_Dump(t *testing.T) {
	srv := newSiteServer(t)
	dir := t.TempDir()
	cfg := testConfig()
	cfg.DumpDir = dir
	s := newTestSession(t, domain.SessionOptions{}, cfg)

	_, err := s.Do(context.Background(), &domain.Request{URL: srv.URL + "/"})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "00001-"))

	data, err := os.ReadFile(dir + "/" + entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(data), "200 OK")
	assert.Contains(t, string(data), "home")
}

func TestProxyURL(t *testing.T) {
	got, err := proxyURL(&domain.Proxy{URL: "http://proxy.local:3128", Username: "scout", Password: "p@ss"})
	require.NoError(t, err)
	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "proxy.local:3128", u.Host)
	assert.Equal(t, "scout", u.User.Username())
	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss", pass)

	_, err = proxyURL(&domain.Proxy{URL: "not a url"})
	assert.Error(t, err)
}

func TestNewFactory(t *testing.T) {
	factory := NewFactory(testConfig())
	s, err := factory(context.Background(), domain.SessionOptions{
		Proxy: &domain.Proxy{URL: "http://proxy.local:3128"},
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = factory(context.Background(), domain.SessionOptions{
		Cookies: []*http.Cookie{{Name: "sid", Value: "x"}},
	})
	assert.ErrorContains(t, err, "no domain")
}
