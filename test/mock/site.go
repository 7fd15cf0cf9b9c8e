// Package mock provides test doubles for the award search system.
// AwardSite is a fake award website speaking the jsonapi protocol, with
// configurable login, polling and failures, for end-to-end tests that run
// the real session, engine and site automation.
package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/airline/jsonapi"
)

const (
	memberCookie = "member"
	loginToken   = "tok-5f2a"
)

// AwardSite is a configurable fake award website.
type AwardSite struct {
	mu sync.Mutex

	username, password string
	memberID           string
	loginError         string
	challenge          bool
	searchStatus       int
	pendingPolls       int
	response           jsonapi.SearchResponse

	searches []jsonapi.SearchRequest
	modifies []jsonapi.ModifyRequest
	logins   int
	polls    int
	nextID   int
	open     map[string]int

	server *httptest.Server
}

// NewAwardSite creates a site answering every search with an empty
// complete response. Configure it with the With methods, then Start it.
func NewAwardSite() *AwardSite {
	return &AwardSite{
		memberID: "AB12345",
		response: jsonapi.SearchResponse{Status: jsonapi.StatusComplete},
		open:     make(map[string]int),
	}
}

// WithLogin requires an account with the given credentials.
func (s *AwardSite) WithLogin(username, password string) *AwardSite {
	s.username, s.password = username, password
	return s
}

// WithLoginError makes every login attempt fail with message.
func (s *AwardSite) WithLoginError(message string) *AwardSite {
	s.loginError = message
	return s
}

// WithChallenge serves a bot challenge instead of the login form.
func (s *AwardSite) WithChallenge() *AwardSite {
	s.challenge = true
	return s
}

// WithResponse sets the trips returned by completed searches from a
// jsonapi response document.
func (s *AwardSite) WithResponse(t *testing.T, body []byte) *AwardSite {
	t.Helper()
	var resp jsonapi.SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("invalid award site response: %v", err)
	}
	s.response.Trips = resp.Trips
	return s
}

// WithPendingPolls makes each search report pending for n status polls.
func (s *AwardSite) WithPendingPolls(n int) *AwardSite {
	s.pendingPolls = n
	return s
}

// WithSearchStatus makes the search endpoint answer with an HTTP status.
func (s *AwardSite) WithSearchStatus(status int) *AwardSite {
	s.searchStatus = status
	return s
}

// Start serves the site until the test ends.
func (s *AwardSite) Start(t *testing.T) *AwardSite {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /award", s.handlePage)
	mux.HandleFunc("POST /account/login", s.handleLogin)
	mux.HandleFunc("POST /api/awards", s.handleSearch)
	mux.HandleFunc("GET /api/awards/{id}", s.handlePoll)
	mux.HandleFunc("POST /api/awards/{id}/modify", s.handleModify)

	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

// URL returns the base URL of the running site.
func (s *AwardSite) URL() string {
	return s.server.URL
}

// Searches returns the search requests received so far.
func (s *AwardSite) Searches() []jsonapi.SearchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]jsonapi.SearchRequest(nil), s.searches...)
}

// Modifies returns the modify requests received so far.
func (s *AwardSite) Modifies() []jsonapi.ModifyRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]jsonapi.ModifyRequest(nil), s.modifies...)
}

// Logins returns the number of login form posts.
func (s *AwardSite) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

// Polls returns the number of status polls.
func (s *AwardSite) Polls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

// Reset clears the recorded requests.
func (s *AwardSite) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches, s.modifies = nil, nil
	s.logins, s.polls = 0, 0
}

func (s *AwardSite) loggedIn(r *http.Request) bool {
	if s.username == "" {
		return true
	}
	c, err := r.Cookie(memberCookie)
	return err == nil && c.Value == s.memberID
}

func (s *AwardSite) handlePage(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString("<html><body>\n")
	switch {
	case s.challenge:
		b.WriteString(`<div class="g-recaptcha"></div>`)
	case s.loggedIn(r) && s.username != "":
		fmt.Fprintf(&b, `<div data-member-id=%q>Welcome back</div>`, s.memberID)
	case !s.loggedIn(r):
		fmt.Fprintf(&b, `<form id="login" action="/account/login" method="post">
<input type="hidden" name="logintoken" value=%q>
<input type="text" name="username"><input type="password" name="password">
</form>`, loginToken)
	}
	b.WriteString("\n<form id=\"award-search\" data-api=\"/api/awards\"></form>\n</body></html>")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

func (s *AwardSite) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.logins++
	s.mu.Unlock()

	if err := r.ParseForm(); err != nil || r.PostForm.Get("logintoken") != loginToken {
		http.Error(w, "bad token", http.StatusBadRequest)
		return
	}
	if s.loginError == "" && r.PostForm.Get("username") == s.username && r.PostForm.Get("password") == s.password {
		http.SetCookie(w, &http.Cookie{Name: memberCookie, Value: s.memberID, Path: "/"})
		http.Redirect(w, r, "/award", http.StatusFound)
		return
	}

	message := s.loginError
	if message == "" {
		message = "The password you entered is incorrect."
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<html><body><p class="login-error">%s</p></body></html>`, message)
}

func (s *AwardSite) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !s.loggedIn(r) {
		http.Error(w, "login required", http.StatusUnauthorized)
		return
	}
	if s.searchStatus != 0 {
		http.Error(w, http.StatusText(s.searchStatus), s.searchStatus)
		return
	}
	var req jsonapi.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.searches = append(s.searches, req)
	s.nextID++
	id := fmt.Sprintf("s%d", s.nextID)
	s.open[id] = s.pendingPolls
	s.mu.Unlock()

	s.writeStatus(w, id)
}

func (s *AwardSite) handlePoll(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	s.polls++
	remaining, ok := s.open[id]
	if ok && remaining > 0 {
		s.open[id] = remaining - 1
	}
	s.mu.Unlock()

	if !ok {
		http.Error(w, "unknown search", http.StatusNotFound)
		return
	}
	s.writeStatus(w, id)
}

func (s *AwardSite) handleModify(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req jsonapi.ModifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	_, ok := s.open[id]
	if ok {
		s.modifies = append(s.modifies, req)
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, jsonapi.SearchResponse{SearchID: id, Status: jsonapi.StatusError, Message: "search expired"})
		return
	}
	s.writeStatus(w, id)
}

func (s *AwardSite) writeStatus(w http.ResponseWriter, id string) {
	s.mu.Lock()
	pending := s.open[id] > 0
	s.mu.Unlock()

	if pending {
		writeJSON(w, jsonapi.SearchResponse{SearchID: id, Status: jsonapi.StatusPending})
		return
	}
	resp := s.response
	resp.SearchID = id
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
