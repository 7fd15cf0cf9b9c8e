// Package jsonapi automates award sites that render a search page and serve
// availability from a JSON endpoint.
//
// A full search loads the search page, reads the API endpoint from the
// search form, posts the query and polls until the search completes. The
// site keeps the search open, so date and passenger changes are applied to
// it in place. Sites requiring an account are logged into through their
// HTML login form.
package jsonapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/logger"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/timeutil"
)

// AdapterName is the value of AirlineConfig.Adapter served by this package.
const AdapterName = "jsonapi"

// MaxPassengers is the largest party the search form accepts.
const MaxPassengers = 9

// PollInterval is the delay between two status polls of a pending search.
const PollInterval = 2 * time.Second

// defaultEndpoint is used when the search form does not name its API.
const defaultEndpoint = "api/awards"

// ErrSearchFailed is returned when the site reports a failed search.
var ErrSearchFailed = errors.New("award search failed")

// Searcher drives one site through the engine's page. It implements
// domain.Searcher, domain.Modifier, domain.QueryValidator and
// domain.Authenticator.
type Searcher struct {
	cfg   *domain.AirlineConfig
	page  domain.Page
	clock timeutil.Clock
	log   *logger.Logger

	endpoint string
	searchID string
	calendar calendar
}

// calendar is the range of dates the open search can be moved to.
type calendar struct {
	first, last time.Time
}

func (c calendar) contains(date time.Time) bool {
	return !date.Before(c.first) && !date.After(c.last)
}

// NewSearcher is the domain.SearcherFactory of the adapter.
func NewSearcher(env domain.SiteEnv) (domain.Searcher, error) {
	if env.Config == nil || env.Page == nil {
		return nil, errors.New("jsonapi: config and page are required")
	}
	s := &Searcher{cfg: env.Config, page: env.Page, clock: env.Clock, log: env.Log}
	if s.clock == nil {
		s.clock = timeutil.NewRealClock()
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	s.log = s.log.WithEngine(env.Config.ID)
	return s, nil
}

// Validate rejects parties the site cannot book.
func (s *Searcher) Validate(query *domain.Query) error {
	if query.Quantity() > MaxPassengers {
		return domain.NewValidationError(string(domain.FieldQuantity), fmt.Sprintf("%s books at most %d passengers", s.cfg.Name, MaxPassengers))
	}
	return nil
}

// Search runs a new search for query from the search page.
func (s *Searcher) Search(ctx context.Context, query *domain.Query, results *domain.Results) error {
	s.searchID = ""

	current := s.page.Current()
	if current == nil {
		var err error
		if current, err = s.page.Goto(ctx, s.cfg.SearchURL); err != nil {
			return err
		}
	}
	if err := results.SaveHTML(ctx, "search", string(current.Body)); err != nil {
		return err
	}

	endpoint, err := s.resolveEndpoint(current)
	if err != nil {
		return s.fail("search", err)
	}
	s.endpoint = endpoint

	resp, err := s.page.Submit(ctx, &domain.Request{
		Method:  http.MethodPost,
		URL:     endpoint,
		JSON:    newSearchRequest(query),
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return err
	}

	final, body, err := s.await(ctx, resp)
	if err != nil {
		return err
	}
	if err := results.SaveJSON(ctx, "results", body); err != nil {
		return err
	}

	s.searchID = final.SearchID
	s.openCalendar(final.Calendar)
	s.log.Debug().Str("search_id", s.searchID).Msg("award search complete")
	return nil
}

// openCalendar records the dates the open search offers. Without a
// calendar from the site, the window of the airline config as of today is
// used.
func (s *Searcher) openCalendar(c *Calendar) {
	first, last := s.cfg.ValidDateRange(s.clock.Now())
	if c != nil {
		if t, err := time.Parse(domain.DateLayout, c.First); err == nil {
			first = t
		}
		if t, err := time.Parse(domain.DateLayout, c.Last); err == nil {
			last = t
		}
	}
	s.calendar = calendar{first: first, last: last}
}

// Modify changes the dates or passenger count of the open search. Other
// changes, or a missing open search, need a full search.
func (s *Searcher) Modify(ctx context.Context, diff domain.QueryDiff, query, prev *domain.Query, results *domain.Results) (bool, error) {
	if s.searchID == "" || s.endpoint == "" {
		return false, nil
	}
	if !s.calendar.contains(query.DepartDate()) || (!query.OneWay() && !s.calendar.contains(query.ReturnDate())) {
		s.log.Debug().
			Str("first", s.calendar.first.Format(domain.DateLayout)).
			Str("last", s.calendar.last.Format(domain.DateLayout)).
			Msg("dates outside the open search calendar")
		return false, nil
	}

	var req ModifyRequest
	for _, field := range diff.Fields() {
		switch field {
		case domain.FieldDepartDate:
			req.DepartDate = query.DepartDate().Format(domain.DateLayout)
		case domain.FieldReturnDate:
			if query.OneWay() {
				return false, nil
			}
			req.ReturnDate = query.ReturnDate().Format(domain.DateLayout)
		case domain.FieldQuantity:
			req.Passengers = query.Quantity()
		default:
			return false, nil
		}
	}

	resp, err := s.page.Submit(ctx, &domain.Request{
		Method:  http.MethodPost,
		URL:     s.endpoint + "/" + url.PathEscape(s.searchID) + "/modify",
		JSON:    req,
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return false, err
	}

	final, body, err := s.await(ctx, resp)
	if err != nil {
		return false, err
	}
	if err := results.SaveJSON(ctx, "results", body); err != nil {
		return false, err
	}
	s.searchID = final.SearchID
	if final.Calendar != nil {
		s.openCalendar(final.Calendar)
	}
	return true, nil
}

// await polls a pending search until it completes. It returns the final
// response along with its raw body.
func (s *Searcher) await(ctx context.Context, resp *domain.Response) (*SearchResponse, []byte, error) {
	last, err := s.decode(resp)
	if err != nil {
		return nil, nil, err
	}
	body := resp.Body

	if last.Status == StatusPending {
		if last.SearchID == "" {
			return nil, nil, s.fail("search", errors.New("pending search without id"))
		}
		status := s.endpoint + "/" + url.PathEscape(last.SearchID)
		err := s.page.WaitFor(ctx, func(ctx context.Context) (bool, error) {
			resp, err := s.page.Submit(ctx, &domain.Request{URL: status, Headers: map[string]string{"Accept": "application/json"}})
			if err != nil {
				return false, err
			}
			next, err := s.decode(resp)
			if err != nil {
				return false, err
			}
			last, body = next, resp.Body
			return next.Status != StatusPending, nil
		}, domain.WaitOptions{Timeout: s.cfg.NavigationTimeout.Std(), Interval: PollInterval})
		if err != nil {
			return nil, nil, err
		}
	}

	switch last.Status {
	case StatusComplete:
		return last, body, nil
	case StatusError:
		return nil, nil, s.fail("search", fmt.Errorf("%w: %s", ErrSearchFailed, last.Message))
	default:
		return nil, nil, s.fail("search", fmt.Errorf("unexpected search status %q", last.Status))
	}
}

func (s *Searcher) decode(resp *domain.Response) (*SearchResponse, error) {
	var out SearchResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, s.fail("search", fmt.Errorf("decode %s: %w", resp.URL, err))
	}
	return &out, nil
}

// resolveEndpoint reads the API endpoint from the search form of page.
func (s *Searcher) resolveEndpoint(page *domain.Response) (string, error) {
	doc, err := document(page)
	if err != nil {
		return "", err
	}
	endpoint := doc.Find("form#award-search").AttrOr("data-api", defaultEndpoint)
	return resolveURL(page.URL, endpoint)
}

func (s *Searcher) fail(op string, err error) error {
	return domain.NewSearcherError(s.cfg.ID, op, err)
}

func newSearchRequest(q *domain.Query) SearchRequest {
	req := SearchRequest{
		Origin:      q.FromCity(),
		Destination: q.ToCity(),
		DepartDate:  q.DepartDate().Format(domain.DateLayout),
		Cabin:       string(q.Cabin()),
		Passengers:  q.Quantity(),
		Partners:    q.Partners(),
	}
	if !q.OneWay() {
		req.ReturnDate = q.ReturnDate().Format(domain.DateLayout)
	}
	return req
}

func document(page *domain.Response) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", page.URL, err)
	}
	return doc, nil
}

func resolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid page url %q: %w", base, err)
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", ref, err)
	}
	return strings.TrimSuffix(b.ResolveReference(r).String(), "/"), nil
}

var (
	_ domain.Searcher       = (*Searcher)(nil)
	_ domain.Modifier       = (*Searcher)(nil)
	_ domain.QueryValidator = (*Searcher)(nil)
	_ domain.Authenticator  = (*Searcher)(nil)
)
