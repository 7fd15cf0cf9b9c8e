package jsonapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
)

const (
	loginFormSelector    = "form#login, form[data-login]"
	loggedInSelector     = "[data-member-id]"
	loginErrorSelector   = ".login-error, [data-login-error]"
	botChallengeSelector = "#captcha, .g-recaptcha, [data-challenge]"
)

// IsLoggedIn reports whether the current page shows a member session.
func (s *Searcher) IsLoggedIn(ctx context.Context) (bool, error) {
	current := s.page.Current()
	if current == nil {
		return false, nil
	}
	doc, err := document(current)
	if err != nil {
		return false, s.fail("login", err)
	}
	if doc.Find(botChallengeSelector).Length() > 0 {
		return false, domain.ErrBotDetected
	}
	member := strings.TrimSpace(doc.Find(loggedInSelector).AttrOr("data-member-id", ""))
	return member != "", nil
}

// Login submits the login form of the current page, or of the home page
// when the current page has none. Hidden inputs, such as anti-forgery
// tokens, are posted back unchanged.
func (s *Searcher) Login(ctx context.Context, creds domain.Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return fmt.Errorf("%w for %s", domain.ErrMissingCredentials, s.cfg.ID)
	}

	page, form, err := s.findLoginForm(ctx)
	if err != nil {
		return err
	}

	fields := map[string]string{}
	form.Find("input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
		if name, ok := input.Attr("name"); ok {
			fields[name] = input.AttrOr("value", "")
		}
	})
	fields[form.Find("input[type=text], input[type=email]").First().AttrOr("name", "username")] = creds.Username
	fields[form.Find("input[type=password]").First().AttrOr("name", "password")] = creds.Password

	action, err := resolveURL(page.URL, form.AttrOr("action", page.URL))
	if err != nil {
		return s.fail("login", err)
	}

	resp, err := s.page.Submit(ctx, &domain.Request{
		Method: http.MethodPost,
		URL:    action,
		Form:   fields,
	})
	if resp != nil {
		if credErr := credentialError(resp); credErr != nil {
			return credErr
		}
	}
	return err
}

func (s *Searcher) findLoginForm(ctx context.Context) (*domain.Response, *goquery.Selection, error) {
	if current := s.page.Current(); current != nil {
		if form, err := loginForm(current); err == nil && form != nil {
			return current, form, nil
		}
	}

	home, err := s.page.Goto(ctx, s.cfg.HomeURL)
	if err != nil {
		return nil, nil, err
	}
	form, err := loginForm(home)
	if err != nil {
		return nil, nil, s.fail("login", err)
	}
	if form == nil {
		return nil, nil, s.fail("login", errors.New("login form not found"))
	}
	return home, form, nil
}

func loginForm(page *domain.Response) (*goquery.Selection, error) {
	doc, err := document(page)
	if err != nil {
		return nil, err
	}
	form := doc.Find(loginFormSelector).First()
	if form.Length() == 0 {
		return nil, nil
	}
	return form, nil
}

// credentialError maps the login response to a credential error. Messages
// the site does not explain are left to the logged-in check.
func credentialError(resp *domain.Response) error {
	doc, err := document(resp)
	if err != nil {
		return nil
	}
	if doc.Find(botChallengeSelector).Length() > 0 {
		return domain.ErrBotDetected
	}

	message := strings.TrimSpace(doc.Find(loginErrorSelector).Text())
	lower := strings.ToLower(message)
	switch {
	case message == "":
		return nil
	case containsAny(lower, "locked", "suspended", "blocked", "disabled"):
		return fmt.Errorf("%w: %s", domain.ErrBlockedAccount, message)
	case containsAny(lower, "captcha", "unusual activity", "robot", "automated"):
		return fmt.Errorf("%w: %s", domain.ErrBotDetected, message)
	case containsAny(lower, "password", "incorrect", "invalid", "not recognized"):
		return fmt.Errorf("%w: %s", domain.ErrInvalidCredentials, message)
	default:
		return nil
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
