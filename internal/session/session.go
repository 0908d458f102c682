// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session owns the authenticated connection to the knowledge-base
// site: one cookie-backed HTTP client pinned to the base address, a
// three-strategy login sequence, and the page fetches every other stage
// goes through. The session is not safe for concurrent navigations; the
// batch loop uses it strictly sequentially.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/meshintelligence/kb-harvester/internal/httputil"
	"github.com/meshintelligence/kb-harvester/pkg/types"
)

// ErrNotAuthenticated is returned when every login strategy has been
// exhausted and the site still does not present an authenticated state.
// It is fatal to a batch but not to the process; the caller may retry.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// Session manages the live connection to the target site.
type Session struct {
	client *http.Client
	base   *url.URL
	site   types.SiteConfig
	sel    types.SelectorConfig
	fetch  types.FetchConfig
	retry  httputil.Policy

	confirm Confirmer
	w       io.Writer

	// currentAddr is the final URL of the most recent fetch, redirects
	// followed. Used by the address-based authentication check.
	currentAddr string
}

// New builds a Session for cfg. The confirmer handles the manual-login
// fallback; progress lines go to w.
func New(cfg types.PipelineConfig, confirm Confirmer, w io.Writer) (*Session, error) {
	base, err := url.Parse(cfg.Site.BaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.Site.BaseURL, err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return &Session{
		client: &http.Client{
			Jar:     jar,
			Timeout: cfg.Fetch.Timeout,
		},
		base:  base,
		site:  cfg.Site,
		sel:   cfg.Selectors,
		fetch: cfg.Fetch,
		// One attempt per fetch. The extraction stage owns the bounded
		// retry; a transport-level retry here would multiply its budget.
		retry:   httputil.Policy{MaxAttempts: 1},
		confirm: confirm,
		w:       w,
	}, nil
}

// Close releases idle connections. Cookies live only for the process.
func (s *Session) Close() {
	s.client.CloseIdleConnections()
}

// BaseURL returns the site root the session is pinned to.
func (s *Session) BaseURL() *url.URL {
	return s.base
}

// Resolve turns a possibly relative address into an absolute one against
// the session base.
func (s *Session) Resolve(addr string) string {
	u, err := url.Parse(addr)
	if err != nil {
		return addr
	}
	return s.base.ResolveReference(u).String()
}

// Get fetches a page through the session and parses it. Each call is a
// single attempt; callers that want retries wrap Get in their own policy.
func (s *Session) Get(ctx context.Context, addr string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Resolve(addr), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", addr, err)
	}
	req.Header.Set("User-Agent", s.fetch.UserAgent)

	resp, err := s.retry.DoRequest(ctx, s.client, req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, addr)
	}
	s.currentAddr = resp.Request.URL.String()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", addr, err)
	}
	return doc, nil
}

// Authenticate establishes an authenticated state, trying strategies in
// order until one succeeds: the site may already recognize the session,
// the configured credentials may fill a discovered login form, or the
// operator confirms a manual login out of band. Every call re-verifies;
// no partial state is cached. Returns false with ErrNotAuthenticated when
// all strategies fail — callers must not proceed to discovery then.
func (s *Session) Authenticate(ctx context.Context) (bool, error) {
	doc, err := s.Get(ctx, s.site.BaseURL)
	if err != nil {
		return false, fmt.Errorf("loading base page: %w", err)
	}

	if s.isAuthenticated(doc) {
		fmt.Fprintln(s.w, "session: already authenticated")
		return true, nil
	}

	if s.site.Username != "" && s.site.Password != "" {
		if err := s.submitLoginForm(ctx, doc); err != nil {
			fmt.Fprintf(s.w, "session: form login failed: %v\n", err)
		} else {
			s.settle(ctx)
			if doc, err = s.Get(ctx, s.site.BaseURL); err == nil && s.isAuthenticated(doc) {
				fmt.Fprintln(s.w, "session: authenticated via login form")
				return true, nil
			}
		}
	}

	fmt.Fprintln(s.w, "session: waiting for manual authentication")
	if err := s.confirm.Confirm(ctx, "Log in to the site in another client sharing these credentials, then confirm."); err != nil {
		return false, fmt.Errorf("manual authentication: %w", err)
	}

	if doc, err = s.Get(ctx, s.site.BaseURL); err == nil && s.isAuthenticated(doc) {
		fmt.Fprintln(s.w, "session: authenticated manually")
		return true, nil
	}
	return false, ErrNotAuthenticated
}

// isAuthenticated checks the configured DOM signals first, then falls back
// to the address heuristic: a current address without login/auth segments
// counts as authenticated.
func (s *Session) isAuthenticated(doc *goquery.Document) bool {
	for _, indicator := range s.sel.AuthIndicators {
		if doc.Find(indicator).Length() > 0 {
			return true
		}
	}
	addr := strings.ToLower(s.currentAddr)
	return !strings.Contains(addr, "login") && !strings.Contains(addr, "auth")
}

// submitLoginForm walks the login-form selector cascade looking for a form
// that contains a username field, a password field, and a submit control
// (each located through its own cascade). The first complete form is
// filled and posted, hidden inputs carried along.
func (s *Session) submitLoginForm(ctx context.Context, doc *goquery.Document) error {
	for _, formSel := range s.sel.LoginForm {
		var submitErr error
		submitted := false

		doc.Find(formSel).EachWithBreak(func(_ int, form *goquery.Selection) bool {
			userField := firstMatch(form, s.sel.UsernameField)
			passField := firstMatch(form, s.sel.PasswordField)
			submit := firstMatch(form, s.sel.SubmitButton)
			if userField == nil || passField == nil || submit == nil {
				return true // try next form
			}

			values := url.Values{}
			form.Find(`input[type="hidden"]`).Each(func(_ int, hidden *goquery.Selection) {
				if name, ok := hidden.Attr("name"); ok && name != "" {
					values.Set(name, hidden.AttrOr("value", ""))
				}
			})
			values.Set(fieldName(userField, "username"), s.site.Username)
			values.Set(fieldName(passField, "password"), s.site.Password)
			if name, ok := submit.Attr("name"); ok && name != "" {
				values.Set(name, submit.AttrOr("value", ""))
			}

			action := s.Resolve(form.AttrOr("action", s.site.BaseURL))
			submitErr = s.post(ctx, action, values)
			submitted = true
			return false
		})

		if submitted {
			return submitErr
		}
	}
	return errors.New("no usable login form found")
}

func (s *Session) post(ctx context.Context, addr string, values url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("User-Agent", s.fetch.UserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting login form: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("login form rejected: HTTP %d", resp.StatusCode)
	}
	s.currentAddr = resp.Request.URL.String()
	return nil
}

// settle pauses after a form submission so the site can finish any
// redirect dance before the authenticated state is re-checked.
func (s *Session) settle(ctx context.Context) {
	if s.fetch.SettleDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.fetch.SettleDelay):
	}
}

// firstMatch returns the first element under root matched by any selector
// in the cascade, or nil.
func firstMatch(root *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if found := root.Find(sel).First(); found.Length() > 0 {
			return found
		}
	}
	return nil
}

func fieldName(field *goquery.Selection, fallback string) string {
	if name, ok := field.Attr("name"); ok && name != "" {
		return name
	}
	return fallback
}
