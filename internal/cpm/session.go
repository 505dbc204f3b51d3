package cpm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// Session endpoints. The login page seeds the cookies some server versions
// require before they accept credentials; the customization home page doubles
// as the authenticated-only probe and the Referer anchor for API calls.
const (
	loginPagePath   = "/admin/pw.html"
	loginSubmitPath = "/admin/home.html"
	probePath       = "/admin/customization/home.html"
)

const (
	// defaultSessionWindow is how long a validated session is trusted without
	// re-probing. Probing costs a round trip, so calls inside the window skip
	// the network entirely.
	defaultSessionWindow = 5 * time.Minute

	// probeTimeout bounds the availability probe. Other calls use the
	// transport's configured timeout.
	probeTimeout = 10 * time.Second
)

// SessionAuthenticator performs the cookie-based browser login handshake and
// tracks a time-boxed validity window. Safe for concurrent use.
type SessionAuthenticator struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *slog.Logger

	window time.Duration
	now    func() time.Time

	mu         sync.Mutex
	cookies    map[string]string
	valid      bool
	validSince time.Time
}

// NewSessionAuthenticator creates a session authenticator for the given
// server. The provided HTTP client's transport settings are reused, but
// redirects are never followed: a 302 from the credential submission is a
// success signal that must be observed, not chased.
func NewSessionAuthenticator(baseURL, username, password string, httpClient *http.Client, logger *slog.Logger) *SessionAuthenticator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	noRedirect := *httpClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &SessionAuthenticator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: &noRedirect,
		logger:     logger,
		window:     defaultSessionWindow,
		now:        time.Now,
		cookies:    make(map[string]string),
	}
}

// EnsureValid makes the session usable, logging in if needed. Inside the
// validity window it returns immediately without any network call. Past the
// window it probes first; only a failed probe triggers a fresh login.
func (s *SessionAuthenticator) EnsureValid(ctx context.Context) error {
	s.mu.Lock()
	withinWindow := s.valid && s.now().Sub(s.validSince) < s.window
	hasSession := len(s.cookies) > 0
	s.mu.Unlock()

	if withinWindow {
		return nil
	}

	if hasSession {
		if err := s.Probe(ctx); err == nil {
			return nil
		}
	}

	return s.login(ctx)
}

// login performs the two-step handshake: harvest seed cookies from the login
// page, then submit credentials. HTTP 200 or a 302 redirect both count as a
// successful login; anything else is an AuthError.
func (s *SessionAuthenticator) login(ctx context.Context) error {
	s.logger.Info("logging in", slog.String("server", s.baseURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+loginPagePath, nil)
	if err != nil {
		return &AuthError{Strategy: StrategySession, Err: err}
	}

	s.decorate(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &AuthError{Strategy: StrategySession, Err: fmt.Errorf("fetching login page: %w", err)}
	}

	s.HarvestCookies(resp)
	resp.Body.Close()

	form := url.Values{
		"username":       {s.username},
		"password":       {s.password},
		"ldappassword":   {s.password},
		"request_locale": {"en_US"},
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+loginSubmitPath, strings.NewReader(form.Encode()))
	if err != nil {
		return &AuthError{Strategy: StrategySession, Err: err}
	}

	s.decorate(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", s.baseURL+loginPagePath)

	resp, err = s.httpClient.Do(req)
	if err != nil {
		return &AuthError{Strategy: StrategySession, Err: fmt.Errorf("submitting credentials: %w", err)}
	}

	s.HarvestCookies(resp)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusFound {
		s.Invalidate()

		return &AuthError{
			Strategy: StrategySession,
			Err:      fmt.Errorf("login rejected with HTTP %d — check username and password", resp.StatusCode),
		}
	}

	s.mu.Lock()
	s.valid = true
	s.validSince = s.now()
	s.mu.Unlock()

	s.logger.Info("login successful", slog.Int("cookies", s.cookieCount()))

	return nil
}

// Probe issues an authenticated-only request to detect server-side session
// expiry (admin logout, session kill) before the validity window would lapse.
// Any non-200 response invalidates the session immediately, regardless of
// the window.
func (s *SessionAuthenticator) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+probePath, nil)
	if err != nil {
		return &AuthError{Strategy: StrategySession, Err: err}
	}

	s.decorate(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.Invalidate()

		return &AuthError{Strategy: StrategySession, Err: fmt.Errorf("session probe: %w", err)}
	}

	defer resp.Body.Close()
	s.HarvestCookies(resp)

	if resp.StatusCode != http.StatusOK {
		s.Invalidate()
		s.logger.Debug("session probe rejected", slog.Int("status", resp.StatusCode))

		return &AuthError{
			Strategy: StrategySession,
			Err:      fmt.Errorf("session no longer valid (probe returned HTTP %d)", resp.StatusCode),
		}
	}

	s.mu.Lock()
	s.valid = true
	s.validSince = s.now()
	s.mu.Unlock()

	return nil
}

// Invalidate discards the validity window. Cookies are kept — the server may
// reuse the session seed on the next login — but nothing is trusted until a
// login or probe succeeds again. Called on configuration change and whenever
// a downstream call sees a 401/403.
func (s *SessionAuthenticator) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.valid = false
	s.validSince = time.Time{}
}

// HarvestCookies records every Set-Cookie on the response, last write wins.
func (s *SessionAuthenticator) HarvestCookies(resp *http.Response) {
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range cookies {
		if c.Name != "" {
			s.cookies[c.Name] = c.Value
		}
	}
}

// CookieHeader renders the stored cookies as a Cookie header value,
// name-sorted for deterministic output. Empty when no cookies are held.
func (s *SessionAuthenticator) CookieHeader() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cookies) == 0 {
		return ""
	}

	names := make([]string, 0, len(s.cookies))
	for name := range s.cookies {
		names = append(names, name)
	}

	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+s.cookies[name])
	}

	return strings.Join(pairs, "; ")
}

// decorate applies the headers every session-surface request carries.
func (s *SessionAuthenticator) decorate(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)

	if cookie := s.CookieHeader(); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
}

func (s *SessionAuthenticator) cookieCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.cookies)
}
