package cpm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// Strategy selects how the client authenticates against the server.
type Strategy string

const (
	// StrategySession uses the cookie-based browser login flow for everything.
	StrategySession Strategy = "session"
	// StrategyToken uses OAuth2 client-credentials bearer tokens for everything.
	StrategyToken Strategy = "token"
	// StrategyHybrid routes per endpoint: the CPM surface is only reachable
	// through the browser-session side of the server, while the rest of the
	// web-service API accepts bearer tokens.
	StrategyHybrid Strategy = "hybrid"
)

// ParseStrategy validates a strategy name from configuration.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategySession, StrategyToken, StrategyHybrid:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("cpm: unknown auth strategy %q (want session, token, or hybrid)", s)
	}
}

// sessionOnlyPrefixes are endpoint prefixes that reject bearer tokens even
// when the same credentials succeed elsewhere. The customization surface is
// only reachable via the browser-session side of the server.
var sessionOnlyPrefixes = []string{"/ws/cpm/", "/admin/"}

// AuthRouter chooses which authenticator applies to a remote endpoint and
// exposes a single "make this call authenticated" contract, so callers never
// assume one mechanism suffices system-wide.
type AuthRouter struct {
	strategy Strategy
	session  *SessionAuthenticator
	token    *TokenAuthenticator
	logger   *slog.Logger
}

// NewAuthRouter wires the configured authenticators. session and token may
// each be nil when the strategy does not use them; NewAuthRouter does not
// validate that pairing — the configuration layer does, with remediation
// text, before anything reaches this package.
func NewAuthRouter(strategy Strategy, session *SessionAuthenticator, token *TokenAuthenticator, logger *slog.Logger) *AuthRouter {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthRouter{
		strategy: strategy,
		session:  session,
		token:    token,
		logger:   logger,
	}
}

// routeFor returns the strategy that applies to one endpoint path.
// Single-strategy configurations short-circuit the decision.
func (r *AuthRouter) routeFor(endpoint string) Strategy {
	if r.strategy != StrategyHybrid {
		return r.strategy
	}

	for _, prefix := range sessionOnlyPrefixes {
		if strings.HasPrefix(endpoint, prefix) {
			return StrategySession
		}
	}

	return StrategyToken
}

// EnsureAuthenticated makes sure a valid credential is held for the given
// endpoint, logging in or exchanging a token only when needed.
func (r *AuthRouter) EnsureAuthenticated(ctx context.Context, endpoint string) error {
	switch r.routeFor(endpoint) {
	case StrategySession:
		return r.session.EnsureValid(ctx)
	default:
		return r.token.EnsureValid(ctx)
	}
}

// Decorate applies the authentication material for the endpoint to the
// request: the session cookie header or the bearer token.
func (r *AuthRouter) Decorate(ctx context.Context, req *http.Request, endpoint string) error {
	switch r.routeFor(endpoint) {
	case StrategySession:
		if cookie := r.session.CookieHeader(); cookie != "" {
			req.Header.Set("Cookie", cookie)
		}

		return nil
	default:
		tok, err := r.token.BearerToken(ctx)
		if err != nil {
			return err
		}

		req.Header.Set("Authorization", "Bearer "+tok)

		return nil
	}
}

// Invalidate discards the credential that was routed to the endpoint.
// Called when a downstream response comes back 401/403 so the single
// re-authentication retry starts from a clean slate.
func (r *AuthRouter) Invalidate(endpoint string) {
	r.logger.Debug("invalidating credentials", slog.String("endpoint", endpoint))

	switch r.routeFor(endpoint) {
	case StrategySession:
		r.session.Invalidate()
	default:
		r.token.Invalidate()
	}
}

// InvalidateAll discards every held credential. Called on configuration
// reload.
func (r *AuthRouter) InvalidateAll() {
	if r.session != nil {
		r.session.Invalidate()
	}

	if r.token != nil {
		r.token.Invalidate()
	}
}

// HarvestCookies forwards response cookies to the session authenticator,
// which tracks them last-write-wins. No-op for token-only configurations.
func (r *AuthRouter) HarvestCookies(resp *http.Response) {
	if r.session != nil {
		r.session.HarvestCookies(resp)
	}
}
