package cpm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// tokenPath is the OAuth2 client-credentials exchange endpoint.
const tokenPath = "/oauth/access_token"

// tokenSafetyMargin is subtracted from the server-reported expiry so a token
// is refreshed before a race with server-side expiry can reject a call.
const tokenSafetyMargin = 60 * time.Second

// TokenAuthenticator performs the OAuth2 client-credentials exchange and
// refreshes the bearer token transparently once it nears expiry. A failed
// exchange is fatal (bad client ID/secret or a misconfigured endpoint) and is
// surfaced, never silently retried. Safe for concurrent use.
type TokenAuthenticator struct {
	cfg     *clientcredentials.Config
	baseCtx context.Context
	logger  *slog.Logger

	mu     sync.Mutex
	source oauth2.TokenSource
}

// NewTokenAuthenticator creates a token authenticator for the given server.
// The exchange authenticates with HTTP Basic clientID:clientSecret and a
// grant_type=client_credentials body, per the server's OAuth surface.
func NewTokenAuthenticator(baseURL, clientID, clientSecret string, httpClient *http.Client, logger *slog.Logger) *TokenAuthenticator {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     baseURL + tokenPath,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	baseCtx := context.Background()
	if httpClient != nil {
		baseCtx = context.WithValue(baseCtx, oauth2.HTTPClient, httpClient)
	}

	t := &TokenAuthenticator{
		cfg:     cfg,
		baseCtx: baseCtx,
		logger:  logger,
	}
	t.source = t.newSource()

	return t
}

// newSource builds a caching token source. ReuseTokenSourceWithExpiry holds
// the current token and re-exchanges only once now passes expiry minus the
// safety margin.
func (t *TokenAuthenticator) newSource() oauth2.TokenSource {
	return oauth2.ReuseTokenSourceWithExpiry(nil, t.cfg.TokenSource(t.baseCtx), tokenSafetyMargin)
}

// EnsureValid makes sure a usable token is held, performing at most one
// fresh exchange. A valid cached token means no network call.
func (t *TokenAuthenticator) EnsureValid(ctx context.Context) error {
	_, err := t.BearerToken(ctx)

	return err
}

// BearerToken returns the current access token, refreshing it if needed.
func (t *TokenAuthenticator) BearerToken(_ context.Context) (string, error) {
	t.mu.Lock()
	source := t.source
	t.mu.Unlock()

	tok, err := source.Token()
	if err != nil {
		return "", &AuthError{
			Strategy: StrategyToken,
			Err:      fmt.Errorf("token exchange failed — check client ID and secret: %w", err),
		}
	}

	if tok.AccessToken == "" {
		return "", &AuthError{
			Strategy: StrategyToken,
			Err:      fmt.Errorf("token endpoint returned no access_token"),
		}
	}

	t.logger.Debug("bearer token ready",
		slog.String("type", tok.TokenType),
		slog.Time("expiry", tok.Expiry),
	)

	return tok.AccessToken, nil
}

// Invalidate discards the cached token so the next call performs a fresh
// exchange. Called on configuration change.
func (t *TokenAuthenticator) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.source = t.newSource()
}
