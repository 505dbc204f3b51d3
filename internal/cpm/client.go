package cpm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

const userAgent = "pscpm-go/0.1"

// verifyDelay is how long VerifyWrite waits before re-reading, absorbing the
// server's publish-processing lag. Tests shorten it via sleepFunc.
const verifyDelay = 2 * time.Second

// Client talks to the CPM web-service surface: folder tree listing, page
// content read/write, asset creation, and write verification. All operations
// authenticate through the AuthRouter; a call rejected with 401/403 triggers
// exactly one re-authentication and one retry before the error surfaces.
type Client struct {
	baseURL    string
	httpClient *http.Client
	router     *AuthRouter
	logger     *slog.Logger

	// sleepFunc waits before the verification re-read. Tests override it to
	// avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error

	// writeLocks holds one binary semaphore per remote path. WriteContent
	// queues on it so a publish racing a background sync cannot interleave
	// the create/update call pair; every queued write still executes.
	writeMu    sync.Mutex
	writeLocks map[string]*semaphore.Weighted

	mu        sync.Mutex
	treeCache map[string]*TreeNode
}

// NewClient creates a CPM client. httpClient should carry the configured
// timeout and TLS settings; nil falls back to http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client, router *AuthRouter, logger *slog.Logger) *Client {
	if router == nil {
		panic("cpm: NewClient requires an AuthRouter")
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		router:     router,
		logger:     logger,
		sleepFunc:  sleepCtx,
		writeLocks: make(map[string]*semaphore.Weighted),
		treeCache:  make(map[string]*TreeNode),
	}
}

// writeLock returns the per-path write semaphore, creating it on first use.
func (c *Client) writeLock(path string) *semaphore.Weighted {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	sem, ok := c.writeLocks[path]
	if !ok {
		sem = semaphore.NewWeighted(1)
		c.writeLocks[path] = sem
	}

	return sem
}

// EnsureAuthenticated acquires a valid credential for the given endpoint
// without issuing a request. Used by the login command to verify
// configuration up front.
func (c *Client) EnsureAuthenticated(ctx context.Context, endpoint string) error {
	return c.router.EnsureAuthenticated(ctx, endpoint)
}

// do executes one authenticated request against the CPM surface. body may be
// nil; contentType is only set when a body is present. The caller closes the
// response body on success.
//
// A 401/403 response invalidates the routed credential, re-authenticates,
// and retries the identical request once. Any further auth rejection is
// surfaced as an APIError distinguishing "not authenticated" from
// "forbidden".
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, contentType string) (*http.Response, error) {
	const maxAttempts = 2

	for attempt := 1; ; attempt++ {
		if err := c.router.EnsureAuthenticated(ctx, endpoint); err != nil {
			return nil, err
		}

		resp, err := c.doOnce(ctx, method, endpoint, body, contentType)
		if err != nil {
			return nil, fmt.Errorf("cpm: %s %s: %w", method, endpoint, err)
		}

		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			c.logger.Debug("request succeeded",
				slog.String("method", method),
				slog.String("endpoint", endpoint),
				slog.Int("status", resp.StatusCode),
			)

			return resp, nil
		}

		errBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if readErr != nil {
			errBody = []byte("(failed to read response body)")
		}

		if isAuthStatus(resp.StatusCode) && attempt < maxAttempts {
			c.logger.Warn("credential rejected, re-authenticating once",
				slog.String("endpoint", endpoint),
				slog.Int("status", resp.StatusCode),
			)

			c.router.Invalidate(endpoint)

			continue
		}

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(errBody),
			Err:        classifyStatus(resp.StatusCode),
		}
	}
}

// doOnce executes a single HTTP request (no retry).
func (c *Client) doOnce(ctx context.Context, method, endpoint string, body []byte, contentType string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	// The server's web services check the Referer against its own admin UI.
	req.Header.Set("Referer", c.baseURL+probePath)

	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if err := c.router.Decorate(ctx, req, endpoint); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	c.router.HarvestCookies(resp)

	return resp, nil
}

// doJSON executes a request and decodes the JSON response into out.
// A non-JSON body where JSON was promised is an ErrParse — fatal, since it
// means the endpoint is not the CPM surface.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body []byte, contentType string, out any) error {
	resp, err := c.do(ctx, method, endpoint, body, contentType)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("cpm: reading response: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s %s returned non-JSON body: %v", ErrParse, method, endpoint, err)
	}

	return nil
}

// sleepCtx waits for the given duration or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
