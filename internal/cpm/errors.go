// Package cpm implements a client for the Customization Page Management
// subsystem of a PowerSchool server: authentication (cookie session, OAuth2
// client credentials, or a hybrid per-endpoint mix), folder tree listing,
// page content read/write, and write verification.
package cpm

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for response classification.
// Use errors.Is(err, cpm.ErrNotFound) to check.
var (
	// ErrUnauthorized means the server rejected the call as not logged in.
	// Remediation is a credential fix (username/password or client ID/secret).
	ErrUnauthorized = errors.New("cpm: not authenticated")

	// ErrForbidden means the call was authenticated but refused. This usually
	// indicates a permission mapping or plugin installation problem on the
	// server, not bad credentials.
	ErrForbidden = errors.New("cpm: forbidden")

	ErrBadRequest  = errors.New("cpm: bad request")
	ErrNotFound    = errors.New("cpm: not found")
	ErrServerError = errors.New("cpm: server error")

	// ErrParse means a response expected to be JSON was not, or had an
	// unexpected shape. This is fatal: it indicates the endpoint is not the
	// CPM surface this client speaks to.
	ErrParse = errors.New("cpm: malformed response")
)

// APIError wraps a sentinel error with the HTTP status and the server's
// message body for operator-visible reporting.
type APIError struct {
	StatusCode int
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnauthorized):
		return fmt.Sprintf("cpm: HTTP %d: not authenticated — check the configured credentials: %s", e.StatusCode, e.Message)
	case errors.Is(e.Err, ErrForbidden):
		return fmt.Sprintf("cpm: HTTP %d: forbidden — the account lacks CPM access (check permission mappings and plugin installation): %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("cpm: HTTP %d: %s", e.StatusCode, e.Message)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// AuthError reports a failed login or token exchange. It is fatal to the
// operation that triggered it; the caller surfaces it so the operator can
// fix the configuration.
type AuthError struct {
	Strategy Strategy
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("cpm: %s authentication failed: %v", e.Strategy, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch {
	case code >= http.StatusOK && code < http.StatusMultipleChoices:
		return nil
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusBadRequest:
		return ErrBadRequest
	case code >= http.StatusInternalServerError:
		return ErrServerError
	default:
		return fmt.Errorf("cpm: unexpected status %d", code)
	}
}

// isAuthStatus reports whether a status code indicates an expired or missing
// credential, which triggers the single re-authentication retry.
func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
