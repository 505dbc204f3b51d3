package cpm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-querystring/query"
	"github.com/google/uuid"

	"github.com/edtools/pscpm-go/internal/pspath"
)

const (
	contentInfoEndpoint  = "/ws/cpm/builtintext"
	contentWriteEndpoint = "/ws/cpm/customPageContent"
	createAssetEndpoint  = "/ws/cpm/createAsset"
)

type contentQuery struct {
	Path           string `url:"path"`
	LoadFolderInfo bool   `url:"LoadFolderInfo"`
}

// wireContent mirrors the builtintext endpoint's JSON.
type wireContent struct {
	ActiveCustomText      *string `json:"activeCustomText"`
	BuiltInText           *string `json:"builtInText"`
	ActiveCustomContentID int64   `json:"activeCustomContentId"`
	DraftCustomContentID  int64   `json:"draftCustomContentId"`
	Message               string  `json:"message"`
}

type writeResponse struct {
	ReturnMessage string `json:"returnMessage"`
}

// WriteAck acknowledges a successful publish.
type WriteAck struct {
	Created bool
	Message string
}

// ReadRecord fetches the content metadata for a remote path: the active
// customization, the built-in default, and the content identifier used to
// target updates.
func (c *Client) ReadRecord(ctx context.Context, path string) (*ContentRecord, error) {
	path = pspath.Normalize(path)

	v, err := query.Values(contentQuery{Path: path, LoadFolderInfo: false})
	if err != nil {
		return nil, fmt.Errorf("cpm: encoding content query: %w", err)
	}

	var parsed wireContent
	if err := c.doJSON(ctx, http.MethodGet, contentInfoEndpoint+"?"+v.Encode(), nil, "", &parsed); err != nil {
		return nil, err
	}

	rec := &ContentRecord{
		Path:      path,
		ContentID: parsed.ActiveCustomContentID,
		HasCustom: parsed.ActiveCustomText != nil,
	}

	if rec.ContentID == 0 {
		rec.ContentID = parsed.DraftCustomContentID
	}

	if parsed.ActiveCustomText != nil {
		rec.CustomText = *parsed.ActiveCustomText
	}

	if parsed.BuiltInText != nil {
		rec.BuiltIn = *parsed.BuiltInText
	}

	return rec, nil
}

// ReadContent returns the effective text for a remote path: the active
// customization if one exists, else the built-in default, else the empty
// string. A page with no customization is a valid, meaningful empty result —
// ReadContent fails only on transport, auth, or parse problems.
func (c *Client) ReadContent(ctx context.Context, path string) (string, error) {
	rec, err := c.ReadRecord(ctx, path)
	if err != nil {
		return "", err
	}

	return rec.Text(), nil
}

// ContentExists reports whether the remote path resolves to content at all.
// "Not found" is a false result, not an error; only transport/auth failures
// propagate.
func (c *Client) ContentExists(ctx context.Context, path string) (bool, error) {
	_, err := c.ReadRecord(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// WriteContent publishes text at a remote path. When a content identifier
// already exists the call is a single update; a genuinely new path needs the
// two-step create-asset-then-set-content sequence — a created asset with no
// content step is a partial failure, so the content call always follows a
// create before WriteContent returns success.
//
// Concurrent writes to the same path are serialized: each caller queues on
// a per-path lock and publishes its own payload in arrival order.
func (c *Client) WriteContent(ctx context.Context, path, text string) (*WriteAck, error) {
	path = pspath.Normalize(path)

	sem := c.writeLock(path)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("cpm: waiting for write to %s: %w", path, err)
	}

	defer sem.Release(1)

	return c.writeContent(ctx, path, text)
}

func (c *Client) writeContent(ctx context.Context, path, text string) (*WriteAck, error) {
	var contentID int64

	created := false

	rec, err := c.ReadRecord(ctx, path)

	switch {
	case errors.Is(err, ErrNotFound):
		created = true
	case err != nil:
		return nil, err
	default:
		contentID = rec.ContentID
		// No identifier, no customization, and no built-in default means the
		// asset does not exist remotely yet.
		created = contentID == 0 && !rec.HasCustom && rec.BuiltIn == ""
	}

	if created {
		if err := c.createAsset(ctx, path); err != nil {
			return nil, err
		}
	}

	msg, err := c.putContent(ctx, path, contentID, text)
	if err != nil {
		return nil, err
	}

	c.logger.Info("published content",
		slog.String("path", path),
		slog.Bool("created", created),
		slog.Int("bytes", len(text)),
	)

	return &WriteAck{Created: created, Message: msg}, nil
}

// createAsset registers a new file asset at the remote path. Content is set
// by a separate follow-up call.
func (c *Client) createAsset(ctx context.Context, path string) error {
	form := url.Values{
		"newAssetName": {pspath.Base(path)},
		"newAssetPath": {pspath.Parent(path)},
		"newAssetType": {"file"},
		"newAssetRoot": {""},
	}

	var parsed writeResponse

	err := c.doJSON(ctx, http.MethodPost, createAssetEndpoint,
		[]byte(form.Encode()), "application/x-www-form-urlencoded", &parsed)
	if err != nil {
		return err
	}

	if !strings.Contains(parsed.ReturnMessage, "successfully") {
		return &APIError{
			StatusCode: http.StatusOK,
			Message:    fmt.Sprintf("create asset %s: %s", path, parsed.ReturnMessage),
			Err:        ErrBadRequest,
		}
	}

	c.logger.Debug("created asset", slog.String("path", path))

	return nil
}

// putContent posts the customization payload. The multipart boundary is
// freshly generated per call so it cannot collide with payload content.
func (c *Client) putContent(ctx context.Context, path string, contentID int64, text string) (string, error) {
	fields := [][2]string{
		{"customContentId", strconv.FormatInt(contentID, 10)},
		{"customContent", text},
		{"customContentPath", path},
		{"keyPath", pspath.KeyPath(path)},
		{"keyValueMap", "null"},
		{"publish", "true"},
	}

	body, contentType, err := multipartPayload(fields)
	if err != nil {
		return "", fmt.Errorf("cpm: encoding content payload: %w", err)
	}

	var parsed writeResponse
	if err := c.doJSON(ctx, http.MethodPost, contentWriteEndpoint, body, contentType, &parsed); err != nil {
		return "", err
	}

	return parsed.ReturnMessage, nil
}

// VerifyWrite re-reads a just-published path after a short delay (server-side
// publish processing is eventually consistent) and compares byte-for-byte.
// A mismatch is reported, never retried — the caller decides what to do.
func (c *Client) VerifyWrite(ctx context.Context, path, expected string) (*VerifyResult, error) {
	if err := c.sleepFunc(ctx, verifyDelay); err != nil {
		return nil, err
	}

	actual, err := c.ReadContent(ctx, path)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{
		Matches:    actual == expected,
		ActualText: actual,
	}

	if !result.Matches {
		result.FirstDiff = firstDifference(expected, actual)

		c.logger.Warn("verification mismatch",
			slog.String("path", path),
			slog.Int("expected_len", len(expected)),
			slog.Int("actual_len", len(actual)),
			slog.Int("first_diff", result.FirstDiff),
		)
	}

	return result, nil
}

// multipartPayload encodes fields as multipart/form-data with a unique
// boundary. Randomness prevents boundary collision with payload content; it
// does not need to be cryptographically strong.
func multipartPayload(fields [][2]string) ([]byte, string, error) {
	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary("pscpm-" + uuid.NewString()); err != nil {
		return nil, "", err
	}

	for _, field := range fields {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}
