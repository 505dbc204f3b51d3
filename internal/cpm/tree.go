package cpm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/go-querystring/query"

	"github.com/edtools/pscpm-go/internal/pspath"
)

const treeEndpoint = "/ws/cpm/tree"

// DefaultMaxDepth bounds recursive tree listings. The remote namespace fans
// out quickly, so unbounded listing is never requested.
const DefaultMaxDepth = 3

type treeQuery struct {
	Path     string `url:"path"`
	MaxDepth int    `url:"maxDepth"`
}

// wireFolder mirrors the tree endpoint's JSON exactly. Unexported — callers
// get TreeNode via toNode normalization.
type wireFolder struct {
	Text       string       `json:"text"`
	SubFolders []wireFolder `json:"subFolders"`
	Pages      []wirePage   `json:"pages"`
}

type wirePage struct {
	Text string `json:"text"`
}

type treeResponse struct {
	Folder  *wireFolder `json:"folder"`
	Message string      `json:"message"`
}

// ListFolder fetches the folder tree rooted at path. maxDepth 1 returns the
// folder and its immediate children; deeper values nest. Single-level
// results are cached per path until Refresh is called — browsing is
// read-mostly and refresh is user-triggered, so staleness is tolerated.
func (c *Client) ListFolder(ctx context.Context, path string, maxDepth int) (*TreeNode, error) {
	path = pspath.Normalize(path)

	if maxDepth <= 0 {
		maxDepth = 1
	}

	if maxDepth == 1 {
		c.mu.Lock()
		cached, ok := c.treeCache[path]
		c.mu.Unlock()

		if ok {
			// Callers get their own copy; mutating a listing must not poison
			// the cache.
			return cached.clone(), nil
		}
	}

	v, err := query.Values(treeQuery{Path: path, MaxDepth: maxDepth})
	if err != nil {
		return nil, fmt.Errorf("cpm: encoding tree query: %w", err)
	}

	var parsed treeResponse
	if err := c.doJSON(ctx, http.MethodGet, treeEndpoint+"?"+v.Encode(), nil, "", &parsed); err != nil {
		return nil, err
	}

	if parsed.Folder == nil {
		return nil, fmt.Errorf("%w: tree response missing folder (%s)", ErrParse, parsed.Message)
	}

	node := parsed.Folder.toNode(path)

	c.logger.Debug("listed folder",
		slog.String("path", path),
		slog.Int("children", len(node.Children)),
	)

	if maxDepth == 1 {
		c.mu.Lock()
		c.treeCache[path] = node.clone()
		c.mu.Unlock()
	}

	return node, nil
}

// Refresh invalidates the cached folder listings. The next ListFolder per
// path goes back to the server.
func (c *Client) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.treeCache = make(map[string]*TreeNode)
}

// toNode converts a wire folder into a TreeNode rooted at path, recursively
// for nested listings, with children name-ordered case-insensitively.
func (f *wireFolder) toNode(path string) *TreeNode {
	node := &TreeNode{
		Name: f.Text,
		Path: path,
		Kind: KindFolder,
	}

	if path == "/" && node.Name == "" {
		node.Name = "/"
	}

	for i := range f.SubFolders {
		sub := &f.SubFolders[i]
		if !safeChildName(sub.Text) {
			continue
		}

		node.Children = append(node.Children, sub.toNode(pspath.Join(path, sub.Text)))
	}

	for _, page := range f.Pages {
		if !safeChildName(page.Text) {
			continue
		}

		node.Children = append(node.Children, &TreeNode{
			Name: page.Text,
			Path: pspath.Join(path, page.Text),
			Kind: KindPage,
		})
	}

	sortChildren(node.Children)

	return node
}

// safeChildName rejects server-supplied entry names that would break out of
// their folder when joined into a path. A name is a single path segment;
// anything else is a malformed (or hostile) listing entry and is dropped.
func safeChildName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	return !strings.ContainsAny(name, "/\\")
}
