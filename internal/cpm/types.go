package cpm

import (
	"sort"
	"strings"
)

// NodeKind distinguishes folders from leaf pages in the remote tree.
type NodeKind string

const (
	KindFolder NodeKind = "folder"
	KindPage   NodeKind = "page"
)

// TreeNode is one node of the remote customization tree. Children are
// ordered by name, case-insensitively, folders and pages interleaved the way
// the server reports them. Children is nil for pages.
type TreeNode struct {
	Name     string
	Path     string
	Kind     NodeKind
	Children []*TreeNode
}

// clone deep-copies the node. Cached listings hand out clones so callers can
// mutate their result freely.
func (n *TreeNode) clone() *TreeNode {
	if n == nil {
		return nil
	}

	out := *n

	if n.Children != nil {
		out.Children = make([]*TreeNode, len(n.Children))
		for i, child := range n.Children {
			out.Children[i] = child.clone()
		}
	}

	return &out
}

// ContentRecord pairs a remote path with its current content and the remote
// identifier used to target updates. ContentID is zero when no customization
// exists yet. There is no revision history — the record reflects only the
// currently active state.
type ContentRecord struct {
	Path       string
	ContentID  int64
	CustomText string
	BuiltIn    string
	HasCustom  bool
}

// Text returns the effective content of the record: the active customization
// if present, else the built-in default, else the empty string.
func (r *ContentRecord) Text() string {
	if r.HasCustom {
		return r.CustomText
	}

	return r.BuiltIn
}

// VerifyResult reports a write verification. A mismatch is a result, not an
// error — the caller decides whether to warn or re-attempt.
type VerifyResult struct {
	Matches    bool
	ActualText string
	// FirstDiff is the byte offset of the first difference, or the length of
	// the shorter text when one is a prefix of the other. Zero when Matches.
	FirstDiff int
}

// firstDifference returns the offset of the first differing byte between two
// strings, or the shorter length if one is a prefix of the other.
func firstDifference(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}

	return n
}

// sortChildren orders tree children by name, case-insensitive, stable so the
// server's folder-before-page grouping is preserved among equal names.
func sortChildren(children []*TreeNode) {
	sort.SliceStable(children, func(i, j int) bool {
		return strings.ToLower(children[i].Name) < strings.ToLower(children[j].Name)
	})
}
