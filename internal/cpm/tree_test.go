package cpm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminTreeJSON = `{"folder":{"text":"admin","subFolders":[{"text":"Students","subFolders":[],"pages":[]},{"text":"assets","subFolders":[],"pages":[]}],"pages":[{"text":"home.html"},{"text":"Footer.html"}]}}`

func TestListFolderBuildsTree(t *testing.T) {
	f := newFakeCPM(t)
	f.setTree("/admin", adminTreeJSON)
	c := newSessionClient(t, f)

	node, err := c.ListFolder(context.Background(), "/admin", 1)
	require.NoError(t, err)

	assert.Equal(t, "/admin", node.Path)
	assert.Equal(t, KindFolder, node.Kind)
	require.Len(t, node.Children, 4)

	// Name-ordered, case-insensitive, folders and pages interleaved.
	names := make([]string, len(node.Children))
	for i, child := range node.Children {
		names[i] = child.Name
	}

	assert.Equal(t, []string{"assets", "Footer.html", "home.html", "Students"}, names)

	assert.Equal(t, "/admin/Students", node.Children[3].Path)
	assert.Equal(t, KindFolder, node.Children[3].Kind)
	assert.Equal(t, "/admin/home.html", node.Children[2].Path)
	assert.Equal(t, KindPage, node.Children[2].Kind)
}

func TestListFolderCachesUntilRefresh(t *testing.T) {
	f := newFakeCPM(t)
	f.setTree("/admin", adminTreeJSON)
	c := newSessionClient(t, f)

	ctx := context.Background()

	_, err := c.ListFolder(ctx, "/admin", 1)
	require.NoError(t, err)
	_, err = c.ListFolder(ctx, "admin", 1) // normalizes to the same path
	require.NoError(t, err)

	assert.Equal(t, int32(1), f.treeLists.Load())

	c.Refresh()

	_, err = c.ListFolder(ctx, "/admin", 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.treeLists.Load())
}

// Listings handed to callers are copies: mutating one must not change what
// the next caller sees from the cache.
func TestListFolderCachedResultIsIsolated(t *testing.T) {
	f := newFakeCPM(t)
	f.setTree("/admin", adminTreeJSON)
	c := newSessionClient(t, f)

	ctx := context.Background()

	first, err := c.ListFolder(ctx, "/admin", 1)
	require.NoError(t, err)
	require.Len(t, first.Children, 4)

	first.Children[0].Name = "mutated"
	first.Children = first.Children[:1]

	second, err := c.ListFolder(ctx, "/admin", 1)
	require.NoError(t, err)
	require.Len(t, second.Children, 4)
	assert.Equal(t, "assets", second.Children[0].Name)

	// Both listings came from the one server call.
	assert.Equal(t, int32(1), f.treeLists.Load())
}

// Entry names that are not a single path segment would escape their folder
// when joined; the listing drops them.
func TestListFolderDropsUnsafeChildNames(t *testing.T) {
	f := newFakeCPM(t)
	f.setTree("/admin", `{"folder":{"text":"admin","subFolders":[{"text":"../../etc","subFolders":[],"pages":[]}],"pages":[{"text":"home.html"},{"text":".."},{"text":"a/b.html"}]}}`)
	c := newSessionClient(t, f)

	node, err := c.ListFolder(context.Background(), "/admin", 1)
	require.NoError(t, err)

	require.Len(t, node.Children, 1)
	assert.Equal(t, "home.html", node.Children[0].Name)
	assert.Equal(t, "/admin/home.html", node.Children[0].Path)
}

func TestListFolderMissingFolderIsParseError(t *testing.T) {
	f := newFakeCPM(t)
	c := newSessionClient(t, f)

	_, err := c.ListFolder(context.Background(), "/nope", 1)
	require.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), "no such folder")
}

func TestListFolderRootNaming(t *testing.T) {
	f := newFakeCPM(t)
	f.setTree("/", `{"folder":{"text":"","subFolders":[],"pages":[]}}`)
	c := newSessionClient(t, f)

	node, err := c.ListFolder(context.Background(), "/", 1)
	require.NoError(t, err)
	assert.Equal(t, "/", node.Name)
	assert.Empty(t, node.Children)
}
