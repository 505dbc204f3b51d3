package pspath

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"admin", "/admin"},
		{"/admin/students/", "/admin/students"},
		{"//admin//students//foo.html", "/admin/students/foo.html"},
		{"\\admin\\students", "/admin/students"},
		{"/admin/./students", "/admin/students"},
		{"/admin/../images/foo.js", "/admin/images/foo.js"},
		{"/../../etc/evil.html", "/etc/evil.html"},
		{"..", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "/admin", Join("/", "admin"))
	assert.Equal(t, "/admin/students", Join("/admin", "students"))
	assert.Equal(t, "/admin/students", Join("/admin/", "students"))
}

func TestToLocal(t *testing.T) {
	root := filepath.Join("work", "ps_webroot")

	assert.Equal(t, filepath.Join(root, "admin", "students", "foo.html"),
		ToLocal("/admin/students/foo.html", root))
	assert.Equal(t, root, ToLocal("/", root))
}

// A remote path stuffed with dot-dot segments must still map inside the
// workspace root, never above it.
func TestToLocalNeverEscapesRoot(t *testing.T) {
	root := filepath.Join("work", "ps_webroot")

	for _, remote := range []string{
		"/../../etc/evil.html",
		"/admin/../../secret.js",
		"\\..\\..\\etc\\evil.html",
	} {
		local := ToLocal(remote, root)

		rel, err := filepath.Rel(root, local)
		require.NoError(t, err, remote)
		assert.False(t, rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)),
			"%q mapped outside the root: %q", remote, local)
	}
}

func TestHasContentExtension(t *testing.T) {
	for _, name := range []string{"foo.html", "foo.HTM", "app.js", "screen.css", "notes.txt"} {
		assert.True(t, HasContentExtension(name), name)
	}

	for _, name := range []string{"report.pdf", "archive.zip", "foo", "html"} {
		assert.False(t, HasContentExtension(name), name)
	}
}

func TestToRemote(t *testing.T) {
	root := filepath.Join("work", "ps_webroot")

	remote, err := ToRemote(filepath.Join(root, "admin", "students", "foo.html"), root)
	require.NoError(t, err)
	assert.Equal(t, "/admin/students/foo.html", remote)
}

func TestToRemote_OutsideRoot(t *testing.T) {
	root := filepath.Join("work", "ps_webroot")

	_, err := ToRemote(filepath.Join("work", "elsewhere", "foo.html"), root)
	require.Error(t, err)

	var pathErr *PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, root, pathErr.Root)
}

// Mapping a path to local and back must be stable however many times the
// round trip is applied.
func TestRoundTripStability(t *testing.T) {
	root := filepath.Join("work", "ps_webroot")

	paths := []string{
		"/admin/students/foo.html",
		"/public/index.html",
		"/images/css/screen.css",
		"admin/no-leading-slash.html",
	}

	for _, p := range paths {
		local := ToLocal(p, root)

		remote, err := ToRemote(local, root)
		require.NoError(t, err)

		assert.Equal(t, local, ToLocal(remote, root), "round trip changed %q", p)
	}
}

func TestKeyPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/admin/students/foo.html", "admin.students.foo"},
		{"/admin/students/foo.HTM", "admin.students.foo"},
		{"/images/javascript/app.js", "images.javascript.app"},
		{"/images/css/screen.css", "images.css.screen"},
		{"/admin/notes.txt", "admin.notes"},
		{"/admin/readme.pdf", "admin.readme.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyPath(tt.in))
		})
	}
}

func TestBaseAndParent(t *testing.T) {
	assert.Equal(t, "foo.html", Base("/admin/students/foo.html"))
	assert.Equal(t, "", Base("/"))
	assert.Equal(t, "/admin/students", Parent("/admin/students/foo.html"))
	assert.Equal(t, "/", Parent("/admin"))
	assert.Equal(t, "/", Parent("/"))
}
