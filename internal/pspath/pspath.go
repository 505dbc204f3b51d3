// Package pspath maps between the remote customization namespace and the
// local workspace. Remote paths are slash-separated and leading-slash
// qualified ("/admin/students/foo.html"); local paths live under a configured
// root directory. All functions are pure — no I/O, no hidden state.
package pspath

import (
	"fmt"
	"path/filepath"
	"strings"
)

// contentExtensions are the file extensions the content-write API strips when
// deriving a key path. Matching is case-insensitive.
var contentExtensions = []string{".html", ".htm", ".js", ".css", ".txt"}

// PathError reports a local path that does not resolve under the configured
// root. Callers must treat this as fatal before any remote call — publishing
// a file outside the workspace would target the wrong remote namespace.
type PathError struct {
	Path string
	Root string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("pspath: %s is outside the workspace root %s", e.Path, e.Root)
}

// Normalize returns the canonical form of a remote path: forward slashes,
// exactly one leading slash, no duplicate or trailing slashes. Dot and
// dot-dot segments are dropped — a remote path can never climb above the
// namespace root, and keeping them would let ToLocal resolve outside the
// workspace. The empty string normalizes to "/".
func Normalize(remote string) string {
	remote = strings.ReplaceAll(remote, "\\", "/")

	segments := make([]string, 0, 8)
	for _, seg := range strings.Split(remote, "/") {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}

		segments = append(segments, seg)
	}

	return "/" + strings.Join(segments, "/")
}

// HasContentExtension reports whether name ends in one of the content file
// extensions the customization API serves. Matching is case-insensitive.
func HasContentExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range contentExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}

	return false
}

// Join appends a child name to a normalized remote folder path.
func Join(remote, name string) string {
	if remote == "/" || remote == "" {
		return "/" + name
	}

	return Normalize(remote) + "/" + name
}

// ToLocal maps a remote path onto the local filesystem under root.
// The leading slash is stripped so the remote hierarchy mirrors into root
// rather than the filesystem root.
func ToLocal(remote, root string) string {
	rel := strings.TrimLeft(Normalize(remote), "/")

	return filepath.Join(root, filepath.FromSlash(rel))
}

// ToRemote maps a local path under root back to its remote path.
// Returns a *PathError if the local path is not actually under root.
func ToRemote(local, root string) (string, error) {
	rel, err := filepath.Rel(root, local)
	if err != nil {
		return "", &PathError{Path: local, Root: root}
	}

	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &PathError{Path: local, Root: root}
	}

	return Normalize(filepath.ToSlash(rel)), nil
}

// KeyPath derives the dotted key-path form of a remote path required by the
// content-write API: the leading slash is dropped, a known content extension
// is stripped, and the remaining slashes become dots.
// "/admin/students/foo.html" -> "admin.students.foo".
func KeyPath(remote string) string {
	key := strings.TrimLeft(Normalize(remote), "/")

	lower := strings.ToLower(key)
	for _, ext := range contentExtensions {
		if strings.HasSuffix(lower, ext) {
			key = key[:len(key)-len(ext)]
			break
		}
	}

	return strings.ReplaceAll(key, "/", ".")
}

// Base returns the final element of a remote path, "" for the root.
func Base(remote string) string {
	norm := Normalize(remote)
	if norm == "/" {
		return ""
	}

	return norm[strings.LastIndex(norm, "/")+1:]
}

// Parent returns the containing folder of a remote path, "/" for top-level
// entries and the root itself.
func Parent(remote string) string {
	norm := Normalize(remote)
	if norm == "/" {
		return "/"
	}

	idx := strings.LastIndex(norm, "/")
	if idx == 0 {
		return "/"
	}

	return norm[:idx]
}
