package sync

import (
	"os"
)

// dirPermissions and filePermissions for mirrored entries.
const (
	dirPermissions  = 0o755
	filePermissions = 0o644
)

// OSStore is the os-backed LocalStore used outside of tests.
type OSStore struct{}

func (OSStore) WriteFile(path, text string) error {
	return os.WriteFile(path, []byte(text), filePermissions)
}

func (OSStore) EnsureDir(path string) error {
	return os.MkdirAll(path, dirPermissions)
}

func (OSStore) ListDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name()
	}

	return names, nil
}

// Delete removes a file or directory tree.
func (OSStore) Delete(path string) error {
	return os.RemoveAll(path)
}

func (OSStore) Exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}
