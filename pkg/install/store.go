package install

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rexologue/isopy/pkg/version"
)

// Installed describes one installed runtime
type Installed struct {
	Version    string
	Executable string
}

// Store enumerates installed versions by scanning the install root. A
// version counts as installed only when its executable exists at the
// expected relative location; a bare directory does not.
type Store struct {
	Root string
}

// NewStore creates a store over root
func NewStore(root string) *Store {
	return &Store{Root: root}
}

// ExecutablePath returns where the version's runtime executable lives.
// The path is meaningful only when Has(version) is true.
func (s *Store) ExecutablePath(ver string) string {
	return filepath.Join(s.Root, ver, execRelPath)
}

// Has reports whether the version is installed
func (s *Store) Has(ver string) bool {
	_, err := os.Stat(s.ExecutablePath(ver))
	return err == nil
}

// List returns installed versions in ascending version order. A missing
// install root simply means nothing is installed.
func (s *Store) List() ([]Installed, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan install root %s: %w", s.Root, err)
	}

	var versions []string
	for _, entry := range entries {
		if !entry.IsDir() || !version.IsExact(entry.Name()) {
			continue
		}
		if s.Has(entry.Name()) {
			versions = append(versions, entry.Name())
		}
	}

	installed := make([]Installed, 0, len(versions))
	for _, ver := range version.SortAscending(versions) {
		installed = append(installed, Installed{
			Version:    ver,
			Executable: s.ExecutablePath(ver),
		})
	}
	return installed, nil
}
