package index

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rexologue/isopy/pkg/util"
)

// Cache persists a fetched index to a single file and decides
// fetch-vs-reuse based on the file's age. The file's last-modified time
// is the staleness signal; writes are whole-file replacements so
// concurrent processes racing on it produce one winner, never a torn
// document.
type Cache struct {
	Path    string
	TTL     time.Duration
	Fetcher Fetcher
}

// NewCache creates a cache backed by the file at path
func NewCache(path string, ttl time.Duration, fetcher Fetcher) *Cache {
	return &Cache{Path: path, TTL: ttl, Fetcher: fetcher}
}

// Load returns the cached index when it is younger than the TTL,
// otherwise fetches a fresh one and persists it. A failed fetch with no
// usable cache is fatal: without an index no version can be resolved.
func (c *Cache) Load() (Index, error) {
	if fi, err := os.Stat(c.Path); err == nil && time.Since(fi.ModTime()) <= c.TTL {
		data, err := os.ReadFile(c.Path)
		if err == nil {
			idx, perr := Parse(data)
			if perr == nil {
				util.LogVerbose("Using cached index %s (age %s)", c.Path, time.Since(fi.ModTime()).Round(time.Second))
				return idx, nil
			}
			util.LogVerbose("Cached index unreadable, refetching: %v", perr)
		}
	}
	return c.refresh()
}

// Invalidate unconditionally deletes the persisted cache. A missing
// cache file is not an error.
func (c *Cache) Invalidate() error {
	if err := os.Remove(c.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove index cache %s: %w", c.Path, err)
	}
	return nil
}

// ForceRefresh discards the persisted cache and fetches a fresh index
// regardless of age.
func (c *Cache) ForceRefresh() (Index, error) {
	if err := c.Invalidate(); err != nil {
		return nil, err
	}
	return c.refresh()
}

func (c *Cache) refresh() (Index, error) {
	idx, err := c.Fetcher.Fetch()
	if err != nil {
		return nil, fmt.Errorf("cannot download version index (%w); check network and ISOPY_INDEX_URL, or retry once the source is reachable", err)
	}

	if err := c.persist(idx); err != nil {
		// The fetch succeeded; a cache write failure only costs the next
		// run a refetch.
		util.LogVerbose("Warning: failed to persist index cache: %v", err)
	}
	return idx, nil
}

// persist replaces the cache file atomically: the document is written to
// a sibling temp file and renamed into place.
func (c *Cache) persist(idx Index) error {
	data, err := idx.Marshal()
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.json")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cache temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.Path); err != nil {
		return fmt.Errorf("failed to replace index cache %s: %w", c.Path, err)
	}
	return nil
}
