package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFetcher hands out a fixed index and counts calls
type countingFetcher struct {
	idx   Index
	err   error
	calls int
}

func (f *countingFetcher) Fetch() (Index, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.idx, nil
}

func TestLoadFetchesOnceWithinTTL(t *testing.T) {
	fetcher := &countingFetcher{idx: Index{"3.11.4": "url-a"}}
	cache := NewCache(filepath.Join(t.TempDir(), "index.json"), time.Hour, fetcher)

	first, err := cache.Load()
	require.NoError(t, err)
	assert.Equal(t, "url-a", first["3.11.4"])

	second, err := cache.Load()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, 1, fetcher.calls, "second Load within TTL must not hit the network")
}

func TestLoadRefetchesAfterExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	fetcher := &countingFetcher{idx: Index{"3.11.4": "url-a"}}
	cache := NewCache(path, time.Hour, fetcher)

	_, err := cache.Load()
	require.NoError(t, err)

	// Age the cache file past the TTL
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	fetcher.idx = Index{"3.11.9": "url-b"}
	refreshed, err := cache.Load()
	require.NoError(t, err)

	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, "url-b", refreshed["3.11.9"])

	// The persisted cache must have been overwritten
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	persisted, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, refreshed, persisted)
}

func TestLoadFatalWithoutUsableCache(t *testing.T) {
	fetcher := &countingFetcher{err: errors.New("connection refused")}
	cache := NewCache(filepath.Join(t.TempDir(), "index.json"), time.Hour, fetcher)

	_, err := cache.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestLoadIgnoresCorruptCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	fetcher := &countingFetcher{idx: Index{"3.11.4": "url-a"}}
	cache := NewCache(path, time.Hour, fetcher)

	idx, err := cache.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, "url-a", idx["3.11.4"])
}

func TestInvalidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	cache := NewCache(path, time.Hour, &countingFetcher{idx: Index{}})

	// Missing file is fine
	require.NoError(t, cache.Invalidate())

	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	require.NoError(t, cache.Invalidate())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestForceRefreshBypassesFreshCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	fetcher := &countingFetcher{idx: Index{"3.11.4": "url-a"}}
	cache := NewCache(path, time.Hour, fetcher)

	_, err := cache.Load()
	require.NoError(t, err)
	require.Equal(t, 1, fetcher.calls)

	_, err = cache.ForceRefresh()
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls, "ForceRefresh must fetch even when the cache is fresh")
}
