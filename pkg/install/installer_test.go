package install

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type archiveEntry struct {
	name string
	body string
	link string // symlink target when non-empty
	mode int64
}

func buildArchive(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, e := range entries {
		if e.link != "" {
			require.NoError(t, tw.WriteHeader(&tar.Header{
				Name:     e.name,
				Typeflag: tar.TypeSymlink,
				Linkname: e.link,
			}))
			continue
		}
		if strings.HasSuffix(e.name, "/") {
			require.NoError(t, tw.WriteHeader(&tar.Header{
				Name:     e.name,
				Typeflag: tar.TypeDir,
				Mode:     0755,
			}))
			continue
		}
		mode := e.mode
		if mode == 0 {
			mode = 0644
		}
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     e.name,
			Typeflag: tar.TypeReg,
			Mode:     mode,
			Size:     int64(len(e.body)),
		}))
		_, err := tw.Write([]byte(e.body))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func serveArchive(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	t.Cleanup(server.Close)
	return server
}

func pythonArchive(t *testing.T) []byte {
	return buildArchive(t, []archiveEntry{
		{name: "python/"},
		{name: "python/bin/"},
		{name: "python/bin/python3.11", body: "#!binary", mode: 0755},
		{name: "python/bin/python3", link: "python3.11"},
		{name: "python/lib/libpython3.11.so", body: "lib"},
		{name: "other/secret", body: "do not extract"},
		{name: "../escape", body: "nope"},
	})
}

func countDownloadScratch(t *testing.T) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "isopy-download-*"))
	require.NoError(t, err)
	return len(matches)
}

func TestInstallExtractsOnlyRuntimeSubtree(t *testing.T) {
	root := t.TempDir()
	server := serveArchive(t, pythonArchive(t))

	before := countDownloadScratch(t)
	require.NoError(t, NewInstaller(root).Install("3.11.9", server.URL))

	target := filepath.Join(root, "3.11.9")
	assert.FileExists(t, filepath.Join(target, "bin", "python3.11"))
	assert.FileExists(t, filepath.Join(target, "lib", "libpython3.11.so"))

	// Symlink recreated, leading component stripped
	link, err := os.Readlink(filepath.Join(target, "bin", "python3"))
	require.NoError(t, err)
	assert.Equal(t, "python3.11", link)

	// Entries outside python/ are ignored, not extracted
	assert.NoDirExists(t, filepath.Join(target, "other"))
	assert.NoFileExists(t, filepath.Join(target, "other", "secret"))
	assert.NoFileExists(t, filepath.Join(root, "escape"))

	// Executable bit preserved
	fi, err := os.Stat(filepath.Join(target, "bin", "python3.11"))
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode()&0100)

	assert.Equal(t, before, countDownloadScratch(t), "download artifact must be removed")
	assertNoStaging(t, root)
}

func assertNoStaging(t *testing.T, root string) {
	t.Helper()
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry.Name(), ".staging-"),
			"staging directory %s left behind", entry.Name())
	}
}

func TestInstallCleansUpOnExtractionFailure(t *testing.T) {
	root := t.TempDir()
	// Valid gzip, but nothing under python/
	payload := buildArchive(t, []archiveEntry{
		{name: "unexpected/layout", body: "x"},
	})
	server := serveArchive(t, payload)

	before := countDownloadScratch(t)
	err := NewInstaller(root).Install("3.11.9", server.URL)
	require.Error(t, err)

	var step *StepError
	require.ErrorAs(t, err, &step)
	assert.Equal(t, "extract", step.Op)

	assert.NoDirExists(t, filepath.Join(root, "3.11.9"))
	assert.Equal(t, before, countDownloadScratch(t), "download artifact must be removed on failure")
	assertNoStaging(t, root)
}

func TestInstallCleansUpOnTruncatedArchive(t *testing.T) {
	root := t.TempDir()
	payload := pythonArchive(t)
	server := serveArchive(t, payload[:len(payload)/2]) // cut mid-stream

	before := countDownloadScratch(t)
	err := NewInstaller(root).Install("3.11.9", server.URL)
	require.Error(t, err)

	assert.NoDirExists(t, filepath.Join(root, "3.11.9"))
	assert.Equal(t, before, countDownloadScratch(t))
	assertNoStaging(t, root)
}

func TestInstallRejectsNonArchivePayload(t *testing.T) {
	root := t.TempDir()
	server := serveArchive(t, []byte("<html>error page</html>"))

	err := NewInstaller(root).Install("3.11.9", server.URL)
	require.Error(t, err)

	var step *StepError
	require.ErrorAs(t, err, &step)
	assert.Equal(t, "download", step.Op)
	assert.Contains(t, err.Error(), "invalid gzip header")
}

func TestInstallFailsOnHTTPError(t *testing.T) {
	root := t.TempDir()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	err := NewInstaller(root).Install("3.11.9", server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestInstallOverwritesExistingTarget(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "3.11.9")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "bin", "stale"), []byte("old"), 0644))

	server := serveArchive(t, pythonArchive(t))
	require.NoError(t, NewInstaller(root).Install("3.11.9", server.URL))

	assert.NoFileExists(t, filepath.Join(target, "bin", "stale"))
	assert.FileExists(t, filepath.Join(target, "bin", "python3.11"))
}
