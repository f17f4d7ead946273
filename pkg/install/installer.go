package install

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rexologue/isopy/pkg/index"
	"github.com/rexologue/isopy/pkg/util"
)

// archiveRoot is the expected top-level directory inside a build
// archive. Entries outside it are never extracted; this is the safety
// boundary against archives carrying unexpected paths.
const archiveRoot = "python"

// execRelPath is the runtime executable's location beneath an installed
// version directory. Its presence is the sole truth of "installed".
var execRelPath = filepath.Join("bin", "python3")

// Installer materializes build archives into per-version directories
// under Root. Install never retries: retry belongs to the index fetch
// layer, a failed archive download is terminal for the invocation.
type Installer struct {
	Root      string
	Client    *http.Client
	UserAgent string
}

// NewInstaller creates an installer rooted at root
func NewInstaller(root string) *Installer {
	return &Installer{
		Root:      root,
		Client:    &http.Client{Timeout: 10 * time.Minute},
		UserAgent: index.UserAgent,
	}
}

// Install downloads the archive at url and publishes it as
// <Root>/<version>. The download lands in a temp file and the tree is
// extracted into a staging directory first; both are removed on every
// exit path, and the staging directory is renamed into place only once
// extraction fully succeeded, so a half-written install is never
// visible under its final name. Callers gate on Store.Has beforehand;
// Install itself overwrites an existing target.
func (i *Installer) Install(version, url string) error {
	if err := os.MkdirAll(i.Root, 0755); err != nil {
		return &StepError{Version: version, Op: "prepare", Err: fmt.Errorf("failed to create install root %s: %w", i.Root, err)}
	}

	archive, err := i.download(version, url)
	if err != nil {
		return err
	}
	defer os.Remove(archive)

	staging, err := os.MkdirTemp(i.Root, ".staging-"+version+"-")
	if err != nil {
		return ExtractError(version, fmt.Errorf("failed to create staging directory: %w", err))
	}
	defer os.RemoveAll(staging)

	if err := extractRuntimeTree(archive, staging); err != nil {
		return ExtractError(version, err)
	}

	target := filepath.Join(i.Root, version)
	if err := os.RemoveAll(target); err != nil {
		return PublishError(version, fmt.Errorf("failed to clear %s: %w", target, err))
	}
	if err := os.Rename(staging, target); err != nil {
		return PublishError(version, fmt.Errorf("failed to move %s into place: %w", staging, err))
	}
	return nil
}

// download fetches url into a temporary file and returns its path. The
// caller owns removal of the returned file.
func (i *Installer) download(version, url string) (string, error) {
	tmp, err := os.CreateTemp("", "isopy-download-*.tar.gz")
	if err != nil {
		return "", DownloadError(version, fmt.Errorf("failed to create temporary file: %w", err))
	}
	defer tmp.Close()

	fail := func(err error) (string, error) {
		os.Remove(tmp.Name())
		return "", DownloadError(version, err)
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fail(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("User-Agent", i.UserAgent)
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := i.Client.Do(req)
	if err != nil {
		return fail(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail(fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, url))
	}

	written, err := io.Copy(tmp, resp.Body)
	if err != nil {
		return fail(fmt.Errorf("transfer failed: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return fail(fmt.Errorf("failed to flush download: %w", err))
	}
	util.LogVerbose("Downloaded %d bytes from %s", written, url)

	if err := validateGzipMagic(tmp.Name()); err != nil {
		return fail(err)
	}
	return tmp.Name(), nil
}

// validateGzipMagic rejects downloads that are not gzip data, most often
// an HTML error page served with status 200.
func validateGzipMagic(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open download for validation: %w", err)
	}
	defer f.Close()

	header := make([]byte, 2)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("download too short to be an archive: %w", err)
	}
	if header[0] != 0x1f || header[1] != 0x8b {
		return fmt.Errorf("invalid gzip header: expected 1f 8b, got %02x %02x", header[0], header[1])
	}
	return nil
}

// extractRuntimeTree extracts the archive's python/ subtree into dest,
// stripping the leading path component. Entries outside python/ are
// ignored, as are paths that would escape dest.
func extractRuntimeTree(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	gzReader, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read gzip stream: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	extracted := 0

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry: %w", err)
		}

		rel, ok := stripArchiveRoot(header.Name)
		if !ok {
			continue
		}

		target := filepath.Join(dest, rel)
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("unsafe path in archive: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", rel, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create parent of %s: %w", rel, err)
			}
			out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return fmt.Errorf("failed to create file %s: %w", rel, err)
			}
			_, err = io.Copy(out, tarReader)
			out.Close()
			if err != nil {
				return fmt.Errorf("failed to extract %s: %w", rel, err)
			}
			extracted++
		case tar.TypeSymlink:
			if filepath.IsAbs(header.Linkname) || strings.Contains(header.Linkname, "..") {
				return fmt.Errorf("unsafe symlink in archive: %s -> %s", header.Name, header.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create parent of %s: %w", rel, err)
			}
			os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("failed to create symlink %s: %w", rel, err)
			}
			extracted++
		}
	}

	if extracted == 0 {
		return fmt.Errorf("archive contains no entries under %s/", archiveRoot)
	}
	return nil
}

// stripArchiveRoot maps "python/bin/python3" to ("bin/python3", true)
// and rejects everything outside the expected subtree.
func stripArchiveRoot(name string) (string, bool) {
	parts := strings.Split(name, "/")
	if len(parts) < 2 || parts[0] != archiveRoot {
		return "", false
	}
	rel := strings.Join(parts[1:], "/")
	if rel == "" {
		return "", false
	}
	return rel, true
}
