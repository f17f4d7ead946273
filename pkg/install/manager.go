package install

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/rexologue/isopy/pkg/config"
	"github.com/rexologue/isopy/pkg/index"
	"github.com/rexologue/isopy/pkg/util"
	"github.com/rexologue/isopy/pkg/version"
)

// Manager ties resolution and installation together: it owns the index
// cache, the install store and the installer, and exposes the flows the
// CLI commands run.
type Manager struct {
	Cache     *index.Cache
	Store     *Store
	Installer *Installer
}

// NewManager wires a manager from the effective settings
func NewManager(settings *config.Settings) *Manager {
	return &Manager{
		Cache:     index.NewCache(settings.CacheFile, settings.CacheTTL, newFetcher(settings)),
		Store:     NewStore(settings.Home),
		Installer: NewInstaller(settings.Home),
	}
}

// newFetcher selects the index acquisition strategy
func newFetcher(settings *config.Settings) index.Fetcher {
	document := index.NewDocumentFetcher(settings.IndexURL, settings.GitHubToken, settings.Retries)
	release := index.NewReleaseFetcher(settings.GitHubToken, settings.Arch, settings.MaxPages)

	switch settings.Source {
	case config.SourceGitHub:
		return release
	case config.SourceAuto:
		return index.MultiFetcher{document, release}
	default:
		return document
	}
}

// Ensure resolves spec against the index, installs the resolved version
// if it is not already present, and returns the runtime executable path.
// Install is skipped entirely when the executable already exists.
func (m *Manager) Ensure(spec string) (string, error) {
	// Reject malformed input before any network or filesystem activity
	if _, err := version.ParseSpec(spec); err != nil {
		return "", err
	}

	idx, err := m.Cache.Load()
	if err != nil {
		return "", err
	}

	res, err := idx.Resolve(spec)
	if err != nil {
		return "", err
	}
	if res.Version != spec {
		fmt.Printf("  Resolved %s to %s\n", spec, color.CyanString(res.Version))
	}

	if m.Store.Has(res.Version) {
		util.LogVerbose("Python %s already installed", res.Version)
		return m.Store.ExecutablePath(res.Version), nil
	}

	fmt.Printf("  Downloading Python %s...\n", color.CyanString(res.Version))
	if err := m.Installer.Install(res.Version, res.URL); err != nil {
		return "", err
	}
	fmt.Printf("  %s Python %s installed\n", color.GreenString("✔"), res.Version)

	return m.Store.ExecutablePath(res.Version), nil
}

// ListInstalled returns the installed versions, ascending
func (m *Manager) ListInstalled() ([]Installed, error) {
	return m.Store.List()
}

// UpdateIndex discards the cached index and fetches a fresh one,
// returning the number of versions it carries.
func (m *Manager) UpdateIndex() (int, error) {
	idx, err := m.Cache.ForceRefresh()
	if err != nil {
		return 0, err
	}
	return len(idx), nil
}
