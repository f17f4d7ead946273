package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/rexologue/isopy/pkg/util"
)

// Defaults for a stock deployment. Everything here can be overridden by
// the global config file and then by environment variables.
const (
	DefaultArch     = "x86_64-unknown-linux-gnu"
	DefaultIndexURL = "https://raw.githubusercontent.com/rexologue/isopy/main/index.json"
	DefaultCacheTTL = 12 * time.Hour
	DefaultRetries  = 3
	DefaultMaxPages = 10
)

// Index source strategies
const (
	SourceDocument = "document" // fetch the pre-built index document
	SourceGitHub   = "github"   // build the index from GitHub release assets
	SourceAuto     = "auto"     // document first, release listing as fallback
)

// Settings holds the effective isopy configuration
type Settings struct {
	Arch        string        `json:"arch" yaml:"arch"`                 // target architecture triple
	Source      string        `json:"index_source" yaml:"index_source"` // index acquisition strategy
	IndexURL    string        `json:"index_url" yaml:"index_url"`       // remote index document location
	GitHubToken string        `json:"github_token" yaml:"github_token"` // optional bearer credential for the index source
	Home        string        `json:"home" yaml:"home"`                 // install root, one subdirectory per version
	CacheFile   string        `json:"cache_file" yaml:"cache_file"`     // persisted index cache path
	CacheTTL    time.Duration `json:"-" yaml:"-"`
	Retries     int           `json:"retries" yaml:"retries"`     // index fetch attempts
	MaxPages    int           `json:"max_pages" yaml:"max_pages"` // page cap for paginated index sources

	// CacheTTLRaw is the file-format side of CacheTTL ("12h", "30m")
	CacheTTLRaw string `json:"cache_ttl" yaml:"cache_ttl"`
}

// homeDirFunc can be overridden for testing
var homeDirFunc = homedir.Dir

// Load builds the effective settings: defaults, then the global config
// file if one exists, then environment variables.
func Load() (*Settings, error) {
	home, err := homeDirFunc()
	if err != nil {
		return nil, fmt.Errorf("failed to determine user home directory: %w", err)
	}

	s := &Settings{
		Arch:     DefaultArch,
		Source:   SourceDocument,
		IndexURL: DefaultIndexURL,
		Home:     filepath.Join(home, ".isopy"),
		CacheTTL: DefaultCacheTTL,
		Retries:  DefaultRetries,
		MaxPages: DefaultMaxPages,
	}

	if cacheDir, err := os.UserCacheDir(); err == nil {
		s.CacheFile = filepath.Join(cacheDir, "isopy", "index.json")
	} else {
		s.CacheFile = filepath.Join(home, ".cache", "isopy", "index.json")
	}

	if err := s.applyConfigFile(); err != nil {
		return nil, err
	}
	s.applyEnvironment()

	return s, nil
}

// applyConfigFile overlays values from the first config file found under
// the install root. Absence of a config file is not an error.
func (s *Settings) applyConfigFile() error {
	configFiles := []string{
		"config.json5",
		"config.yml",
		"config.yaml",
		"config.json",
	}

	for _, filename := range configFiles {
		path := filepath.Join(s.Home, filename)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		var file Settings
		switch filepath.Ext(path) {
		case ".json5", ".json":
			err = ParseJSON5(data, &file)
		case ".yml", ".yaml":
			err = yaml.Unmarshal(data, &file)
		}
		if err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}

		util.LogVerbose("Loaded configuration from %s", path)
		s.merge(&file)
		return nil
	}

	return nil
}

// merge overlays non-empty fields from a parsed config file
func (s *Settings) merge(file *Settings) {
	if file.Arch != "" {
		s.Arch = file.Arch
	}
	if file.Source != "" {
		s.Source = file.Source
	}
	if file.IndexURL != "" {
		s.IndexURL = file.IndexURL
	}
	if file.GitHubToken != "" {
		s.GitHubToken = file.GitHubToken
	}
	if file.Home != "" {
		s.Home = file.Home
	}
	if file.CacheFile != "" {
		s.CacheFile = file.CacheFile
	}
	if file.Retries > 0 {
		s.Retries = file.Retries
	}
	if file.MaxPages > 0 {
		s.MaxPages = file.MaxPages
	}
	if file.CacheTTLRaw != "" {
		if ttl, err := time.ParseDuration(file.CacheTTLRaw); err == nil && ttl > 0 {
			s.CacheTTL = ttl
		} else {
			util.LogVerbose("Ignoring invalid cache_ttl %q in config file", file.CacheTTLRaw)
		}
	}
}

// applyEnvironment overlays ISOPY_* environment variables, which take
// precedence over both defaults and the config file.
func (s *Settings) applyEnvironment() {
	if v := os.Getenv("ISOPY_ARCH"); v != "" {
		s.Arch = v
	}
	if v := os.Getenv("ISOPY_INDEX_URL"); v != "" {
		s.IndexURL = v
	}
	if v := os.Getenv("ISOPY_INDEX_SOURCE"); v != "" {
		s.Source = v
	}
	if v := os.Getenv("ISOPY_GITHUB_TOKEN"); v != "" {
		s.GitHubToken = v
	}
	if v := os.Getenv("ISOPY_HOME"); v != "" {
		s.Home = v
	}
	if v := os.Getenv("ISOPY_CACHE_FILE"); v != "" {
		s.CacheFile = v
	}
	if v := os.Getenv("ISOPY_CACHE_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil && ttl > 0 {
			s.CacheTTL = ttl
		} else {
			util.LogVerbose("Ignoring invalid ISOPY_CACHE_TTL %q", v)
		}
	}
	if v := os.Getenv("ISOPY_FETCH_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.Retries = n
		}
	}
}

// SetHomeDirFunc sets the home directory function (for testing)
func SetHomeDirFunc(fn func() (string, error)) {
	homeDirFunc = fn
}
