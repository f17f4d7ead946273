package index

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/go-github/v67/github"

	"github.com/rexologue/isopy/pkg/util"
	"github.com/rexologue/isopy/pkg/version"
)

// Default release source: the python-build-standalone project, whose
// release assets are named
// cpython-<X.Y.Z>+<date>-<arch>-install_only[_stripped].tar.gz.
const (
	DefaultReleaseOwner = "astral-sh"
	DefaultReleaseRepo  = "python-build-standalone"
)

// ReleaseFetcher builds an index directly from GitHub release assets,
// bypassing the pre-built index document. An optional token raises the
// API rate limit.
type ReleaseFetcher struct {
	Owner    string
	Repo     string
	Arch     string
	MaxPages int

	client *github.Client
}

// NewReleaseFetcher creates a release fetcher for the given architecture
// triple. token may be empty for anonymous access.
func NewReleaseFetcher(token, arch string, maxPages int) *ReleaseFetcher {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if maxPages < 1 {
		maxPages = 1
	}
	return &ReleaseFetcher{
		Owner:    DefaultReleaseOwner,
		Repo:     DefaultReleaseRepo,
		Arch:     arch,
		MaxPages: maxPages,
		client:   client,
	}
}

// Fetch pages through the repository's releases and collects one
// download URL per version. The first asset seen for a version wins,
// except that a full build replaces a previously seen stripped one.
func (f *ReleaseFetcher) Fetch() (Index, error) {
	assetRe, err := regexp.Compile(
		`^cpython-(\d+\.\d+\.\d+)\+\d+-` + regexp.QuoteMeta(f.Arch) + `-install_only(_stripped)?\.tar\.gz$`)
	if err != nil {
		return nil, fmt.Errorf("invalid architecture filter %q: %w", f.Arch, err)
	}

	ctx := context.Background()
	idx := make(Index)
	strippedOnly := make(map[string]bool)

	opt := &github.ListOptions{PerPage: 100}
	for page := 1; page <= f.MaxPages; page++ {
		opt.Page = page
		releases, resp, err := f.client.Repositories.ListReleases(ctx, f.Owner, f.Repo, opt)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s/%s releases (page %d): %w", f.Owner, f.Repo, page, err)
		}
		if len(releases) == 0 {
			break
		}

		for _, rel := range releases {
			for _, asset := range rel.Assets {
				m := assetRe.FindStringSubmatch(asset.GetName())
				if m == nil {
					continue
				}
				ver := m[1]
				stripped := m[2] != ""
				if !version.IsExact(ver) {
					continue
				}

				if _, seen := idx[ver]; seen {
					if strippedOnly[ver] && !stripped {
						// Prefer the full build over the stripped variant
						idx[ver] = asset.GetBrowserDownloadURL()
						strippedOnly[ver] = false
					}
					continue
				}
				idx[ver] = asset.GetBrowserDownloadURL()
				strippedOnly[ver] = stripped
			}
		}

		if resp.NextPage == 0 {
			break
		}
	}

	util.LogVerbose("Release listing yielded %d versions for %s", len(idx), f.Arch)
	return idx, nil
}
