package index

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rexologue/isopy/pkg/util"
)

// UserAgent identifies isopy to index sources. The CLI layer stamps the
// build version in at startup.
var UserAgent = "isopy/dev"

// Fetcher retrieves the authoritative version-to-URL mapping from a
// remote source. Implementations differ in how the source is shaped
// (static document, paginated release listing), not in what they return.
type Fetcher interface {
	Fetch() (Index, error)
}

// DocumentFetcher fetches a ready-made JSON index document over HTTP.
// This is the default strategy.
type DocumentFetcher struct {
	URL        string
	Token      string // optional bearer credential
	Retries    int
	RetryDelay time.Duration
	Client     *http.Client
}

// NewDocumentFetcher creates a document fetcher with sane transport
// defaults.
func NewDocumentFetcher(url, token string, retries int) *DocumentFetcher {
	if retries < 1 {
		retries = 1
	}
	return &DocumentFetcher{
		URL:        url,
		Token:      token,
		Retries:    retries,
		RetryDelay: 2 * time.Second,
		Client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch downloads and parses the index document, retrying transient
// failures with a growing delay. The last error is surfaced when all
// attempts are exhausted.
func (f *DocumentFetcher) Fetch() (Index, error) {
	var lastErr error

	for attempt := 0; attempt < f.Retries; attempt++ {
		if attempt > 0 {
			delay := f.RetryDelay * time.Duration(attempt) // backoff grows per attempt
			util.LogVerbose("Index fetch retry %d/%d after %v", attempt, f.Retries-1, delay)
			time.Sleep(delay)
		}

		idx, err := f.fetchOnce()
		if err == nil {
			return idx, nil
		}
		lastErr = err
		util.LogVerbose("Index fetch attempt %d failed: %v", attempt+1, err)
	}

	return nil, fmt.Errorf("after %d attempts: %w", f.Retries, lastErr)
}

func (f *DocumentFetcher) fetchOnce() (Index, error) {
	req, err := http.NewRequest(http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build index request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("index request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("index request returned HTTP %d for %s", resp.StatusCode, f.URL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read index document: %w", err)
	}

	return Parse(data)
}

// MultiFetcher tries an ordered list of strategies until one succeeds
type MultiFetcher []Fetcher

// Fetch returns the first successful strategy's index, or the joined
// errors of every strategy when all fail.
func (m MultiFetcher) Fetch() (Index, error) {
	var errs []error
	for _, f := range m {
		idx, err := f.Fetch()
		if err == nil {
			return idx, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no index sources configured")
	}
	return nil, fmt.Errorf("every index source failed: %w", errors.Join(errs...))
}
