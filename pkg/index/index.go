package index

import (
	"encoding/json"
	"fmt"

	"github.com/rexologue/isopy/pkg/util"
	"github.com/rexologue/isopy/pkg/version"
)

// Index maps exact version strings ("3.12.10") to archive download URLs.
// It is the sole source of truth for what can be installed. Once built it
// is never mutated.
type Index map[string]string

// Parse decodes an index document. Entries whose key is not a well-formed
// exact version, or whose URL is empty, are dropped rather than propagated.
func Parse(data []byte) (Index, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse index document: %w", err)
	}

	idx := make(Index, len(raw))
	for ver, url := range raw {
		if !version.IsExact(ver) || url == "" {
			util.LogVerbose("Dropping malformed index entry %q", ver)
			continue
		}
		idx[ver] = url
	}
	return idx, nil
}

// Versions enumerates every version present in the index, in no
// particular order.
func (ix Index) Versions() []string {
	versions := make([]string, 0, len(ix))
	for ver := range ix {
		versions = append(versions, ver)
	}
	return versions
}

// Resolution is the outcome of resolving a version specification
type Resolution struct {
	Version string
	URL     string
}

// NotFoundError reports a well-formed specification with no matching
// index entry.
type NotFoundError struct {
	Spec   string
	Branch bool
}

func (e *NotFoundError) Error() string {
	if e.Branch {
		return fmt.Sprintf("no builds for %s.x in index", e.Spec)
	}
	return fmt.Sprintf("version %s absent from index", e.Spec)
}

// Resolve resolves a version specification against the index. Exact
// specifications are looked up directly; branch specifications select the
// numerically highest matching version. Malformed specifications fail
// with version.ErrInvalidSpec before the index is consulted.
func (ix Index) Resolve(raw string) (*Resolution, error) {
	spec, err := version.ParseSpec(raw)
	if err != nil {
		return nil, err
	}

	if spec.Exact {
		url, ok := ix[raw]
		if !ok {
			return nil, &NotFoundError{Spec: raw}
		}
		return &Resolution{Version: raw, URL: url}, nil
	}

	latest, ok := spec.Latest(ix.Versions())
	if !ok {
		return nil, &NotFoundError{Spec: spec.Branch(), Branch: true}
	}
	return &Resolution{Version: latest, URL: ix[latest]}, nil
}

// Marshal encodes the index in the same JSON shape the remote source uses
func (ix Index) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(map[string]string(ix), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode index: %w", err)
	}
	return append(data, '\n'), nil
}
