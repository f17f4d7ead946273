package version

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// ErrInvalidSpec is returned when a version specification does not match
// the accepted grammar. Callers can test for it with errors.Is.
var ErrInvalidSpec = errors.New("invalid version specification")

// Components must be plain non-negative integers without leading zeros.
// Leading zeros, whitespace, signs and extra components are rejected,
// not normalized.
var specRe = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)(?:\.(0|[1-9]\d*))?$`)

// Version represents an exact major.minor.patch version
type Version struct {
	Major int
	Minor int
	Patch int
}

// Spec represents a user-supplied version specification: either a branch
// ("3.12") or an exact version ("3.12.10")
type Spec struct {
	Raw   string
	Major int
	Minor int
	Patch int
	Exact bool
}

// ParseSpec parses a version specification. Accepted shapes are exactly
// X.Y (branch) and X.Y.Z (exact); anything else fails with ErrInvalidSpec.
func ParseSpec(raw string) (*Spec, error) {
	m := specRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("%w: %q (expected X.Y or X.Y.Z)", ErrInvalidSpec, raw)
	}

	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])

	spec := &Spec{
		Raw:   raw,
		Major: major,
		Minor: minor,
	}
	if m[3] != "" {
		spec.Patch, _ = strconv.Atoi(m[3])
		spec.Exact = true
	}
	return spec, nil
}

// Parse parses an exact X.Y.Z version string
func Parse(raw string) (Version, error) {
	spec, err := ParseSpec(raw)
	if err != nil {
		return Version{}, err
	}
	if !spec.Exact {
		return Version{}, fmt.Errorf("%w: %q (expected X.Y.Z)", ErrInvalidSpec, raw)
	}
	return Version{Major: spec.Major, Minor: spec.Minor, Patch: spec.Patch}, nil
}

// IsExact reports whether raw is a well-formed exact version string
func IsExact(raw string) bool {
	_, err := Parse(raw)
	return err == nil
}

// String returns the canonical string representation of a version
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare compares two versions component-wise. Returns -1 if v < other,
// 0 if equal, 1 if v > other.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		if v.Major < other.Major {
			return -1
		}
		return 1
	}
	if v.Minor != other.Minor {
		if v.Minor < other.Minor {
			return -1
		}
		return 1
	}
	if v.Patch != other.Patch {
		if v.Patch < other.Patch {
			return -1
		}
		return 1
	}
	return 0
}

// Matches checks if an exact version falls under this specification
func (s *Spec) Matches(v Version) bool {
	if s.Exact {
		return s.Major == v.Major && s.Minor == v.Minor && s.Patch == v.Patch
	}
	return s.Major == v.Major && s.Minor == v.Minor
}

// Branch returns the branch prefix of the specification ("3.12")
func (s *Spec) Branch() string {
	return fmt.Sprintf("%d.%d", s.Major, s.Minor)
}

// String returns the raw specification string
func (s *Spec) String() string {
	if s.Raw != "" {
		return s.Raw
	}
	if s.Exact {
		return fmt.Sprintf("%d.%d.%d", s.Major, s.Minor, s.Patch)
	}
	return s.Branch()
}

// Latest selects the numerically highest version from versions that
// matches the specification. The comparison is component-wise, never
// lexicographic: 3.9.10 beats 3.9.9. Returns false when nothing matches.
func (s *Spec) Latest(versions []string) (string, bool) {
	var best Version
	found := false

	for _, raw := range versions {
		v, err := Parse(raw)
		if err != nil {
			continue // skip malformed entries
		}
		if !s.Matches(v) {
			continue
		}
		if !found || v.Compare(best) > 0 {
			best = v
			found = true
		}
	}

	if !found {
		return "", false
	}
	return best.String(), true
}

// SortAscending sorts exact version strings in ascending numeric order.
// Strings that do not parse as exact versions are dropped.
func SortAscending(versions []string) []string {
	var parsed []Version
	for _, raw := range versions {
		v, err := Parse(raw)
		if err != nil {
			continue
		}
		parsed = append(parsed, v)
	}

	sort.Slice(parsed, func(i, j int) bool {
		return parsed[i].Compare(parsed[j]) < 0
	})

	result := make([]string, 0, len(parsed))
	for _, v := range parsed {
		result = append(result, v.String())
	}
	return result
}
