// Package release models the container release workflow: semantic version
// tags, the published-image manifest, and the compatibility table.
package release

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// tagPattern is stricter than full semver: releases are plain
// MAJOR.MINOR.PATCH tags, optionally "v"-prefixed. Pre-release and build
// suffixes are not published tags.
var tagPattern = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)$`)

// Version is a parsed release tag.
type Version struct {
	canonical string // always "vMAJOR.MINOR.PATCH"
}

// ParseVersion validates and normalizes a release tag.
func ParseVersion(tag string) (Version, error) {
	trimmed := strings.TrimSpace(tag)
	if !tagPattern.MatchString(trimmed) {
		return Version{}, fmt.Errorf("invalid release tag %q: want MAJOR.MINOR.PATCH", tag)
	}
	canonical := trimmed
	if !strings.HasPrefix(canonical, "v") {
		canonical = "v" + canonical
	}
	if !semver.IsValid(canonical) {
		return Version{}, fmt.Errorf("invalid release tag %q", tag)
	}
	return Version{canonical: canonical}, nil
}

// String renders the version without the "v" prefix, matching image tags.
func (v Version) String() string {
	return strings.TrimPrefix(v.canonical, "v")
}

// Tag renders the git tag form.
func (v Version) Tag() string {
	return v.canonical
}

// Compare orders versions: -1 when v < other, 0 when equal, +1 otherwise.
func (v Version) Compare(other Version) int {
	return semver.Compare(v.canonical, other.canonical)
}

// SortVersions orders tags ascending in place.
func SortVersions(versions []Version) {
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Compare(versions[j]) < 0
	})
}
