package release

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
)

// ErrTagImmutable reports an attempt to re-publish an existing tag with a
// different digest. Published tags never move.
var ErrTagImmutable = errors.New("published tag is immutable")

var digestPattern = regexp.MustCompile(`^sha256:[0-9a-f]{64}$`)

// Manifest records the published image tags and their digests.
type Manifest struct {
	// Image is the repository reference, e.g. ghcr.io/org/mcp-polygon.
	Image string `json:"image"`
	// Tags maps a release tag to its image digest. Canonical keys are
	// v-prefixed ("v1.2.3"); the bare form written by older tooling is
	// still accepted on lookup.
	Tags map[string]string `json:"tags"`
}

// LoadManifest reads a manifest JSON document from disk.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// Save writes the manifest back to disk.
func (m Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Verify checks structural validity: the image reference is set, every
// tag parses as a release version, and every digest is well-formed.
func (m Manifest) Verify() error {
	if m.Image == "" {
		return fmt.Errorf("manifest image reference is empty")
	}
	for tag, digest := range m.Tags {
		if _, err := ParseVersion(tag); err != nil {
			return err
		}
		if !digestPattern.MatchString(digest) {
			return fmt.Errorf("tag %s: malformed digest %q", tag, digest)
		}
	}
	return nil
}

// Publish records a new tag. Re-publishing the same tag with the same
// digest is a no-op; a different digest violates immutability.
func (m *Manifest) Publish(tag, digest string) error {
	v, err := ParseVersion(tag)
	if err != nil {
		return err
	}
	if !digestPattern.MatchString(digest) {
		return fmt.Errorf("malformed digest %q", digest)
	}
	if m.Tags == nil {
		m.Tags = map[string]string{}
	}
	if existing, key, ok := m.lookup(v); ok {
		if existing != digest {
			return fmt.Errorf("tag %s already published with digest %s: %w", key, existing, ErrTagImmutable)
		}
		return nil
	}
	m.Tags[v.Tag()] = digest
	return nil
}

// lookup resolves a version's digest under either key form.
func (m Manifest) lookup(v Version) (digest, key string, ok bool) {
	if d, found := m.Tags[v.Tag()]; found {
		return d, v.Tag(), true
	}
	if d, found := m.Tags[v.String()]; found {
		return d, v.String(), true
	}
	return "", "", false
}

// Versions lists all published versions, ascending.
func (m Manifest) Versions() ([]Version, error) {
	versions := make([]Version, 0, len(m.Tags))
	for tag := range m.Tags {
		v, err := ParseVersion(tag)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	SortVersions(versions)
	return versions, nil
}

// Latest returns the highest published version.
func (m Manifest) Latest() (Version, error) {
	versions, err := m.Versions()
	if err != nil {
		return Version{}, err
	}
	if len(versions) == 0 {
		return Version{}, fmt.Errorf("manifest has no published tags")
	}
	return versions[len(versions)-1], nil
}

// RollbackRef resolves the pinned image reference for a previously
// published tag: image:vX.Y.Z@digest. The operator re-points the
// deployment at this reference; nothing is executed here.
func (m Manifest) RollbackRef(tag string) (string, error) {
	v, err := ParseVersion(tag)
	if err != nil {
		return "", err
	}
	digest, _, ok := m.lookup(v)
	if !ok {
		return "", fmt.Errorf("tag %s was never published", v.Tag())
	}
	return fmt.Sprintf("%s:%s@%s", m.Image, v.Tag(), digest), nil
}
