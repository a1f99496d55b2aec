package release

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// CompatRow documents the feature set available at one released version.
type CompatRow struct {
	Version  string   `json:"version"`
	Features []string `json:"features"`
}

// LoadCompat reads a compatibility table JSON document from disk.
func LoadCompat(path string) ([]CompatRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compatibility table: %w", err)
	}
	var rows []CompatRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode compatibility table: %w", err)
	}
	return rows, nil
}

// CheckCompat enforces the ordering property: for any versions A < B, A
// must not list a feature absent from B. Duplicate versions are rejected.
func CheckCompat(rows []CompatRow) error {
	type entry struct {
		version  Version
		features map[string]struct{}
	}
	entries := make([]entry, 0, len(rows))
	seen := map[string]struct{}{}
	for _, row := range rows {
		v, err := ParseVersion(row.Version)
		if err != nil {
			return err
		}
		if _, dup := seen[v.String()]; dup {
			return fmt.Errorf("duplicate version %s in compatibility table", v.String())
		}
		seen[v.String()] = struct{}{}
		features := make(map[string]struct{}, len(row.Features))
		for _, f := range row.Features {
			features[f] = struct{}{}
		}
		entries = append(entries, entry{version: v, features: features})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].version.Compare(entries[j].version) < 0
	})

	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		for f := range prev.features {
			if _, ok := cur.features[f]; !ok {
				return fmt.Errorf("version %s lists feature %q missing from later version %s",
					prev.version.String(), f, cur.version.String())
			}
		}
	}
	return nil
}
