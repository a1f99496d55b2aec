package tickers

import "context"

// Store persists the ticker document set between runs.
type Store interface {
	// Load returns all persisted entries. A store with nothing persisted
	// yet returns an empty slice, not an error.
	Load(ctx context.Context) ([]Entry, error)
	// Save replaces the persisted set with the given entries.
	Save(ctx context.Context, entries []Entry) error
	// Close releases any underlying resources.
	Close()
}
