// Package tickers implements a local similarity-search index over
// ticker/company-name documents, with pluggable persistence backends.
package tickers

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/marketdesk/mcp-polygon/internal/telemetry"
)

// Entry is one indexed document: a ticker symbol and its company name.
type Entry struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// Match is one search result. Score is cosine similarity in [0, 1];
// higher means closer.
type Match struct {
	Ticker string  `json:"ticker"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
}

type document struct {
	entry  Entry
	vector map[string]float64
}

// Index holds trigram vectors for all entries and answers nearest-match
// queries. Safe for concurrent use.
type Index struct {
	mu   sync.RWMutex
	docs []document
}

// NewIndex builds an index over the given entries.
func NewIndex(entries []Entry) *Index {
	idx := &Index{}
	idx.Replace(entries)
	return idx
}

// Replace swaps the full document set.
func (i *Index) Replace(entries []Entry) {
	docs := make([]document, 0, len(entries))
	for _, e := range entries {
		if e.Ticker == "" {
			continue
		}
		docs = append(docs, document{
			entry:  e,
			vector: trigramVector(e.Ticker + " " + e.Name),
		})
	}
	i.mu.Lock()
	i.docs = docs
	i.mu.Unlock()
}

// Len reports the number of indexed entries.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.docs)
}

// Search returns the n entries most similar to the query, best first.
// Entries with zero similarity are omitted.
func (i *Index) Search(query string, n int) []Match {
	telemetry.ObserveTickerSearch()
	if n <= 0 {
		n = 1
	}
	qv := trigramVector(query)
	if len(qv) == 0 {
		return nil
	}

	i.mu.RLock()
	matches := make([]Match, 0, len(i.docs))
	for _, doc := range i.docs {
		score := cosine(qv, doc.vector)
		if score <= 0 {
			continue
		}
		matches = append(matches, Match{
			Ticker: doc.entry.Ticker,
			Name:   doc.entry.Name,
			Score:  score,
		})
	}
	i.mu.RUnlock()

	sort.Slice(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		return matches[a].Ticker < matches[b].Ticker
	})
	if len(matches) > n {
		matches = matches[:n]
	}
	return matches
}

// trigramVector builds a character-trigram frequency vector. The text is
// lowercased and padded so short tokens still produce trigrams.
func trigramVector(text string) map[string]float64 {
	cleaned := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if cleaned == "" {
		return nil
	}
	padded := "  " + cleaned + "  "
	runes := []rune(padded)
	vec := make(map[string]float64)
	for j := 0; j+3 <= len(runes); j++ {
		vec[string(runes[j:j+3])]++
	}
	return vec
}

func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, na, nb float64
	for k, v := range a {
		na += v * v
		if w, ok := b[k]; ok {
			dot += v * w
		}
	}
	for _, w := range b {
		nb += w * w
	}
	if dot == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
