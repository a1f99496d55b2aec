package tickers

import (
	"testing"
)

func sampleEntries() []Entry {
	return []Entry{
		{Ticker: "NVDA", Name: "NVIDIA CORP"},
		{Ticker: "AAPL", Name: "APPLE INC"},
		{Ticker: "BAC", Name: "BANK OF AMERICA CORP"},
		{Ticker: "PG", Name: "PROCTER AND GAMBLE CO"},
		{Ticker: "AZN", Name: "ASTRAZENECA PLC"},
	}
}

func TestSearchFindsExactName(t *testing.T) {
	t.Parallel()

	idx := NewIndex(sampleEntries())
	matches := idx.Search("Bank of America", 1)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Ticker != "BAC" {
		t.Fatalf("expected BAC, got %s", matches[0].Ticker)
	}
	if matches[0].Score <= 0 || matches[0].Score > 1 {
		t.Fatalf("score out of range: %f", matches[0].Score)
	}
}

func TestSearchToleratesMisspelling(t *testing.T) {
	t.Parallel()

	idx := NewIndex(sampleEntries())
	matches := idx.Search("Procter and Gamble", 1)
	if len(matches) != 1 || matches[0].Ticker != "PG" {
		t.Fatalf("expected PG for misspelled query, got %+v", matches)
	}
}

func TestSearchRanksBestFirst(t *testing.T) {
	t.Parallel()

	idx := NewIndex(sampleEntries())
	matches := idx.Search("NVIDIA", 3)
	if len(matches) == 0 {
		t.Fatal("expected matches")
	}
	if matches[0].Ticker != "NVDA" {
		t.Fatalf("expected NVDA first, got %s", matches[0].Ticker)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Fatalf("matches not sorted by score: %+v", matches)
		}
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	t.Parallel()

	idx := NewIndex(sampleEntries())
	if matches := idx.Search("   ", 3); matches != nil {
		t.Fatalf("expected nil for blank query, got %+v", matches)
	}
}

func TestSearchLimitsResults(t *testing.T) {
	t.Parallel()

	idx := NewIndex(sampleEntries())
	matches := idx.Search("corp", 2)
	if len(matches) > 2 {
		t.Fatalf("expected at most 2 matches, got %d", len(matches))
	}
}

func TestReplaceSwapsDocuments(t *testing.T) {
	t.Parallel()

	idx := NewIndex(sampleEntries())
	idx.Replace([]Entry{{Ticker: "IBM", Name: "INTERNATIONAL BUSINESS MACHINES"}})
	if idx.Len() != 1 {
		t.Fatalf("expected 1 entry after Replace, got %d", idx.Len())
	}
	matches := idx.Search("international business", 1)
	if len(matches) != 1 || matches[0].Ticker != "IBM" {
		t.Fatalf("expected IBM, got %+v", matches)
	}
}

func TestIndexSkipsBlankTickers(t *testing.T) {
	t.Parallel()

	idx := NewIndex([]Entry{{Ticker: "", Name: "nameless"}, {Ticker: "A", Name: "Agilent"}})
	if idx.Len() != 1 {
		t.Fatalf("expected blank ticker to be skipped, len=%d", idx.Len())
	}
}
