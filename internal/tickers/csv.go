package tickers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadCSV parses ticker entries from CSV with `ticker,name` columns. A
// header row is detected and skipped; blank tickers are rejected.
func ReadCSV(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var entries []Entry
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++
		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: expected ticker,name columns", line)
		}
		ticker := strings.TrimSpace(record[0])
		name := strings.TrimSpace(record[1])
		if line == 1 && strings.EqualFold(ticker, "ticker") {
			continue
		}
		if ticker == "" {
			return nil, fmt.Errorf("line %d: ticker is empty", line)
		}
		entries = append(entries, Entry{Ticker: strings.ToUpper(ticker), Name: name})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no ticker rows found")
	}
	return entries, nil
}
