package polygon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}, fixedClock{t: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}, nil)
	require.NoError(t, err)
	return client, srv
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := New(Config{APIKey: "  "}, nil, nil)
	require.Error(t, err)
}

func TestGetSendsAPIKeyAndPath(t *testing.T) {
	t.Parallel()

	var gotPath, gotKey, gotAdjusted string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("apiKey")
		gotAdjusted = r.URL.Query().Get("adjusted")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[]}`))
	})

	adjusted := true
	_, err := client.Aggregates(context.Background(), AggsParams{
		Ticker:     "nvda",
		Multiplier: 1,
		Timespan:   "day",
		From:       "2024-02-14",
		To:         "2024-03-15",
		Adjusted:   &adjusted,
	})
	require.NoError(t, err)
	require.Equal(t, "/v2/aggs/ticker/NVDA/range/1/day/2024-02-14/2024-03-15", gotPath)
	require.Equal(t, "test-key", gotKey)
	require.Equal(t, "true", gotAdjusted)
}

func TestDailyClosesDecodesBars(t *testing.T) {
	t.Parallel()

	var gotFrom, gotTo string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Path segments carry the window dates.
		gotFrom = r.URL.Path[len(r.URL.Path)-21 : len(r.URL.Path)-11]
		gotTo = r.URL.Path[len(r.URL.Path)-10:]
		_, _ = w.Write([]byte(`{
			"ticker":"NVDA","status":"OK","resultsCount":2,
			"results":[
				{"t":1710288000000,"c":908.88,"o":900,"h":910,"l":895,"v":1000},
				{"t":1710374400000,"c":915.10,"o":909,"h":918,"l":905,"v":1200}
			]}`))
	})

	closes, err := client.DailyCloses(context.Background(), "NVDA", 30)
	require.NoError(t, err)
	require.Equal(t, "2024-02-14", gotFrom)
	require.Equal(t, "2024-03-15", gotTo)
	require.Len(t, closes, 2)
	require.Equal(t, "2024-03-13", closes[0].Date)
	require.InDelta(t, 908.88, closes[0].Close, 1e-9)
	require.Equal(t, "2024-03-14", closes[1].Date)
}

func TestGetSurfacesAPIError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"status":"ERROR","error":"unknown API key"}`))
	})

	_, err := client.LastTrade(context.Background(), "NVDA")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 403")
	require.Contains(t, err.Error(), "unknown API key")
	require.NotContains(t, err.Error(), "test-key")
}

func TestTransportErrorOmitsAPIKey(t *testing.T) {
	t.Parallel()

	// A server that is already gone: the dial fails and resty returns a
	// url.Error whose text embeds the full request URL, key included.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	client, err := New(Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
	}, fixedClock{t: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}, nil)
	require.NoError(t, err)

	_, err = client.LastTrade(context.Background(), "NVDA")
	require.Error(t, err)
	require.Contains(t, err.Error(), "/v2/last/trade/NVDA")
	require.NotContains(t, err.Error(), "test-key")
	require.NotContains(t, err.Error(), "apiKey")
}

func TestGetRetriesOnServerError(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"market":"open"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := New(Config{
		APIKey:         "test-key",
		BaseURL:        srv.URL,
		Timeout:        2 * time.Second,
		MaxRetries:     2,
		BackoffInitial: time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
	}, nil, nil)
	require.NoError(t, err)

	raw, err := client.MarketStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Contains(t, string(raw), "open")
}

func TestAggregatesValidatesParams(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.Aggregates(context.Background(), AggsParams{Multiplier: 1, Timespan: "day"})
	require.Error(t, err)

	_, err = client.Aggregates(context.Background(), AggsParams{Ticker: "A", Timespan: "day", From: "a", To: "b"})
	require.Error(t, err)
}

func TestGainersLosersValidatesDirection(t *testing.T) {
	t.Parallel()

	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"status":"OK","tickers":[]}`))
	})

	_, err := client.GainersLosers(context.Background(), GainersLosersParams{Direction: "sideways"})
	require.Error(t, err)

	_, err = client.GainersLosers(context.Background(), GainersLosersParams{Direction: "losers"})
	require.NoError(t, err)
	require.Equal(t, "/v2/snapshot/locale/us/markets/stocks/losers", gotPath)
}

func TestOptionsSnapshotBuildsPathAndQuery(t *testing.T) {
	t.Parallel()

	var gotPath, gotStrike string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotStrike = r.URL.Query().Get("strike_price")
		_, _ = w.Write([]byte(`{"results":[]}`))
	})

	_, err := client.OptionsSnapshot(context.Background(), OptionsSnapshotParams{})
	require.Error(t, err)

	_, err = client.OptionsSnapshot(context.Background(), OptionsSnapshotParams{
		UnderlyingAsset: "aapl",
		StrikePrice:     182.5,
		ContractType:    "call",
	})
	require.NoError(t, err)
	require.Equal(t, "/v3/snapshot/options/AAPL", gotPath)
	require.Equal(t, "182.5", gotStrike)
}

func TestSearchTickersBuildsQuery(t *testing.T) {
	t.Parallel()

	var query string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"results":[]}`))
	})

	active := false
	_, err := client.SearchTickers(context.Background(), SearchTickersParams{
		Search: "Nvidia",
		Market: "stocks",
		Active: &active,
		Limit:  10,
	})
	require.NoError(t, err)
	require.Contains(t, query, "search=Nvidia")
	require.Contains(t, query, "market=stocks")
	require.Contains(t, query, "active=false")
	require.Contains(t, query, "limit=10")
}
