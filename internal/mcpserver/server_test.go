package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketdesk/mcp-polygon/internal/polygon"
	"github.com/marketdesk/mcp-polygon/internal/tickers"
)

// stubClient records the last call and plays back canned responses.
type stubClient struct {
	raw        json.RawMessage
	closes     []polygon.DailyClose
	err        error
	aggsParams polygon.AggsParams
	searchP    polygon.SearchTickersParams
	finP       polygon.FinancialsParams
	optionsP   polygon.OptionsContractsParams
	moversP    polygon.GainersLosersParams
	lastTicker string
	marketType string
}

func (c *stubClient) Aggregates(_ context.Context, p polygon.AggsParams) (json.RawMessage, error) {
	c.aggsParams = p
	return c.raw, c.err
}

func (c *stubClient) DailyCloses(_ context.Context, ticker string, _ int) ([]polygon.DailyClose, error) {
	c.lastTicker = ticker
	return c.closes, c.err
}

func (c *stubClient) PreviousClose(_ context.Context, ticker string, _ *bool) (json.RawMessage, error) {
	c.lastTicker = ticker
	return c.raw, c.err
}

func (c *stubClient) LastTrade(_ context.Context, ticker string) (json.RawMessage, error) {
	c.lastTicker = ticker
	return c.raw, c.err
}

func (c *stubClient) LastQuote(_ context.Context, ticker string) (json.RawMessage, error) {
	c.lastTicker = ticker
	return c.raw, c.err
}

func (c *stubClient) SnapshotTicker(_ context.Context, marketType, ticker string) (json.RawMessage, error) {
	c.marketType = marketType
	c.lastTicker = ticker
	return c.raw, c.err
}

func (c *stubClient) MarketStatus(context.Context) (json.RawMessage, error) {
	return c.raw, c.err
}

func (c *stubClient) TickerDetails(_ context.Context, ticker string) (json.RawMessage, error) {
	c.lastTicker = ticker
	return c.raw, c.err
}

func (c *stubClient) SearchTickers(_ context.Context, p polygon.SearchTickersParams) (json.RawMessage, error) {
	c.searchP = p
	return c.raw, c.err
}

func (c *stubClient) TickerNews(context.Context, polygon.NewsParams) (json.RawMessage, error) {
	return c.raw, c.err
}

func (c *stubClient) Dividends(context.Context, polygon.DividendsParams) (json.RawMessage, error) {
	return c.raw, c.err
}

func (c *stubClient) Splits(context.Context, polygon.SplitsParams) (json.RawMessage, error) {
	return c.raw, c.err
}

func (c *stubClient) Financials(_ context.Context, p polygon.FinancialsParams) (json.RawMessage, error) {
	c.finP = p
	return c.raw, c.err
}

func (c *stubClient) TreasuryYields(context.Context, polygon.TreasuryYieldsParams) (json.RawMessage, error) {
	return c.raw, c.err
}

func (c *stubClient) Earnings(context.Context, polygon.EarningsParams) (json.RawMessage, error) {
	return c.raw, c.err
}

func (c *stubClient) AnalystRatings(context.Context, polygon.AnalystRatingsParams) (json.RawMessage, error) {
	return c.raw, c.err
}

func (c *stubClient) ShortInterest(context.Context, polygon.ShortInterestParams) (json.RawMessage, error) {
	return c.raw, c.err
}

func (c *stubClient) OptionsContracts(_ context.Context, p polygon.OptionsContractsParams) (json.RawMessage, error) {
	c.optionsP = p
	return c.raw, c.err
}

func (c *stubClient) OptionsSnapshot(context.Context, polygon.OptionsSnapshotParams) (json.RawMessage, error) {
	return c.raw, c.err
}

func (c *stubClient) GainersLosers(_ context.Context, p polygon.GainersLosersParams) (json.RawMessage, error) {
	c.moversP = p
	return c.raw, c.err
}

func (c *stubClient) MarketHolidays(context.Context) (json.RawMessage, error) {
	return c.raw, c.err
}

func (c *stubClient) Inflation(context.Context, polygon.InflationParams) (json.RawMessage, error) {
	return c.raw, c.err
}

func newTestServer(t *testing.T, client *stubClient) *Server {
	t.Helper()
	index := tickers.NewIndex([]tickers.Entry{
		{Ticker: "NVDA", Name: "NVIDIA Corp"},
		{Ticker: "BAC", Name: "Bank of America Corp"},
	})
	return New(client, index, zap.NewNop(), "1.2.3", 3)
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func TestStockPrice(t *testing.T) {
	client := &stubClient{closes: []polygon.DailyClose{
		{Date: "2024-03-14", Close: 101.5},
		{Date: "2024-03-15", Close: 103.25},
	}}
	s := newTestServer(t, client)

	result, err := s.handleStockPrice(context.Background(), callRequest("stock_price", map[string]any{
		"stock_ticker": "nvda",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	require.Contains(t, text, "Stock price over the last month for NVDA")
	require.Contains(t, text, "2024-03-15")
	require.Contains(t, text, "103.25")
}

func TestStockPriceMissingTicker(t *testing.T) {
	s := newTestServer(t, &stubClient{})

	result, err := s.handleStockPrice(context.Background(), callRequest("stock_price", map[string]any{}))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestAggregatesParamMapping(t *testing.T) {
	client := &stubClient{raw: json.RawMessage(`{"status":"OK"}`)}
	s := newTestServer(t, client)

	result, err := s.handleAggregates(context.Background(), callRequest("get_aggregates", map[string]any{
		"ticker":      "AAPL",
		"multiplier":  5,
		"timespan":    "minute",
		"from_date":   "2024-01-02",
		"to_date":     "2024-01-03",
		"adjusted":    false,
		"sort":        "asc",
		"limit":       120,
		"include_otc": true,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	p := client.aggsParams
	require.Equal(t, "AAPL", p.Ticker)
	require.Equal(t, 5, p.Multiplier)
	require.Equal(t, "minute", p.Timespan)
	require.Equal(t, "2024-01-02", p.From)
	require.Equal(t, "2024-01-03", p.To)
	require.NotNil(t, p.Adjusted)
	require.False(t, *p.Adjusted)
	require.Equal(t, "asc", p.Sort)
	require.Equal(t, 120, p.Limit)
	require.True(t, p.IncludeOTC)
}

func TestAggregatesAdjustedAbsent(t *testing.T) {
	client := &stubClient{raw: json.RawMessage(`{"status":"OK"}`)}
	s := newTestServer(t, client)

	_, err := s.handleAggregates(context.Background(), callRequest("get_aggregates", map[string]any{
		"ticker":     "AAPL",
		"multiplier": 1,
		"timespan":   "day",
		"from_date":  "2024-01-02",
		"to_date":    "2024-01-03",
	}))
	require.NoError(t, err)
	if client.aggsParams.Adjusted != nil {
		t.Fatalf("adjusted = %v, want nil when omitted", *client.aggsParams.Adjusted)
	}
}

func TestIntradayAggregatesAnnotatesSessions(t *testing.T) {
	// 2024-03-13 13:45 UTC is 09:45 EDT, inside the regular session.
	raw := `{"ticker":"AAPL","status":"OK","results":[{"o":1,"c":2,"t":1710337500000}]}`
	client := &stubClient{raw: json.RawMessage(raw)}
	s := newTestServer(t, client)

	result, err := s.handleIntradayAggregates(context.Background(), callRequest("get_intraday_aggregates", map[string]any{
		"ticker":     "AAPL",
		"multiplier": 15,
		"timespan":   "minute",
		"from_date":  "2024-03-13",
		"to_date":    "2024-03-13",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	require.Contains(t, text, `"market_session": "regular_market"`)
	require.Contains(t, text, `"et_time"`)
	require.Contains(t, text, "09:45:00 ET")
}

func TestIncomeStatementExtractsLatest(t *testing.T) {
	client := &stubClient{raw: json.RawMessage(`{"results":[{"fiscal_period":"Q1","financials":{}}]}`)}
	s := newTestServer(t, client)

	result, err := s.handleIncomeStatement(context.Background(), callRequest("income_statement", map[string]any{
		"stock_ticker": "bac",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	require.True(t, strings.HasPrefix(text, "Income statement for BAC:"), text)
	require.Contains(t, text, `"fiscal_period":"Q1"`)

	require.Equal(t, "quarterly", client.finP.Timeframe)
	require.Equal(t, 1, client.finP.Limit)
	require.Equal(t, "desc", client.finP.Order)
}

func TestToolErrorBecomesToolResult(t *testing.T) {
	client := &stubClient{err: context.DeadlineExceeded}
	s := newTestServer(t, client)

	result, err := s.handleLastTrade(context.Background(), callRequest("get_last_trade", map[string]any{
		"ticker": "AAPL",
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, resultText(t, result), "Error:")
}

func TestConvertUTCToET(t *testing.T) {
	s := newTestServer(t, &stubClient{})

	// 2024-01-10 13:45 UTC is 08:45 EST, pre-market.
	result, err := s.handleConvertUTCToET(context.Background(), callRequest("convert_utc_to_et", map[string]any{
		"utc_timestamp": 1704894300,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	require.Contains(t, text, `"market_session": "pre_market"`)
	require.Contains(t, text, "08:45:00 ET")
}

func TestMarketHoursInfo(t *testing.T) {
	s := newTestServer(t, &stubClient{})

	result, err := s.handleMarketHoursInfo(context.Background(), callRequest("get_market_hours_info", nil))
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Contains(t, resultText(t, result), `"regular_market"`)
}

func TestStockSummaryPrompt(t *testing.T) {
	s := newTestServer(t, &stubClient{})

	req := mcp.GetPromptRequest{}
	req.Params.Name = "stock_summary"
	req.Params.Arguments = map[string]string{"stock_data": "NVDA closed at 103.25"}

	result, err := s.handleStockSummaryPrompt(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	require.Equal(t, mcp.RoleUser, result.Messages[0].Role)

	content, ok := result.Messages[0].Content.(mcp.TextContent)
	require.True(t, ok)
	require.Contains(t, content.Text, "NVDA closed at 103.25")
}

func TestStockSummaryPromptMissingArgument(t *testing.T) {
	s := newTestServer(t, &stubClient{})

	req := mcp.GetPromptRequest{}
	req.Params.Name = "stock_summary"

	_, err := s.handleStockSummaryPrompt(context.Background(), req)
	require.Error(t, err)
}

func TestTickerSearchResource(t *testing.T) {
	s := newTestServer(t, &stubClient{})

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "tickers://search/Bank%20of%20America"

	contents, err := s.handleTickerSearch(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	require.Equal(t, "application/json", text.MIMEType)
	require.Contains(t, text.Text, "BAC")
}

func TestTickerSearchResourceEmptyName(t *testing.T) {
	s := newTestServer(t, &stubClient{})

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "tickers://search/"

	_, err := s.handleTickerSearch(context.Background(), req)
	require.Error(t, err)
}

func TestGainersLosersParamMapping(t *testing.T) {
	client := &stubClient{raw: json.RawMessage(`{"status":"OK"}`)}
	s := newTestServer(t, client)

	result, err := s.handleGainersLosers(context.Background(), callRequest("get_market_gainers_losers", map[string]any{
		"direction":   "gainers",
		"include_otc": true,
		"limit":       10,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Equal(t, "gainers", client.moversP.Direction)
	require.True(t, client.moversP.IncludeOTC)
	require.Equal(t, 10, client.moversP.Limit)
}

func TestOptionsContractsParamMapping(t *testing.T) {
	client := &stubClient{raw: json.RawMessage(`{"status":"OK"}`)}
	s := newTestServer(t, client)

	result, err := s.handleOptionsContracts(context.Background(), callRequest("get_options_contracts", map[string]any{
		"underlying_asset": "AAPL",
		"contract_type":    "call",
		"strike_price":     182.5,
		"expiration_date":  "2024-06-21",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Equal(t, "AAPL", client.optionsP.UnderlyingAsset)
	require.Equal(t, "call", client.optionsP.ContractType)
	require.Equal(t, 182.5, client.optionsP.StrikePrice)
	require.Equal(t, "2024-06-21", client.optionsP.ExpirationDate)
}

func TestOptionsContractsRequiresAsset(t *testing.T) {
	s := newTestServer(t, &stubClient{})

	result, err := s.handleOptionsContracts(context.Background(), callRequest("get_options_contracts", map[string]any{}))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestBalanceSheetDefaults(t *testing.T) {
	client := &stubClient{raw: json.RawMessage(`{"results":[]}`)}
	s := newTestServer(t, client)

	result, err := s.handleBalanceSheet(context.Background(), callRequest("get_balance_sheet", map[string]any{
		"ticker": "MSFT",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Equal(t, "MSFT", client.finP.Ticker)
	require.Equal(t, "quarterly", client.finP.Timeframe)
	require.Equal(t, "desc", client.finP.Order)
}

func TestTickerExchangeInfo(t *testing.T) {
	client := &stubClient{raw: json.RawMessage(`{
		"results": {
			"ticker": "AAPL",
			"primary_exchange": "XNAS",
			"market": "stocks",
			"locale": "us",
			"type": "CS",
			"active": true,
			"currency_name": "usd",
			"cik": "0000320193"
		}
	}`)}
	s := newTestServer(t, client)

	result, err := s.handleTickerExchangeInfo(context.Background(), callRequest("get_ticker_exchange_info", map[string]any{
		"ticker": "aapl",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	require.Contains(t, text, `"ticker": "AAPL"`)
	require.Contains(t, text, `"primary_exchange": "XNAS"`)
	require.Contains(t, text, `"sip_integration"`)
}

func TestTickerExchangeInfoNoData(t *testing.T) {
	client := &stubClient{raw: json.RawMessage(`{"results": null}`)}
	s := newTestServer(t, client)

	result, err := s.handleTickerExchangeInfo(context.Background(), callRequest("get_ticker_exchange_info", map[string]any{
		"ticker": "ZZZZ",
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, resultText(t, result), "ZZZZ")
}

func TestSIPInfo(t *testing.T) {
	s := newTestServer(t, &stubClient{})

	result, err := s.handleSIPInfo(context.Background(), callRequest("get_sip_info", nil))
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Contains(t, resultText(t, result), "Consolidated Tape Association")
}

func TestAnnotateSessionsNoResults(t *testing.T) {
	raw := json.RawMessage(`{"ticker":"AAPL","status":"OK"}`)
	out, err := annotateSessions(raw)
	require.NoError(t, err)
	require.JSONEq(t, string(raw), string(out))
}
