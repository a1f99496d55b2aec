package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/marketdesk/mcp-polygon/internal/markethours"
	"github.com/marketdesk/mcp-polygon/internal/polygon"
)

func (s *Server) registerReferenceTools() {
	s.mcp.AddTool(mcp.NewTool("stock_info",
		mcp.WithDescription("Returns company background information for a given stock ticker."),
		mcp.WithString("stock_ticker",
			mcp.Required(),
			mcp.Description("An alphanumeric stock ticker, e.g. IBM"),
		),
	), s.handleStockInfo)

	s.mcp.AddTool(mcp.NewTool("income_statement",
		mcp.WithDescription("Returns the latest quarterly income statement for a given stock ticker."),
		mcp.WithString("stock_ticker",
			mcp.Required(),
			mcp.Description("An alphanumeric stock ticker, e.g. BAC"),
		),
	), s.handleIncomeStatement)

	s.mcp.AddTool(mcp.NewTool("search_tickers",
		mcp.WithDescription("Query supported ticker symbols across stocks, indices, forex, and crypto."),
		mcp.WithString("search", mcp.Description("Search for tickers by name or ticker symbol")),
		mcp.WithString("type", mcp.Description("Type of ticker (CS, ADRC, ADRP, ADR, NY, NAS, OTC, PINK, Q, D, etc.)")),
		mcp.WithString("market", mcp.Description("Market filter (stocks, crypto, fx)")),
		mcp.WithBoolean("active", mcp.Description("Filter for active or inactive tickers")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results")),
		mcp.WithString("sort", mcp.Description("Sort field (ticker, name, market, locale, primary_exchange, type, active, currency_name, cik)")),
		mcp.WithString("order", mcp.Description("Sort order (asc, desc)")),
	), s.handleSearchTickers)

	s.mcp.AddTool(mcp.NewTool("get_ticker_news",
		mcp.WithDescription("Get recent news articles for a stock ticker."),
		mcp.WithString("ticker", mcp.Description("Stock ticker symbol")),
		mcp.WithString("published_utc", mcp.Description("Published date in UTC format")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results")),
		mcp.WithString("sort", mcp.Description("Sort field (published_utc, title, author, ticker)")),
		mcp.WithString("order", mcp.Description("Sort order (asc, desc)")),
	), s.handleTickerNews)

	s.mcp.AddTool(mcp.NewTool("get_dividends",
		mcp.WithDescription("Get historical cash dividends."),
		mcp.WithString("ticker", mcp.Description("Stock ticker symbol")),
		mcp.WithString("ex_dividend_date", mcp.Description("Ex-dividend date, YYYY-MM-DD")),
		mcp.WithNumber("frequency", mcp.Description("Frequency of dividends (1 = monthly, 2 = quarterly, 4 = annually)")),
		mcp.WithString("dividend_type", mcp.Description("Type of dividend (CD, SC, LT, ST)")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results")),
	), s.handleDividends)

	s.mcp.AddTool(mcp.NewTool("get_splits",
		mcp.WithDescription("Get historical stock splits."),
		mcp.WithString("ticker", mcp.Description("Stock ticker symbol")),
		mcp.WithString("execution_date", mcp.Description("Execution date of the split, YYYY-MM-DD")),
		mcp.WithBoolean("reverse_split", mcp.Description("Filter for reverse splits")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results")),
	), s.handleSplits)

	s.mcp.AddTool(mcp.NewTool("get_treasury_yields",
		mcp.WithDescription("Get U.S. treasury yield data."),
		mcp.WithString("date", mcp.Description("Date for the yield data, YYYY-MM-DD")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results")),
		mcp.WithString("sort", mcp.Description("Sort field (date, yield_2_yr, yield_5_yr, yield_10_yr, yield_30_yr)")),
		mcp.WithString("order", mcp.Description("Sort order (asc, desc)")),
	), s.handleTreasuryYields)

	s.mcp.AddTool(mcp.NewTool("get_market_hours_info",
		mcp.WithDescription("Get information about U.S. market trading hours and timezone handling."),
	), s.handleMarketHoursInfo)

	s.mcp.AddTool(mcp.NewTool("convert_utc_to_et",
		mcp.WithDescription("Convert a UTC Unix timestamp to Eastern Time, including the market session it falls in."),
		mcp.WithNumber("utc_timestamp", mcp.Required(), mcp.Description("Unix timestamp in seconds (UTC)")),
	), s.handleConvertUTCToET)

	s.mcp.AddTool(mcp.NewTool("get_exchange_info",
		mcp.WithDescription("Get information about major U.S. stock exchanges and trade reporting sources."),
	), s.handleExchangeInfo)

	s.mcp.AddTool(mcp.NewTool("get_sip_info",
		mcp.WithDescription("Get information about Securities Information Processors (SIPs) and their role in market data."),
	), s.handleSIPInfo)

	s.mcp.AddTool(mcp.NewTool("get_market_data_coverage",
		mcp.WithDescription("Get information about Polygon's market data coverage and infrastructure."),
	), s.handleMarketDataCoverage)

	s.mcp.AddTool(mcp.NewTool("get_ticker_exchange_info",
		mcp.WithDescription("Get detailed exchange and listing information for a specific ticker."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol")),
	), s.handleTickerExchangeInfo)
}

func (s *Server) handleStockInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := request.RequireString("stock_ticker")
	if err != nil {
		return s.errorResult("stock_info", err), nil
	}
	raw, err := s.client.TickerDetails(ctx, ticker)
	if err != nil {
		return s.errorResult("stock_info", err), nil
	}
	results, err := extractResults(raw)
	if err != nil {
		return s.errorResult("stock_info", err), nil
	}
	return s.staticResultText("stock_info",
		fmt.Sprintf("Background information for %s: %s", strings.ToUpper(ticker), results))
}

func (s *Server) handleIncomeStatement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := request.RequireString("stock_ticker")
	if err != nil {
		return s.errorResult("income_statement", err), nil
	}
	raw, err := s.client.Financials(ctx, polygon.FinancialsParams{
		Ticker:    ticker,
		Timeframe: "quarterly",
		Limit:     1,
		Order:     "desc",
	})
	if err != nil {
		return s.errorResult("income_statement", err), nil
	}
	latest, err := firstResult(raw)
	if err != nil {
		return s.errorResult("income_statement", err), nil
	}
	return s.staticResultText("income_statement",
		fmt.Sprintf("Income statement for %s: %s", strings.ToUpper(ticker), latest))
}

func (s *Server) handleSearchTickers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := s.client.SearchTickers(ctx, polygon.SearchTickersParams{
		Search: request.GetString("search", ""),
		Type:   request.GetString("type", ""),
		Market: request.GetString("market", ""),
		Active: optionalBool(request, "active"),
		Limit:  request.GetInt("limit", 0),
		Sort:   request.GetString("sort", ""),
		Order:  request.GetString("order", ""),
	})
	return s.rawResult("search_tickers", raw, err)
}

func (s *Server) handleTickerNews(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := s.client.TickerNews(ctx, polygon.NewsParams{
		Ticker:       request.GetString("ticker", ""),
		PublishedUTC: request.GetString("published_utc", ""),
		Limit:        request.GetInt("limit", 0),
		Sort:         request.GetString("sort", ""),
		Order:        request.GetString("order", ""),
	})
	return s.rawResult("get_ticker_news", raw, err)
}

func (s *Server) handleDividends(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := s.client.Dividends(ctx, polygon.DividendsParams{
		Ticker:         request.GetString("ticker", ""),
		ExDividendDate: request.GetString("ex_dividend_date", ""),
		Frequency:      request.GetInt("frequency", 0),
		DividendType:   request.GetString("dividend_type", ""),
		Limit:          request.GetInt("limit", 0),
	})
	return s.rawResult("get_dividends", raw, err)
}

func (s *Server) handleSplits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := s.client.Splits(ctx, polygon.SplitsParams{
		Ticker:        request.GetString("ticker", ""),
		ExecutionDate: request.GetString("execution_date", ""),
		ReverseSplit:  optionalBool(request, "reverse_split"),
		Limit:         request.GetInt("limit", 0),
	})
	return s.rawResult("get_splits", raw, err)
}

func (s *Server) handleTreasuryYields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := s.client.TreasuryYields(ctx, polygon.TreasuryYieldsParams{
		Date:  request.GetString("date", ""),
		Limit: request.GetInt("limit", 0),
		Sort:  request.GetString("sort", ""),
		Order: request.GetString("order", ""),
	})
	return s.rawResult("get_treasury_yields", raw, err)
}

func (s *Server) handleMarketHoursInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.staticResult("get_market_hours_info", markethours.Hours())
}

func (s *Server) handleConvertUTCToET(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ts, err := request.RequireInt("utc_timestamp")
	if err != nil {
		return s.errorResult("convert_utc_to_et", err), nil
	}
	conv, err := markethours.Convert(int64(ts))
	if err != nil {
		return s.errorResult("convert_utc_to_et", err), nil
	}
	return s.staticResult("convert_utc_to_et", conv)
}

func (s *Server) handleExchangeInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.staticResult("get_exchange_info", markethours.Exchanges())
}

func (s *Server) handleSIPInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.staticResult("get_sip_info", markethours.SIPs())
}

func (s *Server) handleMarketDataCoverage(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.staticResult("get_market_data_coverage", markethours.Coverage())
}

// tickerListing is the slice of the ticker details payload the exchange
// info tool reports.
type tickerListing struct {
	PrimaryExchange string `json:"primary_exchange"`
	Market          string `json:"market"`
	Locale          string `json:"locale"`
	Type            string `json:"type"`
	Active          bool   `json:"active"`
	CurrencyName    string `json:"currency_name"`
	CIK             string `json:"cik"`
	CompositeFIGI   string `json:"composite_figi"`
	ShareClassFIGI  string `json:"share_class_figi"`
}

type tickerExchangeCoverage struct {
	Ticker          string         `json:"ticker"`
	PrimaryExchange string         `json:"primary_exchange"`
	Market          string         `json:"market"`
	Locale          string         `json:"locale"`
	Type            string         `json:"type"`
	Active          bool           `json:"active"`
	CurrencyName    string         `json:"currency_name"`
	CIK             string         `json:"cik"`
	CompositeFIGI   string         `json:"composite_figi"`
	ShareClassFIGI  string         `json:"share_class_figi"`
	PolygonCoverage map[string]any `json:"polygon_coverage"`
}

func (s *Server) handleTickerExchangeInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := request.RequireString("ticker")
	if err != nil {
		return s.errorResult("get_ticker_exchange_info", err), nil
	}
	raw, err := s.client.TickerDetails(ctx, ticker)
	if err != nil {
		return s.errorResult("get_ticker_exchange_info", err), nil
	}
	results, err := extractResults(raw)
	if err != nil {
		return s.errorResult("get_ticker_exchange_info", err), nil
	}
	if string(results) == "{}" {
		return s.errorResult("get_ticker_exchange_info",
			fmt.Errorf("no data found for ticker %s", strings.ToUpper(ticker))), nil
	}
	var listing tickerListing
	if err := json.Unmarshal(results, &listing); err != nil {
		return s.errorResult("get_ticker_exchange_info", fmt.Errorf("decode listing: %w", err)), nil
	}
	return s.staticResult("get_ticker_exchange_info", tickerExchangeCoverage{
		Ticker:          strings.ToUpper(ticker),
		PrimaryExchange: listing.PrimaryExchange,
		Market:          listing.Market,
		Locale:          listing.Locale,
		Type:            listing.Type,
		Active:          listing.Active,
		CurrencyName:    listing.CurrencyName,
		CIK:             listing.CIK,
		CompositeFIGI:   listing.CompositeFIGI,
		ShareClassFIGI:  listing.ShareClassFIGI,
		PolygonCoverage: map[string]any{
			"data_available":  "Real-time trades, quotes, and market events",
			"exchange_feed":   "Direct feed from primary exchange",
			"sip_integration": "Included in consolidated SIP feeds",
			"market_sessions": []string{"pre_market", "regular_market", "after_hours"},
		},
	})
}

// extractResults pulls the results field out of a reference API envelope.
func extractResults(raw json.RawMessage) (json.RawMessage, error) {
	var envelope struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Results) == 0 || string(envelope.Results) == "null" {
		return json.RawMessage("{}"), nil
	}
	return envelope.Results, nil
}

// firstResult pulls the first element of a results array, or an empty
// object when the array is empty.
func firstResult(raw json.RawMessage) (json.RawMessage, error) {
	var envelope struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Results) == 0 {
		return json.RawMessage("{}"), nil
	}
	return envelope.Results[0], nil
}
