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

// PolygonAPI is the slice of the Polygon client the tool handlers use.
type PolygonAPI interface {
	Aggregates(ctx context.Context, p polygon.AggsParams) (json.RawMessage, error)
	DailyCloses(ctx context.Context, ticker string, days int) ([]polygon.DailyClose, error)
	PreviousClose(ctx context.Context, ticker string, adjusted *bool) (json.RawMessage, error)
	LastTrade(ctx context.Context, ticker string) (json.RawMessage, error)
	LastQuote(ctx context.Context, ticker string) (json.RawMessage, error)
	SnapshotTicker(ctx context.Context, marketType, ticker string) (json.RawMessage, error)
	MarketStatus(ctx context.Context) (json.RawMessage, error)
	TickerDetails(ctx context.Context, ticker string) (json.RawMessage, error)
	SearchTickers(ctx context.Context, p polygon.SearchTickersParams) (json.RawMessage, error)
	TickerNews(ctx context.Context, p polygon.NewsParams) (json.RawMessage, error)
	Dividends(ctx context.Context, p polygon.DividendsParams) (json.RawMessage, error)
	Splits(ctx context.Context, p polygon.SplitsParams) (json.RawMessage, error)
	Financials(ctx context.Context, p polygon.FinancialsParams) (json.RawMessage, error)
	TreasuryYields(ctx context.Context, p polygon.TreasuryYieldsParams) (json.RawMessage, error)
	Earnings(ctx context.Context, p polygon.EarningsParams) (json.RawMessage, error)
	AnalystRatings(ctx context.Context, p polygon.AnalystRatingsParams) (json.RawMessage, error)
	ShortInterest(ctx context.Context, p polygon.ShortInterestParams) (json.RawMessage, error)
	OptionsContracts(ctx context.Context, p polygon.OptionsContractsParams) (json.RawMessage, error)
	OptionsSnapshot(ctx context.Context, p polygon.OptionsSnapshotParams) (json.RawMessage, error)
	GainersLosers(ctx context.Context, p polygon.GainersLosersParams) (json.RawMessage, error)
	MarketHolidays(ctx context.Context) (json.RawMessage, error)
	Inflation(ctx context.Context, p polygon.InflationParams) (json.RawMessage, error)
}

func (s *Server) registerMarketTools() {
	s.mcp.AddTool(mcp.NewTool("stock_price",
		mcp.WithDescription("Returns daily closing prices over the last month for a given stock ticker."),
		mcp.WithString("stock_ticker",
			mcp.Required(),
			mcp.Description("An alphanumeric stock ticker, e.g. NVDA"),
		),
	), s.handleStockPrice)

	s.mcp.AddTool(mcp.NewTool("get_aggregates",
		mcp.WithDescription("Get aggregate bars for a stock over a given date range in custom time window sizes."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol")),
		mcp.WithNumber("multiplier", mcp.Required(), mcp.Description("Size of the timespan multiplier")),
		mcp.WithString("timespan", mcp.Required(), mcp.Description("Size of the time window (minute, hour, day, week, month, quarter, year)")),
		mcp.WithString("from_date", mcp.Required(), mcp.Description("Start date, YYYY-MM-DD")),
		mcp.WithString("to_date", mcp.Required(), mcp.Description("End date, YYYY-MM-DD")),
		mcp.WithBoolean("adjusted", mcp.Description("Whether the results are adjusted for splits")),
		mcp.WithString("sort", mcp.Description("Sort order (asc, desc)")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of base aggregates queried")),
		mcp.WithBoolean("include_otc", mcp.Description("Include OTC market data")),
	), s.handleAggregates)

	s.mcp.AddTool(mcp.NewTool("get_intraday_aggregates",
		mcp.WithDescription("Get intraday aggregate bars annotated with the Eastern Time market session of each bar."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol")),
		mcp.WithNumber("multiplier", mcp.Required(), mcp.Description("Size of the timespan multiplier")),
		mcp.WithString("timespan", mcp.Required(), mcp.Description("Size of the time window (minute, hour, day, week, month, quarter, year)")),
		mcp.WithString("from_date", mcp.Required(), mcp.Description("Start date, YYYY-MM-DD")),
		mcp.WithString("to_date", mcp.Required(), mcp.Description("End date, YYYY-MM-DD")),
		mcp.WithBoolean("adjusted", mcp.Description("Whether the results are adjusted for splits")),
		mcp.WithString("sort", mcp.Description("Sort order (asc, desc)")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of base aggregates queried")),
		mcp.WithBoolean("include_otc", mcp.Description("Include OTC market data")),
	), s.handleIntradayAggregates)

	s.mcp.AddTool(mcp.NewTool("get_previous_close",
		mcp.WithDescription("Get the previous trading day's open, high, low and close for a stock."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol")),
		mcp.WithBoolean("adjusted", mcp.Description("Whether the results are adjusted for splits")),
	), s.handlePreviousClose)

	s.mcp.AddTool(mcp.NewTool("get_last_trade",
		mcp.WithDescription("Get the most recent trade for a stock."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol")),
	), s.handleLastTrade)

	s.mcp.AddTool(mcp.NewTool("get_last_quote",
		mcp.WithDescription("Get the most recent NBBO quote for a stock."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol")),
	), s.handleLastQuote)

	s.mcp.AddTool(mcp.NewTool("get_snapshot_ticker",
		mcp.WithDescription("Get the current snapshot for a single ticker, including day, last trade and last quote data."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol")),
		mcp.WithString("market_type", mcp.Description("Market type (stocks, options, forex, crypto); defaults to stocks")),
	), s.handleSnapshotTicker)

	s.mcp.AddTool(mcp.NewTool("get_market_status",
		mcp.WithDescription("Get the current trading status of the overall US market and individual exchanges."),
	), s.handleMarketStatus)

	s.mcp.AddTool(mcp.NewTool("get_market_gainers_losers",
		mcp.WithDescription("Get the top gainers or losers in the market."),
		mcp.WithString("direction", mcp.Required(), mcp.Description("Direction (gainers, losers)")),
		mcp.WithBoolean("include_otc", mcp.Description("Include OTC stocks")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results")),
	), s.handleGainersLosers)

	s.mcp.AddTool(mcp.NewTool("get_market_holidays",
		mcp.WithDescription("Get upcoming market holidays and their open/close times."),
	), s.handleMarketHolidays)
}

func (s *Server) handleStockPrice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := request.RequireString("stock_ticker")
	if err != nil {
		return s.errorResult("stock_price", err), nil
	}
	closes, err := s.client.DailyCloses(ctx, ticker, 30)
	if err != nil {
		return s.errorResult("stock_price", err), nil
	}
	payload, err := json.MarshalIndent(closes, "", "  ")
	if err != nil {
		return s.errorResult("stock_price", err), nil
	}
	return s.staticResultText("stock_price",
		fmt.Sprintf("Stock price over the last month for %s: %s", strings.ToUpper(ticker), payload))
}

func aggsParamsFromRequest(request mcp.CallToolRequest) (polygon.AggsParams, error) {
	ticker, err := request.RequireString("ticker")
	if err != nil {
		return polygon.AggsParams{}, err
	}
	multiplier, err := request.RequireInt("multiplier")
	if err != nil {
		return polygon.AggsParams{}, err
	}
	timespan, err := request.RequireString("timespan")
	if err != nil {
		return polygon.AggsParams{}, err
	}
	from, err := request.RequireString("from_date")
	if err != nil {
		return polygon.AggsParams{}, err
	}
	to, err := request.RequireString("to_date")
	if err != nil {
		return polygon.AggsParams{}, err
	}
	return polygon.AggsParams{
		Ticker:     ticker,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       from,
		To:         to,
		Adjusted:   optionalBool(request, "adjusted"),
		Sort:       request.GetString("sort", ""),
		Limit:      request.GetInt("limit", 0),
		IncludeOTC: request.GetBool("include_otc", false),
	}, nil
}

func (s *Server) handleAggregates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := aggsParamsFromRequest(request)
	if err != nil {
		return s.errorResult("get_aggregates", err), nil
	}
	raw, err := s.client.Aggregates(ctx, p)
	return s.rawResult("get_aggregates", raw, err)
}

func (s *Server) handleIntradayAggregates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := aggsParamsFromRequest(request)
	if err != nil {
		return s.errorResult("get_intraday_aggregates", err), nil
	}
	raw, err := s.client.Aggregates(ctx, p)
	if err != nil {
		return s.errorResult("get_intraday_aggregates", err), nil
	}
	annotated, err := annotateSessions(raw)
	if err != nil {
		return s.errorResult("get_intraday_aggregates", err), nil
	}
	return s.rawResult("get_intraday_aggregates", annotated, nil)
}

// annotateSessions adds market_session and et_time to each aggregate bar,
// keyed off the bar's millisecond timestamp.
func annotateSessions(raw json.RawMessage) (json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode aggregates: %w", err)
	}
	resultsRaw, ok := envelope["results"]
	if !ok {
		return raw, nil
	}
	var results []map[string]any
	if err := json.Unmarshal(resultsRaw, &results); err != nil {
		return nil, fmt.Errorf("decode aggregate bars: %w", err)
	}
	for _, bar := range results {
		ts, ok := bar["t"].(float64)
		if !ok {
			continue
		}
		conv, err := markethours.Convert(int64(ts) / 1000)
		if err != nil {
			return nil, err
		}
		bar["market_session"] = conv.MarketSession
		bar["et_time"] = conv.ETDateTime
	}
	updated, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("encode aggregate bars: %w", err)
	}
	envelope["results"] = updated
	return json.Marshal(envelope)
}

func (s *Server) handlePreviousClose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := request.RequireString("ticker")
	if err != nil {
		return s.errorResult("get_previous_close", err), nil
	}
	raw, err := s.client.PreviousClose(ctx, ticker, optionalBool(request, "adjusted"))
	return s.rawResult("get_previous_close", raw, err)
}

func (s *Server) handleLastTrade(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := request.RequireString("ticker")
	if err != nil {
		return s.errorResult("get_last_trade", err), nil
	}
	raw, err := s.client.LastTrade(ctx, ticker)
	return s.rawResult("get_last_trade", raw, err)
}

func (s *Server) handleLastQuote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := request.RequireString("ticker")
	if err != nil {
		return s.errorResult("get_last_quote", err), nil
	}
	raw, err := s.client.LastQuote(ctx, ticker)
	return s.rawResult("get_last_quote", raw, err)
}

func (s *Server) handleSnapshotTicker(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := request.RequireString("ticker")
	if err != nil {
		return s.errorResult("get_snapshot_ticker", err), nil
	}
	marketType := request.GetString("market_type", "stocks")
	raw, err := s.client.SnapshotTicker(ctx, marketType, ticker)
	return s.rawResult("get_snapshot_ticker", raw, err)
}

func (s *Server) handleMarketStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := s.client.MarketStatus(ctx)
	return s.rawResult("get_market_status", raw, err)
}

func (s *Server) handleGainersLosers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	direction, err := request.RequireString("direction")
	if err != nil {
		return s.errorResult("get_market_gainers_losers", err), nil
	}
	raw, err := s.client.GainersLosers(ctx, polygon.GainersLosersParams{
		Direction:  direction,
		IncludeOTC: request.GetBool("include_otc", false),
		Limit:      request.GetInt("limit", 0),
	})
	return s.rawResult("get_market_gainers_losers", raw, err)
}

func (s *Server) handleMarketHolidays(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := s.client.MarketHolidays(ctx)
	return s.rawResult("get_market_holidays", raw, err)
}
