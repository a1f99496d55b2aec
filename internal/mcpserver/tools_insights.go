package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/marketdesk/mcp-polygon/internal/polygon"
)

func (s *Server) registerInsightTools() {
	s.mcp.AddTool(mcp.NewTool("get_earnings",
		mcp.WithDescription("Get earnings data for stocks."),
		mcp.WithString("ticker", mcp.Description("Stock ticker symbol")),
		mcp.WithString("date", mcp.Description("Earnings date, YYYY-MM-DD")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results")),
		mcp.WithString("sort", mcp.Description("Sort field (date, ticker)")),
		mcp.WithString("order", mcp.Description("Sort order (asc, desc)")),
	), s.handleEarnings)

	s.mcp.AddTool(mcp.NewTool("get_analyst_ratings",
		mcp.WithDescription("Get analyst ratings and price targets for stocks."),
		mcp.WithString("ticker", mcp.Description("Stock ticker symbol")),
		mcp.WithString("date", mcp.Description("Rating date, YYYY-MM-DD")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results")),
		mcp.WithString("sort", mcp.Description("Sort field (date, ticker)")),
		mcp.WithString("order", mcp.Description("Sort order (asc, desc)")),
	), s.handleAnalystRatings)

	s.mcp.AddTool(mcp.NewTool("get_short_interest",
		mcp.WithDescription("Get short interest data for stocks."),
		mcp.WithString("ticker", mcp.Description("Stock ticker symbol")),
		mcp.WithString("settlement_date", mcp.Description("Settlement date for short interest, YYYY-MM-DD")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results")),
		mcp.WithString("sort", mcp.Description("Sort field (settlement_date, ticker)")),
		mcp.WithString("order", mcp.Description("Sort order (asc, desc)")),
	), s.handleShortInterest)

	s.mcp.AddTool(mcp.NewTool("get_options_contracts",
		mcp.WithDescription("Get options contracts for a stock."),
		mcp.WithString("underlying_asset", mcp.Required(), mcp.Description("Stock ticker symbol")),
		mcp.WithString("contract_type", mcp.Description("Type of option (call, put)")),
		mcp.WithNumber("strike_price", mcp.Description("Strike price of the option")),
		mcp.WithString("expiration_date", mcp.Description("Expiration date, YYYY-MM-DD")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results")),
	), s.handleOptionsContracts)

	s.mcp.AddTool(mcp.NewTool("get_options_snapshot",
		mcp.WithDescription("Get real-time options snapshot data for an underlying asset."),
		mcp.WithString("underlying_asset", mcp.Required(), mcp.Description("Stock ticker symbol")),
		mcp.WithNumber("strike_price", mcp.Description("Strike price of the option")),
		mcp.WithString("expiration_date", mcp.Description("Expiration date, YYYY-MM-DD")),
		mcp.WithString("contract_type", mcp.Description("Type of option (call, put)")),
	), s.handleOptionsSnapshot)

	s.mcp.AddTool(mcp.NewTool("get_balance_sheet",
		mcp.WithDescription("Get balance sheet data for a stock."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol")),
		mcp.WithString("timeframe", mcp.Description("Timeframe (quarterly, annual); defaults to quarterly")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results")),
		mcp.WithString("order", mcp.Description("Sort order (asc, desc); defaults to desc")),
	), s.handleBalanceSheet)

	s.mcp.AddTool(mcp.NewTool("get_cash_flow",
		mcp.WithDescription("Get cash flow statement data for a stock."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol")),
		mcp.WithString("timeframe", mcp.Description("Timeframe (quarterly, annual); defaults to quarterly")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results")),
		mcp.WithString("order", mcp.Description("Sort order (asc, desc); defaults to desc")),
	), s.handleCashFlow)

	s.mcp.AddTool(mcp.NewTool("get_inflation_data",
		mcp.WithDescription("Get inflation data from the Federal Reserve."),
		mcp.WithString("date", mcp.Description("Date for the inflation data, YYYY-MM-DD")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results")),
		mcp.WithString("sort", mcp.Description("Sort field (date, value)")),
	), s.handleInflation)
}

func (s *Server) handleEarnings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := s.client.Earnings(ctx, polygon.EarningsParams{
		Ticker: request.GetString("ticker", ""),
		Date:   request.GetString("date", ""),
		Limit:  request.GetInt("limit", 0),
		Sort:   request.GetString("sort", ""),
		Order:  request.GetString("order", ""),
	})
	return s.rawResult("get_earnings", raw, err)
}

func (s *Server) handleAnalystRatings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := s.client.AnalystRatings(ctx, polygon.AnalystRatingsParams{
		Ticker: request.GetString("ticker", ""),
		Date:   request.GetString("date", ""),
		Limit:  request.GetInt("limit", 0),
		Sort:   request.GetString("sort", ""),
		Order:  request.GetString("order", ""),
	})
	return s.rawResult("get_analyst_ratings", raw, err)
}

func (s *Server) handleShortInterest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := s.client.ShortInterest(ctx, polygon.ShortInterestParams{
		Ticker:         request.GetString("ticker", ""),
		SettlementDate: request.GetString("settlement_date", ""),
		Limit:          request.GetInt("limit", 0),
		Sort:           request.GetString("sort", ""),
		Order:          request.GetString("order", ""),
	})
	return s.rawResult("get_short_interest", raw, err)
}

func (s *Server) handleOptionsContracts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	asset, err := request.RequireString("underlying_asset")
	if err != nil {
		return s.errorResult("get_options_contracts", err), nil
	}
	raw, err := s.client.OptionsContracts(ctx, polygon.OptionsContractsParams{
		UnderlyingAsset: asset,
		ContractType:    request.GetString("contract_type", ""),
		StrikePrice:     request.GetFloat("strike_price", 0),
		ExpirationDate:  request.GetString("expiration_date", ""),
		Limit:           request.GetInt("limit", 0),
	})
	return s.rawResult("get_options_contracts", raw, err)
}

func (s *Server) handleOptionsSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	asset, err := request.RequireString("underlying_asset")
	if err != nil {
		return s.errorResult("get_options_snapshot", err), nil
	}
	raw, err := s.client.OptionsSnapshot(ctx, polygon.OptionsSnapshotParams{
		UnderlyingAsset: asset,
		StrikePrice:     request.GetFloat("strike_price", 0),
		ExpirationDate:  request.GetString("expiration_date", ""),
		ContractType:    request.GetString("contract_type", ""),
	})
	return s.rawResult("get_options_snapshot", raw, err)
}

func (s *Server) handleBalanceSheet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.financialStatement(ctx, "get_balance_sheet", request)
}

func (s *Server) handleCashFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.financialStatement(ctx, "get_cash_flow", request)
}

// financialStatement serves the statement-specific tools; the upstream
// financials endpoint returns all statements in one payload.
func (s *Server) financialStatement(ctx context.Context, tool string, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := request.RequireString("ticker")
	if err != nil {
		return s.errorResult(tool, err), nil
	}
	raw, err := s.client.Financials(ctx, polygon.FinancialsParams{
		Ticker:    ticker,
		Timeframe: request.GetString("timeframe", "quarterly"),
		Limit:     request.GetInt("limit", 0),
		Order:     request.GetString("order", "desc"),
	})
	return s.rawResult(tool, raw, err)
}

func (s *Server) handleInflation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := s.client.Inflation(ctx, polygon.InflationParams{
		Date:  request.GetString("date", ""),
		Limit: request.GetInt("limit", 0),
		Sort:  request.GetString("sort", ""),
	})
	return s.rawResult("get_inflation_data", raw, err)
}
