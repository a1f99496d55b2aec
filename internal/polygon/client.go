// Package polygon implements a typed client for the Polygon.io REST API.
package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/marketdesk/mcp-polygon/internal/ratelimit"
	"github.com/marketdesk/mcp-polygon/internal/telemetry"
)

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Config controls client behavior.
type Config struct {
	APIKey         string
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	RequestsPerSec float64
	Burst          int
	UserAgent      string
}

// Client calls the Polygon.io REST API with auth, retry, and rate limiting.
type Client struct {
	http    *resty.Client
	limiter *ratelimit.Limiter
	clock   Clock
	logger  *zap.Logger
}

type apiError struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// New constructs a Client. The API key is required: serving without one is
// a startup error, never a per-request surprise.
func New(cfg Config, clock Clock, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("polygon API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.polygon.io"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "mcp-polygon"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	hc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetQueryParam("apiKey", cfg.APIKey).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.BackoffInitial).
		SetRetryMaxWaitTime(cfg.BackoffMax).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		})

	return &Client{
		http: hc,
		limiter: ratelimit.New(ratelimit.Config{
			RequestsPerSec: cfg.RequestsPerSec,
			Burst:          cfg.Burst,
		}),
		clock:  clock,
		logger: logger,
	}, nil
}

// get performs one rate-limited GET and returns the raw JSON body.
// endpoint is the logical operation name used for limiting and metrics;
// errors carry the request path, never the full URL (which holds the key).
func (c *Client) get(ctx context.Context, endpoint, path string, params map[string]string) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx, endpoint); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		telemetry.ObservePolygonRequest(endpoint, 0, time.Since(start))
		return nil, fmt.Errorf("GET %s: %w", path, redactTransportError(err))
	}
	telemetry.ObservePolygonRequest(endpoint, resp.StatusCode(), time.Since(start))

	if !resp.IsSuccess() {
		var apiErr apiError
		if jsonErr := json.Unmarshal(resp.Body(), &apiErr); jsonErr == nil {
			msg := apiErr.Error
			if msg == "" {
				msg = apiErr.Message
			}
			if msg != "" {
				return nil, fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode(), msg)
			}
		}
		return nil, fmt.Errorf("GET %s: status %d", path, resp.StatusCode())
	}

	c.logger.Debug("polygon request",
		zap.String("endpoint", endpoint),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
	)
	return json.RawMessage(resp.Body()), nil
}

// redactTransportError strips the request URL from transport failures.
// url.Error renders the full URL, and the URL carries the apiKey query
// parameter; only the underlying cause may surface.
func redactTransportError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}

// Aggregates returns aggregate bars for a ticker over a date range in
// custom window sizes.
func (c *Client) Aggregates(ctx context.Context, p AggsParams) (json.RawMessage, error) {
	if p.Ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}
	if p.Multiplier <= 0 {
		return nil, fmt.Errorf("multiplier must be > 0")
	}
	if p.From == "" || p.To == "" {
		return nil, fmt.Errorf("from_date and to_date are required")
	}
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		strings.ToUpper(p.Ticker), p.Multiplier, p.Timespan, p.From, p.To)
	params := map[string]string{}
	if p.Adjusted != nil {
		params["adjusted"] = fmt.Sprintf("%t", *p.Adjusted)
	}
	if p.Sort != "" {
		params["sort"] = p.Sort
	}
	if p.Limit > 0 {
		params["limit"] = fmt.Sprintf("%d", p.Limit)
	}
	if p.IncludeOTC {
		params["include_otc"] = "true"
	}
	return c.get(ctx, "aggregates", path, params)
}

// DailyCloses fetches adjusted daily closes for the trailing window ending
// now and reduces them to date/close pairs.
func (c *Client) DailyCloses(ctx context.Context, ticker string, days int) ([]DailyClose, error) {
	if days <= 0 {
		days = 30
	}
	now := time.Now().UTC()
	if c.clock != nil {
		now = c.clock.Now()
	}
	adjusted := true
	raw, err := c.Aggregates(ctx, AggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   "day",
		From:       isoDate(now.AddDate(0, 0, -days)),
		To:         isoDate(now),
		Adjusted:   &adjusted,
		Sort:       "asc",
		Limit:      5000,
	})
	if err != nil {
		return nil, err
	}
	var resp AggsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode aggregates: %w", err)
	}
	closes := make([]DailyClose, 0, len(resp.Results))
	for _, bar := range resp.Results {
		closes = append(closes, DailyClose{
			Date:  time.UnixMilli(bar.Timestamp).UTC().Format("2006-01-02"),
			Close: bar.Close,
		})
	}
	return closes, nil
}

// PreviousClose returns the previous day's OHLC for a ticker.
func (c *Client) PreviousClose(ctx context.Context, ticker string, adjusted *bool) (json.RawMessage, error) {
	path := fmt.Sprintf("/v2/aggs/ticker/%s/prev", strings.ToUpper(ticker))
	params := map[string]string{}
	if adjusted != nil {
		params["adjusted"] = fmt.Sprintf("%t", *adjusted)
	}
	return c.get(ctx, "previous_close", path, params)
}

// LastTrade returns the most recent trade for a ticker.
func (c *Client) LastTrade(ctx context.Context, ticker string) (json.RawMessage, error) {
	path := fmt.Sprintf("/v2/last/trade/%s", strings.ToUpper(ticker))
	return c.get(ctx, "last_trade", path, nil)
}

// LastQuote returns the most recent quote for a ticker.
func (c *Client) LastQuote(ctx context.Context, ticker string) (json.RawMessage, error) {
	path := fmt.Sprintf("/v2/last/quote/%s", strings.ToUpper(ticker))
	return c.get(ctx, "last_quote", path, nil)
}

// SnapshotTicker returns the market snapshot for one ticker.
func (c *Client) SnapshotTicker(ctx context.Context, marketType, ticker string) (json.RawMessage, error) {
	path := fmt.Sprintf("/v2/snapshot/locale/%s/markets/%s/tickers/%s",
		marketType, marketType, strings.ToUpper(ticker))
	return c.get(ctx, "snapshot", path, nil)
}

// MarketStatus returns the current trading status of exchanges.
func (c *Client) MarketStatus(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "market_status", "/v1/marketstatus/now", nil)
}

// TickerDetails returns reference details for a ticker.
func (c *Client) TickerDetails(ctx context.Context, ticker string) (json.RawMessage, error) {
	path := fmt.Sprintf("/v3/reference/tickers/%s", strings.ToUpper(ticker))
	return c.get(ctx, "ticker_details", path, nil)
}

// SearchTickers queries supported ticker symbols across markets.
func (c *Client) SearchTickers(ctx context.Context, p SearchTickersParams) (json.RawMessage, error) {
	params := map[string]string{}
	if p.Search != "" {
		params["search"] = p.Search
	}
	if p.Type != "" {
		params["type"] = p.Type
	}
	if p.Market != "" {
		params["market"] = p.Market
	}
	if p.Active != nil {
		params["active"] = fmt.Sprintf("%t", *p.Active)
	}
	if p.Limit > 0 {
		params["limit"] = fmt.Sprintf("%d", p.Limit)
	}
	if p.Sort != "" {
		params["sort"] = p.Sort
	}
	if p.Order != "" {
		params["order"] = p.Order
	}
	return c.get(ctx, "search_tickers", "/v3/reference/tickers", params)
}

// TickerNews returns recent news articles for a ticker.
func (c *Client) TickerNews(ctx context.Context, p NewsParams) (json.RawMessage, error) {
	params := map[string]string{}
	if p.Ticker != "" {
		params["ticker"] = strings.ToUpper(p.Ticker)
	}
	if p.PublishedUTC != "" {
		params["published_utc"] = p.PublishedUTC
	}
	if p.Limit > 0 {
		params["limit"] = fmt.Sprintf("%d", p.Limit)
	}
	if p.Sort != "" {
		params["sort"] = p.Sort
	}
	if p.Order != "" {
		params["order"] = p.Order
	}
	return c.get(ctx, "news", "/v2/reference/news", params)
}

// Dividends returns historical cash dividends.
func (c *Client) Dividends(ctx context.Context, p DividendsParams) (json.RawMessage, error) {
	params := map[string]string{}
	if p.Ticker != "" {
		params["ticker"] = strings.ToUpper(p.Ticker)
	}
	if p.ExDividendDate != "" {
		params["ex_dividend_date"] = p.ExDividendDate
	}
	if p.Frequency > 0 {
		params["frequency"] = fmt.Sprintf("%d", p.Frequency)
	}
	if p.DividendType != "" {
		params["dividend_type"] = p.DividendType
	}
	if p.Limit > 0 {
		params["limit"] = fmt.Sprintf("%d", p.Limit)
	}
	return c.get(ctx, "dividends", "/v3/reference/dividends", params)
}

// Splits returns historical stock splits.
func (c *Client) Splits(ctx context.Context, p SplitsParams) (json.RawMessage, error) {
	params := map[string]string{}
	if p.Ticker != "" {
		params["ticker"] = strings.ToUpper(p.Ticker)
	}
	if p.ExecutionDate != "" {
		params["execution_date"] = p.ExecutionDate
	}
	if p.ReverseSplit != nil {
		params["reverse_split"] = fmt.Sprintf("%t", *p.ReverseSplit)
	}
	if p.Limit > 0 {
		params["limit"] = fmt.Sprintf("%d", p.Limit)
	}
	return c.get(ctx, "splits", "/v3/reference/splits", params)
}

// Financials returns company financials; the endpoint is marked
// experimental upstream (vX) and its shape may change.
func (c *Client) Financials(ctx context.Context, p FinancialsParams) (json.RawMessage, error) {
	params := map[string]string{}
	if p.Ticker != "" {
		params["ticker"] = strings.ToUpper(p.Ticker)
	}
	if p.Timeframe != "" {
		params["timeframe"] = p.Timeframe
	}
	if p.Limit > 0 {
		params["limit"] = fmt.Sprintf("%d", p.Limit)
	}
	if p.Order != "" {
		params["order"] = p.Order
	}
	return c.get(ctx, "financials", "/vX/reference/financials", params)
}

// Earnings returns earnings data.
func (c *Client) Earnings(ctx context.Context, p EarningsParams) (json.RawMessage, error) {
	params := map[string]string{}
	if p.Ticker != "" {
		params["ticker"] = strings.ToUpper(p.Ticker)
	}
	if p.Date != "" {
		params["date"] = p.Date
	}
	if p.Limit > 0 {
		params["limit"] = fmt.Sprintf("%d", p.Limit)
	}
	if p.Sort != "" {
		params["sort"] = p.Sort
	}
	if p.Order != "" {
		params["order"] = p.Order
	}
	return c.get(ctx, "earnings", "/v3/reference/earnings", params)
}

// AnalystRatings returns analyst ratings and price targets.
func (c *Client) AnalystRatings(ctx context.Context, p AnalystRatingsParams) (json.RawMessage, error) {
	params := map[string]string{}
	if p.Ticker != "" {
		params["ticker"] = strings.ToUpper(p.Ticker)
	}
	if p.Date != "" {
		params["date"] = p.Date
	}
	if p.Limit > 0 {
		params["limit"] = fmt.Sprintf("%d", p.Limit)
	}
	if p.Sort != "" {
		params["sort"] = p.Sort
	}
	if p.Order != "" {
		params["order"] = p.Order
	}
	return c.get(ctx, "analyst_ratings", "/v2/reference/analysts", params)
}

// ShortInterest returns short interest data.
func (c *Client) ShortInterest(ctx context.Context, p ShortInterestParams) (json.RawMessage, error) {
	params := map[string]string{}
	if p.Ticker != "" {
		params["ticker"] = strings.ToUpper(p.Ticker)
	}
	if p.SettlementDate != "" {
		params["settlement_date"] = p.SettlementDate
	}
	if p.Limit > 0 {
		params["limit"] = fmt.Sprintf("%d", p.Limit)
	}
	if p.Sort != "" {
		params["sort"] = p.Sort
	}
	if p.Order != "" {
		params["order"] = p.Order
	}
	return c.get(ctx, "short_interest", "/v2/reference/short-interest", params)
}

// OptionsContracts returns options contracts for an underlying asset.
func (c *Client) OptionsContracts(ctx context.Context, p OptionsContractsParams) (json.RawMessage, error) {
	if p.UnderlyingAsset == "" {
		return nil, fmt.Errorf("underlying_asset is required")
	}
	params := map[string]string{
		"underlying_asset": strings.ToUpper(p.UnderlyingAsset),
	}
	if p.ContractType != "" {
		params["contract_type"] = p.ContractType
	}
	if p.StrikePrice > 0 {
		params["strike_price"] = strconv.FormatFloat(p.StrikePrice, 'f', -1, 64)
	}
	if p.ExpirationDate != "" {
		params["expiration_date"] = p.ExpirationDate
	}
	if p.Limit > 0 {
		params["limit"] = fmt.Sprintf("%d", p.Limit)
	}
	return c.get(ctx, "options_contracts", "/v3/reference/options/contracts", params)
}

// OptionsSnapshot returns the options chain snapshot for an underlying
// asset.
func (c *Client) OptionsSnapshot(ctx context.Context, p OptionsSnapshotParams) (json.RawMessage, error) {
	if p.UnderlyingAsset == "" {
		return nil, fmt.Errorf("underlying_asset is required")
	}
	params := map[string]string{}
	if p.StrikePrice > 0 {
		params["strike_price"] = strconv.FormatFloat(p.StrikePrice, 'f', -1, 64)
	}
	if p.ExpirationDate != "" {
		params["expiration_date"] = p.ExpirationDate
	}
	if p.ContractType != "" {
		params["contract_type"] = p.ContractType
	}
	path := fmt.Sprintf("/v3/snapshot/options/%s", strings.ToUpper(p.UnderlyingAsset))
	return c.get(ctx, "options_snapshot", path, params)
}

// GainersLosers returns the top market movers in the given direction.
func (c *Client) GainersLosers(ctx context.Context, p GainersLosersParams) (json.RawMessage, error) {
	if p.Direction != "gainers" && p.Direction != "losers" {
		return nil, fmt.Errorf("direction must be gainers or losers")
	}
	params := map[string]string{}
	if p.IncludeOTC {
		params["include_otc"] = "true"
	}
	if p.Limit > 0 {
		params["limit"] = fmt.Sprintf("%d", p.Limit)
	}
	path := fmt.Sprintf("/v2/snapshot/locale/us/markets/stocks/%s", p.Direction)
	return c.get(ctx, "gainers_losers", path, params)
}

// MarketHolidays returns upcoming market holidays and their open/close
// times.
func (c *Client) MarketHolidays(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "market_holidays", "/v1/marketstatus/upcoming", nil)
}

// Inflation returns Federal Reserve inflation data.
func (c *Client) Inflation(ctx context.Context, p InflationParams) (json.RawMessage, error) {
	params := map[string]string{}
	if p.Date != "" {
		params["date"] = p.Date
	}
	if p.Limit > 0 {
		params["limit"] = fmt.Sprintf("%d", p.Limit)
	}
	if p.Sort != "" {
		params["sort"] = p.Sort
	}
	return c.get(ctx, "inflation", "/v1/indicators/inflation", params)
}

// TreasuryYields returns treasury yield curve data.
func (c *Client) TreasuryYields(ctx context.Context, p TreasuryYieldsParams) (json.RawMessage, error) {
	params := map[string]string{}
	if p.Date != "" {
		params["date"] = p.Date
	}
	if p.Limit > 0 {
		params["limit"] = fmt.Sprintf("%d", p.Limit)
	}
	if p.Sort != "" {
		params["sort"] = p.Sort
	}
	if p.Order != "" {
		params["order"] = p.Order
	}
	return c.get(ctx, "treasury_yields", "/v1/indicators/treasury-yield", params)
}
