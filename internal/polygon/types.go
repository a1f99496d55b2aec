package polygon

import "time"

// Agg is a single aggregate bar as returned by the v2 aggregates API.
type Agg struct {
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
	VWAP      float64 `json:"vw,omitempty"`
	Timestamp int64   `json:"t"`
	Trades    int64   `json:"n,omitempty"`
}

// AggsResponse is the envelope of the v2 aggregates API.
type AggsResponse struct {
	Ticker       string `json:"ticker"`
	QueryCount   int    `json:"queryCount"`
	ResultsCount int    `json:"resultsCount"`
	Adjusted     bool   `json:"adjusted"`
	Results      []Agg  `json:"results"`
	Status       string `json:"status"`
	RequestID    string `json:"request_id"`
	Count        int    `json:"count"`
}

// DailyClose pairs a trading date with its closing price.
type DailyClose struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// AggsParams selects an aggregate window.
type AggsParams struct {
	Ticker     string
	Multiplier int
	Timespan   string
	From       string
	To         string
	Adjusted   *bool
	Sort       string
	Limit      int
	IncludeOTC bool
}

// SearchTickersParams filters the v3 reference tickers endpoint.
type SearchTickersParams struct {
	Search string
	Type   string
	Market string
	Active *bool
	Limit  int
	Sort   string
	Order  string
}

// NewsParams filters the v2 reference news endpoint.
type NewsParams struct {
	Ticker       string
	PublishedUTC string
	Limit        int
	Sort         string
	Order        string
}

// DividendsParams filters the v3 reference dividends endpoint.
type DividendsParams struct {
	Ticker         string
	ExDividendDate string
	Frequency      int
	DividendType   string
	Limit          int
}

// SplitsParams filters the v3 reference splits endpoint.
type SplitsParams struct {
	Ticker        string
	ExecutionDate string
	ReverseSplit  *bool
	Limit         int
}

// FinancialsParams filters the vX reference financials endpoint.
type FinancialsParams struct {
	Ticker    string
	Timeframe string
	Limit     int
	Order     string
}

// EarningsParams filters the v3 reference earnings endpoint.
type EarningsParams struct {
	Ticker string
	Date   string
	Limit  int
	Sort   string
	Order  string
}

// AnalystRatingsParams filters the v2 reference analysts endpoint.
type AnalystRatingsParams struct {
	Ticker string
	Date   string
	Limit  int
	Sort   string
	Order  string
}

// ShortInterestParams filters the v2 reference short-interest endpoint.
type ShortInterestParams struct {
	Ticker         string
	SettlementDate string
	Limit          int
	Sort           string
	Order          string
}

// OptionsContractsParams filters the v3 reference options contracts
// endpoint. UnderlyingAsset is required.
type OptionsContractsParams struct {
	UnderlyingAsset string
	ContractType    string
	StrikePrice     float64
	ExpirationDate  string
	Limit           int
}

// OptionsSnapshotParams filters the v3 options snapshot endpoint.
// UnderlyingAsset is required.
type OptionsSnapshotParams struct {
	UnderlyingAsset string
	StrikePrice     float64
	ExpirationDate  string
	ContractType    string
}

// GainersLosersParams selects a market movers snapshot.
type GainersLosersParams struct {
	// Direction is "gainers" or "losers".
	Direction  string
	IncludeOTC bool
	Limit      int
}

// InflationParams filters the v1 inflation indicator endpoint.
type InflationParams struct {
	Date  string
	Limit int
	Sort  string
}

// TreasuryYieldsParams filters the v1 treasury yield indicator endpoint.
type TreasuryYieldsParams struct {
	Date  string
	Limit int
	Sort  string
	Order string
}

func isoDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
