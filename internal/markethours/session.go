// Package markethours classifies U.S. equity market sessions and carries
// static market-hours and exchange reference data.
package markethours

import (
	"fmt"
	"sync"
	"time"
)

// Session names a U.S. equity trading session.
type Session string

// Market sessions in Eastern Time.
const (
	SessionPreMarket  Session = "pre_market"
	SessionRegular    Session = "regular_market"
	SessionAfterHours Session = "after_hours"
	SessionClosed     Session = "market_closed"
)

var (
	etOnce sync.Once
	etLoc  *time.Location
	etErr  error
)

// eastern loads America/New_York once. DST is handled by the zone data,
// not a fixed offset.
func eastern() (*time.Location, error) {
	etOnce.Do(func() {
		etLoc, etErr = time.LoadLocation("America/New_York")
		if etErr != nil {
			etErr = fmt.Errorf("load America/New_York: %w", etErr)
		}
	})
	return etLoc, etErr
}

// SessionAt classifies the instant t. Weekends are closed regardless of
// the time of day.
func SessionAt(t time.Time) (Session, error) {
	loc, err := eastern()
	if err != nil {
		return "", err
	}
	et := t.In(loc)
	if wd := et.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return SessionClosed, nil
	}
	minutes := et.Hour()*60 + et.Minute()
	switch {
	case minutes >= 4*60 && minutes < 9*60+30:
		return SessionPreMarket, nil
	case minutes >= 9*60+30 && minutes < 16*60:
		return SessionRegular, nil
	case minutes >= 16*60 && minutes < 20*60:
		return SessionAfterHours, nil
	default:
		return SessionClosed, nil
	}
}

// Conversion reports a UTC timestamp alongside its Eastern Time rendering
// and the market session it falls in.
type Conversion struct {
	UTCTimestamp  int64   `json:"utc_timestamp"`
	UTCDateTime   string  `json:"utc_datetime"`
	ETDateTime    string  `json:"et_datetime"`
	MarketSession Session `json:"market_session"`
}

// Convert maps a Unix timestamp (seconds, UTC) to Eastern Time.
func Convert(utcTimestamp int64) (Conversion, error) {
	loc, err := eastern()
	if err != nil {
		return Conversion{}, err
	}
	utc := time.Unix(utcTimestamp, 0).UTC()
	session, err := SessionAt(utc)
	if err != nil {
		return Conversion{}, err
	}
	return Conversion{
		UTCTimestamp:  utcTimestamp,
		UTCDateTime:   utc.Format("2006-01-02 15:04:05") + " UTC",
		ETDateTime:    utc.In(loc).Format("2006-01-02 15:04:05") + " ET",
		MarketSession: session,
	}, nil
}

// SessionWindow is one trading session's wall-clock bounds.
type SessionWindow struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
}

// HoursInfo describes U.S. market trading hours.
type HoursInfo struct {
	PreMarket      SessionWindow `json:"pre_market"`
	RegularMarket  SessionWindow `json:"regular_market"`
	AfterHours     SessionWindow `json:"after_hours"`
	ImportantNotes []string      `json:"important_notes"`
}

// Hours returns the static U.S. market hours reference.
func Hours() HoursInfo {
	return HoursInfo{
		PreMarket:     SessionWindow{Start: "04:00", End: "09:30", Timezone: "ET"},
		RegularMarket: SessionWindow{Start: "09:30", End: "16:00", Timezone: "ET"},
		AfterHours:    SessionWindow{Start: "16:00", End: "20:00", Timezone: "ET"},
		ImportantNotes: []string{
			"All Polygon timestamps are in UTC (Unix timestamps)",
			"Convert UTC to ET for market hour alignment",
			"Pre-market: 4:00 AM - 9:30 AM ET",
			"Regular market: 9:30 AM - 4:00 PM ET",
			"After-hours: 4:00 PM - 8:00 PM ET",
		},
	}
}

// SIP describes one Securities Information Processor.
type SIP struct {
	Name     string   `json:"name"`
	Coverage string   `json:"coverage"`
	Tapes    []string `json:"tapes"`
}

// SIPInfo is the static reference on SIPs and their role in market data.
type SIPInfo struct {
	WhatAreSIPs  string   `json:"what_are_sips"`
	SIPFunctions []string `json:"sip_functions"`
	MajorSIPs    []SIP    `json:"major_sips"`
	DataFlow     []string `json:"data_flow"`
	Importance   string   `json:"importance"`
}

// SIPs returns the static SIP reference.
func SIPs() SIPInfo {
	return SIPInfo{
		WhatAreSIPs: "Securities Information Processors (SIPs) consolidate trade and quote data from all exchanges into a single feed",
		SIPFunctions: []string{
			"Provide National Best Bid and Offer (NBBO)",
			"Consolidate last sale data",
			"Ensure equal access to market data",
			"Maintain transparent and fair trading environment",
		},
		MajorSIPs: []SIP{
			{
				Name:     "Consolidated Tape Association (CTA)",
				Coverage: "NYSE-listed and regional exchange securities",
				Tapes:    []string{"Tape A", "Tape B"},
			},
			{
				Name:     "Unlisted Trading Privileges (UTP)",
				Coverage: "All Nasdaq-listed securities",
				Tapes:    []string{"Tape C"},
			},
		},
		DataFlow: []string{
			"Exchanges -> SIPs -> Polygon.io -> Users",
			"Direct exchange feeds + SIP consolidation",
			"Alternative Trading Systems (ATS) report to FINRA within 10 seconds",
		},
		Importance: "SIPs are vital infrastructure ensuring all market participants have equal access to trade and quote data",
	}
}

// CoverageInfo is the static reference on Polygon's market data coverage
// and infrastructure.
type CoverageInfo struct {
	Infrastructure       map[string]any    `json:"infrastructure"`
	DataSources          map[string]string `json:"data_sources"`
	DataQuality          map[string]string `json:"data_quality"`
	RegulatoryCompliance map[string]string `json:"regulatory_compliance"`
	MarketHours          map[string]string `json:"market_hours"`
}

// Coverage returns the static market data coverage reference.
func Coverage() CoverageInfo {
	return CoverageInfo{
		Infrastructure: map[string]any{
			"primary_facility": "Equinix Data Center, New Jersey",
			"redundancy":       "ORD11 data center, Chicago",
			"co_location":      "Strategically co-located with exchanges",
			"benefits":         []string{"Reduced latency", "Enhanced reliability", "Direct physical connections"},
		},
		DataSources: map[string]string{
			"exchanges":  "All 19 major U.S. stock exchanges",
			"dark_pools": "Additional dark pool data",
			"finra":      "FINRA trading facilities",
			"otc":        "OTC markets",
			"ats":        "Alternative Trading Systems",
		},
		DataQuality: map[string]string{
			"direct_feeds":    "Direct relationships with each exchange",
			"licensing":       "Compliance with all licensing requirements",
			"sip_integration": "Combines direct exchange access with regulated SIP consolidation",
			"coverage":        "Every trade, quote, and market event as it occurs",
		},
		RegulatoryCompliance: map[string]string{
			"personal_use":     "Full U.S. feed available for non-industry professionals",
			"business_clients": "Tailored plans with specific exchange licensing",
			"monitoring":       "Close compliance monitoring for appropriate usage",
		},
		MarketHours: map[string]string{
			"pre_market":       "4:00 AM - 9:30 AM ET",
			"regular_market":   "9:30 AM - 4:00 PM ET",
			"after_hours":      "4:00 PM - 8:00 PM ET",
			"timestamp_format": "Unix timestamps (UTC)",
		},
	}
}

// Exchange describes one exchange group.
type Exchange struct {
	Name    string   `json:"name"`
	Symbols []string `json:"symbols,omitempty"`
}

// ReportingSource describes a non-exchange trade reporting facility.
type ReportingSource struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Facilities  []string `json:"facilities,omitempty"`
}

// ExchangeInfo is the static reference of U.S. exchanges Polygon covers.
type ExchangeInfo struct {
	MajorExchanges    []Exchange        `json:"major_exchanges"`
	AdditionalSources []ReportingSource `json:"additional_sources"`
	TotalCoverage     string            `json:"total_coverage"`
	DataQuality       string            `json:"data_quality"`
}

// Exchanges returns the static exchange coverage reference.
func Exchanges() ExchangeInfo {
	return ExchangeInfo{
		MajorExchanges: []Exchange{
			{Name: "New York Stock Exchange", Symbols: []string{"NYSE", "NYSE American", "NYSE Arca", "NYSE Chicago", "NYSE National"}},
			{Name: "Nasdaq", Symbols: []string{"OMX", "BX", "PSX", "Philadelphia"}},
			{Name: "Cboe Global Markets", Symbols: []string{"BZX", "BYX", "EDGX", "EDGA"}},
			{Name: "MIAX Exchange Group", Symbols: []string{"Pearl", "Emerald", "Equities"}},
			{Name: "Members Exchange", Symbols: []string{"MEMX"}},
			{Name: "Investors Exchange", Symbols: []string{"IEX"}},
			{Name: "Long-Term Stock Exchange", Symbols: []string{"LTSE"}},
		},
		AdditionalSources: []ReportingSource{
			{
				Name:        "FINRA Trading Facilities",
				Description: "Provides trade reporting but not quotes",
				Facilities:  []string{"FINRA NYSE TRF", "FINRA Nasdaq TRF Carteret", "FINRA Nasdaq TRF Chicago"},
			},
			{
				Name:        "OTC Reporting Facility",
				Description: "Captures OTC trades but not quotes",
			},
		},
		TotalCoverage: "19 major stock exchanges + dark pools + FINRA + OTC",
		DataQuality:   "Direct exchange feeds + SIP consolidation for accuracy",
	}
}
