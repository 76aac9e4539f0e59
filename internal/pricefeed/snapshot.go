// Package pricefeed polls a market-data API and keeps the latest set of
// price snapshots available to readers.
package pricefeed

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the market state of one asset at fetch time.
type Snapshot struct {
	ID               string          `json:"id"`
	Symbol           string          `json:"symbol"`
	Name             string          `json:"name"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	Change24hPercent decimal.Decimal `json:"change_24h_percent"`
	MarketCapUSD     decimal.Decimal `json:"market_cap_usd"`
	ImageURL         string          `json:"image_url"`
}

// Set is an immutable result of one fetch. A stale set is the last good
// one, kept after a failed refresh; LastErr describes that failure.
type Set struct {
	Snapshots []Snapshot `json:"snapshots"`
	FetchedAt time.Time  `json:"fetched_at"`
	Stale     bool       `json:"stale"`
	LastErr   string     `json:"last_error,omitempty"`
}

// Prices maps symbol to current price.
func (s *Set) Prices() map[string]decimal.Decimal {
	if s == nil {
		return nil
	}
	m := make(map[string]decimal.Decimal, len(s.Snapshots))
	for _, sn := range s.Snapshots {
		m[sn.Symbol] = sn.CurrentPrice
	}
	return m
}

// Price returns the current price of symbol.
func (s *Set) Price(symbol string) (decimal.Decimal, bool) {
	if s == nil {
		return decimal.Zero, false
	}
	for _, sn := range s.Snapshots {
		if sn.Symbol == symbol {
			return sn.CurrentPrice, true
		}
	}
	return decimal.Zero, false
}

func (s *Set) markStale(err error) *Set {
	cp := *s
	cp.Stale = true
	cp.LastErr = err.Error()
	return &cp
}
