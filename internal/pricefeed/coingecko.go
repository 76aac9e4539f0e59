package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Fetcher returns the current snapshots for the tracked assets.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Snapshot, error)
}

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// DefaultIDs are the assets shown in the market table.
var DefaultIDs = []string{"bitcoin", "ethereum", "crypto-com-chain", "solana"}

// CoinGeckoClient reads the /coins/markets endpoint.
type CoinGeckoClient struct {
	baseURL string
	ids     []string
	http    *http.Client
}

func NewCoinGeckoClient(baseURL string, ids []string, timeout time.Duration) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if len(ids) == 0 {
		ids = DefaultIDs
	}
	return &CoinGeckoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		ids:     ids,
		http:    &http.Client{Timeout: timeout},
	}
}

type marketRow struct {
	ID                       string           `json:"id"`
	Symbol                   string           `json:"symbol"`
	Name                     string           `json:"name"`
	CurrentPrice             *decimal.Decimal `json:"current_price"`
	PriceChangePercentage24h *decimal.Decimal `json:"price_change_percentage_24h"`
	MarketCap                *decimal.Decimal `json:"market_cap"`
	Image                    string           `json:"image"`
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func (c *CoinGeckoClient) Fetch(ctx context.Context) ([]Snapshot, error) {
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("ids", strings.Join(c.ids, ","))
	q.Set("order", "market_cap_desc")
	q.Set("sparkline", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/coins/markets?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch markets: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rows []marketRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode markets: %w", err)
	}

	out := make([]Snapshot, 0, len(rows))
	for _, r := range rows {
		out = append(out, Snapshot{
			ID:               r.ID,
			Symbol:           strings.ToUpper(r.Symbol),
			Name:             r.Name,
			CurrentPrice:     orZero(r.CurrentPrice),
			Change24hPercent: orZero(r.PriceChangePercentage24h),
			MarketCapUSD:     orZero(r.MarketCap),
			ImageURL:         r.Image,
		})
	}
	return out, nil
}
