package wire

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status struct {
	Status string `json:"status"`
}

type Error struct {
	Error string `json:"error"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Tokens is returned by every call that opens or upgrades a session.
// State is one of "unverified" or "verified".
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	State        string `json:"state"`
}

type SessionInfo struct {
	UserID string `json:"user_id"`
	State  string `json:"state"`
}

type PinRequest struct {
	Pin string `json:"pin"`
}

type Snapshot struct {
	ID               string          `json:"id"`
	Symbol           string          `json:"symbol"`
	Name             string          `json:"name"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	Change24hPercent decimal.Decimal `json:"change_24h_percent"`
	MarketCapUSD     decimal.Decimal `json:"market_cap_usd"`
	ImageURL         string          `json:"image_url,omitempty"`
}

type Market struct {
	Snapshots []Snapshot `json:"snapshots"`
	FetchedAt time.Time  `json:"fetched_at"`
	Stale     bool       `json:"stale"`
	LastError string     `json:"last_error,omitempty"`
}

type Wallet struct {
	Coin      string          `json:"coin"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Wallets struct {
	Wallets []Wallet `json:"wallets"`
}

// ActionRequest asks for one ledger action. Side is used by the HTTP trade
// endpoint ("buy" or "sell"); gRPC takes the kind from the method name.
type ActionRequest struct {
	Side   string `json:"side,omitempty"`
	Coin   string `json:"coin"`
	Amount string `json:"amount"`
}

type Transaction struct {
	ID        string              `json:"id"`
	Type      string              `json:"type"`
	Coin      string              `json:"coin"`
	Amount    decimal.Decimal     `json:"amount"`
	PriceUSD  decimal.NullDecimal `json:"price_usd"`
	CreatedAt time.Time           `json:"created_at"`
}

type ActionResult struct {
	Transaction Transaction     `json:"transaction"`
	Balance     decimal.Decimal `json:"balance"`
}

type Holding struct {
	Coin    string          `json:"coin"`
	Balance decimal.Decimal `json:"balance"`
	Price   decimal.Decimal `json:"price"`
	Value   decimal.Decimal `json:"value"`
	Priced  bool            `json:"priced"`
}

type Portfolio struct {
	Holdings  []Holding       `json:"holdings"`
	Total     decimal.Decimal `json:"total"`
	Stale     bool            `json:"stale"`
	FetchedAt time.Time       `json:"fetched_at"`
}

type HistoryRequest struct {
	Limit int `json:"limit"`
}

type History struct {
	Transactions []Transaction `json:"transactions"`
}

type Profile struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type DisplayNameRequest struct {
	DisplayName string `json:"display_name"`
}

type ChangePinRequest struct {
	Current string `json:"current"`
	New     string `json:"new"`
	Confirm string `json:"confirm"`
}

type Statement struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Rows      int       `json:"rows"`
	ExpiresAt time.Time `json:"expires_at"`
}
