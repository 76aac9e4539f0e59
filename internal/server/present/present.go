// Package present converts service results into wire messages shared by
// the gRPC and HTTP transports.
package present

import (
	"github.com/dmitrijs2005/cryptoex/internal/pricefeed"
	"github.com/dmitrijs2005/cryptoex/internal/server/auth"
	"github.com/dmitrijs2005/cryptoex/internal/server/models"
	"github.com/dmitrijs2005/cryptoex/internal/server/services"
	"github.com/dmitrijs2005/cryptoex/internal/wire"
)

func Tokens(p *services.TokenPair) wire.Tokens {
	return wire.Tokens{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken, State: p.State.String()}
}

func Session(p auth.Principal) wire.SessionInfo {
	return wire.SessionInfo{UserID: p.UserID, State: p.State.String()}
}

func Market(s *pricefeed.Set) wire.Market {
	out := wire.Market{
		Snapshots: make([]wire.Snapshot, 0, len(s.Snapshots)),
		FetchedAt: s.FetchedAt,
		Stale:     s.Stale,
		LastError: s.LastErr,
	}
	for _, sn := range s.Snapshots {
		out.Snapshots = append(out.Snapshots, wire.Snapshot{
			ID:               sn.ID,
			Symbol:           sn.Symbol,
			Name:             sn.Name,
			CurrentPrice:     sn.CurrentPrice,
			Change24hPercent: sn.Change24hPercent,
			MarketCapUSD:     sn.MarketCapUSD,
			ImageURL:         sn.ImageURL,
		})
	}
	return out
}

func Wallets(ws []models.Wallet) wire.Wallets {
	out := wire.Wallets{Wallets: make([]wire.Wallet, 0, len(ws))}
	for _, w := range ws {
		out.Wallets = append(out.Wallets, wire.Wallet{Coin: w.Coin, Balance: w.Balance, UpdatedAt: w.UpdatedAt})
	}
	return out
}

func Transaction(t models.Transaction) wire.Transaction {
	return wire.Transaction{
		ID:        t.ID,
		Type:      t.Type,
		Coin:      t.Coin,
		Amount:    t.Amount,
		PriceUSD:  t.PriceUSD,
		CreatedAt: t.CreatedAt,
	}
}

func Result(r *services.LedgerResult) wire.ActionResult {
	return wire.ActionResult{Transaction: Transaction(r.Transaction), Balance: r.Balance}
}

func History(txs []models.Transaction) wire.History {
	out := wire.History{Transactions: make([]wire.Transaction, 0, len(txs))}
	for _, t := range txs {
		out.Transactions = append(out.Transactions, Transaction(t))
	}
	return out
}

func Portfolio(p *services.Portfolio) wire.Portfolio {
	out := wire.Portfolio{
		Holdings:  make([]wire.Holding, 0, len(p.Holdings)),
		Total:     p.Total,
		Stale:     p.Stale,
		FetchedAt: p.FetchedAt,
	}
	for _, h := range p.Holdings {
		out.Holdings = append(out.Holdings, wire.Holding{
			Coin: h.Coin, Balance: h.Balance, Price: h.Price, Value: h.Value, Priced: h.Priced,
		})
	}
	return out
}

func Profile(p *services.Profile) wire.Profile {
	return wire.Profile{Email: p.Email, DisplayName: p.DisplayName}
}

func Statement(s *services.Statement) wire.Statement {
	return wire.Statement{Key: s.Key, URL: s.URL, Rows: s.Rows, ExpiresAt: s.ExpiresAt}
}
