package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Wallet is a balance of one coin.
type Wallet struct {
	Coin    string
	Balance decimal.Decimal
}

// Holding is a wallet valued at the current price. Priced is false when no
// price was known for the coin; Price and Value are zero then.
type Holding struct {
	Coin    string
	Balance decimal.Decimal
	Price   decimal.Decimal
	Value   decimal.Decimal
	Priced  bool
}

type Valuation struct {
	Holdings []Holding
	Total    decimal.Decimal
}

// ComputeHoldings values every wallet against prices (keyed by upper-case
// symbol). Wallets without a price are kept with a zero value. The result
// depends only on the arguments; holdings come back in input order.
func ComputeHoldings(wallets []Wallet, prices map[string]decimal.Decimal) Valuation {
	v := Valuation{
		Holdings: make([]Holding, 0, len(wallets)),
		Total:    decimal.Zero,
	}
	for _, w := range wallets {
		h := Holding{Coin: w.Coin, Balance: w.Balance, Price: decimal.Zero, Value: decimal.Zero}
		if p, ok := prices[w.Coin]; ok {
			h.Price = p
			h.Value = w.Balance.Mul(p)
			h.Priced = true
		}
		v.Total = v.Total.Add(h.Value)
		v.Holdings = append(v.Holdings, h)
	}
	return v
}

// SortByValue orders holdings by descending value, then by coin.
func SortByValue(hs []Holding) {
	sort.SliceStable(hs, func(i, j int) bool {
		if c := hs[i].Value.Cmp(hs[j].Value); c != 0 {
			return c > 0
		}
		return hs[i].Coin < hs[j].Coin
	})
}
