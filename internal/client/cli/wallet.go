package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/ledger"
)

func (a *App) Wallets(ctx context.Context, _ []string) error {
	ws, err := a.api.Wallets(ctx)
	if err := a.remote(ctx, err); err != nil {
		return err
	}
	renderWallets(a.out, ws)
	return nil
}

func (a *App) Portfolio(ctx context.Context, _ []string) error {
	p, err := a.api.Portfolio(ctx)
	if err := a.remote(ctx, err); err != nil {
		return err
	}
	renderPortfolio(a.out, p)
	return nil
}

// action returns the command running one ledger action of the given kind.
// Coin and amount are validated locally before the call.
func (a *App) action(kind ledger.Kind) func(ctx context.Context, args []string) error {
	return func(ctx context.Context, args []string) error {
		if len(args) != 2 {
			return fmt.Errorf("%w: usage: %s <coin> <amount>", common.ErrorValidation, kind)
		}
		coin, err := ledger.NormalizeCoin(args[0])
		if err != nil {
			return err
		}
		amount, err := ledger.ParseAmount(args[1])
		if err != nil {
			return err
		}

		res, err := a.api.Apply(ctx, kind, coin, amount)
		if err := a.remote(ctx, err); err != nil {
			return err
		}

		tx := res.Transaction
		fmt.Fprintf(a.out, "%s %s %s done", tx.Type, tx.Amount.String(), tx.Coin)
		if tx.PriceUSD.Valid {
			fmt.Fprintf(a.out, " for %s USD", tx.PriceUSD.Decimal.StringFixed(2))
		}
		fmt.Fprintf(a.out, ", balance %s %s\n", res.Balance.String(), tx.Coin)
		return nil
	}
}

func (a *App) History(ctx context.Context, args []string) error {
	limit := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return fmt.Errorf("%w: limit must be a non-negative number", common.ErrorValidation)
		}
		limit = n
	}

	txs, err := a.api.History(ctx, limit)
	if err := a.remote(ctx, err); err != nil {
		return err
	}
	renderTransactions(a.out, txs)
	return nil
}
