package ledger

import (
	"fmt"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/shopspring/decimal"
)

// Policy tunes how debits over the available balance are handled.
// The zero value clamps sells at zero and rejects withdrawals.
type Policy struct {
	// StrictSell makes an oversized sell fail like a withdrawal.
	StrictSell bool
}

// Check validates a request against the current balance before anything is
// written. Credits pass unless the balance would outgrow storage.
func (p Policy) Check(kind Kind, balance, amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if kind.Credits() {
		if balance.Add(amount).GreaterThanOrEqual(maxAmount) {
			return fmt.Errorf("%w: balance would reach %s", common.ErrorValidation, maxAmount)
		}
		return nil
	}
	if amount.LessThanOrEqual(balance) {
		return nil
	}
	if kind == Withdraw || (kind == Sell && p.StrictSell) {
		return fmt.Errorf("%w: have %s, need %s", common.ErrorInsufficientBalance, balance, amount)
	}
	return nil
}

// Next returns the balance after applying amount of kind to balance.
func (p Policy) Next(kind Kind, balance, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := p.Check(kind, balance, amount); err != nil {
		return decimal.Zero, err
	}
	switch kind {
	case Buy, Deposit:
		return balance.Add(amount), nil
	case Withdraw:
		return balance.Sub(amount), nil
	case Sell:
		next := balance.Sub(amount)
		if next.IsNegative() {
			return decimal.Zero, nil
		}
		return next, nil
	}
	return decimal.Zero, fmt.Errorf("%w: unknown action %q", common.ErrorValidation, kind)
}

// TradeValue is the USD value recorded for a trade of amount at price,
// rounded to ValueScale decimal places.
func TradeValue(amount, price decimal.Decimal) (decimal.Decimal, error) {
	v := amount.Mul(price).Round(ValueScale)
	if v.Abs().GreaterThanOrEqual(maxValue) {
		return decimal.Zero, fmt.Errorf("%w: trade value %s too large", common.ErrorValidation, v)
	}
	return v, nil
}
