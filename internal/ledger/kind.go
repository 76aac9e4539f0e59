// Package ledger holds the pure rules of the wallet ledger: action kinds,
// amount validation, balance transitions and holdings valuation. Storage
// and sequencing live in the server services.
package ledger

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/shopspring/decimal"
)

// Kind is the type of a ledger action.
type Kind string

const (
	Buy      Kind = "buy"
	Sell     Kind = "sell"
	Deposit  Kind = "deposit"
	Withdraw Kind = "withdraw"
)

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case Buy, Sell, Deposit, Withdraw:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", common.ErrorValidation, s)
}

// Credits reports whether the kind adds to the balance.
func (k Kind) Credits() bool {
	return k == Buy || k == Deposit
}

// Trade reports whether the kind is priced against the market.
func (k Kind) Trade() bool {
	return k == Buy || k == Sell
}

var coinRe = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// NormalizeCoin upper-cases a symbol and checks its shape.
func NormalizeCoin(s string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(s))
	if !coinRe.MatchString(c) {
		return "", fmt.Errorf("%w: bad coin %q", common.ErrorValidation, s)
	}
	return c, nil
}

// ParseAmount parses a decimal string and requires it to be positive.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a number", common.ErrorValidation, s)
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// Storage limits of amounts and balances (NUMERIC(38,18)) and of recorded
// USD values (NUMERIC(38,8)).
const (
	AmountScale = 18
	ValueScale  = 8
)

var (
	maxAmount = decimal.New(1, 38-AmountScale)
	maxValue  = decimal.New(1, 38-ValueScale)
)

// ValidateAmount rejects zero and negative amounts and amounts the ledger
// cannot store exactly.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", common.ErrorValidation)
	}
	if !d.Equal(d.Truncate(AmountScale)) {
		return fmt.Errorf("%w: amount has more than %d decimal places", common.ErrorValidation, AmountScale)
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: amount must be below %s", common.ErrorValidation, maxAmount)
	}
	return nil
}
