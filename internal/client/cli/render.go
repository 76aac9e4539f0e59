package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/wire"
)

const timeLayout = "2006-01-02 15:04:05"

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func renderMarket(w io.Writer, m wire.Market) {
	tw := table(w)
	fmt.Fprintln(tw, "SYMBOL\tNAME\tPRICE USD\t24H %\tMARKET CAP")
	for _, s := range m.Snapshots {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.Symbol, s.Name, s.CurrentPrice.StringFixed(2), s.Change24hPercent.StringFixed(2), s.MarketCapUSD.StringFixed(0))
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "fetched %s%s\n", when(m.FetchedAt), staleNote(m.Stale, m.LastError))
}

func renderWallets(w io.Writer, ws []wire.Wallet) {
	if len(ws) == 0 {
		fmt.Fprintln(w, "No wallets yet. Try: deposit <coin> <amount>")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "COIN\tBALANCE\tUPDATED")
	for _, wl := range ws {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", wl.Coin, wl.Balance.String(), when(wl.UpdatedAt))
	}
	_ = tw.Flush()
}

func renderPortfolio(w io.Writer, p wire.Portfolio) {
	tw := table(w)
	fmt.Fprintln(tw, "COIN\tBALANCE\tPRICE USD\tVALUE USD")
	for _, h := range p.Holdings {
		price, value := "n/a", "n/a"
		if h.Priced {
			price, value = h.Price.StringFixed(2), h.Value.StringFixed(2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.Coin, h.Balance.String(), price, value)
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t%s\n", p.Total.StringFixed(2))
	_ = tw.Flush()

	fmt.Fprintf(w, "prices from %s%s\n", when(p.FetchedAt), staleNote(p.Stale, ""))
}

func renderTransactions(w io.Writer, txs []wire.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(w, "No transactions.")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "TIME\tTYPE\tCOIN\tAMOUNT\tUSD")
	for _, t := range txs {
		usd := "-"
		if t.PriceUSD.Valid {
			usd = t.PriceUSD.Decimal.StringFixed(2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", when(t.CreatedAt), t.Type, t.Coin, t.Amount.String(), usd)
	}
	_ = tw.Flush()
}

func when(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(timeLayout)
}

func staleNote(stale bool, lastErr string) string {
	if !stale {
		return ""
	}
	if lastErr != "" {
		return " (stale: " + lastErr + ")"
	}
	return " (stale)"
}
