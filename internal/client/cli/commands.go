package cli

import (
	"github.com/dmitrijs2005/cryptoex/internal/ledger"
	"github.com/dmitrijs2005/cryptoex/internal/session"
)

func (a *App) commands() map[string]command {
	return map[string]command{
		"signup":  {screen: session.ScreenAuth, usage: "[email]  create an account", run: a.SignUp},
		"signin":  {screen: session.ScreenAuth, usage: "[email]  sign in", run: a.SignIn},
		"pin":     {screen: session.ScreenPin, usage: "verify the 6-digit PIN", run: a.VerifyPin},
		"session": {usage: "show the current session", run: a.Session},
		"signout": {usage: "end the session", run: a.SignOut},

		"market":  {screen: session.ScreenMarket, usage: "show market prices", run: a.Market},
		"refresh": {screen: session.ScreenMarket, usage: "fetch fresh market prices", run: a.Refresh},
		"watch":   {screen: session.ScreenMarket, usage: "[n]  show prices n times, refreshing periodically", run: a.Watch},
		"buy":     {screen: session.ScreenMarket, usage: "<coin> <amount>  buy at the market price", run: a.action(ledger.Buy)},
		"sell":    {screen: session.ScreenMarket, usage: "<coin> <amount>  sell at the market price", run: a.action(ledger.Sell)},

		"portfolio": {screen: session.ScreenDashboard, usage: "show holdings and their value", run: a.Portfolio},

		"wallets":  {screen: session.ScreenWallet, usage: "list wallets", run: a.Wallets},
		"deposit":  {screen: session.ScreenWallet, usage: "<coin> <amount>  add funds", run: a.action(ledger.Deposit)},
		"withdraw": {screen: session.ScreenWallet, usage: "<coin> <amount>  remove funds", run: a.action(ledger.Withdraw)},
		"history":  {screen: session.ScreenWallet, usage: "[limit]  list recent transactions", run: a.History},

		"profile":   {screen: session.ScreenSettings, usage: "show the profile", run: a.Profile},
		"name":      {screen: session.ScreenSettings, usage: "<display name>  change the display name", run: a.DisplayName},
		"changepin": {screen: session.ScreenSettings, usage: "rotate the PIN", run: a.ChangePin},
		"statement": {screen: session.ScreenSettings, usage: "export the transaction history as CSV [save]", run: a.Statement},
	}
}
