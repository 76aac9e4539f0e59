// Package cli provides the interactive CryptoEx terminal client.
//
// App wires configuration, the local session store, the gRPC client and
// the session gate, then runs a REPL. At startup the gate stays loading
// until the stored session has been checked with the server. Every command
// belongs to a screen and is only run when the gate routes that screen to
// render; otherwise the user is told where to go (sign in, PIN).
//
// Commands: signup, signin, pin, session, signout, market, refresh, watch,
// buy, sell, portfolio, wallets, deposit, withdraw, history, profile, name,
// changepin, statement, help, exit.
package cli
