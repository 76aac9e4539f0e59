package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cryptoex/internal/dbx"
	"github.com/dmitrijs2005/cryptoex/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/cryptoex/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/cryptoex/internal/server/repositories/transactions"
	"github.com/dmitrijs2005/cryptoex/internal/server/repositories/users"
	"github.com/dmitrijs2005/cryptoex/internal/server/repositories/wallets"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same code with the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Wallets(db dbx.DBTX) wallets.Repository
	Transactions(db dbx.DBTX) transactions.Repository
}
