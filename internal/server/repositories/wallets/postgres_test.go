package wallets

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/shopspring/decimal"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var walletCols = []string{"id", "user_id", "coin", "balance", "updated_at"}

func TestListByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)SELECT\s+id,\s*user_id,\s*coin,\s*balance,\s*updated_at\s+FROM\s+wallets\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+coin`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(walletCols).
			AddRow("w1", "u1", "BTC", "0.5", now).
			AddRow("w2", "u1", "ETH", "2.25", now))

	got, err := repo.ListByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if len(got) != 2 || got[0].Coin != "BTC" || !got[1].Balance.Equal(decimal.RequireFromString("2.25")) {
		t.Fatalf("unexpected wallets: %+v", got)
	}
}

func TestListByUser_ScanError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+wallets`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(walletCols).AddRow("w1", "u1", "BTC", "not-a-number", time.Now()))

	if _, err := repo.ListByUser(context.Background(), "u1"); err == nil {
		t.Fatal("expected scan error")
	}
}

func TestGetForUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)FROM\s+wallets\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+coin\s*=\s*\$2\s+FOR\s+UPDATE`
	mock.ExpectQuery(q).
		WithArgs("u1", "BTC").
		WillReturnRows(sqlmock.NewRows(walletCols).AddRow("w1", "u1", "BTC", "1.0", time.Now()))
	mock.ExpectQuery(q).
		WithArgs("u1", "SOL").
		WillReturnError(sql.ErrNoRows)

	w, err := repo.GetForUpdate(context.Background(), "u1", "BTC")
	if err != nil {
		t.Fatalf("GetForUpdate error: %v", err)
	}
	if w.ID != "w1" || !w.Balance.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("unexpected wallet: %+v", w)
	}

	if _, err := repo.GetForUpdate(context.Background(), "u1", "SOL"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestInsert(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)INSERT\s+INTO\s+wallets\s*\(user_id,\s*coin,\s*balance\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*ON\s+CONFLICT\s*\(user_id,\s*coin\)\s*DO\s+NOTHING\s+RETURNING\s+id,\s*updated_at`
	bal := decimal.RequireFromString("0.5")

	mock.ExpectQuery(q).
		WithArgs("u1", "BTC", bal).
		WillReturnRows(sqlmock.NewRows([]string{"id", "updated_at"}).AddRow("w9", time.Now()))
	mock.ExpectQuery(q).
		WithArgs("u1", "BTC", bal).
		WillReturnRows(sqlmock.NewRows([]string{"id", "updated_at"}))

	w, err := repo.Insert(context.Background(), "u1", "BTC", bal)
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if w.ID != "w9" || w.Coin != "BTC" || !w.Balance.Equal(bal) {
		t.Fatalf("unexpected wallet: %+v", w)
	}

	if _, err := repo.Insert(context.Background(), "u1", "BTC", bal); !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want common.ErrorConflict, got %v", err)
	}
}

func TestUpdateBalance(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)UPDATE\s+wallets\s+SET\s+balance\s*=\s*\$2,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1`
	mock.ExpectExec(q).
		WithArgs("w1", decimal.RequireFromString("0.7")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).
		WithArgs("w2", decimal.Zero).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q).
		WithArgs("w3", decimal.Zero).
		WillReturnError(errors.New("db down"))

	if err := repo.UpdateBalance(context.Background(), "w1", decimal.RequireFromString("0.7")); err != nil {
		t.Fatalf("UpdateBalance error: %v", err)
	}
	if err := repo.UpdateBalance(context.Background(), "w2", decimal.Zero); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
	if err := repo.UpdateBalance(context.Background(), "w3", decimal.Zero); err == nil {
		t.Fatal("expected error")
	}
}
