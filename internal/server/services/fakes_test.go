package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/dbx"
	"github.com/dmitrijs2005/cryptoex/internal/pricefeed"
	"github.com/dmitrijs2005/cryptoex/internal/server/events"
	"github.com/dmitrijs2005/cryptoex/internal/server/models"
	"github.com/dmitrijs2005/cryptoex/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/cryptoex/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/cryptoex/internal/server/repositories/transactions"
	"github.com/dmitrijs2005/cryptoex/internal/server/repositories/users"
	"github.com/dmitrijs2005/cryptoex/internal/server/repositories/wallets"
	"github.com/shopspring/decimal"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// memDB is an in-memory stand-in for all repositories. Writes are not
// rolled back with the sql transaction; tests assert on what was attempted.
type memDB struct {
	mu       sync.Mutex
	seq      int
	users    map[string]*models.User
	gens     map[string]int64
	profiles map[string]*models.Profile
	tokens   map[string]*models.RefreshToken
	wallets  map[string]*models.Wallet
	txs      []models.Transaction

	userCreateErr   error
	userGetErr      error
	profileErr      error
	tokenCreateErr  error
	tokenFindErr    error
	tokenDeleteErr  error
	walletGetErr    error
	walletInsertErr error
	walletUpdateErr error
	txCreateErr     error
	txListErr       error
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[string]*models.User{},
		gens:     map[string]int64{},
		profiles: map[string]*models.Profile{},
		tokens:   map[string]*models.RefreshToken{},
		wallets:  map[string]*models.Wallet{},
	}
}

func (m *memDB) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

func walletKey(userID, coin string) string { return userID + "/" + coin }

func (m *memDB) addWallet(userID, coin, balance string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[walletKey(userID, coin)] = &models.Wallet{
		ID: m.nextID("w"), UserID: userID, Coin: coin, Balance: decimal.RequireFromString(balance),
	}
}

// addUser registers a bare account so session operations can find it.
func (m *memDB) addUser(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = &models.User{ID: id, Email: id + "@example.com", CreatedAt: time.Now()}
}

func (m *memDB) wallet(userID, coin string) *models.Wallet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wallets[walletKey(userID, coin)]
}

// --- users ---

type memUsers struct{ m *memDB }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.userCreateErr != nil {
		return nil, r.m.userCreateErr
	}
	for _, existing := range r.m.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = r.m.nextID("u")
	u.CreatedAt = time.Now()
	cp := *u
	r.m.users[u.ID] = &cp
	return u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.userGetErr != nil {
		return nil, r.m.userGetErr
	}
	for _, u := range r.m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.userGetErr != nil {
		return nil, r.m.userGetErr
	}
	u, ok := r.m.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) TokenGeneration(_ context.Context, id string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.userGetErr != nil {
		return 0, r.m.userGetErr
	}
	if _, ok := r.m.users[id]; !ok {
		return 0, common.ErrorNotFound
	}
	return r.m.gens[id], nil
}

func (r memUsers) BumpTokenGeneration(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.userGetErr != nil {
		return r.m.userGetErr
	}
	if _, ok := r.m.users[id]; !ok {
		return common.ErrorNotFound
	}
	r.m.gens[id]++
	return nil
}

// --- profiles ---

type memProfiles struct{ m *memDB }

func (r memProfiles) Create(_ context.Context, p *models.Profile) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.profileErr != nil {
		return r.m.profileErr
	}
	cp := *p
	r.m.profiles[p.UserID] = &cp
	return nil
}

func (r memProfiles) Get(_ context.Context, userID string) (*models.Profile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.profileErr != nil {
		return nil, r.m.profileErr
	}
	p, ok := r.m.profiles[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memProfiles) UpdateDisplayName(_ context.Context, userID, name string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.profileErr != nil {
		return r.m.profileErr
	}
	p, ok := r.m.profiles[userID]
	if !ok {
		return common.ErrorNotFound
	}
	p.DisplayName = name
	return nil
}

func (r memProfiles) UpdatePin(_ context.Context, userID string, hash []byte) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.profiles[userID]
	if !ok {
		return common.ErrorNotFound
	}
	p.PinHash = hash
	return nil
}

// --- refresh tokens ---

type memTokens struct{ m *memDB }

func (r memTokens) Create(_ context.Context, userID, token string, verified bool, validity time.Duration) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.tokenCreateErr != nil {
		return r.m.tokenCreateErr
	}
	r.m.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Verified: verified, Expires: time.Now().Add(validity)}
	return nil
}

func (r memTokens) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.tokenFindErr != nil {
		return nil, r.m.tokenFindErr
	}
	t, ok := r.m.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (r memTokens) Delete(_ context.Context, token string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.tokenDeleteErr != nil {
		return r.m.tokenDeleteErr
	}
	delete(r.m.tokens, token)
	return nil
}

func (r memTokens) DeleteByUser(_ context.Context, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.tokenDeleteErr != nil {
		return r.m.tokenDeleteErr
	}
	for k, t := range r.m.tokens {
		if t.UserID == userID {
			delete(r.m.tokens, k)
		}
	}
	return nil
}

// --- wallets ---

type memWallets struct{ m *memDB }

func (r memWallets) ListByUser(_ context.Context, userID string) ([]models.Wallet, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.walletGetErr != nil {
		return nil, r.m.walletGetErr
	}
	var out []models.Wallet
	for _, w := range r.m.wallets {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Coin < out[j].Coin })
	return out, nil
}

func (r memWallets) GetForUpdate(_ context.Context, userID, coin string) (*models.Wallet, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.walletGetErr != nil {
		return nil, r.m.walletGetErr
	}
	w, ok := r.m.wallets[walletKey(userID, coin)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *w
	return &cp, nil
}

func (r memWallets) Insert(_ context.Context, userID, coin string, balance decimal.Decimal) (*models.Wallet, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.walletInsertErr != nil {
		return nil, r.m.walletInsertErr
	}
	if _, ok := r.m.wallets[walletKey(userID, coin)]; ok {
		return nil, common.ErrorConflict
	}
	w := &models.Wallet{ID: r.m.nextID("w"), UserID: userID, Coin: coin, Balance: balance}
	r.m.wallets[walletKey(userID, coin)] = w
	cp := *w
	return &cp, nil
}

func (r memWallets) UpdateBalance(_ context.Context, id string, balance decimal.Decimal) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.walletUpdateErr != nil {
		return r.m.walletUpdateErr
	}
	for _, w := range r.m.wallets {
		if w.ID == id {
			w.Balance = balance
			return nil
		}
	}
	return common.ErrorNotFound
}

// --- transactions ---

type memTxs struct{ m *memDB }

func (r memTxs) Create(_ context.Context, t *models.Transaction) (*models.Transaction, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.txCreateErr != nil {
		return nil, r.m.txCreateErr
	}
	t.ID = r.m.nextID("t")
	t.CreatedAt = time.Date(2024, 5, 1, 12, 0, r.m.seq, 0, time.UTC)
	r.m.txs = append(r.m.txs, *t)
	return t, nil
}

func (r memTxs) ListByUser(_ context.Context, userID string, limit int) ([]models.Transaction, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.txListErr != nil {
		return nil, r.m.txListErr
	}
	var out []models.Transaction
	for i := len(r.m.txs) - 1; i >= 0; i-- {
		if r.m.txs[i].UserID == userID {
			out = append(out, r.m.txs[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// --- manager ---

type memRepoManager struct{ m *memDB }

func (rm memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (rm memRepoManager) Users(dbx.DBTX) users.Repository             { return memUsers{rm.m} }
func (rm memRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return memTokens{rm.m}
}
func (rm memRepoManager) Profiles(dbx.DBTX) profiles.Repository         { return memProfiles{rm.m} }
func (rm memRepoManager) Wallets(dbx.DBTX) wallets.Repository           { return memWallets{rm.m} }
func (rm memRepoManager) Transactions(dbx.DBTX) transactions.Repository { return memTxs{rm.m} }

type fixedPrices struct{ set *pricefeed.Set }

func (f fixedPrices) Current() *pricefeed.Set { return f.set }

func priceSet(stale bool, kv ...string) *pricefeed.Set {
	s := &pricefeed.Set{FetchedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), Stale: stale}
	for i := 0; i+1 < len(kv); i += 2 {
		s.Snapshots = append(s.Snapshots, pricefeed.Snapshot{Symbol: kv[i], CurrentPrice: decimal.RequireFromString(kv[i+1])})
	}
	return s
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type memStore struct {
	objects    map[string][]byte
	putErr     error
	presignErr error
}

func (s *memStore) Put(_ context.Context, key, _ string, body []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[key] = body
	return nil
}

func (s *memStore) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return fmt.Sprintf("https://files.example/%s?ttl=%d", key, int(ttl.Seconds())), nil
}
