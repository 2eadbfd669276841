package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"kobo/internal/models"
	"kobo/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWalletRepo models the storage collaborator: per-wallet mutexes stand
// in for row locks, and ExecuteInTransaction stages writes that are only
// applied on a nil error, so rollback behaviour is observable.
type fakeWalletRepo struct {
	mu       sync.Mutex
	wallets  map[string]*models.Wallet
	txns     []models.Transaction
	rowLocks map[string]*sync.Mutex
	nextID   uint

	insertCalls      int
	failInsertAtCall int
	lockCallCount    int
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{
		wallets:  make(map[string]*models.Wallet),
		rowLocks: make(map[string]*sync.Mutex),
	}
}

func walletKey(userID uint, currency string) string {
	return fmt.Sprintf("%d:%s", userID, currency)
}

func (f *fakeWalletRepo) addWallet(userID uint, currency, balance string) {
	key := walletKey(userID, currency)
	f.wallets[key] = &models.Wallet{
		UserID:   userID,
		Currency: currency,
		Balance:  decimal.RequireFromString(balance),
	}
	f.rowLocks[key] = &sync.Mutex{}
}

func (f *fakeWalletRepo) balance(userID uint, currency string) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wallets[walletKey(userID, currency)].Balance
}

func (f *fakeWalletRepo) transactions() []models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Transaction, len(f.txns))
	copy(out, f.txns)
	return out
}

func (f *fakeWalletRepo) CreateBatch(wallets []*models.Wallet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range wallets {
		key := walletKey(w.UserID, w.Currency)
		if _, exists := f.wallets[key]; exists {
			return repositories.ErrDuplicateWallet
		}
		cp := *w
		f.wallets[key] = &cp
		f.rowLocks[key] = &sync.Mutex{}
	}
	return nil
}

func (f *fakeWalletRepo) GetByUserAndCurrency(userID uint, currency string) (*models.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[walletKey(userID, currency)]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWalletRepo) GetAllByUser(userID uint) ([]models.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Wallet
	for _, w := range f.wallets {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeWalletRepo) LockForUpdate(uint, string) (*models.Wallet, error) {
	panic("LockForUpdate outside a transaction")
}

func (f *fakeWalletRepo) Save(*models.Wallet) error {
	panic("Save outside a transaction")
}

func (f *fakeWalletRepo) CreateTransaction(*models.Transaction) error {
	panic("CreateTransaction outside a transaction")
}

func (f *fakeWalletRepo) FindTransactionByReference(reference string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.txns {
		if f.txns[i].Reference == reference {
			cp := f.txns[i]
			return &cp, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (f *fakeWalletRepo) ExecuteInTransaction(fn func(tx repositories.WalletRepository) error) error {
	tx := &fakeWalletTx{repo: f, staged: make(map[string]*models.Wallet)}
	err := fn(tx)
	if err == nil {
		tx.commit()
	}
	tx.release()
	return err
}

type fakeWalletTx struct {
	repo    *fakeWalletRepo
	held    []*sync.Mutex
	staged  map[string]*models.Wallet
	newTxns []models.Transaction
}

func (t *fakeWalletTx) LockForUpdate(userID uint, currency string) (*models.Wallet, error) {
	key := walletKey(userID, currency)

	t.repo.mu.Lock()
	lock, ok := t.repo.rowLocks[key]
	t.repo.lockCallCount++
	t.repo.mu.Unlock()
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}

	lock.Lock() // blocks like SELECT ... FOR UPDATE
	t.held = append(t.held, lock)

	t.repo.mu.Lock()
	cp := *t.repo.wallets[key]
	t.repo.mu.Unlock()

	t.staged[key] = &cp
	return &cp, nil
}

func (t *fakeWalletTx) Save(wallet *models.Wallet) error {
	t.staged[walletKey(wallet.UserID, wallet.Currency)] = wallet
	return nil
}

func (t *fakeWalletTx) CreateTransaction(txn *models.Transaction) error {
	t.repo.mu.Lock()
	t.repo.insertCalls++
	fail := t.repo.failInsertAtCall != 0 && t.repo.insertCalls == t.repo.failInsertAtCall
	t.repo.nextID++
	txn.ID = t.repo.nextID
	t.repo.mu.Unlock()

	if fail {
		return errors.New("insert failed")
	}
	txn.CreatedAt = time.Now()
	t.newTxns = append(t.newTxns, *txn)
	return nil
}

func (t *fakeWalletTx) FindTransactionByReference(reference string) (*models.Transaction, error) {
	for i := range t.newTxns {
		if t.newTxns[i].Reference == reference {
			cp := t.newTxns[i]
			return &cp, nil
		}
	}
	return t.repo.FindTransactionByReference(reference)
}

func (t *fakeWalletTx) CreateBatch(wallets []*models.Wallet) error {
	return t.repo.CreateBatch(wallets)
}

func (t *fakeWalletTx) GetByUserAndCurrency(userID uint, currency string) (*models.Wallet, error) {
	return t.repo.GetByUserAndCurrency(userID, currency)
}

func (t *fakeWalletTx) GetAllByUser(userID uint) ([]models.Wallet, error) {
	return t.repo.GetAllByUser(userID)
}

func (t *fakeWalletTx) ExecuteInTransaction(fn func(tx repositories.WalletRepository) error) error {
	return fn(t)
}

func (t *fakeWalletTx) commit() {
	t.repo.mu.Lock()
	for key, w := range t.staged {
		*t.repo.wallets[key] = *w
	}
	t.repo.txns = append(t.repo.txns, t.newTxns...)
	t.repo.mu.Unlock()
}

func (t *fakeWalletTx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i].Unlock()
	}
}

type fakeCache struct {
	mu            sync.Mutex
	invalidations int
}

func (f *fakeCache) GetWallet(context.Context, uint, string) (*models.Wallet, error) {
	return nil, errors.New("cache miss")
}
func (f *fakeCache) SetWallet(context.Context, *models.Wallet) error { return nil }
func (f *fakeCache) GetWallets(context.Context, uint) ([]models.Wallet, error) {
	return nil, errors.New("cache miss")
}
func (f *fakeCache) SetWallets(context.Context, uint, []models.Wallet) error { return nil }
func (f *fakeCache) InvalidateWallets(context.Context, uint, ...string) error {
	f.mu.Lock()
	f.invalidations++
	f.mu.Unlock()
	return nil
}

func newTestService(t *testing.T, repo *fakeWalletRepo) Service {
	t.Helper()
	provider := &stubProvider{quote: testQuote(time.Now().Add(30 * time.Minute))}
	rates := NewRateCache(provider, "NGN", testCurrencies, nil, nil)
	return NewService(repo, &fakeCache{}, rates, "NGN", nil, nil)
}

func TestConvert_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		from    string
		to      string
		wantErr error
	}{
		{"same currency", "100", "USD", "USD", ErrSameCurrency},
		{"foreign to foreign", "100", "USD", "EUR", ErrBaseCurrencyRoute},
		{"zero amount", "0", "NGN", "USD", ErrInvalidAmount},
		{"negative amount", "-5", "NGN", "USD", ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeWalletRepo()
			repo.addWallet(1, "NGN", "1000")
			repo.addWallet(1, "USD", "0")
			svc := newTestService(t, repo)

			_, err := svc.Convert(context.Background(), 1, ConvertRequest{
				Amount:       decimal.RequireFromString(tt.amount),
				FromCurrency: tt.from,
				ToCurrency:   tt.to,
			})

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, repo.lockCallCount, "precondition failures must not touch storage")
			assert.Empty(t, repo.transactions())
		})
	}
}

func TestConvert_BaseToForeign(t *testing.T) {
	repo := newFakeWalletRepo()
	repo.addWallet(1, "NGN", "10000")
	repo.addWallet(1, "USD", "0")
	svc := newTestService(t, repo)

	credit, err := svc.Convert(context.Background(), 1, ConvertRequest{
		Amount:       decimal.NewFromInt(5000),
		FromCurrency: "NGN",
		ToCurrency:   "USD",
	})
	require.NoError(t, err)

	// round(5000 * 0.0012, 2) = 6.00
	assert.Equal(t, "USD", credit.Currency)
	assert.True(t, credit.Amount.Equal(decimal.RequireFromString("6")), "got %s", credit.Amount)
	assert.Equal(t, models.TransactionStatusCompleted, credit.Status)

	assert.True(t, repo.balance(1, "NGN").Equal(decimal.NewFromInt(5000)))
	assert.True(t, repo.balance(1, "USD").Equal(decimal.RequireFromString("6")))

	txns := repo.transactions()
	require.Len(t, txns, 2, "a conversion writes exactly two records")

	debit := txns[0]
	assert.Equal(t, "NGN", debit.Currency)
	assert.True(t, debit.Amount.Equal(decimal.NewFromInt(-5000)))
	assert.Equal(t, debit.Reference, credit.Reference, "legs share one correlation reference")
	assert.NotEmpty(t, credit.Reference)
	assert.Equal(t, models.TransactionTypeConversion, debit.Type)
	assert.Contains(t, debit.Description, "NGN")
	assert.Contains(t, debit.Description, "USD")
}

func TestConvert_ForeignToBase(t *testing.T) {
	repo := newFakeWalletRepo()
	repo.addWallet(1, "NGN", "0")
	repo.addWallet(1, "USD", "12")
	svc := newTestService(t, repo)

	credit, err := svc.Convert(context.Background(), 1, ConvertRequest{
		Amount:       decimal.NewFromInt(6),
		FromCurrency: "USD",
		ToCurrency:   "NGN",
	})
	require.NoError(t, err)

	// round(6 * 1/0.0012, 2) = 5000.00
	assert.True(t, credit.Amount.Equal(decimal.NewFromInt(5000)), "got %s", credit.Amount)
	assert.True(t, repo.balance(1, "USD").Equal(decimal.NewFromInt(6)))
	assert.True(t, repo.balance(1, "NGN").Equal(decimal.NewFromInt(5000)))
}

func TestConvert_InsufficientFunds(t *testing.T) {
	repo := newFakeWalletRepo()
	repo.addWallet(1, "NGN", "100")
	repo.addWallet(1, "USD", "0")
	svc := newTestService(t, repo)

	_, err := svc.Convert(context.Background(), 1, ConvertRequest{
		Amount:       decimal.NewFromInt(500),
		FromCurrency: "NGN",
		ToCurrency:   "USD",
	})

	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.True(t, repo.balance(1, "NGN").Equal(decimal.NewFromInt(100)), "balances unchanged")
	assert.True(t, repo.balance(1, "USD").Equal(decimal.Zero))
	assert.Empty(t, repo.transactions(), "no records on rejection")
}

func TestConvert_MissingWalletIsIntegrityError(t *testing.T) {
	repo := newFakeWalletRepo()
	repo.addWallet(1, "NGN", "1000")
	svc := newTestService(t, repo)

	_, err := svc.Convert(context.Background(), 1, ConvertRequest{
		Amount:       decimal.NewFromInt(10),
		FromCurrency: "NGN",
		ToCurrency:   "USD",
	})
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestConvert_RollsBackWhenCreditLegInsertFails(t *testing.T) {
	repo := newFakeWalletRepo()
	repo.addWallet(1, "NGN", "10000")
	repo.addWallet(1, "USD", "0")
	repo.failInsertAtCall = 2
	svc := newTestService(t, repo)

	_, err := svc.Convert(context.Background(), 1, ConvertRequest{
		Amount:       decimal.NewFromInt(5000),
		FromCurrency: "NGN",
		ToCurrency:   "USD",
	})

	assert.ErrorIs(t, err, ErrConversionFailed, "post-open failures surface generically")
	assert.True(t, repo.balance(1, "NGN").Equal(decimal.NewFromInt(10000)), "debit rolled back")
	assert.True(t, repo.balance(1, "USD").Equal(decimal.Zero), "credit rolled back")
	assert.Empty(t, repo.transactions(), "no partial leg persisted")
}

func TestConvert_OppositeDirectionsDoNotDeadlock(t *testing.T) {
	repo := newFakeWalletRepo()
	repo.addWallet(1, "NGN", "10000")
	repo.addWallet(1, "USD", "12")
	svc := newTestService(t, repo)

	var wg sync.WaitGroup
	run := func(req ConvertRequest) {
		defer wg.Done()
		_, err := svc.Convert(context.Background(), 1, req)
		assert.NoError(t, err)
	}

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go run(ConvertRequest{Amount: decimal.NewFromInt(100), FromCurrency: "NGN", ToCurrency: "USD"})
		go run(ConvertRequest{Amount: decimal.RequireFromString("0.12"), FromCurrency: "USD", ToCurrency: "NGN"})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("conversions deadlocked")
	}

	// 10 × (−100 NGN, +0.12 USD) and 10 × (−0.12 USD, +100 NGN): both
	// directions convert exactly at 0.0012, so the net change is zero.
	assert.True(t, repo.balance(1, "NGN").Equal(decimal.NewFromInt(10000)), "got %s", repo.balance(1, "NGN"))
	assert.True(t, repo.balance(1, "USD").Equal(decimal.NewFromInt(12)), "got %s", repo.balance(1, "USD"))
	assert.Len(t, repo.transactions(), 40)
}

func TestGetRates_PropagatesUnavailability(t *testing.T) {
	repo := newFakeWalletRepo()
	provider := &stubProvider{err: errors.New("provider down")}
	rates := NewRateCache(provider, "NGN", testCurrencies, nil, nil)
	svc := NewService(repo, &fakeCache{}, rates, "NGN", nil, nil)

	_, err := svc.GetRates(context.Background())
	assert.ErrorIs(t, err, ErrRatesUnavailable)

	_, err = svc.Convert(context.Background(), 1, ConvertRequest{
		Amount:       decimal.NewFromInt(10),
		FromCurrency: "NGN",
		ToCurrency:   "USD",
	})
	assert.ErrorIs(t, err, ErrRatesUnavailable, "conversion cannot proceed without rates")
}
