package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("email already exists")
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) Deactivate(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user not found: %s", id)
	}
	u.Active = false
	return nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.OwnerID == ownerID && w.Active {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryWalletRepo) GetByOwnerIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error) {
	return r.GetByOwnerID(ctx, ownerID)
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	w.Balance = balance
	return nil
}

func (r *inMemoryWalletRepo) Deactivate(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	w.Active = false
	return nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.transactions[t.ID] = &cp
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.transactions {
		if t.Involves(userID) {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *inMemoryTransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.TransactionStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	return true, nil
}

func (r *inMemoryTransactionRepo) HasReversal(ctx context.Context, originalID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.transactions {
		if t.Type == domain.TransactionTypeReversal &&
			t.RelatedTransactionID != nil && *t.RelatedTransactionID == originalID {
			return true, nil
		}
	}
	return false, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes units of work behind a single mutex, standing
// in for row-level locks, and snapshots the stores at Begin so a Rollback
// restores them. Writes made outside a unit of work while one is open would
// be lost on rollback; the suite never does that. The service layer calls
// Rollback via defer even after a Commit, so release happens exactly once.
type inMemoryTransactor struct {
	mu      sync.Mutex
	users   *inMemoryUserRepo
	wallets *inMemoryWalletRepo
	txns    *inMemoryTransactionRepo
}

func newInMemoryTransactor(users *inMemoryUserRepo, wallets *inMemoryWalletRepo, txns *inMemoryTransactionRepo) *inMemoryTransactor {
	return &inMemoryTransactor{users: users, wallets: wallets, txns: txns}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	users := t.users.snapshot()
	wallets := t.wallets.snapshot()
	txns := t.txns.snapshot()
	return &memTx{
		release: &t.mu,
		restore: func() {
			t.users.restore(users)
			t.wallets.restore(wallets)
			t.txns.restore(txns)
		},
	}, nil
}

func (r *inMemoryUserRepo) snapshot() map[uuid.UUID]domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := make(map[uuid.UUID]domain.User, len(r.users))
	for id, u := range r.users {
		snap[id] = *u
	}
	return snap
}

func (r *inMemoryUserRepo) restore(snap map[uuid.UUID]domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = make(map[uuid.UUID]*domain.User, len(snap))
	for id, u := range snap {
		cp := u
		r.users[id] = &cp
	}
}

func (r *inMemoryWalletRepo) snapshot() map[uuid.UUID]domain.Wallet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := make(map[uuid.UUID]domain.Wallet, len(r.wallets))
	for id, w := range r.wallets {
		snap[id] = *w
	}
	return snap
}

func (r *inMemoryWalletRepo) restore(snap map[uuid.UUID]domain.Wallet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets = make(map[uuid.UUID]*domain.Wallet, len(snap))
	for id, w := range snap {
		cp := w
		r.wallets[id] = &cp
	}
}

func (r *inMemoryTransactionRepo) snapshot() map[uuid.UUID]domain.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := make(map[uuid.UUID]domain.Transaction, len(r.transactions))
	for id, t := range r.transactions {
		snap[id] = *t
	}
	return snap
}

func (r *inMemoryTransactionRepo) restore(snap map[uuid.UUID]domain.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = make(map[uuid.UUID]*domain.Transaction, len(snap))
	for id, t := range snap {
		cp := t
		r.transactions[id] = &cp
	}
}

type memTx struct {
	release *sync.Mutex
	restore func()
	once    sync.Once
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *memTx) Commit(ctx context.Context) error {
	t.once.Do(t.release.Unlock)
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.once.Do(func() {
		t.restore()
		t.release.Unlock()
	})
	return nil
}
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }
