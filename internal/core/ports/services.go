package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=services.go -destination=mocks/services_mock.go -package=mocks

// WalletStore is the single gate for wallet balance state. AdjustBalance is
// the only balance-mutation path in the system; every deposit, transfer leg
// and reversal leg goes through it so the non-negativity invariant is
// enforced in one place.
type WalletStore interface {
	// CreateForOwner initializes an active wallet with a zero balance.
	CreateForOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	// GetByOwner returns the owner's active wallet (non-locking read).
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	// LockByOwner fetches the owner's active wallet with a pessimistic row
	// lock. Must be called inside a unit of work.
	LockByOwner(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error)
	// AdjustBalance applies a signed delta to a wallet balance inside the
	// given unit of work, enforcing the inactive-wallet, insufficient-funds
	// and corrupt-state guards. Returns the updated wallet.
	AdjustBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, delta decimal.Decimal) (*domain.Wallet, error)
	// Deactivate marks a wallet inactive. Idempotent.
	Deactivate(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) error
}

// LedgerService orchestrates deposits, transfers and reversals. Each
// operation either fully succeeds (record completed, balances updated) or
// fully fails with nothing changed.
type LedgerService interface {
	Deposit(ctx context.Context, req DepositRequest) (*domain.Transaction, error)
	Transfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error)
	Reverse(ctx context.Context, req ReverseRequest) (*domain.Transaction, error)
	GetBalance(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, ownerID uuid.UUID) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
}

// DepositRequest holds validated input for a deposit.
type DepositRequest struct {
	OwnerID     uuid.UUID
	Amount      decimal.Decimal
	Description string
}

// TransferRequest holds validated input for a transfer.
type TransferRequest struct {
	SenderID       uuid.UUID
	RecipientEmail string
	Amount         decimal.Decimal
	Description    string
}

// ReverseRequest holds validated input for reversing a prior transaction.
type ReverseRequest struct {
	TransactionID uuid.UUID
	Reason        string
}

// AuthService defines account registration, login and deactivation.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry, error
	// Deactivate soft-deletes the user and their wallet in one atomic unit.
	Deactivate(ctx context.Context, userID uuid.UUID) error
}

// RegisterRequest holds validated input for user registration.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, email string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
}

// IdempotencyCache replays previously completed responses keyed by a client
// supplied idempotency key. Lives at the HTTP boundary; the ledger core
// itself never retries or dedupes.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil, nil when absent
	SetInProgress(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
