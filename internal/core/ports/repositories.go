package ports

import (
	"context"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=repositories.go -destination=mocks/repositories_mock.go -package=mocks

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Deactivate soft-deletes a user inside the given database transaction.
	Deactivate(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx run inside a transaction block; the ForUpdate
// variants take a pessimistic row lock so concurrent balance changes against
// the same wallet serialize.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	// GetByOwnerID returns the owner's active wallet, or nil if there is none.
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	GetByOwnerIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error
	Deactivate(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) error
}

// TransactionRepository defines persistence operations for transaction records.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// ListByParticipant returns every record where the user is sender or
	// receiver, newest first.
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error)
	// UpdateStatus advances a record from one status to another inside the
	// given database transaction. It reports false when no row matched the
	// expected current status, leaving the record untouched.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.TransactionStatus) (bool, error)
	// HasReversal reports whether any reversal record already references the
	// given transaction.
	HasReversal(ctx context.Context, originalID uuid.UUID) (bool, error)
}

// Transactor provides the atomic unit of work. Every ledger operation begins
// exactly one transaction and threads it through all store calls of that
// operation; the handle is never retained across operations.
type Transactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
