package service

import (
	"context"
	"fmt"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WalletServiceImpl implements ports.WalletStore. AdjustBalance is the only
// balance-mutation path in the system.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(walletRepo ports.WalletRepository, log zerolog.Logger) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		log:        log,
	}
}

// CreateForOwner initializes an active wallet with a zero balance.
func (s *WalletServiceImpl) CreateForOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	wallet := domain.NewWallet(ownerID)
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("owner_id", ownerID.String()).
		Msg("wallet created")

	return wallet, nil
}

// GetByOwner returns the owner's active wallet without locking it.
func (s *WalletServiceImpl) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// LockByOwner fetches the owner's active wallet under a pessimistic row lock.
// Must run inside the unit of work carried by tx.
func (s *WalletServiceImpl) LockByOwner(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByOwnerIDForUpdate(ctx, tx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// AdjustBalance applies a signed delta to the wallet inside the given unit of
// work. The row was already locked by the caller, but the read here re-fetches
// under the same lock so the computation never uses a stale balance.
func (s *WalletServiceImpl) AdjustBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, delta decimal.Decimal) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, tx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	if !wallet.Active {
		return nil, apperror.ErrInactiveWallet()
	}
	// A negative stored balance means a prior atomicity bug; surface it
	// rather than papering over it with a credit.
	if wallet.Balance.IsNegative() && delta.IsPositive() {
		return nil, apperror.ErrCorruptState(fmt.Sprintf("wallet %s has negative balance %s", wallet.ID, wallet.Balance))
	}
	if !wallet.CanApply(delta) {
		return nil, apperror.ErrInsufficientFunds()
	}

	newBalance := wallet.Balance.Add(delta).Round(2)
	if err := s.walletRepo.UpdateBalance(ctx, tx, wallet.ID, newBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	wallet.Balance = newBalance
	return wallet, nil
}

// Deactivate marks a wallet inactive. Idempotent.
func (s *WalletServiceImpl) Deactivate(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) error {
	if err := s.walletRepo.Deactivate(ctx, tx, walletID); err != nil {
		return apperror.InternalError(fmt.Errorf("deactivate wallet: %w", err))
	}
	return nil
}
