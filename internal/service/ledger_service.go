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

// LedgerServiceImpl implements ports.LedgerService. Every mutating operation
// runs inside a single unit of work: record created pending, balances
// adjusted, record advanced to completed, then commit. Any failure rolls the
// whole unit back, so the transaction log and wallet balances never diverge.
type LedgerServiceImpl struct {
	walletStore ports.WalletStore
	txRepo      ports.TransactionRepository
	userRepo    ports.UserRepository
	transactor  ports.Transactor
	log         zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletStore ports.WalletStore,
	txRepo ports.TransactionRepository,
	userRepo ports.UserRepository,
	transactor ports.Transactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletStore: walletStore,
		txRepo:      txRepo,
		userRepo:    userRepo,
		transactor:  transactor,
		log:         log,
	}
}

// Deposit credits the owner's wallet and records a completed deposit.
func (s *LedgerServiceImpl) Deposit(ctx context.Context, req ports.DepositRequest) (*domain.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletStore.LockByOwner(ctx, dbTx, req.OwnerID)
	if err != nil {
		return nil, err
	}

	ownerID := req.OwnerID
	record, err := s.createRecord(ctx, dbTx, domain.TransactionDraft{
		Type:        domain.TransactionTypeDeposit,
		Amount:      req.Amount,
		ReceiverID:  &ownerID,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.walletStore.AdjustBalance(ctx, dbTx, wallet.ID, req.Amount); err != nil {
		return nil, err
	}

	if err := s.markCompleted(ctx, dbTx, record); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", record.ID.String()).
		Str("owner_id", req.OwnerID.String()).
		Str("amount", req.Amount.String()).
		Msg("deposit completed")

	return record, nil
}

// Transfer moves funds from the sender's wallet to the wallet of the user
// registered under recipientEmail. Debit and credit are two balance
// adjustments inside one unit of work; a failure on either leg rolls back
// both.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*domain.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	recipient, err := s.userRepo.GetByEmail(ctx, req.RecipientEmail)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find recipient: %w", err))
	}
	if recipient == nil {
		return nil, apperror.ErrNotFound("recipient")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	senderWallet, err := s.walletStore.LockByOwner(ctx, dbTx, req.SenderID)
	if err != nil {
		return nil, err
	}
	recipientWallet, err := s.walletStore.LockByOwner(ctx, dbTx, recipient.ID)
	if err != nil {
		return nil, err
	}

	// Pre-check before any mutation so a doomed transfer never creates a
	// record or touches either balance.
	if senderWallet.Balance.LessThan(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	senderID := req.SenderID
	receiverID := recipient.ID
	record, err := s.createRecord(ctx, dbTx, domain.TransactionDraft{
		Type:        domain.TransactionTypeTransfer,
		Amount:      req.Amount,
		SenderID:    &senderID,
		ReceiverID:  &receiverID,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}

	// Debit before credit so the insufficient-funds guard fires before the
	// recipient's row is touched.
	if _, err := s.walletStore.AdjustBalance(ctx, dbTx, senderWallet.ID, req.Amount.Neg()); err != nil {
		return nil, err
	}
	if _, err := s.walletStore.AdjustBalance(ctx, dbTx, recipientWallet.ID, req.Amount); err != nil {
		return nil, err
	}

	if err := s.markCompleted(ctx, dbTx, record); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", record.ID.String()).
		Str("sender_id", req.SenderID.String()).
		Str("receiver_id", recipient.ID.String()).
		Str("amount", req.Amount.String()).
		Msg("transfer completed")

	return record, nil
}

// Reverse undoes a completed transaction exactly once. A new reversal record
// is created with the roles swapped, the inverse balance effect is applied
// per the original type, the original flips to reversed and the reversal
// record completes, all in one unit of work.
func (s *LedgerServiceImpl) Reverse(ctx context.Context, req ports.ReverseRequest) (*domain.Transaction, error) {
	original, err := s.txRepo.GetByID(ctx, req.TransactionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find original tx: %w", err))
	}
	if original == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	if original.Status == domain.TransactionStatusReversed {
		return nil, apperror.ErrAlreadyReversed()
	}
	if !original.IsReversible() {
		return nil, apperror.ErrNotReversible()
	}

	hasReversal, err := s.txRepo.HasReversal(ctx, original.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check existing reversal: %w", err))
	}
	if hasReversal {
		return nil, apperror.ErrAlreadyReversed()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	relatedID := original.ID
	record, err := s.createRecord(ctx, dbTx, domain.TransactionDraft{
		Type:                 domain.TransactionTypeReversal,
		Amount:               original.Amount,
		SenderID:             original.ReceiverID,
		ReceiverID:           original.SenderID,
		Description:          req.Reason,
		RelatedTransactionID: &relatedID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.applyInverse(ctx, dbTx, original); err != nil {
		return nil, err
	}

	// Guarded flip of the original. A concurrent reversal that committed
	// first leaves no matching row, which surfaces as AlreadyReversed.
	flipped, err := s.txRepo.UpdateStatus(ctx, dbTx, original.ID, domain.TransactionStatusCompleted, domain.TransactionStatusReversed)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark original reversed: %w", err))
	}
	if !flipped {
		return nil, apperror.ErrAlreadyReversed()
	}

	if err := s.markCompleted(ctx, dbTx, record); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", record.ID.String()).
		Str("original_tx_id", original.ID.String()).
		Str("amount", original.Amount.String()).
		Msg("transaction reversed")

	return record, nil
}

// applyInverse applies the opposite balance effect of the original record.
func (s *LedgerServiceImpl) applyInverse(ctx context.Context, dbTx pgx.Tx, original *domain.Transaction) error {
	switch original.Type {
	case domain.TransactionTypeDeposit:
		receiverWallet, err := s.walletStore.LockByOwner(ctx, dbTx, *original.ReceiverID)
		if err != nil {
			return err
		}
		_, err = s.walletStore.AdjustBalance(ctx, dbTx, receiverWallet.ID, original.Amount.Neg())
		return err

	case domain.TransactionTypeTransfer:
		senderWallet, err := s.walletStore.LockByOwner(ctx, dbTx, *original.SenderID)
		if err != nil {
			return err
		}
		receiverWallet, err := s.walletStore.LockByOwner(ctx, dbTx, *original.ReceiverID)
		if err != nil {
			return err
		}
		if _, err := s.walletStore.AdjustBalance(ctx, dbTx, senderWallet.ID, original.Amount); err != nil {
			return err
		}
		_, err = s.walletStore.AdjustBalance(ctx, dbTx, receiverWallet.ID, original.Amount.Neg())
		return err

	default:
		return apperror.ErrNotReversible()
	}
}

// GetBalance returns the current balance of the owner's active wallet.
func (s *LedgerServiceImpl) GetBalance(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error) {
	wallet, err := s.walletStore.GetByOwner(ctx, ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	return wallet.Balance, nil
}

// ListTransactions returns every record involving the owner, newest first.
func (s *LedgerServiceImpl) ListTransactions(ctx context.Context, ownerID uuid.UUID) ([]domain.Transaction, error) {
	records, err := s.txRepo.ListByParticipant(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return records, nil
}

// GetTransaction returns a single record by id.
func (s *LedgerServiceImpl) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	record, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if record == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	return record, nil
}

// createRecord opens a pending record inside the unit of work.
func (s *LedgerServiceImpl) createRecord(ctx context.Context, dbTx pgx.Tx, draft domain.TransactionDraft) (*domain.Transaction, error) {
	record, err := domain.NewTransaction(draft)
	if err != nil {
		return nil, apperror.ErrInvalidAmount()
	}
	if err := s.txRepo.Create(ctx, dbTx, record); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction record: %w", err))
	}
	return record, nil
}

// markCompleted advances a pending record to completed inside the unit of
// work and updates the in-memory copy on success.
func (s *LedgerServiceImpl) markCompleted(ctx context.Context, dbTx pgx.Tx, record *domain.Transaction) error {
	advanced, err := s.txRepo.UpdateStatus(ctx, dbTx, record.ID, domain.TransactionStatusPending, domain.TransactionStatusCompleted)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("mark completed: %w", err))
	}
	if !advanced {
		return apperror.ErrInvalidStateTransition()
	}
	record.Status = domain.TransactionStatusCompleted
	return nil
}
