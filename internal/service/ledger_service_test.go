package service

import (
	"context"
	"testing"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/core/ports/mocks"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type ledgerTestDeps struct {
	svc         *LedgerServiceImpl
	walletStore *mocks.MockWalletStore
	txRepo      *mocks.MockTransactionRepository
	userRepo    *mocks.MockUserRepository
	transactor  *mocks.MockTransactor
	ctrl        *gomock.Controller
}

func setupLedgerService(t *testing.T) *ledgerTestDeps {
	ctrl := gomock.NewController(t)
	d := &ledgerTestDeps{
		walletStore: mocks.NewMockWalletStore(ctrl),
		txRepo:      mocks.NewMockTransactionRepository(ctrl),
		userRepo:    mocks.NewMockUserRepository(ctrl),
		transactor:  mocks.NewMockTransactor(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewLedgerService(d.walletStore, d.txRepo, d.userRepo, d.transactor, zerolog.Nop())
	return d
}

// mockTx implements pgx.Tx for testing and records commit/rollback calls.
type mockTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (m *mockTx) Commit(_ context.Context) error   { m.committed = true; return nil }
func (m *mockTx) Rollback(_ context.Context) error { m.rolledBack = true; return nil }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ==================== Deposit Tests ====================

func TestLedgerService_Deposit_Success(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()
	tx := &mockTx{}
	wallet := activeWallet(ownerID, "0.00")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletStore.EXPECT().LockByOwner(ctx, tx, ownerID).Return(wallet, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletStore.EXPECT().AdjustBalance(ctx, tx, wallet.ID, dec("100.00")).Return(wallet, nil)
	d.txRepo.EXPECT().
		UpdateStatus(ctx, tx, gomock.Any(), domain.TransactionStatusPending, domain.TransactionStatusCompleted).
		Return(true, nil)

	record, err := d.svc.Deposit(ctx, ports.DepositRequest{OwnerID: ownerID, Amount: dec("100.00")})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, domain.TransactionTypeDeposit, record.Type)
	assert.Equal(t, domain.TransactionStatusCompleted, record.Status)
	require.NotNil(t, record.ReceiverID)
	assert.Equal(t, ownerID, *record.ReceiverID)
	assert.Nil(t, record.SenderID)
	assert.Equal(t, "Deposit", record.Description)
	assert.True(t, tx.committed)
}

func TestLedgerService_Deposit_InvalidAmount(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	record, err := d.svc.Deposit(context.Background(), ports.DepositRequest{
		OwnerID: uuid.New(),
		Amount:  decimal.Zero,
	})
	assert.Nil(t, record)
	assertAppError(t, err, "LED_002")
}

func TestLedgerService_Deposit_WalletNotFound(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletStore.EXPECT().LockByOwner(ctx, tx, ownerID).Return(nil, apperror.ErrNotFound("wallet"))

	record, err := d.svc.Deposit(ctx, ports.DepositRequest{OwnerID: ownerID, Amount: dec("10.00")})
	assert.Nil(t, record)
	assertAppError(t, err, "LED_003")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

// ==================== Transfer Tests ====================

func TestLedgerService_Transfer_Success(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	senderID := uuid.New()
	recipient := &domain.User{ID: uuid.New(), Email: "recipient@example.com", Active: true}
	tx := &mockTx{}
	senderWallet := activeWallet(senderID, "100.00")
	recipientWallet := activeWallet(recipient.ID, "50.00")

	d.userRepo.EXPECT().GetByEmail(ctx, recipient.Email).Return(recipient, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletStore.EXPECT().LockByOwner(ctx, tx, senderID).Return(senderWallet, nil)
	d.walletStore.EXPECT().LockByOwner(ctx, tx, recipient.ID).Return(recipientWallet, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletStore.EXPECT().AdjustBalance(ctx, tx, senderWallet.ID, dec("-50.25")).Return(senderWallet, nil)
	d.walletStore.EXPECT().AdjustBalance(ctx, tx, recipientWallet.ID, dec("50.25")).Return(recipientWallet, nil)
	d.txRepo.EXPECT().
		UpdateStatus(ctx, tx, gomock.Any(), domain.TransactionStatusPending, domain.TransactionStatusCompleted).
		Return(true, nil)

	record, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SenderID:       senderID,
		RecipientEmail: recipient.Email,
		Amount:         dec("50.25"),
	})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, domain.TransactionTypeTransfer, record.Type)
	assert.Equal(t, domain.TransactionStatusCompleted, record.Status)
	assert.Equal(t, senderID, *record.SenderID)
	assert.Equal(t, recipient.ID, *record.ReceiverID)
	assert.True(t, tx.committed)
}

func TestLedgerService_Transfer_InsufficientFunds(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	senderID := uuid.New()
	recipient := &domain.User{ID: uuid.New(), Email: "recipient@example.com", Active: true}
	tx := &mockTx{}
	senderWallet := activeWallet(senderID, "100.00")
	recipientWallet := activeWallet(recipient.ID, "50.00")

	d.userRepo.EXPECT().GetByEmail(ctx, recipient.Email).Return(recipient, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletStore.EXPECT().LockByOwner(ctx, tx, senderID).Return(senderWallet, nil)
	d.walletStore.EXPECT().LockByOwner(ctx, tx, recipient.ID).Return(recipientWallet, nil)

	record, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SenderID:       senderID,
		RecipientEmail: recipient.Email,
		Amount:         dec("1000.00"),
	})
	assert.Nil(t, record)
	assertAppError(t, err, "LED_001")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestLedgerService_Transfer_RecipientNotFound(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.userRepo.EXPECT().GetByEmail(ctx, "nobody@example.com").Return(nil, nil)

	record, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SenderID:       uuid.New(),
		RecipientEmail: "nobody@example.com",
		Amount:         dec("10.00"),
	})
	assert.Nil(t, record)
	assertAppError(t, err, "LED_003")
}

// ==================== Reverse Tests ====================

func TestLedgerService_Reverse_Deposit(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	receiverID := uuid.New()
	tx := &mockTx{}
	receiverWallet := activeWallet(receiverID, "100.00")

	original := &domain.Transaction{
		ID:         uuid.New(),
		Type:       domain.TransactionTypeDeposit,
		Amount:     dec("100.00"),
		ReceiverID: &receiverID,
		Status:     domain.TransactionStatusCompleted,
	}

	d.txRepo.EXPECT().GetByID(ctx, original.ID).Return(original, nil)
	d.txRepo.EXPECT().HasReversal(ctx, original.ID).Return(false, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletStore.EXPECT().LockByOwner(ctx, tx, receiverID).Return(receiverWallet, nil)
	d.walletStore.EXPECT().AdjustBalance(ctx, tx, receiverWallet.ID, dec("-100.00")).Return(receiverWallet, nil)
	d.txRepo.EXPECT().
		UpdateStatus(ctx, tx, original.ID, domain.TransactionStatusCompleted, domain.TransactionStatusReversed).
		Return(true, nil)
	d.txRepo.EXPECT().
		UpdateStatus(ctx, tx, gomock.Not(original.ID), domain.TransactionStatusPending, domain.TransactionStatusCompleted).
		Return(true, nil)

	record, err := d.svc.Reverse(ctx, ports.ReverseRequest{TransactionID: original.ID, Reason: "fraud"})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, domain.TransactionTypeReversal, record.Type)
	assert.Equal(t, domain.TransactionStatusCompleted, record.Status)
	require.NotNil(t, record.RelatedTransactionID)
	assert.Equal(t, original.ID, *record.RelatedTransactionID)
	assert.Equal(t, receiverID, *record.SenderID)
	assert.Nil(t, record.ReceiverID)
	assert.Equal(t, "fraud", record.Description)
	assert.True(t, tx.committed)
}

func TestLedgerService_Reverse_Transfer(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	senderID := uuid.New()
	receiverID := uuid.New()
	tx := &mockTx{}
	senderWallet := activeWallet(senderID, "49.75")
	receiverWallet := activeWallet(receiverID, "100.25")

	original := &domain.Transaction{
		ID:         uuid.New(),
		Type:       domain.TransactionTypeTransfer,
		Amount:     dec("50.25"),
		SenderID:   &senderID,
		ReceiverID: &receiverID,
		Status:     domain.TransactionStatusCompleted,
	}

	d.txRepo.EXPECT().GetByID(ctx, original.ID).Return(original, nil)
	d.txRepo.EXPECT().HasReversal(ctx, original.ID).Return(false, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletStore.EXPECT().LockByOwner(ctx, tx, senderID).Return(senderWallet, nil)
	d.walletStore.EXPECT().LockByOwner(ctx, tx, receiverID).Return(receiverWallet, nil)
	// Credit the original sender, debit the original receiver.
	d.walletStore.EXPECT().AdjustBalance(ctx, tx, senderWallet.ID, dec("50.25")).Return(senderWallet, nil)
	d.walletStore.EXPECT().AdjustBalance(ctx, tx, receiverWallet.ID, dec("-50.25")).Return(receiverWallet, nil)
	d.txRepo.EXPECT().
		UpdateStatus(ctx, tx, original.ID, domain.TransactionStatusCompleted, domain.TransactionStatusReversed).
		Return(true, nil)
	d.txRepo.EXPECT().
		UpdateStatus(ctx, tx, gomock.Not(original.ID), domain.TransactionStatusPending, domain.TransactionStatusCompleted).
		Return(true, nil)

	record, err := d.svc.Reverse(ctx, ports.ReverseRequest{TransactionID: original.ID, Reason: "dispute"})
	require.NoError(t, err)
	// Roles swapped on the reversal record.
	assert.Equal(t, receiverID, *record.SenderID)
	assert.Equal(t, senderID, *record.ReceiverID)
	assert.True(t, tx.committed)
}

func TestLedgerService_Reverse_NotFound(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txID := uuid.New()

	d.txRepo.EXPECT().GetByID(ctx, txID).Return(nil, nil)

	record, err := d.svc.Reverse(ctx, ports.ReverseRequest{TransactionID: txID})
	assert.Nil(t, record)
	assertAppError(t, err, "LED_003")
}

func TestLedgerService_Reverse_AlreadyReversed(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	receiverID := uuid.New()
	original := &domain.Transaction{
		ID:         uuid.New(),
		Type:       domain.TransactionTypeDeposit,
		Amount:     dec("10.00"),
		ReceiverID: &receiverID,
		Status:     domain.TransactionStatusReversed,
	}

	d.txRepo.EXPECT().GetByID(ctx, original.ID).Return(original, nil)

	record, err := d.svc.Reverse(ctx, ports.ReverseRequest{TransactionID: original.ID})
	assert.Nil(t, record)
	assertAppError(t, err, "LED_005")
}

func TestLedgerService_Reverse_PendingNotReversible(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	receiverID := uuid.New()
	original := &domain.Transaction{
		ID:         uuid.New(),
		Type:       domain.TransactionTypeDeposit,
		Amount:     dec("10.00"),
		ReceiverID: &receiverID,
		Status:     domain.TransactionStatusPending,
	}

	d.txRepo.EXPECT().GetByID(ctx, original.ID).Return(original, nil)

	record, err := d.svc.Reverse(ctx, ports.ReverseRequest{TransactionID: original.ID})
	assert.Nil(t, record)
	assertAppError(t, err, "LED_006")
}

func TestLedgerService_Reverse_ReversalNotReversible(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	senderID := uuid.New()
	original := &domain.Transaction{
		ID:       uuid.New(),
		Type:     domain.TransactionTypeReversal,
		Amount:   dec("10.00"),
		SenderID: &senderID,
		Status:   domain.TransactionStatusCompleted,
	}

	d.txRepo.EXPECT().GetByID(ctx, original.ID).Return(original, nil)

	record, err := d.svc.Reverse(ctx, ports.ReverseRequest{TransactionID: original.ID})
	assert.Nil(t, record)
	assertAppError(t, err, "LED_006")
}

func TestLedgerService_Reverse_ExistingReversal(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	receiverID := uuid.New()
	original := &domain.Transaction{
		ID:         uuid.New(),
		Type:       domain.TransactionTypeDeposit,
		Amount:     dec("10.00"),
		ReceiverID: &receiverID,
		Status:     domain.TransactionStatusCompleted,
	}

	d.txRepo.EXPECT().GetByID(ctx, original.ID).Return(original, nil)
	d.txRepo.EXPECT().HasReversal(ctx, original.ID).Return(true, nil)

	record, err := d.svc.Reverse(ctx, ports.ReverseRequest{TransactionID: original.ID})
	assert.Nil(t, record)
	assertAppError(t, err, "LED_005")
}

func TestLedgerService_Reverse_ConcurrentFlipLoses(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	receiverID := uuid.New()
	tx := &mockTx{}
	receiverWallet := activeWallet(receiverID, "100.00")

	original := &domain.Transaction{
		ID:         uuid.New(),
		Type:       domain.TransactionTypeDeposit,
		Amount:     dec("100.00"),
		ReceiverID: &receiverID,
		Status:     domain.TransactionStatusCompleted,
	}

	d.txRepo.EXPECT().GetByID(ctx, original.ID).Return(original, nil)
	d.txRepo.EXPECT().HasReversal(ctx, original.ID).Return(false, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletStore.EXPECT().LockByOwner(ctx, tx, receiverID).Return(receiverWallet, nil)
	d.walletStore.EXPECT().AdjustBalance(ctx, tx, receiverWallet.ID, dec("-100.00")).Return(receiverWallet, nil)
	// Another reversal committed first: the guarded flip matches no row.
	d.txRepo.EXPECT().
		UpdateStatus(ctx, tx, original.ID, domain.TransactionStatusCompleted, domain.TransactionStatusReversed).
		Return(false, nil)

	record, err := d.svc.Reverse(ctx, ports.ReverseRequest{TransactionID: original.ID, Reason: "late"})
	assert.Nil(t, record)
	assertAppError(t, err, "LED_005")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

// ==================== Read Tests ====================

func TestLedgerService_GetBalance(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()
	wallet := activeWallet(ownerID, "42.50")

	d.walletStore.EXPECT().GetByOwner(ctx, ownerID).Return(wallet, nil)

	balance, err := d.svc.GetBalance(ctx, ownerID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("42.50")))
}

func TestLedgerService_ListTransactions_Empty(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()

	d.txRepo.EXPECT().ListByParticipant(ctx, ownerID).Return([]domain.Transaction{}, nil)

	records, err := d.svc.ListTransactions(ctx, ownerID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLedgerService_GetTransaction_NotFound(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txID := uuid.New()

	d.txRepo.EXPECT().GetByID(ctx, txID).Return(nil, nil)

	record, err := d.svc.GetTransaction(ctx, txID)
	assert.Nil(t, record)
	assertAppError(t, err, "LED_003")
}

// ==================== Helper ====================

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}
