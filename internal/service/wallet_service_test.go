package service

import (
	"context"
	"testing"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type walletTestDeps struct {
	svc        *WalletServiceImpl
	walletRepo *mocks.MockWalletRepository
	ctrl       *gomock.Controller
}

func setupWalletService(t *testing.T) *walletTestDeps {
	ctrl := gomock.NewController(t)
	d := &walletTestDeps{
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewWalletService(d.walletRepo, zerolog.Nop())
	return d
}

func activeWallet(ownerID uuid.UUID, balance string) *domain.Wallet {
	return &domain.Wallet{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Balance: decimal.RequireFromString(balance),
		Active:  true,
	}
}

func TestWalletService_CreateForOwner(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()

	d.walletRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	wallet, err := d.svc.CreateForOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, ownerID, wallet.OwnerID)
	assert.True(t, wallet.Active)
	assert.True(t, wallet.Balance.IsZero())
}

func TestWalletService_GetByOwner_NotFound(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()

	d.walletRepo.EXPECT().GetByOwnerID(ctx, ownerID).Return(nil, nil)

	wallet, err := d.svc.GetByOwner(ctx, ownerID)
	assert.Nil(t, wallet)
	assertAppError(t, err, "LED_003")
}

func TestWalletService_AdjustBalance_Credit(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	w := activeWallet(uuid.New(), "100.00")

	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, w.ID).Return(w, nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, w.ID, decimal.RequireFromString("150.25")).Return(nil)

	updated, err := d.svc.AdjustBalance(ctx, tx, w.ID, decimal.RequireFromString("50.25"))
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(decimal.RequireFromString("150.25")))
}

func TestWalletService_AdjustBalance_Debit(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	w := activeWallet(uuid.New(), "100.00")

	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, w.ID).Return(w, nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, w.ID, decimal.RequireFromString("49.75")).Return(nil)

	updated, err := d.svc.AdjustBalance(ctx, tx, w.ID, decimal.RequireFromString("-50.25"))
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(decimal.RequireFromString("49.75")))
}

func TestWalletService_AdjustBalance_NotFound(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	walletID := uuid.New()

	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, walletID).Return(nil, nil)

	_, err := d.svc.AdjustBalance(ctx, tx, walletID, decimal.RequireFromString("10.00"))
	assertAppError(t, err, "LED_003")
}

func TestWalletService_AdjustBalance_InactiveWallet(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	w := activeWallet(uuid.New(), "100.00")
	w.Active = false

	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, w.ID).Return(w, nil)

	_, err := d.svc.AdjustBalance(ctx, tx, w.ID, decimal.RequireFromString("10.00"))
	assertAppError(t, err, "LED_004")
}

func TestWalletService_AdjustBalance_InsufficientFunds(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	w := activeWallet(uuid.New(), "10.00")

	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, w.ID).Return(w, nil)

	_, err := d.svc.AdjustBalance(ctx, tx, w.ID, decimal.RequireFromString("-20.00"))
	assertAppError(t, err, "LED_001")
}

func TestWalletService_AdjustBalance_CorruptState(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	w := activeWallet(uuid.New(), "-5.00")

	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, w.ID).Return(w, nil)

	_, err := d.svc.AdjustBalance(ctx, tx, w.ID, decimal.RequireFromString("10.00"))
	assertAppError(t, err, "LED_008")
}

func TestWalletService_Deactivate(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	walletID := uuid.New()

	d.walletRepo.EXPECT().Deactivate(ctx, tx, walletID).Return(nil)

	err := d.svc.Deactivate(ctx, tx, walletID)
	assert.NoError(t, err)
}
