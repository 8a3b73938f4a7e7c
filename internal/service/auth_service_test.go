package service

import (
	"context"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type authTestDeps struct {
	svc         *AuthServiceImpl
	userRepo    *mocks.MockUserRepository
	walletStore *mocks.MockWalletStore
	transactor  *mocks.MockTransactor
	hashSvc     *mocks.MockHashService
	tokenSvc    *mocks.MockTokenService
	ctrl        *gomock.Controller
}

func setupAuthService(t *testing.T) *authTestDeps {
	ctrl := gomock.NewController(t)
	d := &authTestDeps{
		userRepo:    mocks.NewMockUserRepository(ctrl),
		walletStore: mocks.NewMockWalletStore(ctrl),
		transactor:  mocks.NewMockTransactor(ctrl),
		hashSvc:     mocks.NewMockHashService(ctrl),
		tokenSvc:    mocks.NewMockTokenService(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewAuthService(d.userRepo, d.walletStore, d.transactor, d.hashSvc, d.tokenSvc, zerolog.Nop())
	return d
}

func TestAuthService_Register_Success(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := ports.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "s3cret!"}

	d.userRepo.EXPECT().GetByEmail(ctx, req.Email).Return(nil, nil)
	d.hashSvc.EXPECT().Hash(req.Password).Return("hashed", nil)
	d.userRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.walletStore.EXPECT().CreateForOwner(ctx, gomock.Any()).Return(&domain.Wallet{}, nil)

	user, err := d.svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, req.Email, user.Email)
	assert.Equal(t, "hashed", user.PasswordHash)
	assert.True(t, user.Active)
}

func TestAuthService_Register_EmailExists(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	existing := &domain.User{ID: uuid.New(), Email: "taken@example.com"}

	d.userRepo.EXPECT().GetByEmail(ctx, existing.Email).Return(existing, nil)

	user, err := d.svc.Register(ctx, ports.RegisterRequest{Email: existing.Email, Password: "x"})
	assert.Nil(t, user)
	assertAppError(t, err, "AUTH_002")
}

func TestAuthService_Login_Success(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Email: "ada@example.com", PasswordHash: "hashed", Active: true}
	expiresAt := time.Now().Add(24 * time.Hour)

	d.userRepo.EXPECT().GetByEmail(ctx, user.Email).Return(user, nil)
	d.hashSvc.EXPECT().Verify("s3cret!", "hashed").Return(true, nil)
	d.tokenSvc.EXPECT().Generate(user.ID, user.Email).Return("token-abc", expiresAt, nil)

	token, exp, err := d.svc.Login(ctx, user.Email, "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, "token-abc", token)
	assert.Equal(t, expiresAt, exp)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Email: "ada@example.com", PasswordHash: "hashed", Active: true}

	d.userRepo.EXPECT().GetByEmail(ctx, user.Email).Return(user, nil)
	d.hashSvc.EXPECT().Verify("wrong", "hashed").Return(false, nil)

	_, _, err := d.svc.Login(ctx, user.Email, "wrong")
	assertAppError(t, err, "AUTH_001")
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.userRepo.EXPECT().GetByEmail(ctx, "ghost@example.com").Return(nil, nil)

	_, _, err := d.svc.Login(ctx, "ghost@example.com", "whatever")
	assertAppError(t, err, "AUTH_001")
}

func TestAuthService_Login_DeactivatedAccount(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Email: "gone@example.com", PasswordHash: "hashed", Active: false}

	d.userRepo.EXPECT().GetByEmail(ctx, user.Email).Return(user, nil)

	_, _, err := d.svc.Login(ctx, user.Email, "s3cret!")
	assertAppError(t, err, "AUTH_004")
}

func TestAuthService_Deactivate_Success(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Active: true}
	wallet := activeWallet(user.ID, "0.00")
	tx := &mockTx{}

	d.userRepo.EXPECT().GetByID(ctx, user.ID).Return(user, nil)
	d.walletStore.EXPECT().GetByOwner(ctx, user.ID).Return(wallet, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.userRepo.EXPECT().Deactivate(ctx, tx, user.ID).Return(nil)
	d.walletStore.EXPECT().Deactivate(ctx, tx, wallet.ID).Return(nil)

	err := d.svc.Deactivate(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, tx.committed)
}

func TestAuthService_Deactivate_UserNotFound(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.userRepo.EXPECT().GetByID(ctx, userID).Return(nil, nil)

	err := d.svc.Deactivate(ctx, userID)
	assertAppError(t, err, "LED_003")
}
