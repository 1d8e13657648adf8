package service

import (
	"context"
	"testing"

	"invest-ledger/internal/core/domain"
	"invest-ledger/internal/core/ports"
	"invest-ledger/internal/core/ports/mocks"
	"invest-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type walletTestDeps struct {
	svc         *WalletServiceImpl
	accountRepo *mocks.MockAccountRepository
	userRepo    *mocks.MockUserRepository
	txRepo      *mocks.MockTransactionRepository
	refRepo     *mocks.MockTransactionRefRepository
	transactor  *mocks.MockDBTransactor
	ctrl        *gomock.Controller
}

func setupWalletService(t *testing.T) *walletTestDeps {
	ctrl := gomock.NewController(t)
	d := &walletTestDeps{
		accountRepo: mocks.NewMockAccountRepository(ctrl),
		userRepo:    mocks.NewMockUserRepository(ctrl),
		txRepo:      mocks.NewMockTransactionRepository(ctrl),
		refRepo:     mocks.NewMockTransactionRefRepository(ctrl),
		transactor:  mocks.NewMockDBTransactor(ctrl),
		ctrl:        ctrl,
	}
	recorder := NewTransactionRecorder(d.txRepo, d.refRepo)
	d.svc = NewWalletService(d.accountRepo, d.userRepo, recorder, d.transactor, zerolog.Nop())
	return d
}

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

// ==================== Credit Tests ====================

func TestWalletService_Credit_Success(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	accountID := uuid.New()
	tx := &mockTx{}

	req := ports.CreditWalletRequest{
		UserID:    userID,
		Amount:    50000,
		Hash:      "HASH-001",
		Reference: "PS-REF-001",
		Gateway:   domain.GatewayPaystack,
		Medium:    domain.MediumCard,
		Kind:      domain.KindWalletFunding,
	}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByUser(ctx, userID, domain.AccountKindMain).Return(&domain.Account{
		ID: accountID, UserID: userID, Kind: domain.AccountKindMain, Balance: 10000,
	}, nil)
	d.accountRepo.EXPECT().Credit(ctx, tx, accountID, int64(50000)).Return(&domain.BalanceSnapshot{
		Before: 10000, After: 60000,
	}, nil)
	d.refRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.userRepo.EXPECT().AddTotalFunded(ctx, tx, userID, int64(50000)).Return(nil)

	txn, err := d.svc.Credit(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Equal(t, domain.DirectionCredit, txn.Direction)
	assert.Equal(t, domain.TransactionStatusSuccessful, txn.Status)
	assert.Equal(t, int64(50000), txn.Amount)
	assert.Equal(t, int64(10000), *txn.BalanceBefore)
	assert.Equal(t, int64(60000), *txn.BalanceAfter)
	assert.Equal(t, "HASH-001", txn.Hash)
}

func TestWalletService_CreditTx_CreatesAccountOnFirstFunding(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}

	req := ports.CreditWalletRequest{
		UserID:  userID,
		Amount:  20000,
		Hash:    "HASH-NEW",
		Gateway: domain.GatewayPaystack,
		Medium:  domain.MediumCard,
		Kind:    domain.KindWalletFunding,
	}

	d.accountRepo.EXPECT().GetByUser(ctx, userID, domain.AccountKindMain).Return(nil, nil)
	d.accountRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, account *domain.Account) error {
			assert.Equal(t, userID, account.UserID)
			assert.Equal(t, domain.AccountKindMain, account.Kind)
			assert.Equal(t, "NGN", account.Currency)
			assert.Zero(t, account.Balance)
			return nil
		})
	d.accountRepo.EXPECT().Credit(ctx, tx, gomock.Any(), int64(20000)).Return(&domain.BalanceSnapshot{
		Before: 0, After: 20000,
	}, nil)
	d.refRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.userRepo.EXPECT().AddTotalFunded(ctx, tx, userID, int64(20000)).Return(nil)

	txn, err := d.svc.CreditTx(ctx, tx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), *txn.BalanceAfter)
}

func TestWalletService_CreditTx_InvalidAmount(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	txn, err := d.svc.CreditTx(context.Background(), &mockTx{}, ports.CreditWalletRequest{
		UserID: uuid.New(), Amount: 0, Hash: "H",
	})
	assert.Nil(t, txn)
	assertAppError(t, err, "LED_002")
}

func TestWalletService_CreditTx_MissingHash(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	txn, err := d.svc.CreditTx(context.Background(), &mockTx{}, ports.CreditWalletRequest{
		UserID: uuid.New(), Amount: 1000,
	})
	assert.Nil(t, txn)
	assertAppError(t, err, "LED_002")
}

func TestWalletService_CreditTx_DuplicateHash(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	accountID := uuid.New()
	tx := &mockTx{}

	d.accountRepo.EXPECT().GetByUser(ctx, userID, domain.AccountKindMain).Return(&domain.Account{
		ID: accountID, UserID: userID,
	}, nil)
	d.accountRepo.EXPECT().Credit(ctx, tx, accountID, int64(1000)).Return(&domain.BalanceSnapshot{
		Before: 0, After: 1000,
	}, nil)
	// The unique hash constraint fires on the ref insert.
	d.refRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(domain.ErrDuplicateKey)

	txn, err := d.svc.CreditTx(ctx, tx, ports.CreditWalletRequest{
		UserID: userID, Amount: 1000, Hash: "DUP",
	})
	assert.Nil(t, txn)
	assertAppError(t, err, "TXN_001")
}

// ==================== Debit Tests ====================

func TestWalletService_Debit_Success(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	accountID := uuid.New()
	tx := &mockTx{}

	req := ports.DebitWalletRequest{
		UserID: userID,
		Amount: 30000,
		Hash:   "HASH-DEBIT",
		Kind:   domain.KindWalletDebit,
	}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByUser(ctx, userID, domain.AccountKindMain).Return(&domain.Account{
		ID: accountID, UserID: userID, Balance: 50000,
	}, nil)
	d.accountRepo.EXPECT().Debit(ctx, tx, accountID, int64(30000)).Return(&domain.BalanceSnapshot{
		Before: 50000, After: 20000,
	}, nil)
	d.refRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	txn, err := d.svc.Debit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionDebit, txn.Direction)
	assert.Equal(t, domain.GatewayWallet, txn.Gateway)
	assert.Equal(t, domain.MediumWallet, txn.Medium)
	assert.Equal(t, int64(20000), *txn.BalanceAfter)
}

func TestWalletService_DebitTx_InsufficientFunds(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	accountID := uuid.New()
	tx := &mockTx{}

	d.accountRepo.EXPECT().GetByUser(ctx, userID, domain.AccountKindMain).Return(&domain.Account{
		ID: accountID, UserID: userID, Balance: 100,
	}, nil)
	// Guarded UPDATE matched no row.
	d.accountRepo.EXPECT().Debit(ctx, tx, accountID, int64(30000)).Return(nil, nil)

	txn, err := d.svc.DebitTx(ctx, tx, ports.DebitWalletRequest{
		UserID: userID, Amount: 30000, Hash: "H",
	})
	assert.Nil(t, txn)
	assertAppError(t, err, "LED_001")
}

func TestWalletService_DebitTx_AccountNotFound(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.accountRepo.EXPECT().GetByUser(ctx, userID, domain.AccountKindMain).Return(nil, nil)

	txn, err := d.svc.DebitTx(ctx, &mockTx{}, ports.DebitWalletRequest{
		UserID: userID, Amount: 1000, Hash: "H",
	})
	assert.Nil(t, txn)
	assertAppError(t, err, "LED_003")
}

func TestWalletService_DebitReferralTx_UsesReferralWallet(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	accountID := uuid.New()
	tx := &mockTx{}

	d.accountRepo.EXPECT().GetByUser(ctx, userID, domain.AccountKindReferral).Return(&domain.Account{
		ID: accountID, UserID: userID, Kind: domain.AccountKindReferral, Balance: 5000,
	}, nil)
	d.accountRepo.EXPECT().Debit(ctx, tx, accountID, int64(2000)).Return(&domain.BalanceSnapshot{
		Before: 5000, After: 3000,
	}, nil)
	d.refRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	txn, err := d.svc.DebitReferralTx(ctx, tx, ports.DebitWalletRequest{
		UserID: userID, Amount: 2000, Hash: "REF-DEBIT", Kind: domain.KindWalletDebit,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayReferralWallet, txn.Gateway)
}

// ==================== Balance Tests ====================

func TestWalletService_Balance(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.accountRepo.EXPECT().GetByUser(ctx, userID, domain.AccountKindMain).Return(&domain.Account{
		UserID: userID, Balance: 75000,
	}, nil)

	account, err := d.svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(75000), account.Balance)
}

func TestWalletService_Balance_NotFound(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.accountRepo.EXPECT().GetByUser(ctx, userID, domain.AccountKindMain).Return(nil, nil)

	account, err := d.svc.Balance(ctx, userID)
	assert.Nil(t, account)
	assertAppError(t, err, "LED_003")
}

// ==================== Helper ====================

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}
