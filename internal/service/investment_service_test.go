package service

import (
	"context"
	"testing"
	"time"

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

type investmentTestDeps struct {
	svc            *InvestmentServiceImpl
	listingRepo    *mocks.MockListingRepository
	portfolioRepo  *mocks.MockPortfolioRepository
	investmentRepo *mocks.MockInvestmentRepository
	userRepo       *mocks.MockUserRepository
	walletSvc      *mocks.MockWalletService
	referralSvc    *mocks.MockReferralService
	txRepo         *mocks.MockTransactionRepository
	refRepo        *mocks.MockTransactionRefRepository
	transactor     *mocks.MockDBTransactor
	notifier       *mocks.MockNotificationQueue
	ctrl           *gomock.Controller
}

func setupInvestmentService(t *testing.T) *investmentTestDeps {
	ctrl := gomock.NewController(t)
	d := &investmentTestDeps{
		listingRepo:    mocks.NewMockListingRepository(ctrl),
		portfolioRepo:  mocks.NewMockPortfolioRepository(ctrl),
		investmentRepo: mocks.NewMockInvestmentRepository(ctrl),
		userRepo:       mocks.NewMockUserRepository(ctrl),
		walletSvc:      mocks.NewMockWalletService(ctrl),
		referralSvc:    mocks.NewMockReferralService(ctrl),
		txRepo:         mocks.NewMockTransactionRepository(ctrl),
		refRepo:        mocks.NewMockTransactionRefRepository(ctrl),
		transactor:     mocks.NewMockDBTransactor(ctrl),
		notifier:       mocks.NewMockNotificationQueue(ctrl),
		ctrl:           ctrl,
	}
	recorder := NewTransactionRecorder(d.txRepo, d.refRepo)
	d.svc = NewInvestmentService(
		d.listingRepo, d.portfolioRepo, d.investmentRepo, d.userRepo,
		d.walletSvc, d.referralSvc, recorder, d.transactor, d.notifier,
		zerolog.Nop(),
	)
	return d
}

// ==================== CreateFromWallet Tests ====================

func TestInvestmentService_CreateFromWallet_Success(t *testing.T) {
	d := setupInvestmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	listingID := uuid.New()
	tx := &mockTx{}

	req := ports.CreateInvestmentRequest{
		UserID:         userID,
		ListingID:      listingID,
		Amount:         50000,
		DurationMonths: 12,
		Hash:           "INV-HASH-001",
	}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.listingRepo.EXPECT().GetByID(ctx, listingID).Return(&domain.Listing{
		ID: listingID, TokenRate: 1000, AvailableTokens: 500,
	}, nil)
	// 50000 / 1000 = 50 tokens
	d.listingRepo.EXPECT().Reserve(ctx, tx, listingID, userID, int64(50), int64(50000)).Return(true, nil)
	d.portfolioRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, p *domain.Portfolio) error {
			assert.Equal(t, domain.PortfolioStatusActive, p.Status)
			assert.Equal(t, domain.OccurrenceOneTime, p.Occurrence)
			assert.Nil(t, p.NextChargeAt)
			return nil
		})
	d.investmentRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletSvc.EXPECT().DebitTx(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, dr ports.DebitWalletRequest) (*domain.Transaction, error) {
			assert.Equal(t, int64(50000), dr.Amount)
			assert.Equal(t, domain.KindInvestment, dr.Kind)
			assert.Equal(t, "INV-HASH-001", dr.Hash)
			return &domain.Transaction{ID: uuid.New(), UserID: userID, Amount: dr.Amount}, nil
		})
	d.investmentRepo.EXPECT().AttachTransaction(ctx, tx, gomock.Any(), gomock.Any()).Return(nil)
	d.referralSvc.EXPECT().ProcessTx(ctx, tx, userID, int64(50000)).Return(nil)
	d.userRepo.EXPECT().AddTotalInvested(ctx, tx, userID, int64(50000)).Return(nil)
	d.notifier.EXPECT().Enqueue(ctx, "investment_created", gomock.Any()).Return(nil)

	result, err := d.svc.CreateFromWallet(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(50), result.Portfolio.Tokens)
	assert.Equal(t, int64(50000), result.Portfolio.TotalAmount)
	assert.NotNil(t, result.Investment.TransactionID)
}

func TestInvestmentService_CreateTx_ListingNotFound(t *testing.T) {
	d := setupInvestmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	listingID := uuid.New()

	d.listingRepo.EXPECT().GetByID(ctx, listingID).Return(nil, nil)

	result, err := d.svc.CreateTx(ctx, &mockTx{}, ports.CreateInvestmentRequest{
		UserID: uuid.New(), ListingID: listingID, Amount: 50000, DurationMonths: 6, Hash: "H",
	})
	assert.Nil(t, result)
	assertAppError(t, err, "INV_001")
}

func TestInvestmentService_CreateTx_InsufficientTokens(t *testing.T) {
	d := setupInvestmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	listingID := uuid.New()
	tx := &mockTx{}

	d.listingRepo.EXPECT().GetByID(ctx, listingID).Return(&domain.Listing{
		ID: listingID, TokenRate: 1000, AvailableTokens: 10,
	}, nil)
	d.listingRepo.EXPECT().Reserve(ctx, tx, listingID, userID, int64(50), int64(50000)).Return(false, nil)

	result, err := d.svc.CreateTx(ctx, tx, ports.CreateInvestmentRequest{
		UserID: userID, ListingID: listingID, Amount: 50000, DurationMonths: 6, Hash: "H",
	})
	assert.Nil(t, result)
	assertAppError(t, err, "INV_002")
}

func TestInvestmentService_CreateTx_AmountBuysZeroTokens(t *testing.T) {
	d := setupInvestmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	listingID := uuid.New()

	d.listingRepo.EXPECT().GetByID(ctx, listingID).Return(&domain.Listing{
		ID: listingID, TokenRate: 1000,
	}, nil)

	result, err := d.svc.CreateTx(ctx, &mockTx{}, ports.CreateInvestmentRequest{
		UserID: uuid.New(), ListingID: listingID, Amount: 500, DurationMonths: 6, Hash: "H",
	})
	assert.Nil(t, result)
	assertAppError(t, err, "LED_002")
}

func TestInvestmentService_CreateTx_InvalidDuration(t *testing.T) {
	d := setupInvestmentService(t)
	defer d.ctrl.Finish()

	result, err := d.svc.CreateTx(context.Background(), &mockTx{}, ports.CreateInvestmentRequest{
		UserID: uuid.New(), ListingID: uuid.New(), Amount: 50000, DurationMonths: 0, Hash: "H",
	})
	assert.Nil(t, result)
	assertAppError(t, err, "LED_002")
}

func TestInvestmentService_CreateTx_RecurringSetsChargeSchedule(t *testing.T) {
	d := setupInvestmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	listingID := uuid.New()
	tx := &mockTx{}

	d.listingRepo.EXPECT().GetByID(ctx, listingID).Return(&domain.Listing{
		ID: listingID, TokenRate: 100,
	}, nil)
	d.listingRepo.EXPECT().Reserve(ctx, tx, listingID, userID, int64(100), int64(10000)).Return(true, nil)
	d.portfolioRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, p *domain.Portfolio) error {
			require.NotNil(t, p.NextChargeAt)
			require.NotNil(t, p.LastChargeAt)
			assert.WithinDuration(t, time.Now().AddDate(0, 1, 0), *p.NextChargeAt, time.Minute)
			return nil
		})
	d.investmentRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletSvc.EXPECT().DebitTx(ctx, tx, gomock.Any()).Return(&domain.Transaction{ID: uuid.New()}, nil)
	d.investmentRepo.EXPECT().AttachTransaction(ctx, tx, gomock.Any(), gomock.Any()).Return(nil)
	d.referralSvc.EXPECT().ProcessTx(ctx, tx, userID, int64(10000)).Return(nil)
	d.userRepo.EXPECT().AddTotalInvested(ctx, tx, userID, int64(10000)).Return(nil)

	result, err := d.svc.CreateTx(ctx, tx, ports.CreateInvestmentRequest{
		UserID:         userID,
		ListingID:      listingID,
		Amount:         10000,
		DurationMonths: 6,
		Occurrence:     domain.OccurrenceRecurring,
		Hash:           "H",
	})
	require.NoError(t, err)
	assert.NotNil(t, result.Portfolio.NextChargeAt)
}

func TestInvestmentService_CreateTx_ReferralFailureAborts(t *testing.T) {
	d := setupInvestmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	listingID := uuid.New()
	tx := &mockTx{}

	d.listingRepo.EXPECT().GetByID(ctx, listingID).Return(&domain.Listing{
		ID: listingID, TokenRate: 1000,
	}, nil)
	d.listingRepo.EXPECT().Reserve(ctx, tx, listingID, userID, int64(50), int64(50000)).Return(true, nil)
	d.portfolioRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.investmentRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletSvc.EXPECT().DebitTx(ctx, tx, gomock.Any()).Return(&domain.Transaction{ID: uuid.New()}, nil)
	d.investmentRepo.EXPECT().AttachTransaction(ctx, tx, gomock.Any(), gomock.Any()).Return(nil)
	d.referralSvc.EXPECT().ProcessTx(ctx, tx, userID, int64(50000)).Return(apperror.InternalError(assert.AnError))
	// No AddTotalInvested: the whole unit of work is aborted.

	result, err := d.svc.CreateTx(ctx, tx, ports.CreateInvestmentRequest{
		UserID: userID, ListingID: listingID, Amount: 50000, DurationMonths: 12, Hash: "H",
	})
	assert.Nil(t, result)
	assertAppError(t, err, "SYS_001")
}

func TestInvestmentService_CreateTx_ExternallyFunded_RecordsCredit(t *testing.T) {
	d := setupInvestmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	listingID := uuid.New()
	tx := &mockTx{}

	d.listingRepo.EXPECT().GetByID(ctx, listingID).Return(&domain.Listing{
		ID: listingID, TokenRate: 1000,
	}, nil)
	d.listingRepo.EXPECT().Reserve(ctx, tx, listingID, userID, int64(50), int64(50000)).Return(true, nil)
	d.portfolioRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.investmentRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	// No wallet debit for an externally settled payment; the recorder writes
	// the credit-side ledger entry directly.
	d.refRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, txn *domain.Transaction) error {
			assert.Equal(t, domain.DirectionCredit, txn.Direction)
			assert.Equal(t, domain.GatewayPaystack, txn.Gateway)
			assert.Equal(t, domain.KindInvestment, txn.Kind)
			require.NotNil(t, txn.PortfolioID)
			require.NotNil(t, txn.InvestmentID)
			return nil
		})
	d.investmentRepo.EXPECT().AttachTransaction(ctx, tx, gomock.Any(), gomock.Any()).Return(nil)
	d.referralSvc.EXPECT().ProcessTx(ctx, tx, userID, int64(50000)).Return(nil)
	d.userRepo.EXPECT().AddTotalInvested(ctx, tx, userID, int64(50000)).Return(nil)

	result, err := d.svc.CreateTx(ctx, tx, ports.CreateInvestmentRequest{
		UserID:           userID,
		ListingID:        listingID,
		Amount:           50000,
		DurationMonths:   12,
		Hash:             "EXT-HASH",
		Reference:        "PS-REF",
		Gateway:          domain.GatewayPaystack,
		Medium:           domain.MediumCard,
		FundedExternally: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusSuccessful, result.Transaction.Status)
}

// ==================== TopUp Tests ====================

func TestInvestmentService_TopUpTx_Success(t *testing.T) {
	d := setupInvestmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	listingID := uuid.New()
	portfolioID := uuid.New()
	tx := &mockTx{}

	d.portfolioRepo.EXPECT().GetByID(ctx, portfolioID).Return(&domain.Portfolio{
		ID: portfolioID, UserID: userID, ListingID: listingID,
		TotalAmount: 50000, Tokens: 50,
		Occurrence: domain.OccurrenceOneTime, Status: domain.PortfolioStatusActive,
		DurationMonths: 12,
	}, nil)
	d.listingRepo.EXPECT().GetByID(ctx, listingID).Return(&domain.Listing{
		ID: listingID, TokenRate: 1000,
	}, nil)
	d.listingRepo.EXPECT().Reserve(ctx, tx, listingID, userID, int64(20), int64(20000)).Return(true, nil)
	d.investmentRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletSvc.EXPECT().DebitTx(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, dr ports.DebitWalletRequest) (*domain.Transaction, error) {
			assert.Equal(t, domain.KindInvestmentTopUp, dr.Kind)
			return &domain.Transaction{ID: uuid.New()}, nil
		})
	d.investmentRepo.EXPECT().AttachTransaction(ctx, tx, gomock.Any(), gomock.Any()).Return(nil)
	// ONE_TIME portfolio: no schedule advance.
	d.portfolioRepo.EXPECT().ApplyTopUp(ctx, tx, portfolioID, int64(20000), int64(20), gomock.Nil(), gomock.Nil()).Return(nil)
	d.userRepo.EXPECT().AddTotalInvested(ctx, tx, userID, int64(20000)).Return(nil)

	result, err := d.svc.TopUpTx(ctx, tx, ports.TopUpInvestmentRequest{
		UserID: userID, PortfolioID: portfolioID, Amount: 20000, Hash: "TOPUP-H",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(70000), result.Portfolio.TotalAmount)
	assert.Equal(t, int64(70), result.Portfolio.Tokens)
}

func TestInvestmentService_TopUpTx_RecurringResumeAdvancesSchedule(t *testing.T) {
	d := setupInvestmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	listingID := uuid.New()
	portfolioID := uuid.New()
	tx := &mockTx{}

	d.portfolioRepo.EXPECT().GetByID(ctx, portfolioID).Return(&domain.Portfolio{
		ID: portfolioID, UserID: userID, ListingID: listingID,
		Occurrence: domain.OccurrenceRecurring, Status: domain.PortfolioStatusResume,
		DurationMonths: 12,
	}, nil)
	d.listingRepo.EXPECT().GetByID(ctx, listingID).Return(&domain.Listing{
		ID: listingID, TokenRate: 1000,
	}, nil)
	d.listingRepo.EXPECT().Reserve(ctx, tx, listingID, userID, int64(10), int64(10000)).Return(true, nil)
	d.investmentRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletSvc.EXPECT().DebitTx(ctx, tx, gomock.Any()).Return(&domain.Transaction{ID: uuid.New()}, nil)
	d.investmentRepo.EXPECT().AttachTransaction(ctx, tx, gomock.Any(), gomock.Any()).Return(nil)
	d.portfolioRepo.EXPECT().ApplyTopUp(ctx, tx, portfolioID, int64(10000), int64(10), gomock.Not(gomock.Nil()), gomock.Not(gomock.Nil())).Return(nil)
	d.userRepo.EXPECT().AddTotalInvested(ctx, tx, userID, int64(10000)).Return(nil)

	result, err := d.svc.TopUpTx(ctx, tx, ports.TopUpInvestmentRequest{
		UserID: userID, PortfolioID: portfolioID, Amount: 10000, Hash: "H",
	})
	require.NoError(t, err)
	assert.NotNil(t, result.Portfolio.NextChargeAt)
}

func TestInvestmentService_TopUpTx_PausedDoesNotAdvanceSchedule(t *testing.T) {
	d := setupInvestmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	listingID := uuid.New()
	portfolioID := uuid.New()
	tx := &mockTx{}

	d.portfolioRepo.EXPECT().GetByID(ctx, portfolioID).Return(&domain.Portfolio{
		ID: portfolioID, UserID: userID, ListingID: listingID,
		Occurrence: domain.OccurrenceRecurring, Status: domain.PortfolioStatusPause,
		DurationMonths: 12,
	}, nil)
	d.listingRepo.EXPECT().GetByID(ctx, listingID).Return(&domain.Listing{
		ID: listingID, TokenRate: 1000,
	}, nil)
	d.listingRepo.EXPECT().Reserve(ctx, tx, listingID, userID, int64(10), int64(10000)).Return(true, nil)
	d.investmentRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletSvc.EXPECT().DebitTx(ctx, tx, gomock.Any()).Return(&domain.Transaction{ID: uuid.New()}, nil)
	d.investmentRepo.EXPECT().AttachTransaction(ctx, tx, gomock.Any(), gomock.Any()).Return(nil)
	d.portfolioRepo.EXPECT().ApplyTopUp(ctx, tx, portfolioID, int64(10000), int64(10), gomock.Nil(), gomock.Nil()).Return(nil)
	d.userRepo.EXPECT().AddTotalInvested(ctx, tx, userID, int64(10000)).Return(nil)

	_, err := d.svc.TopUpTx(ctx, tx, ports.TopUpInvestmentRequest{
		UserID: userID, PortfolioID: portfolioID, Amount: 10000, Hash: "H",
	})
	require.NoError(t, err)
}

func TestInvestmentService_TopUpTx_WrongOwner(t *testing.T) {
	d := setupInvestmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	portfolioID := uuid.New()

	d.portfolioRepo.EXPECT().GetByID(ctx, portfolioID).Return(&domain.Portfolio{
		ID: portfolioID, UserID: uuid.New(),
	}, nil)

	result, err := d.svc.TopUpTx(ctx, &mockTx{}, ports.TopUpInvestmentRequest{
		UserID: uuid.New(), PortfolioID: portfolioID, Amount: 10000, Hash: "H",
	})
	assert.Nil(t, result)
	assertAppError(t, err, "INV_003")
}

// ==================== Pause / Resume Tests ====================

func TestInvestmentService_Pause_Success(t *testing.T) {
	d := setupInvestmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	portfolioID := uuid.New()

	d.portfolioRepo.EXPECT().GetByID(ctx, portfolioID).Return(&domain.Portfolio{
		ID: portfolioID, UserID: userID, Status: domain.PortfolioStatusActive,
	}, nil)
	d.portfolioRepo.EXPECT().UpdateStatus(ctx, portfolioID, domain.PortfolioStatusPause).Return(nil)

	portfolio, err := d.svc.Pause(ctx, userID, portfolioID)
	require.NoError(t, err)
	assert.Equal(t, domain.PortfolioStatusPause, portfolio.Status)
}

func TestInvestmentService_Resume_Success(t *testing.T) {
	d := setupInvestmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	portfolioID := uuid.New()

	d.portfolioRepo.EXPECT().GetByID(ctx, portfolioID).Return(&domain.Portfolio{
		ID: portfolioID, UserID: userID, Status: domain.PortfolioStatusPause,
	}, nil)
	d.portfolioRepo.EXPECT().UpdateStatus(ctx, portfolioID, domain.PortfolioStatusResume).Return(nil)

	portfolio, err := d.svc.Resume(ctx, userID, portfolioID)
	require.NoError(t, err)
	assert.Equal(t, domain.PortfolioStatusResume, portfolio.Status)
}

func TestInvestmentService_Pause_AlreadyPaused(t *testing.T) {
	d := setupInvestmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	portfolioID := uuid.New()

	d.portfolioRepo.EXPECT().GetByID(ctx, portfolioID).Return(&domain.Portfolio{
		ID: portfolioID, UserID: userID, Status: domain.PortfolioStatusPause,
	}, nil)

	portfolio, err := d.svc.Pause(ctx, userID, portfolioID)
	assert.Nil(t, portfolio)
	assertAppError(t, err, "INV_004")
}

func TestInvestmentService_Resume_NotPaused(t *testing.T) {
	d := setupInvestmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	portfolioID := uuid.New()

	d.portfolioRepo.EXPECT().GetByID(ctx, portfolioID).Return(&domain.Portfolio{
		ID: portfolioID, UserID: userID, Status: domain.PortfolioStatusActive,
	}, nil)

	portfolio, err := d.svc.Resume(ctx, userID, portfolioID)
	assert.Nil(t, portfolio)
	assertAppError(t, err, "INV_004")
}

func TestInvestmentService_Pause_NotFound(t *testing.T) {
	d := setupInvestmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	portfolioID := uuid.New()

	d.portfolioRepo.EXPECT().GetByID(ctx, portfolioID).Return(nil, nil)

	portfolio, err := d.svc.Pause(ctx, uuid.New(), portfolioID)
	assert.Nil(t, portfolio)
	assertAppError(t, err, "INV_003")
}
