package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invest-ledger/internal/core/domain"
	"invest-ledger/internal/core/ports"
	"invest-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// WalletServiceImpl implements ports.WalletService. Every mutation composes
// the ledger primitive with the transaction recorder inside one pgx.Tx; the
// Tx variants run in a caller-supplied unit of work so reconciliation and
// investment flows can fold wallet movements into their own commit.
type WalletServiceImpl struct {
	accountRepo ports.AccountRepository
	userRepo    ports.UserRepository
	recorder    *TransactionRecorder
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	accountRepo ports.AccountRepository,
	userRepo ports.UserRepository,
	recorder *TransactionRecorder,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		accountRepo: accountRepo,
		userRepo:    userRepo,
		recorder:    recorder,
		transactor:  transactor,
		log:         log,
	}
}

// Credit funds a user's main wallet in its own unit of work.
func (s *WalletServiceImpl) Credit(ctx context.Context, req ports.CreditWalletRequest) (*domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := s.CreditTx(ctx, dbTx, req)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit credit: %w", err))
	}
	return txn, nil
}

// CreditTx funds a user's main wallet inside the caller's unit of work.
// The wallet account is created on first funding.
func (s *WalletServiceImpl) CreditTx(ctx context.Context, dbTx pgx.Tx, req ports.CreditWalletRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Hash == "" {
		return nil, apperror.Validation("transaction hash is required")
	}

	account, err := s.accountRepo.GetByUser(ctx, req.UserID, domain.AccountKindMain)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load account: %w", err))
	}
	if account == nil {
		account, err = s.createAccount(ctx, dbTx, req.UserID, domain.AccountKindMain)
		if err != nil {
			return nil, err
		}
	}

	snap, err := s.accountRepo.Credit(ctx, dbTx, account.ID, req.Amount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit account: %w", err))
	}
	if snap == nil {
		return nil, apperror.ErrAccountNotFound()
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:            uuid.New(),
		UserID:        req.UserID,
		AccountID:     &account.ID,
		Amount:        req.Amount,
		Direction:     domain.DirectionCredit,
		Medium:        req.Medium,
		Gateway:       req.Gateway,
		Status:        domain.TransactionStatusSuccessful,
		Kind:          req.Kind,
		BalanceBefore: &snap.Before,
		BalanceAfter:  &snap.After,
		Hash:          req.Hash,
		Reference:     req.Reference,
		GatewayData:   req.RawPayload,
		CreatedAt:     now,
		ProcessedAt:   &now,
	}
	if err := s.record(ctx, dbTx, txn); err != nil {
		return nil, err
	}

	if err := s.userRepo.AddTotalFunded(ctx, dbTx, req.UserID, req.Amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("bump total funded: %w", err))
	}

	s.log.Info().
		Str("user_id", req.UserID.String()).
		Int64("amount", req.Amount).
		Int64("balance_after", snap.After).
		Str("hash", req.Hash).
		Msg("wallet credited")
	return txn, nil
}

// Debit spends from a user's main wallet in its own unit of work.
func (s *WalletServiceImpl) Debit(ctx context.Context, req ports.DebitWalletRequest) (*domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := s.DebitTx(ctx, dbTx, req)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit debit: %w", err))
	}
	return txn, nil
}

// DebitTx spends from a user's main wallet inside the caller's unit of work.
func (s *WalletServiceImpl) DebitTx(ctx context.Context, dbTx pgx.Tx, req ports.DebitWalletRequest) (*domain.Transaction, error) {
	return s.debit(ctx, dbTx, req, domain.AccountKindMain, domain.GatewayWallet)
}

// DebitReferralTx spends from a user's referral wallet inside the caller's
// unit of work.
func (s *WalletServiceImpl) DebitReferralTx(ctx context.Context, dbTx pgx.Tx, req ports.DebitWalletRequest) (*domain.Transaction, error) {
	return s.debit(ctx, dbTx, req, domain.AccountKindReferral, domain.GatewayReferralWallet)
}

func (s *WalletServiceImpl) debit(ctx context.Context, dbTx pgx.Tx, req ports.DebitWalletRequest, kind domain.AccountKind, gateway domain.Gateway) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Hash == "" {
		return nil, apperror.Validation("transaction hash is required")
	}

	account, err := s.accountRepo.GetByUser(ctx, req.UserID, kind)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}

	snap, err := s.accountRepo.Debit(ctx, dbTx, account.ID, req.Amount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit account: %w", err))
	}
	if snap == nil {
		// The guarded UPDATE matched no row: balance < amount.
		return nil, apperror.ErrInsufficientFunds()
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:            uuid.New(),
		UserID:        req.UserID,
		AccountID:     &account.ID,
		Amount:        req.Amount,
		Direction:     domain.DirectionDebit,
		Medium:        domain.MediumWallet,
		Gateway:       gateway,
		Status:        domain.TransactionStatusSuccessful,
		Kind:          req.Kind,
		BalanceBefore: &snap.Before,
		BalanceAfter:  &snap.After,
		PortfolioID:   req.PortfolioID,
		InvestmentID:  req.InvestmentID,
		Hash:          req.Hash,
		Reference:     req.Reference,
		CreatedAt:     now,
		ProcessedAt:   &now,
	}
	if err := s.record(ctx, dbTx, txn); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", req.UserID.String()).
		Str("account_kind", string(kind)).
		Int64("amount", req.Amount).
		Int64("balance_after", snap.After).
		Str("hash", req.Hash).
		Msg("wallet debited")
	return txn, nil
}

// Balance returns the user's main wallet account.
func (s *WalletServiceImpl) Balance(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	account, err := s.accountRepo.GetByUser(ctx, userID, domain.AccountKindMain)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	return account, nil
}

func (s *WalletServiceImpl) createAccount(ctx context.Context, dbTx pgx.Tx, userID uuid.UUID, kind domain.AccountKind) (*domain.Account, error) {
	now := time.Now().UTC()
	account := &domain.Account{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Currency:  "NGN",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.accountRepo.Create(ctx, dbTx, account); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, apperror.ErrDuplicateTransaction()
		}
		return nil, apperror.InternalError(fmt.Errorf("create account: %w", err))
	}
	return account, nil
}

func (s *WalletServiceImpl) record(ctx context.Context, dbTx pgx.Tx, txn *domain.Transaction) error {
	if err := s.recorder.Record(ctx, dbTx, txn); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return apperror.ErrDuplicateTransaction()
		}
		return apperror.InternalError(err)
	}
	return nil
}
