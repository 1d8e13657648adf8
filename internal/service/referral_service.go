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
	"github.com/shopspring/decimal"
)

// ReferralServiceImpl implements ports.ReferralService. It pays the
// first-investment bonus into the referrer's referral wallet, at most once
// per investor. The conditional has_invested flip is the only gate; because
// it runs inside the investment's own unit of work, two racing first
// investments cannot both pay out.
type ReferralServiceImpl struct {
	userRepo     ports.UserRepository
	accountRepo  ports.AccountRepository
	recorder     *TransactionRecorder
	bonusPercent decimal.Decimal
	log          zerolog.Logger
}

// NewReferralService creates a new ReferralServiceImpl. bonusPercent is the
// configured percentage, e.g. "5" for 5%.
func NewReferralService(
	userRepo ports.UserRepository,
	accountRepo ports.AccountRepository,
	recorder *TransactionRecorder,
	bonusPercent string,
	log zerolog.Logger,
) (*ReferralServiceImpl, error) {
	percent, err := decimal.NewFromString(bonusPercent)
	if err != nil {
		return nil, fmt.Errorf("parse referral bonus percent %q: %w", bonusPercent, err)
	}
	return &ReferralServiceImpl{
		userRepo:     userRepo,
		accountRepo:  accountRepo,
		recorder:     recorder,
		bonusPercent: percent,
		log:          log,
	}, nil
}

// ProcessTx pays the referral bonus for an investor's first investment,
// inside the investment's unit of work. A failure here aborts the whole
// investment; the bonus is mandatory for commit.
func (s *ReferralServiceImpl) ProcessTx(ctx context.Context, dbTx pgx.Tx, investorID uuid.UUID, amount int64) error {
	investor, err := s.userRepo.GetByID(ctx, investorID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("load investor: %w", err))
	}
	if investor == nil || investor.ReferredBy == nil || investor.HasInvested {
		return nil
	}

	first, err := s.userRepo.MarkFirstInvestment(ctx, dbTx, investorID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("mark first investment: %w", err))
	}
	if !first {
		// A concurrent first investment won the flip.
		return nil
	}

	referrerID := *investor.ReferredBy
	if err := s.userRepo.IncrementReferralInvested(ctx, dbTx, referrerID); err != nil {
		return apperror.InternalError(fmt.Errorf("bump referrer counter: %w", err))
	}

	bonus := decimal.NewFromInt(amount).
		Mul(s.bonusPercent).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
	if bonus <= 0 {
		return nil
	}

	snap, err := s.creditReferralWallet(ctx, dbTx, referrerID, bonus)
	if err != nil {
		return err
	}

	// One bonus per investor, so the investor id keys the idempotency hash.
	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:            uuid.New(),
		UserID:        referrerID,
		Amount:        bonus,
		Direction:     domain.DirectionCredit,
		Medium:        domain.MediumWallet,
		Gateway:       domain.GatewayReferralWallet,
		Status:        domain.TransactionStatusSuccessful,
		Kind:          domain.KindReferralBonus,
		BalanceBefore: &snap.Before,
		BalanceAfter:  &snap.After,
		Hash:          "REFERRAL-" + investorID.String(),
		CreatedAt:     now,
		ProcessedAt:   &now,
	}
	if err := s.recorder.Record(ctx, dbTx, txn); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return apperror.ErrDuplicateTransaction()
		}
		return apperror.InternalError(err)
	}

	s.log.Info().
		Str("investor_id", investorID.String()).
		Str("referrer_id", referrerID.String()).
		Int64("bonus", bonus).
		Msg("referral bonus credited")
	return nil
}

// creditReferralWallet credits the referrer's referral wallet, creating it
// seeded with the bonus when it does not exist yet.
func (s *ReferralServiceImpl) creditReferralWallet(ctx context.Context, dbTx pgx.Tx, referrerID uuid.UUID, bonus int64) (*domain.BalanceSnapshot, error) {
	account, err := s.accountRepo.GetByUser(ctx, referrerID, domain.AccountKindReferral)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load referral wallet: %w", err))
	}

	if account == nil {
		now := time.Now().UTC()
		account = &domain.Account{
			ID:               uuid.New(),
			UserID:           referrerID,
			Kind:             domain.AccountKindReferral,
			Balance:          bonus,
			TotalCredited:    bonus,
			CreditCount:      1,
			LastCreditAmount: bonus,
			LastCreditAt:     &now,
			Currency:         "NGN",
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.accountRepo.Create(ctx, dbTx, account); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create referral wallet: %w", err))
		}
		return &domain.BalanceSnapshot{Before: 0, After: bonus}, nil
	}

	snap, err := s.accountRepo.Credit(ctx, dbTx, account.ID, bonus)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit referral wallet: %w", err))
	}
	if snap == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	return snap, nil
}
