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

// InvestmentServiceImpl implements ports.InvestmentService. Creating or
// topping up an investment is one unit of work: listing inventory reserve,
// portfolio/investment records, the funding transaction and the referral
// bonus all commit together or not at all.
type InvestmentServiceImpl struct {
	listingRepo    ports.ListingRepository
	portfolioRepo  ports.PortfolioRepository
	investmentRepo ports.InvestmentRepository
	userRepo       ports.UserRepository
	walletSvc      ports.WalletService
	referralSvc    ports.ReferralService
	recorder       *TransactionRecorder
	transactor     ports.DBTransactor
	notifier       ports.NotificationQueue
	log            zerolog.Logger
}

// NewInvestmentService creates a new InvestmentServiceImpl.
func NewInvestmentService(
	listingRepo ports.ListingRepository,
	portfolioRepo ports.PortfolioRepository,
	investmentRepo ports.InvestmentRepository,
	userRepo ports.UserRepository,
	walletSvc ports.WalletService,
	referralSvc ports.ReferralService,
	recorder *TransactionRecorder,
	transactor ports.DBTransactor,
	notifier ports.NotificationQueue,
	log zerolog.Logger,
) *InvestmentServiceImpl {
	return &InvestmentServiceImpl{
		listingRepo:    listingRepo,
		portfolioRepo:  portfolioRepo,
		investmentRepo: investmentRepo,
		userRepo:       userRepo,
		walletSvc:      walletSvc,
		referralSvc:    referralSvc,
		recorder:       recorder,
		transactor:     transactor,
		notifier:       notifier,
		log:            log,
	}
}

// CreateFromWallet creates a wallet-funded investment in its own unit of work.
func (s *InvestmentServiceImpl) CreateFromWallet(ctx context.Context, req ports.CreateInvestmentRequest) (*ports.InvestmentResult, error) {
	req.FundedExternally = false
	req.Gateway = domain.GatewayWallet
	req.Medium = domain.MediumWallet

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	result, err := s.CreateTx(ctx, dbTx, req)
	if err != nil {
		return nil, err
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit investment: %w", err))
	}

	s.notify(ctx, "investment_created", result)
	return result, nil
}

// TopUpFromWallet tops up a wallet-funded investment in its own unit of work.
func (s *InvestmentServiceImpl) TopUpFromWallet(ctx context.Context, req ports.TopUpInvestmentRequest) (*ports.InvestmentResult, error) {
	req.FundedExternally = false
	req.Gateway = domain.GatewayWallet
	req.Medium = domain.MediumWallet

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	result, err := s.TopUpTx(ctx, dbTx, req)
	if err != nil {
		return nil, err
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit topup: %w", err))
	}

	s.notify(ctx, "investment_topped_up", result)
	return result, nil
}

// CreateTx creates an investment inside the caller's unit of work.
// Unless the payment already settled with an external gateway, the amount is
// debited from the user's main wallet in the same transaction.
func (s *InvestmentServiceImpl) CreateTx(ctx context.Context, dbTx pgx.Tx, req ports.CreateInvestmentRequest) (*ports.InvestmentResult, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.DurationMonths <= 0 {
		return nil, apperror.Validation("duration_months must be positive")
	}
	occurrence := req.Occurrence
	if occurrence == "" {
		occurrence = domain.OccurrenceOneTime
	}

	listing, err := s.listingRepo.GetByID(ctx, req.ListingID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load listing: %w", err))
	}
	if listing == nil {
		return nil, apperror.ErrListingNotFound()
	}

	tokens := listing.TokensFor(req.Amount)
	if tokens <= 0 {
		return nil, apperror.Validation("amount buys zero tokens at this listing's rate")
	}

	ok, err := s.listingRepo.Reserve(ctx, dbTx, listing.ID, req.UserID, tokens, req.Amount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("reserve listing tokens: %w", err))
	}
	if !ok {
		return nil, apperror.ErrInsufficientTokens()
	}

	now := time.Now().UTC()
	portfolio := &domain.Portfolio{
		ID:             uuid.New(),
		UserID:         req.UserID,
		ListingID:      listing.ID,
		TotalAmount:    req.Amount,
		Tokens:         tokens,
		Occurrence:     occurrence,
		Status:         domain.PortfolioStatusActive,
		DurationMonths: req.DurationMonths,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if occurrence == domain.OccurrenceRecurring {
		next := now.AddDate(0, 1, 0)
		portfolio.NextChargeAt = &next
		portfolio.LastChargeAt = &now
	}
	if err := s.portfolioRepo.Create(ctx, dbTx, portfolio); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create portfolio: %w", err))
	}

	investment := &domain.Investment{
		ID:           uuid.New(),
		PortfolioID:  portfolio.ID,
		UserID:       req.UserID,
		Amount:       req.Amount,
		Tokens:       tokens,
		StartDate:    now,
		EndDate:      now.AddDate(0, req.DurationMonths, 0),
		AutoReinvest: req.AutoReinvest,
		CreatedAt:    now,
	}
	if err := s.investmentRepo.Create(ctx, dbTx, investment); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create investment: %w", err))
	}

	txn, err := s.fund(ctx, dbTx, fundParams{
		userID:       req.UserID,
		amount:       req.Amount,
		hash:         req.Hash,
		reference:    req.Reference,
		gateway:      req.Gateway,
		medium:       req.Medium,
		kind:         domain.KindInvestment,
		external:     req.FundedExternally,
		portfolioID:  portfolio.ID,
		investmentID: investment.ID,
		rawPayload:   req.RawPayload,
	})
	if err != nil {
		return nil, err
	}
	if err := s.investmentRepo.AttachTransaction(ctx, dbTx, investment.ID, txn.ID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("attach transaction: %w", err))
	}
	investment.TransactionID = &txn.ID

	// Mandatory for commit: a referral failure aborts the investment.
	if err := s.referralSvc.ProcessTx(ctx, dbTx, req.UserID, req.Amount); err != nil {
		return nil, err
	}

	if err := s.userRepo.AddTotalInvested(ctx, dbTx, req.UserID, req.Amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("bump total invested: %w", err))
	}

	s.log.Info().
		Str("user_id", req.UserID.String()).
		Str("portfolio_id", portfolio.ID.String()).
		Int64("amount", req.Amount).
		Int64("tokens", tokens).
		Msg("investment created")

	return &ports.InvestmentResult{Portfolio: portfolio, Investment: investment, Transaction: txn}, nil
}

// TopUpTx adds a funding tranche to an existing portfolio inside the
// caller's unit of work. The recurring charge schedule advances only for a
// RECURRING portfolio in RESUME; a paused one tops up without moving it.
func (s *InvestmentServiceImpl) TopUpTx(ctx context.Context, dbTx pgx.Tx, req ports.TopUpInvestmentRequest) (*ports.InvestmentResult, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	portfolio, err := s.portfolioRepo.GetByID(ctx, req.PortfolioID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load portfolio: %w", err))
	}
	if portfolio == nil || portfolio.UserID != req.UserID {
		return nil, apperror.ErrPortfolioNotFound()
	}

	listing, err := s.listingRepo.GetByID(ctx, portfolio.ListingID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load listing: %w", err))
	}
	if listing == nil {
		return nil, apperror.ErrListingNotFound()
	}

	tokens := listing.TokensFor(req.Amount)
	if tokens <= 0 {
		return nil, apperror.Validation("amount buys zero tokens at this listing's rate")
	}

	ok, err := s.listingRepo.Reserve(ctx, dbTx, listing.ID, req.UserID, tokens, req.Amount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("reserve listing tokens: %w", err))
	}
	if !ok {
		return nil, apperror.ErrInsufficientTokens()
	}

	now := time.Now().UTC()
	investment := &domain.Investment{
		ID:          uuid.New(),
		PortfolioID: portfolio.ID,
		UserID:      req.UserID,
		Amount:      req.Amount,
		Tokens:      tokens,
		StartDate:   now,
		EndDate:     now.AddDate(0, portfolio.DurationMonths, 0),
		CreatedAt:   now,
	}
	if err := s.investmentRepo.Create(ctx, dbTx, investment); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create investment: %w", err))
	}

	txn, err := s.fund(ctx, dbTx, fundParams{
		userID:       req.UserID,
		amount:       req.Amount,
		hash:         req.Hash,
		reference:    req.Reference,
		gateway:      req.Gateway,
		medium:       req.Medium,
		kind:         domain.KindInvestmentTopUp,
		external:     req.FundedExternally,
		portfolioID:  portfolio.ID,
		investmentID: investment.ID,
		rawPayload:   req.RawPayload,
	})
	if err != nil {
		return nil, err
	}
	if err := s.investmentRepo.AttachTransaction(ctx, dbTx, investment.ID, txn.ID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("attach transaction: %w", err))
	}
	investment.TransactionID = &txn.ID

	var nextChargeAt, lastChargeAt *time.Time
	if portfolio.Occurrence == domain.OccurrenceRecurring && portfolio.Status == domain.PortfolioStatusResume {
		next := now.AddDate(0, 1, 0)
		nextChargeAt = &next
		lastChargeAt = &now
	}
	if err := s.portfolioRepo.ApplyTopUp(ctx, dbTx, portfolio.ID, req.Amount, tokens, nextChargeAt, lastChargeAt); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("apply topup: %w", err))
	}
	portfolio.TotalAmount += req.Amount
	portfolio.Tokens += tokens
	if nextChargeAt != nil {
		portfolio.NextChargeAt = nextChargeAt
		portfolio.LastChargeAt = lastChargeAt
	}

	if err := s.userRepo.AddTotalInvested(ctx, dbTx, req.UserID, req.Amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("bump total invested: %w", err))
	}

	s.log.Info().
		Str("user_id", req.UserID.String()).
		Str("portfolio_id", portfolio.ID.String()).
		Int64("amount", req.Amount).
		Int64("tokens", tokens).
		Msg("investment topped up")

	return &ports.InvestmentResult{Portfolio: portfolio, Investment: investment, Transaction: txn}, nil
}

// Pause suspends a portfolio's recurring schedule.
func (s *InvestmentServiceImpl) Pause(ctx context.Context, userID, portfolioID uuid.UUID) (*domain.Portfolio, error) {
	return s.transition(ctx, userID, portfolioID, domain.PortfolioStatusPause)
}

// Resume reactivates a paused portfolio.
func (s *InvestmentServiceImpl) Resume(ctx context.Context, userID, portfolioID uuid.UUID) (*domain.Portfolio, error) {
	return s.transition(ctx, userID, portfolioID, domain.PortfolioStatusResume)
}

func (s *InvestmentServiceImpl) transition(ctx context.Context, userID, portfolioID uuid.UUID, target domain.PortfolioStatus) (*domain.Portfolio, error) {
	portfolio, err := s.portfolioRepo.GetByID(ctx, portfolioID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load portfolio: %w", err))
	}
	if portfolio == nil || portfolio.UserID != userID {
		return nil, apperror.ErrPortfolioNotFound()
	}

	allowed := false
	switch target {
	case domain.PortfolioStatusPause:
		allowed = portfolio.Status.CanPause()
	case domain.PortfolioStatusResume:
		allowed = portfolio.Status.CanResume()
	}
	if !allowed {
		return nil, apperror.ErrInvalidPortfolioState(string(portfolio.Status))
	}

	if err := s.portfolioRepo.UpdateStatus(ctx, portfolio.ID, target); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update portfolio status: %w", err))
	}
	portfolio.Status = target

	s.log.Info().
		Str("portfolio_id", portfolio.ID.String()).
		Str("status", string(target)).
		Msg("portfolio status changed")
	return portfolio, nil
}

type fundParams struct {
	userID       uuid.UUID
	amount       int64
	hash         string
	reference    string
	gateway      domain.Gateway
	medium       domain.Medium
	kind         domain.TransactionKind
	external     bool
	portfolioID  uuid.UUID
	investmentID uuid.UUID
	rawPayload   []byte
}

// fund settles the tranche: an internal wallet debit, or a recorded
// transaction for a payment that already settled with an external gateway.
func (s *InvestmentServiceImpl) fund(ctx context.Context, dbTx pgx.Tx, p fundParams) (*domain.Transaction, error) {
	if p.external {
		now := time.Now().UTC()
		txn := &domain.Transaction{
			ID:           uuid.New(),
			UserID:       p.userID,
			Amount:       p.amount,
			Direction:    domain.DirectionCredit,
			Medium:       p.medium,
			Gateway:      p.gateway,
			Status:       domain.TransactionStatusSuccessful,
			Kind:         p.kind,
			PortfolioID:  &p.portfolioID,
			InvestmentID: &p.investmentID,
			Hash:         p.hash,
			Reference:    p.reference,
			GatewayData:  p.rawPayload,
			CreatedAt:    now,
			ProcessedAt:  &now,
		}
		if err := s.recorder.Record(ctx, dbTx, txn); err != nil {
			if errors.Is(err, domain.ErrDuplicateKey) {
				return nil, apperror.ErrDuplicateTransaction()
			}
			return nil, apperror.InternalError(err)
		}
		return txn, nil
	}

	return s.walletSvc.DebitTx(ctx, dbTx, ports.DebitWalletRequest{
		UserID:       p.userID,
		Amount:       p.amount,
		Hash:         p.hash,
		Reference:    p.reference,
		Kind:         p.kind,
		PortfolioID:  &p.portfolioID,
		InvestmentID: &p.investmentID,
	})
}

func (s *InvestmentServiceImpl) notify(ctx context.Context, job string, result *ports.InvestmentResult) {
	if err := s.notifier.Enqueue(ctx, job, result); err != nil {
		s.log.Warn().Err(err).Str("job", job).Msg("notification enqueue failed")
	}
}
