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

const webhookDedupTTL = 24 * time.Hour

// successAction is the one event type per platform that settles a payment.
// Anything else is acknowledged but not processed.
var successAction = map[domain.Platform]string{
	domain.PlatformPaystack:    "charge.success",
	domain.PlatformFlutterwave: "charge.completed",
	domain.PlatformMono:        "direct_debit.payment_successful",
}

// ReconcileServiceImpl implements ports.ReconcileService. All idempotency
// and authenticity checks run strictly before any balance mutation; the
// sub-flow dispatch and the webhook receipt commit in one unit of work.
type ReconcileServiceImpl struct {
	gateways    map[domain.Platform]ports.GatewayClient
	dedup       ports.WebhookDedupStore
	receiptRepo ports.WebhookReceiptRepository
	txRepo      ports.TransactionRepository
	refRepo     ports.TransactionRefRepository
	userRepo    ports.UserRepository
	cardRepo    ports.CardRepository
	walletSvc   ports.WalletService
	investSvc   ports.InvestmentService
	transactor  ports.DBTransactor
	notifier    ports.NotificationQueue
	log         zerolog.Logger
}

// NewReconcileService creates a new ReconcileServiceImpl.
func NewReconcileService(
	gateways []ports.GatewayClient,
	dedup ports.WebhookDedupStore,
	receiptRepo ports.WebhookReceiptRepository,
	txRepo ports.TransactionRepository,
	refRepo ports.TransactionRefRepository,
	userRepo ports.UserRepository,
	cardRepo ports.CardRepository,
	walletSvc ports.WalletService,
	investSvc ports.InvestmentService,
	transactor ports.DBTransactor,
	notifier ports.NotificationQueue,
	log zerolog.Logger,
) *ReconcileServiceImpl {
	byPlatform := make(map[domain.Platform]ports.GatewayClient, len(gateways))
	for _, g := range gateways {
		byPlatform[g.Platform()] = g
	}
	return &ReconcileServiceImpl{
		gateways:    byPlatform,
		dedup:       dedup,
		receiptRepo: receiptRepo,
		txRepo:      txRepo,
		refRepo:     refRepo,
		userRepo:    userRepo,
		cardRepo:    cardRepo,
		walletSvc:   walletSvc,
		investSvc:   investSvc,
		transactor:  transactor,
		notifier:    notifier,
		log:         log,
	}
}

// Process reconciles one signature-verified webhook delivery.
func (s *ReconcileServiceImpl) Process(ctx context.Context, req ports.WebhookRequest) error {
	client, ok := s.gateways[req.Platform]
	if !ok {
		return apperror.InternalError(fmt.Errorf("no gateway client for platform %s", req.Platform))
	}
	if req.Action != successAction[req.Platform] {
		return apperror.ErrUnknownWebhookAction()
	}

	// Fast-path dedup. Redis being down only costs us the shortcut; the
	// receipt table still rejects the duplicate.
	fresh, err := s.dedup.CheckAndSet(ctx, req.Platform, req.EventID, webhookDedupTTL)
	if err != nil {
		s.log.Warn().Err(err).Str("event_id", req.EventID).Msg("webhook dedup store unavailable, falling through to DB")
	} else if !fresh {
		return apperror.ErrDuplicateWebhook()
	}

	seen, err := s.receiptRepo.Exists(ctx, req.Platform, req.EventID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("check webhook receipt: %w", err))
	}
	if seen {
		return apperror.ErrDuplicateWebhook()
	}

	verification, err := client.VerifyTransaction(ctx, req.Reference)
	if err != nil {
		s.log.Error().Err(err).
			Str("platform", string(req.Platform)).
			Str("reference", req.Reference).
			Msg("gateway verification call failed")
		return apperror.ErrGatewayVerificationFailed()
	}
	if !verification.Succeeded {
		s.recordFailure(ctx, req, verification)
		return apperror.ErrGatewayVerificationFailed()
	}

	intent := verification.Intent
	user, err := s.userRepo.GetByID(ctx, intent.UserID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("load user: %w", err))
	}
	if user == nil {
		return apperror.ErrNotFound("user")
	}

	if err := s.checkIdempotency(ctx, intent.Hash, req.Reference); err != nil {
		return err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.createReceipt(ctx, dbTx, req); err != nil {
		return err
	}

	if err := s.dispatch(ctx, dbTx, req, verification); err != nil {
		return err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit reconciliation: %w", err))
	}

	if err := s.notifier.Enqueue(ctx, "payment_reconciled", map[string]any{
		"platform":  req.Platform,
		"event_id":  req.EventID,
		"reference": req.Reference,
		"user_id":   intent.UserID,
		"amount":    intent.Amount,
		"flow":      intent.To,
	}); err != nil {
		s.log.Warn().Err(err).Str("event_id", req.EventID).Msg("notification enqueue failed")
	}

	s.log.Info().
		Str("platform", string(req.Platform)).
		Str("event_id", req.EventID).
		Str("flow", string(intent.To)).
		Int64("amount", intent.Amount).
		Msg("webhook reconciled")
	return nil
}

// checkIdempotency rejects a hash or reference that already settled. These
// reads happen before the unit of work opens; the unique constraints behind
// createReceipt and the recorder close the remaining race window.
func (s *ReconcileServiceImpl) checkIdempotency(ctx context.Context, hash, reference string) error {
	exists, err := s.txRepo.ExistsByHash(ctx, hash)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("check transaction hash: %w", err))
	}
	if exists {
		return apperror.ErrDuplicateTransaction()
	}

	exists, err = s.refRepo.ExistsByHash(ctx, hash)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("check transaction ref hash: %w", err))
	}
	if exists {
		return apperror.ErrDuplicateTransaction()
	}

	exists, err = s.txRepo.ExistsByReference(ctx, reference)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("check payment reference: %w", err))
	}
	if exists {
		return apperror.ErrDuplicateReference()
	}
	return nil
}

func (s *ReconcileServiceImpl) createReceipt(ctx context.Context, dbTx pgx.Tx, req ports.WebhookRequest) error {
	receipt := &domain.WebhookReceipt{
		ID:        uuid.New(),
		Platform:  req.Platform,
		Action:    req.Action,
		EventID:   req.EventID,
		Payload:   req.RawPayload,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.receiptRepo.Create(ctx, dbTx, receipt); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return apperror.ErrDuplicateWebhook()
		}
		return apperror.InternalError(fmt.Errorf("create webhook receipt: %w", err))
	}
	return nil
}

// dispatch routes the verified payment to its sub-flow. The switch is
// exhaustive over domain.TransactionTo.
func (s *ReconcileServiceImpl) dispatch(ctx context.Context, dbTx pgx.Tx, req ports.WebhookRequest, v *ports.GatewayVerification) error {
	intent := v.Intent
	gateway := gatewayFor(req.Platform)
	medium := mediumFor(req.Platform)

	switch intent.To {
	case domain.ToWallet:
		_, err := s.walletSvc.CreditTx(ctx, dbTx, ports.CreditWalletRequest{
			UserID:     intent.UserID,
			Amount:     intent.Amount,
			Hash:       intent.Hash,
			Reference:  intent.Reference,
			Gateway:    gateway,
			Medium:     medium,
			Kind:       domain.KindWalletFunding,
			RawPayload: v.Raw,
		})
		return err

	case domain.ToAddCard:
		if intent.Card == nil {
			return apperror.Validation("card authorization missing from verified payload")
		}
		_, err := s.walletSvc.CreditTx(ctx, dbTx, ports.CreditWalletRequest{
			UserID:     intent.UserID,
			Amount:     intent.Amount,
			Hash:       intent.Hash,
			Reference:  intent.Reference,
			Gateway:    gateway,
			Medium:     medium,
			Kind:       domain.KindCardFunding,
			RawPayload: v.Raw,
		})
		if err != nil {
			return err
		}
		card := &domain.Card{
			ID:        uuid.New(),
			UserID:    intent.UserID,
			Gateway:   gateway,
			AuthToken: intent.Card.Token,
			Last4:     intent.Card.Last4,
			CardType:  intent.Card.CardType,
			ExpMonth:  intent.Card.ExpMonth,
			ExpYear:   intent.Card.ExpYear,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.cardRepo.Create(ctx, dbTx, card); err != nil {
			if errors.Is(err, domain.ErrDuplicateKey) {
				// Same card token stored before; funding still stands.
				return nil
			}
			return apperror.InternalError(fmt.Errorf("store card: %w", err))
		}
		return nil

	case domain.ToInvestment:
		_, err := s.investSvc.CreateTx(ctx, dbTx, ports.CreateInvestmentRequest{
			UserID:           intent.UserID,
			ListingID:        intent.ListingID,
			Amount:           intent.Amount,
			DurationMonths:   intent.DurationMonth,
			Occurrence:       intent.Occurrence,
			AutoReinvest:     intent.AutoReinvest,
			Hash:             intent.Hash,
			Reference:        intent.Reference,
			Gateway:          gateway,
			Medium:           medium,
			FundedExternally: true,
			RawPayload:       v.Raw,
		})
		return err

	case domain.ToInvestmentTopUp:
		_, err := s.investSvc.TopUpTx(ctx, dbTx, ports.TopUpInvestmentRequest{
			UserID:           intent.UserID,
			PortfolioID:      intent.PortfolioID,
			Amount:           intent.Amount,
			Hash:             intent.Hash,
			Reference:        intent.Reference,
			Gateway:          gateway,
			Medium:           medium,
			FundedExternally: true,
			RawPayload:       v.Raw,
		})
		return err

	default:
		return apperror.ErrUnknownWebhookAction()
	}
}

// recordFailure persists the receipt and, when the gateway still returned
// usable metadata, a FAILED transaction. No TransactionRef is written, so
// the hash stays reusable for a retried payment.
func (s *ReconcileServiceImpl) recordFailure(ctx context.Context, req ports.WebhookRequest, v *ports.GatewayVerification) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("event_id", req.EventID).Msg("begin failure record tx")
		return
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	receipt := &domain.WebhookReceipt{
		ID:        uuid.New(),
		Platform:  req.Platform,
		Action:    req.Action,
		EventID:   req.EventID,
		Payload:   req.RawPayload,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.receiptRepo.Create(ctx, dbTx, receipt); err != nil {
		s.log.Error().Err(err).Str("event_id", req.EventID).Msg("record failure receipt")
		return
	}

	if v.Intent.UserID != uuid.Nil && v.Intent.Hash != "" {
		now := time.Now().UTC()
		txn := &domain.Transaction{
			ID:          uuid.New(),
			UserID:      v.Intent.UserID,
			Amount:      v.Intent.Amount,
			Direction:   domain.DirectionCredit,
			Medium:      mediumFor(req.Platform),
			Gateway:     gatewayFor(req.Platform),
			Status:      domain.TransactionStatusFailed,
			Kind:        domain.KindWalletFunding,
			Hash:        v.Intent.Hash,
			Reference:   req.Reference,
			GatewayData: v.Raw,
			CreatedAt:   now,
			ProcessedAt: &now,
		}
		if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
			s.log.Error().Err(err).Str("event_id", req.EventID).Msg("record failed transaction")
			return
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		s.log.Error().Err(err).Str("event_id", req.EventID).Msg("commit failure record")
	}
}

func gatewayFor(p domain.Platform) domain.Gateway {
	switch p {
	case domain.PlatformPaystack:
		return domain.GatewayPaystack
	case domain.PlatformFlutterwave:
		return domain.GatewayFlutterwave
	case domain.PlatformMono:
		return domain.GatewayMono
	default:
		return domain.GatewayInternal
	}
}

func mediumFor(p domain.Platform) domain.Medium {
	if p == domain.PlatformMono {
		return domain.MediumDirectDebit
	}
	return domain.MediumCard
}
