package ports

import (
	"context"
	"encoding/json"
	"time"

	"invest-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TokenService handles JWT token operations for user-facing routes.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
}

// GatewayClient isolates one payment gateway's wire quirks: webhook
// authenticity, event parsing, and the verification API call. The core only
// ever sees the canonical shapes.
type GatewayClient interface {
	Platform() domain.Platform
	// VerifySignature authenticates a raw webhook body against the value of
	// the gateway's signature header.
	VerifySignature(body []byte, header string) bool
	// ParseEvent extracts the canonical webhook request from a raw body.
	ParseEvent(body []byte) (*WebhookRequest, error)
	VerifyTransaction(ctx context.Context, reference string) (*GatewayVerification, error)
}

// GatewayVerification is the canonical result of a gateway verify call.
type GatewayVerification struct {
	Succeeded bool
	Amount    int64 // minor units, as confirmed by the gateway
	Intent    domain.PaymentIntent
	Raw       json.RawMessage
}

// WebhookDedupStore is the fast-path duplicate-delivery check (Redis SET NX).
// The WebhookReceipt unique constraint remains the authoritative gate.
type WebhookDedupStore interface {
	// CheckAndSet returns true if the event id is new.
	CheckAndSet(ctx context.Context, platform domain.Platform, eventID string, ttl time.Duration) (bool, error)
}

// NotificationQueue submits fire-and-forget jobs to the background worker
// pool. Callers never wait for delivery confirmation.
type NotificationQueue interface {
	Enqueue(ctx context.Context, job string, payload any) error
}

// --- Service Ports (Business Logic) ---

// WalletService composes the ledger primitives with the transaction recorder.
// The Tx variants run inside a caller-supplied unit of work and are the leaf
// operations higher-level flows build on; plain variants open their own.
type WalletService interface {
	Credit(ctx context.Context, req CreditWalletRequest) (*domain.Transaction, error)
	CreditTx(ctx context.Context, tx pgx.Tx, req CreditWalletRequest) (*domain.Transaction, error)
	Debit(ctx context.Context, req DebitWalletRequest) (*domain.Transaction, error)
	DebitTx(ctx context.Context, tx pgx.Tx, req DebitWalletRequest) (*domain.Transaction, error)
	DebitReferralTx(ctx context.Context, tx pgx.Tx, req DebitWalletRequest) (*domain.Transaction, error)
	Balance(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
}

// CreditWalletRequest holds validated input for a wallet credit.
// RawPayload, when set, is stored as the transaction's opaque gateway data.
type CreditWalletRequest struct {
	UserID     uuid.UUID
	Amount     int64
	Hash       string
	Reference  string
	Gateway    domain.Gateway
	Medium     domain.Medium
	Kind       domain.TransactionKind
	RawPayload json.RawMessage
}

// DebitWalletRequest holds validated input for a wallet debit.
type DebitWalletRequest struct {
	UserID       uuid.UUID
	Amount       int64
	Hash         string
	Reference    string
	Kind         domain.TransactionKind
	PortfolioID  *uuid.UUID
	InvestmentID *uuid.UUID
}

// InvestmentService composes wallet debits (or externally settled payments)
// with portfolio/investment creation and listing inventory reservation.
type InvestmentService interface {
	CreateFromWallet(ctx context.Context, req CreateInvestmentRequest) (*InvestmentResult, error)
	TopUpFromWallet(ctx context.Context, req TopUpInvestmentRequest) (*InvestmentResult, error)
	CreateTx(ctx context.Context, tx pgx.Tx, req CreateInvestmentRequest) (*InvestmentResult, error)
	TopUpTx(ctx context.Context, tx pgx.Tx, req TopUpInvestmentRequest) (*InvestmentResult, error)
	Pause(ctx context.Context, userID, portfolioID uuid.UUID) (*domain.Portfolio, error)
	Resume(ctx context.Context, userID, portfolioID uuid.UUID) (*domain.Portfolio, error)
}

// CreateInvestmentRequest holds validated input for a new investment.
// FundedExternally marks payments already settled and verified with an
// external gateway; otherwise the amount is debited from the user's wallet
// inside the same unit of work.
type CreateInvestmentRequest struct {
	UserID           uuid.UUID
	ListingID        uuid.UUID
	Amount           int64
	DurationMonths   int
	Occurrence       domain.Occurrence
	AutoReinvest     bool
	Hash             string
	Reference        string
	Gateway          domain.Gateway
	Medium           domain.Medium
	FundedExternally bool
	RawPayload       json.RawMessage
}

// TopUpInvestmentRequest holds validated input for an investment top-up.
type TopUpInvestmentRequest struct {
	UserID           uuid.UUID
	PortfolioID      uuid.UUID
	Amount           int64
	Hash             string
	Reference        string
	Gateway          domain.Gateway
	Medium           domain.Medium
	FundedExternally bool
	RawPayload       json.RawMessage
}

// InvestmentResult bundles the records one funding event creates.
type InvestmentResult struct {
	Portfolio   *domain.Portfolio
	Investment  *domain.Investment
	Transaction *domain.Transaction
}

// ReferralService pays the first-investment bonus, at most once per investor.
type ReferralService interface {
	ProcessTx(ctx context.Context, tx pgx.Tx, investorID uuid.UUID, amount int64) error
}

// ReconcileService processes verified gateway webhooks. All idempotency and
// authenticity checks happen strictly before any balance mutation.
type ReconcileService interface {
	Process(ctx context.Context, req WebhookRequest) error
}

// WebhookRequest is a signature-verified inbound webhook, reduced to what
// reconciliation needs. RawPayload keeps the original body for audit.
type WebhookRequest struct {
	Platform   domain.Platform
	EventID    string
	Action     string
	Reference  string
	RawPayload json.RawMessage
}
