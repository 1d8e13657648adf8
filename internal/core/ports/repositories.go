package ports

import (
	"context"
	"time"

	"invest-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepository defines persistence for wallet accounts.
// Credit and Debit are the ledger primitives: single atomic read-modify-write
// statements whose RETURNING clause is the source of both snapshot values.
type AccountRepository interface {
	Create(ctx context.Context, tx pgx.Tx, account *domain.Account) error
	GetByUser(ctx context.Context, userID uuid.UUID, kind domain.AccountKind) (*domain.Account, error)
	// Credit atomically adds amount to the account balance and running totals.
	Credit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64) (*domain.BalanceSnapshot, error)
	// Debit atomically subtracts amount, guarded by balance >= amount.
	// Returns (nil, nil) when the guard fails, so callers can surface
	// insufficient funds as a typed condition.
	Debit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64) (*domain.BalanceSnapshot, error)
}

// TransactionRepository defines persistence for ledger transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// ExistsByHash reports whether a non-failed transaction carries the hash.
	// Failed attempts do not block a later retry of the same logical movement.
	ExistsByHash(ctx context.Context, hash string) (bool, error)
	ExistsByReference(ctx context.Context, reference string) (bool, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	UserID   uuid.UUID
	Status   *domain.TransactionStatus
	Kind     *domain.TransactionKind
	Page     int
	PageSize int
}

// TransactionRefRepository defines persistence for the secondary
// idempotency index. The hash column carries a unique constraint.
type TransactionRefRepository interface {
	Create(ctx context.Context, tx pgx.Tx, ref *domain.TransactionRef) error
	ExistsByHash(ctx context.Context, hash string) (bool, error)
}

// WebhookReceiptRepository defines persistence for processed webhook
// deliveries. (platform, event_id) carries a unique constraint.
type WebhookReceiptRepository interface {
	Create(ctx context.Context, tx pgx.Tx, receipt *domain.WebhookReceipt) error
	Exists(ctx context.Context, platform domain.Platform, eventID string) (bool, error)
}

// ListingRepository defines persistence for investable listings.
type ListingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
	// Reserve atomically decrements available_tokens (guarded so inventory
	// never goes negative), bumps aggregate stats and adds the investor to
	// the listing's investor set. Returns false when the guard fails.
	Reserve(ctx context.Context, tx pgx.Tx, listingID, investorID uuid.UUID, tokens, amount int64) (bool, error)
}

// PortfolioRepository defines persistence for investment commitments.
type PortfolioRepository interface {
	Create(ctx context.Context, tx pgx.Tx, portfolio *domain.Portfolio) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error)
	// ApplyTopUp additively updates cumulative counters and, when non-nil,
	// the recurring charge dates.
	ApplyTopUp(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount, tokens int64, nextChargeAt, lastChargeAt *time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PortfolioStatus) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Portfolio, error)
}

// InvestmentRepository defines persistence for funded tranches.
type InvestmentRepository interface {
	Create(ctx context.Context, tx pgx.Tx, investment *domain.Investment) error
	AttachTransaction(ctx context.Context, tx pgx.Tx, investmentID, transactionID uuid.UUID) error
}

// UserRepository defines the slice of user persistence the ledger needs.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// MarkFirstInvestment flips has_invested false->true. Returns false when
	// the flag was already set, which is the exactly-once referral gate.
	MarkFirstInvestment(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (bool, error)
	IncrementReferralInvested(ctx context.Context, tx pgx.Tx, referrerID uuid.UUID) error
	AddTotalFunded(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64) error
	AddTotalInvested(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64) error
}

// CardRepository defines persistence for stored card authorizations.
type CardRepository interface {
	Create(ctx context.Context, tx pgx.Tx, card *domain.Card) error
}

// DBTransactor provides database transaction management. The returned pgx.Tx
// is the unit-of-work handle threaded explicitly through every repository
// call of one top-level operation.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
