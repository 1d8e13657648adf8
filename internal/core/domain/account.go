package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountKind distinguishes a user's main wallet from their referral wallet.
type AccountKind string

const (
	AccountKindMain     AccountKind = "MAIN"
	AccountKindReferral AccountKind = "REFERRAL"
)

// Account is a wallet-like balance holder. Amounts are in minor units (kobo).
type Account struct {
	ID               uuid.UUID   `json:"id"`
	UserID           uuid.UUID   `json:"user_id"`
	Kind             AccountKind `json:"kind"`
	Balance          int64       `json:"balance"`
	TotalCredited    int64       `json:"total_credited"`
	TotalDebited     int64       `json:"total_debited"`
	CreditCount      int64       `json:"credit_count"`
	DebitCount       int64       `json:"debit_count"`
	LastCreditAmount int64       `json:"last_credit_amount"`
	LastDebitAmount  int64       `json:"last_debit_amount"`
	LastCreditAt     *time.Time  `json:"last_credit_at,omitempty"`
	LastDebitAt      *time.Time  `json:"last_debit_at,omitempty"`
	Currency         string      `json:"currency"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// BalanceSnapshot is the before/after pair returned by an atomic ledger
// mutation. Both values come from the mutation's own RETURNING clause, never
// from a separate prior read.
type BalanceSnapshot struct {
	Before int64 `json:"balance_before"`
	After  int64 `json:"balance_after"`
}
