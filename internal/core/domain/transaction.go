package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Direction represents the kind of money movement.
type Direction string

const (
	DirectionCredit     Direction = "CREDIT"
	DirectionDebit      Direction = "DEBIT"
	DirectionWithdrawal Direction = "WITHDRAWAL"
	DirectionReinvest   Direction = "REINVEST"
)

// Medium is the instrument the money moved through.
type Medium string

const (
	MediumWallet      Medium = "WALLET"
	MediumCard        Medium = "CARD"
	MediumBank        Medium = "BANK"
	MediumDirectDebit Medium = "DIRECT_DEBIT"
)

// Gateway identifies where a transaction originated or settled.
type Gateway string

const (
	GatewayPaystack       Gateway = "PAYSTACK"
	GatewayFlutterwave    Gateway = "FLUTTERWAVE"
	GatewayMono           Gateway = "MONO"
	GatewayWallet         Gateway = "WALLET"
	GatewayReferralWallet Gateway = "REFERRAL_WALLET"
	GatewayInternal       Gateway = "INTERNAL"
)

// Internal reports whether the gateway settles inside this system, without an
// external confirmation step.
func (g Gateway) Internal() bool {
	return g == GatewayWallet || g == GatewayReferralWallet || g == GatewayInternal
}

// TransactionStatus represents the lifecycle state of a transaction.
// PENDING may transition to SUCCESSFUL or FAILED exactly once.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusSuccessful TransactionStatus = "SUCCESSFUL"
	TransactionStatusFailed     TransactionStatus = "FAILED"
)

// TransactionKind is the domain classification of a transaction.
type TransactionKind string

const (
	KindWalletFunding   TransactionKind = "WALLET_FUNDING"
	KindWalletDebit     TransactionKind = "WALLET_DEBIT"
	KindInvestment      TransactionKind = "INVESTMENT"
	KindInvestmentTopUp TransactionKind = "INVESTMENT_TOPUP"
	KindReferralBonus   TransactionKind = "REFERRAL_BONUS"
	KindCardFunding     TransactionKind = "CARD_FUNDING"
)

// Transaction is an immutable ledger entry for one money movement.
// Hash is the idempotency key; a debit+credit pair of a transfer shares it.
type Transaction struct {
	ID            uuid.UUID         `json:"id"`
	UserID        uuid.UUID         `json:"user_id"`
	AccountID     *uuid.UUID        `json:"account_id,omitempty"`
	Amount        int64             `json:"amount"`
	Direction     Direction         `json:"direction"`
	Medium        Medium            `json:"medium"`
	Gateway       Gateway           `json:"gateway"`
	Status        TransactionStatus `json:"status"`
	Kind          TransactionKind   `json:"kind"`
	BalanceBefore *int64            `json:"balance_before,omitempty"`
	BalanceAfter  *int64            `json:"balance_after,omitempty"`
	PortfolioID   *uuid.UUID        `json:"portfolio_id,omitempty"`
	InvestmentID  *uuid.UUID        `json:"investment_id,omitempty"`
	Hash          string            `json:"transaction_hash"`
	Reference     string            `json:"payment_reference,omitempty"`
	GatewayData   json.RawMessage   `json:"-"` // opaque external-gateway payload
	CreatedAt     time.Time         `json:"created_at"`
	ProcessedAt   *time.Time        `json:"processed_at,omitempty"`
}

// Settled reports whether the transaction is in a final state.
func (t *Transaction) Settled() bool {
	return t.Status == TransactionStatusSuccessful || t.Status == TransactionStatusFailed
}

// TransactionRef is the secondary idempotency/audit record created alongside
// every Transaction. At most one exists per hash; its presence means the
// operation must not be repeated.
type TransactionRef struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    int64     `json:"amount"`
	Hash      string    `json:"transaction_hash"`
	CreatedAt time.Time `json:"created_at"`
}
