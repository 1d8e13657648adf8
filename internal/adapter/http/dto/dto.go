package dto

import (
	"invest-ledger/internal/core/domain"
)

// DebitWalletRequest is the request body for spending from the main wallet.
// TransactionHash is the client-supplied idempotency key; retrying with the
// same hash never debits twice.
type DebitWalletRequest struct {
	Amount          int64  `json:"amount" binding:"required,gt=0"`
	TransactionHash string `json:"transaction_hash" binding:"required,max=128,safe_id"`
	Reference       string `json:"reference,omitempty" binding:"omitempty,max=128"`
}

// CreateInvestmentRequest is the request body for a wallet-funded investment.
type CreateInvestmentRequest struct {
	ListingID       string `json:"listing_id" binding:"required,uuid"`
	Amount          int64  `json:"amount" binding:"required,gt=0"`
	DurationMonths  int    `json:"duration_months" binding:"required,gt=0"`
	Occurrence      string `json:"occurrence,omitempty" binding:"omitempty,oneof=ONE_TIME RECURRING"`
	AutoReinvest    bool   `json:"auto_reinvest,omitempty"`
	TransactionHash string `json:"transaction_hash" binding:"required,max=128,safe_id"`
}

// TopUpInvestmentRequest is the request body for a wallet-funded top-up.
type TopUpInvestmentRequest struct {
	Amount          int64  `json:"amount" binding:"required,gt=0"`
	TransactionHash string `json:"transaction_hash" binding:"required,max=128,safe_id"`
}

// ListTransactionsQuery holds the filter and pagination query parameters.
type ListTransactionsQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=PENDING SUCCESSFUL FAILED"`
	Kind     string `form:"kind" binding:"omitempty,oneof=WALLET_FUNDING WALLET_DEBIT INVESTMENT INVESTMENT_TOPUP REFERRAL_BONUS CARD_FUNDING"`
	Page     int    `form:"page" binding:"omitempty,gte=1"`
	PageSize int    `form:"page_size" binding:"omitempty,gte=1,lte=100"`
}

// WalletBalanceResponse is the response body for a balance read.
type WalletBalanceResponse struct {
	Balance       int64  `json:"balance"`
	Currency      string `json:"currency"`
	TotalCredited int64  `json:"total_credited"`
	TotalDebited  int64  `json:"total_debited"`
}

// TransactionResponse is the response body for ledger entries.
type TransactionResponse struct {
	ID              string  `json:"id"`
	Amount          int64   `json:"amount"`
	Direction       string  `json:"direction"`
	Medium          string  `json:"medium"`
	Gateway         string  `json:"gateway"`
	Status          string  `json:"status"`
	Kind            string  `json:"kind"`
	BalanceBefore   *int64  `json:"balance_before,omitempty"`
	BalanceAfter    *int64  `json:"balance_after,omitempty"`
	TransactionHash string  `json:"transaction_hash"`
	Reference       string  `json:"payment_reference,omitempty"`
	CreatedAt       string  `json:"created_at"`
	ProcessedAt     *string `json:"processed_at,omitempty"`
}

// TransactionListResponse is a paginated page of ledger entries.
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
}

// InvestmentResponse bundles the records a funding event created.
type InvestmentResponse struct {
	Portfolio   *domain.Portfolio   `json:"portfolio"`
	Investment  *domain.Investment  `json:"investment"`
	Transaction TransactionResponse `json:"transaction"`
}

// WebhookAck is the acknowledgement body returned to gateways. Duplicates
// are acknowledged too, so redeliveries stop.
type WebhookAck struct {
	Status string `json:"status"`
}

// ToTransactionResponse maps a domain transaction to its wire shape.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:              txn.ID.String(),
		Amount:          txn.Amount,
		Direction:       string(txn.Direction),
		Medium:          string(txn.Medium),
		Gateway:         string(txn.Gateway),
		Status:          string(txn.Status),
		Kind:            string(txn.Kind),
		BalanceBefore:   txn.BalanceBefore,
		BalanceAfter:    txn.BalanceAfter,
		TransactionHash: txn.Hash,
		Reference:       txn.Reference,
		CreatedAt:       txn.CreatedAt.Format(timeFormat),
	}
	if txn.ProcessedAt != nil {
		s := txn.ProcessedAt.Format(timeFormat)
		resp.ProcessedAt = &s
	}
	return resp
}

const timeFormat = "2006-01-02T15:04:05Z07:00"
