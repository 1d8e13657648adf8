package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// TransactionTo enumerates the webhook sub-flows a verified payment can be
// dispatched to. Reconciliation switches over it exhaustively.
type TransactionTo string

const (
	ToWallet          TransactionTo = "WALLET"
	ToAddCard         TransactionTo = "ADD_CARD"
	ToInvestment      TransactionTo = "INVESTMENT"
	ToInvestmentTopUp TransactionTo = "INVESTMENT_TOPUP"
)

// ParseTransactionTo validates a raw metadata value.
func ParseTransactionTo(s string) (TransactionTo, error) {
	switch to := TransactionTo(s); to {
	case ToWallet, ToAddCard, ToInvestment, ToInvestmentTopUp:
		return to, nil
	default:
		return "", fmt.Errorf("unknown transaction_to %q", s)
	}
}

// CardAuthorization is the reusable charge token a gateway returns with a
// successful card payment.
type CardAuthorization struct {
	Token    string `json:"authorization_code"`
	Last4    string `json:"last4"`
	CardType string `json:"card_type"`
	ExpMonth string `json:"exp_month"`
	ExpYear  string `json:"exp_year"`
}

// PaymentIntent is the canonical payload every gateway's webhook metadata is
// mapped into. Gateway quirks stop at the adapter; the core only ever sees
// this shape.
type PaymentIntent struct {
	UserID        uuid.UUID
	To            TransactionTo
	Amount        int64 // minor units, as verified with the gateway
	Hash          string
	Reference     string
	ListingID     uuid.UUID // INVESTMENT / INVESTMENT_TOPUP
	PortfolioID   uuid.UUID // INVESTMENT_TOPUP
	DurationMonth int       // INVESTMENT
	Occurrence    Occurrence
	AutoReinvest  bool
	Card          *CardAuthorization // ADD_CARD
}
